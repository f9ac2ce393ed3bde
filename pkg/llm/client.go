// Package llm talks to a large-language-model completion endpoint for
// two purposes: generating distributor search terms / ranking candidate
// parts (used by the matching pipeline), and normalizing malformed BOM
// rows (used by ingestion). Two prompt families, each a pure function
// of its inputs to a response string, per spec.md §4.4.
//
// The teacher's own LLM client (this file, originally, plus
// pkg/agent/llm_client.go) streams over gRPC against types generated by
// protoc from a .proto file; that generated code does not exist without
// running the Go toolchain, so this client is a plain net/http client
// against a provider's HTTP completion endpoint instead — see
// DESIGN.md.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is the interface MatchPipeline and Ingestion depend on,
// letting tests substitute a hand-written fake (per the teacher's
// test/util convention — no mocking framework is used anywhere in the
// retrieval pack).
type Client interface {
	GenerateSearchTerms(ctx context.Context, info PartInfo) ([]string, error)
	ChooseBestPart(ctx context.Context, info PartInfo, projectDesc string, bom []BomContextRow, candidates []Candidate) (mpn string, found bool, err error)
	NormalizeBomRows(ctx context.Context, rawRows string) (string, error)
}

// Provider selects which backend HTTPClient talks to.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// HTTPClient is the production Client, grounded on
// original_source/core/llm_handler.py's two backend variants
// (get_llm_response_anthropic, get_llm_response_gemini).
type HTTPClient struct {
	httpClient   *http.Client
	provider     Provider
	apiKey       string
	model        string
	anthropicURL string
	geminiURL    string
}

const (
	defaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	defaultGeminiURL    = "https://generativelanguage.googleapis.com/v1beta/models"
)

// NewHTTPClient builds a provider-backed LLM client. model may be empty
// to use the provider's default.
func NewHTTPClient(provider Provider, apiKey, model string) *HTTPClient {
	if model == "" {
		switch provider {
		case ProviderAnthropic:
			model = "claude-3-sonnet-20240229"
		default:
			model = "gemini-2.5-flash"
		}
	}
	return &HTTPClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		provider:     provider,
		apiKey:       apiKey,
		model:        model,
		anthropicURL: defaultAnthropicURL,
		geminiURL:    defaultGeminiURL,
	}
}

// GenerateSearchTerms asks the model for ~3 comma-separated search
// phrases and parses them per parse_search_terms.
func (c *HTTPClient) GenerateSearchTerms(ctx context.Context, info PartInfo) ([]string, error) {
	resp, err := c.complete(ctx, formatSearchTermPrompt(info))
	if err != nil {
		return nil, err
	}
	return parseSearchTerms(resp), nil
}

// ChooseBestPart asks the model to rank candidates and extracts the
// chosen MPN via the required [ManufacturerPartNumber:XYZ] token.
func (c *HTTPClient) ChooseBestPart(ctx context.Context, info PartInfo, projectDesc string, bom []BomContextRow, candidates []Candidate) (string, bool, error) {
	resp, err := c.complete(ctx, formatEvaluationPrompt(info, projectDesc, bom, candidates))
	if err != nil {
		return "", false, err
	}
	return extractMpnFromEval(resp)
}

// NormalizeBomRows asks the model to reformat an arbitrary row list into
// the canonical JSON array shape, stripping any Markdown code fence the
// model wraps its answer in.
func (c *HTTPClient) NormalizeBomRows(ctx context.Context, rawRows string) (string, error) {
	resp, err := c.complete(ctx, formatBomReformatPrompt(rawRows))
	if err != nil {
		return "", err
	}
	return stripCodeFence(resp), nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// complete dispatches to the configured provider's HTTP completion
// endpoint and returns the raw text response.
func (c *HTTPClient) complete(ctx context.Context, prompt string) (string, error) {
	switch c.provider {
	case ProviderAnthropic:
		return c.completeAnthropic(ctx, prompt)
	case ProviderGemini:
		return c.completeGemini(ctx, prompt)
	default:
		return "", fmt.Errorf("%w: unknown provider %q", ErrLLMFailure, c.provider)
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) completeAnthropic(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:       c.model,
		MaxTokens:   500,
		Temperature: 0.2,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrLLMFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.anthropicURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrLLMFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMFailure, err)
	}
	defer resp.Body.Close()

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrLLMFailure, err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		msg := ""
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: anthropic api error (status %d): %s", ErrLLMFailure, resp.StatusCode, msg)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("%w: empty anthropic response", ErrLLMFailure)
	}
	return parsed.Content[0].Text, nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) completeGemini(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrLLMFailure, err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.geminiURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrLLMFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMFailure, err)
	}
	defer resp.Body.Close()

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrLLMFailure, err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		msg := ""
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: gemini api error (status %d): %s", ErrLLMFailure, resp.StatusCode, msg)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty gemini response", ErrLLMFailure)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
