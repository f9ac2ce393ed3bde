package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, provider Provider, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewHTTPClient(provider, "test-key", "")
	c.httpClient = srv.Client()
	switch provider {
	case ProviderAnthropic:
		c.anthropicURL = srv.URL
	case ProviderGemini:
		c.geminiURL = srv.URL
	}
	return c, srv
}

func TestGenerateSearchTerms_AnthropicHappyPath(t *testing.T) {
	c, srv := newTestClient(t, ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Content: []struct {
				Text string `json:"text"`
			}{{Text: "10k resistor, 0805 resistor, RC0805-10K"}},
		})
	})
	defer srv.Close()

	terms, err := c.GenerateSearchTerms(context.Background(), PartInfo{Description: "10k resistor", Package: "0805"})
	require.NoError(t, err)
	assert.Equal(t, []string{"10k resistor", "0805 resistor", "RC0805-10K"}, terms)
}

func TestGenerateSearchTerms_AnthropicAPIErrorReturnsErrLLMFailure(t *testing.T) {
	c, srv := newTestClient(t, ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Error: &struct {
				Message string `json:"message"`
			}{Message: "overloaded"},
		})
	})
	defer srv.Close()

	_, err := c.GenerateSearchTerms(context.Background(), PartInfo{Description: "10k resistor"})
	assert.True(t, errors.Is(err, ErrLLMFailure))
}

func TestGenerateSearchTerms_AnthropicEmptyContentFails(t *testing.T) {
	c, srv := newTestClient(t, ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropicResponse{})
	})
	defer srv.Close()

	_, err := c.GenerateSearchTerms(context.Background(), PartInfo{Description: "10k resistor"})
	assert.True(t, errors.Is(err, ErrLLMFailure))
}

func TestChooseBestPart_GeminiHappyPath(t *testing.T) {
	c, srv := newTestClient(t, ProviderGemini, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{{Content: geminiContent{Parts: []geminiPart{{Text: "reasoning...\n[ManufacturerPartNumber:RC0805-10K]"}}}}},
		})
	})
	defer srv.Close()

	mpn, found, err := c.ChooseBestPart(context.Background(), PartInfo{Description: "10k resistor"}, "voltage divider", nil, []Candidate{{ManufacturerPartNumber: "RC0805-10K"}})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "RC0805-10K", mpn)
}

func TestChooseBestPart_GeminiNoStructuredTokenReturnsNotFound(t *testing.T) {
	c, srv := newTestClient(t, ProviderGemini, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{{Content: geminiContent{Parts: []geminiPart{{Text: "none of these candidates are suitable"}}}}},
		})
	})
	defer srv.Close()

	_, found, err := c.ChooseBestPart(context.Background(), PartInfo{Description: "10k resistor"}, "voltage divider", nil, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestChooseBestPart_GeminiEmptyCandidatesFails(t *testing.T) {
	c, srv := newTestClient(t, ProviderGemini, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(geminiResponse{})
	})
	defer srv.Close()

	_, _, err := c.ChooseBestPart(context.Background(), PartInfo{Description: "10k resistor"}, "voltage divider", nil, nil)
	assert.True(t, errors.Is(err, ErrLLMFailure))
}

func TestNormalizeBomRows_StripsCodeFenceFromResponse(t *testing.T) {
	c, srv := newTestClient(t, ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Content: []struct {
				Text string `json:"text"`
			}{{Text: "```json\n[{\"qty\":1,\"description\":\"resistor\",\"package\":\"0805\"}]\n```"}},
		})
	})
	defer srv.Close()

	out, err := c.NormalizeBomRows(context.Background(), `[{"bad": "row"}]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"qty":1,"description":"resistor","package":"0805"}]`, out)
}

func TestNormalizeBomRows_MalformedJSONStillReturnsRawText(t *testing.T) {
	c, srv := newTestClient(t, ProviderAnthropic, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Content: []struct {
				Text string `json:"text"`
			}{{Text: "not valid json at all"}},
		})
	})
	defer srv.Close()

	out, err := c.NormalizeBomRows(context.Background(), `[{"bad": "row"}]`)
	require.NoError(t, err)
	assert.Equal(t, "not valid json at all", out)
}

func TestComplete_UnknownProviderFails(t *testing.T) {
	c := NewHTTPClient(Provider("unknown"), "key", "model")
	_, err := c.GenerateSearchTerms(context.Background(), PartInfo{})
	assert.True(t, errors.Is(err, ErrLLMFailure))
}
