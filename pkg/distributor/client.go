package distributor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/LastZactionHero/part-finder/pkg/models"
)

const (
	defaultBaseURL = "https://api.mouser.com/api/v1.0"

	maxRetries       = 3
	retryDelay       = 10 * time.Second
	requestSpacing   = 500 * time.Millisecond
	requestTimeout   = 15 * time.Second
)

// Client searches the distributor by keyword and by manufacturer part
// number, consulting Cache first and writing successful responses back
// to it. Grounded on original_source/core/mouser_api.py for the retry
// schedule and field normalization, and on
// acdtunes-spacetraders/internal/adapters/api/client.go for the Go
// retry-loop shape.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	cache       *Cache
	apiKey      string
	baseURL     string
}

// NewClient builds a distributor client. apiKey is the Mouser API key;
// cache is shared across all callers in the process.
func NewClient(apiKey string, cache *Cache) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		rateLimiter: rate.NewLimiter(rate.Every(requestSpacing), 1),
		cache:       cache,
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
	}
}

// SearchByKeyword returns up to `records` raw part records for keyword,
// consulting the cache first and populating it on a fresh remote call.
func (c *Client) SearchByKeyword(ctx context.Context, keyword string, records int) ([]PartRecord, error) {
	raw, err := c.searchRaw(ctx, keyword, models.SearchKeyword, records)
	if err != nil {
		return nil, err
	}

	parts := raw.SearchResults.Parts
	if len(parts) > records {
		parts = parts[:records]
	}
	out := make([]PartRecord, 0, len(parts))
	for _, p := range parts {
		out = append(out, parsePartRecord(p))
	}
	return out, nil
}

// SearchByMpn returns the normalized single best record for mpn, or
// ErrNotFound if the distributor has no such part.
func (c *Client) SearchByMpn(ctx context.Context, mpn string) (*PartRecord, error) {
	raw, err := c.searchRaw(ctx, mpn, models.SearchMpn, 1)
	if err != nil {
		return nil, err
	}
	if len(raw.SearchResults.Parts) == 0 {
		return nil, ErrNotFound
	}
	rec := parsePartRecord(raw.SearchResults.Parts[0])
	return &rec, nil
}

// searchRaw performs the cache-then-remote-call flow shared by both
// search operations, mirroring search_mouser_by_keyword /
// search_mouser_by_mpn.
func (c *Client) searchRaw(ctx context.Context, term string, searchType models.SearchType, records int) (*mouserSearchResponse, error) {
	if cached, ok := c.cache.Get(ctx, term, searchType); ok {
		var resp mouserSearchResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
		slog.Warn("distributor cache entry unparsable, falling back to remote call",
			"search_term", term, "search_type", searchType)
	}

	resp, rawBody, err := c.requestWithRetry(ctx, term, searchType, records)
	if err != nil {
		return nil, err
	}

	c.cache.Put(ctx, term, searchType, rawBody)
	return resp, nil
}

// requestWithRetry implements the retry policy from spec.md §4.3:
// a ~0.5s pre-request floor (the rate limiter), up to 3 retries with a
// fixed ~10s delay on transport errors or HTTP 429, immediate failure on
// any other non-2xx status, and treating a non-empty application-level
// Errors block as a non-retriable failure.
func (c *Client) requestWithRetry(ctx context.Context, term string, searchType models.SearchType, records int) (*mouserSearchResponse, json.RawMessage, error) {
	url := fmt.Sprintf("%s/search/keyword?apiKey=%s", c.baseURL, c.apiKey)
	body := mouserSearchRequest{
		SearchByKeywordRequest: mouserSearchRequestBody{
			Keyword:        term,
			Records:        records,
			StartingRecord: 0,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("distributor: marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("distributor: rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, nil, fmt.Errorf("distributor: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: network error: %v", ErrDistributorAPI, err)
			if attempt < maxRetries {
				slog.Warn("distributor request failed, retrying", "search_term", term, "attempt", attempt, "error", err)
				time.Sleep(retryDelay)
				continue
			}
			break
		}

		rawBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, nil, fmt.Errorf("distributor: read response: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%w: rate limited (429)", ErrDistributorAPI)
			if attempt < maxRetries {
				slog.Warn("distributor rate limited, retrying", "search_term", term, "attempt", attempt)
				time.Sleep(retryDelay)
				continue
			}
			break
		}

		if resp.StatusCode != http.StatusOK {
			return nil, nil, fmt.Errorf("%w: status %d: %s", ErrDistributorAPI, resp.StatusCode, strings.TrimSpace(string(rawBody)))
		}

		var parsed mouserSearchResponse
		if err := json.Unmarshal(rawBody, &parsed); err != nil {
			return nil, nil, fmt.Errorf("distributor: invalid json response: %w", err)
		}
		if len(parsed.Errors) > 0 {
			return nil, nil, fmt.Errorf("%w: %v", ErrDistributorAPI, parsed.Errors)
		}

		return &parsed, json.RawMessage(rawBody), nil
	}

	if lastErr != nil {
		return nil, nil, lastErr
	}
	return nil, nil, fmt.Errorf("%w: exhausted retries", ErrDistributorAPI)
}

// parsePartRecord normalizes one raw Mouser part per spec.md §4.3's
// field table, mirroring _parse_mouser_part_data.
func parsePartRecord(p mouserPart) PartRecord {
	rec := PartRecord{
		DistributorPartNumber:  p.MouserPartNumber,
		ManufacturerPartNumber: p.ManufacturerPartNumber,
		ManufacturerName:       p.Manufacturer,
		Description:            p.Description,
		DatasheetURL:           p.DataSheetURL,
	}

	if len(p.PriceBreaks) > 0 {
		breaks := make([]mouserPriceBreak, len(p.PriceBreaks))
		copy(breaks, p.PriceBreaks)
		sort.Slice(breaks, func(i, j int) bool { return breaks[i].Quantity < breaks[j].Quantity })
		priceStr := strings.ReplaceAll(breaks[0].Price, "$", "")
		if price, err := decimal.NewFromString(strings.TrimSpace(priceStr)); err == nil {
			rec.Price = &price
		}
	}

	switch {
	case isInStock(p.AvailabilityInStock):
		rec.Availability = "In Stock"
	case p.LeadTime != "":
		rec.Availability = "Lead Time: " + p.LeadTime
	default:
		rec.Availability = "Unknown"
	}

	return rec
}

func isInStock(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return false
	}
	return n > 0
}
