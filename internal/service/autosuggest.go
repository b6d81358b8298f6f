package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/vendorseo/internal/domain"
	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/telemetry"
)

// AutosuggestConfig holds configuration for the autosuggest client.
type AutosuggestConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AutosuggestClient queries a DuckDuckGo-style /ac/ endpoint.
type AutosuggestClient struct {
	up       *upstream
	endpoint string
}

// NewAutosuggestClient creates an autosuggest client.
func NewAutosuggestClient(cfg *AutosuggestConfig, metrics *telemetry.Metrics) *AutosuggestClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &AutosuggestClient{
		up:       newUpstream("autosuggest", timeout, metrics),
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/ac/",
	}
}

// Suggest returns the suggestion phrases for query, in service order.
func (c *AutosuggestClient) Suggest(ctx context.Context, query string) ([]string, error) {
	resp, err := c.up.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{"q": query, "type": "list"}).Get(c.endpoint)
	})
	if err != nil {
		return nil, err
	}
	// The service answers with a javascript content type, so resty won't decode it.
	return decodeSuggestions(resp.Body())
}

// ExpandSeeds queries each term in order and flattens the results. Terms whose
// lookup fails are skipped.
func (c *AutosuggestClient) ExpandSeeds(ctx context.Context, terms []string) []domain.AutosuggestSeed {
	seeds := make([]domain.AutosuggestSeed, 0)
	for _, term := range terms {
		phrases, err := c.Suggest(ctx, term)
		if err != nil {
			logger.FromContext(ctx).WithError(err).Warnf("Autosuggest failed for seed %q", term)
			continue
		}
		for _, p := range phrases {
			seeds = append(seeds, domain.AutosuggestSeed{Seed: term, Suggestion: p})
		}
	}
	return seeds
}

type phraseItem struct {
	Phrase string `json:"phrase"`
}

// decodeSuggestions accepts both `[{"phrase": ...}]` and the OpenSearch list
// form `["query", ["s1", "s2"]]`.
func decodeSuggestions(body []byte) ([]string, error) {
	var items []phraseItem
	if err := json.Unmarshal(body, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, it := range items {
			if p := strings.TrimSpace(it.Phrase); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode autosuggest response: %w", err)
	}
	if len(list) < 2 {
		return []string{}, nil
	}
	var phrases []string
	if err := json.Unmarshal(list[1], &phrases); err != nil {
		return nil, fmt.Errorf("decode autosuggest list: %w", err)
	}
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
