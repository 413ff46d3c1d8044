package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSerperURL is the hosted Serper search endpoint.
const DefaultSerperURL = "https://google.serper.dev/search"

// Serper is the fallback provider, calling the Serper API. It is only
// consulted when the primary provider yields nothing across an entire run.
type Serper struct {
	BaseURL    string // defaults to DefaultSerperURL
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func (s *Serper) Name() string { return "serper" }

func (s *Serper) Search(ctx context.Context, query string, domains []string) []Hit {
	var out []Hit
	for _, domain := range scopes(domains) {
		q := scopedQuery(query, domain)
		hits, err := s.searchOnce(ctx, q)
		if err != nil {
			log.Warn().Err(err).Str("provider", s.Name()).Str("query", q).Msg("search request failed; skipping")
			continue
		}
		log.Debug().Str("provider", s.Name()).Str("query", q).Int("hits", len(hits)).Msg("fallback search")
		out = append(out, hits...)
	}
	return out
}

func (s *Serper) searchOnce(ctx context.Context, query string) ([]Hit, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("missing serper api key")
	}
	endpoint := s.BaseURL
	if endpoint == "" {
		endpoint = DefaultSerperURL
	}
	payload, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("serper status: %d", resp.StatusCode)
	}
	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}
	out := make([]Hit, 0, len(sr.Organic))
	for _, r := range sr.Organic {
		if r.Link == "" {
			continue
		}
		out = append(out, Hit{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.Link),
			Snippet: strings.TrimSpace(r.Snippet),
			Source:  s.Name(),
		})
	}
	return out, nil
}

func (s *Serper) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}
