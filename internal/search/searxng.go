package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// SearxNG is the primary provider, querying a SearxNG instance's /search
// endpoint with format=json and the google engine.
type SearxNG struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string // optional custom UA
	Language   string // optional language hint forwarded to the instance
	Timeout    time.Duration
}

func (s *SearxNG) Name() string { return "searxng" }

func (s *SearxNG) Search(ctx context.Context, query string, domains []string) []Hit {
	var out []Hit
	for _, domain := range scopes(domains) {
		q := scopedQuery(query, domain)
		hits, err := s.searchOnce(ctx, q)
		if err != nil {
			log.Warn().Err(err).Str("provider", s.Name()).Str("query", q).Msg("search request failed; skipping")
			continue
		}
		out = append(out, hits...)
	}
	return out
}

func (s *SearxNG) searchOnce(ctx context.Context, query string) ([]Hit, error) {
	if s.BaseURL == "" {
		return nil, fmt.Errorf("missing searxng base url")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("engines", "google")
	if s.Language != "" {
		q.Set("language", s.Language)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("searxng status: %d", resp.StatusCode)
	}
	var sr searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}
	out := make([]Hit, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.URL == "" {
			continue
		}
		out = append(out, Hit{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.URL),
			Snippet: strings.TrimSpace(r.Content),
			Source:  s.Name(),
		})
	}
	return out, nil
}

func (s *SearxNG) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}
