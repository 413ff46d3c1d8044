package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestSearxNG_Search_ParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Doc", "url": "https://example.com", "content": "snippet"},
				{"title": "Bad", "url": "", "content": "no url"},
			},
		})
	}))
	defer srv.Close()

	s := &SearxNG{BaseURL: srv.URL, HTTPClient: srv.Client()}
	got := s.Search(context.Background(), "query", nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 valid hit, got %d", len(got))
	}
	if got[0].URL != "https://example.com" {
		t.Fatalf("unexpected url: %q", got[0].URL)
	}
	if got[0].Source != "searxng" {
		t.Fatalf("unexpected source: %q", got[0].Source)
	}
}

func TestSearxNG_Search_OneScopedRequestPerDomain(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("q"))
		mu.Unlock()
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("missing format=json")
		}
		if r.URL.Query().Get("engines") != "google" {
			t.Errorf("missing engines=google")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "T", "url": "https://example.com/a"},
			},
		})
	}))
	defer srv.Close()

	s := &SearxNG{BaseURL: srv.URL, HTTPClient: srv.Client()}
	got := s.Search(context.Background(), "bitcoin trends", []string{"wikipedia.org", "theguardian.com"})
	if len(queries) != 2 {
		t.Fatalf("expected one request per domain, got %d", len(queries))
	}
	for i, want := range []string{"bitcoin trends site:wikipedia.org", "bitcoin trends site:theguardian.com"} {
		if queries[i] != want {
			t.Fatalf("query %d: got %q want %q", i, queries[i], want)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected union of 2 hits, got %d", len(got))
	}
}

func TestSearxNG_Search_DomainFailureDoesNotAbortOthers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), "site:bad.example") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Good", "url": "https://good.example/page"},
			},
		})
	}))
	defer srv.Close()

	s := &SearxNG{BaseURL: srv.URL, HTTPClient: srv.Client()}
	got := s.Search(context.Background(), "q", []string{"bad.example", "good.example"})
	if len(got) != 1 {
		t.Fatalf("expected the surviving domain's hit, got %d", len(got))
	}
	if got[0].Title != "Good" {
		t.Fatalf("unexpected hit: %+v", got[0])
	}
}

func TestSearxNG_Search_UnreachableReturnsEmpty(t *testing.T) {
	s := &SearxNG{BaseURL: "http://127.0.0.1:0"}
	if got := s.Search(context.Background(), "q", nil); len(got) != 0 {
		t.Fatalf("expected no hits from unreachable backend, got %d", len(got))
	}
}

func TestSearxNG_Search_LanguageHintForwarded(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("language")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	s := &SearxNG{BaseURL: srv.URL, HTTPClient: srv.Client(), Language: "en"}
	_ = s.Search(context.Background(), "q", nil)
	if gotLang != "en" {
		t.Fatalf("expected language hint forwarded, got %q", gotLang)
	}
}
