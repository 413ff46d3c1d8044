package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vkotek/grounder/internal/report"
	"github.com/vkotek/grounder/internal/search"
)

type stubProvider struct {
	name string
	fn   func(query string, domains []string) []search.Hit

	mu      sync.Mutex
	queries []string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, query string, domains []string) []search.Hit {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.fn == nil {
		return nil
	}
	return s.fn(query, domains)
}

type stubFilter struct {
	fn func(topic string, hits []search.Hit) []search.Hit
}

func (s stubFilter) Filter(_ context.Context, topic string, hits []search.Hit) []search.Hit {
	return s.fn(topic, hits)
}

type stubExtractor struct {
	fn func(url string) string
}

func (s stubExtractor) Extract(_ context.Context, url string) string {
	if s.fn == nil {
		return ""
	}
	return s.fn(url)
}

func hitsN(n int) []search.Hit {
	out := make([]search.Hit, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, search.Hit{Title: fmt.Sprintf("Hit %d", i), URL: fmt.Sprintf("https://example.com/%d", i)})
	}
	return out
}

// Scenario A: primary returns 3 hits, judge keeps the top 2 — the document
// contains exactly those 2 numbered sections in judge order.
func TestDocument_JudgeOrderSurvives(t *testing.T) {
	primary := &stubProvider{name: "primary", fn: func(string, []string) []search.Hit {
		return hitsN(3)
	}}
	fallback := &stubProvider{name: "fallback"}
	p := &Pipeline{
		Primary:  primary,
		Fallback: fallback,
		Filter: stubFilter{fn: func(_ string, hits []search.Hit) []search.Hit {
			return []search.Hit{hits[2], hits[0]}
		}},
		Extractor: stubExtractor{fn: func(url string) string { return "content for " + url }},
	}
	doc := p.Document(context.Background(), Request{Topic: "bitcoin", Queries: []string{"bitcoin trends 2025"}})

	if n := strings.Count(doc, "### Result"); n != 2 {
		t.Fatalf("expected exactly 2 sections, got %d:\n%s", n, doc)
	}
	i2 := strings.Index(doc, "### Result 1: [Hit 2]")
	i0 := strings.Index(doc, "### Result 2: [Hit 0]")
	if i2 < 0 || i0 < 0 || i0 < i2 {
		t.Fatalf("judge order not preserved:\n%s", doc)
	}
	if len(fallback.queries) != 0 {
		t.Fatalf("fallback must not run when primary produced hits")
	}
}

// Scenario B: primary is empty for every query, fallback returns 1 hit — one
// section, and the fallback ran once per query.
func TestDocument_FallbackReplacesEmptyPrimary(t *testing.T) {
	primary := &stubProvider{name: "primary"}
	fallback := &stubProvider{name: "fallback", fn: func(query string, _ []string) []search.Hit {
		if query == "q1" {
			return hitsN(1)
		}
		return nil
	}}
	p := &Pipeline{
		Primary:   primary,
		Fallback:  fallback,
		Filter:    stubFilter{fn: func(_ string, hits []search.Hit) []search.Hit { return hits }},
		Extractor: stubExtractor{},
	}
	doc := p.Document(context.Background(), Request{Topic: "t", Queries: []string{"q1", "q2"}})

	if n := strings.Count(doc, "### Result"); n != 1 {
		t.Fatalf("expected exactly 1 section, got %d:\n%s", n, doc)
	}
	if len(primary.queries) != 2 {
		t.Fatalf("primary should run once per query, got %v", primary.queries)
	}
	if len(fallback.queries) != 2 {
		t.Fatalf("fallback should rerun every query, got %v", fallback.queries)
	}
}

// Scenario C: degraded filter passes 5 hits through and extraction always
// fails — 5 sections, each with the no-content sentinel.
func TestDocument_DegradedFilterAndExtraction(t *testing.T) {
	primary := &stubProvider{name: "primary", fn: func(string, []string) []search.Hit {
		return hitsN(5)
	}}
	p := &Pipeline{
		Primary:   primary,
		Filter:    stubFilter{fn: func(_ string, hits []search.Hit) []search.Hit { return hits }},
		Extractor: stubExtractor{fn: func(string) string { return "" }},
	}
	doc := p.Document(context.Background(), Request{Topic: "t", Queries: []string{"q"}})

	if n := strings.Count(doc, "### Result"); n != 5 {
		t.Fatalf("expected 5 sections, got %d:\n%s", n, doc)
	}
	if n := strings.Count(doc, "No content extracted."); n != 5 {
		t.Fatalf("expected 5 no-content sentinels, got %d:\n%s", n, doc)
	}
}

func TestRun_SingleHitAnywhereSuppressesFallback(t *testing.T) {
	primary := &stubProvider{name: "primary", fn: func(query string, _ []string) []search.Hit {
		if query == "q2" {
			return hitsN(1)
		}
		return nil
	}}
	fallback := &stubProvider{name: "fallback", fn: func(string, []string) []search.Hit {
		return hitsN(3)
	}}
	p := &Pipeline{
		Primary:  primary,
		Fallback: fallback,
		Filter:   stubFilter{fn: func(_ string, hits []search.Hit) []search.Hit { return hits }},
	}
	res := p.Run(context.Background(), Request{Queries: []string{"q1", "q2", "q3"}})
	if len(fallback.queries) != 0 {
		t.Fatalf("partial primary success must suppress fallback, ran %v", fallback.queries)
	}
	if len(res.Sources) != 1 {
		t.Fatalf("expected primary's single hit, got %d", len(res.Sources))
	}
}

func TestRun_ConcurrentExtractionPreservesRankOrder(t *testing.T) {
	primary := &stubProvider{name: "primary", fn: func(string, []string) []search.Hit {
		return hitsN(8)
	}}
	p := &Pipeline{
		Primary: primary,
		Filter:  stubFilter{fn: func(_ string, hits []search.Hit) []search.Hit { return hits }},
		Extractor: stubExtractor{fn: func(url string) string {
			// Later ranks finish first to surface ordering bugs.
			if strings.HasSuffix(url, "/0") {
				time.Sleep(30 * time.Millisecond)
			}
			return "text from " + url
		}},
		ExtractConcurrency: 4,
	}
	res := p.Run(context.Background(), Request{Topic: "t", Queries: []string{"q"}})
	if len(res.Sources) != 8 {
		t.Fatalf("expected 8 sources, got %d", len(res.Sources))
	}
	for i, s := range res.Sources {
		wantURL := fmt.Sprintf("https://example.com/%d", i)
		if s.URL != wantURL {
			t.Fatalf("rank %d holds %q, want %q", i, s.URL, wantURL)
		}
		if s.Extract != "text from "+wantURL {
			t.Fatalf("rank %d extract mismatch: %q", i, s.Extract)
		}
	}
}

func TestRun_DedupeToggle(t *testing.T) {
	dup := []search.Hit{{Title: "Same", URL: "https://example.com/page"}}
	primary := &stubProvider{name: "primary", fn: func(string, []string) []search.Hit { return dup }}
	passthrough := stubFilter{fn: func(_ string, hits []search.Hit) []search.Hit { return hits }}

	p := &Pipeline{Primary: primary, Filter: passthrough}
	res := p.Run(context.Background(), Request{Queries: []string{"q1", "q2"}})
	if len(res.Sources) != 2 {
		t.Fatalf("default must keep cross-query duplicates, got %d", len(res.Sources))
	}

	p = &Pipeline{Primary: &stubProvider{name: "primary", fn: primary.fn}, Filter: passthrough, DedupeByURL: true}
	res = p.Run(context.Background(), Request{Queries: []string{"q1", "q2"}})
	if len(res.Sources) != 1 {
		t.Fatalf("dedupe enabled must collapse duplicates, got %d", len(res.Sources))
	}
}

func TestRun_NoExtractorLeavesSourcesBare(t *testing.T) {
	primary := &stubProvider{name: "primary", fn: func(string, []string) []search.Hit { return hitsN(2) }}
	p := &Pipeline{Primary: primary}
	res := p.Run(context.Background(), Request{Topic: "t", Queries: []string{"q"}})
	want := []report.Source{
		{Title: "Hit 0", URL: "https://example.com/0"},
		{Title: "Hit 1", URL: "https://example.com/1"},
	}
	if len(res.Sources) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(res.Sources))
	}
	for i := range want {
		if res.Sources[i] != want[i] {
			t.Fatalf("source %d: got %+v want %+v", i, res.Sources[i], want[i])
		}
	}
}
