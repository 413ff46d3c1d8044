package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vkotek/grounder/internal/aggregate"
	"github.com/vkotek/grounder/internal/extract"
	"github.com/vkotek/grounder/internal/report"
	"github.com/vkotek/grounder/internal/search"
)

// Filter ranks raw hits for topical relevance. It never fails; degraded
// implementations pass hits through instead.
type Filter interface {
	Filter(ctx context.Context, topic string, hits []search.Hit) []search.Hit
}

// Request carries one retrieval invocation's inputs.
type Request struct {
	Topic   string
	Queries []string
	Domains []string
}

// Result is the terminal value of one invocation: the retained sources in
// judge order, each enriched with whatever text could be extracted.
type Result struct {
	Topic   string
	Sources []report.Source
}

// Pipeline sequences search, the fallback decision, relevance filtering,
// per-hit extraction, and formatting. Every stage degrades locally; Run never
// reports an error to its caller.
type Pipeline struct {
	Primary   search.Provider
	Fallback  search.Provider
	Filter    Filter
	Extractor extract.Extractor
	// DedupeByURL collapses hits sharing a canonicalized URL across queries
	// before judging. Off by default: distinct queries surface distinct
	// titles and snippets for the same page, which the judge may want.
	DedupeByURL bool
	// ExtractConcurrency bounds the extraction fan-out. Zero or one means
	// sequential.
	ExtractConcurrency int
}

// Run executes the full pipeline for one request.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	groups := p.searchAll(ctx, req)
	var hits []search.Hit
	if p.DedupeByURL {
		hits = aggregate.MergeAndNormalize(groups)
	} else {
		hits = aggregate.Flatten(groups)
	}
	log.Info().Int("hits", len(hits)).Int("queries", len(req.Queries)).Msg("search complete")

	ranked := hits
	if p.Filter != nil {
		ranked = p.Filter.Filter(ctx, req.Topic, hits)
	}
	log.Info().Int("retained", len(ranked)).Msg("relevance filtering complete")

	return Result{Topic: req.Topic, Sources: p.extractAll(ctx, ranked)}
}

// Document runs the pipeline and renders the grounding document.
func (p *Pipeline) Document(ctx context.Context, req Request) string {
	res := p.Run(ctx, req)
	return report.Render(res.Topic, res.Sources)
}

// searchAll queries the primary provider once per query. Only when the
// aggregate count across every query and domain is exactly zero does the
// fallback provider run, from scratch for every pair, replacing the empty
// set. A single primary hit anywhere suppresses the fallback entirely.
func (p *Pipeline) searchAll(ctx context.Context, req Request) [][]search.Hit {
	groups := make([][]search.Hit, 0, len(req.Queries))
	total := 0
	for _, q := range req.Queries {
		hits := p.Primary.Search(ctx, q, req.Domains)
		total += len(hits)
		groups = append(groups, hits)
	}
	if total > 0 || p.Fallback == nil {
		return groups
	}
	log.Warn().Str("primary", p.Primary.Name()).Str("fallback", p.Fallback.Name()).Msg("primary search returned no results; using fallback provider")
	groups = groups[:0]
	for _, q := range req.Queries {
		groups = append(groups, p.Fallback.Search(ctx, q, req.Domains))
	}
	return groups
}

// extractAll fetches body text for each ranked hit. Work may fan out up to
// ExtractConcurrency at a time, but results are written by rank index so the
// judge's ordering survives regardless of completion order, and one hit's
// failure never touches its siblings.
func (p *Pipeline) extractAll(ctx context.Context, ranked []search.Hit) []report.Source {
	sources := make([]report.Source, len(ranked))
	for i, h := range ranked {
		sources[i] = report.Source{Title: h.Title, URL: h.URL}
	}
	if p.Extractor == nil {
		return sources
	}
	limit := p.ExtractConcurrency
	if limit <= 1 || len(ranked) <= 1 {
		for i, h := range ranked {
			sources[i].Extract = p.Extractor.Extract(ctx, h.URL)
		}
		return sources
	}
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, h := range ranked {
		i, h := i, h
		g.Go(func() error {
			sources[i].Extract = p.Extractor.Extract(ctx, h.URL)
			return nil
		})
	}
	_ = g.Wait()
	return sources
}
