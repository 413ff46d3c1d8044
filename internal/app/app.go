package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"

	"github.com/vkotek/grounder/internal/extract"
	"github.com/vkotek/grounder/internal/fetch"
	"github.com/vkotek/grounder/internal/filter"
	"github.com/vkotek/grounder/internal/llm"
	"github.com/vkotek/grounder/internal/pipeline"
	"github.com/vkotek/grounder/internal/planner"
	"github.com/vkotek/grounder/internal/search"
)

// App wires configuration into a ready-to-run retrieval pipeline.
type App struct {
	cfg  Config
	ai   llm.Client
	pipe *pipeline.Pipeline
}

// New validates cfg and constructs the pipeline. Missing credentials or an
// unconfigured backend are the only fatal conditions; everything downstream
// degrades locally instead of failing.
func New(ctx context.Context, cfg Config) (*App, error) {
	if strings.TrimSpace(cfg.Topic) == "" && len(cfg.Queries) == 0 {
		return nil, errors.New("nothing to search: provide a topic or explicit queries")
	}
	if cfg.SearxURL == "" && cfg.SearchFile == "" {
		return nil, errors.New("no search backend configured: set a SearxNG URL or a search file")
	}
	if !cfg.DryRun && cfg.LLMAPIKey == "" && cfg.LLMBaseURL == "" {
		return nil, errors.New("missing LLM API key")
	}

	if cfg.LLMModel == "" {
		cfg.LLMModel = openai.GPT4o
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = filter.DefaultMaxResults
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.Language != "" {
		tag, err := language.Parse(cfg.Language)
		if err != nil {
			log.Warn().Err(err).Str("language", cfg.Language).Msg("invalid language hint; ignoring")
			cfg.Language = ""
		} else {
			cfg.Language = tag.String()
		}
	}

	a := &App{cfg: cfg}

	httpClient := newPooledHTTPClient()

	if !cfg.DryRun {
		transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMBaseURL != "" {
			transportCfg.BaseURL = cfg.LLMBaseURL
		}
		transportCfg.HTTPClient = httpClient
		provider := &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(transportCfg)}
		a.ai = provider
		preflight(ctx, provider)
	}

	var primary search.Provider
	if cfg.SearchFile != "" {
		primary = &search.FileProvider{Path: cfg.SearchFile}
	} else {
		primary = &search.SearxNG{
			BaseURL:    cfg.SearxURL,
			HTTPClient: httpClient,
			UserAgent:  cfg.SearxUA,
			Language:   cfg.Language,
			Timeout:    cfg.RequestTimeout,
		}
	}
	var fallback search.Provider
	if cfg.SerperKey != "" {
		fallback = &search.Serper{
			BaseURL:    cfg.SerperURL,
			APIKey:     cfg.SerperKey,
			HTTPClient: httpClient,
			Timeout:    cfg.RequestTimeout,
		}
	}

	a.pipe = &pipeline.Pipeline{
		Primary:  primary,
		Fallback: fallback,
		Filter: &filter.RelevanceFilter{
			Client:     a.ai,
			Model:      cfg.LLMModel,
			MaxResults: cfg.MaxResults,
		},
		Extractor: &extract.PageExtractor{
			Fetcher: &fetch.Client{
				HTTPClient:        httpClient,
				PerRequestTimeout: cfg.RequestTimeout,
			},
			MinParagraphChars: cfg.MinParagraphChars,
		},
		DedupeByURL:        cfg.DedupeByURL,
		ExtractConcurrency: cfg.ExtractConcurrency,
	}
	return a, nil
}

// preflight checks LLM connectivity by listing models. Best effort only; an
// unreachable endpoint is reported but does not block construction.
func preflight(ctx context.Context, lister llm.ModelLister) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) == 0 {
		log.Warn().Msg("LLM returned zero models")
		return
	}
	log.Info().Int("count", len(models.Models)).Msg("LLM models available")
}

// Run executes one retrieval invocation and writes the grounding document.
func (a *App) Run(ctx context.Context) error {
	queries := a.cfg.Queries
	if len(queries) == 0 {
		queries = a.planQueries(ctx)
	}
	req := pipeline.Request{Topic: a.cfg.Topic, Queries: queries, Domains: a.cfg.Domains}

	if a.cfg.DryRun {
		return a.dryRun(ctx, req)
	}

	doc := a.pipe.Document(ctx, req)
	if err := os.WriteFile(a.cfg.OutputPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("wrote grounding document")

	if a.cfg.OutputPDFPath != "" {
		if err := writeSimplePDF(doc, a.cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", a.cfg.OutputPDFPath).Msg("wrote PDF document")
	}
	return nil
}

// planQueries derives subqueries from the topic, preferring the LLM planner
// and falling back deterministically.
func (a *App) planQueries(ctx context.Context) []string {
	if a.ai != nil {
		p := &planner.LLMPlanner{Client: a.ai, Model: a.cfg.LLMModel, Count: a.cfg.SubqueryCount}
		if qs, err := p.Subqueries(ctx, a.cfg.Topic); err == nil {
			log.Info().Strs("queries", qs).Msg("planned subqueries")
			return qs
		} else {
			log.Warn().Err(err).Msg("subquery planner failed, using fallback")
		}
	}
	qs, err := planner.FallbackPlanner{}.Subqueries(ctx, a.cfg.Topic)
	if err != nil {
		return []string{a.cfg.Topic}
	}
	return qs
}

// dryRun searches and lists candidate hits without touching the judge or
// extracting anything.
func (a *App) dryRun(ctx context.Context, req pipeline.Request) error {
	listing := &pipeline.Pipeline{
		Primary:     a.pipe.Primary,
		Fallback:    a.pipe.Fallback,
		DedupeByURL: a.cfg.DedupeByURL,
	}
	res := listing.Run(ctx, req)
	content := fmt.Sprintf("# grounder (dry run)\n\nTopic: %s\n\nQueries:\n", a.cfg.Topic)
	for i, q := range req.Queries {
		content += fmt.Sprintf("%d. %s\n", i+1, q)
	}
	if len(res.Sources) > 0 {
		content += "\nCandidate hits:\n"
		for i, s := range res.Sources {
			content += fmt.Sprintf("%d. %s — %s\n", i+1, s.Title, s.URL)
		}
	}
	if err := os.WriteFile(a.cfg.OutputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Int("hits", len(res.Sources)).Msg("wrote dry-run listing")
	return nil
}
