package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vkotek/grounder/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		topic          string
		queries        string
		domains        string
		outputPath     string
		outputPDF      string
		configPath     string
		envFile        string
		searxURL       string
		searxUA        string
		serperKey      string
		searchFile     string
		llmBaseURL     string
		llmModel       string
		llmKey         string
		maxResults     int
		subqueryCount  int
		concurrency    int
		minParaChars   int
		requestTimeout time.Duration
		lang           string
		dedupe         bool
		dryRun         bool
		verbose        bool
	)

	flag.StringVar(&topic, "topic", "", "Topic the retrieved material must be relevant to")
	flag.StringVar(&queries, "queries", "", "Comma-separated search queries; derived from the topic when empty")
	flag.StringVar(&domains, "domains", "", "Comma-separated source domains to scope searches to")
	flag.StringVar(&outputPath, "output", "grounding.md", "Path to write the grounding document")
	flag.StringVar(&outputPDF, "output.pdf", "", "Optional path to also write a PDF rendering")
	flag.StringVar(&configPath, "config", "", "Optional YAML config file")
	flag.StringVar(&envFile, "env", ".env", "Dotenv file to load before reading the environment")
	flag.StringVar(&searxURL, "searx.url", "", "SearxNG base URL (primary backend)")
	flag.StringVar(&searxUA, "searx.ua", "", "Custom User-Agent for SearxNG requests")
	flag.StringVar(&serperKey, "serper.key", "", "Serper API key (fallback backend)")
	flag.StringVar(&searchFile, "search.file", "", "Path to JSON file for the offline file-based provider")
	flag.StringVar(&llmBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", "", "Judge/planner model name")
	flag.StringVar(&llmKey, "llm.key", "", "API key for the OpenAI-compatible server")
	flag.IntVar(&maxResults, "max.results", 10, "Maximum hits the relevance judge may retain")
	flag.IntVar(&subqueryCount, "max.subqueries", 3, "Subqueries to derive when none are given")
	flag.IntVar(&concurrency, "max.concurrency", 4, "Concurrent extractions (1 = sequential)")
	flag.IntVar(&minParaChars, "min.paragraphChars", 50, "Minimum paragraph length to keep as body text")
	flag.DurationVar(&requestTimeout, "timeout", 10*time.Second, "Per-request timeout for search and extraction")
	flag.StringVar(&lang, "lang", "", "Optional language hint, e.g. 'en' or 'fi'")
	flag.BoolVar(&dedupe, "dedupe", false, "Collapse hits sharing a canonical URL before judging")
	flag.BoolVar(&dryRun, "dry-run", false, "Search and list candidate hits without judging or extracting")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	if err := app.LoadEnvFiles(envFile); err != nil {
		log.Warn().Err(err).Str("path", envFile).Msg("env file load failed")
	}

	cfg := app.Config{
		Topic:         topic,
		Queries:       splitList(queries),
		Domains:       splitList(domains),
		OutputPDFPath: outputPDF,
		SearxURL:      searxURL,
		SearxUA:       searxUA,
		SerperKey:     serperKey,
		SearchFile:    searchFile,
		LLMBaseURL:    llmBaseURL,
		LLMModel:      llmModel,
		LLMAPIKey:     llmKey,
		Language:      lang,
		DedupeByURL:   dedupe,
		DryRun:        dryRun,
		Verbose:       verbose,
	}
	// Flags whose usage default is not the zero value only enter the config
	// when passed explicitly; otherwise the zero value stays as the "unset"
	// marker so env and config file values can land, with the usage default
	// applied as the final layer below.
	if setFlags["output"] {
		cfg.OutputPath = outputPath
	}
	if setFlags["max.results"] {
		cfg.MaxResults = maxResults
	}
	if setFlags["max.subqueries"] {
		cfg.SubqueryCount = subqueryCount
	}
	if setFlags["max.concurrency"] {
		cfg.ExtractConcurrency = concurrency
	}
	if setFlags["min.paragraphChars"] {
		cfg.MinParagraphChars = minParaChars
	}
	if setFlags["timeout"] {
		cfg.RequestTimeout = requestTimeout
	}

	// Flags > env > config file > built-in defaults. Env beats the file
	// because it fills the unset fields first.
	app.ApplyEnvToConfig(&cfg)
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("config file")
		}
		app.MergeFileConfig(&cfg, fc)
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "grounding.md"
	}
	if cfg.ExtractConcurrency == 0 {
		cfg.ExtractConcurrency = 4
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("run failed")
		fmt.Fprintln(os.Stderr, "grounder: "+err.Error())
		os.Exit(1)
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
