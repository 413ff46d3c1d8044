package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		// OPENAI_API_KEY is the conventional name; LLM_API_KEY wins when both set
		v := os.Getenv("LLM_API_KEY")
		if v == "" {
			v = os.Getenv("OPENAI_API_KEY")
		}
		cfg.LLMAPIKey = v
	}

	if cfg.SearxURL == "" {
		v := os.Getenv("SEARX_URL")
		if v == "" {
			v = os.Getenv("SEARXNG_URL")
		}
		cfg.SearxURL = v
	}
	if cfg.SerperKey == "" {
		cfg.SerperKey = os.Getenv("SERPER_API_KEY")
	}
	if cfg.SearchFile == "" {
		cfg.SearchFile = os.Getenv("SEARCH_FILE")
	}
	if cfg.Language == "" {
		cfg.Language = os.Getenv("LANGUAGE")
	}

	if cfg.MaxResults == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_RESULTS"))); err == nil && n > 0 {
			cfg.MaxResults = n
		}
	}
	if cfg.MinParagraphChars == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MIN_PARAGRAPH_CHARS"))); err == nil && n > 0 {
			cfg.MinParagraphChars = n
		}
	}
	if cfg.RequestTimeout == 0 {
		if s := os.Getenv("REQUEST_TIMEOUT"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.RequestTimeout = d
			}
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.DedupeByURL, "DEDUPE_URLS")
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.Verbose, "VERBOSE")
}
