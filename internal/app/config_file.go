package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file YAML configuration schema. Nested sections
// map naturally to the flag namespace.
type FileConfig struct {
	Topic   string   `yaml:"topic"`
	Queries []string `yaml:"queries"`
	Domains []string `yaml:"domains"`

	Output struct {
		Path string `yaml:"path"`
		PDF  string `yaml:"pdf"`
	} `yaml:"output"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Searx struct {
		URL string `yaml:"url"`
		UA  string `yaml:"ua"`
	} `yaml:"searx"`

	Serper struct {
		URL string `yaml:"url"`
		Key string `yaml:"key"`
	} `yaml:"serper"`

	Search struct {
		File string `yaml:"file"`
	} `yaml:"search"`

	Max struct {
		Results     int `yaml:"results"`
		Subqueries  int `yaml:"subqueries"`
		Concurrency int `yaml:"concurrency"`
	} `yaml:"max"`

	Min struct {
		ParagraphChars int `yaml:"paragraphChars"`
	} `yaml:"min"`

	Timeout  time.Duration `yaml:"timeout"`
	Language string        `yaml:"language"`
	Dedupe   bool          `yaml:"dedupe"`
	DryRun   bool          `yaml:"dryRun"`
	Verbose  bool          `yaml:"verbose"`
}

// LoadConfigFile parses a YAML config file from path.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse config file: %w", err)
	}
	return fc, nil
}

// MergeFileConfig fills unset cfg fields from fc. Flags and env keep
// precedence; the file only supplies what is still missing.
func MergeFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}

	setStr(&cfg.Topic, fc.Topic)
	if len(cfg.Queries) == 0 && len(fc.Queries) > 0 {
		cfg.Queries = fc.Queries
	}
	if len(cfg.Domains) == 0 && len(fc.Domains) > 0 {
		cfg.Domains = fc.Domains
	}

	setStr(&cfg.OutputPath, fc.Output.Path)
	setStr(&cfg.OutputPDFPath, fc.Output.PDF)

	setStr(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setStr(&cfg.LLMModel, fc.LLM.Model)
	setStr(&cfg.LLMAPIKey, fc.LLM.APIKey)

	setStr(&cfg.SearxURL, fc.Searx.URL)
	setStr(&cfg.SearxUA, fc.Searx.UA)
	setStr(&cfg.SerperURL, fc.Serper.URL)
	setStr(&cfg.SerperKey, fc.Serper.Key)
	setStr(&cfg.SearchFile, fc.Search.File)

	setInt(&cfg.MaxResults, fc.Max.Results)
	setInt(&cfg.SubqueryCount, fc.Max.Subqueries)
	setInt(&cfg.ExtractConcurrency, fc.Max.Concurrency)
	setInt(&cfg.MinParagraphChars, fc.Min.ParagraphChars)

	if cfg.RequestTimeout == 0 && fc.Timeout > 0 {
		cfg.RequestTimeout = fc.Timeout
	}
	setStr(&cfg.Language, fc.Language)

	if fc.Dedupe {
		cfg.DedupeByURL = true
	}
	if fc.DryRun {
		cfg.DryRun = true
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}
