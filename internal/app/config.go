package app

import "time"

// Config holds runtime configuration for one retrieval run.
type Config struct {
	// Request
	Topic   string
	Queries []string
	Domains []string

	// Output
	OutputPath    string
	OutputPDFPath string

	// Search backends
	SearxURL   string
	SearxUA    string
	SerperKey  string
	SerperURL  string
	SearchFile string // offline file-based provider; overrides SearxURL when set

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Thresholds
	MaxResults        int
	MinParagraphChars int
	RequestTimeout    time.Duration
	Language          string

	// Behavior
	DedupeByURL        bool
	ExtractConcurrency int
	SubqueryCount      int
	DryRun             bool
	Verbose            bool
}
