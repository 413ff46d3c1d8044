package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_RequiresTopicOrQueries(t *testing.T) {
	_, err := New(context.Background(), Config{SearxURL: "http://localhost:8080", LLMAPIKey: "k"})
	if err == nil || !strings.Contains(err.Error(), "nothing to search") {
		t.Fatalf("expected topic/queries validation error, got %v", err)
	}
}

func TestNew_RequiresSearchBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Topic: "t", LLMAPIKey: "k"})
	if err == nil || !strings.Contains(err.Error(), "no search backend") {
		t.Fatalf("expected backend validation error, got %v", err)
	}
}

func TestNew_MissingCredentialsIsFatal(t *testing.T) {
	_, err := New(context.Background(), Config{Topic: "t", SearxURL: "http://localhost:8080"})
	if err == nil || !strings.Contains(err.Error(), "missing LLM API key") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNew_DryRunNeedsNoCredentials(t *testing.T) {
	a, err := New(context.Background(), Config{Topic: "t", SearxURL: "http://localhost:8080", DryRun: true})
	if err != nil {
		t.Fatalf("dry run should not require credentials: %v", err)
	}
	if a == nil {
		t.Fatal("expected app")
	}
}

func TestNew_InvalidLanguageHintDropped(t *testing.T) {
	a, err := New(context.Background(), Config{
		Topic:    "t",
		SearxURL: "http://localhost:8080",
		DryRun:   true,
		Language: "not a language tag!!",
	})
	if err != nil {
		t.Fatalf("invalid language must degrade, not fail: %v", err)
	}
	if a.cfg.Language != "" {
		t.Fatalf("expected hint cleared, got %q", a.cfg.Language)
	}
}

func TestNew_LanguageHintNormalized(t *testing.T) {
	a, err := New(context.Background(), Config{
		Topic:    "t",
		SearxURL: "http://localhost:8080",
		DryRun:   true,
		Language: "EN-us",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.cfg.Language != "en-US" {
		t.Fatalf("expected canonical tag, got %q", a.cfg.Language)
	}
}

func TestRun_DryRunWithFileProvider(t *testing.T) {
	dir := t.TempDir()
	hitsPath := filepath.Join(dir, "hits.json")
	outPath := filepath.Join(dir, "out.md")
	data := `[{"title": "Guardian bitcoin piece", "url": "https://www.theguardian.com/a", "snippet": "bitcoin"}]`
	if err := os.WriteFile(hitsPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(context.Background(), Config{
		Topic:      "bitcoin",
		Queries:    []string{"bitcoin"},
		SearchFile: hitsPath,
		OutputPath: outPath,
		DryRun:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, "dry run") {
		t.Fatalf("expected dry-run marker:\n%s", out)
	}
	if !strings.Contains(out, "Guardian bitcoin piece — https://www.theguardian.com/a") {
		t.Fatalf("expected candidate listing:\n%s", out)
	}
}
