package extract

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/vkotek/grounder/internal/fetch"
)

// Extractor turns a URL into extracted body text. Implementations never
// fail: any error degrades to an empty string so a hit is retained in the
// pipeline with no content rather than dropped.
type Extractor interface {
	Extract(ctx context.Context, url string) string
}

// PageExtractor fetches a page over HTTP and extracts paragraph text.
type PageExtractor struct {
	Fetcher *fetch.Client
	// MinParagraphChars overrides the paragraph length threshold. Zero uses
	// the default.
	MinParagraphChars int
}

func (e *PageExtractor) Extract(ctx context.Context, url string) string {
	if e.Fetcher == nil {
		return ""
	}
	body, err := e.Fetcher.Get(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("extraction fetch failed")
		return ""
	}
	text := FromHTML(body, e.MinParagraphChars)
	if text == "" {
		log.Debug().Str("url", url).Msg("no qualifying paragraphs extracted")
	}
	return text
}
