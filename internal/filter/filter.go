package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog/log"

	"github.com/vkotek/grounder/internal/llm"
	"github.com/vkotek/grounder/internal/search"
)

// DefaultMaxResults caps how many hits the judge may keep.
const DefaultMaxResults = 10

// RelevanceFilter reduces raw search hits to the subset most relevant to a
// topic by delegating ranking to a chat model. Filter never fails: when the
// judge call breaks in any way the original minimal hit list is returned
// unranked and untruncated.
type RelevanceFilter struct {
	Client llm.Client
	Model  string
	// MaxResults bounds the judged output. Zero uses DefaultMaxResults.
	MaxResults int
}

type judged struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"results"`
}

const systemMessage = "You are a search result filter. Analyze the search results and return ONLY the most relevant results as strict JSON, no narration. The JSON schema is {\"results\": [{\"title\": string, \"url\": string}]}. Important rules: 1. Return maximum %d results. 2. Sort by relevance (most relevant first). 3. Only include highly relevant results. 4. Only use title/url pairs from the candidates; never invent URLs."

// Filter asks the judge to rank hits for the topic. Hits missing a title or
// URL are discarded before judging; snippets are not sent.
func (f *RelevanceFilter) Filter(ctx context.Context, topic string, hits []search.Hit) []search.Hit {
	minimal := minimalHits(hits)
	if len(minimal) == 0 {
		return nil
	}
	ranked, err := f.judge(ctx, topic, minimal)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Int("candidates", len(minimal)).Msg("relevance judge failed; passing hits through unranked")
		return minimal
	}
	return ranked
}

func (f *RelevanceFilter) judge(ctx context.Context, topic string, minimal []search.Hit) ([]search.Hit, error) {
	if f.Client == nil || f.Model == "" {
		return nil, errors.New("judge not configured")
	}
	max := f.MaxResults
	if max <= 0 {
		max = DefaultMaxResults
	}
	payload, err := json.Marshal(minimal)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: f.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemMessage, max)},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Topic: %s\nResults: %s", topic, payload)},
		},
		// A zero temperature is dropped from the request payload entirely,
		// leaving the server default. Send the smallest encodable value.
		Temperature: math.SmallestNonzeroFloat32,
		N:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("judge call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices")
	}
	var out judged
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse judge json: %w", err)
	}

	// Keep only candidates the judge could legitimately pick, in judge order.
	known := make(map[string]struct{}, len(minimal))
	for _, h := range minimal {
		known[h.URL] = struct{}{}
	}
	ranked := make([]search.Hit, 0, len(out.Results))
	for _, r := range out.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		if _, ok := known[r.URL]; !ok {
			log.Warn().Str("url", r.URL).Msg("judge returned unknown url; dropping")
			continue
		}
		ranked = append(ranked, search.Hit{Title: r.Title, URL: r.URL})
		if len(ranked) >= max {
			break
		}
	}
	return ranked, nil
}

// minimalHits strips hits down to the title/url pair sent to the judge and
// drops entries missing either field.
func minimalHits(hits []search.Hit) []search.Hit {
	out := make([]search.Hit, 0, len(hits))
	for _, h := range hits {
		if strings.TrimSpace(h.Title) == "" || strings.TrimSpace(h.URL) == "" {
			continue
		}
		out = append(out, search.Hit{Title: h.Title, URL: h.URL})
	}
	return out
}
