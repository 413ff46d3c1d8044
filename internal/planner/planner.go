package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vkotek/grounder/internal/llm"
)

// Planner derives search subqueries from a bare topic.
type Planner interface {
	Subqueries(ctx context.Context, topic string) ([]string, error)
}

// LLMPlanner asks a chat model for refined subqueries and enforces a
// JSON-only contract.
type LLMPlanner struct {
	Client llm.Client
	Model  string
	// Count is how many subqueries to request. Zero means 3.
	Count int
}

const systemMessage = "You are a creative and insightful search subquery generator. Given a base topic, generate %d refined subqueries by adding relevant keywords that enhance the search intent. Each subquery combines the base topic with an associated keyword or phrase. Respond with strict JSON only, no narration. The JSON schema is {\"queries\": string[]}."

type planned struct {
	Queries []string `json:"queries"`
}

// Subqueries implements Planner via the chat completions API. Non-JSON or
// unusable output is returned as an error so callers can fall back.
func (p *LLMPlanner) Subqueries(ctx context.Context, topic string) ([]string, error) {
	if p.Client == nil || p.Model == "" {
		return nil, errors.New("planner not configured")
	}
	count := p.Count
	if count <= 0 {
		count = 3
	}
	user := fmt.Sprintf("For the topic '%s', generate %d subqueries by incorporating relevant keywords. For example, for 'bitcoin' you might output: {\"queries\": [\"bitcoin trends 2025\", \"bitcoin investment strategies\", \"bitcoin market analysis\"]}.", topic, count)
	resp, err := p.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemMessage, count)},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		// A zero temperature is dropped from the request payload entirely,
		// leaving the server default. Send the smallest encodable value.
		Temperature: math.SmallestNonzeroFloat32,
		N:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("planner call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices")
	}
	var out planned
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse planner json: %w", err)
	}
	queries := sanitizeQueries(out.Queries)
	if len(queries) == 0 {
		return nil, errors.New("empty planner output")
	}
	if len(queries) > count {
		queries = queries[:count]
	}
	return queries, nil
}

// FallbackPlanner produces deterministic subqueries when the LLM planner is
// unavailable or returns invalid output.
type FallbackPlanner struct{}

func (FallbackPlanner) Subqueries(_ context.Context, topic string) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("empty topic")
	}
	suffixes := []string{"overview", "latest news", "analysis"}
	queries := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		queries = append(queries, topic+" "+s)
	}
	return queries, nil
}

func sanitizeQueries(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, q := range in {
		s := strings.TrimSpace(q)
		if s == "" {
			continue
		}
		s = strings.TrimSuffix(s, ".")
		s = strings.TrimSuffix(s, "?")
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
