package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"dayplanner/internal/provider"
)

// Reranker is Tier C: given the surviving candidates and the user's
// "City, STATE" location context, it returns the index of the best
// candidate (or nil), a confidence tag, and its reasoning. Any parse or
// API failure must be treated by the caller as "no re-rank" — Reranker
// implementations should return a zero-value outcome rather than an
// error for ordinary failures, matching the rest of the provider layer.
type Reranker interface {
	Rerank(ctx context.Context, query string, locationContext string, candidates []provider.Candidate) (bestIndex *int, confidence string, reasoning string)
}

// rerankResponse is the JSON shape the model is instructed to return.
type rerankResponse struct {
	BestIndex  *int   `json:"best_index"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// OpenAIReranker implements Reranker atop go-openai's chat completions.
type OpenAIReranker struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

// NewOpenAIReranker builds an OpenAIReranker for the given API key and
// model (e.g. "gpt-4o-mini").
func NewOpenAIReranker(apiKey, model string, log *slog.Logger) *OpenAIReranker {
	if log == nil {
		log = slog.Default()
	}
	return &OpenAIReranker{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log,
	}
}

// Rerank implements Reranker. On any failure it logs and returns a
// no-opinion outcome rather than propagating an error, consistent with
// the rest of the provider layer never raising for external failures.
func (o *OpenAIReranker) Rerank(ctx context.Context, query, locationContext string, candidates []provider.Candidate) (*int, string, string) {
	prompt := buildRerankPrompt(query, locationContext, candidates)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You disambiguate place search results. Respond with a single JSON object: {\"best_index\": int or null, \"confidence\": \"high\"|\"medium\"|\"low\", \"reasoning\": string}. Pick the candidate that best matches the user's intended place, or null if none clearly does.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		o.log.WarnContext(ctx, "llm re-rank request failed, treating as no re-rank", "error", err)
		return nil, "", ""
	}
	if len(resp.Choices) == 0 {
		return nil, "", ""
	}

	var parsed rerankResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		o.log.WarnContext(ctx, "llm re-rank response was not valid JSON, treating as no re-rank", "error", err)
		return nil, "", ""
	}

	if parsed.BestIndex != nil && (*parsed.BestIndex < 0 || *parsed.BestIndex >= len(candidates)) {
		o.log.WarnContext(ctx, "llm re-rank returned an out-of-range index, treating as no re-rank", "index", *parsed.BestIndex)
		return nil, "", ""
	}

	return parsed.BestIndex, parsed.Confidence, parsed.Reasoning
}

func buildRerankPrompt(query, locationContext string, candidates []provider.Candidate) string {
	prompt := fmt.Sprintf("Query: %q\nUser location: %s\nCandidates:\n", query, locationContext)
	for i, c := range candidates {
		prompt += fmt.Sprintf("%d. %s — %s\n", i, c.Name, c.Address)
	}
	return prompt
}
