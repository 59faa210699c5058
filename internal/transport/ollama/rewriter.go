// Package ollama rewrites natural-language questions into Solr query syntax
// using a local Ollama model through its OpenAI-compatible API.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = `You translate natural-language questions into Solr query syntax.
Reply with the query string only, no explanation and no formatting.
Use field:value clauses, AND/OR operators and quoted phrases where appropriate.
If the question has no field structure, reply with a plain keyword query.`

// Rewriter is a query rewriter backed by an Ollama model.
type Rewriter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the rewriter settings.
type Config struct {
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewRewriter creates a rewriter against the Ollama endpoint at cfg.BaseURL.
func NewRewriter(cfg *Config) *Rewriter {
	// Ollama ignores the API key, but the client requires a non-empty one.
	clientCfg := openai.DefaultConfig("ollama")
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"

	return &Rewriter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Rewrite turns a question into a Solr query string.
func (r *Rewriter) Rewrite(ctx context.Context, question string) (string, error) {
	start := time.Now()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}

	query := strings.TrimSpace(resp.Choices[0].Message.Content)
	query = strings.TrimSpace(strings.Trim(query, "`"))
	if query == "" {
		return "", errors.New("model returned an empty query")
	}

	r.logger.Debug("query rewritten",
		zap.String("model", r.model),
		zap.Duration("duration", time.Since(start)),
	)
	return query, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (r *Rewriter) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("rewrite API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("rewrite API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("rewrite request failed: %w", err)
}
