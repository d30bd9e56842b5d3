// Package narrative turns a rendered prompt into narrative text with a single
// chat completion call.
package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gonarrative/internal/budget"
	"github.com/hyperifyio/gonarrative/internal/cache"
	"github.com/hyperifyio/gonarrative/internal/llm"
)

// Request defaults.
const (
	DefaultModel = "gpt-4o"
	// DefaultAnthropicModel replaces DefaultModel for the anthropic provider.
	DefaultAnthropicModel = "claude-3-5-sonnet-latest"
	DefaultMaxTokens      = 800
	DefaultTemperature    = 0.5
	DefaultTimeout        = 60 * time.Second
	DefaultSystemPrompt   = "You are a helpful and concise financial analyst."
)

// Generator calls the model once per prompt. Zero-valued fields fall back to
// the package defaults.
type Generator struct {
	Client llm.Client
	// Cache, when set, answers repeated identical requests without a call.
	Cache        cache.Store
	Model        string
	MaxTokens    int
	Temperature  float32
	Timeout      time.Duration
	SystemPrompt string
}

type cachedNarrative struct {
	Narrative string `json:"narrative"`
}

// Generate sends prompt as the user message and returns the trimmed text of
// the first choice. Every failure is a ClientError of kind RequestFailed.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.Client == nil {
		return "", &ClientError{Kind: RequestFailed, Err: errors.New("generator not configured")}
	}
	model := g.model()
	system := g.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := g.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	logger := log.With().Str("model", model).Logger()

	key := cache.KeyFrom(model, system+"\n\n"+prompt)
	if g.Cache != nil {
		raw, ok, err := g.Cache.Get(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Msg("narrative cache read failed")
		}
		if ok {
			var out cachedNarrative
			if err := json.Unmarshal(raw, &out); err == nil && strings.TrimSpace(out.Narrative) != "" {
				logger.Debug().Str("cache", "hit").Msg("narrative served from cache")
				return out.Narrative, nil
			}
		}
	}

	promptTokens := budget.EstimatePromptTokens(system, prompt)
	if !budget.FitsInContext(model, maxTokens, promptTokens) {
		logger.Warn().Int("prompt_tokens", promptTokens).Int("context", budget.ModelContextTokens(model)).Msg("prompt may exceed model context")
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		N:           1,
	}
	start := time.Now()
	resp, err := g.Client.CreateChatCompletion(callCtx, req)
	if err != nil {
		logger.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("chat completion failed")
		return "", &ClientError{Kind: RequestFailed, Err: fmt.Errorf("chat completion: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return "", &ClientError{Kind: RequestFailed, Err: ErrEmptyResponse}
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", &ClientError{Kind: RequestFailed, Err: ErrEmptyResponse}
	}
	logger.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("narrative generated")

	if g.Cache != nil {
		payload, _ := json.Marshal(cachedNarrative{Narrative: out})
		if err := g.Cache.Save(ctx, key, payload); err != nil {
			logger.Warn().Err(err).Msg("narrative cache write failed")
		}
	}
	return out, nil
}

func (g *Generator) model() string {
	if m := strings.TrimSpace(g.Model); m != "" {
		return m
	}
	return DefaultModel
}
