package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
)

// defaultAnthropicMaxTokens is used when the request leaves MaxTokens unset;
// the Messages API requires a value.
const defaultAnthropicMaxTokens = 1024

// AnthropicProvider adapts the Anthropic Messages API to Client. System
// messages become the system prompt; user and assistant turns are forwarded
// in order.
type AnthropicProvider struct {
	// anthropic.Client is a value type; NewClient returns it by value.
	client anthropic.Client
}

// NewAnthropicProvider builds a provider for apiKey. baseURL and httpClient
// are optional.
func NewAnthropicProvider(apiKey, baseURL string, httpClient *http.Client) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AnthropicProvider{client: anthropic.NewClient(opts...)}
}

func (p *AnthropicProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	params, err := toAnthropicParams(request)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("anthropic: messages.new: %w", err)
	}
	var parts []string
	for _, block := range msg.Content {
		// "text" is the only block type carrying assistant prose
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("anthropic: response contained no text content blocks")
	}
	return openai.ChatCompletionResponse{
		ID:    msg.ID,
		Model: string(msg.Model),
		Choices: []openai.ChatCompletionChoice{{
			Index: 0,
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: strings.Join(parts, ""),
			},
			FinishReason: openai.FinishReason(msg.StopReason),
		}},
		Usage: openai.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

func toAnthropicParams(request openai.ChatCompletionRequest) (anthropic.MessageNewParams, error) {
	maxTokens := int64(request.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(request.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(request.Temperature)),
	}
	for _, m := range request.Messages {
		switch m.Role {
		case openai.ChatMessageRoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case openai.ChatMessageRoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case openai.ChatMessageRoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			return params, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(params.Messages) == 0 {
		return params, errors.New("anthropic: request has no user message")
	}
	return params, nil
}
