package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed to call a chat model. It mirrors
// go-openai's CreateChatCompletion so that any backend can be adapted to it.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is an optional capability that allows listing available models.
// Callers detect it with a type assertion.
type ModelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Options configures a provider built by New.
type Options struct {
	Provider   string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// New builds the Client for opts.Provider. An empty provider means OpenAI or
// any OpenAI-compatible server reachable at BaseURL.
func New(opts Options) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderOpenAI, "":
		cfg := openai.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
		if opts.HTTPClient != nil {
			cfg.HTTPClient = opts.HTTPClient
		}
		return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}, nil
	case ProviderAnthropic:
		return NewAnthropicProvider(opts.APIKey, opts.BaseURL, opts.HTTPClient), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q (available: %s, %s)", opts.Provider, ProviderOpenAI, ProviderAnthropic)
	}
}

// OpenAIProvider adapts *openai.Client to the Client/ModelLister interfaces.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
	return p.Inner.ListModels(ctx)
}
