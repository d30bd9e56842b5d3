package llm

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New(Options{APIKey: "k", BaseURL: "http://localhost:8081/v1"})
	if err != nil {
		t.Fatalf("New openai: %v", err)
	}
	if _, ok := c.(*OpenAIProvider); !ok {
		t.Fatalf("default provider = %T, want *OpenAIProvider", c)
	}
	if _, ok := c.(ModelLister); !ok {
		t.Fatal("OpenAI provider should list models")
	}

	c, err = New(Options{Provider: "Anthropic", APIKey: "k"})
	if err != nil {
		t.Fatalf("New anthropic: %v", err)
	}
	if _, ok := c.(*AnthropicProvider); !ok {
		t.Fatalf("provider = %T, want *AnthropicProvider", c)
	}

	if _, err := New(Options{Provider: "cohere"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestToAnthropicParams(t *testing.T) {
	req := openai.ChatCompletionRequest{
		Model: "claude-test",
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "sys"},
			{Role: openai.ChatMessageRoleUser, Content: "hello"},
		},
		Temperature: 0.5,
	}
	p, err := toAnthropicParams(req)
	if err != nil {
		t.Fatalf("toAnthropicParams: %v", err)
	}
	if len(p.System) != 1 || p.System[0].Text != "sys" {
		t.Fatalf("system = %+v", p.System)
	}
	if len(p.Messages) != 1 || string(p.Messages[0].Role) != "user" {
		t.Fatalf("messages = %+v", p.Messages)
	}
	if p.MaxTokens != defaultAnthropicMaxTokens {
		t.Fatalf("MaxTokens = %d, want default %d", p.MaxTokens, defaultAnthropicMaxTokens)
	}

	req.MaxTokens = 321
	p, _ = toAnthropicParams(req)
	if p.MaxTokens != 321 {
		t.Fatalf("MaxTokens = %d, want 321", p.MaxTokens)
	}
}

func TestToAnthropicParams_Rejects(t *testing.T) {
	onlySystem := openai.ChatCompletionRequest{Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: "s"}}}
	if _, err := toAnthropicParams(onlySystem); err == nil {
		t.Fatal("expected error without user message")
	}
	tool := openai.ChatCompletionRequest{Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleTool, Content: "t"}}}
	if _, err := toAnthropicParams(tool); err == nil {
		t.Fatal("expected error for tool role")
	}
}
