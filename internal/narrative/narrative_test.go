package narrative

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gonarrative/internal/cache"
)

type capturingClient struct {
	calls   int
	lastReq openai.ChatCompletionRequest
	reply   string
	err     error
	noReply bool
}

func (c *capturingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.calls++
	c.lastReq = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	if c.noReply {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.reply},
		}},
	}, nil
}

func TestGenerate_RequestShape(t *testing.T) {
	cc := &capturingClient{reply: "  Narrativa del período.\n"}
	g := &Generator{Client: cc}
	out, err := g.Generate(context.Background(), "PROMPT")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "Narrativa del período." {
		t.Fatalf("output not trimmed: %q", out)
	}
	req := cc.lastReq
	if req.Model != DefaultModel || req.MaxTokens != DefaultMaxTokens || req.Temperature != DefaultTemperature {
		t.Fatalf("defaults not applied: model=%s max=%d temp=%v", req.Model, req.MaxTokens, req.Temperature)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != openai.ChatMessageRoleSystem || req.Messages[0].Content != DefaultSystemPrompt {
		t.Fatalf("unexpected system message: %+v", req.Messages[0])
	}
	if req.Messages[1].Role != openai.ChatMessageRoleUser || req.Messages[1].Content != "PROMPT" {
		t.Fatalf("unexpected user message: %+v", req.Messages[1])
	}
}

func TestGenerate_Overrides(t *testing.T) {
	cc := &capturingClient{reply: "ok"}
	g := &Generator{Client: cc, Model: "claude-3-5-haiku-latest", MaxTokens: 300, Temperature: 0.2, SystemPrompt: "sys"}
	if _, err := g.Generate(context.Background(), "p"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if cc.lastReq.Model != "claude-3-5-haiku-latest" || cc.lastReq.MaxTokens != 300 || cc.lastReq.Temperature != 0.2 {
		t.Fatalf("overrides ignored: %+v", cc.lastReq)
	}
	if cc.lastReq.Messages[0].Content != "sys" {
		t.Fatalf("system override ignored")
	}
}

func TestGenerate_FailuresAreRequestFailed(t *testing.T) {
	cases := map[string]*capturingClient{
		"transport":  {err: errors.New("connection refused")},
		"no choices": {noReply: true},
		"blank":      {reply: " \n "},
	}
	for name, cc := range cases {
		t.Run(name, func(t *testing.T) {
			g := &Generator{Client: cc}
			out, err := g.Generate(context.Background(), "p")
			if out != "" {
				t.Fatalf("expected no text, got %q", out)
			}
			if !IsKind(err, RequestFailed) {
				t.Fatalf("expected RequestFailed, got %v", err)
			}
			if cc.calls != 1 {
				t.Fatalf("expected exactly one call (no retries), got %d", cc.calls)
			}
		})
	}
}

func TestGenerate_TransportErrorIsWrapped(t *testing.T) {
	cause := errors.New("rate limited")
	g := &Generator{Client: &capturingClient{err: cause}}
	_, err := g.Generate(context.Background(), "p")
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable through %v", err)
	}
}

type slowClient struct{}

func (slowClient) CreateChatCompletion(ctx context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	<-ctx.Done()
	return openai.ChatCompletionResponse{}, ctx.Err()
}

func TestGenerate_Timeout(t *testing.T) {
	g := &Generator{Client: slowClient{}, Timeout: 20 * time.Millisecond}
	_, err := g.Generate(context.Background(), "p")
	if !IsKind(err, RequestFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected RequestFailed wrapping deadline, got %v", err)
	}
}

func TestGenerate_Unconfigured(t *testing.T) {
	var g *Generator
	if _, err := g.Generate(context.Background(), "p"); !IsKind(err, RequestFailed) {
		t.Fatalf("expected RequestFailed, got %v", err)
	}
}

func TestGenerate_CacheHitSkipsCall(t *testing.T) {
	cc := &capturingClient{reply: "primera"}
	g := &Generator{Client: cc, Cache: cache.NewMemoryCache()}
	first, err := g.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	cc.reply = "segunda"
	second, err := g.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != second || cc.calls != 1 {
		t.Fatalf("expected cached %q after one call, got %q after %d calls", first, second, cc.calls)
	}
	if _, err := g.Generate(context.Background(), "other"); err != nil || cc.calls != 2 {
		t.Fatalf("different prompt must miss cache (calls=%d, err=%v)", cc.calls, err)
	}
}

func TestGenerate_FailureIsNotCached(t *testing.T) {
	mem := cache.NewMemoryCache()
	g := &Generator{Client: &capturingClient{noReply: true}, Cache: mem}
	_, _ = g.Generate(context.Background(), "p")
	if mem.Len() != 0 {
		t.Fatal("failed generation must not be cached")
	}
}

func TestCheckCredential(t *testing.T) {
	if err := CheckCredential(""); !IsKind(err, AuthenticationMissing) {
		t.Fatalf("expected AuthenticationMissing, got %v", err)
	}
	if err := CheckCredential("   "); !IsKind(err, AuthenticationMissing) {
		t.Fatalf("blank key must be missing, got %v", err)
	}
	if err := CheckCredential("sk-test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
