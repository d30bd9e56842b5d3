package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gonarrative/internal/cache"
	"github.com/hyperifyio/gonarrative/internal/narrative"
	"github.com/hyperifyio/gonarrative/internal/profile"
)

type capturingClient struct {
	calls   int
	lastReq openai.ChatCompletionRequest
	reply   string
}

func (c *capturingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.calls++
	c.lastReq = req
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.reply},
		}},
	}, nil
}

const farmCSV = "metric,value\nIngresos Totales,5000000\nCosto Alimento,1200000\nFCR (Relacion Conversion Alimento),2.8\nMortalidad (%),3.1\n"

func writeInput(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "granja.csv")
	if err := os.WriteFile(p, []byte(farmCSV), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return p
}

func testConfig() Config {
	cfg := Config{LLMAPIKey: "test"}
	ApplyDefaults(&cfg)
	return cfg
}

func TestNew_RequiresCredential(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if !narrative.IsKind(err, narrative.AuthenticationMissing) {
		t.Fatalf("expected AuthenticationMissing, got %v", err)
	}
}

func TestRunOnce_WritesExactNarrative(t *testing.T) {
	cc := &capturingClient{reply: "La granja cerró el período con ingresos de 5,000,000."}
	a := newApp(testConfig(), cc, cache.NewMemoryCache())
	in := writeInput(t)
	out := filepath.Join(t.TempDir(), "out.txt")
	pdf := filepath.Join(t.TempDir(), "out.pdf")

	doc, err := a.RunOnce(context.Background(), Job{InputPath: in, Profile: "production", OutputPath: out, PDFPath: pdf})
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if cc.calls != 1 {
		t.Fatalf("expected one model call, got %d", cc.calls)
	}
	if doc.ProfileID != string(profile.ProductionManager) {
		t.Fatalf("profile = %q", doc.ProfileID)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read out: %v", err)
	}
	if string(b) != cc.reply {
		t.Fatalf("exported %q, want %q", b, cc.reply)
	}
	pb, err := os.ReadFile(pdf)
	if err != nil || !strings.HasPrefix(string(pb), "%PDF-") {
		t.Fatalf("pdf not written: %v", err)
	}
	user := cc.lastReq.Messages[1].Content
	if !strings.Contains(user, "- Ingresos Totales: 5,000,000") || !strings.Contains(user, "Industria Porcina") {
		t.Fatalf("prompt missing data:\n%s", user)
	}
}

func TestRunOnce_DefaultFileName(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	a := newApp(testConfig(), &capturingClient{reply: "texto"}, nil)
	if _, err := a.RunOnce(context.Background(), Job{InputPath: writeInput(t), Profile: "inversor"}); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "informe_narrativo_inversor.txt")); err != nil {
		t.Fatalf("default output missing: %v", err)
	}
}

func TestRunOnce_UnknownProfile(t *testing.T) {
	a := newApp(testConfig(), &capturingClient{reply: "x"}, nil)
	_, err := a.RunOnce(context.Background(), Job{InputPath: writeInput(t), Profile: "contador"})
	if !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRenderPrompt(t *testing.T) {
	out, err := RenderPrompt(writeInput(t), "gerente_produccion", "Otro")
	if err != nil {
		t.Fatalf("RenderPrompt: %v", err)
	}
	if !strings.Contains(out, "- Mortalidad (%): 3.10") || !strings.Contains(out, "sector Otro") {
		t.Fatalf("unexpected prompt:\n%s", out)
	}
}

func TestGenerator_UsesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LLMModel = "gpt-4o-mini"
	cfg.LLMMaxTokens = 500
	g := newApp(cfg, &capturingClient{}, nil).Generator()
	if g.Model != "gpt-4o-mini" || g.MaxTokens != 500 || g.SystemPrompt != narrative.DefaultSystemPrompt {
		t.Fatalf("generator not configured from cfg: %+v", g)
	}
}
