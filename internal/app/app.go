// Package app wires configuration, the model client and the narrative cache
// into the objects the command-line surfaces use.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonarrative/internal/cache"
	"github.com/hyperifyio/gonarrative/internal/export"
	"github.com/hyperifyio/gonarrative/internal/llm"
	"github.com/hyperifyio/gonarrative/internal/narrative"
	"github.com/hyperifyio/gonarrative/internal/profile"
	"github.com/hyperifyio/gonarrative/internal/prompt"
	"github.com/hyperifyio/gonarrative/internal/session"
	"github.com/hyperifyio/gonarrative/internal/table"
)

// App owns the shared, long-lived dependencies. Sessions are created per user
// and share the client and cache.
type App struct {
	cfg    Config
	client llm.Client
	store  cache.Store
	closer io.Closer
}

// New validates the credential, builds the model client for cfg.LLMProvider
// and opens the configured cache backend. cfg is expected to have passed
// ApplyDefaults and ValidateConfig.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := CheckCredential(cfg); err != nil {
		return nil, err
	}
	client, err := llm.New(llm.Options{
		Provider:   cfg.LLMProvider,
		APIKey:     cfg.LLMAPIKey,
		BaseURL:    cfg.LLMBaseURL,
		HTTPClient: newLLMHTTPClient(cfg.LLMTimeout),
	})
	if err != nil {
		return nil, err
	}
	store, closer, err := openCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.CacheBackend, err)
	}
	a := newApp(cfg, client, store)
	a.closer = closer
	a.preflight(ctx)
	return a, nil
}

func newApp(cfg Config, client llm.Client, store cache.Store) *App {
	return &App{cfg: cfg, client: client, store: store}
}

func openCache(ctx context.Context, cfg Config) (cache.Store, io.Closer, error) {
	switch cfg.CacheBackend {
	case CacheNone:
		return nil, nil, nil
	case CacheMemory, "":
		return cache.NewMemoryCache(), nil, nil
	case CacheFile:
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeLLMCacheByAge(cfg.CacheDir, cfg.CacheMaxAge)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged expired narratives")
			}
		}
		return &cache.LLMCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}, nil, nil
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.CacheMaxAge)
		if err != nil {
			return nil, nil, err
		}
		return rc, rc, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// preflight lists models when the provider supports it. Failures are logged
// and never fatal; the first generation reports real problems.
func (a *App) preflight(ctx context.Context) {
	lister, ok := a.client.(llm.ModelLister)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	log.Debug().Int("count", len(models.Models)).Str("model", a.cfg.LLMModel).Msg("LLM models available")
}

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

// Generator returns a narrative generator configured from the app settings.
func (a *App) Generator() *narrative.Generator {
	return &narrative.Generator{
		Client:       a.client,
		Cache:        a.store,
		Model:        a.cfg.LLMModel,
		MaxTokens:    a.cfg.LLMMaxTokens,
		Temperature:  float32(a.cfg.LLMTemperature),
		Timeout:      a.cfg.LLMTimeout,
		SystemPrompt: a.cfg.SystemPrompt,
	}
}

// NewSession returns an empty session using the configured default industry.
func (a *App) NewSession() *session.Session {
	return session.New(a.cfg.Industry)
}

// Close releases the cache connection, if any.
func (a *App) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Job describes one non-interactive generation.
type Job struct {
	InputPath string
	Profile   string
	Industry  string
	// OutputPath defaults to the export file name in the working directory.
	OutputPath string
	// PDFPath, when set, also writes a PDF rendering.
	PDFPath string
}

// RunOnce loads the input file, generates one narrative and writes it.
func (a *App) RunOnce(ctx context.Context, job Job) (export.Document, error) {
	s := a.NewSession()
	s.SetIndustry(job.Industry)

	f, err := os.Open(job.InputPath)
	if err != nil {
		return export.Document{}, fmt.Errorf("open input: %w", err)
	}
	err = s.Upload(filepath.Base(job.InputPath), f)
	f.Close()
	if err != nil {
		return export.Document{}, err
	}
	if err := s.SelectProfile(job.Profile); err != nil {
		return export.Document{}, err
	}
	log.Info().Str("profile", job.Profile).Str("model", a.cfg.LLMModel).Msg("generating narrative")
	if _, err := s.Generate(ctx, a.Generator()); err != nil {
		return export.Document{}, fmt.Errorf("generate: %w", err)
	}
	doc, err := s.Export()
	if err != nil {
		return export.Document{}, err
	}

	out := job.OutputPath
	if out == "" {
		out = doc.FileName(export.FormatText)
	}
	if err := writeDocument(doc, out, export.FormatText); err != nil {
		return doc, err
	}
	log.Info().Str("out", out).Msg("wrote narrative")
	if job.PDFPath != "" {
		if err := writeDocument(doc, job.PDFPath, export.FormatPDF); err != nil {
			return doc, err
		}
		log.Info().Str("out", job.PDFPath).Msg("wrote PDF")
	}
	return doc, nil
}

func writeDocument(doc export.Document, path, format string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := doc.Write(f, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// RenderPrompt builds the prompt for a file without calling the model.
func RenderPrompt(inputPath, profileID, industry string) (string, error) {
	p, err := profile.Get(profileID)
	if err != nil {
		return "", err
	}
	f, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	t, err := table.Load(f)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", filepath.Base(inputPath), err)
	}
	return prompt.Build(t, p, industry), nil
}
