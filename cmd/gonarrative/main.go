// Command gonarrative turns a metric sheet into a financial narrative written
// for one audience, through a terminal UI, an HTTP API or a one-shot command.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/gonarrative/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command.
type options struct {
	cfg        app.Config
	configPath string
	envFiles   []string
	logFile    string
	outDir     string
	logCloser  io.Closer
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "gonarrative",
		Short:         "Financial narratives tailored to the reader",
		Long:          "gonarrative loads a metric,value CSV and asks a language model to explain the period to a production manager, an investor, an owner or field staff.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.prepare(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if o.logCloser != nil {
				_ = o.logCloser.Close()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), o, "")
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", os.Getenv("GONARRATIVE_CONFIG"), "Path to YAML or JSON config file")
	f.StringSliceVar(&o.envFiles, "env-file", []string{".env"}, "Dotenv files to load (missing files are ignored)")
	f.StringVar(&o.cfg.LLMProvider, "llm.provider", "", "Text-generation provider: openai or anthropic (default openai)")
	f.StringVar(&o.cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible or Anthropic base URL")
	f.StringVar(&o.cfg.LLMModel, "llm.model", "", "Model name (default gpt-4o)")
	f.StringVar(&o.cfg.LLMAPIKey, "llm.key", "", "API key for the text-generation service")
	f.IntVar(&o.cfg.LLMMaxTokens, "llm.maxTokens", 0, "Maximum tokens in the narrative (default 800)")
	f.Float64Var(&o.cfg.LLMTemperature, "llm.temperature", 0, "Sampling temperature 0-2 (default 0.5)")
	f.DurationVar(&o.cfg.LLMTimeout, "llm.timeout", 0, "Per-request timeout (default 60s)")
	f.StringVar(&o.cfg.SystemPrompt, "llm.systemPrompt", "", "System prompt for the model")
	f.StringVar(&o.cfg.Industry, "industry", "", "Default industry label (default \"Industria Porcina\")")
	f.StringVar(&o.cfg.CacheBackend, "cache.backend", "", "Narrative cache: none, memory, file or redis (default memory)")
	f.StringVar(&o.cfg.CacheDir, "cache.dir", "", "Directory for the file cache (default .gonarrative-cache)")
	f.DurationVar(&o.cfg.CacheMaxAge, "cache.maxAge", 0, "Expire cached narratives after this age; 0 keeps them")
	f.BoolVar(&o.cfg.CacheClear, "cache.clear", false, "Clear the file cache on start")
	f.BoolVar(&o.cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict file cache permissions (0700 dirs, 0600 files)")
	f.StringVar(&o.cfg.RedisAddr, "redis.addr", "", "Redis address for the redis cache backend")
	f.BoolVarP(&o.cfg.Verbose, "verbose", "v", false, "Verbose logging")
	f.StringVar(&o.logFile, "log.file", "", "Write logs to this file (the terminal UI discards logs otherwise)")

	root.AddCommand(
		newTUICmd(o),
		newServeCmd(o),
		newGenerateCmd(o),
		newPromptCmd(o),
		newProfilesCmd(),
		newVersionCmd(),
	)
	return root
}

// prepare resolves configuration with the precedence flags > environment >
// config file > defaults, then sets up logging.
func (o *options) prepare(cmd *cobra.Command) error {
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	app.ApplyEnvToConfig(&o.cfg)
	if o.configPath != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", o.configPath, err)
		}
		app.ApplyFileConfig(&o.cfg, fc)
	}
	app.ApplyDefaults(&o.cfg)
	if err := app.ValidateConfig(o.cfg); err != nil {
		return err
	}

	if o.cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	interactive := cmd.Name() == "tui" || cmd == cmd.Root()
	switch {
	case o.logFile != "":
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		o.logCloser = f
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true})
	case interactive:
		log.Logger = zerolog.New(io.Discard)
	}
	return nil
}
