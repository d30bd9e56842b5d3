package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/gonarrative/internal/app"
	"github.com/hyperifyio/gonarrative/internal/profile"
	"github.com/hyperifyio/gonarrative/internal/tui"
	"github.com/hyperifyio/gonarrative/internal/web"
)

func newTUICmd(o *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal UI (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), o, file)
		},
	}
	cmd.Flags().StringVarP(&file, "input", "i", "", "CSV file to load on start")
	cmd.Flags().StringVar(&o.outDir, "out", "", "Directory for saved reports (default working directory)")
	return cmd
}

func runTUI(ctx context.Context, o *options, file string) error {
	a, err := app.New(ctx, o.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	dir := o.outDir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return tui.Run(ctx, tui.Options{
		Session:     a.NewSession(),
		Narrator:    a.Generator(),
		OutputDir:   dir,
		InitialFile: file,
	})
}

func newServeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			cfg := a.Config()
			srv := web.New(web.Options{
				Narrator:       a.Generator(),
				NewSession:     a.NewSession,
				MaxUploadBytes: cfg.MaxUploadBytes,
				CORSOrigins:    cfg.CORSOrigins,
			})
			log.Info().Str("model", cfg.LLMModel).Str("cache", cfg.CacheBackend).Msg("starting server")
			return srv.Run(ctx, cfg.ListenAddr)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.cfg.ListenAddr, "listen", "", "Listen address (default :8080, env LISTEN_ADDR)")
	f.StringSliceVar(&o.cfg.CORSOrigins, "cors", nil, "Allowed CORS origins")
	f.Int64Var(&o.cfg.MaxUploadBytes, "max-upload", 0, "Maximum upload size in bytes (default 1 MiB)")
	return cmd
}

func newGenerateCmd(o *options) *cobra.Command {
	var job app.Job
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one narrative and write it to a file",
		Example: "  gonarrative generate -i metrics.csv -p gerente_produccion\n" +
			"  gonarrative generate -i metrics.csv -p inversor --pdf informe.pdf",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			job.Industry = o.cfg.Industry
			_, err = a.RunOnce(ctx, job)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&job.InputPath, "input", "i", "", "CSV file with metric and value columns")
	f.StringVarP(&job.Profile, "profile", "p", "", "Profile id ("+strings.Join(profile.IDs(), ", ")+")")
	f.StringVarP(&job.OutputPath, "output", "o", "", "Output text file (default informe_narrativo_<profile>.txt)")
	f.StringVar(&job.PDFPath, "pdf", "", "Also write a PDF to this path")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func newPromptCmd(o *options) *cobra.Command {
	var input, id string
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt for a file and profile without calling the model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := app.RenderPrompt(input, id, o.cfg.Industry)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "CSV file with metric and value columns")
	f.StringVarP(&id, "profile", "p", "", "Profile id")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the audience profiles and their key metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKEY METRICS")
			for _, p := range profile.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.DisplayName, strings.Join(p.KeyMetrics, "; "))
			}
			return w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gonarrative %s (commit %s, built %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		},
	}
}

