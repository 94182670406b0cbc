package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/terra-clan/problem-browser/internal/catalog"
	"github.com/terra-clan/problem-browser/internal/codeforces"
	"github.com/terra-clan/problem-browser/internal/config"
	"github.com/terra-clan/problem-browser/internal/presets"
	"github.com/terra-clan/problem-browser/internal/progress"
	"github.com/terra-clan/problem-browser/internal/storage"
)

// App holds what the commands need. Loader defaults to a Codeforces client
// built from Config.
type App struct {
	Config *config.Config
	Loader catalog.Loader
}

// NewRootCmd creates the top-level "problem-browser" command. Without a
// subcommand it runs the HTTP service.
func NewRootCmd(app *App) *cobra.Command {
	serve := newServeCmd(app)

	root := &cobra.Command{
		Use:           "problem-browser",
		Short:         "Browse Codeforces problems by division and index",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Service logs go to stdout. One-shot commands keep stdout
			// for their output.
			if cmd.Name() == "serve" || cmd.Name() == "problem-browser" {
				setupLogger(os.Stdout, app.Config.SlogLevel())
				return
			}
			setupLogger(cmd.ErrOrStderr(), slog.LevelWarn)
		},
	}

	root.AddCommand(
		serve,
		newListCmd(app),
		newProgressCmd(app),
	)

	return root
}

func setupLogger(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
}

func (a *App) loader() catalog.Loader {
	if a.Loader != nil {
		return a.Loader
	}
	return codeforces.NewClient(a.Config.Codeforces.BaseURL,
		codeforces.WithSiteURL(a.Config.Codeforces.SiteURL),
		codeforces.WithTimeout(a.Config.Codeforces.Timeout),
	)
}

// openProgress opens the configured backend and loads the progress map
func (a *App) openProgress(ctx context.Context) (*progress.Store, error) {
	backend, err := storage.Open(ctx, a.Config)
	if err != nil {
		return nil, err
	}
	return progress.Open(ctx, backend), nil
}

// presets returns the built-in presets plus those in Config.Presets.Dir
func (a *App) presets() *presets.Loader {
	l := presets.NewLoader()
	if dir := a.Config.Presets.Dir; dir != "" {
		if err := l.LoadFromDir(dir); err != nil {
			slog.Warn("failed to load presets", "dir", dir, "error", err)
		}
	}
	return l
}
