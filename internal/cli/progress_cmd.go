package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/problem-browser/internal/models"
	"github.com/terra-clan/problem-browser/pkg/client"
)

func newProgressCmd(app *App) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Read or change the progress of a problem",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "", "Use a running problem-browser at this URL instead of local storage")

	cmd.AddCommand(
		newProgressGetCmd(app, &server),
		newProgressSetCmd(app, &server),
	)
	return cmd
}

func newProgressGetCmd(app *App, server *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <contestId> <index>",
		Short: "Show the progress of a problem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contestID, index, err := parseProblemRef(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if *server != "" {
				pr, err := client.NewClient(*server).GetProgress(ctx, contestID, index)
				if err != nil {
					return err
				}
				printProgress(cmd.OutOrStdout(), contestID, index, pr.Progress)
				return nil
			}

			store, err := app.openProgress(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			printProgress(cmd.OutOrStdout(), contestID, index, store.Get(contestID, index))
			return nil
		},
	}
}

func newProgressSetCmd(app *App, server *string) *cobra.Command {
	var (
		done  bool
		notes string
	)

	cmd := &cobra.Command{
		Use:   "set <contestId> <index>",
		Short: "Mark a problem done or replace its notes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contestID, index, err := parseProblemRef(args)
			if err != nil {
				return err
			}

			var upd models.ProgressUpdate
			if cmd.Flags().Changed("done") {
				upd.Done = &done
			}
			if cmd.Flags().Changed("notes") {
				upd.Notes = &notes
			}
			if upd.Done == nil && upd.Notes == nil {
				return fmt.Errorf("nothing to set: pass --done and/or --notes")
			}

			p, err := app.setProgress(cmd.Context(), *server, contestID, index, upd)
			if err != nil {
				return err
			}
			printProgress(cmd.OutOrStdout(), contestID, index, p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&done, "done", false, "Mark the problem done (--done=false to clear)")
	cmd.Flags().StringVar(&notes, "notes", "", "Replace the problem notes")

	return cmd
}

func (a *App) setProgress(ctx context.Context, server string, contestID int, index string, upd models.ProgressUpdate) (models.Progress, error) {
	if server != "" {
		pr, err := client.NewClient(server).UpdateProgress(ctx, contestID, index, upd)
		if err != nil {
			return models.Progress{}, err
		}
		if !pr.Persisted {
			return pr.Progress, fmt.Errorf("server could not persist progress for %s", models.ProgressKey(contestID, index))
		}
		return pr.Progress, nil
	}

	store, err := a.openProgress(ctx)
	if err != nil {
		return models.Progress{}, err
	}
	defer store.Close()

	return store.Update(ctx, contestID, index, upd)
}

func parseProblemRef(args []string) (int, string, error) {
	contestID, err := strconv.Atoi(args[0])
	if err != nil || contestID <= 0 {
		return 0, "", fmt.Errorf("invalid contest id %q", args[0])
	}
	index := strings.ToUpper(args[1])
	if index == "" {
		return 0, "", fmt.Errorf("problem index is required")
	}
	return contestID, index, nil
}

func printProgress(w io.Writer, contestID int, index string, p models.Progress) {
	status := "todo"
	if p.Done {
		status = "done"
	}
	fmt.Fprintf(w, "%d%s: %s\n", contestID, index, status)
	if p.Notes != "" {
		fmt.Fprintf(w, "notes: %s\n", p.Notes)
	}
	if p.UpdatedAt > 0 {
		fmt.Fprintf(w, "updated: %s\n", time.UnixMilli(p.UpdatedAt).UTC().Format(time.RFC3339))
	}
}
