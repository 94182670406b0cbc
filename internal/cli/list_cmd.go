package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terra-clan/problem-browser/internal/browse"
	"github.com/terra-clan/problem-browser/internal/division"
	"github.com/terra-clan/problem-browser/internal/models"
	"github.com/terra-clan/problem-browser/internal/render"
)

func newListCmd(app *App) *cobra.Command {
	var (
		divisions []string
		indices   []string
		sortOrder string
		viewMode  string
		format    string
		perRow    int
		preset    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch problems once and print the filtered list",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := models.FilterState{SortOrder: models.SortNewest}
			mode := models.ViewMode(viewMode)
			if preset != "" {
				p, err := app.presets().Get(preset)
				if err != nil {
					return fmt.Errorf("%w: %q", err, preset)
				}
				filters, mode = p.Filters, p.ViewMode
			}

			flags := cmd.Flags()
			if preset == "" || flags.Changed("div") {
				filters.Divisions = nil
				for _, d := range divisions {
					if !division.Known(models.Division(d)) {
						return fmt.Errorf("unknown division %q", d)
					}
					filters.Divisions = append(filters.Divisions, models.Division(d))
				}
			}
			if preset == "" || flags.Changed("index") {
				filters.Indices = nil
				for _, idx := range indices {
					filters.Indices = append(filters.Indices, strings.ToUpper(idx))
				}
			}

			if preset == "" || flags.Changed("sort") {
				var err error
				if filters, err = browse.WithSortOrder(filters, models.SortOrder(sortOrder)); err != nil {
					return fmt.Errorf("%w: %q", err, sortOrder)
				}
			}
			if preset == "" || flags.Changed("view") {
				mode = models.ViewMode(viewMode)
			}
			if !mode.Valid() {
				return fmt.Errorf("unknown view mode %q", viewMode)
			}
			if format != "text" && format != "csv" {
				return fmt.Errorf("unknown format %q", format)
			}

			ctx := cmd.Context()
			problems, err := app.loader().LoadProblems(ctx)
			if err != nil {
				return err
			}

			store, err := app.openProgress(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, done := browse.Annotate(browse.Apply(problems, filters), store)

			out := cmd.OutOrStdout()
			if format == "csv" {
				return render.CSV(out, entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No problems match the selected filters.")
				return nil
			}
			if mode == models.ViewCard {
				fmt.Fprintln(out, render.Cards(entries, perRow))
			} else {
				fmt.Fprint(out, render.Table(entries))
			}
			fmt.Fprintln(out, render.Summary(len(entries), done))
			return nil
		},
	}

	defaults := browse.DefaultFilters()
	defaultDivs := make([]string, len(defaults.Divisions))
	for i, d := range defaults.Divisions {
		defaultDivs[i] = string(d)
	}

	cmd.Flags().StringSliceVar(&divisions, "div", defaultDivs, "Divisions to include (1, 2, 3, 4, 1+2)")
	cmd.Flags().StringSliceVar(&indices, "index", defaults.Indices, "Problem indices to include")
	cmd.Flags().StringVar(&sortOrder, "sort", string(defaults.SortOrder), "Sort order: newest or oldest")
	cmd.Flags().StringVar(&viewMode, "view", string(models.ViewList), "Layout: list or card")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or csv")
	cmd.Flags().IntVar(&perRow, "per-row", 3, "Cards per row in card view")
	cmd.Flags().StringVar(&preset, "preset", "", "Start from a named filter preset; explicit flags override it")

	return cmd
}
