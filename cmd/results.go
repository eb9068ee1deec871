package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/parkstone-group/sitescore-cli/internal/model"
	"github.com/parkstone-group/sitescore-cli/internal/report"
	"github.com/parkstone-group/sitescore-cli/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored screening runs",
	Long:  "Commands for listing screening runs and viewing the scored rows they produced.",
}

// -- results list --

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List screening runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		kind, _ := cmd.Flags().GetString("kind")
		cycle, _ := cmd.Flags().GetInt("cycle-year")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.RunFilter{
			Kind:      kind,
			CycleYear: cycle,
			Limit:     limit,
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "results list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- results show --

var resultsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the scored rows of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "results show")
		}

		status, _ := cmd.Flags().GetString("status")
		tier, _ := cmd.Flags().GetString("tier")
		limit, _ := cmd.Flags().GetInt("limit")

		rows, err := st.ListResults(ctx, store.ResultFilter{
			RunID:  run.ID,
			Status: model.EvalStatus(status),
			Tier:   tier,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "results show")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Run     *model.Run          `json:"run"`
				Results []model.ScoreResult `json:"results"`
			}{run, rows})
		}

		fmt.Printf("Run %s  %s cycle %d  %s  (%d ok, %d skipped, %d failed)\n\n",
			truncateID(run.ID), run.Kind, run.CycleYear,
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Summary.OK, run.Summary.Skipped, run.Summary.Failed,
		)
		formatResultRows(os.Stdout, rows)
		return nil
	},
}

// -- results site --

var resultsSiteCmd = &cobra.Command{
	Use:   "site <site-id>",
	Short: "Show the latest stored result for a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		res, err := st.GetLatestResultBySite(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "results site")
		}

		if explain, _ := cmd.Flags().GetBool("explain"); explain {
			fmt.Print(report.FormatExplanation(res))
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	resultsListCmd.Flags().String("kind", "", "filter by run kind (screen, batch, serve)")
	resultsListCmd.Flags().Int("cycle-year", 0, "filter by award cycle year")
	resultsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	resultsShowCmd.Flags().String("status", "", "filter rows by status (ok, skipped, failed)")
	resultsShowCmd.Flags().String("tier", "", "filter rows by tier (Exceptional, High Potential, Good, Poor, Fatal)")
	resultsShowCmd.Flags().Int("limit", 0, "max number of rows to display (0 = all)")
	resultsShowCmd.Flags().Bool("json", false, "emit the run and its rows as JSON")

	resultsSiteCmd.Flags().Bool("explain", false, "print the explanation block instead of JSON")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsSiteCmd)
	rootCmd.AddCommand(resultsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tCYCLE\tSITES\tOK\tSKIPPED\tFAILED\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----\t--\t-------\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.Kind,
			r.CycleYear,
			r.Summary.Total,
			r.Summary.OK,
			r.Summary.Skipped,
			r.Summary.Failed,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatResultRows writes a tabular list of scored rows to w. Skipped and
// failed rows leave the scoring columns blank rather than showing zeros.
func formatResultRows(out io.Writer, results []model.ScoreResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SITE\tNAME\tDEAL\tSTATUS\tTIER\tPTS\tRATIO")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t------\t----\t---\t-----")

	for _, r := range results {
		name := r.SiteName
		if len(name) > 30 {
			name = name[:27] + "..."
		}

		pts, ratio := "", ""
		if r.Status == model.StatusOK {
			pts = fmt.Sprintf("%d", r.AmenityTotal)
			ratio = fmt.Sprintf("%.3f", r.ViabilityRatio)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.SiteID,
			name,
			r.DealType,
			r.Status,
			r.Tier,
			pts,
			ratio,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
