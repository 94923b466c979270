package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/labeltest"
	"github.com/strangelove-ventures/labeltest/internal/reportdb"
	"github.com/strangelove-ventures/labeltest/label"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func newSummaryCmd(a *app) *cobra.Command {
	var (
		dbPath  string
		lbl     string
		limit   int
		reports int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize ingested test results by label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			db, err := openDB(ctx, dbPath)
			if err != nil {
				return err
			}
			defer multierr.AppendInvoke(&err, multierr.Close(db))
			q := reportdb.NewQuery(db)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if lbl != "" {
				l := label.New(lbl)
				tests, err := q.TestsWithLabel(ctx, l, limit)
				if err != nil {
					return fmt.Errorf("query tests with label %s: %w", l, err)
				}
				a.log().Debug("Queried tests", zap.Stringer("label", l), zap.Int("count", len(tests)))
				fmt.Fprintln(w, "REPORT\tTEST\tSTATUS\tDURATION\tLABELS")
				for _, t := range tests {
					id := labeltest.UnitID{Package: t.Package, Name: t.Name}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ReportID, id, status(t.Failed, t.Skipped), t.Duration, label.NewSet(t.Labels...))
				}
				return w.Flush()
			}

			if reports > 0 {
				v, err := q.CurrentSchemaVersion(ctx)
				if err != nil {
					return fmt.Errorf("query schema version: %w", err)
				}
				fmt.Fprintf(w, "Schema %s migrated %s\n\n", v.GitSha, v.CreatedAt.Format(time.RFC3339))

				rs, err := q.RecentReports(ctx, reports)
				if err != nil {
					return fmt.Errorf("query recent reports: %w", err)
				}
				fmt.Fprintln(w, "REPORT\tSOURCE\tGIT SHA\tSELECTION\tTESTS\tFAILED\tSKIPPED")
				for _, r := range rs {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n", r.ID, r.Source, r.GitSha, r.Selection, r.Tests, r.Failed, r.Skipped)
				}
				fmt.Fprintln(w)
			}

			summaries, err := q.LabelSummaries(ctx)
			if err != nil {
				return fmt.Errorf("query label summaries: %w", err)
			}
			fmt.Fprintln(w, "LABEL\tTESTS\tFAILED\tSKIPPED\tDURATION")
			for _, s := range summaries {
				name := string(s.Label)
				if name == "" {
					name = "(none)"
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", name, s.Tests, s.Failed, s.Skipped, s.Duration.Round(time.Millisecond))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", labeltest.DefaultDatabaseFilepath(), "Path to the sqlite report database")
	cmd.Flags().StringVar(&lbl, "label", "", "List the most recent tests carrying this label instead of the summary")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of tests listed with --label")
	cmd.Flags().IntVar(&reports, "reports", 0, "Also list this many of the most recent reports")
	return cmd
}

func status(failed, skipped bool) string {
	switch {
	case failed:
		return "fail"
	case skipped:
		return "skip"
	default:
		return "pass"
	}
}
