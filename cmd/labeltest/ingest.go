package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/labeltest"
	"github.com/strangelove-ventures/labeltest/internal/reportdb"
	"github.com/strangelove-ventures/labeltest/testreporter"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// openDB connects to the report database at path and migrates it.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := reportdb.ConnectDB(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("connect to database at %s: %w", path, err)
	}
	if err := reportdb.Migrate(db, labeltest.GitSha); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func readReport(path string) ([]testreporter.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	msgs, err := testreporter.ReadMessages(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return msgs, nil
}

func newIngestCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "ingest <report>...",
		Short: "Store test reports in the report database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			log := a.log()

			// Decoding is independent per file; inserts go through the single sqlite connection.
			reports := make([][]testreporter.Message, len(args))
			var eg errgroup.Group
			eg.SetLimit(runtime.GOMAXPROCS(0))
			for i, path := range args {
				i, path := i, path
				eg.Go(func() error {
					msgs, err := readReport(path)
					if err != nil {
						return err
					}
					reports[i] = msgs
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			db, err := openDB(ctx, dbPath)
			if err != nil {
				return err
			}
			defer multierr.AppendInvoke(&err, multierr.Close(db))

			for i, path := range args {
				id, err := reportdb.Ingest(ctx, db, log, path, labeltest.GitSha, reports[i])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: report %d, %d messages\n", path, id, len(reports[i]))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", labeltest.DefaultDatabaseFilepath(), "Path to the sqlite report database")
	return cmd
}
