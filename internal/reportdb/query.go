package reportdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/strangelove-ventures/labeltest/label"
)

// Query is a service that queries the database.
type Query struct {
	db *sql.DB
}

func NewQuery(db *sql.DB) *Query {
	return &Query{db: db}
}

type SchemaVersionResult struct {
	GitSha string
	// Always set to user's local time zone.
	CreatedAt time.Time
}

// CurrentSchemaVersion returns the latest git sha and time that produced the sqlite schema.
func (q *Query) CurrentSchemaVersion(ctx context.Context) (SchemaVersionResult, error) {
	row := q.db.QueryRowContext(ctx, `SELECT git_sha, created_at FROM schema_version ORDER BY id DESC limit 1`)
	var (
		res      SchemaVersionResult
		createAt string
	)
	if err := row.Scan(&res.GitSha, &createAt); err != nil {
		return res, err
	}
	t, err := timeToLocal(createAt)
	if err != nil {
		return res, fmt.Errorf("parse createdAt: %w", err)
	}
	res.CreatedAt = t
	return res, nil
}

// ReportResult summarizes one ingested report.
type ReportResult struct {
	ID        int64
	Source    string
	GitSha    string
	CreatedAt time.Time
	Selection string // In expression form, e.g. integration,!slow

	Tests, Failed, Skipped int
}

// RecentReports returns the most recently ingested reports first.
func (q *Query) RecentReports(ctx context.Context, limit int) ([]ReportResult, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT
        report.id, report.source, report.git_sha, report.created_at, report.selection
        , COUNT(test_result.id)
        , COALESCE(SUM(test_result.failed), 0)
        , COALESCE(SUM(test_result.skipped), 0)
    FROM report
    LEFT JOIN test_result ON test_result.fk_report_id = report.id
    GROUP BY report.id
    ORDER BY report.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ReportResult
	for rows.Next() {
		var (
			res       ReportResult
			createdAt string
		)
		if err := rows.Scan(&res.ID, &res.Source, &res.GitSha, &createdAt, &res.Selection, &res.Tests, &res.Failed, &res.Skipped); err != nil {
			return nil, err
		}
		if res.CreatedAt, err = timeToLocal(createdAt); err != nil {
			return nil, fmt.Errorf("parse createdAt: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// LabelSummary aggregates every ingested test carrying one label.
type LabelSummary struct {
	Label    label.Label
	Tests    int
	Failed   int
	Skipped  int
	Duration time.Duration // Sum over all tests.
}

// LabelSummaries returns one summary per label, ordered by label.
// Tests without labels are summarized under the empty label, listed first.
func (q *Query) LabelSummaries(ctx context.Context) ([]LabelSummary, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT
        COALESCE(test_label.label, '') AS lbl
        , COUNT(*)
        , SUM(test_result.failed)
        , SUM(test_result.skipped)
        , SUM(test_result.duration_ms)
    FROM test_result
    LEFT JOIN test_label ON test_label.fk_test_id = test_result.id
    GROUP BY lbl
    ORDER BY lbl ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []LabelSummary
	for rows.Next() {
		var (
			res LabelSummary
			lbl string
			ms  int64
		)
		if err := rows.Scan(&lbl, &res.Tests, &res.Failed, &res.Skipped, &ms); err != nil {
			return nil, err
		}
		res.Label = label.Label(lbl)
		res.Duration = time.Duration(ms) * time.Millisecond
		results = append(results, res)
	}
	return results, rows.Err()
}

// TestResult is a single test from an ingested report.
type TestResult struct {
	ID         int64
	ReportID   int64
	Package    string
	Name       string
	StartedAt  time.Time
	Duration   time.Duration
	Failed     bool
	Skipped    bool
	SkipReason string
	Labels     []label.Label
}

// TestsWithLabel returns the most recent tests carrying l.
func (q *Query) TestsWithLabel(ctx context.Context, l label.Label, limit int) ([]TestResult, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT
        test_result.id, test_result.fk_report_id, test_result.package, test_result.name, test_result.started_at
        , test_result.duration_ms, test_result.failed, test_result.skipped, test_result.skip_reason
        , (SELECT group_concat(label, ',') FROM (
            SELECT all_labels.label FROM test_label AS all_labels
            WHERE all_labels.fk_test_id = test_result.id ORDER BY all_labels.label
          ))
    FROM test_result
    JOIN test_label ON test_label.fk_test_id = test_result.id
    WHERE test_label.label = ?
    ORDER BY test_result.id DESC LIMIT ?`, string(l), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TestResult
	for rows.Next() {
		var (
			res       TestResult
			startedAt string
			ms        int64
			labels    sql.NullString
		)
		if err := rows.Scan(
			&res.ID, &res.ReportID, &res.Package, &res.Name, &startedAt,
			&ms, &res.Failed, &res.Skipped, &res.SkipReason,
			&labels,
		); err != nil {
			return nil, err
		}
		if res.StartedAt, err = timeToLocal(startedAt); err != nil {
			return nil, fmt.Errorf("parse startedAt: %w", err)
		}
		res.Duration = time.Duration(ms) * time.Millisecond
		if labels.Valid && labels.String != "" {
			res.Labels = label.ParseSet(strings.Split(labels.String, ",")...).Labels()
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
