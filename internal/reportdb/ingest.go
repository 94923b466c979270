package reportdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/strangelove-ventures/labeltest/label"
	"github.com/strangelove-ventures/labeltest/selection"
	"github.com/strangelove-ventures/labeltest/testreporter"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type testRecord struct {
	pkg        string
	name       string
	labels     []label.Label
	startedAt  time.Time
	finishedAt time.Time
	failed     bool
	skipped    bool
	skipReason string
	errors     int
}

type reportRecord struct {
	startedAt, finishedAt time.Time
	selection             string
	tests                 []*testRecord
}

// collect folds a report's messages into one record per test.
// A test reported more than once, as with go test -count, keeps its first start time
// and is failed or skipped if any run was. Labels from every run accumulate.
func collect(msgs []testreporter.Message) reportRecord {
	var (
		rec    reportRecord
		byName = make(map[string]*testRecord)
	)
	get := func(name string) *testRecord {
		t, ok := byName[name]
		if !ok {
			t = &testRecord{name: name}
			byName[name] = t
			rec.tests = append(rec.tests, t)
		}
		return t
	}

	for _, m := range msgs {
		switch m := m.(type) {
		case testreporter.BeginSuiteMessage:
			rec.startedAt = m.StartedAt
		case testreporter.FinishSuiteMessage:
			rec.finishedAt = m.FinishedAt
		case testreporter.SelectionMessage:
			rec.selection = selection.New(m.Include, m.Exclude).String()
		case testreporter.BeginTestMessage:
			t := get(m.Name)
			if t.startedAt.IsZero() {
				t.startedAt = m.StartedAt
			}
			if m.Package != "" {
				t.pkg = m.Package
			}
			t.labels = label.NewSet(t.labels...).Union(label.NewSet(m.Labels...)).Labels()
		case testreporter.TestLabelsMessage:
			t := get(m.Name)
			if m.Package != "" {
				t.pkg = m.Package
			}
			t.labels = label.NewSet(t.labels...).Union(label.NewSet(m.Labels...)).Labels()
		case testreporter.FinishTestMessage:
			t := get(m.Name)
			t.finishedAt = m.FinishedAt
			t.failed = t.failed || m.Failed
			t.skipped = t.skipped || m.Skipped
		case testreporter.TestSkipMessage:
			get(m.Name).skipReason = m.Message
		case testreporter.TestErrorMessage:
			get(m.Name).errors++
		}
	}
	return rec
}

// Ingest stores the messages of one report, read from source, and returns the new report id.
// The insert runs in a single transaction, retried while the database is busy.
func Ingest(ctx context.Context, db *sql.DB, log *zap.Logger, source, gitSha string, msgs []testreporter.Message) (int64, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rec := collect(msgs)

	var id int64
	err := retry.Do(
		func() error {
			var err error
			id, err = ingestTx(ctx, db, source, gitSha, rec)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(50*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isBusy),
		retry.OnRetry(func(n uint, err error) {
			log.Debug("Retrying report ingest", zap.String("source", source), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", source, err)
	}
	log.Info("Ingested report", zap.String("source", source), zap.Int64("report_id", id), zap.Int("tests", len(rec.tests)))
	return id, nil
}

func ingestTx(ctx context.Context, db *sql.DB, source, gitSha string, rec reportRecord) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO report(source, git_sha, created_at, started_at, finished_at, selection) VALUES(?, ?, ?, ?, ?, ?)`,
		source, gitSha, nowRFC3339(), nullTime(rec.startedAt), nullTime(rec.finishedAt), rec.selection,
	)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	reportID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, t := range rec.tests {
		var duration time.Duration
		if !t.startedAt.IsZero() && t.finishedAt.After(t.startedAt) {
			duration = t.finishedAt.Sub(t.startedAt)
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO test_result(
    package, name, started_at, finished_at, duration_ms, failed, skipped, skip_reason, error_count, fk_report_id
) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.pkg, t.name, formatTime(t.startedAt), nullTime(t.finishedAt), duration.Milliseconds(),
			t.failed, t.skipped, t.skipReason, t.errors, reportID,
		)
		if err != nil {
			return 0, fmt.Errorf("insert test %s: %w", t.name, err)
		}
		testID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		for _, l := range t.labels {
			if _, err := tx.ExecContext(ctx, `INSERT INTO test_label(label, fk_test_id) VALUES(?, ?)`, string(l), testID); err != nil {
				return 0, fmt.Errorf("insert label %s for test %s: %w", l, t.name, err)
			}
		}
	}

	return reportID, tx.Commit()
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func isBusy(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	default:
		return false
	}
}
