package reportdb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/strangelove-ventures/labeltest/label"
	"github.com/strangelove-ventures/labeltest/testreporter"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"modernc.org/sqlite"
)

const storagePkg = "example.com/project/storage"

// sampleReport is a run with the selection "!slow" over four tests.
func sampleReport(start time.Time) []testreporter.Message {
	at := func(ms int) time.Time { return start.Add(time.Duration(ms) * time.Millisecond) }
	return []testreporter.Message{
		testreporter.BeginSuiteMessage{StartedAt: at(0)},
		testreporter.SelectionMessage{When: at(0), Exclude: []label.Label{label.Slow}},

		testreporter.BeginTestMessage{Name: "TestSlow", StartedAt: at(1), Labels: []label.Label{label.Slow}},
		testreporter.TestSkipMessage{Name: "TestSlow", When: at(1), Message: `label "slow" is excluded`},
		testreporter.FinishTestMessage{Name: "TestSlow", FinishedAt: at(1), Skipped: true},

		testreporter.BeginTestMessage{Package: storagePkg, Name: "TestIntegration", StartedAt: at(2), Labels: []label.Label{label.Integration}},
		testreporter.TestLabelsMessage{Package: storagePkg, Name: "TestIntegration", When: at(2), Labels: []label.Label{label.Flaky, label.Integration}},
		testreporter.TestErrorMessage{Name: "TestIntegration", When: at(100), Message: "boom"},
		testreporter.FinishTestMessage{Name: "TestIntegration", FinishedAt: at(302), Failed: true},

		testreporter.BeginTestMessage{Name: "TestFlaky", StartedAt: at(2), Labels: []label.Label{label.Flaky}},
		testreporter.FinishTestMessage{Name: "TestFlaky", FinishedAt: at(52)},

		testreporter.BeginTestMessage{Name: "TestPlain", StartedAt: at(3)},
		testreporter.FinishTestMessage{Name: "TestPlain", FinishedAt: at(13)},

		testreporter.FinishSuiteMessage{FinishedAt: at(400)},
	}
}

func TestCollect(t *testing.T) {
	start := time.Now()
	rec := collect(sampleReport(start))

	require.Equal(t, "!slow", rec.selection)
	require.Equal(t, start, rec.startedAt)
	require.Len(t, rec.tests, 4)

	integ := rec.tests[1]
	require.Equal(t, "TestIntegration", integ.name)
	require.Equal(t, storagePkg, integ.pkg)
	require.Equal(t, []label.Label{label.Flaky, label.Integration}, integ.labels)
	require.True(t, integ.failed)
	require.Equal(t, 1, integ.errors)

	require.Equal(t, `label "slow" is excluded`, rec.tests[0].skipReason)
	require.Empty(t, rec.tests[0].pkg)

	// Repeated runs of the same test fold into one record.
	rec = collect([]testreporter.Message{
		testreporter.BeginTestMessage{Name: "TestA", StartedAt: start},
		testreporter.FinishTestMessage{Name: "TestA", FinishedAt: start.Add(time.Second), Failed: true},
		testreporter.BeginTestMessage{Name: "TestA", StartedAt: start.Add(2 * time.Second)},
		testreporter.FinishTestMessage{Name: "TestA", FinishedAt: start.Add(3 * time.Second)},
	})
	require.Len(t, rec.tests, 1)
	require.True(t, rec.tests[0].failed)
	require.Equal(t, start, rec.tests[0].startedAt)
}

func TestIngest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := migratedDB()
	defer db.Close()

	log := zaptest.NewLogger(t)
	start := time.Now().Add(-time.Hour)
	firstID, err := Ingest(ctx, db, log, "first.json", "abc123", sampleReport(start))
	require.NoError(t, err)
	secondID, err := Ingest(ctx, db, log, "second.json", "abc123", sampleReport(start.Add(time.Minute)))
	require.NoError(t, err)
	require.Greater(t, secondID, firstID)

	q := NewQuery(db)

	reports, err := q.RecentReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.Equal(t, "second.json", reports[0].Source)
	require.Equal(t, "!slow", reports[0].Selection)
	require.Equal(t, 4, reports[0].Tests)
	require.Equal(t, 1, reports[0].Failed)
	require.Equal(t, 1, reports[0].Skipped)

	summaries, err := q.LabelSummaries(ctx)
	require.NoError(t, err)
	require.Equal(t, []LabelSummary{
		{Label: "", Tests: 2, Duration: 20 * time.Millisecond},
		{Label: label.Flaky, Tests: 4, Failed: 2, Duration: 700 * time.Millisecond},
		{Label: label.Integration, Tests: 2, Failed: 2, Duration: 600 * time.Millisecond},
		{Label: label.Slow, Tests: 2, Skipped: 2},
	}, summaries)

	tests, err := q.TestsWithLabel(ctx, label.Flaky, 10)
	require.NoError(t, err)
	require.Len(t, tests, 4)
	require.Equal(t, secondID, tests[0].ReportID)
	require.Equal(t, "TestFlaky", tests[0].Name)
	require.Equal(t, 50*time.Millisecond, tests[0].Duration)
	require.Equal(t, []label.Label{label.Flaky}, tests[0].Labels)
	require.Equal(t, "TestIntegration", tests[1].Name)
	require.Equal(t, storagePkg, tests[1].Package)
	require.Empty(t, tests[0].Package)
	require.True(t, tests[1].Failed)
	require.Equal(t, []label.Label{label.Flaky, label.Integration}, tests[1].Labels)
	require.True(t, tests[1].StartedAt.Equal(start.Add(time.Minute+2*time.Millisecond)))

	slow, err := q.TestsWithLabel(ctx, label.Slow, 1)
	require.NoError(t, err)
	require.Len(t, slow, 1)
	require.True(t, slow[0].Skipped)
	require.Equal(t, `label "slow" is excluded`, slow[0].SkipReason)

	none, err := q.TestsWithLabel(ctx, "no-such-label", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestIsBusy(t *testing.T) {
	require.False(t, isBusy(nil))
	require.False(t, isBusy(errors.New("plain")))
	require.False(t, isBusy(fmt.Errorf("wrapped: %w", &sqlite.Error{})))
}
