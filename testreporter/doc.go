// Package testreporter contains a Reporter for collecting detailed test reports.
//
// While you could probably get at all of the exposed information in reports
// by examining the output of "go test",
// the generated report is intended to collect the information in one machine-readable file,
// including the labels attached to each test and the selection the run used.
// Reports can be turned back into a manifest for later selections,
// or ingested into a database with the labeltest command.
//
// First, the reporter instance must be initialized and Closed,
// typically in a TestMain function:
//
//	func TestMain(m *testing.M) {
//	  f, _ := os.Create("/tmp/report.json")
//	  reporter := testreporter.NewReporter(f)
//	  code := m.Run()
//	  _ = reporter.Close()
//	  os.Exit(code)
//	}
//
// Next, every test that needs to be tracked must call TrackTest,
// passing the import path of its package and the labels present on the test.
// labeltest.Marker does this automatically when it has a Reporter.
// If you omit the call to TrackTest, then the test's start and end time,
// labels, and skip/fail status, will not be reported.
//
//	var reporter *testreporter.Reporter // Initialized somehow.
//
//	func TestFoo(t *testing.T) {
//	  reporter.TrackTest(t, "example.com/project/storage", label.Slow)
//	  // Normal test usage continues...
//	}
//
// Labels attached after TrackTest are recorded with TrackLabels.
//
// Parallel tests should not call t.Parallel directly,
// but instead should use TrackParallel, or labeltest.Parallel.
// This will track the time the test paused waiting for parallel execution
// and when parallel execution resumes.
//
// If a test needs to be skipped, the TrackSkip method will track the skip reason.
// Tests rejected by the active selection are skipped this way,
// so the report shows which label excluded them.
//
//	func TestFooSkip(t *testing.T) {
//	  if someReason() {
//	    reporter.TrackSkip(t, "skipping due to %s", whySkipped())
//	  }
//	}
//
// Lastly, the reporter integrates with testify's require and assert packages.
// If you connect the reporter with a require or assert instance,
// any failed assertions are stored as error messages in the report.
//
//	func TestBar(t *testing.T) {
//	  reporter.TrackTest(t, "example.com/project/bar")
//	  req := require.New(reporter.TestifyT(t))
//
//	  // If this fails, the report includes a "TestError" entry.
//	  req.NoError(Bar(), "failure executing Bar()")
//	}
package testreporter
