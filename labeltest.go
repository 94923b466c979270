package labeltest

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/strangelove-ventures/labeltest/testreporter"
)

// GitSha is the commit the binary was built from.
// It is set with -ldflags "-X github.com/strangelove-ventures/labeltest.GitSha=...".
var GitSha = "unknown"

// M is satisfied by *testing.M.
type M interface {
	Run() int
}

// Main runs the tests in m with DefaultMarker configured from the test binary's flags.
// When -labeltest.report is set, every marked test is written to a JSON report.
// Use it from TestMain:
//
//	func TestMain(m *testing.M) {
//	  os.Exit(labeltest.Main(m))
//	}
func Main(m M) int {
	if !flag.Parsed() {
		flag.Parse()
	}
	return run(m, DefaultMarker)
}

func run(m M, marker *Marker) int {
	if *packageFlag != "" {
		marker.SetPackage(*packageFlag)
	}

	sel, err := marker.Selection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failure resolving test selection: %v\n", err)
		return 1
	}

	if *reportFlag == "" {
		return m.Run()
	}

	f, err := CreateReportFile(*reportFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failure configuring test reporter: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "Writing report to %s\n", f.Name())

	reporter := testreporter.NewReporter(f)
	reporter.TrackSelection(sel)
	marker.SetReporter(reporter)

	code := m.Run()

	marker.SetReporter(nil)
	if err := reporter.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failure closing test reporter: %v\n", err)
		// Don't change the exit code, since we already have one from running the tests.
	}
	return code
}

// CreateReportFile creates the report file at path, creating its directory if needed.
// The path "default" selects DefaultReportFilepath, and fails rather than
// overwrite the report of another test binary.
func CreateReportFile(path string) (*os.File, error) {
	if path == "default" {
		return createReportFile(DefaultReportFilepath(), true)
	}
	return createReportFile(path, false)
}

func createReportFile(path string, exclusive bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mkdirall: %w", err)
	}
	if !exclusive {
		return os.Create(path)
	}
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
}

// DefaultReportFilepath returns $HOME/.labeltest/reports/$TIMESTAMP-$PID.json.
// go test runs one binary per package in parallel, so the pid keeps their reports apart.
func DefaultReportFilepath() string {
	name := fmt.Sprintf("%d-%d.json", time.Now().Unix(), os.Getpid())
	return filepath.Join(homeDir(), ".labeltest", "reports", name)
}

// DefaultDatabaseFilepath is the default filepath to the sqlite database of ingested reports.
func DefaultDatabaseFilepath() string {
	return filepath.Join(homeDir(), ".labeltest", "databases", "reports.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return home
}
