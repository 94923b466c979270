// Package label contains types to manage labels for tests.
// Labels are treated as named values that are present or absent on a particular test.
//
// Labels are attached to a test when it registers itself (see labeltest.Mark),
// reported through the testreporter in the JSON output,
// and matched against a selection to decide whether the test runs.
package label
