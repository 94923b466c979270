package manifest

import (
	"bufio"
	"fmt"
	"io"

	"github.com/strangelove-ventures/labeltest"
	"github.com/strangelove-ventures/labeltest/label"
	"github.com/tidwall/gjson"
)

// maxLineSize bounds a single report line; TestError messages can be long.
const maxLineSize = 4 << 20

// FromReport builds a manifest from the BeginTest and TestLabels messages of a testreporter report.
// Only test packages, names and labels are read; other messages are skipped without decoding.
// Labels recorded for the same test within the report accumulate.
func FromReport(r io.Reader) (Manifest, error) {
	reg := labeltest.NewRegistry()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for n := 1; sc.Scan(); n++ {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return Manifest{}, fmt.Errorf("report line %d: invalid json", n)
		}
		switch gjson.GetBytes(line, "Type").String() {
		case "BeginTest", "TestLabels":
		default:
			continue
		}

		msg := gjson.GetBytes(line, "Message")
		id := labeltest.UnitID{
			Package: msg.Get("Package").String(),
			Name:    msg.Get("Name").String(),
		}
		var labels []label.Label
		for _, l := range msg.Get("Labels").Array() {
			labels = append(labels, label.Label(l.String()))
		}
		if _, err := reg.Attach(id, labels...); err != nil {
			return Manifest{}, fmt.Errorf("report line %d: %w", n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return Manifest{}, fmt.Errorf("scan report: %w", err)
	}
	return New(reg), nil
}
