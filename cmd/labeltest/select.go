package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/strangelove-ventures/labeltest"
	"github.com/strangelove-ventures/labeltest/manifest"
	"github.com/strangelove-ventures/labeltest/selection"
	"go.uber.org/zap"
)

// unitSources are the flags naming where units and labels come from.
type unitSources struct {
	reports []string
}

func (u *unitSources) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&u.reports, "report", "r", nil, "Test report to read units from; may be repeated")
}

// load merges the manifests named by paths with the manifests derived from the reports.
func (u *unitSources) load(log *zap.Logger, paths []string) (manifest.Manifest, error) {
	if len(paths) == 0 && len(u.reports) == 0 {
		return manifest.Manifest{}, errors.New("no manifests or reports given")
	}

	ms := make([]manifest.Manifest, 0, len(paths)+len(u.reports))
	for _, p := range paths {
		m, err := manifest.LoadFile(p)
		if err != nil {
			return manifest.Manifest{}, err
		}
		log.Debug("Loaded manifest", zap.String("path", p), zap.Int("units", len(m.Units)))
		ms = append(ms, m)
	}
	for _, p := range u.reports {
		m, err := manifestFromReport(p)
		if err != nil {
			return manifest.Manifest{}, err
		}
		log.Debug("Loaded report", zap.String("path", p), zap.Int("units", len(m.Units)))
		ms = append(ms, m)
	}
	return manifest.Merge(ms...)
}

func manifestFromReport(path string) (manifest.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return manifest.Manifest{}, err
	}
	defer f.Close()

	m, err := manifest.FromReport(f)
	if err != nil {
		return m, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

type selectResult struct {
	Selection string                    `json:"selection"`
	Run       []string                  `json:"run"`
	Skipped   []string                  `json:"skipped"`
	Patterns  []manifest.PackagePattern `json:"patterns"`
}

func newSelectCmd(a *app) *cobra.Command {
	var (
		sel     selectionFlags
		sources unitSources
		format  string
	)
	cmd := &cobra.Command{
		Use:   "select [manifest...]",
		Short: "Print the tests that run under a selection",
		Long: `Print the tests that run under a selection.

Units and labels are read from manifests (TOML, YAML or JSON)
and from test reports written with -labeltest.report.`,
		Example: `# Names of every test except slow ones
labeltest select --skip-labels slow units.yaml

# A -run pattern for go test from the last report of one package
go test ./storage -run "$(labeltest select -r report.json -l '!slow' -f run)"

# One "package pattern" line per package
labeltest select -r storage.json -r codec.json -l integration -f run |
  while read -r pkg pattern; do go test "$pkg" -run "$pattern"; done`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sel.selection(nil)
			if err != nil {
				return err
			}
			m, err := sources.load(a.log(), args)
			if err != nil {
				return err
			}
			reg, err := m.Registry()
			if err != nil {
				return err
			}

			run, skipped := reg.Filter(m.IDs(), s)
			a.log().Info("Applied selection",
				zap.Stringer("selection", s), zap.Int("run", len(run)), zap.Int("skipped", len(skipped)),
			)

			return writeSelection(cmd, format, s, run, skipped)
		},
	}
	sel.register(cmd)
	sources.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "names", "Output format: names|run|json")
	return cmd
}

// writeSelection prints the selected units.
// With units from several packages, the run format prints a package and its pattern per line.
func writeSelection(cmd *cobra.Command, format string, s selection.Selection, run, skipped []labeltest.UnitID) error {
	out := cmd.OutOrStdout()
	patterns := manifest.RunPatterns(run, skipped)
	switch format {
	case "names":
		for _, id := range run {
			fmt.Fprintln(out, id)
		}
	case "run":
		if len(patterns) <= 1 {
			fmt.Fprintln(out, manifest.RunPattern(names(run)))
			return nil
		}
		for _, p := range patterns {
			fmt.Fprintf(out, "%s %s\n", p.Package, p.Pattern)
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(selectResult{
			Selection: s.String(),
			Run:       idStrings(run),
			Skipped:   idStrings(skipped),
			Patterns:  patterns,
		})
	default:
		return fmt.Errorf("unknown format %q (valid formats: names, run, json)", format)
	}
	return nil
}

func names(ids []labeltest.UnitID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Name
	}
	return out
}

func idStrings(ids []labeltest.UnitID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func newManifestCmd(a *app) *cobra.Command {
	var (
		sources unitSources
		format  string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "manifest [manifest...]",
		Short: "Write a manifest of tests and labels from reports and other manifests",
		Example: `# Turn a test report into a YAML manifest
labeltest manifest -r report.json -o units.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := sources.load(a.log(), args)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return manifest.Encode(cmd.OutOrStdout(), format, m)
			}
			if !cmd.Flags().Changed("format") {
				if ext := filepath.Ext(output); ext != "" {
					format = ext
				}
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := manifest.Encode(f, format, m); err != nil {
				_ = f.Close()
				return err
			}
			a.log().Info("Wrote manifest", zap.String("path", output), zap.Int("units", len(m.Units)))
			return f.Close()
		},
	}
	sources.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: toml|yaml|json. Defaults to the output file extension.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write; stdout if empty")
	return cmd
}
