// Package manifest lists test units and their labels outside of a test binary,
// so that a selection can be applied before go test starts.
//
// Manifests are written by hand in TOML, YAML or JSON,
// or derived from a testreporter report with FromReport.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-version"
	"github.com/strangelove-ventures/labeltest"
	"github.com/strangelove-ventures/labeltest/label"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is written into new manifests.
const CurrentVersion = "1.0"

// supportedVersions is the range of manifest versions this package reads.
var supportedVersions = version.MustConstraints(version.NewConstraint(">= 1, < 2"))

var (
	ErrVersion       = errors.New("unsupported manifest version")
	ErrUnknownFormat = errors.New("unknown manifest format")
)

// Manifest is a list of test units and their labels.
type Manifest struct {
	Version string `json:"version" yaml:"version" toml:"version"`
	Units   []Unit `json:"units" yaml:"units" toml:"units"`
}

// Unit is the on-disk form of labeltest.Unit.
// Package is the import path of the test's package and may be omitted
// in manifests written for a single package.
type Unit struct {
	Package string   `json:"package,omitempty" yaml:"package,omitempty" toml:"package,omitempty"`
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Labels  []string `json:"labels,omitempty" yaml:"labels,omitempty" toml:"labels,omitempty"`
}

func (u Unit) ID() labeltest.UnitID {
	return labeltest.UnitID{Package: u.Package, Name: u.Name}
}

func (u Unit) labels() []label.Label {
	labels := make([]label.Label, len(u.Labels))
	for i, l := range u.Labels {
		labels[i] = label.Label(l)
	}
	return labels
}

// New returns a manifest describing the units of r.
func New(r *labeltest.Registry) Manifest {
	units := r.Units()
	m := Manifest{Version: CurrentVersion, Units: make([]Unit, len(units))}
	for i, u := range units {
		m.Units[i] = Unit{Package: u.Package, Name: u.Name, Labels: labelStrings(u.Labels.Labels())}
	}
	return m
}

// Validate checks the manifest version. An empty version is read as the current one.
func (m Manifest) Validate() error {
	if m.Version == "" {
		return nil
	}
	v, err := version.NewVersion(m.Version)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrVersion, m.Version, err)
	}
	if !supportedVersions.Check(v) {
		return fmt.Errorf("%w %q: want %s", ErrVersion, m.Version, supportedVersions)
	}
	return nil
}

// Registry registers every unit of m in a new Registry.
func (m Manifest) Registry() (*labeltest.Registry, error) {
	r := labeltest.NewRegistry()
	for i, u := range m.Units {
		if _, err := r.Register(u.ID(), u.labels()...); err != nil {
			return nil, fmt.Errorf("unit %d: %w", i, err)
		}
	}
	return r, nil
}

// IDs returns the ID of every unit, in manifest order.
func (m Manifest) IDs() []labeltest.UnitID {
	ids := make([]labeltest.UnitID, len(m.Units))
	for i, u := range m.Units {
		ids[i] = u.ID()
	}
	return ids
}

// Merge combines manifests. Units present in more than one manifest
// must carry the same labels; tests of the same name in different packages are distinct units.
func Merge(ms ...Manifest) (Manifest, error) {
	r := labeltest.NewRegistry()
	for _, m := range ms {
		for _, u := range m.Units {
			if _, err := r.Register(u.ID(), u.labels()...); err != nil {
				return Manifest{}, err
			}
		}
	}
	return New(r), nil
}

// LoadFile reads a manifest from path. The format is chosen by extension.
func LoadFile(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Decode(filepath.Ext(path), b)
	if err != nil {
		return m, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}

// Decode parses b as a manifest in the format named by ext (".toml", ".yaml", ".yml" or ".json")
// and validates its version.
func Decode(ext string, b []byte) (Manifest, error) {
	var m Manifest
	var err error
	switch format(ext) {
	case "toml":
		err = toml.Unmarshal(b, &m)
	case "yaml":
		err = yaml.Unmarshal(b, &m)
	case "json":
		err = json.Unmarshal(b, &m)
	default:
		return m, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return m, err
	}
	return m, m.Validate()
}

// Encode writes m to w in the named format: toml, yaml or json.
func Encode(w io.Writer, f string, m Manifest) error {
	switch format(f) {
	case "toml":
		return toml.NewEncoder(w).Encode(m)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		b, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		_, err = io.Copy(w, bytes.NewReader(append(b, '\n')))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func format(s string) string {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "toml":
		return "toml"
	case "yaml", "yml":
		return "yaml"
	case "json":
		return "json"
	default:
		return ""
	}
}

func labelStrings(labels []label.Label) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	sort.Strings(out)
	return out
}
