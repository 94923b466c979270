package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/strangelove-ventures/labeltest/label"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned when a file extension is not one of .toml, .yaml, .yml or .json.
var ErrUnknownFormat = errors.New("unknown selection file format")

// Config is the on-disk form of a Selection.
//
//	# selection.toml
//	include = ["integration"]
//	exclude = ["slow", "flaky"]
type Config struct {
	Include []string `toml:"include" yaml:"include" json:"include"`
	Exclude []string `toml:"exclude" yaml:"exclude" json:"exclude"`
}

// Selection converts c into a Selection.
func (c Config) Selection() Selection {
	return Selection{
		Include: label.ParseSet(c.Include...),
		Exclude: label.ParseSet(c.Exclude...),
	}
}

// LoadFile reads a selection from the TOML, YAML or JSON file at path.
// The format is chosen by file extension.
func LoadFile(path string) (Selection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Selection{}, fmt.Errorf("read selection file: %w", err)
	}
	c, err := DecodeConfig(filepath.Ext(path), b)
	if err != nil {
		return Selection{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return c.Selection(), nil
}

// DecodeConfig decodes b according to ext, which includes the leading dot.
func DecodeConfig(ext string, b []byte) (Config, error) {
	var c Config
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(b, &c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &c)
	case ".json":
		err = json.Unmarshal(b, &c)
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return c, err
}
