// Package mergeconfig reads [dsg.GraphMergeConfig] values from TOML or YAML
// files.
//
// A merge config file looks like:
//
//	enforce_parent_constraints = true
//	clear_removed = false
//
//	[merges]
//	p12 = "p3"
//	o4 = "o1"
//
// Each entry in merges records that the key node was merged into the value
// node. The YAML form uses the same keys.
package mergeconfig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

// Format is the syntax of a merge config file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the syntax from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", sgerrors.New(sgerrors.ErrCodeInvalidConfig, "unsupported merge config extension: %q", filepath.Ext(path))
}

// File is the on-disk layout of a merge config.
type File struct {
	EnforceParentConstraints *bool             `toml:"enforce_parent_constraints" yaml:"enforce_parent_constraints"`
	ClearRemoved             bool              `toml:"clear_removed" yaml:"clear_removed"`
	Merges                   map[string]string `toml:"merges" yaml:"merges"`
}

// Config converts f into a merge configuration. A missing
// enforce_parent_constraints keeps the default of true.
func (f File) Config() (dsg.GraphMergeConfig, error) {
	cfg := dsg.DefaultMergeConfig()
	if f.EnforceParentConstraints != nil {
		cfg.EnforceParentConstraints = *f.EnforceParentConstraints
	}
	cfg.ClearRemoved = f.ClearRemoved
	if len(f.Merges) == 0 {
		return cfg, nil
	}

	cfg.PreviousMerges = make(map[dsg.NodeID]dsg.NodeID, len(f.Merges))
	for from, to := range f.Merges {
		src, err := parseLabel(from)
		if err != nil {
			return dsg.GraphMergeConfig{}, err
		}
		dst, err := parseLabel(to)
		if err != nil {
			return dsg.GraphMergeConfig{}, err
		}
		if src == dst {
			return dsg.GraphMergeConfig{}, sgerrors.New(sgerrors.ErrCodeInvalidConfig, "node %s is merged into itself", from)
		}
		cfg.PreviousMerges[src] = dst
	}
	return cfg, nil
}

func parseLabel(label string) (dsg.NodeID, error) {
	if err := sgerrors.ValidateNodeLabel(label); err != nil {
		return 0, sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "merges")
	}
	id, err := dsg.ParseNodeID(label)
	if err != nil {
		return 0, sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "merges")
	}
	return id, nil
}

// Parse decodes a merge config written in the given syntax.
func Parse(data []byte, format Format) (dsg.GraphMergeConfig, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return dsg.GraphMergeConfig{}, sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "parse toml merge config")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return dsg.GraphMergeConfig{}, sgerrors.New(sgerrors.ErrCodeInvalidConfig, "unknown merge config key %q", undecoded[0].String())
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return dsg.GraphMergeConfig{}, sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "parse yaml merge config")
		}
	default:
		return dsg.GraphMergeConfig{}, sgerrors.New(sgerrors.ErrCodeInvalidConfig, "unsupported merge config format: %q", format)
	}
	return f.Config()
}

// Load reads and parses the merge config at path.
func Load(path string) (dsg.GraphMergeConfig, error) {
	format, err := FormatFor(path)
	if err != nil {
		return dsg.GraphMergeConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return dsg.GraphMergeConfig{}, sgerrors.Wrap(sgerrors.ErrCodeFileNotFound, err, "merge config %s", path)
		}
		return dsg.GraphMergeConfig{}, sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "read merge config %s", path)
	}
	return Parse(data, format)
}
