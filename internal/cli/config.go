package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/mergeconfig"
	"github.com/matzehuels/scenegraph/pkg/store"
)

// Config is the CLI configuration file.
//
//	[snapshots]
//	backend = "badger"
//	dir = "/var/lib/scenegraph"
//
//	[snapshots.redis]
//	addr = "localhost:6379"
//
//	[merge]
//	enforce_parents = true
//	clear_removed = false
type Config struct {
	Snapshots store.Config `toml:"snapshots"`
	Merge     MergeDefaults `toml:"merge"`
}

// MergeDefaults are the merge flags used when a command doesn't set them.
type MergeDefaults struct {
	EnforceParents *bool `toml:"enforce_parents"`
	ClearRemoved   bool  `toml:"clear_removed"`
}

// defaultDirs names the data subdirectory of each on-disk backend.
var defaultDirs = map[string]string{
	store.BackendFile:   "snapshots",
	store.BackendBadger: "badger",
}

// loadConfig reads the config file. A missing file yields the defaults.
func loadConfig() (Config, error) {
	cfg := Config{Snapshots: store.Config{Backend: store.BackendFile}}
	if err := decodeConfigFile(&cfg); err != nil {
		return Config{}, err
	}
	if sub, ok := defaultDirs[cfg.Snapshots.Backend]; ok && cfg.Snapshots.Dir == "" {
		dir, err := dataDir()
		if err != nil {
			return Config{}, err
		}
		cfg.Snapshots.Dir = filepath.Join(dir, sub)
	}
	return cfg, nil
}

func decodeConfigFile(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return sgerrors.New(sgerrors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// mergeFlags are the merge options shared by merge, sweep and watch.
type mergeFlags struct {
	configFile     string
	enforceParents bool
	clearRemoved   bool
}

// resolve builds the merge configuration. A merge config file provides the
// base; explicitly set flags override it, and unset flags fall back to the
// CLI config.
func (f mergeFlags) resolve(defaults MergeDefaults, enforceSet, clearSet bool) (dsg.GraphMergeConfig, error) {
	cfg := dsg.DefaultMergeConfig()
	if defaults.EnforceParents != nil {
		cfg.EnforceParentConstraints = *defaults.EnforceParents
	}
	cfg.ClearRemoved = defaults.ClearRemoved

	if f.configFile != "" {
		fileCfg, err := mergeconfig.Load(f.configFile)
		if err != nil {
			return dsg.GraphMergeConfig{}, err
		}
		cfg = fileCfg
	}
	if enforceSet {
		cfg.EnforceParentConstraints = f.enforceParents
	}
	if clearSet {
		cfg.ClearRemoved = f.clearRemoved
	}
	return cfg, nil
}
