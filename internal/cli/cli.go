package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"

	// Registers the JSON and binary codecs.
	_ "github.com/matzehuels/scenegraph/pkg/io"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "scenegraph"

	// configEnv overrides the config file location.
	configEnv = "SCENEGRAPH_CONFIG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Graph Files
// =============================================================================

// loadGraph reads a graph file, logging the elapsed time.
func loadGraph(ctx context.Context, path string) (*dsg.Graph, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	g, err := dsg.Load(path, dsg.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	prog.done("loaded", "file", filepath.Base(path))
	logger.Debug("graph loaded", "path", path, "nodes", g.NumNodes(false), "edges", g.NumEdges())
	return g, nil
}

// saveGraph writes g to path in the format implied by the extension.
func saveGraph(ctx context.Context, g *dsg.Graph, path string, includeMesh bool) error {
	if err := sgerrors.ValidatePath(filepath.Base(path)); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return sgerrors.Wrap(sgerrors.ErrCodeInvalidPath, err, "create output directory")
		}
	}
	prog := newProgress(loggerFromContext(ctx))
	if err := g.Save(path, includeMesh); err != nil {
		return err
	}
	prog.done("saved", "file", filepath.Base(path))
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/scenegraph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// dataDir returns the data directory using XDG standard (~/.local/share/scenegraph/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// configPath returns the config file location, honoring SCENEGRAPH_CONFIG.
func configPath() (string, error) {
	if p := os.Getenv(configEnv); p != "" {
		return p, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
