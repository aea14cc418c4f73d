// Package cli implements the scenegraph command-line interface.
//
// The commands load graph files (JSON or binary, picked by extension),
// print statistics, merge and sweep graphs, render them through Graphviz,
// browse them interactively, watch a file for changes and keep snapshots in
// a configurable store.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Each command
// logs through a child logger prefixed with its name, carried in the command
// context.
//
// # Configuration
//
// Settings live in $XDG_CONFIG_HOME/scenegraph/config.toml (or the file
// named by SCENEGRAPH_CONFIG). A missing file means defaults.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at the given level, with
// timestamps like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// commandLogger returns a child of l prefixed with the command path below
// the root, e.g. "snapshot put".
func commandLogger(l *log.Logger, path string) *log.Logger {
	if path == "" {
		return l
	}
	return l.WithPrefix(path)
}

// progress measures one step and logs it with its duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the key-value pairs and a "took" field, e.g.
//
//	14:32:01.45 INFO merge: merged file=frontend.dsg took=12ms
func (p *progress) done(msg string, keyvals ...any) {
	took := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg, append(keyvals, "took", took)...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger stored by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
