package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
		{"warn at error level", log.ErrorLevel, func(l *log.Logger) { l.Warn("test") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestCommandLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newLogger(&buf, log.InfoLevel)

	if commandLogger(base, "") != base {
		t.Error("empty command path should reuse the base logger")
	}

	commandLogger(base, "snapshot put").Info("stored")
	if !strings.Contains(buf.String(), "snapshot put") {
		t.Errorf("log line %q lacks the command prefix", buf.String())
	}
}

func TestProgressFields(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("loaded", "file", "scene.json")

	out := buf.String()
	for _, want := range []string{"loaded", "file=scene.json", "took="} {
		if !strings.Contains(out, want) {
			t.Errorf("progress output %q lacks %q", out, want)
		}
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext should fall back to log.Default()")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), custom)
	if loggerFromContext(ctx) != custom {
		t.Error("loggerFromContext should return the stored logger")
	}
}

func TestRootAttachesCommandLogger(t *testing.T) {
	isolateConfig(t, "")
	captureStdout(t)

	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	root := c.RootCommand()
	path := writeGraph(t, t.TempDir(), "scene.json", placesGraph(1))
	root.SetArgs([]string{"info", path})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(buf.String(), "info") || !strings.Contains(buf.String(), "loaded") {
		t.Errorf("log output %q should carry the command prefix", buf.String())
	}
}
