package mergeconfig

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse(t *testing.T) {
	p3 := dsg.NewNodeID('p', 3)
	p12 := dsg.NewNodeID('p', 12)

	tests := []struct {
		name    string
		format  Format
		input   string
		enforce bool
		clear   bool
		merges  map[dsg.NodeID]dsg.NodeID
	}{
		{
			name:    "empty toml keeps defaults",
			format:  FormatTOML,
			input:   "",
			enforce: true,
		},
		{
			name:   "toml",
			format: FormatTOML,
			input: `enforce_parent_constraints = false
clear_removed = true

[merges]
p12 = "p3"
`,
			enforce: false,
			clear:   true,
			merges:  map[dsg.NodeID]dsg.NodeID{p12: p3},
		},
		{
			name:   "yaml",
			format: FormatYAML,
			input: `clear_removed: true
merges:
  p12: p3
`,
			enforce: true,
			clear:   true,
			merges:  map[dsg.NodeID]dsg.NodeID{p12: p3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if cfg.EnforceParentConstraints != tt.enforce {
				t.Errorf("EnforceParentConstraints = %v, want %v", cfg.EnforceParentConstraints, tt.enforce)
			}
			if cfg.ClearRemoved != tt.clear {
				t.Errorf("ClearRemoved = %v, want %v", cfg.ClearRemoved, tt.clear)
			}
			if len(cfg.PreviousMerges) != len(tt.merges) {
				t.Fatalf("PreviousMerges = %v, want %v", cfg.PreviousMerges, tt.merges)
			}
			for from, to := range tt.merges {
				if got := cfg.PreviousMerges[from]; got != to {
					t.Errorf("PreviousMerges[%s] = %s, want %s", from, got, to)
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"bad toml", FormatTOML, "enforce_parent_constraints = ="},
		{"unknown key", FormatTOML, "colour = 1"},
		{"bad yaml", FormatYAML, "merges: [1, 2"},
		{"bad label", FormatTOML, "[merges]\n\"p-1\" = \"p3\""},
		{"bad target", FormatYAML, "merges:\n  p1: \"?\""},
		{"self merge", FormatTOML, "[merges]\np1 = \"p1\""},
		{"unknown format", Format("ini"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), tt.format)
			if !sgerrors.Is(err, sgerrors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "merge.yml", "merges:\n  o4: o1\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.MergedID(dsg.NewNodeID('o', 4)); got != dsg.NewNodeID('o', 1) {
		t.Errorf("MergedID(o4) = %s, want o1", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !sgerrors.Is(err, sgerrors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := Load(writeFile(t, "merge.ini", "")); !sgerrors.Is(err, sgerrors.ErrCodeInvalidConfig) {
		t.Errorf("Load(.ini) error = %v, want INVALID_CONFIG", err)
	}
}

func TestLoaderReload(t *testing.T) {
	path := writeFile(t, "merge.toml", "clear_removed = false\n")
	l, err := NewLoader(path, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if l.Config().ClearRemoved {
		t.Fatal("initial ClearRemoved = true")
	}

	var seen []bool
	l.OnChange(func(cfg dsg.GraphMergeConfig) { seen = append(seen, cfg.ClearRemoved) })

	if err := os.WriteFile(path, []byte("clear_removed = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !l.Config().ClearRemoved {
		t.Error("ClearRemoved not updated after Reload")
	}
	if len(seen) != 1 || !seen[0] {
		t.Errorf("OnChange calls = %v, want [true]", seen)
	}

	if err := os.WriteFile(path, []byte("clear_removed = ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Error("Reload() of broken file succeeded")
	}
	if !l.Config().ClearRemoved {
		t.Error("broken reload replaced the previous config")
	}
}

func TestLoaderCallbacksRegisteredDuringReload(t *testing.T) {
	path := writeFile(t, "merge.yaml", "clear_removed: true\n")
	l, err := NewLoader(path, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	var calls []string
	l.OnChange(func(dsg.GraphMergeConfig) {
		calls = append(calls, "first")
		if len(calls) == 1 {
			l.OnChange(func(dsg.GraphMergeConfig) { calls = append(calls, "late") })
		}
	})

	for range 2 {
		if _, err := l.Reload(); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}
	want := []string{"first", "first", "late"}
	if !slices.Equal(calls, want) {
		t.Errorf("callbacks = %v, want %v", calls, want)
	}
}

func TestLoaderWatch(t *testing.T) {
	path := writeFile(t, "merge.toml", "clear_removed = false\n")
	l, err := NewLoader(path, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	changed := make(chan dsg.GraphMergeConfig, 4)
	l.OnChange(func(cfg dsg.GraphMergeConfig) { changed <- cfg })

	stop, err := l.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte("clear_removed = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.ClearRemoved {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed after write")
		}
	}
}
