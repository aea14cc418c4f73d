package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/observability"
)

const unknownID = "00000000-0000-4000-8000-000000000000"

func quietLogger() *log.Logger { return log.New(io.Discard) }

// testStore runs the behaviour every persistent backend shares.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	first, err := s.Put(ctx, []byte("first"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := sgerrors.ValidateSnapshotID(first.ID); err != nil {
		t.Errorf("Put() id %q: %v", first.ID, err)
	}
	if first.Size != 5 || first.Hash != Hash([]byte("first")) {
		t.Errorf("Put() = %+v, wrong size or hash", first)
	}
	time.Sleep(time.Millisecond)
	second, err := s.Put(ctx, []byte("second"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("Get() = %q, want %q", data, "first")
	}

	snaps, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID != first.ID || snaps[1].ID != second.ID {
		t.Errorf("List() = %+v, want [%s %s]", snaps, first.ID, second.ID)
	}

	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, first.ID); !sgerrors.Is(err, sgerrors.ErrCodeSnapshotNotFound) {
		t.Errorf("Get() after Delete error = %v, want SNAPSHOT_NOT_FOUND", err)
	}
	if err := s.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, unknownID); !sgerrors.Is(err, sgerrors.ErrCodeSnapshotNotFound) {
		t.Errorf("Get(unknown) error = %v, want SNAPSHOT_NOT_FOUND", err)
	}
	if _, err := s.Get(ctx, "../etc/passwd"); !sgerrors.Is(err, sgerrors.ErrCodeInvalidID) {
		t.Errorf("Get(traversal) error = %v, want INVALID_ID", err)
	}

	snaps, _ = s.List(ctx)
	if len(snaps) != 1 || snaps[0].ID != second.ID {
		t.Errorf("List() after Delete = %+v", snaps)
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	defer s.Close()

	snap, err := s.Put(ctx, []byte("value"))
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, err := s.Get(ctx, snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("NullStore.Get() error = %v, want ErrNotFound", err)
	}
	if snaps, _ := s.List(ctx); len(snaps) != 0 {
		t.Errorf("NullStore.List() = %v, want empty", snaps)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "snaps"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestFileStoreDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Put(ctx, []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), snap.ID+".snap"), []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, snap.ID); !sgerrors.Is(err, sgerrors.ErrCodeStorage) {
		t.Errorf("Get() of tampered snapshot error = %v, want STORAGE_ERROR", err)
	}
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(BadgerOptions{InMemory: true, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestBadgerStoreNeedsDir(t *testing.T) {
	if _, err := NewBadgerStore(BadgerOptions{}); !sgerrors.Is(err, sgerrors.ErrCodeInvalidConfig) {
		t.Errorf("NewBadgerStore() error = %v, want INVALID_CONFIG", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SCENEGRAPH_REDIS_ADDR")
	if addr == "" {
		t.Skip("SCENEGRAPH_REDIS_ADDR not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, RedisOptions{Addr: addr, Prefix: "scenegraph-test:" + Hash([]byte(t.Name()))[:8] + ":"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	t.Cleanup(func() {
		snaps, _ := s.List(ctx)
		for _, snap := range snaps {
			_ = s.Delete(ctx, snap.ID)
		}
	})
	testStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     Config
		wantErr sgerrors.Code
	}{
		{"default is file", Config{Dir: t.TempDir()}, ""},
		{"none", Config{Backend: BackendNone}, ""},
		{"file without dir", Config{Backend: BackendFile}, sgerrors.ErrCodeInvalidConfig},
		{"redis without addr", Config{Backend: BackendRedis}, sgerrors.ErrCodeInvalidConfig},
		{"unknown", Config{Backend: "s3"}, sgerrors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg, quietLogger())
			if tt.wantErr != "" {
				if !sgerrors.Is(err, tt.wantErr) {
					t.Errorf("Open() error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			s.Close()
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 3 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("RetryWithBackoff() = %v after %d calls, want nil after 3", err, calls)
	}

	calls = 0
	permanent := errors.New("permanent")
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("RetryWithBackoff() = %v after %d calls, want permanent after 1", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if IsRetryable(err) || !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Errorf("RetryWithBackoff() = %v after %d calls, want unwrapped ErrNetwork after 3", err, calls)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestGraphRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	g := dsg.New(dsg.WithLogger(quietLogger()))
	p1, p2 := dsg.NewNodeID('p', 1), dsg.NewNodeID('p', 2)
	g.EmplaceNode(dsg.LayerPlaces, p1, &dsg.NodeAttrs{Name: "hall"})
	g.EmplaceNode(dsg.LayerPlaces, p2, &dsg.NodeAttrs{})
	g.InsertEdge(p1, p2, nil)

	for _, format := range []dsg.Format{dsg.FormatJSON, dsg.FormatBinary} {
		snap, err := SaveGraph(ctx, s, g, format)
		if err != nil {
			t.Fatalf("SaveGraph(%v): %v", format, err)
		}
		got, err := LoadGraph(ctx, s, snap.ID, dsg.WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("LoadGraph(%v): %v", format, err)
		}
		if got.NumNodes(false) != 2 || !got.HasEdge(p1, p2) {
			t.Errorf("LoadGraph(%v) = %d nodes, edge %v", format, got.NumNodes(false), got.HasEdge(p1, p2))
		}
	}

	snap, _ := s.Put(ctx, []byte("not a graph"))
	if _, err := LoadGraph(ctx, s, snap.ID); !sgerrors.Is(err, sgerrors.ErrCodeInvalidFormat) {
		t.Errorf("LoadGraph(garbage) error = %v, want INVALID_FORMAT", err)
	}
}

type recordingStoreHooks struct {
	mu                sync.Mutex
	hits, misses, put int
}

func (r *recordingStoreHooks) OnSnapshotHit(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *recordingStoreHooks) OnSnapshotMiss(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func (r *recordingStoreHooks) OnSnapshotPut(context.Context, string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put++
}

func TestStoreHooks(t *testing.T) {
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap, _ := s.Put(ctx, bytes.Repeat([]byte{1}, 8))
	_, _ = s.Get(ctx, snap.ID)
	_, _ = s.Get(ctx, unknownID)

	if hooks.put != 1 || hooks.hits != 1 || hooks.misses != 1 {
		t.Errorf("hooks = put %d, hit %d, miss %d; want 1 each", hooks.put, hooks.hits, hooks.misses)
	}
}
