// Package store keeps serialized scene graph snapshots.
//
// A snapshot is an opaque blob, usually produced by [io.Marshal], stored
// under a random UUID together with its SHA-256 content hash. Backends:
//
//   - [NullStore]: accepts writes and forgets them
//   - [FileStore]: one data and one metadata file per snapshot
//   - [BadgerStore]: embedded key-value store, on disk or in memory
//   - [RedisStore]: shared store for several processes
//
// [SaveGraph] and [LoadGraph] bridge between stores and [dsg.Graph] values.
//
// [io.Marshal]: github.com/matzehuels/scenegraph/pkg/io.Marshal
// [dsg.Graph]: github.com/matzehuels/scenegraph/pkg/dsg.Graph
package store

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

// Store is implemented by every snapshot backend. Get and Delete return an
// error coded SNAPSHOT_NOT_FOUND for unknown ids.
type Store interface {
	Put(ctx context.Context, data []byte) (Snapshot, error)
	Get(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context) ([]Snapshot, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Snapshot describes one stored blob.
type Snapshot struct {
	ID        string    `json:"id"`
	Hash      string    `json:"hash"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func newSnapshot(data []byte) Snapshot {
	return Snapshot{
		ID:        uuid.NewString(),
		Hash:      Hash(data),
		Size:      len(data),
		CreatedAt: time.Now().UTC(),
	}
}

// Verify reports whether data matches the snapshot's hash.
func (s Snapshot) Verify(data []byte) error {
	if got := Hash(data); got != s.Hash {
		return sgerrors.New(sgerrors.ErrCodeStorage, "snapshot %s: hash mismatch (have %s, want %s)", s.ID, got[:12], s.Hash[:min(12, len(s.Hash))])
	}
	return nil
}

func notFound(id string) error {
	return sgerrors.Wrap(sgerrors.ErrCodeSnapshotNotFound, ErrNotFound, "snapshot %s", id)
}

func storageError(err error, format string, args ...any) error {
	return sgerrors.Wrap(sgerrors.ErrCodeStorage, err, format, args...)
}

// sortSnapshots orders snapshots oldest first, breaking ties by id.
func sortSnapshots(snaps []Snapshot) {
	slices.SortFunc(snaps, func(a, b Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
