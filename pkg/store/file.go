package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/observability"
)

// FileStore keeps snapshots in a directory. Every snapshot is written as
// <id>.snap holding the data and <id>.json holding its [Snapshot] metadata.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store in dir, creating the directory if it
// doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageError(err, "create snapshot dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the snapshots.
func (s *FileStore) Dir() string { return s.dir }

// Put writes data and its metadata. The data file is written first so a
// listed snapshot always has its data.
func (s *FileStore) Put(ctx context.Context, data []byte) (Snapshot, error) {
	snap := newSnapshot(data)
	dataPath, metaPath, err := s.paths(snap.ID)
	if err != nil {
		return Snapshot{}, err
	}
	meta, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, storageError(err, "encode snapshot metadata")
	}
	if err := os.WriteFile(dataPath, data, 0o644); err != nil {
		return Snapshot{}, storageError(err, "write snapshot %s", snap.ID)
	}
	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		_ = os.Remove(dataPath)
		return Snapshot{}, storageError(err, "write snapshot %s", snap.ID)
	}
	observability.Store().OnSnapshotPut(ctx, "file", snap.Size)
	return snap, nil
}

// Get reads the snapshot data and checks it against the stored hash.
func (s *FileStore) Get(ctx context.Context, id string) ([]byte, error) {
	dataPath, metaPath, err := s.paths(id)
	if err != nil {
		return nil, err
	}
	snap, err := readMeta(metaPath)
	if os.IsNotExist(err) {
		observability.Store().OnSnapshotMiss(ctx, "file")
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageError(err, "read snapshot %s", id)
	}
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, storageError(err, "read snapshot %s", id)
	}
	if err := snap.Verify(data); err != nil {
		return nil, err
	}
	observability.Store().OnSnapshotHit(ctx, "file")
	return data, nil
}

// List returns the metadata of every snapshot, oldest first. Unreadable
// metadata files are skipped.
func (s *FileStore) List(ctx context.Context) ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storageError(err, "list snapshots in %s", s.dir)
	}
	var snaps []Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if sgerrors.ValidateSnapshotID(strings.TrimSuffix(name, ".json")) != nil {
			continue
		}
		snap, err := readMeta(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	sortSnapshots(snaps)
	return snaps, nil
}

// Delete removes both files of a snapshot.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	dataPath, metaPath, err := s.paths(id)
	if err != nil {
		return err
	}
	err = os.Remove(metaPath)
	if os.IsNotExist(err) {
		return notFound(id)
	}
	if err != nil {
		return storageError(err, "delete snapshot %s", id)
	}
	if err := os.Remove(dataPath); err != nil && !os.IsNotExist(err) {
		return storageError(err, "delete snapshot %s", id)
	}
	return nil
}

// Close does nothing for file stores.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) paths(id string) (data, meta string, err error) {
	if err := sgerrors.ValidateSnapshotID(id); err != nil {
		return "", "", err
	}
	if err := sgerrors.ValidatePath(id + ".snap"); err != nil {
		return "", "", err
	}
	return filepath.Join(s.dir, id+".snap"), filepath.Join(s.dir, id+".json"), nil
}

func readMeta(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

var _ Store = (*FileStore)(nil)
