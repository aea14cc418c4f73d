package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/charmbracelet/log"
	badger "github.com/dgraph-io/badger/v4"

	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/observability"
)

// Key layout inside badger.
const (
	badgerDataPrefix = "snap/data/"
	badgerMetaPrefix = "snap/meta/"
)

// BadgerOptions configures a [BadgerStore].
type BadgerOptions struct {
	// Dir is the directory for badger's files. Required unless InMemory.
	Dir string

	// InMemory keeps everything in memory. Used by tests.
	InMemory bool

	// Logger receives badger's warnings and errors. Defaults to
	// log.Default().
	Logger *log.Logger
}

// BadgerStore keeps snapshots in an embedded badger database.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database.
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, sgerrors.New(sgerrors.ErrCodeInvalidConfig, "badger store needs a directory")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger.WithPrefix("badger")})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, storageError(err, "open badger store")
	}
	return &BadgerStore{db: db}, nil
}

// Put stores data and metadata in one transaction.
func (s *BadgerStore) Put(ctx context.Context, data []byte) (Snapshot, error) {
	snap := newSnapshot(data)
	meta, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, storageError(err, "encode snapshot metadata")
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerDataPrefix+snap.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(badgerMetaPrefix+snap.ID), meta)
	})
	if err != nil {
		return Snapshot{}, storageError(err, "write snapshot %s", snap.ID)
	}
	observability.Store().OnSnapshotPut(ctx, "badger", snap.Size)
	return snap, nil
}

// Get returns the snapshot data after checking its hash.
func (s *BadgerStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := sgerrors.ValidateSnapshotID(id); err != nil {
		return nil, err
	}
	var data, meta []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerMetaPrefix + id))
		if err != nil {
			return err
		}
		if meta, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get([]byte(badgerDataPrefix + id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		observability.Store().OnSnapshotMiss(ctx, "badger")
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageError(err, "read snapshot %s", id)
	}
	var snap Snapshot
	if err := json.Unmarshal(meta, &snap); err != nil {
		return nil, storageError(err, "decode snapshot metadata %s", id)
	}
	if err := snap.Verify(data); err != nil {
		return nil, err
	}
	observability.Store().OnSnapshotHit(ctx, "badger")
	return data, nil
}

// List returns all snapshot metadata, oldest first.
func (s *BadgerStore) List(ctx context.Context) ([]Snapshot, error) {
	var snaps []Snapshot
	prefix := []byte(badgerMetaPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var snap Snapshot
			if err := json.Unmarshal(raw, &snap); err != nil {
				continue
			}
			snaps = append(snaps, snap)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "list snapshots")
	}
	sortSnapshots(snaps)
	return snaps, nil
}

// Delete removes a snapshot.
func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if err := sgerrors.ValidateSnapshotID(id); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(badgerMetaPrefix + id)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(badgerMetaPrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(badgerDataPrefix + id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound(id)
	}
	if err != nil {
		return storageError(err, "delete snapshot %s", id)
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger forwards badger's warnings and errors to a charm logger and
// drops its info and debug chatter.
type badgerLogger struct{ l *log.Logger }

func (b badgerLogger) Errorf(f string, v ...any)   { b.l.Errorf(f, v...) }
func (b badgerLogger) Warningf(f string, v ...any) { b.l.Warnf(f, v...) }
func (badgerLogger) Infof(string, ...any)          {}
func (badgerLogger) Debugf(string, ...any)         {}

var _ Store = (*BadgerStore)(nil)
