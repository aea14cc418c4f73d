package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/observability"
)

// DefaultRedisPrefix namespaces snapshot keys when RedisOptions.Prefix is
// empty.
const DefaultRedisPrefix = "scenegraph:"

// RedisOptions configures a [RedisStore].
type RedisOptions struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// Prefix is prepended to every key.
	Prefix string `toml:"prefix"`

	// TTL expires snapshots after the given duration. Zero keeps them.
	TTL time.Duration `toml:"ttl"`
}

// RedisStore keeps snapshots in Redis. Each snapshot uses a data key and a
// metadata key; a sorted set indexes ids by creation time.
//
// Network failures are retried with exponential backoff.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, sgerrors.New(sgerrors.ErrCodeInvalidConfig, "redis store needs an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	s := &RedisStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}
	if s.prefix == "" {
		s.prefix = DefaultRedisPrefix
	}
	err := RetryWithBackoff(ctx, func() error {
		return classify(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, storageError(err, "connect to redis at %s", opts.Addr)
	}
	return s, nil
}

func (s *RedisStore) dataKey(id string) string { return s.prefix + "data:" + id }
func (s *RedisStore) metaKey(id string) string { return s.prefix + "meta:" + id }
func (s *RedisStore) indexKey() string         { return s.prefix + "index" }

// Put writes data, metadata and the index entry in one transaction.
func (s *RedisStore) Put(ctx context.Context, data []byte) (Snapshot, error) {
	snap := newSnapshot(data)
	meta, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, storageError(err, "encode snapshot metadata")
	}
	err = RetryWithBackoff(ctx, func() error {
		_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, s.dataKey(snap.ID), data, s.ttl)
			p.Set(ctx, s.metaKey(snap.ID), meta, s.ttl)
			p.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(snap.CreatedAt.UnixNano()), Member: snap.ID})
			return nil
		})
		return classify(err)
	})
	if err != nil {
		return Snapshot{}, storageError(err, "write snapshot %s", snap.ID)
	}
	observability.Store().OnSnapshotPut(ctx, "redis", snap.Size)
	return snap, nil
}

// Get returns the snapshot data after checking its hash.
func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := sgerrors.ValidateSnapshotID(id); err != nil {
		return nil, err
	}
	var meta, data []byte
	err := RetryWithBackoff(ctx, func() error {
		var err error
		if meta, err = s.client.Get(ctx, s.metaKey(id)).Bytes(); err != nil {
			return classify(err)
		}
		data, err = s.client.Get(ctx, s.dataKey(id)).Bytes()
		return classify(err)
	})
	if errors.Is(err, redis.Nil) {
		observability.Store().OnSnapshotMiss(ctx, "redis")
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
	observability.Store().OnSnapshotHit(ctx, "redis")
	return data, nil
}

// List returns the metadata of all indexed snapshots, oldest first. Index
// entries whose keys expired are pruned.
func (s *RedisStore) List(ctx context.Context) ([]Snapshot, error) {
	var ids []string
	err := RetryWithBackoff(ctx, func() error {
		var err error
		ids, err = s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
		return classify(err)
	})
	if err != nil {
		return nil, storageError(err, "list snapshots")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.metaKey(id)
	}
	var values []any
	err = RetryWithBackoff(ctx, func() error {
		var err error
		values, err = s.client.MGet(ctx, keys...).Result()
		return classify(err)
	})
	if err != nil {
		return nil, storageError(err, "list snapshots")
	}

	var snaps []Snapshot
	var stale []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	if len(stale) > 0 {
		_ = s.client.ZRem(ctx, s.indexKey(), stale...).Err()
	}
	sortSnapshots(snaps)
	return snaps, nil
}

// Delete removes a snapshot and its index entry.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := sgerrors.ValidateSnapshotID(id); err != nil {
		return err
	}
	var removed int64
	err := RetryWithBackoff(ctx, func() error {
		var del *redis.IntCmd
		_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			del = p.Del(ctx, s.metaKey(id), s.dataKey(id))
			p.ZRem(ctx, s.indexKey(), id)
			return nil
		})
		if err == nil {
			removed = del.Val()
		}
		return classify(err)
	})
	if err != nil {
		return storageError(err, "delete snapshot %s", id)
	}
	if removed == 0 {
		return notFound(id)
	}
	return nil
}

// Close closes the client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// classify marks connection failures as retryable.
func classify(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, io.EOF) {
		return Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
	}
	return err
}

var _ Store = (*RedisStore)(nil)
