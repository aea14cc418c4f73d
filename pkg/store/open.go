package store

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend string       `toml:"backend"`
	Dir     string       `toml:"dir"`
	Redis   RedisOptions `toml:"redis"`
}

// Open creates the store named by cfg.Backend. An empty backend means
// [BackendFile].
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Backend) {
	case "", BackendFile:
		if cfg.Dir == "" {
			return nil, sgerrors.New(sgerrors.ErrCodeInvalidConfig, "file store needs a directory")
		}
		s, err = NewFileStore(cfg.Dir)
	case BackendBadger:
		s, err = NewBadgerStore(BadgerOptions{Dir: cfg.Dir, Logger: logger})
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.Redis)
	case BackendNone:
		return NewNullStore(), nil
	default:
		return nil, sgerrors.New(sgerrors.ErrCodeInvalidConfig, "unknown snapshot backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
