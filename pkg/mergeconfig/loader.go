package mergeconfig

import (
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

// Loader holds the latest merge config read from a file and reloads it when
// the file changes.
type Loader struct {
	path   string
	logger *log.Logger

	mu       sync.RWMutex
	current  dsg.GraphMergeConfig
	onChange []func(dsg.GraphMergeConfig)
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string, logger *log.Logger) (*Loader, error) {
	if logger == nil {
		logger = log.Default()
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Loader{path: path, logger: logger, current: cfg}, nil
}

// Config returns the latest successfully loaded configuration.
func (l *Loader) Config() dsg.GraphMergeConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers fn to run after every successful reload.
func (l *Loader) OnChange(fn func(dsg.GraphMergeConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Reload re-reads the file immediately. On error the previous config stays
// active.
func (l *Loader) Reload() (dsg.GraphMergeConfig, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return dsg.GraphMergeConfig{}, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := slices.Clone(l.onChange)
	l.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

// Watch reloads the config whenever the file is written or recreated.
// Call stop to end watching.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInternal, err, "merge config watcher")
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidPath, err, "watch %s", l.path)
	}

	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if _, err := l.Reload(); err != nil {
					l.logger.Warn("merge config reload failed, keeping previous", "path", l.path, "err", err)
					continue
				}
				l.logger.Debug("merge config reloaded", "path", l.path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.Warn("merge config watcher", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }, nil
}
