package config

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Jflick58/langchain/internal/logging"
)

// reloadDebounce coalesces editor write bursts into a single reload.
const reloadDebounce = 500 * time.Millisecond

// Manager owns a profile file. It loads the file up front, reloads it on
// demand or on change, and hands out the current profile through an
// atomic pointer so readers never block writers.
type Manager struct {
	profile  atomic.Pointer[Profile]
	path     string
	resolver CredentialResolver
	closer   io.Closer
	watcher  *fsnotify.Watcher
	onChange []func(*Profile)
	logger   *logging.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerResolver supplies the credential resolver used on every
// load. The caller keeps ownership and closes it.
func WithManagerResolver(r CredentialResolver) ManagerOption {
	return func(m *Manager) {
		m.resolver = r
	}
}

// WithLogger sets the logger used to report reload outcomes.
func WithLogger(logger *logging.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager loads path and prepares for reloads. Without an explicit
// resolver the manager builds the default one and owns its lifetime.
func NewManager(ctx context.Context, path string, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		path:   path,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.resolver == nil {
		resolver, err := newDefaultResolver()
		if err != nil {
			return nil, err
		}
		m.resolver = resolver
		m.closer = resolver
	}

	profile, err := loadFromFile(ctx, path, m.resolver)
	if err != nil {
		if m.closer != nil {
			_ = m.closer.Close()
		}
		return nil, err
	}
	m.profile.Store(profile)

	return m, nil
}

// Get returns the current profile. Safe for concurrent use.
func (m *Manager) Get() *Profile {
	return m.profile.Load()
}

// OnChange registers a callback invoked after every successful reload.
// Register callbacks before calling Watch.
func (m *Manager) OnChange(fn func(*Profile)) {
	m.onChange = append(m.onChange, fn)
}

// Reload re-reads the profile file and swaps it in. On failure the
// current profile stays in place.
func (m *Manager) Reload(ctx context.Context) error {
	profile, err := loadFromFile(ctx, m.path, m.resolver)
	if err != nil {
		return err
	}

	m.profile.Store(profile)
	for _, fn := range m.onChange {
		fn(profile)
	}
	return nil
}

// Watch reloads the profile whenever the file changes, until ctx ends.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	if err := watcher.Add(m.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("config: watch %s: %w", m.path, err)
	}
	m.watcher = watcher

	go m.watchLoop(ctx)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context) {
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			_ = m.watcher.Close()
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if err := m.Reload(ctx); err != nil {
					m.logger.Error("profile reload failed, keeping current",
						"path", m.path,
						"error", err,
					)
					return
				}
				m.logger.Info("profile reloaded", "path", m.path)
			})

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("profile watcher error", "error", err)
		}
	}
}

// Close stops watching and releases the default resolver when the
// manager owns it.
func (m *Manager) Close() error {
	var firstErr error
	if m.watcher != nil {
		firstErr = m.watcher.Close()
	}
	if m.closer != nil {
		if err := m.closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
