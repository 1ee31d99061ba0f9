package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"careerpilot/internal/logging"
)

// Store is an explicitly constructed, explicitly invalidated configuration
// source. It caches the parsed file until Invalidate is called (or, when
// Watch is running, until the file changes on disk). A Store with an empty
// path serves the default profile.
type Store struct {
	path string

	mu     sync.RWMutex
	cached *Config
}

// NewStore creates a store reading from the given yaml file. An empty path
// means "defaults only".
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Get returns the current configuration, loading and caching it on first
// use. The returned Config must be treated as read-only; it may be shared
// across planning calls.
func (s *Store) Get() (*Config, error) {
	s.mu.RLock()
	if s.cached != nil {
		c := s.cached
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached, nil
	}

	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	s.cached = cfg
	return cfg, nil
}

// Invalidate drops the cached configuration; the next Get reloads.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	logging.Get(logging.CategoryConfig).Info("config cache invalidated")
}

// load parses the file over the default profile, so partial files work.
func (s *Store) load() (*Config, error) {
	cfg := Default()
	if s.path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Get(logging.CategoryConfig).Info("no config at %s, using defaults", s.path)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", s.path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", s.path, err)
	}
	logging.Get(logging.CategoryConfig).Info("loaded config from %s", s.path)
	return cfg, nil
}

// Watch invalidates the cache whenever the config file changes on disk.
// Blocks until ctx is done. Optional; callers that prefer purely explicit
// invalidation simply never start it.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.path); err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}

	log := logging.Get(logging.CategoryConfig)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				log.Info("config file changed (%s), invalidating", ev.Op)
				s.Invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error: %v", err)
		}
	}
}
