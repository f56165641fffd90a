package scoring

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrCatalogRejected is returned when strict loading finds integrity issues.
var ErrCatalogRejected = errors.New("scoring: catalog rejected")

// CatalogStore holds the active catalog and swaps it on reload.
type CatalogStore struct {
	path     string
	strict   bool
	logger   *zap.Logger
	onReload func(*Catalog)

	mu      sync.RWMutex
	catalog *Catalog
	issues  []Issue
}

// StoreOption customises a CatalogStore.
type StoreOption func(*CatalogStore)

// WithStrict makes the store refuse catalogs that fail validation.
func WithStrict(strict bool) StoreOption {
	return func(s *CatalogStore) { s.strict = strict }
}

// WithLogger sets the logger used for load warnings.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *CatalogStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OnReload registers a callback fired after every successful load.
func OnReload(fn func(*Catalog)) StoreOption {
	return func(s *CatalogStore) { s.onReload = fn }
}

// NewCatalogStore loads the catalog at path, or the embedded default when path is empty.
func NewCatalogStore(path string, opts ...StoreOption) (*CatalogStore, error) {
	s := &CatalogStore{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Catalog returns the active catalog. Callers must not mutate it.
func (s *CatalogStore) Catalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Issues returns the integrity issues found on the last successful load.
func (s *CatalogStore) Issues() []Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// Reload reads the catalog again. On failure the previous catalog stays active.
func (s *CatalogStore) Reload() error {
	var (
		c   *Catalog
		err error
	)
	if s.path == "" {
		c = DefaultCatalog()
	} else if c, err = LoadCatalogFile(s.path); err != nil {
		return err
	}

	issues := c.Validate()
	for _, issue := range issues {
		s.logger.Warn("scoring catalog issue",
			zap.String("item", issue.Item),
			zap.String("table", issue.Table),
			zap.String("kind", string(issue.Kind)),
			zap.String("message", issue.Message),
		)
	}
	if s.strict && len(issues) > 0 {
		return fmt.Errorf("%w: %d issue(s), first: %s", ErrCatalogRejected, len(issues), issues[0])
	}

	s.mu.Lock()
	s.catalog = c
	s.issues = issues
	s.mu.Unlock()

	s.logger.Info("scoring catalog loaded",
		zap.String("path", s.path),
		zap.String("version", c.Version),
		zap.Int("items", len(c.Items)),
		zap.Int("issues", len(issues)),
	)
	if s.onReload != nil {
		s.onReload(c)
	}
	return nil
}

// Watch reloads the catalog whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file are handled.
func (s *CatalogStore) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", s.path, err)
	}

	target := filepath.Clean(s.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Error("scoring catalog reload failed", zap.String("path", s.path), zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("scoring catalog watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
