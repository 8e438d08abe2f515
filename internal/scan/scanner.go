package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// scanner is the single producer: it walks root and pushes every entry
// below it onto the queue.
type scanner struct {
	root    string
	queue   *Queue
	store   *Store
	filters *filters
	log     *slog.Logger

	// pruned holds excluded symlinks; entries reached through them are dropped.
	mu     sync.Mutex
	pruned []string
}

func newScanner(root string, queue *Queue, store *Store, f *filters, log *slog.Logger) *scanner {
	return &scanner{
		root:    root,
		queue:   queue,
		store:   store,
		filters: f,
		log:     log,
	}
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// underPruned reports whether path lies below an excluded symlink.
func (s *scanner) underPruned(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, link := range s.pruned {
		if strings.HasPrefix(path, link+string(filepath.Separator)) {
			return true
		}
	}

	return false
}

// scan walks the tree and closes the queue when it returns, whatever the
// outcome. Unreadable entries below the root are counted and skipped; an
// error on the root itself or a cancelled ctx ends the walk.
func (s *scanner) scan(ctx context.Context) error {
	defer s.queue.Close()

	conf := &fastwalk.Config{
		Follow:     true, // Follow symlinked directories
		NumWorkers: 1,    // Single producer
	}

	//nolint:varnamelen // d is standard for DirEntry
	err := fastwalk.Walk(conf, s.root, func(path string, d fs.DirEntry, err error) error {
		// Check cancellation periodically
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		isRoot := filepath.Clean(path) == s.root

		if err != nil {
			if isRoot {
				return err
			}

			s.store.WalkError()
			s.log.Debug("error accessing path", slog.String("path", path), slog.Any("error", err))

			return nil // Skip the entry or subtree
		}

		if isRoot || s.underPruned(path) {
			return nil
		}

		// Calculate current depth and check against limit
		if depth := s.filters.depth; depth > 0 && calculateDepth(path, s.root) > depth {
			if d.IsDir() {
				s.log.Debug("skipping directory (beyond depth)", slog.Int("depth", depth), slog.String("path", path))

				return filepath.SkipDir
			}

			return nil
		}

		// Check regex exclusion patterns
		if re := s.filters.excludedBy(path); re != nil {
			s.log.Debug("excluding path", slog.String("path", path), slog.String("regex", re.String()))

			if d.IsDir() {
				return filepath.SkipDir
			}

			if d.Type()&fs.ModeSymlink != 0 {
				s.mu.Lock()
				s.pruned = append(s.pruned, path)
				s.mu.Unlock()
			}

			return nil
		}

		if err := s.queue.Push(Entry{Path: path, Type: d.Type()}); err != nil {
			return fmt.Errorf("queueing %q: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %q: %w", s.root, err)
	}

	return nil
}
