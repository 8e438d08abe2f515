package scan

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/ygrebnov/errorc"
)

// MinDefaultWorkers is the lower bound of the default worker pool size.
const MinDefaultWorkers = 2

// Options configures a scan.
type Options struct {
	// Path is the directory to analyze.
	Path string
	// Workers is the worker pool size (<=0 selects DefaultWorkers).
	Workers int
	// Extensions are suffixes to include (empty = all); a "!" prefix excludes.
	Extensions []string
	// Excludes contains regex patterns matched against slash paths.
	Excludes []string
	// MinSize is the minimum file size in bytes.
	MinSize int64
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

// DefaultWorkers returns max(MinDefaultWorkers, runtime.NumCPU()).
func DefaultWorkers() int {
	return max(MinDefaultWorkers, runtime.NumCPU())
}

// filters holds the compiled form of the optional filters.
type filters struct {
	extInclude map[string]struct{}
	extExclude map[string]struct{}
	excludes   []*regexp.Regexp
	minSize    int64
	depth      int
}

// config is the validated form of Options used by a single run.
type config struct {
	root    string
	workers int
	log     *slog.Logger
	filters
}

// resolve validates opt and the root path. Errors returned here are fatal
// and happen before any goroutine is started.
func resolve(opt Options) (*config, error) {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if opt.Path == "" {
		opt.Path = "."
	}

	root, err := validateRoot(opt.Path)
	if err != nil {
		return nil, err
	}

	if opt.Depth < 0 {
		return nil, invalidOption("depth", "cannot be negative")
	}

	if opt.MinSize < 0 {
		return nil, invalidOption("min-size", "cannot be negative")
	}

	workers := opt.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	cfg := &config{
		root:    root,
		workers: workers,
		log:     log,
		filters: filters{
			extInclude: make(map[string]struct{}, len(opt.Extensions)),
			extExclude: make(map[string]struct{}, len(opt.Extensions)),
			excludes:   make([]*regexp.Regexp, 0, len(opt.Excludes)),
			minSize:    opt.MinSize,
			depth:      opt.Depth,
		},
	}

	for _, e := range opt.Extensions { //nolint:varnamelen // e is standard for element in range
		e = strings.Trim(e, "'\"") // Strip quotes first

		if strings.HasPrefix(e, "!") {
			cfg.extExclude[strings.ToLower(strings.TrimPrefix(e, "!"))] = struct{}{}
		} else if e != "" {
			cfg.extInclude[strings.ToLower(e)] = struct{}{}
		}
	}

	for _, p := range opt.Excludes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, invalidOption("exclude", err.Error()))
		}

		cfg.excludes = append(cfg.excludes, re)
	}

	return cfg, nil
}

// validateRoot returns the absolute form of path, or a RootError if it
// does not name an accessible directory.
func validateRoot(path string) (string, error) {
	// filepath.Clean handles both separators and converts to native format
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", &RootError{Path: path, Err: fmt.Errorf("resolving absolute path: %w", err)}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", &RootError{Path: path, Err: err}
	}

	if !info.IsDir() {
		return "", &RootError{Path: path, Err: errorc.With(ErrInvalidRoot, errorc.String("reason", "not a directory"))}
	}

	return abs, nil
}

// includeByExtension checks if a file should be included based on extension filters.
// Suffixes are compared case-insensitively so ".TXT" and ".txt" select the same files.
func (f *filters) includeByExtension(path string) bool {
	lower := strings.ToLower(path)

	// Check excludes first
	for ext := range f.extExclude {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	// If no include filter, include all
	if len(f.extInclude) == 0 {
		return true
	}

	for ext := range f.extInclude {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}

// excludedBy returns the first exclusion regex matching path, or nil.
func (f *filters) excludedBy(path string) *regexp.Regexp {
	if len(f.excludes) == 0 {
		return nil
	}

	fPath := filepath.ToSlash(path)

	for _, re := range f.excludes {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}
