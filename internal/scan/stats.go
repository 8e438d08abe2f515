package scan

import (
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// NoExt is the extension token for files without an extension.
const NoExt = "(no ext)"

// ExtStat represents statistics for a file extension.
type ExtStat struct {
	// Count is the number of files with this extension.
	Count int64 `json:"count"`
	// Size is the cumulative size in bytes.
	Size int64 `json:"size"`
}

// FileStat represents a single file path and size.
type FileStat struct {
	// Path is the absolute file path.
	Path string `json:"path"`
	// Size is the size in bytes.
	Size int64 `json:"size"`
}

// Observation is the classified record of one regular file.
type Observation struct {
	Path string
	Size int64
	Ext  string
}

// NewObservation classifies the file at path with the given size.
func NewObservation(path string, size int64) Observation {
	return Observation{Path: path, Size: size, Ext: NormalizeExt(path)}
}

// NormalizeExt returns the lowercased final suffix of path's base name,
// including the dot, or NoExt when there is none. A leading dot alone
// (".bashrc") does not start an extension.
func NormalizeExt(path string) string {
	base := filepath.Base(path)

	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 {
		return NoExt
	}

	return strings.ToLower(base[idx:])
}

// Stats holds aggregate statistics for a directory scan.
type Stats struct {
	// Root is the absolute path that was scanned.
	Root string `json:"root"`
	// FileCount is the total number of regular files analyzed.
	FileCount int64 `json:"file_count"`
	// TotalBytes is the cumulative size of all analyzed files.
	TotalBytes int64 `json:"total_bytes"`
	// ExtStats maps normalized extensions to their statistics.
	ExtStats map[string]ExtStat `json:"ext_stats"`
	// Observations lists every analyzed file in the order it was merged.
	Observations []FileStat `json:"observations"`
	// Skipped is the number of entries workers could not stat.
	Skipped int64 `json:"skipped"`
	// WalkErrors is the number of traversal errors that were skipped over.
	WalkErrors int64 `json:"walk_errors"`
	// Aborted holds the error that ended the walk early, if any.
	Aborted string `json:"aborted,omitempty"`
	// Workers is the size of the worker pool.
	Workers int `json:"workers"`
	// Elapsed is the total time taken for analysis.
	Elapsed time.Duration `json:"elapsed"`
}

// ExtensionBytes returns the extension to total bytes mapping.
func (s *Stats) ExtensionBytes() map[string]int64 {
	out := make(map[string]int64, len(s.ExtStats))
	for ext, st := range s.ExtStats {
		out[ext] = st.Size
	}

	return out
}

// ExtensionCounts returns the extension to file count mapping.
func (s *Stats) ExtensionCounts() map[string]int64 {
	out := make(map[string]int64, len(s.ExtStats))
	for ext, st := range s.ExtStats {
		out[ext] = st.Count
	}

	return out
}

// Store aggregates observations from concurrent workers using a mutex.
type Store struct {
	mu           sync.Mutex // Protect concurrent access
	extStats     map[string]ExtStat
	observations []FileStat
	fileCount    int64
	totalBytes   int64
	skipped      int64
	walkErrors   int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		extStats:     make(map[string]ExtStat),
		observations: make([]FileStat, 0),
	}
}

// Merge records one observation. It is the only mutator of the counters.
func (s *Store) Merge(o Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fileCount++
	s.totalBytes += o.Size

	stat := s.extStats[o.Ext]
	stat.Count++
	stat.Size += o.Size
	s.extStats[o.Ext] = stat

	s.observations = append(s.observations, FileStat{Path: o.Path, Size: o.Size})
}

// Skip counts an entry a worker could not access.
func (s *Store) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

// WalkError counts a traversal error the scanner recovered from.
func (s *Store) WalkError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walkErrors++
}

// Snapshot returns a copy of the aggregate. It must only be called once
// every worker has returned.
func (s *Store) Snapshot() *Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	extStats := make(map[string]ExtStat, len(s.extStats))
	for ext, stat := range s.extStats {
		extStats[ext] = stat
	}

	observations := make([]FileStat, len(s.observations))
	copy(observations, s.observations)

	return &Stats{
		FileCount:    s.fileCount,
		TotalBytes:   s.totalBytes,
		ExtStats:     extStats,
		Observations: observations,
		Skipped:      s.skipped,
		WalkErrors:   s.walkErrors,
	}
}
