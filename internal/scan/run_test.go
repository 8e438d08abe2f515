package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree creates files (relative path -> size) under a fresh temp dir.
func buildTree(t *testing.T, files map[string]int) string {
	t.Helper()

	root := t.TempDir()
	for rel, size := range files {
		writeFile(t, filepath.Join(root, filepath.FromSlash(rel)), size)
	}

	return root
}

func mustRun(t *testing.T, opt Options) *Stats {
	t.Helper()

	stats, err := Run(context.Background(), opt)
	require.NoError(t, err)
	require.NotNil(t, stats)
	requireConsistent(t, stats)

	return stats
}

func TestRun_Scenario(t *testing.T) {
	root := buildTree(t, map[string]int{"a.txt": 100, "b.TXT": 50, "c": 10})

	stats := mustRun(t, Options{Path: root})

	assert.Equal(t, int64(3), stats.FileCount)
	assert.Equal(t, int64(160), stats.TotalBytes)
	assert.Equal(t, map[string]int64{".txt": 150, NoExt: 10}, stats.ExtensionBytes())
	assert.Equal(t, map[string]int64{".txt": 2, NoExt: 1}, stats.ExtensionCounts())
	assert.Empty(t, stats.Aborted)
	assert.Equal(t, DefaultWorkers(), stats.Workers)
	assert.GreaterOrEqual(t, stats.Workers, MinDefaultWorkers)
}

func TestRun_EmptyRoot(t *testing.T) {
	stats := mustRun(t, Options{Path: t.TempDir()})

	assert.Zero(t, stats.FileCount)
	assert.Zero(t, stats.TotalBytes)
	assert.Empty(t, stats.ExtStats)
	assert.Empty(t, stats.Observations)
}

func TestRun_InvalidRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	writeFile(t, file, 1)

	for name, path := range map[string]string{
		"missing":       filepath.Join(dir, "does-not-exist"),
		"not_directory": file,
	} {
		t.Run(name, func(t *testing.T) {
			stats, err := Run(context.Background(), Options{Path: path})
			require.Error(t, err)
			assert.Nil(t, stats)

			var rootErr *RootError
			require.ErrorAs(t, err, &rootErr)
			assert.Equal(t, path, rootErr.Path)
			assert.ErrorIs(t, err, ErrInvalidRoot)
		})
	}
}

func TestNew_InvalidRootStartsNothing(t *testing.T) {
	o, err := New(Options{Path: filepath.Join(t.TempDir(), "nope")})
	require.ErrorIs(t, err, ErrInvalidRoot)
	assert.Nil(t, o)
}

func TestRun_InvalidOptions(t *testing.T) {
	root := t.TempDir()

	tests := map[string]struct {
		opt    Options
		option string
	}{
		"exclude_pattern": {Options{Path: root, Excludes: []string{"("}}, "exclude"},
		"negative_depth":  {Options{Path: root, Depth: -1}, "depth"},
		"negative_size":   {Options{Path: root, MinSize: -1}, "min-size"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			stats, err := Run(context.Background(), tt.opt)
			require.Error(t, err)
			assert.Nil(t, stats)

			require.ErrorIs(t, err, ErrInvalidOptions)
			assert.NotErrorIs(t, err, ErrInvalidRoot)

			var rootErr *RootError
			assert.False(t, errors.As(err, &rootErr), "option errors are not root errors")

			var optErr *OptionError
			require.ErrorAs(t, err, &optErr)
			assert.Equal(t, tt.option, optErr.Option)
		})
	}
}

func nestedTree(t *testing.T) string {
	t.Helper()

	return buildTree(t, map[string]int{
		"README":               3,
		"src/main.go":          120,
		"src/util/strings.go":  80,
		"src/util/bytes.GO":    5,
		"docs/guide.md":        40,
		"docs/img/logo.PNG":    300,
		"docs/img/archive.tgz": 17,
		"deep/a/b/c/d/e.txt":   9,
		"deep/a/b/c/d/.hidden": 2,
		"bin/tool":             64,
		"bin/data.TAR.GZ":      33,
	})
}

func TestRun_NoDirectoriesObserved(t *testing.T) {
	root := nestedTree(t)

	stats := mustRun(t, Options{Path: root})

	assert.Equal(t, int64(11), stats.FileCount)

	for _, obs := range stats.Observations {
		assert.True(t, filepath.IsAbs(obs.Path), obs.Path)
		assert.True(t, strings.HasPrefix(obs.Path, stats.Root), obs.Path)

		info, err := os.Stat(obs.Path)
		require.NoError(t, err)
		assert.True(t, info.Mode().IsRegular(), obs.Path)
		assert.Equal(t, info.Size(), obs.Size, obs.Path)
	}

	assert.Equal(t, ExtStat{Count: 3, Size: 205}, stats.ExtStats[".go"])
	assert.Equal(t, ExtStat{Count: 1, Size: 33}, stats.ExtStats[".gz"])
	assert.Equal(t, ExtStat{Count: 3, Size: 69}, stats.ExtStats[NoExt])
}

func sortedPaths(stats *Stats) []string {
	paths := make([]string, 0, len(stats.Observations))
	for _, obs := range stats.Observations {
		paths = append(paths, obs.Path)
	}

	sort.Strings(paths)

	return paths
}

func TestRun_PoolSizeDoesNotChangeTotals(t *testing.T) {
	root := nestedTree(t)

	one := mustRun(t, Options{Path: root, Workers: 1})
	many := mustRun(t, Options{Path: root, Workers: 16})

	assert.Equal(t, 1, one.Workers)
	assert.Equal(t, 16, many.Workers)
	assert.Equal(t, one.FileCount, many.FileCount)
	assert.Equal(t, one.TotalBytes, many.TotalBytes)
	assert.Equal(t, one.ExtStats, many.ExtStats)
	assert.Equal(t, sortedPaths(one), sortedPaths(many))
}

func TestRun_Idempotent(t *testing.T) {
	root := nestedTree(t)

	first := mustRun(t, Options{Path: root})
	second := mustRun(t, Options{Path: root})

	assert.Equal(t, first.ExtStats, second.ExtStats)
	assert.Equal(t, first.TotalBytes, second.TotalBytes)
	assert.Equal(t, sortedPaths(first), sortedPaths(second))
}

func TestRun_ManyFiles(t *testing.T) {
	files := make(map[string]int, 600)
	for i := range 600 {
		files[fmt.Sprintf("d%d/f%03d.bin", i%6, i)] = i % 50
	}

	root := buildTree(t, files)

	stats := mustRun(t, Options{Path: root, Workers: 8})
	assert.Equal(t, int64(600), stats.FileCount)
	assert.Equal(t, ExtStat{Count: 600, Size: stats.TotalBytes}, stats.ExtStats[".bin"])
}

func TestRun_FollowsDirectorySymlinks(t *testing.T) {
	target := buildTree(t, map[string]int{"linked.dat": 11})
	root := buildTree(t, map[string]int{"own.dat": 5})

	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	stats := mustRun(t, Options{Path: root})

	assert.Equal(t, int64(2), stats.FileCount)
	assert.Equal(t, int64(16), stats.TotalBytes)
}

func TestRun_ExcludedDirectorySymlinkIsNotDescended(t *testing.T) {
	target := buildTree(t, map[string]int{"linked.dat": 11})
	root := buildTree(t, map[string]int{"own.dat": 5})

	if err := os.Symlink(target, filepath.Join(root, "vendor")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	stats := mustRun(t, Options{Path: root, Excludes: []string{`/vendor$`}})

	assert.Equal(t, int64(1), stats.FileCount)
	assert.Equal(t, int64(5), stats.TotalBytes)
	assert.Equal(t, []FileStat{{Path: filepath.Join(stats.Root, "own.dat"), Size: 5}}, stats.Observations)
}

func TestRun_BrokenSymlinkIsSkipped(t *testing.T) {
	root := buildTree(t, map[string]int{"real.txt": 4})

	if err := os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	stats := mustRun(t, Options{Path: root})

	assert.Equal(t, int64(1), stats.FileCount)
	assert.Equal(t, int64(4), stats.TotalBytes)
}

func TestRun_PermissionDeniedSubtreeIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := buildTree(t, map[string]int{"open/a.txt": 10, "locked/b.txt": 20})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	stats := mustRun(t, Options{Path: root})

	assert.Equal(t, int64(1), stats.FileCount)
	assert.Equal(t, int64(10), stats.TotalBytes)
	assert.Empty(t, stats.Aborted)
}

func TestRun_Filters(t *testing.T) {
	root := nestedTree(t)

	t.Run("depth", func(t *testing.T) {
		stats := mustRun(t, Options{Path: root, Depth: 1})
		assert.Equal(t, int64(1), stats.FileCount) // README
	})

	t.Run("excludes", func(t *testing.T) {
		stats := mustRun(t, Options{Path: root, Excludes: []string{`/docs(/|$)`, `/deep/`}})
		assert.Equal(t, int64(6), stats.FileCount)

		for _, obs := range stats.Observations {
			assert.NotContains(t, filepath.ToSlash(obs.Path), "/docs/")
		}
	})

	t.Run("extensions", func(t *testing.T) {
		stats := mustRun(t, Options{Path: root, Extensions: []string{".go", "'.md'"}})
		assert.Equal(t, int64(4), stats.FileCount)
		assert.Len(t, stats.ExtStats, 2)
	})

	t.Run("min_size", func(t *testing.T) {
		stats := mustRun(t, Options{Path: root, MinSize: 64})
		assert.Equal(t, int64(4), stats.FileCount)
	})
}

func TestRun_CancelledContextStillDrains(t *testing.T) {
	root := nestedTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan *Stats, 1)
	go func() {
		stats, err := Run(ctx, Options{Path: root, Workers: 4})
		assert.NoError(t, err)
		done <- stats
	}()

	select {
	case stats := <-done:
		require.NotNil(t, stats)
		requireConsistent(t, stats)
		assert.NotEmpty(t, stats.Aborted)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish after cancellation")
	}
}

func TestOrchestrator_RootRemovedBeforeRun(t *testing.T) {
	root := buildTree(t, map[string]int{"a.txt": 1, "sub/b.txt": 2})

	o, err := New(Options{Path: root, Workers: 4})
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(root))

	done := make(chan *Stats, 1)
	go func() { done <- o.Run(context.Background()) }()

	select {
	case stats := <-done:
		require.NotNil(t, stats)
		requireConsistent(t, stats)
		assert.NotEmpty(t, stats.Aborted)
		assert.Zero(t, stats.FileCount)
		assert.Equal(t, PhaseDone, o.Phase())
		assert.Equal(t, 0, o.queue.Len())
	case <-time.After(10 * time.Second):
		t.Fatal("workers still running after the root disappeared")
	}
}

func TestOrchestrator_Phases(t *testing.T) {
	o, err := New(Options{Path: nestedTree(t), Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, o.Phase())

	stats := o.Run(context.Background())
	requireConsistent(t, stats)
	assert.Equal(t, PhaseDone, o.Phase())
	assert.Equal(t, 0, o.queue.Len())

	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "scanning", PhaseScanning.String())
	assert.Equal(t, "draining", PhaseDraining.String())
	assert.Equal(t, "done", PhaseDone.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestCalculateDepth(t *testing.T) {
	sep := string(filepath.Separator)
	root := sep + "r"

	assert.Equal(t, 0, calculateDepth(root, root))
	assert.Equal(t, 1, calculateDepth(root+sep+"a", root))
	assert.Equal(t, 3, calculateDepth(root+sep+"a"+sep+"b"+sep+"c", root))
}
