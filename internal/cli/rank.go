package cli

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"

	"github.com/idelchi/fileanalyzer/internal/scan"
)

// RankedExt is one extension in the size ranking.
type RankedExt struct {
	Ext   string `json:"ext"`
	Count int64  `json:"count"`
	Size  int64  `json:"size"`
}

// RankExtensions returns at most k extensions ordered by total size
// (largest first), ties broken by name. A negative k yields none.
func RankExtensions(stats *scan.Stats, k int) []RankedExt {
	ranked := make([]RankedExt, 0, len(stats.ExtStats))
	for ext, st := range stats.ExtStats {
		ranked = append(ranked, RankedExt{Ext: ext, Count: st.Count, Size: st.Size})
	}

	slices.SortFunc(ranked, func(a, b RankedExt) int {
		return cmp.Or(cmp.Compare(b.Size, a.Size), cmp.Compare(a.Ext, b.Ext))
	})

	return ranked[:min(max(k, 0), len(ranked))]
}

// RankFiles returns at most k files ordered by size (largest first),
// ties broken by path. A negative k yields none.
func RankFiles(stats *scan.Stats, k int) []scan.FileStat {
	ranked := slices.Clone(stats.Observations)

	slices.SortFunc(ranked, func(a, b scan.FileStat) int {
		return cmp.Or(cmp.Compare(b.Size, a.Size), cmp.Compare(a.Path, b.Path))
	})

	return ranked[:min(max(k, 0), len(ranked))]
}

// percent returns part as a percentage of total.
func percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}

	return 100.0 * float64(part) / float64(total)
}

// pathDisplay renders absolute paths relative to the working directory when
// the scanned root lies inside it, and as absolute slash paths otherwise.
type pathDisplay struct {
	cwd        string
	outsideCwd bool
}

func newPathDisplay(root, cwd string) pathDisplay {
	relToTarget, err := filepath.Rel(cwd, root)
	outsideCwd := cwd == "" || err != nil || strings.HasPrefix(relToTarget, "..")

	return pathDisplay{cwd: cwd, outsideCwd: outsideCwd}
}

func (p pathDisplay) format(path string) string {
	if !p.outsideCwd {
		if rel, err := filepath.Rel(p.cwd, path); err == nil {
			path = rel
		}
	}

	// Convert all paths to slash format for display
	return strings.TrimPrefix(filepath.ToSlash(path), "./")
}
