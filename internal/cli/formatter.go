package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/idelchi/fileanalyzer/internal/scan"
)

// palette applies ANSI colors only when enabled.
type palette struct {
	enabled bool
}

func (p palette) paint(colors text.Colors, s string) string {
	if !p.enabled {
		return s
	}

	return colors.Sprint(s)
}

// Report is the JSON document written for --output json and --report.
type Report struct {
	Root       string          `json:"root"`
	FileCount  int64           `json:"file_count"`
	TotalBytes int64           `json:"total_bytes"`
	Skipped    int64           `json:"skipped"`
	WalkErrors int64           `json:"walk_errors"`
	Aborted    string          `json:"aborted,omitempty"`
	Workers    int             `json:"workers"`
	ElapsedMS  int64           `json:"elapsed_ms"`
	TopN       int             `json:"top_n"`
	Extensions []RankedExt     `json:"extensions"`
	TopFiles   []scan.FileStat `json:"top_files"`
	ExtCount   int             `json:"extension_count"`
}

// NewReport ranks stats into a Report with at most topN entries per list.
func NewReport(stats *scan.Stats, topN int) Report {
	return Report{
		Root:       stats.Root,
		FileCount:  stats.FileCount,
		TotalBytes: stats.TotalBytes,
		Skipped:    stats.Skipped,
		WalkErrors: stats.WalkErrors,
		Aborted:    stats.Aborted,
		Workers:    stats.Workers,
		ElapsedMS:  stats.Elapsed.Milliseconds(),
		TopN:       topN,
		Extensions: RankExtensions(stats, topN),
		TopFiles:   RankFiles(stats, topN),
		ExtCount:   len(stats.ExtStats),
	}
}

// PrintJSON outputs the report in JSON format.
func PrintJSON(report Report, writer io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

func bytesCell(size int64) string {
	return humanize.IBytes(uint64(size)) //nolint:gosec // Sizes are never negative
}

func newTable(writer io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(writer)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)

	return t
}

// PrintTable outputs the report in human-readable table format.
func PrintTable(report Report, paths pathDisplay, colors palette, writer io.Writer) error {
	if _, err := fmt.Fprintln(writer, colors.paint(text.Colors{text.FgGreen}, "Scan finished.")); err != nil {
		return err
	}

	// Extension statistics
	exts := newTable(writer, colors.paint(text.Colors{text.FgYellow}, fmt.Sprintf("Top %d extensions by total size", report.TopN)))
	exts.AppendHeader(table.Row{"#", "Extension", "Files", "Size", "Share"})
	exts.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for i, ext := range report.Extensions {
		exts.AppendRow(table.Row{
			i + 1,
			colors.paint(text.Colors{text.FgCyan}, ext.Ext),
			humanize.Comma(ext.Count),
			bytesCell(ext.Size),
			fmt.Sprintf("%.1f%%", percent(ext.Size, report.TotalBytes)),
		})
	}

	exts.Render()

	// Top files
	files := newTable(writer, colors.paint(text.Colors{text.FgYellow}, fmt.Sprintf("Top %d files by size", report.TopN)))
	files.AppendHeader(table.Row{"#", "Path", "Size", "Share"})
	files.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	for i, f := range report.TopFiles {
		files.AppendRow(table.Row{
			i + 1,
			paths.format(f.Path),
			bytesCell(f.Size),
			fmt.Sprintf("%.1f%%", percent(f.Size, report.TotalBytes)),
		})
	}

	files.Render()

	// Stats summary
	summary := newTable(writer, colors.paint(text.Colors{text.FgYellow}, "Stats"))
	summary.AppendRows([]table.Row{
		{"Root", paths.format(report.Root)},
		{"Total files", humanize.Comma(report.FileCount)},
		{"Total size", fmt.Sprintf("%s (%s bytes)", bytesCell(report.TotalBytes), humanize.Comma(report.TotalBytes))},
		{"Extensions", strconv.Itoa(report.ExtCount)},
		{"Skipped entries", humanize.Comma(report.Skipped)},
		{"Walk errors", humanize.Comma(report.WalkErrors)},
		{"Workers", strconv.Itoa(report.Workers)},
		{"Elapsed", fmt.Sprintf("%dms", report.ElapsedMS)},
	})

	if report.Aborted != "" {
		summary.AppendRow(table.Row{
			colors.paint(text.Colors{text.FgRed}, "Aborted"),
			colors.paint(text.Colors{text.FgRed}, report.Aborted),
		})
	}

	summary.Render()

	return nil
}
