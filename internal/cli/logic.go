package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/idelchi/fileanalyzer/internal/scan"
)

// newLogger writes text logs to w: debug level when requested, warnings otherwise.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// colorEnabled resolves the --color mode against the output writer.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// writeReport writes report as JSON to path.
func writeReport(path string, report Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing report file: %w", cerr)
		}
	}()

	return PrintJSON(report, f)
}

func logic(ctx context.Context, s settings, stdout, stderr io.Writer) error {
	log := newLogger(stderr, s.debug)
	s.options.Logger = log

	log.Debug("options",
		slog.String("path", s.options.Path),
		slog.Int("workers", s.options.Workers),
		slog.Any("ext", s.options.Extensions),
		slog.Any("exclude", s.options.Excludes),
		slog.Int64("min_size", s.options.MinSize),
		slog.Int("depth", s.options.Depth),
	)

	stats, err := scan.Run(ctx, s.options)
	if err != nil {
		return err
	}

	report := NewReport(stats, s.topN)

	if s.report != "" {
		if err := writeReport(s.report, report); err != nil {
			return err
		}

		log.Debug("report written", slog.String("file", s.report))
	}

	switch s.output {
	case "json":
		return PrintJSON(report, stdout)
	case "table":
		cwd, err := os.Getwd()
		if err != nil {
			log.Debug("getting current directory", slog.Any("error", err))
		}

		return PrintTable(report, newPathDisplay(stats.Root, cwd), palette{enabled: colorEnabled(s.color, stdout)}, stdout)
	default:
		return fmt.Errorf("unknown output format: %s", s.output)
	}
}
