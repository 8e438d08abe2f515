package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/fileanalyzer/internal/scan"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// DefaultTopN is the number of ranked extensions and files shown by default.
const DefaultTopN = 15

// settings holds everything parsed from the command line.
type settings struct {
	options    scan.Options
	minSizeStr string
	topN       int
	output     string
	report     string
	color      string
	debug      bool
	version    bool
}

var (
	allowedOutputs = []string{"table", "json"}
	allowedColors  = []string{"auto", "always", "never"}
)

// bindFlags registers all flags on fs.
func bindFlags(fs *pflag.FlagSet, s *settings) {
	fs.IntVarP(&s.options.Workers, "workers", "w", 0,
		fmt.Sprintf("Number of worker goroutines (0 = max(%d, CPUs))", scan.MinDefaultWorkers))
	fs.StringSliceVarP(
		&s.options.Extensions,
		"ext",
		"x",
		[]string{},
		"File suffixes to include (e.g., .go,.md). Use '!' prefix to exclude (e.g., !.log,!_test.go)",
	)
	fs.StringSliceVarP(&s.options.Excludes, "exclude", "e", []string{}, "Regex patterns to exclude")
	fs.StringVar(&s.minSizeStr, "min-size", "0B", "Minimum file size (e.g., 1KB)")
	fs.IntVarP(&s.options.Depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	fs.IntVarP(&s.topN, "top", "t", DefaultTopN, "Number of top extensions and files to display")
	fs.StringVarP(&s.output, "output", "o", "table", "Output format: json or table")
	fs.StringVar(&s.report, "report", "", "Also write a JSON report to this file")
	fs.StringVar(&s.color, "color", "auto", "Colorize table output: auto, always or never")
	fs.BoolVar(&s.debug, "debug", false, "Enable debug output")
	fs.BoolVarP(&s.version, "version", "v", false, "Show version and exit")

	fs.SortFlags = false
}

// validate checks flag values and fills in the derived options.
func (s *settings) validate(args []string) error {
	if !slices.Contains(allowedOutputs, s.output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", s.output, allowedOutputs)
	}

	if !slices.Contains(allowedColors, s.color) {
		return fmt.Errorf("invalid color mode %q: must be one of %v", s.color, allowedColors)
	}

	if s.options.Depth < 0 {
		return errors.New("depth cannot be negative")
	}

	if s.options.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	if s.topN <= 0 {
		return errors.New("top must be positive")
	}

	if len(args) == 0 {
		s.options.Path = "."
	} else {
		s.options.Path = args[0]
	}

	// Parse minSize string to bytes
	if s.minSizeStr != "" {
		size, err := humanize.ParseBytes(s.minSizeStr)
		if err != nil {
			return fmt.Errorf("invalid min-size: %w", err)
		}

		s.options.MinSize = int64(size) //nolint:gosec // Size conversion from humanize is safe
	}

	return nil
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var s settings

	cmd := &cobra.Command{
		Use:   "fileanalyzer [flags] [path]",
		Short: "Summarize a directory tree by file extension",
		Long: heredoc.Doc(`
			fileanalyzer scans a directory tree with a pool of concurrent workers
			and reports statistics by file extension.

			Every regular file below path is classified by its final suffix
			(lowercased; files without one are grouped as "(no ext)").
			Symbolic links to directories are followed. Entries that cannot
			be read are skipped and counted.

			Path defaults to the current directory.
		`),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.version {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), c.version)

				return err
			}

			if err := s.validate(args); err != nil {
				return err
			}

			return logic(cmd.Context(), s, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	bindFlags(cmd.Flags(), &s)

	return cmd
}

// Execute runs the CLI with the process arguments. Cancelling ctx stops
// the walk; the statistics collected so far are still reported.
func (c CLI) Execute(ctx context.Context) error {
	return c.Command().ExecuteContext(ctx)
}
