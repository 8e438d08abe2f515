// Command fileanalyzer reports file statistics by extension for a directory tree.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/idelchi/fileanalyzer/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.New(version).Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
