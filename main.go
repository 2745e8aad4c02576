// Command filestat reports file, directory and byte counts for a list of paths.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/filestat/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "unknown"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
