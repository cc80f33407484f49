// Command gathermetadata records the environment of an HPC benchmark run:
// hardware, kernel, scheduler, software versions and environment variables,
// one file per source, into an output directory.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
