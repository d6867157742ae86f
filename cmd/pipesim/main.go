// Command pipesim runs programs on the five-stage pipeline simulator and
// prints the cycle-by-cycle pipeline table.
//
// Usage:
//
//	pipesim run program.s [flags]
//	pipesim example
//	pipesim bench [--json]
//
// Program files are assembly text (one instruction per line) or YAML; see
// package loader for both layouts.
package main

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
