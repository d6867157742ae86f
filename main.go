// Package main provides the entry point for Pipesim.
// Pipesim is a cycle-by-cycle five-stage pipeline simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/pipesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("Pipesim - Five-Stage Pipeline Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: pipesim <command> [flags]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run <program>   Simulate an assembly or YAML program")
	fmt.Println("  example         Simulate the built-in reference program")
	fmt.Println("  bench           Check the pipeline against the functional emulator")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/pipesim --help' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/pipesim' instead.")
	}
}
