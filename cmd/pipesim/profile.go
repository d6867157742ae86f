package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/tebeka/atexit"
)

// startProfiling starts CPU profiling if requested. The returned function
// stops it and writes the heap profile; it is also registered with atexit
// so that a failing run still flushes both profiles.
func startProfiling(cpuProfile, memProfile string) (func(), error) {
	var cpuFile *os.File

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return nil, fmt.Errorf("failed to create CPU profile: %w", err)
		}

		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start CPU profile: %w", err)
		}
		cpuFile = f
	}

	done := false
	stop := func() {
		if done {
			return
		}
		done = true

		if cpuFile != nil {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}

		if memProfile != "" {
			writeHeapProfile(memProfile)
		}
	}

	atexit.Register(stop)

	return stop, nil
}

func writeHeapProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
	}
}
