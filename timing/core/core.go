// Package core provides the simulated CPU core as an Akita component.
// It wraps the pipeline so that an Akita engine drives it cycle by cycle.
package core

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
}

// Core represents a pipelined CPU core ticked by an Akita engine.
type Core struct {
	*sim.TickingComponent

	// Pipeline is the underlying 5-slot pipeline.
	Pipeline *pipeline.Pipeline

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory
}

// Tick advances the pipeline by one cycle. It reports no progress once the
// pipeline has halted, which lets the engine run out of events.
func (c *Core) Tick() (madeProgress bool) {
	if c.Pipeline.Halted() {
		return false
	}

	c.Pipeline.Tick()

	return !c.Pipeline.Halted()
}

// Run schedules the first tick and runs the engine until the core stops
// making progress. It returns the pipeline error, if any.
func (c *Core) Run() error {
	c.TickNow()

	if err := c.Engine.Run(); err != nil {
		return err
	}

	return c.Pipeline.Err()
}

// RegFile returns the core's register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Memory returns the core's memory.
func (c *Core) Memory() *emu.Memory {
	return c.memory
}

// Halted returns true if the core has halted.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Err returns the error that stopped the core, if any.
func (c *Core) Err() error {
	return c.Pipeline.Err()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
	}
}
