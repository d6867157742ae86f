package core

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

// Builder can create new cores.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	pipeOpts []pipeline.PipelineOption
}

// NewBuilder returns a builder with a 1 GHz clock.
func NewBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the core.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithPipelineOptions sets the options passed to the pipeline.
func (b Builder) WithPipelineOptions(opts ...pipeline.PipelineOption) Builder {
	b.pipeOpts = append([]pipeline.PipelineOption(nil), opts...)
	return b
}

// Build creates a core that runs program against regFile and memory.
// A serial engine is created if none was given.
func (b Builder) Build(
	name string,
	regFile *emu.RegFile,
	memory *emu.Memory,
	program []*insts.Instruction,
) *Core {
	if b.engine == nil {
		b.engine = sim.NewSerialEngine()
	}

	c := &Core{
		Pipeline: pipeline.NewPipeline(regFile, memory, program, b.pipeOpts...),
		regFile:  regFile,
		memory:   memory,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	return c
}
