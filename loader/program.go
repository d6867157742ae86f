// Package loader reads simulator programs from assembly text and YAML
// files.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
)

// Program represents a loaded program and the initial state it expects.
type Program struct {
	// Name identifies the program, usually the file's base name.
	Name string
	// Instructions are the raw instruction records in program order.
	Instructions []*insts.Instruction
	// Registers holds initial register values.
	Registers map[insts.Reg]int64
	// Memory holds initial memory contents.
	Memory map[int64]int64
}

// NewProgram creates an empty program.
func NewProgram(name string) *Program {
	return &Program{
		Name:      name,
		Registers: make(map[insts.Reg]int64),
		Memory:    make(map[int64]int64),
	}
}

// Apply writes the program's initial state into regFile and memory.
func (p *Program) Apply(regFile *emu.RegFile, memory *emu.Memory) {
	for r, v := range p.Registers {
		regFile.WriteReg(r, v)
	}

	addrs := make([]int64, 0, len(p.Memory))
	for a := range p.Memory {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, a := range addrs {
		memory.Write(a, p.Memory[a])
	}
}

// Load reads a program file. Files ending in .yaml or .yml are parsed as
// YAML; anything else is parsed as assembly text.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var prog *Program
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		prog, err = ParseYAML(data)
	default:
		prog, err = ParseAssembly(strings.NewReader(string(data)))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if prog.Name == "" {
		prog.Name = name
	}

	return prog, nil
}
