package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/pipesim/insts"
)

// yamlProgram is the on-disk YAML layout:
//
//	name: reference
//	instructions:
//	  - LW $r1, 0($r0)
//	  - ADD $r3, $r1, $r2
//	registers:
//	  $r2: 10
//	memory:
//	  0: 5
//	  4: 7
type yamlProgram struct {
	Name         string           `yaml:"name"`
	Instructions []string         `yaml:"instructions"`
	Registers    map[string]int64 `yaml:"registers"`
	Memory       map[int64]int64  `yaml:"memory"`
}

// ParseYAML parses a YAML program description.
func ParseYAML(data []byte) (*Program, error) {
	var raw yamlProgram
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse program YAML: %w", err)
	}

	prog := NewProgram(raw.Name)

	for i, text := range raw.Instructions {
		prog.Instructions = append(prog.Instructions,
			&insts.Instruction{Text: text, Line: i + 1})
	}

	for name, v := range raw.Registers {
		reg, err := insts.ParseReg(name)
		if err != nil {
			return nil, fmt.Errorf("registers: %w", err)
		}
		prog.Registers[reg] = v
	}

	for addr, v := range raw.Memory {
		prog.Memory[addr] = v
	}

	return prog, nil
}

// MarshalYAML renders the program in the layout ParseYAML reads.
func (p *Program) MarshalYAML() (interface{}, error) {
	raw := yamlProgram{
		Name:      p.Name,
		Registers: make(map[string]int64, len(p.Registers)),
		Memory:    make(map[int64]int64, len(p.Memory)),
	}

	for _, inst := range p.Instructions {
		raw.Instructions = append(raw.Instructions, inst.Text)
	}
	for r, v := range p.Registers {
		raw.Registers[r.String()] = v
	}
	for a, v := range p.Memory {
		raw.Memory[a] = v
	}

	return raw, nil
}
