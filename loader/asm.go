package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/pipesim/insts"
)

// ParseAssembly reads one instruction per line. Text after '#' or ';' is a
// comment and blank lines are skipped. Two directives set initial state:
//
//	.reg $r2 10   # register $r2 starts at 10
//	.mem 4 7      # memory word 4 starts at 7
//
// Instruction lines are not validated here; the decoder does that when the
// pipeline reaches them.
func ParseAssembly(r io.Reader) (*Program, error) {
	prog := NewProgram("")
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if err := parseDirective(prog, line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			continue
		}

		prog.Instructions = append(prog.Instructions,
			&insts.Instruction{Text: line, Line: lineNum})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assembly: %w", err)
	}

	return prog, nil
}

func stripComment(line string) string {
	if idx := strings.IndexAny(line, "#;"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

func parseDirective(prog *Program, line string) error {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return fmt.Errorf("directive %q: want 2 arguments", fields[0])
	}

	value, err := strconv.ParseInt(fields[2], 0, 64)
	if err != nil {
		return fmt.Errorf("directive %q: bad value %q", fields[0], fields[2])
	}

	switch fields[0] {
	case ".reg":
		reg, err := insts.ParseReg(fields[1])
		if err != nil {
			return fmt.Errorf("directive .reg: %w", err)
		}
		prog.Registers[reg] = value
	case ".mem":
		addr, err := strconv.ParseInt(fields[1], 0, 64)
		if err != nil {
			return fmt.Errorf("directive .mem: bad address %q", fields[1])
		}
		prog.Memory[addr] = value
	default:
		return fmt.Errorf("unknown directive %q", fields[0])
	}

	return nil
}
