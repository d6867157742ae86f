package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// NumRegs is the number of architectural registers.
const NumRegs = 32

// Reg is a register index in [0, NumRegs).
type Reg uint8

func (r Reg) String() string {
	return fmt.Sprintf("$r%d", r)
}

// ParseReg parses a register name of the form "$rN".
func ParseReg(s string) (Reg, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "$r") {
		return 0, fmt.Errorf("%w: %q", ErrBadRegister, s)
	}

	digits := s[2:]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q", ErrBadRegister, s)
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n >= NumRegs {
		return 0, fmt.Errorf("%w: %q", ErrBadRegister, s)
	}

	return Reg(n), nil
}
