package insts

import (
	"errors"
	"fmt"
)

// Decode failure causes. They are always delivered wrapped in a *FormatError.
var (
	ErrEmptyInstruction = errors.New("empty instruction")
	ErrMissingOperands  = errors.New("missing operand group")
	ErrUnknownOpcode    = errors.New("unknown opcode")
	ErrOperandArity     = errors.New("wrong number of operands")
	ErrBadRegister      = errors.New("invalid register")
	ErrBadMemOperand    = errors.New("invalid memory operand")
)

// FormatError reports an instruction record that does not parse into an
// opcode and a well-formed operand list.
type FormatError struct {
	// Text is the offending instruction text.
	Text string
	// Line is the source line, or 0 when unknown.
	Line int
	// Err is the underlying cause.
	Err error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("%q: %v", e.Text, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error {
	return e.Err
}
