package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// Op represents an opcode.
type Op uint8

// Opcodes.
const (
	OpUnknown Op = iota
	OpADD
	OpSUB
	OpLW
	OpSW
)

var opNames = map[Op]string{
	OpUnknown: "UNKNOWN",
	OpADD:     "ADD",
	OpSUB:     "SUB",
	OpLW:      "LW",
	OpSW:      "SW",
}

var opByMnemonic = map[string]Op{
	"ADD": OpADD,
	"SUB": OpSUB,
	"LW":  OpLW,
	"SW":  OpSW,
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// Format represents an operand layout.
type Format uint8

// Operand formats.
const (
	FormatUnknown Format = iota
	FormatReg            // rd, rs, rt
	FormatMem            // rt, offset(base)
)

// Instruction is a raw textual instruction record as produced by a parser.
// It is never modified once created.
type Instruction struct {
	// Text is the instruction text, e.g. "LW $r1, 0($r0)".
	Text string
	// Line is the 1-based source line, or 0 when not loaded from a file.
	Line int
}

// NewInstruction creates an instruction record from its text.
func NewInstruction(text string) *Instruction {
	return &Instruction{Text: text}
}

// NewProgram creates instruction records from a list of texts.
func NewProgram(texts ...string) []*Instruction {
	program := make([]*Instruction, len(texts))
	for i, t := range texts {
		program[i] = NewInstruction(t)
	}
	return program
}

func (i *Instruction) String() string {
	return i.Text
}

// Decoded is a decoded instruction.
type Decoded struct {
	Op     Op     // Operation code
	Format Format // Operand layout

	// Mnemonic is the opcode token as written.
	Mnemonic string
	// Operands holds the trimmed operand texts in source order.
	Operands []string

	// Register format: rd = rs op rt
	Rd Reg
	Rs Reg
	Rt Reg // also the data register of LW/SW

	// Memory format: address = Base + Offset
	Base   Reg
	Offset int64
}

func (d *Decoded) String() string {
	switch d.Format {
	case FormatReg:
		return fmt.Sprintf("%v %v, %v, %v", d.Op, d.Rd, d.Rs, d.Rt)
	case FormatMem:
		return fmt.Sprintf("%v %v, %d(%v)", d.Op, d.Rt, d.Offset, d.Base)
	default:
		return fmt.Sprintf("%s %s", d.Mnemonic, strings.Join(d.Operands, ", "))
	}
}

// Decoder decodes textual instruction records.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes one instruction record. A nil record decodes to nil with no
// error so that callers can treat an empty pipeline slot uniformly.
func (d *Decoder) Decode(inst *Instruction) (*Decoded, error) {
	if inst == nil {
		return nil, nil
	}

	decoded, err := d.decode(inst.Text)
	if err != nil {
		return nil, &FormatError{Text: inst.Text, Line: inst.Line, Err: err}
	}

	return decoded, nil
}

func (d *Decoder) decode(text string) (*Decoded, error) {
	mnemonic, group, err := splitOpcode(text)
	if err != nil {
		return nil, err
	}

	decoded := &Decoded{
		Mnemonic: mnemonic,
		Operands: splitOperands(group),
	}

	op, ok := opByMnemonic[strings.ToUpper(mnemonic)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOpcode, mnemonic)
	}
	decoded.Op = op

	switch op {
	case OpADD, OpSUB:
		decoded.Format = FormatReg
		err = d.decodeReg(decoded)
	case OpLW, OpSW:
		decoded.Format = FormatMem
		err = d.decodeMem(decoded)
	}
	if err != nil {
		return nil, err
	}

	return decoded, nil
}

// splitOpcode separates the opcode token from the operand group at the
// first run of whitespace.
func splitOpcode(text string) (string, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", ErrEmptyInstruction
	}

	idx := strings.IndexAny(text, " \t")
	if idx < 0 {
		return "", "", ErrMissingOperands
	}

	group := strings.TrimSpace(text[idx:])
	if group == "" {
		return "", "", ErrMissingOperands
	}

	return text[:idx], group, nil
}

func splitOperands(group string) []string {
	parts := strings.Split(group, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func checkArity(decoded *Decoded, want int) error {
	if len(decoded.Operands) != want {
		return fmt.Errorf("%w: %v takes %d, got %d",
			ErrOperandArity, decoded.Op, want, len(decoded.Operands))
	}
	return nil
}

// decodeReg decodes "rd, rs, rt".
func (d *Decoder) decodeReg(decoded *Decoded) error {
	if err := checkArity(decoded, 3); err != nil {
		return err
	}

	regs := [3]Reg{}
	for i, operand := range decoded.Operands {
		r, err := ParseReg(operand)
		if err != nil {
			return err
		}
		regs[i] = r
	}

	decoded.Rd, decoded.Rs, decoded.Rt = regs[0], regs[1], regs[2]
	return nil
}

// decodeMem decodes "rt, offset(base)".
func (d *Decoder) decodeMem(decoded *Decoded) error {
	if err := checkArity(decoded, 2); err != nil {
		return err
	}

	rt, err := ParseReg(decoded.Operands[0])
	if err != nil {
		return err
	}

	offset, base, err := ParseMemOperand(decoded.Operands[1])
	if err != nil {
		return err
	}

	decoded.Rt = rt
	decoded.Offset = offset
	decoded.Base = base
	return nil
}

// ParseMemOperand parses an "offset(base)" operand such as "8($r0)" or
// "-4($r2)".
func ParseMemOperand(s string) (int64, Reg, error) {
	s = strings.TrimSpace(s)

	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadMemOperand, s)
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(s[:open]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad offset in %q", ErrBadMemOperand, s)
	}

	base, err := ParseReg(s[open+1 : len(s)-1])
	if err != nil {
		return 0, 0, err
	}

	return offset, base, nil
}
