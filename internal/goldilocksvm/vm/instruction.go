// Package vm implements the goldilocks-vm instruction set architecture
package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Instruction identifies one opcode in the fixed instruction set. Opcode
// values are load-bearing: the prover's constraint system decodes IB0..IB7
// directly from this integer, so they must never be renumbered.
type Instruction uint32

// Canonical opcodes. Bit 0 is set iff the instruction carries an immediate,
// bit 1 iff it shrinks the operand stack, bit 2 iff it is a u32 instruction.
const (
	Halt         Instruction = 0
	Push         Instruction = 1
	Pop          Instruction = 2
	Split        Instruction = 4
	Lt           Instruction = 6
	Divine       Instruction = 8
	Dup          Instruction = 9
	Skiz         Instruction = 10
	Log2Floor    Instruction = 12
	And          Instruction = 14
	Nop          Instruction = 16
	Swap         Instruction = 17
	Assert       Instruction = 18
	Div          Instruction = 20
	Xor          Instruction = 22
	Return       Instruction = 24
	Call         Instruction = 25
	WriteMem     Instruction = 26
	PopCount     Instruction = 28
	Pow          Instruction = 30
	Recurse      Instruction = 32
	Add          Instruction = 34
	ReadMem      Instruction = 40
	Mul          Instruction = 42
	Hash         Instruction = 48
	Eq           Instruction = 50
	DivineSibling Instruction = 56
	XbMul        Instruction = 58
	AssertVector Instruction = 64
	WriteIo      Instruction = 66
	AbsorbInit   Instruction = 72
	Absorb       Instruction = 80
	Squeeze      Instruction = 88
	Invert       Instruction = 96
	XxAdd        Instruction = 104
	XxMul        Instruction = 112
	XInvert      Instruction = 120
	ReadIo       Instruction = 128
)

// InstructionCount is the number of distinct opcodes in the ISA.
const InstructionCount = 38

// InstructionInfo carries the static, per-opcode metadata the stepper and
// table fillers both consult.
//
// StackDelta classifies the direction of an instruction's effect on operand
// stack depth (-1/0/+1), matching ShrinksStack exactly. A few instructions
// that move a whole digest or extension-field element at once (hash,
// divine_sibling, xx_add, xx_mul, absorb/absorb_init/squeeze) touch more than
// one physical Fe slot; for those StackDelta records the classification sign
// used by the AIR's single shrink/grow predicate, while the true magnitude is
// whatever the instruction's own exec routine produces on the stack (and is
// what OSP/OSV track in the processor table). Real Triton VM has the same
// asymmetry — its own divine_sibling and hash deltas are not unit magnitude
// either.
type InstructionInfo struct {
	Opcode        Instruction
	Name          string
	Size          int
	HasArg        bool
	ShrinksStack  bool
	IsU32         bool
	StackDelta    int
}

// AllInstructions enumerates every opcode's static metadata.
var AllInstructions = map[Instruction]InstructionInfo{
	Halt:          {Halt, "halt", 1, false, false, false, 0},
	Push:          {Push, "push", 2, true, false, false, 1},
	Pop:           {Pop, "pop", 1, false, true, false, -1},
	Split:         {Split, "split", 1, false, false, true, 1},
	Lt:            {Lt, "lt", 1, false, true, true, -1},
	Divine:        {Divine, "divine", 1, false, false, false, 1},
	Dup:           {Dup, "dup", 2, true, false, false, 1},
	Skiz:          {Skiz, "skiz", 1, false, true, false, -1},
	Log2Floor:     {Log2Floor, "log_2_floor", 1, false, false, true, 0},
	And:           {And, "and", 1, false, true, true, -1},
	Nop:           {Nop, "nop", 1, false, false, false, 0},
	Swap:          {Swap, "swap", 2, true, false, false, 0},
	Assert:        {Assert, "assert", 1, false, true, false, -1},
	Div:           {Div, "div", 1, false, false, true, 0},
	Xor:           {Xor, "xor", 1, false, true, true, -1},
	Return:        {Return, "return", 1, false, false, false, 0},
	Call:          {Call, "call", 2, true, false, false, 0},
	WriteMem:      {WriteMem, "write_mem", 1, false, true, false, -1},
	PopCount:      {PopCount, "pop_count", 1, false, false, true, 0},
	Pow:           {Pow, "pow", 1, false, true, true, -1},
	Recurse:       {Recurse, "recurse", 1, false, false, false, 0},
	Add:           {Add, "add", 1, false, true, false, -1},
	ReadMem:       {ReadMem, "read_mem", 1, false, false, false, 1},
	Mul:           {Mul, "mul", 1, false, true, false, -1},
	Hash:          {Hash, "hash", 1, false, false, false, 0},
	Eq:            {Eq, "eq", 1, false, true, false, -1},
	DivineSibling: {DivineSibling, "divine_sibling", 1, false, false, false, 1},
	XbMul:         {XbMul, "xb_mul", 1, false, true, false, -1},
	AssertVector:  {AssertVector, "assert_vector", 1, false, false, false, 0},
	WriteIo:       {WriteIo, "write_io", 1, false, true, false, -1},
	AbsorbInit:    {AbsorbInit, "absorb_init", 1, false, false, false, 0},
	Absorb:        {Absorb, "absorb", 1, false, false, false, 0},
	Squeeze:       {Squeeze, "squeeze", 1, false, false, false, 0},
	Invert:        {Invert, "invert", 1, false, false, false, 0},
	XxAdd:         {XxAdd, "xx_add", 1, false, false, false, 0},
	XxMul:         {XxMul, "xx_mul", 1, false, false, false, 0},
	XInvert:       {XInvert, "x_invert", 1, false, false, false, 0},
	ReadIo:        {ReadIo, "read_io", 1, false, false, false, 1},
}

// nameToInstruction is the inverse of AllInstructions' Name field, built once.
var nameToInstruction = func() map[string]Instruction {
	m := make(map[string]Instruction, len(AllInstructions))
	for op, info := range AllInstructions {
		m[info.Name] = op
	}
	return m
}()

// InstructionByName looks up an opcode by its canonical mnemonic.
func InstructionByName(name string) (Instruction, error) {
	if op, ok := nameToInstruction[name]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("unknown instruction mnemonic: %s", name)
}

func (i Instruction) String() string {
	if info, ok := AllInstructions[i]; ok {
		return info.Name
	}
	return fmt.Sprintf("unknown(%d)", i)
}

// Info returns the static metadata for i, or an error if i is not a member
// of the fixed opcode set.
func (i Instruction) Info() (InstructionInfo, error) {
	info, ok := AllInstructions[i]
	if !ok {
		return InstructionInfo{}, fmt.Errorf("unknown opcode: %d", i)
	}
	return info, nil
}

// Size returns 2 if the instruction carries an immediate, else 1.
func (i Instruction) Size() int {
	if info, ok := AllInstructions[i]; ok {
		return info.Size
	}
	return 1
}

// HasArgument reports whether bit 0 of the opcode is set.
func (i Instruction) HasArgument() bool {
	return uint32(i)&1 == 1
}

// ShrinksStack reports whether bit 1 of the opcode is set.
func (i Instruction) ShrinksStack() bool {
	return uint32(i)&2 == 2
}

// IsU32 reports whether bit 2 of the opcode is set.
func (i Instruction) IsU32() bool {
	return uint32(i)&4 == 4
}

// StackDelta returns the fixed per-opcode stack-depth classification.
func (i Instruction) StackDelta() int {
	if info, ok := AllInstructions[i]; ok {
		return info.StackDelta
	}
	return 0
}

// InstructionBit indexes one of the eight decoding bits the AIR reads off
// the opcode (IB0 = has-arg ... IB7, the top bit of an 8-bit opcode space).
type InstructionBit uint8

const (
	IB0 InstructionBit = 0
	IB1 InstructionBit = 1
	IB2 InstructionBit = 2
	IB3 InstructionBit = 3
	IB4 InstructionBit = 4
	IB5 InstructionBit = 5
	IB6 InstructionBit = 6
	IB7 InstructionBit = 7
)

// NumInstructionBits is the width of the opcode's bit decomposition.
const NumInstructionBits = 8

// GetInstructionBit extracts bit `bit` of the opcode. bit must be in 0..8;
// indices at or beyond NumInstructionBits reject.
func (i Instruction) GetInstructionBit(bit InstructionBit) (uint32, error) {
	if bit >= NumInstructionBits {
		return 0, fmt.Errorf("instruction bit index %d out of range [0,%d)", bit, NumInstructionBits)
	}
	return (uint32(i) >> uint(bit)) & 1, nil
}

// EncodedInstruction pairs an opcode with its (optional) immediate as it
// appears in program memory.
type EncodedInstruction struct {
	Instruction Instruction
	Argument    *field.Element
}

// NewEncodedInstruction validates arg-presence against the opcode's HasArg
// bit before constructing the pair.
func NewEncodedInstruction(inst Instruction, arg *field.Element) (*EncodedInstruction, error) {
	info, err := inst.Info()
	if err != nil {
		return nil, err
	}
	if info.HasArg && arg == nil {
		return nil, fmt.Errorf("instruction %s requires an argument", inst.String())
	}
	if !info.HasArg && arg != nil {
		return nil, fmt.Errorf("instruction %s does not take an argument", inst.String())
	}
	return &EncodedInstruction{Instruction: inst, Argument: arg}, nil
}

// Words renders the instruction as the field elements it occupies in program
// memory (one word, or two if it carries an immediate).
func (ei *EncodedInstruction) Words() []field.Element {
	if ei.Instruction.Size() == 1 {
		return []field.Element{field.New(uint64(ei.Instruction))}
	}
	if ei.Argument == nil {
		return []field.Element{field.New(uint64(ei.Instruction)), field.Zero}
	}
	return []field.Element{field.New(uint64(ei.Instruction)), *ei.Argument}
}

// DecodeInstruction reads one instruction (and its immediate, if any) out of
// a flat program-memory word array starting at offset.
func DecodeInstruction(words []field.Element, offset int) (*EncodedInstruction, error) {
	if offset < 0 || offset >= len(words) {
		return nil, fmt.Errorf("offset %d out of bounds", offset)
	}

	opcode := Instruction(words[offset].Value())
	info, err := opcode.Info()
	if err != nil {
		return nil, fmt.Errorf("unknown opcode %d: %w", opcode, ErrUnknownOpcode)
	}

	var arg *field.Element
	if info.HasArg {
		if offset+1 >= len(words) {
			return nil, fmt.Errorf("instruction %s requires argument but none found", opcode.String())
		}
		arg = &words[offset+1]
	}

	return NewEncodedInstruction(opcode, arg)
}

// Program is an ordered sequence of encoded instructions. Call addresses in
// Argument are absolute word offsets into Instructions after label
// resolution; the core never sees label strings.
type Program struct {
	Instructions []*EncodedInstruction
	Length       int // total words
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{Instructions: make([]*EncodedInstruction, 0), Length: 0}
}

// AddInstruction appends inst, tracking the cumulative word length.
func (p *Program) AddInstruction(inst *EncodedInstruction) {
	p.Instructions = append(p.Instructions, inst)
	p.Length += inst.Instruction.Size()
}

// ToWords flattens the program into the word array the VM steps over.
func (p *Program) ToWords() []field.Element {
	words := make([]field.Element, 0, p.Length)
	for _, inst := range p.Instructions {
		words = append(words, inst.Words()...)
	}
	return words
}

// ValidateProgram rejects programs that cannot possibly terminate lawfully:
// an empty instruction list, or one that doesn't end in halt. (A program
// that never reaches its trailing halt still fails at simulate-time with
// IPOverflow; this check only catches the construction-time equivalent.)
func ValidateProgram(program *Program) error {
	if len(program.Instructions) == 0 {
		return fmt.Errorf("empty program")
	}
	last := program.Instructions[len(program.Instructions)-1]
	if last.Instruction != Halt {
		return fmt.Errorf("program must end with halt instruction")
	}
	return nil
}
