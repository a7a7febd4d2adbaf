// Package vm provides the Vybium STARKs VM execution engine
package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// MaxCycleCount bounds a single run: the processor table's CLK column is a
// 32-bit counter, so execution beyond 2^32 cycles can never be arithmetized.
const MaxCycleCount = uint64(1) << 32

// VMState represents the complete state of the Vybium STARKs VM
// This Production implementation.
type VMState struct {
	// Program memory (read-only)
	Program *Program

	// Public I/O
	PublicInput  []field.Element // Input stream
	PublicOutput []field.Element // Output stream
	InputPointer int             // Current position in public input

	// Secret inputs (for prover)
	SecretInput   []field.Element   // Non-deterministic divine inputs
	SecretDigests [][5]field.Element // divine_sibling digests supplied by the prover
	SecretPointer int               // Current position in secret input
	DigestPointer int               // Current position in secret digests

	// Random Access Memory
	RAM      map[field.Element]field.Element // Address -> Value
	RAMCalls []RAMCall                       // Record all RAM operations for trace

	// Last RAM address/value touched (processor table's RAMP/RAMV columns)
	RAMPointer field.Element
	RAMValue   field.Element

	// Operational Stack (16 on-chip registers + underflow to RAM)
	Stack        []field.Element // Stack elements (st0 is top)
	StackPointer int             // Number of elements on stack

	// Jump Stack (for call/return)
	JumpStack []VMJumpStackEntry

	// Execution state
	CycleCount         uint64 // Total cycles executed
	InstructionPointer int    // Current instruction address

	// PreviousInstruction is the opcode executed on the prior cycle (0 at
	// the first cycle), mirrored into the processor table's PrevInstr column.
	PreviousInstruction Instruction
	HasPreviousInstruction bool

	// Sponge state for Poseidon hashing
	Sponge *PoseidonSponge

	// Halting state
	Halting bool

	// Co-processor calls (recorded during execution)
	CoProcessorCalls []CoProcessorCall
}

// VMJumpStackEntry represents an entry on the VM's jump stack
// (Different from the JumpStackEntry used in the JumpStack table)
type VMJumpStackEntry struct {
	Origin      int // Return address (where CALL was)
	Destination int // Target address (where we jumped to)
}

// RAMCall represents a RAM operation
type RAMCall struct {
	Clock   uint64
	IsWrite bool
	Address field.Element
	Value   field.Element
}

// CoProcessorCall represents a call to a coprocessor
type CoProcessorCall struct {
	Type CoProcessorType
	Data interface{} // Type-specific data
}

// CoProcessorType identifies which coprocessor was called
type CoProcessorType int

const (
	HashCoProcessor CoProcessorType = iota
	U32CoProcessor
	OpStackCoProcessor
	RAMCoProcessor
	SpongeResetCoProcessor
)

// PoseidonSponge represents the Poseidon sponge state
// This is our innovation - using Poseidon instead of Tip5!
type PoseidonSponge struct {
	State []field.Element // Full Poseidon state (16 elements)
	Rate  int             // Rate (how many elements absorbed/squeezed at once)
}

// NewVMState creates a new VM state with TIP-0006 program attestation
// Following Triton VM's approach: the operational stack is ALWAYS initialized with the program digest
func NewVMState(
	program *Program,
	publicInput []field.Element,
	secretInput []field.Element,
) *VMState {
	return NewVMStateWithDigests(program, publicInput, secretInput, nil)
}

// NewVMStateWithDigests is NewVMState plus the secret digest queue consumed
// by divine_sibling (one 5-element sibling digest per call).
func NewVMStateWithDigests(
	program *Program,
	publicInput []field.Element,
	secretInput []field.Element,
	secretDigests [][5]field.Element,
) *VMState {
	// TIP-0006: Compute program digest for attestation
	// This Production implementation.
	programDigest := computeProgramDigest(program)

	// Initialize stack with 16 zeros (on-chip registers)
	stack := make([]field.Element, 16)
	for i := 0; i < 16; i++ {
		stack[i] = field.Zero
	}

	// TIP-0006: Initialize stack with program digest (st0-st4)
	// Digest goes in reverse order: stack[0]=digest[4], ..., stack[4]=digest[0],
	// so the top of stack (st0) is digest[0] and st4 is digest[4]
	// This matches Triton: stack[..Digest::LEN].copy_from_slice(&reverse_digest)
	for i := 0; i < 5 && i < len(programDigest); i++ {
		stack[i] = programDigest[4-i]
	}

	// TIP-0006: Initialize public output with program digest
	// The first 5 elements of public output are the program digest in standard order
	publicOutput := make([]field.Element, 5)
	copy(publicOutput, programDigest[:])

	return &VMState{
		Program:            program,
		PublicInput:        publicInput,
		PublicOutput:       publicOutput,
		InputPointer:       0,
		SecretInput:        secretInput,
		SecretDigests:      secretDigests,
		SecretPointer:      0,
		DigestPointer:      0,
		RAM:                make(map[field.Element]field.Element),
		RAMCalls:           make([]RAMCall, 0),
		RAMPointer:         field.Zero,
		RAMValue:           field.Zero,
		Stack:              stack,
		StackPointer:       5, // TIP-0006: Stack initialized with 5 digest elements (matches Triton)
		JumpStack:          make([]VMJumpStackEntry, 0),
		CycleCount:         0,
		InstructionPointer: 0,
		HasPreviousInstruction: false,
		Sponge:             nil,
		Halting:            false,
		CoProcessorCalls:   make([]CoProcessorCall, 0),
	}
}

// Run executes the program until halt or error
func (vm *VMState) Run() error {
	for !vm.Halting {
		if err := vm.Step(); err != nil {
			return fmt.Errorf("execution failed at cycle %d, IP %d: %w",
				vm.CycleCount, vm.InstructionPointer, err)
		}
	}
	return nil
}

// Step executes one instruction
func (vm *VMState) Step() error {
	return vm.step(nil)
}

// step is the shared stepping core behind Step and ExecuteAndTrace. When
// recorder is non-nil, it records the pre-execution processor state and
// drains the coprocessor/RAM calls the instruction produced, so both entry
// points apply the same pre-check, execution, and post-check invariants.
func (vm *VMState) step(recorder *SimpleTraceRecorder) error {
	if vm.Halting {
		return fmt.Errorf("machine already halted")
	}
	if vm.CycleCount >= MaxCycleCount {
		return fmt.Errorf("cycle overflow: execution exceeded %d cycles", MaxCycleCount)
	}

	// Fetch instruction
	inst, err := vm.CurrentInstruction()
	if err != nil {
		return fmt.Errorf("failed to fetch instruction: %w", err)
	}

	// Check stack depth against the opcode's fixed shrink classification;
	// the real underflow guard for multi-element instructions (hash,
	// divine_sibling, ...) lives in each exec* handler, which pops precisely
	// as many elements as its semantics require.
	if inst.Instruction.ShrinksStack() && vm.StackPointer < 1 {
		return fmt.Errorf("stack underflow: %s requires at least 1 element, have %d: %w",
			inst.Instruction.String(), vm.StackPointer, ErrStackTooShallow)
	}

	preStackPointer := vm.StackPointer

	if recorder != nil {
		if err := recorder.RecordState(vm); err != nil {
			return fmt.Errorf("failed to record state at cycle %d: %w", vm.CycleCount, err)
		}
	}

	// Execute instruction (dispatch to handler)
	if err := vm.ExecuteInstruction(inst); err != nil {
		return fmt.Errorf("failed to execute %s: %w", inst.Instruction.String(), err)
	}

	if recorder != nil {
		if err := recorder.RecordCoProcessorCalls(vm); err != nil {
			return fmt.Errorf("failed to record coprocessor calls at cycle %d: %w", vm.CycleCount, err)
		}
		if err := recorder.RecordRAMCalls(vm); err != nil {
			return fmt.Errorf("failed to record RAM calls at cycle %d: %w", vm.CycleCount, err)
		}
	}

	// An instruction classified as not shrinking the stack (hash,
	// divine_sibling, absorb/squeeze, invert, ...) must never leave the
	// stack shallower than it found it; this is what caught hash silently
	// dropping 5 elements instead of padding them with zeros.
	if !inst.Instruction.ShrinksStack() && vm.StackPointer < preStackPointer {
		return fmt.Errorf("stack too shallow after %s: had %d elements, now have %d: %w",
			inst.Instruction.String(), preStackPointer, vm.StackPointer, ErrStackTooShallow)
	}

	vm.PreviousInstruction = inst.Instruction
	vm.HasPreviousInstruction = true
	vm.CycleCount++

	return nil
}

// CurrentInstruction fetches the current instruction
func (vm *VMState) CurrentInstruction() (*EncodedInstruction, error) {
	if vm.InstructionPointer < 0 || vm.InstructionPointer >= vm.Program.Length {
		return nil, fmt.Errorf("instruction pointer %d out of bounds (program length %d): %w",
			vm.InstructionPointer, vm.Program.Length, ErrIPOverflow)
	}

	// Get program words
	words := vm.Program.ToWords()

	// Decode instruction at current IP
	inst, err := DecodeInstruction(words, vm.InstructionPointer)
	if err != nil {
		return nil, fmt.Errorf("failed to decode instruction: %w", err)
	}

	return inst, nil
}

// ExecuteInstruction dispatches to the appropriate instruction handler
func (vm *VMState) ExecuteInstruction(inst *EncodedInstruction) error {
	// This is the main dispatch table - Production implementation.
	switch inst.Instruction {
	// Stack Manipulation
	case Pop:
		return vm.execPop()
	case Push:
		return vm.execPush(inst)
	case Divine:
		return vm.execDivine()
	case Dup:
		return vm.execDup(inst)
	case Swap:
		return vm.execSwap(inst)

	// Control Flow
	case Halt:
		return vm.execHalt()
	case Nop:
		return vm.execNop()
	case Skiz:
		return vm.execSkiz()
	case Call:
		return vm.execCall(inst)
	case Return:
		return vm.execReturn()
	case Recurse:
		return vm.execRecurse()
	case Assert:
		return vm.execAssert()

	// Memory Access
	case ReadMem:
		return vm.execReadMem()
	case WriteMem:
		return vm.execWriteMem()

	// Hashing (Poseidon!)
	case Hash:
		return vm.execHash()
	case AssertVector:
		return vm.execAssertVector()
	case DivineSibling:
		return vm.execDivineSibling()
	case AbsorbInit:
		return vm.execAbsorbInit()
	case Absorb:
		return vm.execAbsorb()
	case Squeeze:
		return vm.execSqueeze()

	// Base Field Arithmetic
	case Add:
		return vm.execAdd()
	case Mul:
		return vm.execMul()
	case Invert:
		return vm.execInvert()
	case Eq:
		return vm.execEq()

	// Bitwise Arithmetic (U32 coprocessor)
	case Split:
		return vm.execSplit()
	case Lt:
		return vm.execLt()
	case And:
		return vm.execAnd()
	case Xor:
		return vm.execXor()
	case Log2Floor:
		return vm.execLog2Floor()
	case Pow:
		return vm.execPow()
	case Div:
		return vm.execDiv()
	case PopCount:
		return vm.execPopCount()

	// Extension Field Arithmetic
	case XxAdd:
		return vm.execXxAdd()
	case XxMul:
		return vm.execXxMul()
	case XInvert:
		return vm.execXInvert()
	case XbMul:
		return vm.execXbMul()

	// I/O
	case ReadIo:
		return vm.execReadIo()
	case WriteIo:
		return vm.execWriteIo()

	default:
		return fmt.Errorf("unknown instruction: %d", inst.Instruction)
	}
}

// Stack access helpers

// Push value onto stack.
// When the stack pointer exceeds 16 (on-chip registers), values overflow to RAM.
// This Production implementation.
// and additional values are stored in RAM via underflow I/O operations.
func (vm *VMState) StackPush(value field.Element) error {
	if vm.StackPointer < 16 {
		// Store in on-chip register (stack array)
		vm.Stack[vm.StackPointer] = value
		vm.StackPointer++
		return nil
	}

	// Stack overflow: store in RAM
	// Use stack pointer as RAM address (offset from base address 0)
	// In Triton VM, underflow values are stored at addresses based on the overflow count
	ramAddress := field.New(uint64(vm.StackPointer - 16))

	// Store value in RAM
	if vm.RAM == nil {
		vm.RAM = make(map[field.Element]field.Element)
	}
	vm.RAM[ramAddress] = value

	// Record RAM operation for trace
	vm.RAMCalls = append(vm.RAMCalls, RAMCall{
		Clock:   vm.CycleCount,
		IsWrite: true,
		Address: ramAddress,
		Value:   value,
	})

	vm.StackPointer++
	return nil
}

// Pop value from stack.
// When popping from RAM (stack pointer > 16), values are read from RAM.
// This Production implementation.
func (vm *VMState) StackPop() (field.Element, error) {
	if vm.StackPointer <= 0 {
		return field.Zero, fmt.Errorf("stack underflow: %w", ErrStackTooShallow)
	}

	vm.StackPointer--

	if vm.StackPointer < 16 {
		// Pop from on-chip register
		value := vm.Stack[vm.StackPointer]
		vm.Stack[vm.StackPointer] = field.Zero // Clear for safety
		return value, nil
	}

	// Stack underflow: read from RAM
	// Use stack pointer as RAM address (offset from base address 0)
	ramAddress := field.New(uint64(vm.StackPointer - 16))

	// Read value from RAM
	if vm.RAM == nil {
		return field.Zero, fmt.Errorf("stack underflow: RAM not initialized")
	}

	value, exists := vm.RAM[ramAddress]
	if !exists {
		return field.Zero, fmt.Errorf("stack underflow: value not found in RAM at address %d", ramAddress.Value())
	}

	// Record RAM read operation for trace
	vm.RAMCalls = append(vm.RAMCalls, RAMCall{
		Clock:   vm.CycleCount,
		IsWrite: false,
		Address: ramAddress,
		Value:   value,
	})

	return value, nil
}

// Peek at stack element (0 = top)
func (vm *VMState) StackPeek(depth int) (field.Element, error) {
	if depth < 0 || depth >= vm.StackPointer {
		return field.Zero, fmt.Errorf("stack peek out of bounds: depth %d, size %d", depth, vm.StackPointer)
	}

	return vm.Stack[vm.StackPointer-1-depth], nil
}

// Set stack element (0 = top)
func (vm *VMState) StackSet(depth int, value field.Element) error {
	if depth < 0 || depth >= vm.StackPointer {
		return fmt.Errorf("stack set out of bounds: depth %d, size %d", depth, vm.StackPointer)
	}

	vm.Stack[vm.StackPointer-1-depth] = value
	return nil
}

// RAM access helpers

// Read from RAM
func (vm *VMState) RAMRead(address field.Element) field.Element {
	if value, exists := vm.RAM[address]; exists {
		// Record RAM read
		vm.RAMCalls = append(vm.RAMCalls, RAMCall{
			Clock:   vm.CycleCount,
			IsWrite: false,
			Address: address,
			Value:   value,
		})
		return value
	}

	// Uninitialized RAM returns zero
	zero := field.Zero
	vm.RAMCalls = append(vm.RAMCalls, RAMCall{
		Clock:   vm.CycleCount,
		IsWrite: false,
		Address: address,
		Value:   zero,
	})
	return zero
}

// Write to RAM
func (vm *VMState) RAMWrite(address field.Element, value field.Element) {
	vm.RAM[address] = value

	// Record RAM write
	vm.RAMCalls = append(vm.RAMCalls, RAMCall{
		Clock:   vm.CycleCount,
		IsWrite: true,
		Address: address,
		Value:   value,
	})
}

// IncrementIP advances the instruction pointer past the current instruction
func (vm *VMState) IncrementIP() error {
	inst, err := vm.CurrentInstruction()
	if err != nil {
		return err
	}

	vm.InstructionPointer += inst.Instruction.Size()
	return nil
}

// Execute executes the loaded program step by step
func (vm *VMState) Execute() error {
	for vm.InstructionPointer < len(vm.Program.Instructions) {
		// Fetch and execute current instruction
		inst, err := vm.CurrentInstruction()
		if err != nil {
			return fmt.Errorf("failed to fetch instruction at IP %d: %w", vm.InstructionPointer, err)
		}

		// Check for halt before execution
		if inst.Instruction == Halt {
			break
		}

		// Execute instruction
		if err := vm.ExecuteInstruction(inst); err != nil {
			return fmt.Errorf("execution failed at cycle %d, IP %d: %w",
				vm.CycleCount, vm.InstructionPointer, err)
		}

		// Increment cycle count
		vm.CycleCount++
	}
	return nil
}

// ExecuteAndTrace executes the loaded program and records the execution
// trace, returning the Algebraic Execution Trace (AET) for proof generation.
// It shares its stepping core with Step/Run, so the same pre/post stack
// invariants and PreviousInstruction bookkeeping apply whether or not a
// trace is being recorded.
func (vm *VMState) ExecuteAndTrace() (*AET, error) {
	recorder, err := NewSimpleTraceRecorder(vm.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace recorder: %w", err)
	}

	for !vm.Halting {
		if err := vm.step(recorder); err != nil {
			return nil, fmt.Errorf("execution failed at cycle %d, IP %d: %w",
				vm.CycleCount, vm.InstructionPointer, err)
		}
	}

	// Generate final AET (pad tables, compute auxiliary columns)
	aet, err := recorder.GenerateAET()
	if err != nil {
		return nil, fmt.Errorf("failed to generate AET: %w", err)
	}

	return aet, nil
}

// ===========================================================================
// TIP-0006: Program Attestation Helpers
// ===========================================================================

// computeProgramDigest computes the program's attestation digest (TIP-0006):
// each instruction contributes its opcode and argument (zero when absent) as
// two field elements, and the whole sequence is absorbed through the sponge
// permutation to produce a genuine 5-element digest.
func computeProgramDigest(program *Program) [5]field.Element {
	programElements := make([]field.Element, 0, len(program.Instructions)*2)
	for _, instr := range program.Instructions {
		programElements = append(programElements, field.New(uint64(instr.Instruction)))
		if instr.Argument != nil {
			programElements = append(programElements, *instr.Argument)
		} else {
			programElements = append(programElements, field.Zero)
		}
	}

	return poseidonDigest(programElements)
}
