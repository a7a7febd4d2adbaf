package goldilocksvm

import (
	"errors"
	"math/big"

	"github.com/vybium/goldilocks-vm/internal/goldilocksvm/core"
	"github.com/vybium/goldilocks-vm/internal/goldilocksvm/protocols"
	"github.com/vybium/goldilocks-vm/internal/goldilocksvm/vm"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// goldilocksModulus is the Goldilocks prime p = 2^64 - 2^32 + 1. pub_in_u64 /
// sec_in_u64 words given to ProveProgram must each be strictly smaller than
// this to be canonical field elements; field.New silently reduces out-of-range
// words, which would desynchronize the claim from what the caller intended.
const goldilocksModulus uint64 = 18446744069414584321

// defaultMaxCycles bounds Debug/DebugTerminalState when the caller passes 0,
// matching the processor table's 32-bit clock column.
const defaultMaxCycles = vm.MaxCycleCount

// VM is the public interface for the Vybium STARKs VM
type VM interface {
	// Execute runs a program on the VM and returns the execution trace
	Execute(program *Program, publicInput []*FieldElement, secretInput []*FieldElement) (*ExecutionTrace, error)

	// GetState returns the current VM state
	GetState() *VMState
}

// VMState represents the current state of the VM (read-only)
type VMState struct {
	// Instruction pointer
	InstructionPointer int

	// Stack pointer
	StackPointer int

	// Cycle count
	CycleCount int

	// Halted flag
	Halted bool

	// Public output
	PublicOutput []*FieldElement
}

// vmImpl is the internal implementation of VM
type vmImpl struct {
	field   *core.Field
	config  *VMConfig
	vmState *vm.VMState
	program *vm.Program
}

// NewVM creates a new Vybium STARKs VM with the given configuration
func NewVM(config *VMConfig) (VM, error) {
	// Parse field modulus
	modulus := new(big.Int)
	if _, ok := modulus.SetString(config.FieldModulus, 10); !ok {
		return nil, &VMError{
			Code:    ErrInvalidConfig,
			Message: "invalid field modulus",
		}
	}

	// Create field
	field, err := core.NewField(modulus)
	if err != nil {
		return nil, &VMError{
			Code:    ErrFieldCreation,
			Message: "failed to create field: " + err.Error(),
		}
	}

	return &vmImpl{
		field:  field,
		config: config,
	}, nil
}

// convertToInternal converts public field elements to internal format
func convertToInternal(elems []*FieldElement) []field.Element {
	result := make([]field.Element, len(elems))
	for i, e := range elems {
		if e != nil {
			// Use Big() to get the big.Int value, then convert to uint64
			result[i] = field.New(e.Big().Uint64())
		}
	}
	return result
}

// convertFromInternal converts internal field elements to public format
func (v *vmImpl) convertFromInternal(elems []field.Element) []*FieldElement {
	result := make([]*FieldElement, len(elems))
	for i, e := range elems {
		// Convert field.Element to core.FieldElement via big.Int
		bigVal := new(big.Int).SetUint64(e.Value())
		result[i] = v.field.NewElement(bigVal)
	}
	return result
}

// Execute runs a program on the VM and returns the execution trace
func (v *vmImpl) Execute(program *Program, publicInput []*FieldElement, secretInput []*FieldElement) (*ExecutionTrace, error) {
	// Convert public Program to internal vm.Program (no longer needs field)
	internalProgram := vm.NewProgram()

	for _, inst := range program.Instructions {
		// Convert instruction to internal format
		var arg *field.Element
		if inst.Argument != nil {
			elem := field.New(inst.Argument.Big().Uint64())
			arg = &elem
		}
		internalInst := &vm.EncodedInstruction{
			Instruction: vm.Instruction(inst.Opcode),
			Argument:    arg,
		}
		internalProgram.AddInstruction(internalInst)
	}

	// Convert inputs to internal format
	internalPublicInput := convertToInternal(publicInput)
	internalSecretInput := convertToInternal(secretInput)

	// Create VM state (signature: program, publicInput, secretInput)
	v.vmState = vm.NewVMState(internalProgram, internalPublicInput, internalSecretInput)
	v.program = internalProgram

	// Execute the program and generate trace
	aet, err := v.vmState.ExecuteAndTrace()
	if err != nil {
		return nil, wrapVMError(err, v.vmState)
	}

	// Build execution trace with internal AET
	trace := &ExecutionTrace{
		PublicInput:  publicInput,
		PublicOutput: v.convertFromInternal(v.vmState.PublicOutput),
		CycleCount:   int(v.vmState.CycleCount),
		internalAET:  aet, // Store for proof generation
	}

	return trace, nil
}

// GetState returns the current VM state
func (v *vmImpl) GetState() *VMState {
	if v.vmState == nil {
		return &VMState{}
	}

	return &VMState{
		InstructionPointer: v.vmState.InstructionPointer,
		StackPointer:       v.vmState.StackPointer,
		CycleCount:         int(v.vmState.CycleCount),
		Halted:             v.vmState.Halting,
		PublicOutput:       v.convertFromInternal(v.vmState.PublicOutput),
	}
}

// buildInternalProgram converts a public Program to the internal encoded form.
func buildInternalProgram(program *Program) *vm.Program {
	internalProgram := vm.NewProgram()
	for _, inst := range program.Instructions {
		var arg *field.Element
		if inst.Argument != nil {
			elem := field.New(inst.Argument.Big().Uint64())
			arg = &elem
		}
		internalProgram.AddInstruction(&vm.EncodedInstruction{
			Instruction: vm.Instruction(inst.Opcode),
			Argument:    arg,
		})
	}
	return internalProgram
}

// goldilocksField returns a *core.Field over the Goldilocks prime, used to
// convert internal field.Element values back to the public FieldElement type
// outside of a vmImpl instance.
func goldilocksField() (*core.Field, error) {
	modulus := new(big.Int).SetUint64(goldilocksModulus)
	return core.NewField(modulus)
}

// elementsFromInternal converts internal field elements to the public type
// using an explicit field, for call sites that aren't bound to a vmImpl.
func elementsFromInternal(f *core.Field, elems []field.Element) []*FieldElement {
	result := make([]*FieldElement, len(elems))
	for i, e := range elems {
		result[i] = f.NewElement(new(big.Int).SetUint64(e.Value()))
	}
	return result
}

// snapshotVMState captures a read-only copy of an in-flight internal VM
// state, matching the shape GetState() exposes after a completed Execute.
func snapshotVMState(f *core.Field, state *vm.VMState) *VMState {
	return &VMState{
		InstructionPointer: state.InstructionPointer,
		StackPointer:       state.StackPointer,
		CycleCount:         int(state.CycleCount),
		Halted:             state.Halting,
		PublicOutput:       elementsFromInternal(f, state.PublicOutput),
	}
}

// vmErrorCode classifies an internal execution error against the vm
// package's sentinel errors, falling back to ErrVMExecution when the cause
// doesn't match any of the taxonomy's known failure modes (e.g. a plain
// "machine already halted" or a decode-offset-out-of-bounds error).
func vmErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, vm.ErrStackTooShallow):
		return ErrStackTooShallow
	case errors.Is(err, vm.ErrFailedU32Conversion):
		return ErrFailedU32Conversion
	case errors.Is(err, vm.ErrInverseOfZero):
		return ErrInverseOfZero
	case errors.Is(err, vm.ErrLogOfZero):
		return ErrLogOfZero
	case errors.Is(err, vm.ErrDivisionByZero):
		return ErrDivisionByZero
	case errors.Is(err, vm.ErrAssertionFailed):
		return ErrAssertionFailed
	case errors.Is(err, vm.ErrJumpStackEmpty):
		return ErrJumpStackEmpty
	case errors.Is(err, vm.ErrIPOverflow):
		return ErrIPOverflow
	case errors.Is(err, vm.ErrEmptyPublicInput):
		return ErrEmptyPublicInput
	case errors.Is(err, vm.ErrEmptySecretInput):
		return ErrEmptySecretInput
	case errors.Is(err, vm.ErrUnknownOpcode):
		return ErrUnknownOpcode
	default:
		return ErrVMExecution
	}
}

// wrapVMError annotates an internal execution error with the cycle and
// instruction pointer the machine was at when it failed, and classifies it
// against the taxonomy in errors.go so callers can distinguish, say,
// AssertionFailed from a plain execution fault via VMError.Code.
func wrapVMError(err error, state *vm.VMState) *VMError {
	return &VMError{
		Code:    vmErrorCode(err),
		Message: "VM execution failed: " + err.Error(),
		Cause:   err,
		IP:      state.InstructionPointer,
		Cycle:   state.CycleCount,
	}
}

// Simulate runs a program to completion (or until it errors), returning both
// the full algebraic execution trace and the program's public output (the
// words written by write_io, without the program digest the VM state keeps
// at the head of its output list).
func Simulate(program *Program, publicInput, secretInput []*FieldElement) (*ExecutionTrace, []*FieldElement, error) {
	f, err := goldilocksField()
	if err != nil {
		return nil, nil, &VMError{Code: ErrFieldCreation, Message: "failed to create field: " + err.Error()}
	}

	internalProgram := buildInternalProgram(program)
	internalPublicInput := convertToInternal(publicInput)
	internalSecretInput := convertToInternal(secretInput)

	state := vm.NewVMState(internalProgram, internalPublicInput, internalSecretInput)

	aet, err := state.ExecuteAndTrace()
	if err != nil {
		return nil, nil, wrapVMError(err, state)
	}

	publicOutput := elementsFromInternal(f, state.PublicOutput[5:])
	trace := &ExecutionTrace{
		PublicInput:  publicInput,
		PublicOutput: publicOutput,
		CycleCount:   int(state.CycleCount),
		internalAET:  aet,
	}

	return trace, publicOutput, nil
}

// Run is Simulate with the trace discarded, returning only the public output.
func Run(program *Program, publicInput, secretInput []*FieldElement) ([]*FieldElement, error) {
	_, publicOutput, err := Simulate(program, publicInput, secretInput)
	return publicOutput, err
}

// Debug runs a program step by step, snapshotting the VM state before every
// step. It never aborts early: an execution error is caught and returned
// alongside every snapshot collected up to that point, rather than
// propagated. maxCycles of 0 uses the processor table's 32-bit clock bound.
func Debug(program *Program, publicInput, secretInput []*FieldElement, maxCycles uint64) ([]*VMState, error) {
	f, err := goldilocksField()
	if err != nil {
		return nil, &VMError{Code: ErrFieldCreation, Message: "failed to create field: " + err.Error()}
	}
	if maxCycles == 0 {
		maxCycles = defaultMaxCycles
	}

	internalProgram := buildInternalProgram(program)
	state := vm.NewVMState(internalProgram, convertToInternal(publicInput), convertToInternal(secretInput))

	states := make([]*VMState, 0)
	for !state.Halting {
		states = append(states, snapshotVMState(f, state))

		if state.CycleCount >= maxCycles {
			return states, &VMError{
				Code:    ErrCycleOverflow,
				Message: "execution exceeded maximum cycle bound",
				IP:      state.InstructionPointer,
				Cycle:   state.CycleCount,
			}
		}

		if err := state.Step(); err != nil {
			return states, wrapVMError(err, state)
		}
	}
	states = append(states, snapshotVMState(f, state))

	return states, nil
}

// DebugTerminalState runs a program step by step and returns the last
// internally-consistent state: the halted state on success, or the state as
// it stood immediately before the failing step, paired with that error.
func DebugTerminalState(program *Program, publicInput, secretInput []*FieldElement, maxCycles uint64) (*VMState, error) {
	f, err := goldilocksField()
	if err != nil {
		return nil, &VMError{Code: ErrFieldCreation, Message: "failed to create field: " + err.Error()}
	}
	if maxCycles == 0 {
		maxCycles = defaultMaxCycles
	}

	internalProgram := buildInternalProgram(program)
	state := vm.NewVMState(internalProgram, convertToInternal(publicInput), convertToInternal(secretInput))

	last := snapshotVMState(f, state)
	for !state.Halting {
		if state.CycleCount >= maxCycles {
			return last, &VMError{
				Code:    ErrCycleOverflow,
				Message: "execution exceeded maximum cycle bound",
				IP:      state.InstructionPointer,
				Cycle:   state.CycleCount,
			}
		}

		if err := state.Step(); err != nil {
			return last, wrapVMError(err, state)
		}
		last = snapshotVMState(f, state)
	}

	return last, nil
}

// ProveProgram validates that every input word is a canonical field element,
// executes the program to build its algebraic execution trace, and delegates
// proof generation to the STARK backend under the default parameters.
func ProveProgram(program *Program, pubInU64, secInU64 []uint64) (Params, *Claim, *Proof, error) {
	for _, w := range pubInU64 {
		if w >= goldilocksModulus {
			return Params{}, nil, nil, &VMError{Code: ErrInvalidInput, Message: "public input word is not a canonical field element"}
		}
	}
	for _, w := range secInU64 {
		if w >= goldilocksModulus {
			return Params{}, nil, nil, &VMError{Code: ErrInvalidInput, Message: "secret input word is not a canonical field element"}
		}
	}

	internalProgram := buildInternalProgram(program)

	internalPublicInput := make([]field.Element, len(pubInU64))
	for i, w := range pubInU64 {
		internalPublicInput[i] = field.New(w)
	}
	internalSecretInput := make([]field.Element, len(secInU64))
	for i, w := range secInU64 {
		internalSecretInput[i] = field.New(w)
	}

	state := vm.NewVMState(internalProgram, internalPublicInput, internalSecretInput)
	aet, err := state.ExecuteAndTrace()
	if err != nil {
		return Params{}, nil, nil, wrapVMError(err, state)
	}

	claim := protocols.NewClaim(aet.GetProgramDigest()).
		WithInput(internalPublicInput).
		WithOutput(state.PublicOutput)

	params := protocols.DefaultSTARKParameters()
	prover, err := protocols.NewProver(params)
	if err != nil {
		return params, claim, nil, &VMError{Code: ErrProofGeneration, Message: "failed to create prover: " + err.Error(), Cause: err}
	}

	proof, err := prover.Prove(claim, aet)
	if err != nil {
		return params, claim, nil, &VMError{Code: ErrProofGeneration, Message: "proof generation failed: " + err.Error(), Cause: err}
	}

	return params, claim, proof, nil
}

// Verify checks a proof against a claim under the given STARK parameters,
// collapsing the verifier's detailed error into the boolean the driver
// contract expects.
func Verify(params Params, claim *Claim, proof *Proof) bool {
	f, err := goldilocksField()
	if err != nil {
		return false
	}
	verifier, err := protocols.NewVerifier(f, params)
	if err != nil {
		return false
	}
	return verifier.Verify(claim, proof) == nil
}

// DefaultVMConfig returns a default VM configuration
// Uses Goldilocks field for efficient arithmetic operations
func DefaultVMConfig() *VMConfig {
	return &VMConfig{
		FieldModulus:       "18446744069414584321", // Goldilocks: 2^64 - 2^32 + 1
		ProgramAttestation: true,                   // TIP-0006 enabled
		PermutationChecks:  true,                   // TIP-0007 enabled
		LookupTables:       true,                   // TIP-0005 enabled
	}
}
