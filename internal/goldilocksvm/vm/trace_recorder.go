package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// SimpleTraceRecorder records one processor row per cycle plus the
// coprocessor rows (hash, u32, RAM, jump stack, op stack, program, program
// hash) those cycles generate.
type SimpleTraceRecorder struct {
	aet        *AET
	cycleCount uint64

	// Drain positions into vm.CoProcessorCalls / vm.RAMCalls: RecordState is
	// called once per cycle, but those slices accumulate across the whole
	// run, so each call only converts the entries appended since the last one.
	nextCoProcCall int
	nextRAMCall    int
}

// NewSimpleTraceRecorder creates a new simple trace recorder
func NewSimpleTraceRecorder(program *Program) (*SimpleTraceRecorder, error) {
	if program == nil {
		return nil, fmt.Errorf("program cannot be nil")
	}

	aet, err := NewAET(program)
	if err != nil {
		return nil, fmt.Errorf("failed to create AET: %w", err)
	}

	return &SimpleTraceRecorder{
		aet:        aet,
		cycleCount: 0,
	}, nil
}

// RecordState records the VM state before instruction execution
func (str *SimpleTraceRecorder) RecordState(vm *VMState) error {
	// Track instruction multiplicity
	if vm.InstructionPointer < len(str.aet.InstructionMultiplicities) {
		str.aet.InstructionMultiplicities[vm.InstructionPointer]++
	}

	// Record processor state
	if err := str.recordProcessorState(vm); err != nil {
		return err
	}

	str.cycleCount++
	return nil
}

// RecordCoProcessorCalls converts every CoProcessorCall appended since the
// last drain into rows on the table that call's operation targets (hash,
// u32). Must run after ExecuteInstruction, since that's when new calls land.
func (str *SimpleTraceRecorder) RecordCoProcessorCalls(vm *VMState) error {
	for ; str.nextCoProcCall < len(vm.CoProcessorCalls); str.nextCoProcCall++ {
		call := vm.CoProcessorCalls[str.nextCoProcCall]
		data, ok := call.Data.(map[string]interface{})
		if !ok {
			continue
		}

		switch call.Type {
		case HashCoProcessor:
			if err := str.recordHashSteps(data); err != nil {
				return err
			}
		case U32CoProcessor:
			if err := str.recordU32Call(data); err != nil {
				return err
			}
		}
	}
	return nil
}

// recordHashSteps drains a hash coprocessor call's permute steps (pre-state
// and post-state snapshots) into the hash table. Real Poseidon has 8 full
// rounds followed by 83 partial rounds per permutation; poseidonPermute is a
// black box with no exposed per-round structure, so only the two endpoints of
// each permute call are recorded, tagged full-round (pre) and partial-round
// (post) respectively. divine_sibling carries no "steps" key since it
// performs no hashing itself.
func (str *SimpleTraceRecorder) recordHashSteps(data map[string]interface{}) error {
	rawSteps, ok := data["steps"].([]permuteStep)
	if !ok {
		return nil
	}
	for _, step := range rawSteps {
		pre, err := NewHashEntry(step.before[:], field.Zero, true, false)
		if err != nil {
			return fmt.Errorf("failed to build hash table pre-row: %w", err)
		}
		if err := str.aet.HashTable.AddRow(pre); err != nil {
			return fmt.Errorf("failed to add hash table pre-row: %w", err)
		}
		post, err := NewHashEntry(step.after[:], field.One, false, true)
		if err != nil {
			return fmt.Errorf("failed to build hash table post-row: %w", err)
		}
		if err := str.aet.HashTable.AddRow(post); err != nil {
			return fmt.Errorf("failed to add hash table post-row: %w", err)
		}
	}
	return nil
}

// recordU32Call drains an `and`- or `lt`-tagged u32 coprocessor call into the
// u32 table. split/log2_floor/pow/div/pop_count are intentionally out of
// scope here: faithfully encoding them needs a per-bit decomposition row
// chain (Triton's iterative-halving CopyFlag/Bits countdown), which this
// single-row-per-call pass does not attempt.
func (str *SimpleTraceRecorder) recordU32Call(data map[string]interface{}) error {
	op, _ := data["operation"].(string)

	switch op {
	case "and":
		lhs, _ := data["lhs"].(uint32)
		rhs, _ := data["rhs"].(uint32)
		result, _ := data["result"].(uint32)
		entry := newU32EntryFromCall(And, lhs, rhs, result)
		if err := str.aet.U32Table.AddRow(entry); err != nil {
			return fmt.Errorf("failed to add u32 table row (and): %w", err)
		}
	case "lt":
		lhs, _ := data["lhs"].(uint32)
		rhs, _ := data["rhs"].(uint32)
		result := uint32(0)
		if b, _ := data["result"].(bool); b {
			result = 1
		}
		entry := newU32EntryFromCall(Lt, lhs, rhs, result)
		if err := str.aet.U32Table.AddRow(entry); err != nil {
			return fmt.Errorf("failed to add u32 table row (lt): %w", err)
		}
	}
	return nil
}

// RecordRAMCalls converts every RAMCall appended since the last drain into
// RAM table rows. Must run after ExecuteInstruction, for the same reason as
// RecordCoProcessorCalls.
func (str *SimpleTraceRecorder) RecordRAMCalls(vm *VMState) error {
	for ; str.nextRAMCall < len(vm.RAMCalls); str.nextRAMCall++ {
		call := vm.RAMCalls[str.nextRAMCall]
		instrType := field.New(RAMInstructionRead)
		if call.IsWrite {
			instrType = field.New(RAMInstructionWrite)
		}
		entry, err := NewRAMEntry(field.New(call.Clock), instrType, call.Address, call.Value)
		if err != nil {
			return fmt.Errorf("failed to build ram table row: %w", err)
		}
		if err := str.aet.RAMTable.AddRow(entry); err != nil {
			return fmt.Errorf("failed to add ram table row: %w", err)
		}
	}
	return nil
}

// recordProcessorState records the processor state to the processor table
func (str *SimpleTraceRecorder) recordProcessorState(vm *VMState) error {
	// Get current instruction (InstructionPointer is a word address)
	words := vm.Program.ToWords()
	var currentInst Instruction = Nop
	// Next instruction or argument: the word after the opcode (its immediate,
	// or the next opcode), 1 past the program's last word, 0 out of range.
	nia := field.Zero
	if vm.InstructionPointer >= 0 && vm.InstructionPointer < len(words) {
		currentInst = Instruction(words[vm.InstructionPointer].Value())
		nia = field.One
		if vm.InstructionPointer+1 < len(words) {
			nia = words[vm.InstructionPointer+1]
		}
	}

	// Full 8-bit instruction decoding
	var ibits [NumInstructionBits]field.Element
	for b := InstructionBit(0); b < NumInstructionBits; b++ {
		bit, _ := currentInst.GetInstructionBit(b)
		ibits[b] = field.New(uint64(bit))
	}

	prevInstr := field.Zero
	if vm.HasPreviousInstruction {
		prevInstr = field.New(uint64(vm.PreviousInstruction))
	}

	// Jump stack values
	jsp := field.New(uint64(len(vm.JumpStack)))
	jso := field.Zero
	jsd := field.Zero
	if len(vm.JumpStack) > 0 {
		top := vm.JumpStack[len(vm.JumpStack)-1]
		jso = field.New(uint64(top.Origin))
		jsd = field.New(uint64(top.Destination))
	}

	// Stack (top 16 elements)
	stack := make([]field.Element, 16)
	for i := 0; i < 16; i++ {
		if i < len(vm.Stack) {
			stack[i] = vm.Stack[len(vm.Stack)-1-i]
		} else {
			stack[i] = field.Zero
		}
	}

	// Operand stack pointer/value: the 17th-and-beyond slot lives in RAM,
	// so OSP/OSV track the address and value of that underflow boundary.
	osp := field.New(uint64(vm.StackPointer))
	osv := field.Zero
	if vm.StackPointer > 16 {
		if val, ok := vm.RAM[field.New(uint64(vm.StackPointer-16-1))]; ok {
			osv = val
		}
	}

	// Create processor state
	state := &ProcessorState{
		Clock:                field.New(vm.CycleCount),
		PreviousInstruction:  prevInstr,
		InstructionPointer:   field.New(uint64(vm.InstructionPointer)),
		CurrentInstruction:   field.New(uint64(currentInst)),
		NextInstructionOrArg: nia,
		InstructionBits:      ibits,
		JumpStackPointer:     jsp,
		JumpStackOrigin:      jso,
		JumpStackDestination: jsd,
		Stack:                stack,
		OperandStackPointer:  osp,
		OperandStackValue:    osv,
		RAMPointer:           vm.RAMPointer,
		RAMValue:             vm.RAMValue,
	}

	if err := str.aet.ProcessorTable.AddRow(state); err != nil {
		return err
	}

	jsEntry, err := NewJumpStackEntry(field.New(vm.CycleCount), field.New(uint64(currentInst)), jsp, jso, jsd)
	if err != nil {
		return fmt.Errorf("failed to build jump stack table row: %w", err)
	}
	if err := str.aet.JumpStackTable.AddRow(jsEntry); err != nil {
		return fmt.Errorf("failed to add jump stack table row: %w", err)
	}

	ib1ShrinkStack := field.Zero
	if currentInst.ShrinksStack() {
		ib1ShrinkStack = field.One
	}
	osEntry, err := NewOpStackEntry(field.New(vm.CycleCount), ib1ShrinkStack, osp, osv)
	if err != nil {
		return fmt.Errorf("failed to build op stack table row: %w", err)
	}
	return str.aet.OpStackTable.AddRow(osEntry)
}

// GenerateAET finalizes and returns the AET
func (str *SimpleTraceRecorder) GenerateAET() (*AET, error) {
	// Program table rows were created up front (address order is fixed by
	// the program itself); fill in their real lookup multiplicities now that
	// execution has tallied how often each word was actually fetched.
	if err := str.aet.ProgramTable.SetLookupMultiplicities(str.aet.InstructionMultiplicities); err != nil {
		return nil, fmt.Errorf("failed to set program table multiplicities: %w", err)
	}

	// Cascade/Lookup tables derive their rows from the now-populated u32
	// table, so this must run before padding.
	if err := str.aet.FinalizeLookupTables(); err != nil {
		return nil, fmt.Errorf("failed to finalize lookup tables: %w", err)
	}

	// Pad all tables
	if err := str.aet.Pad(); err != nil {
		return nil, fmt.Errorf("failed to pad AET: %w", err)
	}

	return str.aet, nil
}
