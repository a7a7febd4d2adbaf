// Package vm provides instruction execution handlers for the goldilocks-vm ISA
package vm

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// popU32 pops the top stack element and requires it to fit in 32 bits,
// the precondition every u32-coprocessor instruction's operands share.
func (vm *VMState) popU32() (uint32, error) {
	e, err := vm.StackPop()
	if err != nil {
		return 0, err
	}
	v := e.Value()
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("operand %d does not fit in 32 bits: %w", v, ErrFailedU32Conversion)
	}
	return uint32(v), nil
}

// ============================================================================
// Stack Manipulation Instructions
// ============================================================================

// execPop removes the top element from the stack.
func (vm *VMState) execPop() error {
	if _, err := vm.StackPop(); err != nil {
		return err
	}
	return vm.IncrementIP()
}

// execPush pushes the instruction's immediate argument onto the stack.
func (vm *VMState) execPush(inst *EncodedInstruction) error {
	if err := vm.StackPush(*inst.Argument); err != nil {
		return err
	}
	return vm.IncrementIP()
}

// execDivine non-deterministically pushes one prover-supplied element.
func (vm *VMState) execDivine() error {
	if vm.SecretPointer >= len(vm.SecretInput) {
		return fmt.Errorf("divine: %w", ErrEmptySecretInput)
	}

	value := vm.SecretInput[vm.SecretPointer]
	vm.SecretPointer++

	if err := vm.StackPush(value); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execDup duplicates stack[i] to top.
func (vm *VMState) execDup(inst *EncodedInstruction) error {
	index := int(inst.Argument.Value())

	if index < 0 || index >= 16 {
		return fmt.Errorf("invalid dup index: %d (must be 0-15)", index)
	}

	value, err := vm.StackPeek(index)
	if err != nil {
		return err
	}

	if err := vm.StackPush(value); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execSwap swaps top with stack[i].
func (vm *VMState) execSwap(inst *EncodedInstruction) error {
	index := int(inst.Argument.Value())

	if index < 0 || index >= 16 {
		return fmt.Errorf("invalid swap index: %d (must be 0-15)", index)
	}

	if index >= vm.StackPointer {
		return fmt.Errorf("swap index out of bounds")
	}

	st0 := vm.Stack[vm.StackPointer-1]
	sti := vm.Stack[vm.StackPointer-1-index]

	vm.Stack[vm.StackPointer-1] = sti
	vm.Stack[vm.StackPointer-1-index] = st0

	return vm.IncrementIP()
}

// ============================================================================
// Control Flow Instructions
// ============================================================================

// execHalt terminates execution.
func (vm *VMState) execHalt() error {
	vm.Halting = true
	return nil
}

// execNop does nothing.
func (vm *VMState) execNop() error {
	return vm.IncrementIP()
}

// execSkiz skips the next instruction if top of stack is zero.
func (vm *VMState) execSkiz() error {
	st0, err := vm.StackPop()
	if err != nil {
		return err
	}

	if err := vm.IncrementIP(); err != nil {
		return err
	}

	if st0.IsZero() {
		inst, err := vm.CurrentInstruction()
		if err != nil {
			return err
		}
		vm.InstructionPointer += inst.Instruction.Size()
	}

	return nil
}

// execCall calls a function at the instruction's immediate address.
func (vm *VMState) execCall(inst *EncodedInstruction) error {
	target := int(inst.Argument.Value())
	returnAddr := vm.InstructionPointer + inst.Instruction.Size()

	vm.JumpStack = append(vm.JumpStack, VMJumpStackEntry{
		Origin:      returnAddr,
		Destination: target,
	})

	vm.InstructionPointer = target

	return nil
}

// execReturn returns from a function call.
func (vm *VMState) execReturn() error {
	if len(vm.JumpStack) == 0 {
		return fmt.Errorf("return: %w", ErrJumpStackEmpty)
	}

	entry := vm.JumpStack[len(vm.JumpStack)-1]
	vm.JumpStack = vm.JumpStack[:len(vm.JumpStack)-1]

	vm.InstructionPointer = entry.Origin

	return nil
}

// execRecurse re-enters the current function's entry point.
func (vm *VMState) execRecurse() error {
	if len(vm.JumpStack) == 0 {
		return fmt.Errorf("recurse: %w", ErrJumpStackEmpty)
	}

	entry := vm.JumpStack[len(vm.JumpStack)-1]
	target := entry.Destination

	returnAddr := vm.InstructionPointer + 1
	vm.JumpStack = append(vm.JumpStack, VMJumpStackEntry{
		Origin:      returnAddr,
		Destination: target,
	})

	vm.InstructionPointer = target

	return nil
}

// execAssert asserts that top of stack is 1.
func (vm *VMState) execAssert() error {
	st0, err := vm.StackPop()
	if err != nil {
		return err
	}

	if !st0.Equal(field.One) {
		return fmt.Errorf("assertion failed: expected 1, got %s: %w", st0.String(), ErrAssertionFailed)
	}

	return vm.IncrementIP()
}

// ============================================================================
// Memory Access Instructions
// ============================================================================

// execReadMem reads one word from RAM at the address on top of stack, which
// stays in place, and pushes it; RAMP/RAMV are updated to the address/value
// just touched.
func (vm *VMState) execReadMem() error {
	addrElement, err := vm.StackPeek(0)
	if err != nil {
		return err
	}

	value := vm.RAMRead(addrElement)
	vm.RAMPointer = addrElement
	vm.RAMValue = value

	if err := vm.StackPush(value); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execWriteMem pops the value on top of stack and writes it to the address
// below it, which stays on the stack.
// Stack layout: [..., address, value] with value on top.
func (vm *VMState) execWriteMem() error {
	value, err := vm.StackPop()
	if err != nil {
		return err
	}

	addrElement, err := vm.StackPeek(0)
	if err != nil {
		return err
	}

	vm.RAMWrite(addrElement, value)
	vm.RAMPointer = addrElement
	vm.RAMValue = value

	return vm.IncrementIP()
}

// ============================================================================
// Base Field Arithmetic Instructions
// ============================================================================

// execAdd adds top two stack elements.
func (vm *VMState) execAdd() error {
	b, err := vm.StackPop()
	if err != nil {
		return err
	}

	a, err := vm.StackPop()
	if err != nil {
		return err
	}

	result := a.Add(b)

	if err := vm.StackPush(result); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execMul multiplies top two stack elements.
func (vm *VMState) execMul() error {
	b, err := vm.StackPop()
	if err != nil {
		return err
	}

	a, err := vm.StackPop()
	if err != nil {
		return err
	}

	result := a.Mul(b)

	if err := vm.StackPush(result); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execInvert replaces top of stack with its multiplicative inverse.
func (vm *VMState) execInvert() error {
	a, err := vm.StackPop()
	if err != nil {
		return err
	}

	if a.IsZero() {
		return fmt.Errorf("invert: %w", ErrInverseOfZero)
	}

	result := a.Inverse()

	if err := vm.StackPush(result); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execEq checks equality of top two stack elements.
func (vm *VMState) execEq() error {
	b, err := vm.StackPop()
	if err != nil {
		return err
	}

	a, err := vm.StackPop()
	if err != nil {
		return err
	}

	var result field.Element
	if a.Equal(b) {
		result = field.One
	} else {
		result = field.Zero
	}

	if err := vm.StackPush(result); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// ============================================================================
// I/O Instructions
// ============================================================================

// execReadIo reads one element from public input and pushes it.
func (vm *VMState) execReadIo() error {
	if vm.InputPointer >= len(vm.PublicInput) {
		return fmt.Errorf("read_io: %w", ErrEmptyPublicInput)
	}

	value := vm.PublicInput[vm.InputPointer]
	vm.InputPointer++

	if err := vm.StackPush(value); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execWriteIo pops one element and appends it to public output.
func (vm *VMState) execWriteIo() error {
	value, err := vm.StackPop()
	if err != nil {
		return err
	}

	vm.PublicOutput = append(vm.PublicOutput, value)

	return vm.IncrementIP()
}

// ============================================================================
// Bitwise Instructions (U32 Coprocessor)
// ============================================================================

// execSplit splits top into high and low 32-bit parts. Split's own operand
// is not itself range-checked to 32 bits (that's the whole point of the
// instruction), so it works from the raw field value rather than popU32.
func (vm *VMState) execSplit() error {
	a, err := vm.StackPop()
	if err != nil {
		return err
	}

	v := a.Value()
	low := uint32(v & 0xffffffff)
	high := uint32(v >> 32)

	if err := vm.StackPush(field.New(uint64(high))); err != nil {
		return err
	}
	if err := vm.StackPush(field.New(uint64(low))); err != nil {
		return err
	}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: U32CoProcessor,
		Data: map[string]interface{}{
			"operation": "split",
			"low":       low,
			"high":      high,
		},
	})

	return vm.IncrementIP()
}

// execLt checks if top < second-from-top (unsigned 32-bit).
func (vm *VMState) execLt() error {
	lhs, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("lt: %w", err)
	}
	rhs, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("lt: %w", err)
	}

	var result field.Element
	if lhs < rhs {
		result = field.One
	} else {
		result = field.Zero
	}

	if err := vm.StackPush(result); err != nil {
		return err
	}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: U32CoProcessor,
		Data: map[string]interface{}{
			"operation": "lt",
			"lhs":       lhs,
			"rhs":       rhs,
			"result":    result.Equal(field.One),
		},
	})

	return vm.IncrementIP()
}

// execAnd performs bitwise AND.
func (vm *VMState) execAnd() error {
	lhs, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("and: %w", err)
	}
	rhs, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("and: %w", err)
	}

	result := lhs & rhs

	if err := vm.StackPush(field.New(uint64(result))); err != nil {
		return err
	}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: U32CoProcessor,
		Data: map[string]interface{}{
			"operation": "and",
			"lhs":       lhs,
			"rhs":       rhs,
			"result":    result,
		},
	})

	return vm.IncrementIP()
}

// execXor performs bitwise XOR. The u32 coprocessor only exposes an `and`
// lookup; since a ^ b = a + b - 2*(a & b), xor's coprocessor call is
// recorded as an `and` entry on (lhs, rhs) to match the table the prover
// actually has. The result itself is computed directly with Go's ^.
func (vm *VMState) execXor() error {
	lhs, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("xor: %w", err)
	}
	rhs, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("xor: %w", err)
	}

	result := lhs ^ rhs

	if err := vm.StackPush(field.New(uint64(result))); err != nil {
		return err
	}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: U32CoProcessor,
		Data: map[string]interface{}{
			"operation": "and",
			"lhs":       lhs,
			"rhs":       rhs,
			"result":    lhs & rhs,
		},
	})

	return vm.IncrementIP()
}

// execLog2Floor computes floor(log2(x)).
func (vm *VMState) execLog2Floor() error {
	a, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("log_2_floor: %w", err)
	}

	if a == 0 {
		return fmt.Errorf("log_2_floor: %w", ErrLogOfZero)
	}

	log2 := bits.Len32(a) - 1
	result := field.New(uint64(log2))

	if err := vm.StackPush(result); err != nil {
		return err
	}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: U32CoProcessor,
		Data: map[string]interface{}{
			"operation": "log2_floor",
			"input":     a,
			"result":    log2,
		},
	})

	return vm.IncrementIP()
}

// execPow raises second-from-top to the power of top; only the exponent is
// u32-constrained, the base is an arbitrary field element.
func (vm *VMState) execPow() error {
	exp, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("pow: %w", err)
	}

	base, err := vm.StackPop()
	if err != nil {
		return err
	}

	result := base.ModPow(uint64(exp))

	if err := vm.StackPush(result); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execDiv computes quotient and remainder of second-from-top / top, pushing
// quotient then remainder (remainder on top).
func (vm *VMState) execDiv() error {
	divisor, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("div: %w", err)
	}
	dividend, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("div: %w", err)
	}

	if divisor == 0 {
		return fmt.Errorf("div: %w", ErrDivisionByZero)
	}

	quotient := dividend / divisor
	remainder := dividend % divisor

	if err := vm.StackPush(field.New(uint64(quotient))); err != nil {
		return err
	}
	if err := vm.StackPush(field.New(uint64(remainder))); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execPopCount counts the number of 1 bits.
func (vm *VMState) execPopCount() error {
	a, err := vm.popU32()
	if err != nil {
		return fmt.Errorf("pop_count: %w", err)
	}

	count := bits.OnesCount32(a)
	result := field.New(uint64(count))

	if err := vm.StackPush(result); err != nil {
		return err
	}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: U32CoProcessor,
		Data: map[string]interface{}{
			"operation": "pop_count",
			"input":     a,
			"result":    count,
		},
	})

	return vm.IncrementIP()
}

// ============================================================================
// Hashing Instructions (Poseidon-based)
// ============================================================================

// execHash pops a 10-element rate and pushes its genuine 5-element Poseidon
// digest followed by five zeros: the zeros occupy ST0-ST4 and the digest
// sits beneath them with digest[0] uppermost (at ST5), matching the
// program-digest convention.
func (vm *VMState) execHash() error {
	input := make([]field.Element, 10)
	for i := 9; i >= 0; i-- {
		val, err := vm.StackPop()
		if err != nil {
			return fmt.Errorf("hash requires 10 stack elements: %w", err)
		}
		input[i] = val
	}

	digest, steps := poseidonDigestTrace(input)

	for i := 4; i >= 0; i-- {
		if err := vm.StackPush(digest[i]); err != nil {
			return err
		}
	}
	for i := 0; i < 5; i++ {
		if err := vm.StackPush(field.Zero); err != nil {
			return err
		}
	}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: HashCoProcessor,
		Data: map[string]interface{}{
			"operation": "hash",
			"input":     input,
			"output":    digest,
			"steps":     steps,
		},
	})

	return vm.IncrementIP()
}

// execAssertVector asserts that the top two 5-element vectors on the stack
// are equal without consuming either of them.
func (vm *VMState) execAssertVector() error {
	if vm.StackPointer < 10 {
		return fmt.Errorf("assert_vector requires 10 stack elements, have %d", vm.StackPointer)
	}

	for i := 0; i < 5; i++ {
		top, err := vm.StackPeek(i)
		if err != nil {
			return err
		}
		bottom, err := vm.StackPeek(i + 5)
		if err != nil {
			return err
		}
		if !top.Equal(bottom) {
			return fmt.Errorf("assert_vector failed at index %d: %s != %s", i, top.String(), bottom.String())
		}
	}

	return vm.IncrementIP()
}

// execDivineSibling reads a Merkle node index and a known 5-element digest
// off the stack, pairs the known digest with a prover-supplied sibling digest
// ordered by the index's parity, and pushes the halved index followed by
// both digests (left subtree first). It performs no hashing itself: a
// subsequent hash instruction combines the pair into the parent digest.
func (vm *VMState) execDivineSibling() error {
	nodeIndexEl, err := vm.StackPop()
	if err != nil {
		return fmt.Errorf("divine_sibling requires a node index: %w", err)
	}
	nodeIndex := nodeIndexEl.Value()

	current := make([]field.Element, 5)
	for i := 4; i >= 0; i-- {
		val, err := vm.StackPop()
		if err != nil {
			return fmt.Errorf("divine_sibling requires a 5-element digest: %w", err)
		}
		current[i] = val
	}

	if vm.DigestPointer >= len(vm.SecretDigests) {
		return fmt.Errorf("secret digests exhausted")
	}
	sibling := vm.SecretDigests[vm.DigestPointer]
	vm.DigestPointer++

	if err := vm.StackPush(field.New(nodeIndex / 2)); err != nil {
		return err
	}

	var left, right [5]field.Element
	if nodeIndex%2 == 0 {
		copy(left[:], current)
		right = sibling
	} else {
		left = sibling
		copy(right[:], current)
	}

	for i := 0; i < 5; i++ {
		if err := vm.StackPush(left[i]); err != nil {
			return err
		}
	}
	for i := 0; i < 5; i++ {
		if err := vm.StackPush(right[i]); err != nil {
			return err
		}
	}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: HashCoProcessor,
		Data: map[string]interface{}{
			"operation": "divine_sibling",
			"nodeIndex": nodeIndex,
			"current":   current,
			"sibling":   sibling,
		},
	})

	return vm.IncrementIP()
}

// execAbsorbInit resets the sponge and absorbs the top 10 stack elements
// (read, not popped) into the rate portion, then permutes.
func (vm *VMState) execAbsorbInit() error {
	if vm.StackPointer < SpongeRate {
		return fmt.Errorf("absorb_init requires %d stack elements, have %d", SpongeRate, vm.StackPointer)
	}

	var state [SpongeWidth]field.Element
	for i := 0; i < SpongeRate; i++ {
		val, err := vm.StackPeek(i)
		if err != nil {
			return err
		}
		state[i] = val
	}

	before := state
	state = poseidonPermute(state)
	vm.Sponge = &PoseidonSponge{State: state[:], Rate: SpongeRate}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: HashCoProcessor,
		Data: map[string]interface{}{
			"operation": "absorb_init",
			"steps":     []permuteStep{{before: before, after: state}},
		},
	})

	return vm.IncrementIP()
}

// execAbsorb adds the top 10 stack elements (read, not popped) into the
// sponge's rate portion and permutes.
func (vm *VMState) execAbsorb() error {
	if vm.Sponge == nil {
		return fmt.Errorf("sponge not initialized (call absorb_init first)")
	}
	if vm.StackPointer < SpongeRate {
		return fmt.Errorf("absorb requires %d stack elements, have %d", SpongeRate, vm.StackPointer)
	}

	var state [SpongeWidth]field.Element
	copy(state[:], vm.Sponge.State)
	for i := 0; i < SpongeRate; i++ {
		val, err := vm.StackPeek(i)
		if err != nil {
			return err
		}
		state[i] = state[i].Add(val)
	}

	before := state
	state = poseidonPermute(state)
	vm.Sponge.State = state[:]

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: HashCoProcessor,
		Data: map[string]interface{}{
			"operation": "absorb",
			"steps":     []permuteStep{{before: before, after: state}},
		},
	})

	return vm.IncrementIP()
}

// execSqueeze permutes the sponge and overwrites the top 10 stack elements in
// place with the resulting rate portion; the stack's depth never changes.
func (vm *VMState) execSqueeze() error {
	if vm.Sponge == nil {
		return fmt.Errorf("sponge not initialized (call absorb_init first)")
	}
	if vm.StackPointer < SpongeRate {
		return fmt.Errorf("squeeze requires %d stack elements, have %d", SpongeRate, vm.StackPointer)
	}

	var state [SpongeWidth]field.Element
	copy(state[:], vm.Sponge.State)
	before := state
	state = poseidonPermute(state)
	vm.Sponge.State = state[:]

	for i := 0; i < SpongeRate; i++ {
		if err := vm.StackSet(i, state[i]); err != nil {
			return err
		}
	}

	vm.CoProcessorCalls = append(vm.CoProcessorCalls, CoProcessorCall{
		Type: HashCoProcessor,
		Data: map[string]interface{}{
			"operation": "squeeze",
			"output":    state[:SpongeRate],
			"steps":     []permuteStep{{before: before, after: state}},
		},
	})

	return vm.IncrementIP()
}

// ============================================================================
// Extension Field Instructions
// ============================================================================

// peekXe reads three consecutive stack slots as an extension field element,
// with C2 shallowest (closest to top) and C0 deepest.
func (vm *VMState) peekXe(depth int) (Xe, error) {
	c2, err := vm.StackPeek(depth)
	if err != nil {
		return Xe{}, err
	}
	c1, err := vm.StackPeek(depth + 1)
	if err != nil {
		return Xe{}, err
	}
	c0, err := vm.StackPeek(depth + 2)
	if err != nil {
		return Xe{}, err
	}
	return Xe{C0: c0, C1: c1, C2: c2}, nil
}

// setXe writes an extension field element back into three consecutive stack
// slots, matching peekXe's layout.
func (vm *VMState) setXe(depth int, x Xe) error {
	if err := vm.StackSet(depth, x.C2); err != nil {
		return err
	}
	if err := vm.StackSet(depth+1, x.C1); err != nil {
		return err
	}
	return vm.StackSet(depth+2, x.C0)
}

// execXxAdd adds the extension field elements at ST0..2 and ST3..5 in place,
// writing the sum into ST0..2 and zeroing ST3..5 (stack depth unchanged,
// mirroring hash's own real-output-plus-zero-padding idiom).
func (vm *VMState) execXxAdd() error {
	if vm.StackPointer < 6 {
		return fmt.Errorf("xx_add requires 6 stack elements, have %d", vm.StackPointer)
	}

	b, err := vm.peekXe(0)
	if err != nil {
		return err
	}
	a, err := vm.peekXe(3)
	if err != nil {
		return err
	}

	if err := vm.setXe(0, a.Add(b)); err != nil {
		return err
	}
	if err := vm.setXe(3, XeZero); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execXxMul multiplies the extension field elements at ST0..2 and ST3..5 in
// place, writing the product into ST0..2 and zeroing ST3..5.
func (vm *VMState) execXxMul() error {
	if vm.StackPointer < 6 {
		return fmt.Errorf("xx_mul requires 6 stack elements, have %d", vm.StackPointer)
	}

	b, err := vm.peekXe(0)
	if err != nil {
		return err
	}
	a, err := vm.peekXe(3)
	if err != nil {
		return err
	}

	if err := vm.setXe(0, a.Mul(b)); err != nil {
		return err
	}
	if err := vm.setXe(3, XeZero); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execXInvert inverts the extension field element at ST0..2 in place.
func (vm *VMState) execXInvert() error {
	if vm.StackPointer < 3 {
		return fmt.Errorf("x_invert requires 3 stack elements, have %d", vm.StackPointer)
	}

	a, err := vm.peekXe(0)
	if err != nil {
		return err
	}

	inv, err := a.Inverse()
	if err != nil {
		return fmt.Errorf("x_invert: %w", err)
	}

	if err := vm.setXe(0, inv); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execXbMul pops a base-field scalar and scales the extension field element
// now at ST0..2 by it, in place.
func (vm *VMState) execXbMul() error {
	scalar, err := vm.StackPop()
	if err != nil {
		return err
	}

	a, err := vm.peekXe(0)
	if err != nil {
		return err
	}

	if err := vm.setXe(0, a.BMul(scalar)); err != nil {
		return err
	}

	return vm.IncrementIP()
}
