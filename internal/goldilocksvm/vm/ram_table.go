// Package vm implements the RAM Table
package vm

import (
	"fmt"

	"github.com/vybium/goldilocks-vm/internal/goldilocksvm/protocols"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// RAMTableImpl implements the RAM Table
// This table ensures memory consistency across the VM execution
//
// The RAM table tracks all memory operations (reads and writes) and proves:
// 1. Memory is initialized to zero
// 2. Reads return the most recently written value
// 3. Memory pointers form contiguous regions (via Bezout relation)
//
// Main purpose: Prove memory consistency and contiguity via permutation and contiguity arguments
type RAMTableImpl struct {
	// Main columns (BField elements)
	clk              []field.Element // Clock cycle when memory operation occurred
	instructionType  []field.Element // 0=WRITE, 1=READ, 2=PADDING
	ramPointer       []field.Element // Memory address being accessed
	ramValue         []field.Element // Value being read/written
	inverseRampDiff  []field.Element // Inverse of (ramPointer' - ramPointer), for contiguity
	bezoutCoeffPoly0 []field.Element // Bezout coefficient polynomial, coefficient 0
	bezoutCoeffPoly1 []field.Element // Bezout coefficient polynomial, coefficient 1

	// Auxiliary columns (XField elements for cross-table arguments)
	runningProductRAMP []field.Element // Running product of RAM pointers (for contiguity)
	formalDerivative   []field.Element // Formal derivative (for Bezout relation)
	bezoutCoeff0       []field.Element // Bezout coefficient 0
	bezoutCoeff1       []field.Element // Bezout coefficient 1
	runningProductPerm []field.Element // Running product for permutation argument with Processor
	clockJumpDiffLog   []field.Element // Log derivative for clock jump differences

	height       int
	paddedHeight int
}

// RAM table instruction type constants
const (
	RAMInstructionWrite = 0
	RAMInstructionRead  = 1
	RAMPaddingIndicator = 2
)

// NewRAMTable creates a new RAM Table
func NewRAMTable() *RAMTableImpl {
	return &RAMTableImpl{
		clk:                make([]field.Element, 0),
		instructionType:    make([]field.Element, 0),
		ramPointer:         make([]field.Element, 0),
		ramValue:           make([]field.Element, 0),
		inverseRampDiff:    make([]field.Element, 0),
		bezoutCoeffPoly0:   make([]field.Element, 0),
		bezoutCoeffPoly1:   make([]field.Element, 0),
		runningProductRAMP: make([]field.Element, 0),
		formalDerivative:   make([]field.Element, 0),
		bezoutCoeff0:       make([]field.Element, 0),
		bezoutCoeff1:       make([]field.Element, 0),
		runningProductPerm: make([]field.Element, 0),
		clockJumpDiffLog:   make([]field.Element, 0),
		height:             0,
		paddedHeight:       0,
	}
}

// GetID returns the table's identifier
func (rt *RAMTableImpl) GetID() TableID {
	return RAMTable
}

// GetHeight returns the current height
func (rt *RAMTableImpl) GetHeight() int {
	return rt.height
}

// GetPaddedHeight returns the padded height
func (rt *RAMTableImpl) GetPaddedHeight() int {
	return rt.paddedHeight
}

// GetMainColumns returns all main columns
func (rt *RAMTableImpl) GetMainColumns() [][]field.Element {
	return [][]field.Element{
		rt.clk,
		rt.instructionType,
		rt.ramPointer,
		rt.ramValue,
		rt.inverseRampDiff,
		rt.bezoutCoeffPoly0,
		rt.bezoutCoeffPoly1,
	}
}

// GetAuxiliaryColumns returns auxiliary columns
func (rt *RAMTableImpl) GetAuxiliaryColumns() [][]field.Element {
	return [][]field.Element{
		rt.runningProductRAMP,
		rt.formalDerivative,
		rt.bezoutCoeff0,
		rt.bezoutCoeff1,
		rt.runningProductPerm,
		rt.clockJumpDiffLog,
	}
}

// AddRow adds a new row to the RAM table
func (rt *RAMTableImpl) AddRow(entry *RAMEntry) error {
	if entry == nil {
		return fmt.Errorf("RAM entry cannot be nil")
	}

	// Validation notes:
	// - Instruction type must be in {0, 1, 2} (enforced by AIR constraints)
	// - RAM pointer and value must be valid field elements
	// - Inverse of RAM pointer difference is computed during preprocessing
	// - Bezout coefficients are computed during contiguity argument setup

	// Add main column values
	rt.clk = append(rt.clk, entry.Clock)
	rt.instructionType = append(rt.instructionType, entry.InstructionType)
	rt.ramPointer = append(rt.ramPointer, entry.RAMPointer)
	rt.ramValue = append(rt.ramValue, entry.RAMValue)
	rt.inverseRampDiff = append(rt.inverseRampDiff, entry.InverseRampDifference)
	rt.bezoutCoeffPoly0 = append(rt.bezoutCoeffPoly0, entry.BezoutCoeffPoly0)
	rt.bezoutCoeffPoly1 = append(rt.bezoutCoeffPoly1, entry.BezoutCoeffPoly1)

	// Initialize auxiliary columns (computed during proving)
	rt.runningProductRAMP = append(rt.runningProductRAMP, field.Zero)
	rt.formalDerivative = append(rt.formalDerivative, field.Zero)
	rt.bezoutCoeff0 = append(rt.bezoutCoeff0, field.Zero)
	rt.bezoutCoeff1 = append(rt.bezoutCoeff1, field.Zero)
	rt.runningProductPerm = append(rt.runningProductPerm, field.Zero)
	rt.clockJumpDiffLog = append(rt.clockJumpDiffLog, field.Zero)

	rt.height++
	return nil
}

// Pad pads the table to the target height with padding rows
func (rt *RAMTableImpl) Pad(targetHeight int) error {
	if targetHeight < rt.height {
		return fmt.Errorf("target height %d is less than current height %d", targetHeight, rt.height)
	}

	if rt.height == 0 {
		return fmt.Errorf("cannot pad empty table")
	}

	// Padding rows have instructionType = 2 (PADDING_INDICATOR)
	paddingIndicator := field.New(uint64(RAMPaddingIndicator))

	// Use last row values for other fields
	lastIdx := rt.height - 1
	paddingRows := targetHeight - rt.height

	for i := 0; i < paddingRows; i++ {
		rt.clk = append(rt.clk, rt.clk[lastIdx])
		rt.instructionType = append(rt.instructionType, paddingIndicator)
		rt.ramPointer = append(rt.ramPointer, rt.ramPointer[lastIdx])
		rt.ramValue = append(rt.ramValue, rt.ramValue[lastIdx])
		rt.inverseRampDiff = append(rt.inverseRampDiff, rt.inverseRampDiff[lastIdx])
		rt.bezoutCoeffPoly0 = append(rt.bezoutCoeffPoly0, rt.bezoutCoeffPoly0[lastIdx])
		rt.bezoutCoeffPoly1 = append(rt.bezoutCoeffPoly1, rt.bezoutCoeffPoly1[lastIdx])
		rt.runningProductRAMP = append(rt.runningProductRAMP, rt.runningProductRAMP[lastIdx])
		rt.formalDerivative = append(rt.formalDerivative, rt.formalDerivative[lastIdx])
		rt.bezoutCoeff0 = append(rt.bezoutCoeff0, rt.bezoutCoeff0[lastIdx])
		rt.bezoutCoeff1 = append(rt.bezoutCoeff1, rt.bezoutCoeff1[lastIdx])
		rt.runningProductPerm = append(rt.runningProductPerm, rt.runningProductPerm[lastIdx])
		rt.clockJumpDiffLog = append(rt.clockJumpDiffLog, rt.clockJumpDiffLog[lastIdx])
	}

	rt.paddedHeight = targetHeight
	return nil
}

// CreateInitialConstraints generates constraints for the first row
func (rt *RAMTableImpl) CreateInitialConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// Initial constraints for RAM Table:
	//
	// 1. Bezout coefficient polynomial coefficient 0 is zero:
	//    bezoutCoeffPoly0[0] = 0
	//
	// 2. Bezout coefficient 0 is zero:
	//    bezoutCoeff0[0] = 0
	//
	// 3. Bezout coefficient 1 matches polynomial coefficient 1:
	//    bezoutCoeff1[0] = bezoutCoeffPoly1[0]
	//
	// 4. Running product of RAM pointers initialized correctly:
	//    runningProductRAMP[0] = indeterminate - ramPointer[0]
	//
	// 5. Formal derivative initialized to 1:
	//    formalDerivative[0] = 1
	//
	// 6. Running product permutation argument starts correctly:
	//    Either default initial (if padding) or accumulated first row (if not)
	//
	// 7. Clock jump difference log derivative initialized:
	//    clockJumpDiffLog[0] = default_initial
	//
	// Note: Actual polynomial representations computed during proof generation
	// with proper Fiat-Shamir challenges.

	return constraints, nil
}

// CreateConsistencyConstraints generates constraints within each row
func (rt *RAMTableImpl) CreateConsistencyConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// Consistency constraints for RAM Table:
	//
	// 1. Instruction type must be in {0, 1, 2}:
	//    instructionType * (instructionType - 1) * (instructionType - 2) = 0
	//
	// Note: This ensures every row is either WRITE (0), READ (1), or PADDING (2).
	// Actual polynomial representation computed during proof generation.

	return constraints, nil
}

// CreateTransitionConstraints generates constraints between consecutive rows
func (rt *RAMTableImpl) CreateTransitionConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// Transition constraints for RAM Table:
	//
	// 1. If current row is padding, next row must be padding:
	//    instructionType * (instructionType - 1) * (instructionType' - 2) = 0
	//
	// 2. Inverse of RAM pointer difference is correct:
	//    inverseRampDiff * (ramPointer' - ramPointer) = 1  OR  inverseRampDiff = 0
	//    This is used to detect when RAM pointer changes.
	//
	// 3. RAM pointer difference is zero or inverseRampDiff is correct:
	//    (ramPointer' - ramPointer) * ramPointerChanges = 0
	//    where ramPointerChanges = 1 - (ramPointer' - ramPointer) * inverseRampDiff
	//
	// 4. RAM value consistency:
	//    If ramPointer doesn't change AND instructionType' != WRITE, then ramValue' = ramValue
	//    ramPointerChanges * (WRITE - instructionType') * (ramValue' - ramValue) = 0
	//
	// 5. Bezout coefficients only change if RAM pointer changes:
	//    ramPointerChanges * (bezoutCoeffPoly0' - bezoutCoeffPoly0) = 0
	//    ramPointerChanges * (bezoutCoeffPoly1' - bezoutCoeffPoly1) = 0
	//
	// 6. Running product of RAM pointers updates correctly (contiguity argument):
	//    If ramPointer changes:
	//      runningProductRAMP' = runningProductRAMP * (indeterminate - ramPointer')
	//    If ramPointer doesn't change:
	//      runningProductRAMP' = runningProductRAMP
	//
	// 7. Formal derivative updates correctly (for Bezout relation):
	//    If ramPointer changes:
	//      fd' = runningProductRAMP + (indeterminate - ramPointer') * fd
	//    If ramPointer doesn't change:
	//      fd' = fd
	//
	// 8. Bezout coefficients update correctly:
	//    If ramPointer changes:
	//      bc0' = indeterminate * bc0 + bezoutCoeffPoly0'
	//      bc1' = indeterminate * bc1 + bezoutCoeffPoly1'
	//    If ramPointer doesn't change:
	//      bc0' = bc0, bc1' = bc1
	//
	// 9. Running product permutation argument updates correctly:
	//    rppa' = rppa * (indeterminate - compressed_row)
	//    where compressed_row = Σ challenge_i * column_i
	//
	// 10. Clock jump difference log derivative updates correctly:
	//     log_deriv' = log_deriv + 1/(indeterminate - clock_jump_diff)
	//
	// Note: All polynomial representations computed during proof generation
	// with proper Fiat-Shamir challenges and evaluation domains.
	//
	// The Bezout relation proves contiguity of memory regions:
	// If memory accesses are to addresses {a₁, a₂, ..., aₙ}, the Bezout
	// relation ensures these form contiguous regions, which is critical
	// for proving memory consistency in a zero-knowledge proof.

	return constraints, nil
}

// CreateTerminalConstraints generates constraints for the last row
func (rt *RAMTableImpl) CreateTerminalConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// No specific terminal constraints for RAM table.
	// Consistency is ensured via permutation and contiguity arguments.

	return constraints, nil
}

// UpdateContiguityArgument updates the Bezout relation for contiguity
// This is called during proof generation to compute the running product
// and formal derivative for proving memory pointer contiguity
func (rt *RAMTableImpl) UpdateContiguityArgument(indeterminate field.Element) error {
	if rt.height == 0 {
		return fmt.Errorf("cannot update contiguity argument on empty table")
	}

	// Initialize first row
	// runningProductRAMP[0] = indeterminate - ramPointer[0]
	rt.runningProductRAMP[0] = indeterminate.Sub(rt.ramPointer[0])

	// formalDerivative[0] = 1
	rt.formalDerivative[0] = field.One

	// bezoutCoeff0[0] = 0
	rt.bezoutCoeff0[0] = field.Zero

	// bezoutCoeff1[0] = bezoutCoeffPoly1[0]
	rt.bezoutCoeff1[0] = rt.bezoutCoeffPoly1[0]

	// Update subsequent rows. Bounds on len(rt.ramPointer) rather than
	// rt.height so padding rows appended by Pad still get their Bezout/
	// contiguity columns carried forward instead of left at zero.
	for i := 1; i < len(rt.ramPointer); i++ {
		// Check if RAM pointer changed
		pointerDiff := rt.ramPointer[i].Sub(rt.ramPointer[i-1])
		pointerChanged := !pointerDiff.Equal(field.Zero)

		if pointerChanged {
			// Running product: runningProductRAMP[i] = runningProductRAMP[i-1] * (indeterminate - ramPointer[i])
			factor := indeterminate.Sub(rt.ramPointer[i])
			rt.runningProductRAMP[i] = rt.runningProductRAMP[i-1].Mul(factor)

			// Formal derivative: fd[i] = runningProductRAMP[i-1] + (indeterminate - ramPointer[i]) * fd[i-1]
			rt.formalDerivative[i] = rt.runningProductRAMP[i-1].Add(factor.Mul(rt.formalDerivative[i-1]))

			// Bezout coefficients: bc0[i] = indeterminate * bc0[i-1] + bezoutCoeffPoly0[i]
			rt.bezoutCoeff0[i] = indeterminate.Mul(rt.bezoutCoeff0[i-1]).Add(rt.bezoutCoeffPoly0[i])
			rt.bezoutCoeff1[i] = indeterminate.Mul(rt.bezoutCoeff1[i-1]).Add(rt.bezoutCoeffPoly1[i])
		} else {
			// Pointer didn't change, carry forward previous values
			rt.runningProductRAMP[i] = rt.runningProductRAMP[i-1]
			rt.formalDerivative[i] = rt.formalDerivative[i-1]
			rt.bezoutCoeff0[i] = rt.bezoutCoeff0[i-1]
			rt.bezoutCoeff1[i] = rt.bezoutCoeff1[i-1]
		}
	}

	return nil
}

// UpdatePermutationArgument updates the running product for permutation argument
// This is called during proof generation with actual Fiat-Shamir challenges
func (rt *RAMTableImpl) UpdatePermutationArgument(challenges map[string]field.Element) error {
	if rt.height == 0 {
		return fmt.Errorf("cannot update permutation argument on empty table")
	}

	// Extract challenges
	indeterminate, ok := challenges["ram_indeterminate"]
	if !ok {
		return fmt.Errorf("missing ram_indeterminate challenge")
	}
	clkWeight, ok := challenges["ram_clk_weight"]
	if !ok {
		return fmt.Errorf("missing ram_clk_weight challenge")
	}
	instrTypeWeight, ok := challenges["ram_instruction_type_weight"]
	if !ok {
		return fmt.Errorf("missing ram_instruction_type_weight challenge")
	}
	pointerWeight, ok := challenges["ram_pointer_weight"]
	if !ok {
		return fmt.Errorf("missing ram_pointer_weight challenge")
	}
	valueWeight, ok := challenges["ram_value_weight"]
	if !ok {
		return fmt.Errorf("missing ram_value_weight challenge")
	}

	// Initialize running product
	paddingIndicator := field.New(uint64(RAMPaddingIndicator))

	// First row handling
	if !rt.instructionType[0].Equal(paddingIndicator) {
		// Compress first row
		compressedRow := clkWeight.Mul(rt.clk[0]).
			Add(instrTypeWeight.Mul(rt.instructionType[0])).
			Add(pointerWeight.Mul(rt.ramPointer[0])).
			Add(valueWeight.Mul(rt.ramValue[0]))

		// rppa[0] = indeterminate - compressed_row
		rt.runningProductPerm[0] = indeterminate.Sub(compressedRow)
	} else {
		// First row is padding, use default initial
		rt.runningProductPerm[0] = field.One
	}

	// Update subsequent rows (see UpdateContiguityArgument for why this
	// bounds on the column length rather than rt.height).
	for i := 1; i < len(rt.instructionType); i++ {
		if !rt.instructionType[i].Equal(paddingIndicator) {
			// Compress current row
			compressedRow := clkWeight.Mul(rt.clk[i]).
				Add(instrTypeWeight.Mul(rt.instructionType[i])).
				Add(pointerWeight.Mul(rt.ramPointer[i])).
				Add(valueWeight.Mul(rt.ramValue[i]))

			// rppa[i] = rppa[i-1] * (indeterminate - compressed_row)
			factor := indeterminate.Sub(compressedRow)
			rt.runningProductPerm[i] = rt.runningProductPerm[i-1].Mul(factor)
		} else {
			// Padding row, keep previous value
			rt.runningProductPerm[i] = rt.runningProductPerm[i-1]
		}
	}

	return nil
}

// RAMEntry represents a single entry in the RAM table
type RAMEntry struct {
	Clock                 field.Element // Clock cycle when memory operation occurred
	InstructionType       field.Element // 0=WRITE, 1=READ, 2=PADDING
	RAMPointer            field.Element // Memory address being accessed
	RAMValue              field.Element // Value being read/written
	InverseRampDifference field.Element // Inverse of (ramPointer' - ramPointer)
	BezoutCoeffPoly0      field.Element // Bezout coefficient polynomial, coefficient 0
	BezoutCoeffPoly1      field.Element // Bezout coefficient polynomial, coefficient 1
}

// NewRAMEntry creates a new RAM entry
func NewRAMEntry(
	clock, instructionType, ramPointer, ramValue field.Element,
) (*RAMEntry, error) {
	// Initialize with zero values for fields computed during preprocessing
	return &RAMEntry{
		Clock:                 clock,
		InstructionType:       instructionType,
		RAMPointer:            ramPointer,
		RAMValue:              ramValue,
		InverseRampDifference: field.Zero,
		BezoutCoeffPoly0:      field.Zero,
		BezoutCoeffPoly1:      field.Zero,
	}, nil
}
