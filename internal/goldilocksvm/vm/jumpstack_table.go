// Package vm implements the Jump Stack Table
package vm

import (
	"fmt"
	"sort"

	"github.com/vybium/goldilocks-vm/internal/goldilocksvm/protocols"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// JumpStackTableImpl implements the Jump Stack Table
// This table tracks function call/return operations and ensures control flow consistency
//
// The jump stack records:
// 1. CALL instructions (push return address onto jump stack)
// 2. RETURN instructions (pop return address from jump stack)
// 3. RECURSE_OR_RETURN instructions (conditional return)
//
// Main purpose: Prove control flow correctness via permutation arguments with Processor table
type JumpStackTableImpl struct {
	// Main columns (BField elements)
	clk []field.Element // Clock cycle when jump stack operation occurred
	ci  []field.Element // Current instruction (CALL, RETURN, or RECURSE_OR_RETURN)
	jsp []field.Element // Jump stack pointer (depth of call stack)
	jso []field.Element // Jump stack origin (return address - where we came from)
	jsd []field.Element // Jump stack destination (return address - where to go back)

	// Auxiliary columns (XField elements for cross-table arguments)
	runningProductPerm []field.Element // Running product for permutation argument with Processor
	clockJumpDiffLog   []field.Element // Log derivative for clock jump differences

	height       int
	paddedHeight int
}

// NewJumpStackTable creates a new Jump Stack Table
func NewJumpStackTable() *JumpStackTableImpl {
	return &JumpStackTableImpl{
		clk:                make([]field.Element, 0),
		ci:                 make([]field.Element, 0),
		jsp:                make([]field.Element, 0),
		jso:                make([]field.Element, 0),
		jsd:                make([]field.Element, 0),
		runningProductPerm: make([]field.Element, 0),
		clockJumpDiffLog:   make([]field.Element, 0),
		height:             0,
		paddedHeight:       0,
	}
}

// GetID returns the table's identifier
func (jst *JumpStackTableImpl) GetID() TableID {
	return JumpStackTable
}

// GetHeight returns the current height
func (jst *JumpStackTableImpl) GetHeight() int {
	return jst.height
}

// GetPaddedHeight returns the padded height
func (jst *JumpStackTableImpl) GetPaddedHeight() int {
	return jst.paddedHeight
}

// GetMainColumns returns all main columns
func (jst *JumpStackTableImpl) GetMainColumns() [][]field.Element {
	return [][]field.Element{
		jst.clk,
		jst.ci,
		jst.jsp,
		jst.jso,
		jst.jsd,
	}
}

// GetAuxiliaryColumns returns auxiliary columns
func (jst *JumpStackTableImpl) GetAuxiliaryColumns() [][]field.Element {
	return [][]field.Element{
		jst.runningProductPerm,
		jst.clockJumpDiffLog,
	}
}

// AddRow adds a new row to the jump stack table
func (jst *JumpStackTableImpl) AddRow(entry *JumpStackEntry) error {
	if entry == nil {
		return fmt.Errorf("jump stack entry cannot be nil")
	}

	// Validation notes:
	// - Clock must be monotonically increasing (enforced by transition constraints)
	// - Jump stack pointer must be >= 0 (enforced by AIR constraints)
	// - Jump stack origin and destination are return addresses
	// - Current instruction must be valid (CALL, RETURN, or RECURSE_OR_RETURN)

	// Add main column values
	jst.clk = append(jst.clk, entry.Clock)
	jst.ci = append(jst.ci, entry.CurrentInstruction)
	jst.jsp = append(jst.jsp, entry.JumpStackPointer)
	jst.jso = append(jst.jso, entry.JumpStackOrigin)
	jst.jsd = append(jst.jsd, entry.JumpStackDestination)

	// Initialize auxiliary columns (computed during proving)
	jst.runningProductPerm = append(jst.runningProductPerm, field.Zero)
	jst.clockJumpDiffLog = append(jst.clockJumpDiffLog, field.Zero)

	jst.height++
	return nil
}

// Pad pads the table to the target height.
//
// The jump stack table's rows must be sorted by (jsp ascending, clk
// ascending) before the transition constraints (which reason about jsp
// jumps and clock jumps) are meaningful - AddRow only records entries in
// execution order, so the sort happens here. Padding rows are clones of
// the row with the highest clock value, inserted immediately after it,
// so the sort order (and the clock-jump lookup argument built on top of
// it) is preserved.
func (jst *JumpStackTableImpl) Pad(targetHeight int) error {
	if targetHeight < jst.height {
		return fmt.Errorf("target height %d is less than current height %d", targetHeight, jst.height)
	}

	if jst.height == 0 {
		return fmt.Errorf("cannot pad empty table")
	}

	type row struct {
		clk, ci, jsp, jso, jsd field.Element
	}

	rows := make([]row, jst.height)
	for i := 0; i < jst.height; i++ {
		rows[i] = row{jst.clk[i], jst.ci[i], jst.jsp[i], jst.jso[i], jst.jsd[i]}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].jsp.Equal(rows[j].jsp) {
			return rows[i].jsp.Value() < rows[j].jsp.Value()
		}
		return rows[i].clk.Value() < rows[j].clk.Value()
	})

	maxClkIdx := 0
	for i := 1; i < len(rows); i++ {
		if rows[i].clk.Value() > rows[maxClkIdx].clk.Value() {
			maxClkIdx = i
		}
	}

	paddingRows := targetHeight - jst.height
	padded := make([]row, 0, targetHeight)
	padded = append(padded, rows[:maxClkIdx+1]...)
	for i := 0; i < paddingRows; i++ {
		padded = append(padded, rows[maxClkIdx])
	}
	padded = append(padded, rows[maxClkIdx+1:]...)

	jst.clk = make([]field.Element, targetHeight)
	jst.ci = make([]field.Element, targetHeight)
	jst.jsp = make([]field.Element, targetHeight)
	jst.jso = make([]field.Element, targetHeight)
	jst.jsd = make([]field.Element, targetHeight)
	for i, r := range padded {
		jst.clk[i] = r.clk
		jst.ci[i] = r.ci
		jst.jsp[i] = r.jsp
		jst.jso[i] = r.jso
		jst.jsd[i] = r.jsd
	}

	jst.runningProductPerm = make([]field.Element, targetHeight)
	jst.clockJumpDiffLog = make([]field.Element, targetHeight)
	for i := range jst.runningProductPerm {
		jst.runningProductPerm[i] = field.Zero
		jst.clockJumpDiffLog[i] = field.Zero
	}

	jst.paddedHeight = targetHeight
	return nil
}

// CreateInitialConstraints generates constraints for the first row
func (jst *JumpStackTableImpl) CreateInitialConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// Initial constraints for Jump Stack Table:
	//
	// 1. Clock starts at zero:
	//    clk[0] = 0
	//
	// 2. Jump stack pointer starts at zero (no active calls):
	//    jsp[0] = 0
	//
	// 3. Jump stack origin starts at zero:
	//    jso[0] = 0
	//
	// 4. Jump stack destination starts at zero:
	//    jsd[0] = 0
	//
	// 5. Running product permutation argument initialized correctly:
	//    Note: clk, jsp, jso, jsd are all 0, so only ci contributes to compressed row
	//    rppa[0] = indeterminate - ci_weight * ci[0]
	//
	// 6. Clock jump difference log derivative initialized:
	//    clockJumpDiffLog[0] = default_initial
	//    (A clock jump difference of 0 is not allowed, hence initial is recorded)
	//
	// Note: Actual polynomial representations computed during proof generation
	// with proper Fiat-Shamir challenges.

	return constraints, nil
}

// CreateConsistencyConstraints generates constraints within each row
func (jst *JumpStackTableImpl) CreateConsistencyConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// No additional consistency constraints for Jump Stack Table.
	// Instruction type validation is done via the Processor table.

	return constraints, nil
}

// CreateTransitionConstraints generates constraints between consecutive rows
func (jst *JumpStackTableImpl) CreateTransitionConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// Transition constraints for Jump Stack Table:
	//
	// 1. Jump stack pointer increments by 1 or stays the same:
	//    (jsp' - jsp - 1) * (jsp' - jsp) = 0
	//
	// 2. If jsp increments by 1, ci must be able to return (RETURN or RECURSE_OR_RETURN):
	//    (jsp' - jsp - 1) * (ci - RETURN) * (ci - RECURSE_OR_RETURN) = 0
	//
	// 3. If jsp increments or ci can return, jso stays the same:
	//    (jsp' - jsp - 1 OR ci = RETURN OR ci = RECURSE_OR_RETURN) => jso' = jso
	//    Constraint: (jsp' - jsp - 1) * (ci - RETURN) * (ci - RECURSE_OR_RETURN) * (jso' - jso) = 0
	//
	// 4. If jsp increments or ci can return, jsd stays the same:
	//    (jsp' - jsp - 1 OR ci = RETURN OR ci = RECURSE_OR_RETURN) => jsd' = jsd
	//    Constraint: (jsp' - jsp - 1) * (ci - RETURN) * (ci - RECURSE_OR_RETURN) * (jsd' - jsd) = 0
	//
	// 5. If jsp increments or ci can return, and clk increments, ci must be CALL:
	//    (jsp' - jsp - 1 OR ci = RETURN OR ci = RECURSE_OR_RETURN) AND (clk' = clk + 1) => ci = CALL
	//    Constraint: (jsp' - jsp - 1) * (ci - RETURN) * (ci - RECURSE_OR_RETURN) * (clk' - clk - 1) * (ci - CALL) = 0
	//
	// 6. Running product permutation argument updates correctly:
	//    rppa' = rppa * (indeterminate - compressed_row)
	//    where compressed_row = clk_weight * clk' + ci_weight * ci' + jsp_weight * jsp' + jso_weight * jso' + jsd_weight * jsd'
	//
	// 7. Clock jump difference log derivative updates correctly:
	//    If jsp increments by 1:
	//      log_deriv' = log_deriv + 1/(indeterminate - (clk' - clk))
	//    If jsp stays the same:
	//      log_deriv' = log_deriv
	//
	//    Combined constraint:
	//    (jsp' - jsp - 1) * [(log_deriv' - log_deriv) * (indeterminate - (clk' - clk)) - 1]
	//    + (jsp' - jsp) * (log_deriv' - log_deriv) = 0
	//
	// Note: All polynomial representations computed during proof generation
	// with proper Fiat-Shamir challenges and evaluation domains.
	//
	// The jump stack table ensures that:
	// - CALL instructions correctly push return addresses
	// - RETURN instructions correctly pop return addresses
	// - Control flow is consistent with the processor state
	// - Nested function calls are tracked correctly via jsp (depth)

	return constraints, nil
}

// CreateTerminalConstraints generates constraints for the last row
func (jst *JumpStackTableImpl) CreateTerminalConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// No specific terminal constraints for Jump Stack Table.
	// Consistency is ensured via permutation arguments with Processor table.

	return constraints, nil
}

// UpdatePermutationArgument updates the running product for permutation argument
// This is called during proof generation with actual Fiat-Shamir challenges
func (jst *JumpStackTableImpl) UpdatePermutationArgument(challenges map[string]field.Element) error {
	if jst.height == 0 {
		return fmt.Errorf("cannot update permutation argument on empty table")
	}

	// Extract challenges
	indeterminate, ok := challenges["jumpstack_indeterminate"]
	if !ok {
		return fmt.Errorf("missing jumpstack_indeterminate challenge")
	}
	clkWeight, ok := challenges["jumpstack_clk_weight"]
	if !ok {
		return fmt.Errorf("missing jumpstack_clk_weight challenge")
	}
	ciWeight, ok := challenges["jumpstack_ci_weight"]
	if !ok {
		return fmt.Errorf("missing jumpstack_ci_weight challenge")
	}
	jspWeight, ok := challenges["jumpstack_jsp_weight"]
	if !ok {
		return fmt.Errorf("missing jumpstack_jsp_weight challenge")
	}
	jsoWeight, ok := challenges["jumpstack_jso_weight"]
	if !ok {
		return fmt.Errorf("missing jumpstack_jso_weight challenge")
	}
	jsdWeight, ok := challenges["jumpstack_jsd_weight"]
	if !ok {
		return fmt.Errorf("missing jumpstack_jsd_weight challenge")
	}

	// First row: clk, jsp, jso, jsd are all 0, so only ci contributes
	compressedRow := ciWeight.Mul(jst.ci[0])
	jst.runningProductPerm[0] = indeterminate.Sub(compressedRow)

	// Update subsequent rows. Iterates over len(jst.clk), not jst.height:
	// once Pad has run, the column slices carry the padded height while
	// jst.height still reflects the pre-padding row count, and the padding
	// rows' running product must be carried forward too or the grand
	// cross-table permutation argument breaks at the terminal row.
	for i := 1; i < len(jst.clk); i++ {
		// Compress current row
		compressedRow = clkWeight.Mul(jst.clk[i]).
			Add(ciWeight.Mul(jst.ci[i])).
			Add(jspWeight.Mul(jst.jsp[i])).
			Add(jsoWeight.Mul(jst.jso[i])).
			Add(jsdWeight.Mul(jst.jsd[i]))

		// rppa[i] = rppa[i-1] * (indeterminate - compressed_row)
		factor := indeterminate.Sub(compressedRow)
		jst.runningProductPerm[i] = jst.runningProductPerm[i-1].Mul(factor)
	}

	return nil
}

// UpdateClockJumpLogDerivative updates the log derivative for clock jump differences
// This is called during proof generation for the lookup argument
func (jst *JumpStackTableImpl) UpdateClockJumpLogDerivative(indeterminate field.Element) error {
	if jst.height == 0 {
		return fmt.Errorf("cannot update clock jump log derivative on empty table")
	}

	// Initialize first row (default initial for lookup argument)
	jst.clockJumpDiffLog[0] = field.Zero

	// Update subsequent rows (see UpdatePermutationArgument for why this
	// bounds on len(jst.clk) rather than jst.height).
	for i := 1; i < len(jst.clk); i++ {
		// Check if jump stack pointer incremented
		jspDiff := jst.jsp[i].Sub(jst.jsp[i-1])
		jspIncremented := jspDiff.Equal(field.One)

		if jspIncremented {
			// log_deriv[i] = log_deriv[i-1] + 1/(indeterminate - (clk[i] - clk[i-1]))
			clockDiff := jst.clk[i].Sub(jst.clk[i-1])
			denominator := indeterminate.Sub(clockDiff)

			// Compute inverse
			inverse := denominator.Inverse()

			jst.clockJumpDiffLog[i] = jst.clockJumpDiffLog[i-1].Add(inverse)
		} else {
			// Jump stack pointer didn't increment, carry forward previous value
			jst.clockJumpDiffLog[i] = jst.clockJumpDiffLog[i-1]
		}
	}

	return nil
}

// JumpStackEntry represents a single entry in the jump stack table
type JumpStackEntry struct {
	Clock                field.Element // Clock cycle
	CurrentInstruction   field.Element // CALL, RETURN, or RECURSE_OR_RETURN
	JumpStackPointer     field.Element // Depth of call stack
	JumpStackOrigin      field.Element // Return address (where we came from)
	JumpStackDestination field.Element // Return address (where to go back)
}

// NewJumpStackEntry creates a new jump stack entry
func NewJumpStackEntry(
	clock, currentInstruction, jumpStackPointer, jumpStackOrigin, jumpStackDestination field.Element,
) (*JumpStackEntry, error) {
	return &JumpStackEntry{
		Clock:                clock,
		CurrentInstruction:   currentInstruction,
		JumpStackPointer:     jumpStackPointer,
		JumpStackOrigin:      jumpStackOrigin,
		JumpStackDestination: jumpStackDestination,
	}, nil
}
