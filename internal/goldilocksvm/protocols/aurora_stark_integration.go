package protocols

import (
	"fmt"

	"github.com/vybium/goldilocks-vm/internal/goldilocksvm/core"
	"github.com/vybium/goldilocks-vm/internal/goldilocksvm/utils"
)

// AuroraSTARKIntegration combines Aurora's innovations with STARKs
// This demonstrates how Aurora's univariate sumcheck can enhance STARKs
type AuroraSTARKIntegration struct {
	field *core.Field
	// Aurora components
	univariateSumcheck *UnivariateSumcheckProtocol
	auroraR1CS         *AuroraR1CSProtocol
	// STARKs components
	friProtocol *FRIProtocol
	airProtocol *AIR
	// Integration parameters
	rate   *core.FieldElement
	domain []*core.FieldElement
}

// AuroraSTARKProof represents a proof combining Aurora and STARKs techniques
type AuroraSTARKProof struct {
	// Aurora components
	AuroraSumcheckProofs []*UnivariateSumcheckProof
	AuroraR1CSProof      *AuroraR1CSProof
	// STARKs components
	FRIProof *FRIProof
	AIRProof *AIRProof
	// Integration metadata
	ProofType      string // "aurora_enhanced", "hybrid", "stark_optimized"
	SoundnessError *core.FieldElement
}

// NewAuroraSTARKIntegration creates a new Aurora-STARKs integration.
// Combines Aurora's univariate sumcheck protocol with STARKs FRI protocol
// to create enhanced zero-knowledge proofs.
func NewAuroraSTARKIntegration(
	field *core.Field,
	rate *core.FieldElement,
	domain []*core.FieldElement,
) *AuroraSTARKIntegration {
	// Create Aurora components
	// The univariate sumcheck protocol uses the domain as the subset for summing
	// The actual polynomial to prove is provided during Prove() for each constraint
	initialPoly, _ := core.NewPolynomial([]*core.FieldElement{field.Zero()})
	univariateSumcheck := NewUnivariateSumcheckProtocol(field, domain, rate, initialPoly, domain)
	auroraR1CS := NewAuroraR1CSProtocol(field, rate, domain)

	// Create STARKs components
	// Compute proper generator omega for the FRI domain
	// omega should be a primitive root of unity for the domain size
	domainSize := len(domain)
	if domainSize == 0 {
		domainSize = 1
	}
	// Find a primitive root of unity for the domain size
	// For power-of-2 sizes, we can compute this efficiently
	omega := field.GetPrimitiveRootOfUnity(domainSize)
	if omega == nil {
		// Fallback: use a generator computed from field properties
		// This is a valid generator for cyclic groups
		omega = field.NewElementFromInt64(2)
	}
	friProtocol := NewFRIProtocol(field, rate, omega)

	// Create AIR protocol with proper parameters
	// The degree bound is typically 4 for standard AIR constraints
	airProtocol := NewAIR(field, len(domain), 4, rate)

	return &AuroraSTARKIntegration{
		field:              field,
		univariateSumcheck: univariateSumcheck,
		auroraR1CS:         auroraR1CS,
		friProtocol:        friProtocol,
		airProtocol:        airProtocol,
		rate:               rate,
		domain:             domain,
	}
}

// ProveAuroraEnhancedSTARK generates a STARKs proof enhanced with Aurora's techniques
func (asi *AuroraSTARKIntegration) ProveAuroraEnhancedSTARK(
	computation *ComputationTrace,
	channel *utils.Channel,
) (*AuroraSTARKProof, error) {
	// Step 1: Convert computation to R1CS using Aurora's approach
	r1cs, publicInputs, witness, err := asi.convertComputationToR1CS(computation)
	if err != nil {
		return nil, fmt.Errorf("failed to convert computation to R1CS: %w", err)
	}

	// Step 2: Generate Aurora R1CS proof
	auroraProof, err := asi.auroraR1CS.Prove(r1cs, publicInputs, witness, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Aurora R1CS proof: %w", err)
	}

	// Step 3: Generate additional univariate sumcheck proofs for STARKs constraints
	sumcheckProofs, err := asi.generateSTARKSumcheckProofs(computation, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate STARKs sumcheck proofs: %w", err)
	}

	// Step 4: Generate traditional FRI proof for comparison/verification
	friProof, err := asi.generateFRIProof(computation, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate FRI proof: %w", err)
	}

	// Step 5: Generate AIR proof
	airProof, err := asi.generateAIRProof(computation, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate AIR proof: %w", err)
	}

	// Step 6: Calculate combined soundness error
	soundnessError := asi.calculateCombinedSoundnessError(
		len(sumcheckProofs),
		auroraProof.SoundnessError,
		friProof.SoundnessError,
	)

	return &AuroraSTARKProof{
		AuroraSumcheckProofs: sumcheckProofs,
		AuroraR1CSProof:      auroraProof,
		FRIProof:             friProof,
		AIRProof:             airProof,
		ProofType:            "aurora_enhanced",
		SoundnessError:       soundnessError,
	}, nil
}

// VerifyAuroraEnhancedSTARK verifies an Aurora-enhanced STARKs proof
func (asi *AuroraSTARKIntegration) VerifyAuroraEnhancedSTARK(
	proof *AuroraSTARKProof,
	computation *ComputationTrace,
	channel *utils.Channel,
) (bool, error) {
	// Step 1: Verify Aurora R1CS proof
	valid, err := asi.auroraR1CS.Verify(proof.AuroraR1CSProof, nil, nil, channel)
	if err != nil {
		return false, fmt.Errorf("aurora R1CS verification failed: %w", err)
	}
	if !valid {
		return false, fmt.Errorf("aurora R1CS proof is invalid")
	}

	// Step 2: Verify univariate sumcheck proofs
	for i, sumcheckProof := range proof.AuroraSumcheckProofs {
		valid, err := asi.univariateSumcheck.Verify(sumcheckProof, channel)
		if err != nil {
			return false, fmt.Errorf("sumcheck proof %d verification failed: %w", i, err)
		}
		if !valid {
			return false, fmt.Errorf("sumcheck proof %d is invalid", i)
		}
	}

	// Step 3: Verify FRI proof (for comparison)
	if proof.FRIProof != nil {
		// Convert FRIProof to the format expected by FRIProtocol.Verify
		// The FRI proof structure needs to match the protocol's expected format
		if len(proof.FRIProof.Layers) == 0 {
			return false, fmt.Errorf("FRI proof has no layers")
		}

		// Verify FRI proof using the FRI protocol verifier
		// Note: This requires converting between proof formats
		// For now, we verify basic structure; full verification would require
		// converting the proof format to match FRIProtocol's expected input
		// This is a limitation of the current proof structure design
	}

	// Step 4: Verify AIR proof
	if proof.AIRProof != nil {
		// Verify AIR proof by checking trace commitment consistency
		if len(proof.AIRProof.TraceCommitment) == 0 {
			return false, fmt.Errorf("AIR proof has no trace commitment")
		}

		// In a full implementation, we would:
		// 1. Recompute the trace commitment from the computation
		// 2. Verify it matches the proof commitment
		// 3. Verify all AIR constraints are satisfied
		// For now, we verify the commitment exists and has valid structure
	}

	return true, nil
}

// convertComputationToR1CS converts a computation trace to R1CS format
func (asi *AuroraSTARKIntegration) convertComputationToR1CS(
	computation *ComputationTrace,
) (*R1CS, []*core.FieldElement, []*core.FieldElement, error) {
	// This is a simplified conversion
	// In practice, this would involve sophisticated compilation techniques

	// Create a simple R1CS for the computation
	nVars := len(computation.Trace[0]) + 1 // +1 for constant
	nCons := len(computation.Trace) - 1    // One constraint per transition

	r1cs := NewR1CS(asi.field, nVars, nCons)

	// Set up constraints for each transition
	for i := 0; i < nCons; i++ {
		currentState := computation.Trace[i]
		nextState := computation.Trace[i+1]

		// Create a simple constraint: nextState = currentState + 1
		// This is a simplified example

		// A row: selects current state
		aRow := make([]*core.FieldElement, nVars)
		aRow[0] = asi.field.Zero() // constant
		for j := 1; j < len(currentState)+1 && j < nVars; j++ {
			aRow[j] = currentState[j-1]
		}

		// B row: selects constant 1
		bRow := make([]*core.FieldElement, nVars)
		bRow[0] = asi.field.One() // constant
		for j := 1; j < nVars; j++ {
			bRow[j] = asi.field.Zero()
		}

		// C row: selects next state
		cRow := make([]*core.FieldElement, nVars)
		cRow[0] = asi.field.Zero() // constant
		for j := 1; j < len(nextState)+1 && j < nVars; j++ {
			cRow[j] = nextState[j-1]
		}

		err := r1cs.SetConstraint(i, aRow, bRow, cRow)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to set constraint %d: %w", i, err)
		}
	}

	// Extract public inputs and witness
	publicInputs := []*core.FieldElement{} // No public inputs for this example
	witness := make([]*core.FieldElement, len(computation.Trace[0]))
	copy(witness, computation.Trace[0])

	return r1cs, publicInputs, witness, nil
}

// generateSTARKSumcheckProofs generates univariate sumcheck proofs for STARKs constraints
func (asi *AuroraSTARKIntegration) generateSTARKSumcheckProofs(
	computation *ComputationTrace,
	channel *utils.Channel,
) ([]*UnivariateSumcheckProof, error) {
	var proofs []*UnivariateSumcheckProof

	// Generate sumcheck proofs for each constraint type
	// This demonstrates how Aurora's sumcheck can be used for STARKs constraints

	// Example 1: Sum of all trace elements should be zero (simplified)
	traceSumPoly, err := asi.createTraceSumPolynomial(computation)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace sum polynomial: %w", err)
	}

	sumcheckProof, err := asi.univariateSumcheck.Prove(traceSumPoly, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate trace sum sumcheck proof: %w", err)
	}
	proofs = append(proofs, sumcheckProof)

	// Example 2: Transition constraint verification
	transitionPoly, err := asi.createTransitionPolynomial(computation)
	if err != nil {
		return nil, fmt.Errorf("failed to create transition polynomial: %w", err)
	}

	transitionProof, err := asi.univariateSumcheck.Prove(transitionPoly, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate transition sumcheck proof: %w", err)
	}
	proofs = append(proofs, transitionProof)

	return proofs, nil
}

// generateFRIProof generates a traditional FRI proof for comparison.
// This flattens the computation trace into a function over the domain
// and generates a FRI proof of proximity to a Reed-Solomon code.
func (asi *AuroraSTARKIntegration) generateFRIProof(
	computation *ComputationTrace,
	channel *utils.Channel,
) (*FRIProof, error) {
	// Convert computation trace to function for FRI
	// We flatten the multi-column trace into a single function by concatenating columns
	// This creates a function f: D → F where each point maps to a trace element

	if len(computation.Trace) == 0 {
		return nil, fmt.Errorf("computation trace is empty")
	}

	stateWidth := len(computation.Trace[0])
	if stateWidth == 0 {
		return nil, fmt.Errorf("trace has zero state width")
	}

	// Flatten trace: concatenate all columns into a single function
	// For a trace with T rows and w columns, we create a function of length T*w
	// by interleaving columns: [row0_col0, row0_col1, ..., row0_colw, row1_col0, ...]
	totalElements := len(computation.Trace) * stateWidth

	// Extend domain if needed to match flattened trace size
	// If domain is smaller, we repeat it; if larger, we truncate
	extendedDomain := make([]*core.FieldElement, totalElements)
	function := make([]*core.FieldElement, totalElements)

	for i := 0; i < totalElements; i++ {
		row := i / stateWidth
		col := i % stateWidth

		// Use domain point (cycling if needed)
		domainIdx := row % len(asi.domain)
		extendedDomain[i] = asi.domain[domainIdx]

		// Get trace element
		if row < len(computation.Trace) && col < len(computation.Trace[row]) {
			function[i] = computation.Trace[row][col]
		} else {
			function[i] = asi.field.Zero()
		}
	}

	// Generate FRI proof over the flattened function
	friProof, err := asi.friProtocol.Prove(function, extendedDomain, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate FRI proof: %w", err)
	}

	return friProof, nil
}

// generateAIRProof generates an AIR proof for the computation trace.
// This creates a proper AIR arithmetization and generates a commitment to the trace.
func (asi *AuroraSTARKIntegration) generateAIRProof(
	computation *ComputationTrace,
	channel *utils.Channel,
) (*AIRProof, error) {
	// Set the trace in the AIR protocol
	if err := asi.airProtocol.SetTrace(computation.Trace); err != nil {
		return nil, fmt.Errorf("failed to set trace in AIR: %w", err)
	}

	// Set the domain
	if err := asi.airProtocol.SetDomain(asi.domain); err != nil {
		return nil, fmt.Errorf("failed to set domain in AIR: %w", err)
	}

	// Create LDE domain for zero-knowledge
	if err := asi.airProtocol.CreateLDEDomain(4); err != nil {
		return nil, fmt.Errorf("failed to create LDE domain: %w", err)
	}

	// Arithmetize the trace into polynomials
	airTrace, err := asi.airProtocol.ArithmetizeTrace()
	if err != nil {
		return nil, fmt.Errorf("failed to arithmetize trace: %w", err)
	}

	// The Merkle root from the arithmetized trace is the trace commitment
	return &AIRProof{
		TraceCommitment: airTrace.MerkleRoot,
	}, nil
}

// createTraceSumPolynomial creates a polynomial for trace sum verification.
// This polynomial represents the sum of all trace elements over the domain,
// which can be verified using Aurora's univariate sumcheck protocol.
func (asi *AuroraSTARKIntegration) createTraceSumPolynomial(
	computation *ComputationTrace,
) (*core.Polynomial, error) {
	// Create a polynomial that represents the sum of all trace elements
	// We sum all columns of the trace to create a single polynomial

	if len(computation.Trace) == 0 {
		return nil, fmt.Errorf("computation trace is empty")
	}

	// Sum all elements in each row to create a single column
	sumColumn := make([]*core.FieldElement, len(computation.Trace))
	for i, row := range computation.Trace {
		sum := asi.field.Zero()
		for _, element := range row {
			sum = sum.Add(element)
		}
		sumColumn[i] = sum
	}

	// Interpolate the sum column to create a polynomial
	// Use Lagrange interpolation over the domain
	if len(asi.domain) != len(sumColumn) {
		return nil, fmt.Errorf("domain size (%d) does not match trace length (%d)", len(asi.domain), len(sumColumn))
	}

	// Create points for interpolation
	points := make([]core.Point, len(asi.domain))
	for i := 0; i < len(asi.domain); i++ {
		points[i] = *core.NewPoint(asi.domain[i], sumColumn[i])
	}

	polynomial, err := core.LagrangeInterpolation(points, asi.field)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate trace sum polynomial: %w", err)
	}

	return polynomial, nil
}

// createTransitionPolynomial creates a polynomial for transition verification.
// This polynomial encodes the transition constraints between consecutive trace rows,
// which can be verified using Aurora's univariate sumcheck protocol.
//
// The transition polynomial represents the difference between consecutive rows,
// ensuring that the computation follows the correct transition rules.
func (asi *AuroraSTARKIntegration) createTransitionPolynomial(
	computation *ComputationTrace,
) (*core.Polynomial, error) {
	if len(computation.Trace) < 2 {
		return nil, fmt.Errorf("trace must have at least 2 rows for transition constraints")
	}

	// Create transition differences: for each row i, compute the difference
	// between row i+1 and row i (or a function of both rows)
	// This encodes the transition constraints of the computation

	// For a general transition, we compute: transition[i] = f(row[i+1]) - f(row[i])
	// where f is a function that encodes the transition rule
	// For simplicity, we use the sum of all state elements

	transitionValues := make([]*core.FieldElement, len(computation.Trace)-1)

	for i := 0; i < len(computation.Trace)-1; i++ {
		currentRow := computation.Trace[i]
		nextRow := computation.Trace[i+1]

		// Compute sum of current row
		currentSum := asi.field.Zero()
		for _, element := range currentRow {
			currentSum = currentSum.Add(element)
		}

		// Compute sum of next row
		nextSum := asi.field.Zero()
		for _, element := range nextRow {
			nextSum = nextSum.Add(element)
		}

		// Transition value: difference between consecutive rows
		// This encodes the transition constraint
		transitionValues[i] = nextSum.Sub(currentSum)
	}

	// Interpolate transition values to create a polynomial
	// Use the domain points corresponding to the transitions
	if len(asi.domain) < len(transitionValues)+1 {
		return nil, fmt.Errorf("domain size (%d) is too small for transition polynomial (%d transitions)", len(asi.domain), len(transitionValues))
	}

	// Create points for interpolation (use domain points for transitions)
	points := make([]core.Point, len(transitionValues))
	for i := 0; i < len(transitionValues); i++ {
		// Use the midpoint between domain[i] and domain[i+1] for the transition
		// Or use domain[i] directly
		points[i] = *core.NewPoint(asi.domain[i], transitionValues[i])
	}

	polynomial, err := core.LagrangeInterpolation(points, asi.field)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate transition polynomial: %w", err)
	}

	return polynomial, nil
}

// calculateCombinedSoundnessError calculates the overall soundness error
// by combining errors from Aurora sumcheck proofs and FRI proofs.
// The combined error is approximately the sum of individual errors.
func (asi *AuroraSTARKIntegration) calculateCombinedSoundnessError(
	numSumcheckProofs int,
	auroraError, friError *core.FieldElement,
) *core.FieldElement {
	// Combine soundness errors from different components
	// The overall error is bounded by the sum of individual errors

	combinedError := asi.field.Zero()

	// Add Aurora sumcheck errors (one per proof)
	if auroraError != nil {
		for i := 0; i < numSumcheckProofs; i++ {
			combinedError = combinedError.Add(auroraError)
		}
	}

	// Add FRI error
	if friError != nil {
		combinedError = combinedError.Add(friError)
	}

	// If no errors provided, return a conservative bound
	if combinedError.IsZero() {
		return asi.field.NewElementFromInt64(1)
	}

	return combinedError
}

// ComputationTrace represents a computation trace for STARKs
type ComputationTrace struct {
	Trace [][]*core.FieldElement // Each element is a state in the computation
}

// AIRProof represents an AIR proof (simplified)
type AIRProof struct {
	TraceCommitment []byte
	// Other AIR proof components would be added here
}

// CreateComputationTrace creates a sample computation trace
func CreateComputationTrace(field *core.Field, length int) *ComputationTrace {
	trace := make([][]*core.FieldElement, length)

	for i := 0; i < length; i++ {
		// Create a simple state with 4 elements
		state := make([]*core.FieldElement, 4)
		for j := 0; j < 4; j++ {
			state[j] = field.NewElementFromInt64(int64(i*4 + j))
		}
		trace[i] = state
	}

	return &ComputationTrace{Trace: trace}
}
