package goldilocksvm

import "testing"

func TestDefaultVMConfig(t *testing.T) {
	cfg := DefaultVMConfig()

	if cfg.FieldModulus != "18446744069414584321" {
		t.Fatalf("DefaultVMConfig().FieldModulus = %q, want the Goldilocks prime", cfg.FieldModulus)
	}
	if !cfg.ProgramAttestation || !cfg.PermutationChecks || !cfg.LookupTables {
		t.Fatalf("DefaultVMConfig() should enable attestation/permutation/lookup by default, got %+v", cfg)
	}
}

func TestProgramInstructionLiteral(t *testing.T) {
	f, err := goldilocksField()
	if err != nil {
		t.Fatalf("goldilocksField: %v", err)
	}

	p := &Program{
		Instructions: []Instruction{
			{Opcode: 1, Argument: f.NewElementFromUint64(7)}, // push
			{Opcode: 0, Argument: nil},                       // halt
		},
	}

	if len(p.Instructions) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(p.Instructions))
	}
	if p.Instructions[0].Argument == nil {
		t.Fatal("push instruction should carry a non-nil argument")
	}
	if p.Instructions[1].Argument != nil {
		t.Fatal("halt instruction should carry no argument")
	}
}

func TestExecutionTraceFieldsPopulatedBySimulate(t *testing.T) {
	program := pushAddHaltProgram(t, 4, 9)

	trace, _, err := Simulate(program, nil, nil)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}

	if trace.CycleCount <= 0 {
		t.Fatalf("ExecutionTrace.CycleCount = %d, want > 0 for a program that executed at least one cycle", trace.CycleCount)
	}
	if trace.PublicOutput == nil {
		t.Fatal("ExecutionTrace.PublicOutput should be non-nil even when the program writes nothing to it")
	}
	if trace.internalAET == nil {
		t.Fatal("ExecutionTrace.internalAET should carry the built AET for proof generation")
	}
}

func TestVMStateSnapshotShape(t *testing.T) {
	program := pushAddHaltProgram(t, 1, 2)

	states, err := Debug(program, nil, nil, 0)
	if err != nil {
		t.Fatalf("Debug returned error: %v", err)
	}
	if len(states) == 0 {
		t.Fatal("Debug should return at least one snapshot")
	}

	first := states[0]
	if first.Halted {
		t.Fatal("the first snapshot of a multi-step program should not already be halted")
	}
	if first.CycleCount != 0 {
		t.Fatalf("the first snapshot's CycleCount = %d, want 0", first.CycleCount)
	}

	last := states[len(states)-1]
	if !last.Halted {
		t.Fatal("the last snapshot should be the halted state")
	}
}

func TestProofVerificationResultZeroValue(t *testing.T) {
	var r ProofVerificationResult
	if r.Valid {
		t.Fatal("zero-value ProofVerificationResult should not claim validity")
	}
	if r.Error != "" {
		t.Fatal("zero-value ProofVerificationResult should carry no error message")
	}
}
