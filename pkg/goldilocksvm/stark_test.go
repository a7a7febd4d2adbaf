package goldilocksvm

import (
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func TestProveProgramUsesDefaultSTARKParameters(t *testing.T) {
	program := pushAddHaltProgram(t, 2, 3)

	params, _, _, err := ProveProgram(program, nil, nil)
	if err != nil {
		t.Fatalf("ProveProgram returned error: %v", err)
	}

	if params.SecurityLevel != 160 {
		t.Fatalf("ProveProgram's params.SecurityLevel = %d, want the default 160", params.SecurityLevel)
	}
	if params.FRIExpansionFactor != 4 {
		t.Fatalf("ProveProgram's params.FRIExpansionFactor = %d, want the default 4", params.FRIExpansionFactor)
	}
}

func TestVerifyRejectsTamperedClaim(t *testing.T) {
	program := pushAddHaltProgram(t, 2, 3)

	params, claim, proof, err := ProveProgram(program, nil, nil)
	if err != nil {
		t.Fatalf("ProveProgram returned error: %v", err)
	}
	if !Verify(params, claim, proof) {
		t.Fatal("Verify rejected a genuine proof before tampering")
	}

	tampered := *claim
	tampered.PublicOutput = append([]field.Element{}, claim.PublicOutput...)
	tampered.PublicOutput = append(tampered.PublicOutput, field.New(999))

	if Verify(params, &tampered, proof) {
		t.Fatal("Verify accepted a proof against a claim whose public output was tampered with")
	}
}

func TestVerifyRejectsWrongParameters(t *testing.T) {
	program := pushAddHaltProgram(t, 2, 3)

	params, claim, proof, err := ProveProgram(program, nil, nil)
	if err != nil {
		t.Fatalf("ProveProgram returned error: %v", err)
	}

	tamperedParams := params
	tamperedParams.SecurityLevel = params.SecurityLevel + 32

	if Verify(tamperedParams, claim, proof) {
		t.Fatal("Verify accepted a proof checked under different STARK parameters than it was produced with")
	}
}
