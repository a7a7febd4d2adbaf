package goldilocksvm

import (
	"errors"
	"testing"

	"github.com/vybium/goldilocks-vm/internal/goldilocksvm/vm"
)

func TestVMErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		e := &VMError{Code: ErrInvalidConfig, Message: "invalid field modulus"}
		got := e.Error()
		want := "goldilocks-vm error [1]: invalid field modulus"
		if got != want {
			t.Fatalf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("boom")
		e := &VMError{Code: ErrVMExecution, Message: "execution failed", Cause: cause}
		got := e.Error()
		if got == "" {
			t.Fatal("Error() returned an empty string")
		}
		if !errors.Is(e, cause) {
			t.Fatal("errors.Is should see through VMError.Unwrap to the wrapped cause")
		}
	})
}

func TestVMErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying failure")
	e := &VMError{Code: ErrProofGeneration, Message: "proof generation failed", Cause: cause}

	if !errors.Is(e, cause) {
		t.Fatal("errors.Is should see through VMError.Unwrap to the wrapped cause")
	}

	e2 := &VMError{Code: ErrUnknown}
	if e2.Unwrap() != nil {
		t.Fatal("Unwrap() on a VMError with no Cause should return nil")
	}
}

func TestVMErrorIsComparesCodeOnly(t *testing.T) {
	a := &VMError{Code: ErrAssertionFailed, Message: "expected 1, got 0"}
	b := &VMError{Code: ErrAssertionFailed, Message: "expected 1, got 7", IP: 42}
	c := &VMError{Code: ErrIPOverflow, Message: "expected 1, got 0"}

	if !a.Is(b) {
		t.Fatal("two VMErrors with the same Code should match via Is, regardless of Message/IP")
	}
	if a.Is(c) {
		t.Fatal("VMErrors with different Codes should not match via Is")
	}
	if a.Is(errors.New("not a VMError")) {
		t.Fatal("Is should return false against a non-VMError target")
	}
}

func TestVMErrorCarriesExecutionContext(t *testing.T) {
	e := &VMError{Code: ErrAssertionFailed, Message: "assertion failed", IP: 7, Cycle: 12}
	if e.IP != 7 || e.Cycle != 12 {
		t.Fatalf("VMError did not retain IP/Cycle context: got IP=%d Cycle=%d", e.IP, e.Cycle)
	}
}

// vmErrorCode classifies the internal vm package's sentinel errors against
// the public ErrorCode taxonomy. Exercise the mapping directly so a future
// sentinel added to vm/errors.go without a matching case here is caught.
func TestVMErrorCodeClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"stack too shallow", vm.ErrStackTooShallow, ErrStackTooShallow},
		{"failed u32 conversion", vm.ErrFailedU32Conversion, ErrFailedU32Conversion},
		{"inverse of zero", vm.ErrInverseOfZero, ErrInverseOfZero},
		{"log of zero", vm.ErrLogOfZero, ErrLogOfZero},
		{"division by zero", vm.ErrDivisionByZero, ErrDivisionByZero},
		{"assertion failed", vm.ErrAssertionFailed, ErrAssertionFailed},
		{"jump stack empty", vm.ErrJumpStackEmpty, ErrJumpStackEmpty},
		{"ip overflow", vm.ErrIPOverflow, ErrIPOverflow},
		{"empty public input", vm.ErrEmptyPublicInput, ErrEmptyPublicInput},
		{"empty secret input", vm.ErrEmptySecretInput, ErrEmptySecretInput},
		{"unknown opcode", vm.ErrUnknownOpcode, ErrUnknownOpcode},
		{"unmapped error falls back", errors.New("some other failure"), ErrVMExecution},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := vmErrorCode(tc.err); got != tc.want {
				t.Fatalf("vmErrorCode(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
