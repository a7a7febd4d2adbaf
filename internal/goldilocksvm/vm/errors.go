package vm

import "errors"

// Sentinel errors classifying why Step (or a helper it calls) failed.
// Each exec* handler and the fetch/decode path wraps one of these with
// fmt.Errorf's %w so callers outside this package can recover the exact
// cause with errors.Is instead of pattern-matching on message text.
var (
	// ErrStackTooShallow is returned when an instruction pops from an empty
	// operand stack, or when an instruction not classified as stack-shrinking
	// leaves the stack shallower than it found it. No 16-element minimum depth
	// is enforced: the stack starts with the five digest words.
	ErrStackTooShallow = errors.New("stack too shallow")

	// ErrFailedU32Conversion is returned when a u32 instruction's operand
	// does not fit in 32 bits.
	ErrFailedU32Conversion = errors.New("operand does not fit in 32 bits")

	// ErrInverseOfZero is returned when invert is applied to the field-zero
	// element.
	ErrInverseOfZero = errors.New("inverse of zero")

	// ErrLogOfZero is returned when log_2_floor is applied to zero.
	ErrLogOfZero = errors.New("logarithm of zero")

	// ErrDivisionByZero is returned when div is called with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrAssertionFailed is returned when assert's top-of-stack element is
	// not one.
	ErrAssertionFailed = errors.New("assertion failed")

	// ErrJumpStackEmpty is returned when return or recurse executes with an
	// empty jump stack.
	ErrJumpStackEmpty = errors.New("jump stack is empty")

	// ErrIPOverflow is returned when the instruction pointer runs past the
	// end of the program without having executed halt.
	ErrIPOverflow = errors.New("instruction pointer overflow")

	// ErrEmptyPublicInput is returned when read_io executes with no public
	// input remaining.
	ErrEmptyPublicInput = errors.New("public input exhausted")

	// ErrEmptySecretInput is returned when divine executes with no secret
	// input remaining.
	ErrEmptySecretInput = errors.New("secret input exhausted")

	// ErrUnknownOpcode is returned when a program word does not match any
	// instruction in the canonical opcode table.
	ErrUnknownOpcode = errors.New("unknown opcode")
)
