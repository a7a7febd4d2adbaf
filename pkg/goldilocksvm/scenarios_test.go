package goldilocksvm

// Concrete execution scenarios exercising the VM end to end through the
// public driver entry points, beyond the single push/add/halt program
// vm_test.go's helper builds.

import "testing"

// u32Program builds `push a; push b; <op>; write_io; halt`, leaving the
// op's result as the sole public output word. popU32 pops the top of stack
// first, so the second push (b) becomes the op's left-hand operand.
func u32Program(t *testing.T, a, b uint64, opcode byte) *Program {
	t.Helper()

	f, err := goldilocksField()
	if err != nil {
		t.Fatalf("goldilocksField: %v", err)
	}

	return &Program{
		Instructions: []Instruction{
			{Opcode: 1, Argument: f.NewElementFromUint64(a)}, // push
			{Opcode: 1, Argument: f.NewElementFromUint64(b)}, // push
			{Opcode: opcode, Argument: nil},                  // lt / and
			{Opcode: 66, Argument: nil},                      // write_io
			{Opcode: 0, Argument: nil},                       // halt
		},
	}
}

func TestU32LessThan(t *testing.T) {
	// push 5; push 3; lt -> lhs=3, rhs=5 -> 3 < 5 -> true
	program := u32Program(t, 5, 3, 6) // 6 == Lt

	out, err := Run(program, nil, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one output word, got %d", len(out))
	}
	if out[0].Big().Uint64() != 1 {
		t.Fatalf("lt(3, 5) = %s, want 1 (true)", out[0].Big())
	}
}

func TestU32And(t *testing.T) {
	// push 10; push 6; and -> lhs=6, rhs=10 -> 6 & 10 = 2
	program := u32Program(t, 10, 6, 14) // 14 == And

	out, err := Run(program, nil, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one output word, got %d", len(out))
	}
	if out[0].Big().Uint64() != 2 {
		t.Fatalf("6 AND 10 = %s, want 2", out[0].Big())
	}
}

func TestAssertionFailureReportsInstructionPointer(t *testing.T) {
	f, err := goldilocksField()
	if err != nil {
		t.Fatalf("goldilocksField: %v", err)
	}

	// push 3; assert -- assert requires the top of stack to be exactly 1.
	program := &Program{
		Instructions: []Instruction{
			{Opcode: 1, Argument: f.NewElementFromUint64(3)}, // push, words 0-1
			{Opcode: 18, Argument: nil},                      // assert, word 2
		},
	}

	_, _, err = Simulate(program, nil, nil)
	if err == nil {
		t.Fatal("Simulate should fail when assert's operand is not 1")
	}
	vmErr, ok := err.(*VMError)
	if !ok {
		t.Fatalf("expected a *VMError, got %T: %v", err, err)
	}
	if vmErr.Code != ErrAssertionFailed {
		t.Fatalf("expected ErrAssertionFailed, got %v", vmErr.Code)
	}
	if vmErr.IP != 2 {
		t.Fatalf("expected the failing assert to be reported at IP 2, got %d", vmErr.IP)
	}
}

func TestProgramWithoutHaltFailsWithIPOverflow(t *testing.T) {
	f, err := goldilocksField()
	if err != nil {
		t.Fatalf("goldilocksField: %v", err)
	}

	// push 2; push 3; add -- no halt, so the machine runs off the end of
	// the program once the instruction pointer reaches the word count.
	program := &Program{
		Instructions: []Instruction{
			{Opcode: 1, Argument: f.NewElementFromUint64(2)},
			{Opcode: 1, Argument: f.NewElementFromUint64(3)},
			{Opcode: 34, Argument: nil}, // add
		},
	}

	_, _, err = Simulate(program, nil, nil)
	if err == nil {
		t.Fatal("Simulate should fail when the program never executes halt")
	}
	vmErr, ok := err.(*VMError)
	if !ok || vmErr.Code != ErrIPOverflow {
		t.Fatalf("expected ErrIPOverflow, got %v", err)
	}
}

func TestReadIoThenWriteIoRoundTrips(t *testing.T) {
	f, err := goldilocksField()
	if err != nil {
		t.Fatalf("goldilocksField: %v", err)
	}

	// read_io; write_io; halt -- the public input word is echoed straight
	// back out to public output.
	program := &Program{
		Instructions: []Instruction{
			{Opcode: 128, Argument: nil}, // read_io
			{Opcode: 66, Argument: nil},  // write_io
			{Opcode: 0, Argument: nil},   // halt
		},
	}

	out, err := Run(program, []*FieldElement{f.NewElementFromUint64(41)}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(out) != 1 || out[0].Big().Uint64() != 41 {
		t.Fatalf("expected public output [41], got %v", out)
	}
}

func TestReadIoUnderflowFailsWithEmptyPublicInput(t *testing.T) {
	// read_io; halt -- no public input is supplied at all.
	program := &Program{
		Instructions: []Instruction{
			{Opcode: 128, Argument: nil}, // read_io
			{Opcode: 0, Argument: nil},   // halt
		},
	}

	_, _, err := Simulate(program, nil, nil)
	if err == nil {
		t.Fatal("Simulate should fail when read_io has no public input left")
	}
	vmErr, ok := err.(*VMError)
	if !ok || vmErr.Code != ErrEmptyPublicInput {
		t.Fatalf("expected ErrEmptyPublicInput, got %v", err)
	}
}
