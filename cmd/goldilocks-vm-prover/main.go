package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/vybium/goldilocks-vm/internal/goldilocksvm/core"
	"github.com/vybium/goldilocks-vm/pkg/goldilocksvm"
)

// Input format matches Triton VM's interface
type ClaimInput struct {
	ProgramDigest string   `json:"program_digest"` // Hex string
	Version       uint32   `json:"version"`
	Input         []uint64 `json:"input"`
	Output        []uint64 `json:"output"`
}

type ProgramInput struct {
	Instructions   []string               `json:"instructions"` // String format like "Halt", "Push(42)"
	AddressToLabel map[string]uint64      `json:"address_to_label,omitempty"`
	DebugInfo      map[string]interface{} `json:"debug_information,omitempty"`
}

type NonDeterminismInput struct {
	IndividualTokens []uint64          `json:"individual_tokens"`
	Digests          []string          `json:"digests"`
	Ram              map[string]uint64 `json:"ram"`
}

func main() {
	// Read JSON lines from stdin (like Triton VM prover)
	scanner := bufio.NewScanner(os.Stdin)

	// Line 1: Claim
	if !scanner.Scan() {
		fatal("Failed to read claim")
	}
	var claimInput ClaimInput
	if err := json.Unmarshal(scanner.Bytes(), &claimInput); err != nil {
		fatal(fmt.Sprintf("Failed to parse claim: %v", err))
	}

	// Line 2: Program
	if !scanner.Scan() {
		fatal("Failed to read program")
	}
	var programInput ProgramInput
	if err := json.Unmarshal(scanner.Bytes(), &programInput); err != nil {
		fatal(fmt.Sprintf("Failed to parse program: %v", err))
	}

	// Line 3: NonDeterminism
	if !scanner.Scan() {
		fatal("Failed to read non_determinism")
	}
	var nonDetInput NonDeterminismInput
	if err := json.Unmarshal(scanner.Bytes(), &nonDetInput); err != nil {
		fatal(fmt.Sprintf("Failed to parse non_determinism: %v", err))
	}

	// Line 4: Max padded height (optional)
	if !scanner.Scan() {
		fatal("Failed to read max_log2_padded_height")
	}
	var maxPaddedHeight *uint8
	if err := json.Unmarshal(scanner.Bytes(), &maxPaddedHeight); err != nil {
		fatal(fmt.Sprintf("Failed to parse max_log2_padded_height: %v", err))
	}

	// Line 5: Environment variables
	if !scanner.Scan() {
		fatal("Failed to read env_variables")
	}
	var envVars map[string]interface{}
	if err := json.Unmarshal(scanner.Bytes(), &envVars); err != nil {
		fatal(fmt.Sprintf("Failed to parse env_variables: %v", err))
	}

	// Convert inputs to Vybium STARKs VM format
	program, err := convertProgram(programInput)
	if err != nil {
		fatal(fmt.Sprintf("Failed to convert program: %v", err))
	}

	// Adjust config based on padded height if needed
	if maxPaddedHeight != nil {
		logStderr(fmt.Sprintf("Max log2 padded height: %d", *maxPaddedHeight))
	}

	// prove_program validates the canonical range of every input word,
	// executes the program to build its algebraic execution trace, and
	// delegates to the STARK backend for proof generation.
	logStderr("Proving program...")
	_, _, proof, err := goldilocksvm.ProveProgram(program, claimInput.Input, nonDetInput.IndividualTokens)
	if err != nil {
		fatal(fmt.Sprintf("Proof generation failed: %v", err))
	}

	logStderr("Proof generated successfully")

	// Serialize proof
	proofBytes, err := json.Marshal(proof)
	if err != nil {
		fatal(fmt.Sprintf("Failed to serialize proof: %v", err))
	}

	// Write proof to stdout (like Triton VM)
	os.Stdout.Write(proofBytes)
	os.Stdout.Write([]byte("\n"))
}

func convertProgram(input ProgramInput) (*goldilocksvm.Program, error) {
	instructions := make([]goldilocksvm.Instruction, len(input.Instructions))

	for i, instStr := range input.Instructions {
		opcode, arg, err := parseInstruction(instStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse instruction %d (%s): %w", i, instStr, err)
		}

		instructions[i] = goldilocksvm.Instruction{
			Opcode:   opcode,
			Argument: arg,
		}
	}

	return &goldilocksvm.Program{
		Instructions: instructions,
	}, nil
}

// noArgOpcodes maps every instruction that carries no immediate to its
// canonical opcode. Only push, dup, swap and call take one.
var noArgOpcodes = map[string]byte{
	"Halt":         0,
	"Pop":          2,
	"Split":        4,
	"Lt":           6,
	"Divine":       8,
	"Skiz":         10,
	"Log2Floor":    12,
	"And":          14,
	"Nop":          16,
	"Assert":       18,
	"Div":          20,
	"Xor":          22,
	"Return":       24,
	"WriteMem":     26,
	"PopCount":     28,
	"Pow":          30,
	"Recurse":      32,
	"Add":          34,
	"ReadMem":      40,
	"Mul":          42,
	"Hash":         48,
	"Eq":           50,
	"DivineSibling": 56,
	"XbMul":        58,
	"AssertVector": 64,
	"WriteIo":      66,
	"AbsorbInit":   72,
	"Absorb":       80,
	"Squeeze":      88,
	"Invert":       96,
	"XxAdd":        104,
	"XxMul":        112,
	"XInvert":      120,
	"ReadIo":       128,
}

// argOpcodes maps every instruction that carries an immediate argument
// (given as "Name(value)") to its canonical opcode.
var argOpcodes = map[string]byte{
	"Push": 1,
	"Dup":  9,
	"Swap": 17,
	"Call": 25,
}

func parseInstruction(instStr string) (byte, *goldilocksvm.FieldElement, error) {
	if opcode, ok := noArgOpcodes[instStr]; ok {
		return opcode, nil, nil
	}

	if strings.Contains(instStr, "(") {
		parts := strings.SplitN(instStr, "(", 2)
		if len(parts) != 2 {
			return 0, nil, fmt.Errorf("invalid instruction format: %s", instStr)
		}

		opName := parts[0]
		argStr := strings.TrimSuffix(parts[1], ")")

		opcode, ok := argOpcodes[opName]
		if !ok {
			return 0, nil, fmt.Errorf("instruction does not take an argument: %s", opName)
		}

		var argVal uint64
		if _, err := fmt.Sscanf(argStr, "%d", &argVal); err != nil {
			return 0, nil, fmt.Errorf("invalid argument: %s", argStr)
		}

		return opcode, convertFieldElement(argVal), nil
	}

	return 0, nil, fmt.Errorf("unknown instruction: %s", instStr)
}

func convertFieldElement(val uint64) *goldilocksvm.FieldElement {
	// Create the Goldilocks field
	modulus := new(big.Int)
	modulus.SetString("18446744069414584321", 10)
	coreField, err := core.NewField(modulus)
	if err != nil {
		fatal(fmt.Sprintf("Failed to create field: %v", err))
	}

	// Create element with the value
	bigVal := new(big.Int).SetUint64(val)
	return coreField.NewElement(bigVal)
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "riva-vm:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
