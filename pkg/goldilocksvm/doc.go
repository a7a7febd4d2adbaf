// Package goldilocksvm provides a production-ready zkSTARKs implementation with Vybium STARKs VM.
//
// Vybium STARKs VM is a zero-knowledge Scalable Transparent Argument of Knowledge (zkSTARK)
// system with a complete virtual machine implementation.
//
// # Features
//
// - Complete zkSTARK prover and verifier
// - Vybium STARKs VM with 38-instruction ISA
// - Cascade lookup tables for efficient U32 operations
// - Program attestation for recursive verification
// - Run-time permutation checks
// - Poseidon hash function with Grain LFSR and Cauchy MDS
// - Field-friendly cryptographic primitives
//
// # Quick Start
//
// Proving and verifying a program in one round trip:
//
//	program := &goldilocksvm.Program{
//		Instructions: []goldilocksvm.Instruction{
//			{Opcode: 0x01, Argument: nil}, // Push
//			{Opcode: 0x00, Argument: nil}, // Halt
//		},
//	}
//
//	params, claim, proof, err := goldilocksvm.ProveProgram(program, publicInput, secretInput)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if goldilocksvm.Verify(params, claim, proof) {
//		fmt.Println("Proof is valid!")
//	}
//
// # Using the Vybium STARKs VM
//
// Running a program without generating a proof:
//
//	publicOutput, err := goldilocksvm.Run(program, publicInput, secretInput)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Stepping through a program to inspect every intermediate state:
//
//	states, err := goldilocksvm.Debug(program, publicInput, secretInput, 0)
//	if err != nil {
//		log.Printf("execution stopped early: %v", err)
//	}
//
// Simulating a program to obtain both its public output and the algebraic
// execution trace a proof would be built from:
//
//	trace, publicOutput, err := goldilocksvm.Simulate(program, publicInput, secretInput)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Architecture
//
// Vybium STARKs VM uses a hybrid public/private architecture:
//
// - pkg/goldilocksvm/: Public API (this package)
// - internal/goldilocksvm/: Private implementation (not importable)
//
// The public API provides stable interfaces for:
// - STARK proving and verification
// - VM execution
// - Common types and errors
//
// Implementation details in internal/ can be refactored without breaking the public API.
//
// # Implementation Features
//
// Vybium STARKs VM provides a comprehensive Poseidon implementation with:
// - Dynamic Grain LFSR parameter generation (no large precomputed constant files)
// - Runtime Cauchy MDS matrix construction with cryptographic guarantees
// - Full sponge construction for variable-length inputs/outputs
// - Multi-field support for various prime fields
// - Configurable security levels with automatic parameter optimization
//
// # Performance
//
// Benchmark results on Intel i9-14900HX:
// - Enhanced Hash (128-bit): 2.5 ms/op
// - Grain LFSR: 12.5 μs/op
// - MDS Matrix Generation: 6.8 μs/op
// - Full Round: 6.0 μs/op
//
// # References
//
// - STARK Paper: https://eprint.iacr.org/2018/046
// - FRI Paper: https://eccc.weizmann.ac.il/report/2017/134/
//
// # License
//
// See LICENSE file in the repository root.
package goldilocksvm
