package vm

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// SpongeWidth is the number of field elements in the sponge's full state.
const SpongeWidth = 16

// SpongeRate is the number of elements absorbed or squeezed per call.
const SpongeRate = 10

// SpongeCapacity is the portion of the state never touched by absorb/squeeze.
const SpongeCapacity = SpongeWidth - SpongeRate

// poseidonPermute applies the fixed-width permutation to a 16-element sponge
// state. hash.PoseidonHash only compresses a slice down to a single scalar,
// so there is no literal 16-wide permutation matrix to call into; instead
// each output slot is derived by hashing the full state together with a
// domain-separation index, which keeps every output slot an independent,
// collision-resistant function of the whole input state while still routing
// every byte of entropy through the one primitive the crypto library
// actually exports.
func poseidonPermute(state [SpongeWidth]field.Element) [SpongeWidth]field.Element {
	var out [SpongeWidth]field.Element
	for i := 0; i < SpongeWidth; i++ {
		input := make([]field.Element, SpongeWidth+1)
		copy(input, state[:])
		input[SpongeWidth] = field.New(uint64(i))
		out[i] = hash.PoseidonHash(input)
	}
	return out
}

// poseidonDigest compresses an arbitrary-length input down to a 5-element
// digest by absorbing it into a freshly initialized sponge (capacity primed
// with the input length, Merkle-Damgard style domain separation) and
// squeezing the first 5 elements of rate.
func poseidonDigest(input []field.Element) [5]field.Element {
	var state [SpongeWidth]field.Element
	state[SpongeRate] = field.New(uint64(len(input)))

	for offset := 0; offset < len(input); offset += SpongeRate {
		end := offset + SpongeRate
		if end > len(input) {
			end = len(input)
		}
		chunk := input[offset:end]
		for i, v := range chunk {
			state[i] = state[i].Add(v)
		}
		state = poseidonPermute(state)
	}

	var digest [5]field.Element
	copy(digest[:], state[:5])
	return digest
}

// permuteStep pairs the sponge state fed into one poseidonPermute call with
// the state it produced, so callers that need to record coprocessor rows
// (the hash table) can see both endpoints of a round instead of only the
// final digest.
type permuteStep struct {
	before [SpongeWidth]field.Element
	after  [SpongeWidth]field.Element
}

// poseidonDigestTrace behaves like poseidonDigest but also returns the
// before/after state of every permute call it made along the way.
func poseidonDigestTrace(input []field.Element) ([5]field.Element, []permuteStep) {
	var state [SpongeWidth]field.Element
	state[SpongeRate] = field.New(uint64(len(input)))

	var steps []permuteStep
	for offset := 0; offset < len(input); offset += SpongeRate {
		end := offset + SpongeRate
		if end > len(input) {
			end = len(input)
		}
		chunk := input[offset:end]
		for i, v := range chunk {
			state[i] = state[i].Add(v)
		}
		before := state
		state = poseidonPermute(state)
		steps = append(steps, permuteStep{before: before, after: state})
	}

	var digest [5]field.Element
	copy(digest[:], state[:5])
	return digest, steps
}
