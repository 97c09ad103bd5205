package ldpc

import (
	"math/bits"
	"math/rand/v2"
)

func bitAt(b []byte, i int) uint8 {
	return (b[i>>3] >> (7 - uint(i&7))) & 1
}

func setBit(b []byte, i int) {
	b[i>>3] |= 1 << (7 - uint(i&7))
}

// unpack expands the first n bits of b into one byte per bit.
func unpack(b []byte, n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = bitAt(b, i)
	}
	return out
}

func pack(hard []uint8) []byte {
	out := make([]byte, (len(hard)+7)/8)
	for i, v := range hard {
		if v != 0 {
			setBit(out, i)
		}
	}
	return out
}

// BitErrors counts the bit positions where a and b differ.
// Bytes present in only one of them count as eight errors each.
func BitErrors(a, b []byte) int {
	n := min(len(a), len(b))
	errs := 8 * (max(len(a), len(b)) - n)
	for i := 0; i < n; i++ {
		errs += bits.OnesCount8(a[i] ^ b[i])
	}
	return errs
}

// Corrupt flips each bit of b independently with probability p,
// simulating a binary symmetric channel, and returns the number of flips.
func Corrupt(b []byte, p float64, r *rand.Rand) int {
	flips := 0
	for i := range b {
		for j := 0; j < 8; j++ {
			if r.Float64() < p {
				b[i] ^= 1 << j
				flips++
			}
		}
	}
	return flips
}
