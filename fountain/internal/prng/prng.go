// Package prng is the deterministic generator shared by every component
// that must reproduce the same pseudo-random choices on both ends of a link:
// droplet index selection in the LT encoder and decoder,
// and parity-check matrix construction for the LDPC codes.
//
// The output for a given seed is part of the wire format.
// A droplet carries only its seed and degree,
// so any change to the keystream layout or to [Stream.IntN]
// silently breaks decoding of droplets produced by an older build.
package prng

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/chacha20"
)

// Stream is a ChaCha20 keystream (RFC 8439) keyed by a 64-bit seed,
// read as little-endian 64-bit words.
//
// Stream satisfies math/rand/v2.Source.
type Stream struct {
	c   *chacha20.Cipher
	buf [64]byte
	off int
}

// New returns a Stream for seed.
// The seed occupies the first eight key bytes, little-endian;
// the remaining key bytes and the nonce are zero.
func New(seed uint64) *Stream {
	var key [chacha20.KeySize]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	var nonce [chacha20.NonceSize]byte

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		panic(fmt.Errorf("BUG: chacha20 rejected fixed-size key and nonce: %w", err))
	}

	s := &Stream{c: c}
	s.off = len(s.buf)
	return s
}

// Uint64 returns the next 64-bit word of the keystream.
func (s *Stream) Uint64() uint64 {
	if s.off+8 > len(s.buf) {
		clear(s.buf[:])
		s.c.XORKeyStream(s.buf[:], s.buf[:])
		s.off = 0
	}
	v := binary.LittleEndian.Uint64(s.buf[s.off:])
	s.off += 8
	return v
}

// IntN returns a uniform value in [0, n),
// using Lemire's multiply-and-reject method.
// It panics if n <= 0.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		panic(fmt.Errorf("BUG: IntN requires positive bound (got %d)", n))
	}

	bound := uint64(n)
	hi, lo := bits.Mul64(s.Uint64(), bound)
	if lo < bound {
		thresh := -bound % bound
		for lo < thresh {
			hi, lo = bits.Mul64(s.Uint64(), bound)
		}
	}
	return int(hi)
}

// Indices returns degree values drawn with replacement from [0, n)
// by a fresh Stream for seed.
// Repeated values are kept.
func Indices(seed uint64, degree, n int) []int {
	s := New(seed)
	out := make([]int, degree)
	for i := range out {
		out[i] = s.IntN(n)
	}
	return out
}
