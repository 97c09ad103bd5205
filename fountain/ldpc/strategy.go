package ldpc

import (
	"fmt"
	"math"
)

// DefaultMaxIterations bounds both decoders when no limit is configured.
const DefaultMaxIterations = 50

// Strategy corrects a single codeword.
//
// Decode takes a packed codeword of c.CodewordBytes() bytes and returns
// a corrected codeword of the same size. It must not modify its input.
type Strategy interface {
	Decode(c *Code, codeword []byte) []byte
}

// NewStrategy returns the strategy named "bit-flip" or "min-sum"
// with the given iteration limit; zero means [DefaultMaxIterations].
func NewStrategy(name string, maxIterations int) (Strategy, error) {
	switch name {
	case "bit-flip":
		return BitFlip{MaxIterations: maxIterations}, nil
	case "min-sum", "":
		return MinSum{MaxIterations: maxIterations}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// BitFlip is Gallager's hard-decision bit-flipping decoder.
// Each iteration flips every bit for which a majority of its checks
// are unsatisfied. It stops when all checks pass, when no bit qualifies,
// or after MaxIterations.
type BitFlip struct {
	MaxIterations int
}

func (b BitFlip) Decode(c *Code, codeword []byte) []byte {
	iters := b.MaxIterations
	if iters <= 0 {
		iters = DefaultMaxIterations
	}

	hard := unpack(codeword, c.n)
	unsat := make([]int, c.n)
	for range iters {
		clear(unsat)
		failing := false
		for _, vs := range c.checks {
			var s uint8
			for _, v := range vs {
				s ^= hard[v]
			}
			if s == 0 {
				continue
			}
			failing = true
			for _, v := range vs {
				unsat[v]++
			}
		}
		if !failing {
			break
		}

		flipped := false
		for v, n := range unsat {
			if 2*n > len(c.vars[v]) {
				hard[v] ^= 1
				flipped = true
			}
		}
		if !flipped {
			break
		}
	}
	return pack(hard)
}

// MinSum is normalized min-sum belief propagation with a flooding schedule.
// Check-to-variable messages are the minimum incoming magnitude scaled by Scale.
type MinSum struct {
	MaxIterations int

	// Normalization factor; zero means 0.75.
	Scale float64
}

// certain is the message magnitude a single-variable check sends:
// the variable must be zero.
const certain = 1e6

func (ms MinSum) Decode(c *Code, codeword []byte) []byte {
	iters := ms.MaxIterations
	if iters <= 0 {
		iters = DefaultMaxIterations
	}
	scale := ms.Scale
	if scale == 0 {
		scale = 0.75
	}

	hard := unpack(codeword, c.n)
	if c.syndromeZero(hard) {
		return pack(hard)
	}
	channel := HardToLLRs(hard)

	// Messages are indexed [check][slot], matching c.checks.
	v2c := make([][]float64, len(c.checks))
	c2v := make([][]float64, len(c.checks))
	for r, vs := range c.checks {
		v2c[r] = make([]float64, len(vs))
		c2v[r] = make([]float64, len(vs))
		for slot, v := range vs {
			v2c[r][slot] = channel[v]
		}
	}

	for range iters {
		for r, in := range v2c {
			out := c2v[r]
			if len(in) == 1 {
				out[0] = certain
				continue
			}

			min1, min2 := math.Inf(1), math.Inf(1)
			at := -1
			negative := false
			for slot, l := range in {
				a := math.Abs(l)
				if l < 0 {
					negative = !negative
				}
				switch {
				case a < min1:
					min1, min2, at = a, min1, slot
				case a < min2:
					min2 = a
				}
			}

			for slot, l := range in {
				mag := min1
				if slot == at {
					mag = min2
				}
				neg := negative != (l < 0)
				if neg {
					out[slot] = -scale * mag
				} else {
					out[slot] = scale * mag
				}
			}
		}

		for v, es := range c.vars {
			total := channel[v]
			for _, e := range es {
				total += c2v[e.check][e.slot]
			}
			for _, e := range es {
				v2c[e.check][e.slot] = total - c2v[e.check][e.slot]
			}
			if total < 0 {
				hard[v] = 1
			} else {
				hard[v] = 0
			}
		}

		if c.syndromeZero(hard) {
			break
		}
	}
	return pack(hard)
}

// HardToLLRs maps hard bits to log-likelihood ratios:
// +1 for a zero bit and -1 for a one bit.
func HardToLLRs(hard []uint8) []float64 {
	out := make([]float64, len(hard))
	for i, b := range hard {
		if b == 0 {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}
