package lt

import (
	"fmt"
	"slices"

	"github.com/TheusHen/fountain/fountain/internal/prng"
)

// Selector tells a decoder which chunks a droplet combines.
// It is either [Seeded] or [Explicit].
type Selector interface {
	selector()
}

// Seeded selects Degree chunk indices drawn with replacement
// from the generator seeded with Seed.
// Indices drawn an even number of times cancel out.
type Seeded struct {
	Seed   uint64
	Degree int
}

// Explicit selects the single chunk Index.
type Explicit struct {
	Index int
}

func (Seeded) selector()   {}
func (Explicit) selector() {}

func (s Seeded) String() string   { return fmt.Sprintf("Seeded(%#x, %d)", s.Seed, s.Degree) }
func (e Explicit) String() string { return fmt.Sprintf("Explicit(%d)", e.Index) }

// Droplet is one encoded unit: the XOR of the chunks named by Selector,
// optionally transformed by an inner codec.
type Droplet struct {
	Selector Selector
	Data     []byte
}

// SeededIndices returns the chunk index multiset for a seeded droplet
// over k chunks, in draw order.
// Encoders and decoders both derive indices through this function.
func SeededIndices(seed uint64, degree, k int) []int {
	return prng.Indices(seed, degree, k)
}

// oddIndices reduces a multiset to the set of indices
// occurring an odd number of times, sorted.
// The input slice is reordered.
func oddIndices(idx []int) []int {
	slices.Sort(idx)
	out := idx[:0]
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && idx[j] == idx[i] {
			j++
		}
		if (j-i)%2 == 1 {
			out = append(out, idx[i])
		}
		i = j
	}
	return out
}
