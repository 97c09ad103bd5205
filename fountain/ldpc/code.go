package ldpc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/TheusHen/fountain/fountain/internal/prng"
	"github.com/bits-and-blooms/bitset"
)

var (
	ErrInvalidCode     = errors.New("ldpc: invalid code parameters")
	ErrUnknownCode     = errors.New("ldpc: unknown code name")
	ErrCodewordLength  = errors.New("ldpc: codeword length is not a multiple of the block size")
	ErrUnknownStrategy = errors.New("ldpc: unknown decoding strategy")
)

const (
	infoColumnWeight = 3

	// Attempts to place one information column without closing
	// a length-4 cycle before the constraint is dropped for that column.
	placementAttempts = 1000
)

// edge is one nonzero entry of H, seen from its variable node:
// check is the row, slot is the variable's position within that row.
type edge struct {
	check int
	slot  int
}

// Code is an (n, k) systematic LDPC code.
// Codewords are the k information bits followed by n-k parity bits,
// packed most significant bit first.
//
// A Code is immutable and safe for concurrent use.
type Code struct {
	n, k int

	// infoRows[j] lists the rows of information column j.
	infoRows [][]int

	// checks[r] lists the variables (columns of H) in row r.
	checks [][]int

	// vars[v] lists the rows variable v participates in.
	vars [][]edge
}

// NewCode builds an (n, k) code.
// Both n and k must be multiples of eight, and n-k must be at least three.
func NewCode(n, k int) (*Code, error) {
	switch {
	case k <= 0 || n <= k:
		return nil, fmt.Errorf("%w: need 0 < k < n (got n=%d k=%d)", ErrInvalidCode, n, k)
	case n%8 != 0 || k%8 != 0:
		return nil, fmt.Errorf("%w: n and k must be byte multiples (got n=%d k=%d)", ErrInvalidCode, n, k)
	case n-k < infoColumnWeight:
		return nil, fmt.Errorf("%w: need at least %d parity bits (got %d)", ErrInvalidCode, infoColumnWeight, n-k)
	}

	m := n - k
	c := &Code{
		n:        n,
		k:        k,
		infoRows: placeColumns(m, k, uint64(n)<<32|uint64(k)),
	}

	c.checks = make([][]int, m)
	for j, rows := range c.infoRows {
		for _, r := range rows {
			c.checks[r] = append(c.checks[r], j)
		}
	}
	for r := 0; r < m; r++ {
		// Dual diagonal: parity bit r sits in rows r and r+1.
		if r > 0 {
			c.checks[r] = append(c.checks[r], k+r-1)
		}
		c.checks[r] = append(c.checks[r], k+r)
	}

	c.vars = make([][]edge, n)
	for r, vs := range c.checks {
		for slot, v := range vs {
			c.vars[v] = append(c.vars[v], edge{check: r, slot: slot})
		}
	}

	return c, nil
}

// placeColumns picks infoColumnWeight distinct rows for each of k columns.
// A column may not reuse a row pair already taken by an earlier column,
// nor contain two adjacent rows, which would share a pair with a parity column.
func placeColumns(m, k int, seed uint64) [][]int {
	s := prng.New(seed)

	// used marks row pairs (a, b), a < b, at bit a*m+b.
	used := bitset.New(uint(m * m))
	pair := func(a, b int) uint {
		if a > b {
			a, b = b, a
		}
		return uint(a*m + b)
	}

	cols := make([][]int, k)
	for j := range cols {
		var rows []int
		for attempt := 0; ; attempt++ {
			rows = distinctRows(s, m)

			if attempt >= placementAttempts {
				break
			}
			ok := true
			for x := 0; x < len(rows) && ok; x++ {
				for y := x + 1; y < len(rows); y++ {
					a, b := rows[x], rows[y]
					if a-b == 1 || b-a == 1 || used.Test(pair(a, b)) {
						ok = false
						break
					}
				}
			}
			if ok {
				break
			}
		}

		for x := range rows {
			for y := x + 1; y < len(rows); y++ {
				used.Set(pair(rows[x], rows[y]))
			}
		}
		cols[j] = rows
	}
	return cols
}

func distinctRows(s *prng.Stream, m int) []int {
	rows := make([]int, 0, infoColumnWeight)
	for len(rows) < infoColumnWeight {
		r := s.IntN(m)
		dup := false
		for _, x := range rows {
			if x == r {
				dup = true
				break
			}
		}
		if !dup {
			rows = append(rows, r)
		}
	}
	return rows
}

// N returns the codeword length in bits.
func (c *Code) N() int { return c.n }

// K returns the information length in bits.
func (c *Code) K() int { return c.k }

// InfoBytes returns the information block size in bytes.
func (c *Code) InfoBytes() int { return c.k / 8 }

// CodewordBytes returns the codeword size in bytes.
func (c *Code) CodewordBytes() int { return c.n / 8 }

func (c *Code) String() string { return fmt.Sprintf("n%dk%d", c.n, c.k) }

// Encode returns the codeword for one information block.
// It panics if len(info) != c.InfoBytes().
func (c *Code) Encode(info []byte) []byte {
	if len(info) != c.InfoBytes() {
		panic(fmt.Errorf("ldpc: Encode given %d bytes, want %d", len(info), c.InfoBytes()))
	}

	out := make([]byte, c.CodewordBytes())
	copy(out, info)

	var p uint8
	for r := range c.checks {
		s := p
		for _, v := range c.checks[r] {
			if v < c.k {
				s ^= bitAt(info, v)
			}
		}
		// p_r = p_(r-1) xor (row r syndrome over information bits).
		p = s
		if p == 1 {
			setBit(out, c.k+r)
		}
	}
	return out
}

// Decode corrects one codeword with strategy s
// and returns its information block.
// It panics if len(codeword) != c.CodewordBytes().
func (c *Code) Decode(codeword []byte, s Strategy) []byte {
	if len(codeword) != c.CodewordBytes() {
		panic(fmt.Errorf("ldpc: Decode given %d bytes, want %d", len(codeword), c.CodewordBytes()))
	}
	return s.Decode(c, codeword)[:c.InfoBytes()]
}

// syndromeZero reports whether bits (one byte per bit) satisfy every check.
func (c *Code) syndromeZero(bits []uint8) bool {
	for _, vs := range c.checks {
		var s uint8
		for _, v := range vs {
			s ^= bits[v]
		}
		if s != 0 {
			return false
		}
	}
	return true
}

// Check reports whether codeword satisfies every parity check.
func (c *Code) Check(codeword []byte) bool {
	return c.syndromeZero(unpack(codeword, c.n))
}

var (
	predefinedMu sync.Mutex
	predefined   = map[string][2]int{
		// Rate 1/2; the default for lossy, noisy links.
		"n512k256": {512, 256},
		// Rate 4/5.
		"n1280k1024": {1280, 1024},
	}
	predefinedCodes = map[string]*Code{}
)

// Lookup returns a predefined code by name.
// Codes are built once and shared.
func Lookup(name string) (*Code, error) {
	predefinedMu.Lock()
	defer predefinedMu.Unlock()

	if c, ok := predefinedCodes[name]; ok {
		return c, nil
	}
	nk, ok := predefined[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCode, name)
	}
	c, err := NewCode(nk[0], nk[1])
	if err != nil {
		panic(fmt.Errorf("BUG: predefined code %s is invalid: %w", name, err))
	}
	predefinedCodes[name] = c
	return c, nil
}

// Names returns the names accepted by [Lookup].
func Names() []string {
	return []string{"n512k256", "n1280k1024"}
}
