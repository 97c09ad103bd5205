package ldpc

import "fmt"

// Codec applies a [Code] to payloads of any length
// by splitting them into information blocks.
// The final block is zero-padded, so decoded payloads may be longer
// than the originals; callers truncate.
//
// Codec satisfies lt.InnerCodec.
type Codec struct {
	Code *Code

	// Decoding strategy; nil means MinSum with defaults.
	Strategy Strategy
}

// NewCodec returns a Codec for the predefined code name and strategy s.
func NewCodec(name string, s Strategy) (*Codec, error) {
	code, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return &Codec{Code: code, Strategy: s}, nil
}

// EncodedLen returns the codeword length for a payload of n bytes.
func (c *Codec) EncodedLen(n int) int {
	ib := c.Code.InfoBytes()
	return (n + ib - 1) / ib * c.Code.CodewordBytes()
}

func (c *Codec) Encode(payload []byte) []byte {
	ib := c.Code.InfoBytes()
	out := make([]byte, 0, c.EncodedLen(len(payload)))

	block := make([]byte, ib)
	for off := 0; off < len(payload); off += ib {
		n := copy(block, payload[off:])
		clear(block[n:])
		out = append(out, c.Code.Encode(block)...)
	}
	return out
}

func (c *Codec) Decode(codeword []byte) ([]byte, error) {
	cb := c.Code.CodewordBytes()
	if len(codeword) == 0 || len(codeword)%cb != 0 {
		return nil, fmt.Errorf("%w: got %d bytes, block is %d", ErrCodewordLength, len(codeword), cb)
	}

	s := c.Strategy
	if s == nil {
		s = MinSum{}
	}

	out := make([]byte, 0, len(codeword)/cb*c.Code.InfoBytes())
	for off := 0; off < len(codeword); off += cb {
		out = append(out, c.Code.Decode(codeword[off:off+cb], s)...)
	}
	return out, nil
}
