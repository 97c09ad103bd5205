package lt_test

import (
	"errors"
	"math/rand/v2"
)

// repetition is a triple-repetition inner code with bitwise majority voting.
// It pads payloads to a multiple of eight bytes so the decoder
// has to truncate the inner output.
type repetition struct{}

func (repetition) Encode(payload []byte) []byte {
	n := (len(payload) + 7) &^ 7
	out := make([]byte, 3*n)
	for i := 0; i < 3; i++ {
		copy(out[i*n:], payload)
	}
	return out
}

func (repetition) Decode(codeword []byte) ([]byte, error) {
	if len(codeword)%24 != 0 {
		return nil, errors.New("repetition: codeword length not a multiple of 24")
	}
	n := len(codeword) / 3
	a, b, c := codeword[:n], codeword[n:2*n], codeword[2*n:]
	out := make([]byte, n)
	for i := range out {
		out[i] = a[i]&b[i] | a[i]&c[i] | b[i]&c[i]
	}
	return out, nil
}

func randomMessage(seed uint64, n int) []byte {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(rng.Uint32())
	}
	return out
}
