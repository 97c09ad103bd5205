package erasure

import (
	"bytes"
	"errors"
	"math/rand/v2"
)

var ErrInvalidConfig = errors.New("erasure: invalid configuration")

// Scheme is an erasure code evaluated by [Run].
type Scheme interface {
	Name() string
	NewEncoder(data []byte) (Encoder, error)
	NewDecoder(length int) (Decoder, error)
}

// Encoder produces the symbols of one message.
type Encoder interface {
	// Symbol returns symbol i, for i counting up from zero.
	// Fixed-rate codes report false once every symbol has been produced.
	Symbol(i int) ([]byte, bool)
}

// Decoder rebuilds a message from the symbols that arrive.
type Decoder interface {
	// Add consumes symbol i.
	// Once enough symbols have arrived it returns the message and true.
	Add(i int, symbol []byte) ([]byte, bool, error)
}

// Trial is the outcome of one [Run].
type Trial struct {
	Scheme string

	// Symbols produced and symbols that survived the channel.
	Sent     int
	Received int

	// Bytes that survived the channel.
	ReceivedBytes int

	Recovered bool
}

// Overhead returns received bytes per message byte;
// 1.0 would be a perfect code.
func (t Trial) Overhead(length int) float64 {
	if length == 0 {
		return 0
	}
	return float64(t.ReceivedBytes) / float64(length)
}

// Run sends data through s over a channel that drops each symbol with
// probability loss, stopping after recovery, when a fixed-rate encoder
// runs out of symbols, or after budget symbols.
func Run(s Scheme, data []byte, loss float64, rng *rand.Rand, budget int) (Trial, error) {
	tr := Trial{Scheme: s.Name()}

	enc, err := s.NewEncoder(data)
	if err != nil {
		return tr, err
	}
	dec, err := s.NewDecoder(len(data))
	if err != nil {
		return tr, err
	}

	for i := 0; i < budget; i++ {
		sym, ok := enc.Symbol(i)
		if !ok {
			break
		}
		tr.Sent++

		if rng.Float64() < loss {
			continue
		}
		tr.Received++
		tr.ReceivedBytes += len(sym)

		out, done, err := dec.Add(i, sym)
		if err != nil {
			return tr, err
		}
		if done {
			tr.Recovered = bytes.Equal(out, data)
			return tr, nil
		}
	}
	return tr, nil
}
