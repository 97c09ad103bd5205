package session_test

import (
	"context"
	"math/rand/v2"
	"sync"
)

// lossyEnd is one side of an in-memory datagram link
// that drops each outgoing datagram with a fixed probability.
type lossyEnd struct {
	in  <-chan []byte
	out chan<- []byte

	mu   sync.Mutex
	rng  *rand.Rand
	loss float64
}

func newLossyPipe(loss float64, seed uint64) (a, b *lossyEnd) {
	ab := make(chan []byte, 1024)
	ba := make(chan []byte, 1024)
	a = &lossyEnd{in: ba, out: ab, rng: rand.New(rand.NewPCG(seed, 1)), loss: loss}
	b = &lossyEnd{in: ab, out: ba, rng: rand.New(rand.NewPCG(seed, 2)), loss: loss}
	return a, b
}

func (e *lossyEnd) SendDatagram(b []byte) error {
	e.mu.Lock()
	drop := e.rng.Float64() < e.loss
	e.mu.Unlock()
	if drop {
		return nil
	}

	select {
	case e.out <- append([]byte(nil), b...):
	default:
		// Queue full; the datagram is lost like any other.
	}
	return nil
}

func (e *lossyEnd) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	select {
	case b := <-e.in:
		return b, nil
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}
