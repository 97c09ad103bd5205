package erasure

import (
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

var ErrTooManyLost = errors.New("erasure: too many shards lost, cannot recover")

// ReedSolomon splits a message into DataShards shards
// and adds ParityShards parity shards.
// Any DataShards of the resulting shards rebuild the message.
type ReedSolomon struct {
	DataShards   int
	ParityShards int
}

func (r ReedSolomon) Name() string {
	return fmt.Sprintf("reed-solomon(%d+%d)", r.DataShards, r.ParityShards)
}

func (r ReedSolomon) codec() (reedsolomon.Encoder, error) {
	if r.DataShards <= 0 || r.ParityShards <= 0 {
		return nil, fmt.Errorf("%w: %d data, %d parity shards", ErrInvalidConfig, r.DataShards, r.ParityShards)
	}
	return reedsolomon.New(r.DataShards, r.ParityShards)
}

// Overhead returns the storage overhead ratio (e.g., 1.4 for 10+4 config).
func (r ReedSolomon) Overhead() float64 {
	return float64(r.DataShards+r.ParityShards) / float64(r.DataShards)
}

func (r ReedSolomon) NewEncoder(data []byte) (Encoder, error) {
	enc, err := r.codec()
	if err != nil {
		return nil, err
	}
	// Split pads the final data shard and allocates the parity shards.
	shards, err := enc.Split(append([]byte(nil), data...))
	if err != nil {
		return nil, err
	}
	if err := enc.Encode(shards); err != nil {
		return nil, err
	}
	return rsEncoder(shards), nil
}

type rsEncoder [][]byte

func (e rsEncoder) Symbol(i int) ([]byte, bool) {
	if i >= len(e) {
		return nil, false
	}
	return e[i], true
}

func (r ReedSolomon) NewDecoder(length int) (Decoder, error) {
	enc, err := r.codec()
	if err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidConfig, length)
	}
	return &rsDecoder{
		enc:    enc,
		data:   r.DataShards,
		length: length,
		shards: make([][]byte, r.DataShards+r.ParityShards),
	}, nil
}

type rsDecoder struct {
	enc    reedsolomon.Encoder
	data   int
	length int

	shards [][]byte
	have   int
}

func (d *rsDecoder) Add(i int, symbol []byte) ([]byte, bool, error) {
	if i < 0 || i >= len(d.shards) {
		return nil, false, fmt.Errorf("erasure: shard %d out of range", i)
	}
	if d.shards[i] == nil {
		d.shards[i] = append([]byte(nil), symbol...)
		d.have++
	}
	if d.have < d.data {
		return nil, false, nil
	}

	if err := d.enc.ReconstructData(d.shards); err != nil {
		if errors.Is(err, reedsolomon.ErrTooFewShards) {
			return nil, false, ErrTooManyLost
		}
		return nil, false, err
	}

	// Join the data shards, dropping the padding.
	out := make([]byte, 0, d.length)
	for _, s := range d.shards[:d.data] {
		out = append(out, s[:min(len(s), d.length-len(out))]...)
	}
	return out, true, nil
}
