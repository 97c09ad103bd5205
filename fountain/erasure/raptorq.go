package erasure

import (
	"fmt"

	rqq "github.com/xssnick/raptorq"
)

// RaptorQ is the RFC 6330 fountain code with SymbolSize-byte symbols.
// Symbols below the source symbol count carry the message itself.
type RaptorQ struct {
	SymbolSize int
}

func (r RaptorQ) Name() string { return fmt.Sprintf("raptorq(%d)", r.SymbolSize) }

func (r RaptorQ) NewEncoder(data []byte) (Encoder, error) {
	if r.SymbolSize <= 0 {
		return nil, fmt.Errorf("%w: symbol size %d", ErrInvalidConfig, r.SymbolSize)
	}
	enc, err := rqq.NewRaptorQ(uint32(r.SymbolSize)).CreateEncoder(data)
	if err != nil {
		return nil, err
	}
	return rqEncoder{enc}, nil
}

type rqEncoder struct {
	e *rqq.Encoder
}

func (e rqEncoder) Symbol(i int) ([]byte, bool) {
	return e.e.GenSymbol(uint32(i)), true
}

func (r RaptorQ) NewDecoder(length int) (Decoder, error) {
	if r.SymbolSize <= 0 || length <= 0 {
		return nil, fmt.Errorf("%w: symbol size %d, length %d", ErrInvalidConfig, r.SymbolSize, length)
	}
	dec, err := rqq.NewRaptorQ(uint32(r.SymbolSize)).CreateDecoder(uint32(length))
	if err != nil {
		return nil, err
	}
	return rqDecoder{dec}, nil
}

type rqDecoder struct {
	d *rqq.Decoder
}

func (d rqDecoder) Add(i int, symbol []byte) ([]byte, bool, error) {
	canTry, err := d.d.AddSymbol(uint32(i), symbol)
	if err != nil {
		return nil, false, err
	}
	if !canTry {
		return nil, false, nil
	}
	// A failed attempt means the symbols so far do not span the
	// source block; more will arrive.
	ok, data, err := d.d.Decode()
	if err != nil || !ok {
		return nil, false, nil
	}
	return data, true, nil
}
