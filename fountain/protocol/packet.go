package protocol

import (
	"fmt"
	"math"

	"github.com/TheusHen/fountain/fountain/lt"
	"github.com/fxamacker/cbor/v2"
)

const (
	kindSeeded   uint8 = 1
	kindExplicit uint8 = 2
)

// Packet carries one droplet of one stream.
//
// Every packet repeats the stream's declared length and chunk size,
// so a receiver can start decoding from whichever packet arrives first.
type Packet struct {
	StreamID  uint32
	Length    uint64
	ChunkSize uint32

	// Set when the message was lz4-compressed before encoding.
	// Length is then the compressed length.
	Compressed bool

	Droplet lt.Droplet
}

type wirePacket struct {
	_ struct{} `cbor:",toarray"`

	StreamID   uint32
	Length     uint64
	ChunkSize  uint32
	Compressed bool
	Kind       uint8
	Seed       uint64
	Degree     uint32
	Index      uint32
	Data       []byte
}

// EncodePacket returns the datagram for p, including the frame header.
func EncodePacket(p Packet) ([]byte, error) {
	w := wirePacket{
		StreamID:   p.StreamID,
		Length:     p.Length,
		ChunkSize:  p.ChunkSize,
		Compressed: p.Compressed,
		Data:       p.Droplet.Data,
	}

	switch s := p.Droplet.Selector.(type) {
	case lt.Seeded:
		if s.Degree < 1 || uint64(s.Degree) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: degree %d", ErrMalformed, s.Degree)
		}
		w.Kind, w.Seed, w.Degree = kindSeeded, s.Seed, uint32(s.Degree)
	case lt.Explicit:
		if s.Index < 0 || uint64(s.Index) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: index %d", ErrMalformed, s.Index)
		}
		w.Kind, w.Index = kindExplicit, uint32(s.Index)
	default:
		return nil, fmt.Errorf("%w: selector %T", ErrMalformed, p.Droplet.Selector)
	}

	body, err := encMode.Marshal(w)
	if err != nil {
		return nil, err
	}
	return AppendFrame(make([]byte, 0, 1+len(body)), Frame{Type: MessageTypeDroplet, Payload: body})
}

// DecodePacket parses the payload of a MessageTypeDroplet frame.
func DecodePacket(payload []byte) (Packet, error) {
	var w wirePacket
	if err := cbor.Unmarshal(payload, &w); err != nil {
		return Packet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Length == 0 || w.ChunkSize == 0 {
		return Packet{}, fmt.Errorf("%w: length %d, chunk size %d", ErrMalformed, w.Length, w.ChunkSize)
	}
	if w.Length > math.MaxInt {
		return Packet{}, fmt.Errorf("%w: length %d", ErrMalformed, w.Length)
	}

	p := Packet{
		StreamID:   w.StreamID,
		Length:     w.Length,
		ChunkSize:  w.ChunkSize,
		Compressed: w.Compressed,
		Droplet:    lt.Droplet{Data: w.Data},
	}
	switch w.Kind {
	case kindSeeded:
		p.Droplet.Selector = lt.Seeded{Seed: w.Seed, Degree: int(w.Degree)}
	case kindExplicit:
		p.Droplet.Selector = lt.Explicit{Index: int(w.Index)}
	default:
		return Packet{}, fmt.Errorf("%w: droplet kind %d", ErrMalformed, w.Kind)
	}
	return p, nil
}
