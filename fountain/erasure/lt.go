package erasure

import (
	"fmt"

	"github.com/TheusHen/fountain/fountain/lt"
	"github.com/TheusHen/fountain/fountain/protocol"
)

// LT is the fountain code in this module.
// Symbols are complete wire packets, so the comparison
// includes per-droplet framing overhead.
type LT struct {
	Config lt.EncoderConfig
}

func (l LT) Name() string {
	return fmt.Sprintf("lt-%s(%d)", l.Config.Mode, l.Config.ChunkSize)
}

func (l LT) NewEncoder(data []byte) (Encoder, error) {
	enc, err := lt.NewEncoder(data, l.Config)
	if err != nil {
		return nil, err
	}
	return &ltEncoder{
		enc: enc,
		header: protocol.Packet{
			Length:    uint64(len(data)),
			ChunkSize: uint32(l.Config.ChunkSize),
		},
	}, nil
}

type ltEncoder struct {
	enc    *lt.Encoder
	header protocol.Packet
}

// Symbol ignores i: droplets carry their own selectors.
func (e *ltEncoder) Symbol(int) ([]byte, bool) {
	pkt := e.header
	pkt.Droplet = e.enc.Next()
	b, err := protocol.EncodePacket(pkt)
	if err != nil {
		panic(fmt.Errorf("BUG: encoder produced an unencodable droplet: %w", err))
	}
	return b, true
}

func (l LT) NewDecoder(length int) (Decoder, error) {
	var opts []lt.DecoderOption
	if l.Config.Inner != nil {
		opts = append(opts, lt.WithInnerCodec(l.Config.Inner))
	}
	dec, err := lt.NewDecoder(length, l.Config.ChunkSize, opts...)
	if err != nil {
		return nil, err
	}
	return ltDecoder{dec}, nil
}

type ltDecoder struct {
	d *lt.Decoder
}

func (d ltDecoder) Add(_ int, symbol []byte) ([]byte, bool, error) {
	f, err := protocol.ParseFrame(symbol)
	if err != nil {
		return nil, false, err
	}
	pkt, err := protocol.DecodePacket(f.Payload)
	if err != nil {
		return nil, false, err
	}
	res, err := d.d.Catch(pkt.Droplet)
	if err != nil {
		return nil, false, err
	}
	return res.Data, res.State == lt.Finished, nil
}
