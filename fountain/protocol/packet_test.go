package protocol_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/TheusHen/fountain/fountain/lt"
	"github.com/TheusHen/fountain/fountain/protocol"
)

func TestPacketRoundTrip(t *testing.T) {
	for _, sel := range []lt.Selector{
		lt.Seeded{Seed: math.MaxUint64, Degree: 17},
		lt.Seeded{Seed: 0, Degree: 1},
		lt.Explicit{Index: 0},
		lt.Explicit{Index: 41},
	} {
		in := protocol.Packet{
			StreamID:   7,
			Length:     1 << 40,
			ChunkSize:  1024,
			Compressed: true,
			Droplet:    lt.Droplet{Selector: sel, Data: []byte{0, 1, 2, 0xff}},
		}

		b, err := protocol.EncodePacket(in)
		if err != nil {
			t.Fatalf("EncodePacket(%v): %v", sel, err)
		}
		f, err := protocol.ParseFrame(b)
		if err != nil {
			t.Fatalf("ParseFrame: %v", err)
		}
		if f.Type != protocol.MessageTypeDroplet {
			t.Fatalf("frame type %v", f.Type)
		}

		out, err := protocol.DecodePacket(f.Payload)
		if err != nil {
			t.Fatalf("DecodePacket: %v", err)
		}
		if out.StreamID != in.StreamID || out.Length != in.Length ||
			out.ChunkSize != in.ChunkSize || out.Compressed != in.Compressed {
			t.Fatalf("header mismatch: got %+v want %+v", out, in)
		}
		if out.Droplet.Selector != sel {
			t.Fatalf("selector: got %v want %v", out.Droplet.Selector, sel)
		}
		if !bytes.Equal(out.Droplet.Data, in.Droplet.Data) {
			t.Fatalf("data: got %x want %x", out.Droplet.Data, in.Droplet.Data)
		}
	}
}

func TestPacketDeterministic(t *testing.T) {
	p := protocol.Packet{
		StreamID:  1,
		Length:    10,
		ChunkSize: 4,
		Droplet:   lt.Droplet{Selector: lt.Seeded{Seed: 3, Degree: 2}, Data: []byte("abcd")},
	}
	a, err := protocol.EncodePacket(p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := protocol.EncodePacket(p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("encoding is not deterministic")
	}
}

func TestEncodePacketRejectsBadSelector(t *testing.T) {
	for _, sel := range []lt.Selector{nil, lt.Seeded{Degree: 0}, lt.Explicit{Index: -1}} {
		_, err := protocol.EncodePacket(protocol.Packet{
			Length:    1,
			ChunkSize: 1,
			Droplet:   lt.Droplet{Selector: sel, Data: []byte{0}},
		})
		if !errors.Is(err, protocol.ErrMalformed) {
			t.Fatalf("%v: expected ErrMalformed, got %v", sel, err)
		}
	}
}

func TestDecodePacketMalformed(t *testing.T) {
	good, err := protocol.EncodePacket(protocol.Packet{
		StreamID:  1,
		Length:    4,
		ChunkSize: 4,
		Droplet:   lt.Droplet{Selector: lt.Explicit{Index: 0}, Data: []byte("abcd")},
	})
	if err != nil {
		t.Fatal(err)
	}
	zeroLen, err := protocol.EncodePacket(protocol.Packet{
		StreamID:  1,
		ChunkSize: 4,
		Droplet:   lt.Droplet{Selector: lt.Explicit{Index: 0}, Data: []byte("abcd")},
	})
	if err != nil {
		t.Fatal(err)
	}

	for name, payload := range map[string][]byte{
		"empty":       {},
		"garbage":     {0xff, 0x00, 0x01},
		"truncated":   good[1 : len(good)-2],
		"zero length": zeroLen[1:],
	} {
		if _, err := protocol.DecodePacket(payload); !errors.Is(err, protocol.ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestStatusRoundTrip(t *testing.T) {
	in := protocol.Status{
		StreamID: 3,
		State:    protocol.StreamComplete,
		Resolved: 10,
		Total:    10,
		Received: 14,
	}
	b, err := protocol.EncodeStatus(in)
	if err != nil {
		t.Fatalf("EncodeStatus: %v", err)
	}
	f, err := protocol.ParseFrame(b)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.Type != protocol.MessageTypeStatus {
		t.Fatalf("frame type %v", f.Type)
	}
	out, err := protocol.DecodeStatus(f.Payload)
	if err != nil {
		t.Fatalf("DecodeStatus: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v want %+v", out, in)
	}

	if _, err := protocol.EncodeStatus(protocol.Status{}); !errors.Is(err, protocol.ErrMalformed) {
		t.Fatalf("expected ErrMalformed for zero state, got %v", err)
	}
}
