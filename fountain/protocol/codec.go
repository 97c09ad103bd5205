package protocol

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrInvalidType = errors.New("protocol invalid message type")
	ErrMalformed   = errors.New("protocol malformed message")
)

// encMode produces deterministic encodings, so equal messages
// always have equal bytes on the wire.
var encMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("protocol: cbor enc mode: %v", err))
	}
	encMode = em
}

// Frame is the basic wire container.
// Format:
//
//	1 byte: type
//	N bytes: payload
//
// Frames are sized to fit a single datagram,
// so the payload length is implied by the datagram length.
type Frame struct {
	Type    MessageType
	Payload []byte
}

// AppendFrame appends the encoding of f to dst.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	if f.Type == 0 {
		return nil, ErrInvalidType
	}
	dst = append(dst, byte(f.Type))
	return append(dst, f.Payload...), nil
}

// ParseFrame splits a datagram into its type and payload.
// The payload aliases b.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) == 0 {
		return Frame{}, fmt.Errorf("%w: empty datagram", ErrMalformed)
	}
	mt := MessageType(b[0])
	if mt != MessageTypeDroplet && mt != MessageTypeStatus {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidType, b[0])
	}
	return Frame{Type: mt, Payload: b[1:]}, nil
}
