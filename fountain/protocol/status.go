package protocol

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Status is the receiver's reply to a droplet.
type Status struct {
	_ struct{} `cbor:",toarray"`

	StreamID uint32
	State    StreamState
	Resolved uint32
	Total    uint32
	Received uint32
}

// EncodeStatus returns the datagram for s, including the frame header.
func EncodeStatus(s Status) ([]byte, error) {
	if s.State != StreamWorking && s.State != StreamComplete {
		return nil, fmt.Errorf("%w: stream state %d", ErrMalformed, s.State)
	}
	body, err := encMode.Marshal(s)
	if err != nil {
		return nil, err
	}
	return AppendFrame(make([]byte, 0, 1+len(body)), Frame{Type: MessageTypeStatus, Payload: body})
}

// DecodeStatus parses the payload of a MessageTypeStatus frame.
func DecodeStatus(payload []byte) (Status, error) {
	var s Status
	if err := cbor.Unmarshal(payload, &s); err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if s.State != StreamWorking && s.State != StreamComplete {
		return Status{}, fmt.Errorf("%w: stream state %d", ErrMalformed, s.State)
	}
	return s, nil
}
