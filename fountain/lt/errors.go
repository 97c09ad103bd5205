package lt

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a sampler, encoder, or decoder
	// is constructed with degenerate parameters.
	ErrInvalidConfig = errors.New("lt: invalid configuration")

	// ErrFinished is returned by [*Decoder.Catch] after the message
	// has already been reconstructed.
	ErrFinished = errors.New("lt: decoder already finished")
)

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// MalformedError is returned from [*Decoder.Catch] when a droplet
// cannot belong to the decoder's message.
// The decoder state is not modified.
type MalformedError struct {
	Reason string

	// Err is the underlying cause, if any (e.g. an inner codec failure).
	Err error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return "lt: malformed droplet: " + e.Reason + ": " + e.Err.Error()
	}
	return "lt: malformed droplet: " + e.Reason
}

func (e *MalformedError) Unwrap() error { return e.Err }
