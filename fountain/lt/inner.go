package lt

// InnerCodec protects droplet payloads against bit errors on the channel.
//
// Encode expands a payload into a codeword at a fixed, code-determined ratio.
// Decode recovers a payload of at least the original length from a
// possibly corrupted codeword. Decoding is best-effort: a codeword with
// more errors than the code can correct still yields a full-size payload,
// and no error is reported. Decode returns an error only when the codeword
// cannot have been produced by Encode, for instance a length mismatch.
type InnerCodec interface {
	Encode(payload []byte) []byte
	Decode(codeword []byte) ([]byte, error)
}
