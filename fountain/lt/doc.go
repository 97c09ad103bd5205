// Package lt implements a Luby-Transform fountain code.
//
// An [Encoder] splits a message into fixed-size chunks and produces an
// unbounded sequence of [Droplet] values, each the XOR of a pseudo-randomly
// chosen set of chunks. A [Decoder] accepts droplets in any order, with any
// subset lost, and reconstructs the message once enough have arrived.
//
// Key features:
//   - Ideal and robust soliton degree distributions
//   - Systematic mode: the first k droplets are the raw chunks
//   - Peeling decoder with an explicit work queue; total work is linear
//     in the number of droplet-to-chunk edges seen
//   - Optional per-droplet inner codec ([InnerCodec]) for bit-error protection
//
// Droplets carry only a seed and a degree, never the chunk indices.
// Both sides regenerate the indices with the same pinned generator.
//
// The decoder performs no integrity check. If an inner codec returns a
// wrong but well-formed payload, the corrupted chunk is accepted as is.
package lt
