// Package ldpc provides binary low-density parity-check codes
// used as an inner code on droplet payloads.
//
// Codes are systematic irregular repeat-accumulate codes:
// the parity-check matrix is H = [Hu | Hp], where every information
// column has weight three and Hp is dual-diagonal, so encoding is a
// running XOR over row syndromes and needs no generator matrix.
// Matrices are derived from a fixed seed with the same pinned generator
// the fountain code uses, so both ends build identical codes.
//
// Decoding takes hard bits only. Two strategies are provided:
// [BitFlip], a Gallager-style hard-decision decoder, and [MinSum],
// normalized min-sum belief propagation on log-likelihood ratios
// derived from the hard bits.
//
// Neither strategy reports failure. When a codeword carries more errors
// than the code can correct, the output is a best guess.
package ldpc
