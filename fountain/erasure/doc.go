// Package erasure compares the fountain code against other erasure codes
// under the same packet loss.
//
// Each [Scheme] turns a message into a sequence of symbols, one per packet,
// and rebuilds it from whichever symbols survive. [Run] pushes a message
// through a simulated lossy channel and reports how many symbols and bytes
// the receiver needed.
//
// Schemes:
//   - [LT]: this module's fountain code, symbols framed as wire packets
//   - [ReedSolomon]: fixed-rate MDS code (klauspost/reedsolomon);
//     gives up once more shards are lost than it has parity
//   - [RaptorQ]: rateless RFC 6330 code (xssnick/raptorq)
package erasure
