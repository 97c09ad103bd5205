// Package fountain sends messages over lossy links with a Luby-Transform
// fountain code.
//
// The subpackages hold the pieces:
//
//   - lt: the fountain code itself (encoder, peeling decoder, degree distributions)
//   - ldpc: an inner code that corrects bit errors inside each droplet
//   - protocol: datagram framing for droplets and status replies
//   - session: sender and multi-stream receiver over any datagram connection
//   - transport/quic: QUIC connections with datagrams enabled
//   - erasure: fixed-rate and RaptorQ baselines for comparison
//
// [Peer] ties session and transport together for the common case of
// one process serving many senders over QUIC.
package fountain
