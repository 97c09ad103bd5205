// Package quic carries fountain datagrams over QUIC connections
// with the unreliable datagram extension (RFC 9221) enabled.
//
// Every listener and dialer generates a fresh self-signed certificate.
// Peers are not authenticated.
package quic
