package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TheusHen/fountain/fountain/lt"
	"github.com/TheusHen/fountain/fountain/protocol"
	"golang.org/x/sync/errgroup"
)

// DatagramConn is the unreliable, message-oriented transport
// a sender and receiver exchange frames over.
// A QUIC connection with datagrams enabled satisfies it.
type DatagramConn interface {
	SendDatagram(b []byte) error
	ReceiveDatagram(ctx context.Context) ([]byte, error)
}

// BudgetExceededError is returned by [*Sender.Send] when the receiver
// did not report completion within the configured droplet budget.
type BudgetExceededError struct {
	Sent int

	// Last status received, if any.
	Last protocol.Status
}

func (e BudgetExceededError) Error() string {
	return fmt.Sprintf(
		"session: gave up after %d droplets (receiver had %d/%d chunks)",
		e.Sent, e.Last.Resolved, e.Last.Total,
	)
}

// SendStats summarizes one completed [*Sender.Send].
type SendStats struct {
	StreamID uint32

	// Droplets sent.
	Sent int

	// Message bytes before and after compression.
	Length        int
	EncodedLength int

	// Final status from the receiver.
	Status protocol.Status
}

// Sender fountain-encodes messages and pushes droplets
// until the receiver reports the stream complete.
//
// Send runs one droplet at a time: after each droplet it waits for a status
// reply or for Config.StatusTimeout, whichever comes first.
type Sender struct {
	log *slog.Logger
	cfg Config
	m   *Metrics
}

// NewSender returns a Sender. A nil m disables metrics.
func NewSender(log *slog.Logger, cfg Config, m *Metrics) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sender{log: log, cfg: cfg, m: m}, nil
}

// Send transmits data as stream streamID over conn.
//
// Send reads every datagram arriving on conn while it runs,
// so only one Send may be active on a connection at a time.
func (s *Sender) Send(ctx context.Context, conn DatagramConn, streamID uint32, data []byte) (SendStats, error) {
	payload, err := Compress(data, s.cfg.compression())
	if err != nil {
		return SendStats{}, err
	}
	compressed := s.cfg.compression() != CompressionNone
	if compressed && len(payload) >= len(data) {
		// Incompressible; send as is.
		payload, compressed = data, false
	}

	if err := s.cfg.checkSize(uint64(len(payload)), uint64(s.cfg.ChunkSize)); err != nil {
		return SendStats{}, err
	}

	ec, err := s.cfg.EncoderConfig()
	if err != nil {
		return SendStats{}, err
	}
	enc, err := lt.NewEncoder(payload, ec)
	if err != nil {
		return SendStats{}, err
	}

	log := s.log.With("stream", streamID)
	log.Debug(
		"Starting send",
		"len", len(data),
		"encoded_len", len(payload),
		"chunks", enc.Chunks(),
		"mode", enc.Mode(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	statuses := make(chan protocol.Status, 16)
	g.Go(func() error {
		return s.readStatuses(gctx, log, conn, streamID, statuses)
	})

	stats := SendStats{
		StreamID:      streamID,
		Length:        len(data),
		EncodedLength: len(payload),
	}
	g.Go(func() error {
		// Stop the status reader once the send loop is done.
		defer cancel()
		return s.pump(gctx, log, conn, enc, protocol.Packet{
			StreamID:   streamID,
			Length:     uint64(len(payload)),
			ChunkSize:  uint32(enc.ChunkSize()),
			Compressed: compressed,
		}, statuses, &stats)
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *Sender) pump(
	ctx context.Context,
	log *slog.Logger,
	conn DatagramConn,
	enc *lt.Encoder,
	header protocol.Packet,
	statuses <-chan protocol.Status,
	stats *SendStats,
) error {
	timer := time.NewTimer(s.cfg.StatusTimeout)
	defer timer.Stop()

	for stats.Sent < s.cfg.MaxDroplets {
		pkt := header
		pkt.Droplet = enc.Next()
		b, err := protocol.EncodePacket(pkt)
		if err != nil {
			return fmt.Errorf("encoding droplet %d: %w", stats.Sent, err)
		}
		if err := conn.SendDatagram(b); err != nil {
			return fmt.Errorf("sending droplet %d: %w", stats.Sent, err)
		}
		stats.Sent++
		s.m.sent()

		timer.Reset(s.cfg.StatusTimeout)
	WAIT:
		for {
			select {
			case <-ctx.Done():
				return context.Cause(ctx)
			case st := <-statuses:
				stats.Status = st
				if st.State == protocol.StreamComplete {
					log.Debug("Receiver completed stream", "sent", stats.Sent, "received", st.Received)
					return nil
				}
				// Drain any backlog before sending more.
				if len(statuses) == 0 {
					break WAIT
				}
			case <-timer.C:
				s.m.timeout()
				break WAIT
			}
		}
	}

	s.m.abandoned()
	log.Info(
		"Giving up on stream",
		"sent", stats.Sent,
		"resolved", stats.Status.Resolved,
		"total", stats.Status.Total,
	)
	return BudgetExceededError{Sent: stats.Sent, Last: stats.Status}
}

// readStatuses forwards status replies for streamID until ctx ends.
func (s *Sender) readStatuses(
	ctx context.Context,
	log *slog.Logger,
	conn DatagramConn,
	streamID uint32,
	out chan<- protocol.Status,
) error {
	for {
		b, err := conn.ReceiveDatagram(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receiving status: %w", err)
		}

		f, err := protocol.ParseFrame(b)
		if err != nil || f.Type != protocol.MessageTypeStatus {
			log.Debug("Ignoring unexpected datagram", "err", err, "len", len(b))
			continue
		}
		st, err := protocol.DecodeStatus(f.Payload)
		if err != nil {
			s.m.malformed()
			log.Debug("Ignoring malformed status", "err", err)
			continue
		}
		if st.StreamID != streamID {
			continue
		}

		select {
		case out <- st:
		case <-ctx.Done():
			return nil
		}
	}
}
