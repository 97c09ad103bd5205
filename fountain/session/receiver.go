package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/TheusHen/fountain/fountain/lt"
	"github.com/TheusHen/fountain/fountain/protocol"
)

var (
	// ErrStreamMismatch is returned when a packet's declared length,
	// chunk size, or compression flag differs from the first packet
	// seen for its stream.
	ErrStreamMismatch = errors.New("session: packet does not match stream parameters")

	// ErrCorruptStream is returned when a reconstructed message fails to
	// decompress. The stream is discarded and decoding restarts
	// with the next droplet.
	ErrCorruptStream = errors.New("session: reconstructed stream is corrupt")
)

// Message is a fully reconstructed stream.
type Message struct {
	StreamID uint32
	Data     []byte
	Stats    lt.Stats
}

type ReceiverOptions struct {
	Metrics *Metrics

	// Called once per stream, after the stream completes,
	// from the goroutine that handled the final droplet.
	OnComplete func(Message)
}

// Receiver decodes any number of concurrent streams,
// keyed by stream ID. A stream's decoder is created from the first packet
// that arrives for it, using that packet's declared length.
//
// Receiver is safe for concurrent use.
type Receiver struct {
	log   *slog.Logger
	cfg   Config
	inner lt.InnerCodec
	opts  ReceiverOptions

	mu      sync.Mutex
	streams map[uint32]*stream
}

type stream struct {
	mu sync.Mutex

	length     uint64
	chunkSize  uint32
	compressed bool

	dec *lt.Decoder

	// Set once the decoder has finished.
	msg *Message
}

// NewReceiver returns a Receiver.
// Only cfg's mode, inner code, and message limit settings are used.
func NewReceiver(log *slog.Logger, cfg Config, opts ReceiverOptions) (*Receiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	inner, err := cfg.InnerCodec()
	if err != nil {
		return nil, err
	}
	return &Receiver{
		log:     log,
		cfg:     cfg,
		inner:   inner,
		opts:    opts,
		streams: make(map[uint32]*stream),
	}, nil
}

// Handle feeds one packet to its stream's decoder
// and returns the status to report back to the sender.
//
// Packets for a completed stream are not decoded;
// they are answered with a complete status.
func (r *Receiver) Handle(pkt protocol.Packet) (protocol.Status, error) {
	st, err := r.stream(pkt)
	if err != nil {
		r.opts.Metrics.malformed()
		return protocol.Status{}, err
	}

	st.mu.Lock()
	if st.msg != nil {
		msg := *st.msg
		st.mu.Unlock()
		return status(pkt.StreamID, protocol.StreamComplete, msg.Stats), nil
	}

	res, err := st.dec.Catch(pkt.Droplet)
	if err != nil {
		st.mu.Unlock()
		r.opts.Metrics.malformed()
		return protocol.Status{}, fmt.Errorf("stream %d: %w", pkt.StreamID, err)
	}
	r.opts.Metrics.received()

	if res.State != lt.Finished {
		st.mu.Unlock()
		return status(pkt.StreamID, protocol.StreamWorking, res.Stats), nil
	}

	data := res.Data
	if st.compressed {
		data, err = Decompress(data)
		if err != nil {
			st.mu.Unlock()
			r.forget(pkt.StreamID, st)
			r.log.Warn(
				"Discarding stream that failed to decompress",
				"stream", pkt.StreamID,
				"err", err,
			)
			return protocol.Status{}, fmt.Errorf("%w: stream %d: %v", ErrCorruptStream, pkt.StreamID, err)
		}
	}

	msg := Message{StreamID: pkt.StreamID, Data: data, Stats: res.Stats}
	st.msg = &msg
	st.dec = nil
	st.mu.Unlock()

	r.opts.Metrics.completed(res.Stats.Received)
	r.log.Info(
		"Stream complete",
		"stream", pkt.StreamID,
		"len", len(data),
		"chunks", res.Stats.Total,
		"received", res.Stats.Received,
	)
	if r.opts.OnComplete != nil {
		r.opts.OnComplete(msg)
	}

	return status(pkt.StreamID, protocol.StreamComplete, res.Stats), nil
}

// stream returns the state for pkt's stream, creating it if needed.
func (r *Receiver) stream(pkt protocol.Packet) (*stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.streams[pkt.StreamID]; ok {
		if st.length != pkt.Length || st.chunkSize != pkt.ChunkSize || st.compressed != pkt.Compressed {
			return nil, fmt.Errorf(
				"%w: stream %d is %d bytes in chunks of %d (compressed=%t), "+
					"packet says %d in chunks of %d (compressed=%t)",
				ErrStreamMismatch, pkt.StreamID, st.length, st.chunkSize, st.compressed,
				pkt.Length, pkt.ChunkSize, pkt.Compressed,
			)
		}
		return st, nil
	}

	if pkt.ChunkSize == 0 {
		return nil, fmt.Errorf("%w: stream %d has zero chunk size", protocol.ErrMalformed, pkt.StreamID)
	}
	if err := r.cfg.checkSize(pkt.Length, uint64(pkt.ChunkSize)); err != nil {
		return nil, fmt.Errorf("%w: stream %d: %w", protocol.ErrMalformed, pkt.StreamID, err)
	}

	var opts []lt.DecoderOption
	if r.inner != nil {
		opts = append(opts, lt.WithInnerCodec(r.inner))
	}
	dec, err := lt.NewDecoder(int(pkt.Length), int(pkt.ChunkSize), opts...)
	if err != nil {
		return nil, fmt.Errorf("stream %d: %w", pkt.StreamID, err)
	}

	st := &stream{
		length:     pkt.Length,
		chunkSize:  pkt.ChunkSize,
		compressed: pkt.Compressed,
		dec:        dec,
	}
	r.streams[pkt.StreamID] = st
	r.log.Debug(
		"New stream",
		"stream", pkt.StreamID,
		"len", pkt.Length,
		"chunk_size", pkt.ChunkSize,
		"compressed", pkt.Compressed,
	)
	return st, nil
}

func status(id uint32, state protocol.StreamState, s lt.Stats) protocol.Status {
	return protocol.Status{
		StreamID: id,
		State:    state,
		Resolved: uint32(s.Resolved),
		Total:    uint32(s.Total),
		Received: uint32(s.Received),
	}
}

// Serve reads droplets from conn and answers each with a status datagram,
// until ctx is canceled or the connection fails.
// Malformed datagrams are logged and skipped.
func (r *Receiver) Serve(ctx context.Context, conn DatagramConn) error {
	for {
		b, err := conn.ReceiveDatagram(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receiving droplet: %w", err)
		}

		f, err := protocol.ParseFrame(b)
		if err != nil {
			r.opts.Metrics.malformed()
			r.log.Debug("Dropping malformed datagram", "err", err)
			continue
		}
		if f.Type != protocol.MessageTypeDroplet {
			r.log.Debug("Ignoring unexpected message", "type", f.Type)
			continue
		}

		pkt, err := protocol.DecodePacket(f.Payload)
		if err != nil {
			r.opts.Metrics.malformed()
			r.log.Debug("Dropping malformed packet", "err", err)
			continue
		}

		st, err := r.Handle(pkt)
		if err != nil {
			r.log.Debug("Rejected packet", "stream", pkt.StreamID, "err", err)
			continue
		}

		reply, err := protocol.EncodeStatus(st)
		if err != nil {
			panic(fmt.Errorf("BUG: failed to encode status: %w", err))
		}
		if err := conn.SendDatagram(reply); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("sending status: %w", err)
		}
	}
}

// Message returns the reconstructed data for a completed stream.
func (r *Receiver) Message(streamID uint32) (Message, bool) {
	r.mu.Lock()
	st, ok := r.streams[streamID]
	r.mu.Unlock()
	if !ok {
		return Message{}, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.msg == nil {
		return Message{}, false
	}
	return *st.msg, true
}

// Progress returns the decoder statistics for a stream in progress
// or the final statistics of a completed one.
func (r *Receiver) Progress(streamID uint32) (lt.Stats, bool) {
	r.mu.Lock()
	st, ok := r.streams[streamID]
	r.mu.Unlock()
	if !ok {
		return lt.Stats{}, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.msg != nil {
		return st.msg.Stats, true
	}
	return st.dec.Stats(), true
}

// Forget drops all state for a stream.
// A later packet with the same ID starts a new stream.
func (r *Receiver) Forget(streamID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, streamID)
}

// forget drops st only if it is still the current state for streamID.
func (r *Receiver) forget(streamID uint32, st *stream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.streams[streamID] == st {
		delete(r.streams, streamID)
	}
}

// Streams returns the number of streams being tracked, complete or not.
func (r *Receiver) Streams() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
