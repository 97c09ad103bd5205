package fountain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/TheusHen/fountain/fountain/session"
	"github.com/TheusHen/fountain/fountain/transport/quic"
	"golang.org/x/sync/errgroup"
)

var ErrNotListening = errors.New("peer is not listening")

type PeerOptions struct {
	Metrics *session.Metrics

	// Called once for every message fully received by Serve.
	OnMessage func(session.Message)
}

// Peer is a high-level helper that combines transport + session.
// A Peer can both send messages and, once listening, receive them.
type Peer struct {
	log      *slog.Logger
	sender   *session.Sender
	receiver *session.Receiver
	listener *quic.Listener
}

func NewPeer(log *slog.Logger, cfg session.Config, opts PeerOptions) (*Peer, error) {
	sender, err := session.NewSender(log.With("role", "sender"), cfg, opts.Metrics)
	if err != nil {
		return nil, err
	}
	receiver, err := session.NewReceiver(log.With("role", "receiver"), cfg, session.ReceiverOptions{
		Metrics:    opts.Metrics,
		OnComplete: opts.OnMessage,
	})
	if err != nil {
		return nil, err
	}
	return &Peer{log: log, sender: sender, receiver: receiver}, nil
}

func (p *Peer) Listen(addr string) error {
	ln, err := quic.Listen(addr)
	if err != nil {
		return err
	}
	p.listener = ln
	return nil
}

func (p *Peer) Close() error {
	if p.listener == nil {
		return nil
	}
	return p.listener.Close()
}

func (p *Peer) ListenAddr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.AddrString()
}

// Receiver exposes the receiving side, for inspecting streams.
func (p *Peer) Receiver() *session.Receiver { return p.receiver }

// Serve accepts connections and decodes their droplets until ctx is canceled.
// Each connection is served on its own goroutine;
// a failing connection is logged and does not stop the others.
func (p *Peer) Serve(ctx context.Context) error {
	if p.listener == nil {
		return ErrNotListening
	}

	var g errgroup.Group
	defer g.Wait()

	for {
		conn, err := p.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		log := p.log.With("remote", conn.RemoteAddr().String())
		log.Debug("Accepted connection")

		g.Go(func() error {
			if err := p.receiver.Serve(ctx, conn); err != nil {
				log.Info("Connection ended", "err", err)
			}
			_ = conn.CloseWithError(0, "")
			return nil
		})
	}
}

// Send dials addr and transmits data on a fresh connection
// under a random stream ID.
func (p *Peer) Send(ctx context.Context, addr string, data []byte) (session.SendStats, error) {
	conn, err := quic.Dial(ctx, addr)
	if err != nil {
		return session.SendStats{}, err
	}
	defer conn.CloseWithError(0, "")

	return p.sender.Send(ctx, conn, rand.Uint32(), data)
}
