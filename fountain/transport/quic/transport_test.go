package quic_test

import (
	"context"
	"testing"
	"time"

	"github.com/TheusHen/fountain/fountain/transport/quic"
	"github.com/stretchr/testify/require"
)

func TestDatagramRoundTrip(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ln, err := quic.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan error, 1)
	go func() {
		conn, err := ln.Accept(ctx)
		if err != nil {
			accepted <- err
			return
		}
		b, err := conn.ReceiveDatagram(ctx)
		if err != nil {
			accepted <- err
			return
		}
		accepted <- conn.SendDatagram(append([]byte("echo:"), b...))
	}()

	conn, err := quic.Dial(ctx, ln.AddrString())
	require.NoError(t, err)
	defer conn.CloseWithError(0, "")

	require.True(t, conn.ConnectionState().SupportsDatagrams)
	require.NoError(t, conn.SendDatagram([]byte("ping")))

	b, err := conn.ReceiveDatagram(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("echo:ping"), b)
	require.NoError(t, <-accepted)
}
