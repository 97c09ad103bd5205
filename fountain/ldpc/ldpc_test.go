package ldpc_test

import (
	"math/rand/v2"
	"testing"

	"github.com/TheusHen/fountain/fountain/ldpc"
	"github.com/TheusHen/fountain/fountain/lt"
	"github.com/stretchr/testify/require"
)

var strategies = map[string]ldpc.Strategy{
	"bit-flip": ldpc.BitFlip{},
	"min-sum":  ldpc.MinSum{},
}

func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rng.Uint32())
	}
	return b
}

func TestNewCode_invalid(t *testing.T) {
	t.Parallel()

	for _, nk := range [][2]int{{64, 0}, {64, 64}, {64, 72}, {60, 32}, {64, 36}, {16, 16}} {
		_, err := ldpc.NewCode(nk[0], nk[1])
		require.ErrorIs(t, err, ldpc.ErrInvalidCode, "n=%d k=%d", nk[0], nk[1])
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	a, err := ldpc.Lookup("n512k256")
	require.NoError(t, err)
	b, err := ldpc.Lookup("n512k256")
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 32, a.InfoBytes())
	require.Equal(t, 64, a.CodewordBytes())

	_, err = ldpc.Lookup("n7k3")
	require.ErrorIs(t, err, ldpc.ErrUnknownCode)
}

func TestNewStrategy(t *testing.T) {
	t.Parallel()

	s, err := ldpc.NewStrategy("bit-flip", 10)
	require.NoError(t, err)
	require.Equal(t, ldpc.BitFlip{MaxIterations: 10}, s)

	s, err = ldpc.NewStrategy("min-sum", 0)
	require.NoError(t, err)
	require.Equal(t, ldpc.MinSum{}, s)

	_, err = ldpc.NewStrategy("sum-product", 0)
	require.ErrorIs(t, err, ldpc.ErrUnknownStrategy)
}

func TestCode_cleanRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range ldpc.Names() {
		code, err := ldpc.Lookup(name)
		require.NoError(t, err)

		for sname, s := range strategies {
			t.Run(name+"/"+sname, func(t *testing.T) {
				t.Parallel()

				rng := rand.New(rand.NewPCG(2, 3))
				for range 20 {
					info := randomBytes(rng, code.InfoBytes())
					cw := code.Encode(info)
					require.True(t, code.Check(cw))
					require.Equal(t, info, code.Decode(cw, s))
				}
			})
		}
	}
}

func TestCode_correctsSingleError(t *testing.T) {
	t.Parallel()

	code, err := ldpc.Lookup("n512k256")
	require.NoError(t, err)

	for sname, s := range strategies {
		t.Run(sname, func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(4, 5))
			for i := range 64 {
				info := randomBytes(rng, code.InfoBytes())
				cw := code.Encode(info)

				// Walk positions across both information and parity bits.
				pos := (i * 8) % code.N()
				cw[pos/8] ^= 0x80 >> (pos % 8)
				require.False(t, code.Check(cw))

				require.Equal(t, info, code.Decode(cw, s), "error at bit %d", pos)
			}
		})
	}
}

func TestCode_lowNoiseImprovesBitErrorRate(t *testing.T) {
	t.Parallel()

	code, err := ldpc.Lookup("n512k256")
	require.NoError(t, err)

	for sname, s := range strategies {
		t.Run(sname, func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(6, 7))
			var raw, decoded int
			for range 400 {
				info := randomBytes(rng, code.InfoBytes())
				cw := code.Encode(info)
				ldpc.Corrupt(cw, 0.001, rng)

				raw += ldpc.BitErrors(info, cw[:code.InfoBytes()])
				decoded += ldpc.BitErrors(info, code.Decode(cw, s))
			}

			require.Positive(t, raw)
			require.Less(t, decoded, raw, "raw=%d decoded=%d", raw, decoded)
		})
	}
}

func TestCodec(t *testing.T) {
	t.Parallel()

	c, err := ldpc.NewCodec("n512k256", ldpc.BitFlip{})
	require.NoError(t, err)

	payload := []byte("a payload that spans two information blocks")
	cw := c.Encode(payload)
	require.Len(t, cw, 128)
	require.Equal(t, 128, c.EncodedLen(len(payload)))

	out, err := c.Decode(cw)
	require.NoError(t, err)
	require.Len(t, out, 64)
	require.Equal(t, payload, out[:len(payload)])
	require.Equal(t, make([]byte, 64-len(payload)), out[len(payload):])

	_, err = c.Decode(cw[:100])
	require.ErrorIs(t, err, ldpc.ErrCodewordLength)
	_, err = c.Decode(nil)
	require.ErrorIs(t, err, ldpc.ErrCodewordLength)
}

func TestBitErrors(t *testing.T) {
	t.Parallel()

	require.Zero(t, ldpc.BitErrors([]byte{1, 2}, []byte{1, 2}))
	require.Equal(t, 2, ldpc.BitErrors([]byte{0b11}, []byte{0}))
	require.Equal(t, 9, ldpc.BitErrors([]byte{1, 0}, []byte{0}))
}

func TestCodec_asInnerCodec(t *testing.T) {
	t.Parallel()

	codec, err := ldpc.NewCodec("n1280k1024", ldpc.MinSum{})
	require.NoError(t, err)

	msg := randomBytes(rand.New(rand.NewPCG(8, 9)), 5000)
	const chunkSize = 128

	enc, err := lt.NewEncoder(msg, lt.EncoderConfig{
		ChunkSize: chunkSize,
		Mode:      lt.ModeRandomFEC,
		Inner:     codec,
		Seed:      10,
	})
	require.NoError(t, err)
	dec, err := lt.NewDecoder(len(msg), chunkSize, lt.WithInnerCodec(codec))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(11, 12))
	for range 5000 {
		d := enc.Next()
		require.Len(t, d.Data, 160)

		// One flipped bit per droplet is within the inner code's reach.
		pos := rng.IntN(len(d.Data) * 8)
		d.Data[pos/8] ^= 1 << (pos % 8)

		res, err := dec.Catch(d)
		require.NoError(t, err)
		if res.State == lt.Finished {
			require.Equal(t, msg, res.Data)
			return
		}
	}
	t.Fatalf("decoder did not finish: %+v", dec.Stats())
}
