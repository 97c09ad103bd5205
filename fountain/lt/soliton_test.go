package lt_test

import (
	"math/rand/v2"
	"testing"

	"github.com/TheusHen/fountain/fountain/lt"
	"github.com/stretchr/testify/require"
)

func TestSamplers_bounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for k := 1; k <= 64; k++ {
		ideal, err := lt.NewIdealSoliton(k)
		require.NoError(t, err)
		robust, err := lt.NewRobustSoliton(k, lt.DefaultRobustParams())
		require.NoError(t, err)
		plain, err := lt.NewRobustSoliton(k, lt.RobustParams{Ripple: 0.5, FailureProbability: 0.05})
		require.NoError(t, err)

		for _, s := range []lt.DegreeSampler{ideal, robust, plain} {
			for i := 0; i < 2000; i++ {
				d := s.Sample(rng)
				require.GreaterOrEqual(t, d, 1, "k=%d sampler=%T", k, s)
				require.LessOrEqual(t, d, k, "k=%d sampler=%T", k, s)
			}
		}
	}
}

func TestIdealSoliton_favorsLowDegrees(t *testing.T) {
	t.Parallel()

	const k = 100
	s, err := lt.NewIdealSoliton(k)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 4))
	var low, high int
	for i := 0; i < 10_000; i++ {
		switch d := s.Sample(rng); {
		case d <= 2:
			low++
		case d > k/2:
			high++
		}
	}

	// P(d<=2) is about one half; P(d>50) is about 2%.
	require.Greater(t, low, 4000)
	require.Less(t, high, 500)
}

func TestRobustSoliton_invalidParams(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		k int
		p lt.RobustParams
	}{
		"zero chunks":     {k: 0, p: lt.DefaultRobustParams()},
		"zero ripple":     {k: 10, p: lt.RobustParams{FailureProbability: 0.3}},
		"negative ripple": {k: 10, p: lt.RobustParams{Ripple: -1, FailureProbability: 0.3}},
		"zero failure":    {k: 10, p: lt.RobustParams{Ripple: 0.1}},
		"certain failure": {k: 10, p: lt.RobustParams{Ripple: 0.1, FailureProbability: 1}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := lt.NewRobustSoliton(tc.k, tc.p)
			require.ErrorIs(t, err, lt.ErrInvalidConfig)
		})
	}

	_, err := lt.NewIdealSoliton(0)
	require.ErrorIs(t, err, lt.ErrInvalidConfig)
}

func TestParseSoliton(t *testing.T) {
	t.Parallel()

	for _, k := range []lt.SolitonKind{lt.SolitonRobust, lt.SolitonIdeal} {
		got, err := lt.ParseSoliton(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
	}

	got, err := lt.ParseSoliton("")
	require.NoError(t, err)
	require.Equal(t, lt.SolitonRobust, got)

	_, err = lt.ParseSoliton("gaussian")
	require.ErrorIs(t, err, lt.ErrInvalidConfig)
}
