package lt

import (
	"math"
	"math/rand/v2"
	"sort"
)

// DegreeSampler produces the number of chunks combined into one droplet.
//
// Sample never returns a value below 1 or above the chunk count
// the sampler was built for.
type DegreeSampler interface {
	Sample(r *rand.Rand) int
}

// IdealSoliton approximates the ideal soliton distribution
// with a closed-form inverse CDF instead of a table:
// draw y uniformly in [0,1); if y >= 1/k the degree is ceil(1/y), else 1.
type IdealSoliton struct {
	k     int
	limit float32
}

// NewIdealSoliton returns an IdealSoliton for k chunks.
func NewIdealSoliton(k int) (*IdealSoliton, error) {
	if k <= 0 {
		return nil, configError("ideal soliton needs at least one chunk (got %d)", k)
	}
	return &IdealSoliton{k: k, limit: 1 / float32(k)}, nil
}

func (s *IdealSoliton) Sample(r *rand.Rand) int {
	y := r.Float32()
	if y < s.limit {
		return 1
	}
	d := int(math.Ceil(float64(1 / y)))
	// At y == limit, float32 rounding can put 1/y a hair above k.
	return max(1, min(d, s.k))
}

// RobustParams shapes a [RobustSoliton].
type RobustParams struct {
	// Heuristic selects the ripple size c*ln(k/delta)*sqrt(k).
	// When false, the ripple size is c*sqrt(k).
	Heuristic bool

	// Ripple is the constant c scaling the expected ripple size.
	Ripple float64

	// FailureProbability is delta, the target probability that
	// decoding fails after k plus overhead droplets.
	FailureProbability float64
}

// DefaultRobustParams returns the parameters the encoder uses
// when none are configured.
func DefaultRobustParams() RobustParams {
	return RobustParams{
		Heuristic:          true,
		Ripple:             0.1,
		FailureProbability: 0.3,
	}
}

// RobustSoliton samples Luby's robust soliton distribution
// from a precomputed cumulative table.
type RobustSoliton struct {
	cdf []float64
}

// NewRobustSoliton builds the cumulative table for k chunks.
func NewRobustSoliton(k int, p RobustParams) (*RobustSoliton, error) {
	if k <= 0 {
		return nil, configError("robust soliton needs at least one chunk (got %d)", k)
	}
	if !(p.Ripple > 0) {
		return nil, configError("robust soliton ripple must be positive (got %g)", p.Ripple)
	}
	if !(p.FailureProbability > 0 && p.FailureProbability < 1) {
		return nil, configError(
			"robust soliton failure probability must be in (0,1) (got %g)",
			p.FailureProbability,
		)
	}

	kf := float64(k)
	r := p.Ripple * math.Sqrt(kf)
	if p.Heuristic {
		r *= math.Log(kf / p.FailureProbability)
	}
	r = max(r, 1)

	spike := max(1, min(int(kf/r), k))

	weights := make([]float64, k)
	var total float64
	for d := 1; d <= k; d++ {
		df := float64(d)

		rho := 1 / (df * (df - 1))
		if d == 1 {
			rho = 1 / kf
		}

		var tau float64
		switch {
		case d < spike:
			tau = r / (df * kf)
		case d == spike:
			tau = max(0, r*math.Log(r/p.FailureProbability)/kf)
		}

		weights[d-1] = rho + tau
		total += rho + tau
	}

	cdf := make([]float64, k)
	var acc float64
	for i, w := range weights {
		acc += w
		cdf[i] = acc / total
	}
	cdf[k-1] = 1

	return &RobustSoliton{cdf: cdf}, nil
}

func (s *RobustSoliton) Sample(r *rand.Rand) int {
	u := r.Float64()
	i := sort.Search(len(s.cdf), func(i int) bool { return s.cdf[i] > u })
	return min(i, len(s.cdf)-1) + 1
}

// SolitonKind selects the degree distribution an [Encoder] uses.
type SolitonKind uint8

const (
	SolitonRobust SolitonKind = iota
	SolitonIdeal
)

func (s SolitonKind) String() string {
	switch s {
	case SolitonRobust:
		return "robust"
	case SolitonIdeal:
		return "ideal"
	default:
		return "unknown"
	}
}

// ParseSoliton parses the names returned by [SolitonKind.String].
func ParseSoliton(name string) (SolitonKind, error) {
	switch name {
	case "robust", "":
		return SolitonRobust, nil
	case "ideal":
		return SolitonIdeal, nil
	default:
		return 0, configError("unknown soliton distribution %q", name)
	}
}
