package lt

import (
	"crypto/rand"
	"encoding/binary"
	"iter"
	mrand "math/rand/v2"
)

// Mode selects how an [Encoder] chooses chunks.
type Mode uint8

const (
	// ModeSystematic emits each chunk once as an Explicit droplet,
	// in index order, for two full passes, then switches to ModeRandom.
	// On a loss-free channel the first k droplets reconstruct the message.
	ModeSystematic Mode = iota

	// ModeRandom emits Seeded droplets from the first droplet on.
	// This may be a better choice on high-loss channels.
	ModeRandom

	// ModeSystematicFEC is ModeSystematic with payloads passed through
	// the inner codec. It switches to ModeRandomFEC.
	ModeSystematicFEC

	// ModeRandomFEC is ModeRandom with payloads passed through
	// the inner codec.
	ModeRandomFEC
)

func (m Mode) String() string {
	switch m {
	case ModeSystematic:
		return "systematic"
	case ModeRandom:
		return "random"
	case ModeSystematicFEC:
		return "systematic-fec"
	case ModeRandomFEC:
		return "random-fec"
	default:
		return "unknown"
	}
}

// ParseMode parses the names returned by [Mode.String].
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{ModeSystematic, ModeRandom, ModeSystematicFEC, ModeRandomFEC} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, configError("unknown encoder mode %q", name)
}

// UsesInnerCodec reports whether droplets in this mode
// are passed through an [InnerCodec].
func (m Mode) UsesInnerCodec() bool {
	return m == ModeSystematicFEC || m == ModeRandomFEC
}

func (m Mode) systematic() bool {
	return m == ModeSystematic || m == ModeSystematicFEC
}

// randomCounterpart is the mode a systematic mode switches to.
func (m Mode) randomCounterpart() Mode {
	if m == ModeSystematicFEC {
		return ModeRandomFEC
	}
	return ModeRandom
}

// EncoderConfig configures [NewEncoder].
type EncoderConfig struct {
	// Size of each chunk and of each droplet payload before inner coding.
	// When sending over datagrams, this should fit the path MTU
	// after framing and inner-code expansion.
	ChunkSize int

	Mode Mode

	// Degree distribution for Seeded droplets.
	// The zero value is the robust soliton.
	Soliton SolitonKind

	// Parameters for the robust soliton.
	// The zero value means [DefaultRobustParams].
	Robust RobustParams

	// Inner codec applied to every payload.
	// Required for the FEC modes and rejected for the others.
	Inner InnerCodec

	// Seed for the encoder's own generator, which picks degrees and
	// droplet seeds. Zero seeds from crypto/rand.
	// A fixed seed makes the droplet sequence reproducible.
	Seed uint64
}

// Encoder produces droplets for one message.
//
// Methods on Encoder are not safe for concurrent use.
type Encoder struct {
	blocks  *Blocks
	rng     *mrand.Rand
	degrees DegreeSampler
	inner   InnerCodec
	mode    Mode
	emitted int
}

// NewEncoder returns an Encoder for data.
// The data is copied.
func NewEncoder(data []byte, cfg EncoderConfig) (*Encoder, error) {
	blocks, err := NewBlocks(data, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.Mode > ModeRandomFEC:
		return nil, configError("unknown encoder mode %d", cfg.Mode)
	case cfg.Mode.UsesInnerCodec() && cfg.Inner == nil:
		return nil, configError("mode %s requires an inner codec", cfg.Mode)
	case !cfg.Mode.UsesInnerCodec() && cfg.Inner != nil:
		return nil, configError("mode %s does not use an inner codec", cfg.Mode)
	}

	var degrees DegreeSampler
	switch cfg.Soliton {
	case SolitonIdeal:
		degrees, err = NewIdealSoliton(blocks.Count())
	case SolitonRobust:
		params := cfg.Robust
		if params == (RobustParams{}) {
			params = DefaultRobustParams()
		}
		degrees, err = NewRobustSoliton(blocks.Count(), params)
	default:
		err = configError("unknown soliton distribution %d", cfg.Soliton)
	}
	if err != nil {
		return nil, err
	}

	return &Encoder{
		blocks:  blocks,
		rng:     mrand.New(mrand.NewChaCha8(encoderSeed(cfg.Seed))),
		degrees: degrees,
		inner:   cfg.Inner,
		mode:    cfg.Mode,
	}, nil
}

func encoderSeed(seed uint64) [32]byte {
	var out [32]byte
	if seed != 0 {
		binary.LittleEndian.PutUint64(out[:8], seed)
		return out
	}
	if _, err := rand.Read(out[:]); err != nil {
		panic(err)
	}
	return out
}

// Len returns the message length in bytes.
func (e *Encoder) Len() int { return e.blocks.Len() }

// ChunkSize returns the chunk size.
func (e *Encoder) ChunkSize() int { return e.blocks.ChunkSize() }

// Chunks returns the number of chunks, k.
func (e *Encoder) Chunks() int { return e.blocks.Count() }

// Emitted returns how many droplets have been produced.
func (e *Encoder) Emitted() int { return e.emitted }

// Mode returns the current mode.
// A systematic encoder reports its random counterpart
// once it has emitted 2k droplets.
func (e *Encoder) Mode() Mode { return e.mode }

// Next produces the next droplet.
// The sequence never ends; the caller decides when to stop.
func (e *Encoder) Next() Droplet {
	var d Droplet
	if e.mode.systematic() {
		d = e.systematic()
	} else {
		d = e.random()
	}

	if e.mode.UsesInnerCodec() {
		d.Data = e.inner.Encode(d.Data)
	}

	e.emitted++
	return d
}

// All returns an infinite sequence of droplets from [*Encoder.Next].
func (e *Encoder) All() iter.Seq[Droplet] {
	return func(yield func(Droplet) bool) {
		for {
			if !yield(e.Next()) {
				return
			}
		}
	}
}

func (e *Encoder) systematic() Droplet {
	k := e.blocks.Count()
	idx := e.emitted % k

	buf := make([]byte, e.blocks.ChunkSize())
	e.blocks.XORInto(buf, idx)

	if e.emitted+2 > 2*k {
		e.mode = e.mode.randomCounterpart()
	}

	return Droplet{Selector: Explicit{Index: idx}, Data: buf}
}

func (e *Encoder) random() Droplet {
	degree := e.degrees.Sample(e.rng)
	seed := e.rng.Uint64()

	buf := make([]byte, e.blocks.ChunkSize())
	for _, i := range SeededIndices(seed, degree, e.blocks.Count()) {
		e.blocks.XORInto(buf, i)
	}

	return Droplet{Selector: Seeded{Seed: seed, Degree: degree}, Data: buf}
}
