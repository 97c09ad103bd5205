package session

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/TheusHen/fountain/fountain/ldpc"
	"github.com/TheusHen/fountain/fountain/lt"
)

var (
	ErrInvalidConfig = errors.New("session: invalid configuration")

	// ErrMessageTooLarge is returned when a message, sent or declared by
	// an incoming packet, exceeds MaxMessageSize or MaxChunks.
	ErrMessageTooLarge = errors.New("session: message exceeds configured limits")
)

// Config configures both ends of a fountain transfer.
// Sender and receiver must agree on the inner code;
// everything else is carried in each packet or only matters to the sender.
type Config struct {
	// Bytes per chunk, before inner coding.
	ChunkSize int `toml:"chunk_size"`

	// One of "systematic", "random", "systematic-fec", "random-fec".
	Mode string `toml:"mode"`

	// "robust" or "ideal".
	Soliton string `toml:"soliton"`

	Robust RobustConfig `toml:"robust"`
	Inner  InnerConfig  `toml:"inner"`

	// "none", "fast", "default" or "best".
	Compression string `toml:"compression"`

	// Droplets a sender emits for one message before giving up.
	MaxDroplets int `toml:"max_droplets"`

	// How long a sender waits for a status reply before sending the next droplet.
	StatusTimeout time.Duration `toml:"status_timeout"`

	// Limits on a single message. A receiver sizes its decoder from the
	// first packet of a stream, so packets declaring more are rejected.
	MaxMessageSize int `toml:"max_message_size"`
	MaxChunks      int `toml:"max_chunks"`

	// Fixed encoder seed for reproducible runs; zero picks one at random.
	Seed uint64 `toml:"seed"`
}

type RobustConfig struct {
	Heuristic          bool    `toml:"heuristic"`
	Ripple             float64 `toml:"ripple"`
	FailureProbability float64 `toml:"failure_probability"`
}

// InnerConfig selects the LDPC code protecting droplet payloads.
// It is only used by the FEC modes.
type InnerConfig struct {
	// Predefined code name, see ldpc.Names.
	Code string `toml:"code"`

	// "min-sum" or "bit-flip".
	Strategy string `toml:"strategy"`

	MaxIterations int `toml:"max_iterations"`
}

// DefaultConfig returns settings that fit one droplet per QUIC datagram,
// with or without the default inner code.
func DefaultConfig() Config {
	rp := lt.DefaultRobustParams()
	return Config{
		ChunkSize: 256,
		Mode:      lt.ModeSystematic.String(),
		Soliton:   lt.SolitonRobust.String(),
		Robust: RobustConfig{
			Heuristic:          rp.Heuristic,
			Ripple:             rp.Ripple,
			FailureProbability: rp.FailureProbability,
		},
		Inner: InnerConfig{
			Code:          "n512k256",
			Strategy:      "min-sum",
			MaxIterations: ldpc.DefaultMaxIterations,
		},
		Compression:    CompressionNone.String(),
		MaxDroplets:    700,
		StatusTimeout:  50 * time.Millisecond,
		MaxMessageSize: 16 << 20,
		MaxChunks:      1 << 16,
	}
}

// LoadConfig reads a TOML file over DefaultConfig,
// so keys absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undec[0].String(), path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field, including names that are only
// resolved when building encoders and codecs.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive (got %d)", ErrInvalidConfig, c.ChunkSize)
	}
	if c.MaxDroplets <= 0 {
		return fmt.Errorf("%w: max_droplets must be positive (got %d)", ErrInvalidConfig, c.MaxDroplets)
	}
	if c.StatusTimeout <= 0 {
		return fmt.Errorf("%w: status_timeout must be positive (got %s)", ErrInvalidConfig, c.StatusTimeout)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: max_message_size must be positive (got %d)", ErrInvalidConfig, c.MaxMessageSize)
	}
	if c.MaxChunks <= 0 || uint64(c.MaxChunks) > math.MaxUint32 {
		return fmt.Errorf("%w: max_chunks must be in [1, %d] (got %d)", ErrInvalidConfig, uint64(math.MaxUint32), c.MaxChunks)
	}
	if _, err := ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.EncoderConfig(); err != nil {
		return err
	}
	return nil
}

// InnerCodec returns the configured LDPC codec,
// or nil when the mode does not use one.
func (c Config) InnerCodec() (lt.InnerCodec, error) {
	mode, err := lt.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	if !mode.UsesInnerCodec() {
		return nil, nil
	}

	s, err := ldpc.NewStrategy(c.Inner.Strategy, c.Inner.MaxIterations)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	codec, err := ldpc.NewCodec(c.Inner.Code, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return codec, nil
}

// EncoderConfig builds the lt encoder configuration.
func (c Config) EncoderConfig() (lt.EncoderConfig, error) {
	mode, err := lt.ParseMode(c.Mode)
	if err != nil {
		return lt.EncoderConfig{}, err
	}
	soliton, err := lt.ParseSoliton(c.Soliton)
	if err != nil {
		return lt.EncoderConfig{}, err
	}
	inner, err := c.InnerCodec()
	if err != nil {
		return lt.EncoderConfig{}, err
	}

	ec := lt.EncoderConfig{
		ChunkSize: c.ChunkSize,
		Mode:      mode,
		Soliton:   soliton,
		Robust: lt.RobustParams{
			Heuristic:          c.Robust.Heuristic,
			Ripple:             c.Robust.Ripple,
			FailureProbability: c.Robust.FailureProbability,
		},
		Seed: c.Seed,
	}
	if inner != nil {
		ec.Inner = inner
	}

	if soliton == lt.SolitonRobust && ec.Robust != (lt.RobustParams{}) {
		// Surface bad robust parameters here rather than on first send.
		if _, err := lt.NewRobustSoliton(1, ec.Robust); err != nil {
			return lt.EncoderConfig{}, err
		}
	}
	return ec, nil
}

// checkSize reports whether a message of length bytes
// in chunks of chunkSize bytes fits the configured limits.
// chunkSize must be positive.
func (c Config) checkSize(length, chunkSize uint64) error {
	if length > uint64(c.MaxMessageSize) {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLarge, length, c.MaxMessageSize)
	}
	if chunks := (length + chunkSize - 1) / chunkSize; chunks > uint64(c.MaxChunks) {
		return fmt.Errorf("%w: %d chunks, limit %d", ErrMessageTooLarge, chunks, c.MaxChunks)
	}
	return nil
}

func (c Config) compression() Compression {
	comp, _ := ParseCompression(c.Compression)
	return comp
}
