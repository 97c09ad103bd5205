package lt

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// State is the outcome of a single [*Decoder.Catch].
type State uint8

const (
	// Missing means more droplets are needed.
	Missing State = iota

	// Finished means the message has been reconstructed.
	// It is reported exactly once.
	Finished
)

func (s State) String() string {
	switch s {
	case Missing:
		return "missing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of decoder progress.
type Stats struct {
	// Number of chunks reconstructed so far.
	Resolved int

	// Number of chunks in the message, k.
	Total int

	// Number of well-formed droplets caught, including redundant ones.
	Received int
}

// Result is returned from [*Decoder.Catch].
type Result struct {
	State State

	// The reconstructed message, set only when State is Finished.
	Data []byte

	Stats Stats
}

// DecoderOption configures a [Decoder].
type DecoderOption func(*Decoder)

// WithInnerCodec passes every droplet payload through c before decoding.
// The inner output is truncated to the chunk size.
func WithInnerCodec(c InnerCodec) DecoderOption {
	return func(d *Decoder) {
		d.inner = c
	}
}

// pending is a droplet that still combines more than one unresolved chunk.
type pending struct {
	// Unresolved chunk indices; data is the XOR of exactly these chunks.
	edges []int
	data  []byte

	// Set once the droplet has been reduced to at most one edge
	// and is no longer referenced from any useful waiting list entry.
	done bool
}

// Decoder reconstructs a message from droplets
// using the peeling (belief propagation on erasures) algorithm.
//
// Methods on Decoder are not safe for concurrent use.
type Decoder struct {
	length    int
	chunkSize int
	k         int

	inner InnerCodec

	chunks   [][]byte
	have     *bitset.BitSet
	resolved int
	received int

	// waiting[i] holds every pending droplet that had chunk i
	// among its edges when it was parked.
	waiting [][]*pending
	npend   int

	// Chunks resolved but not yet propagated into waiting droplets.
	queue []int

	finished bool
}

// NewDecoder returns a Decoder for a message of length bytes
// split into chunks of chunkSize bytes.
func NewDecoder(length, chunkSize int, opts ...DecoderOption) (*Decoder, error) {
	if length <= 0 {
		return nil, configError("message length must be positive (got %d)", length)
	}
	if chunkSize <= 0 {
		return nil, configError("chunk size must be positive (got %d)", chunkSize)
	}

	k := chunkCount(length, chunkSize)
	d := &Decoder{
		length:    length,
		chunkSize: chunkSize,
		k:         k,
		chunks:    make([][]byte, k),
		have:      bitset.New(uint(k)),
		waiting:   make([][]*pending, k),
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Catch consumes one droplet.
//
// A droplet that cannot belong to this message is rejected with a
// [*MalformedError], and Catch on a finished decoder returns [ErrFinished].
// In both cases the decoder is left unchanged.
func (d *Decoder) Catch(drop Droplet) (Result, error) {
	if d.finished {
		return Result{Stats: d.Stats()}, ErrFinished
	}

	data, err := d.payload(drop.Data)
	if err != nil {
		return Result{Stats: d.Stats()}, err
	}

	var idx []int
	switch s := drop.Selector.(type) {
	case Seeded:
		if s.Degree < 1 || s.Degree > d.k {
			return Result{Stats: d.Stats()}, &MalformedError{
				Reason: fmt.Sprintf("degree %d outside [1, %d]", s.Degree, d.k),
			}
		}
		idx = oddIndices(SeededIndices(s.Seed, s.Degree, d.k))
	case Explicit:
		if s.Index < 0 || s.Index >= d.k {
			return Result{Stats: d.Stats()}, &MalformedError{
				Reason: fmt.Sprintf("chunk index %d outside [0, %d)", s.Index, d.k),
			}
		}
		idx = []int{s.Index}
	default:
		return Result{Stats: d.Stats()}, &MalformedError{
			Reason: fmt.Sprintf("unknown selector %T", drop.Selector),
		}
	}

	d.received++

	// Strip chunks that are already known.
	edges := idx[:0]
	for _, i := range idx {
		if d.have.Test(uint(i)) {
			xorBytes(data, d.chunks[i])
			continue
		}
		edges = append(edges, i)
	}

	switch len(edges) {
	case 0:
		// Redundant.
	case 1:
		d.resolve(edges[0], data)
		d.propagate()
	default:
		p := &pending{edges: edges, data: data}
		for _, i := range edges {
			d.waiting[i] = append(d.waiting[i], p)
		}
		d.npend++
	}

	if d.resolved < d.k {
		return Result{State: Missing, Stats: d.Stats()}, nil
	}
	return Result{State: Finished, Data: d.assemble(), Stats: d.Stats()}, nil
}

// payload returns a private, chunk-sized copy of the droplet data,
// running it through the inner codec first if one is configured.
func (d *Decoder) payload(raw []byte) ([]byte, error) {
	if d.inner == nil {
		if len(raw) != d.chunkSize {
			return nil, &MalformedError{
				Reason: fmt.Sprintf("payload is %d bytes, want %d", len(raw), d.chunkSize),
			}
		}
		return append([]byte(nil), raw...), nil
	}

	out, err := d.inner.Decode(raw)
	if err != nil {
		return nil, &MalformedError{Reason: "inner decode failed", Err: err}
	}
	if len(out) < d.chunkSize {
		return nil, &MalformedError{
			Reason: fmt.Sprintf("inner payload is %d bytes, want at least %d", len(out), d.chunkSize),
		}
	}
	return append([]byte(nil), out[:d.chunkSize]...), nil
}

func (d *Decoder) resolve(i int, data []byte) {
	if d.have.Test(uint(i)) {
		panic(fmt.Errorf("BUG: chunk %d resolved twice", i))
	}
	d.chunks[i] = data
	d.have.Set(uint(i))
	d.resolved++
	d.queue = append(d.queue, i)
}

// propagate drains the work queue, XORing each newly resolved chunk
// out of the droplets waiting on it.
// Droplets reduced to one unresolved chunk resolve that chunk,
// which is queued in turn.
func (d *Decoder) propagate() {
	for len(d.queue) > 0 {
		i := d.queue[0]
		d.queue = d.queue[1:]

		waiters := d.waiting[i]
		d.waiting[i] = nil

		for _, p := range waiters {
			if p.done {
				continue
			}

			xorBytes(p.data, d.chunks[i])
			p.edges = removeEdge(p.edges, i)

			if len(p.edges) > 1 {
				continue
			}

			p.done = true
			d.npend--
			if len(p.edges) == 1 && !d.have.Test(uint(p.edges[0])) {
				d.resolve(p.edges[0], p.data)
			}
		}
	}
	d.queue = nil
}

func removeEdge(edges []int, i int) []int {
	for j, e := range edges {
		if e == i {
			return append(edges[:j], edges[j+1:]...)
		}
	}
	panic(fmt.Errorf("BUG: chunk %d not among pending edges %v", i, edges))
}

func (d *Decoder) assemble() []byte {
	out := make([]byte, 0, d.k*d.chunkSize)
	for _, c := range d.chunks {
		out = append(out, c...)
	}
	out = out[:d.length]

	d.finished = true
	d.chunks = nil
	d.waiting = nil
	d.npend = 0
	return out
}

// Stats returns the current progress.
func (d *Decoder) Stats() Stats {
	return Stats{
		Resolved: d.resolved,
		Total:    d.k,
		Received: d.received,
	}
}

// Finished reports whether the message has been reconstructed.
func (d *Decoder) Finished() bool { return d.finished }

// Missing returns the indices of chunks not yet resolved, in ascending order.
func (d *Decoder) Missing() []int {
	out := make([]int, 0, d.k-d.resolved)
	for i := 0; i < d.k; i++ {
		if !d.have.Test(uint(i)) {
			out = append(out, i)
		}
	}
	return out
}

// Pending returns the number of parked droplets
// still combining two or more unresolved chunks.
func (d *Decoder) Pending() int { return d.npend }

// Len returns the declared message length.
func (d *Decoder) Len() int { return d.length }

// ChunkSize returns the chunk size.
func (d *Decoder) ChunkSize() int { return d.chunkSize }
