package lt

// Blocks is a message split into fixed-size chunks.
// The final chunk may be short; it behaves as if zero-padded
// to the chunk size wherever it is combined with other chunks.
//
// Blocks is immutable after creation.
type Blocks struct {
	data      []byte
	chunkSize int
	count     int
}

// NewBlocks copies data and splits it into chunks of chunkSize bytes.
func NewBlocks(data []byte, chunkSize int) (*Blocks, error) {
	if chunkSize <= 0 {
		return nil, configError("chunk size must be positive (got %d)", chunkSize)
	}
	if len(data) == 0 {
		return nil, configError("message is empty")
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	return &Blocks{
		data:      buf,
		chunkSize: chunkSize,
		count:     chunkCount(len(data), chunkSize),
	}, nil
}

func chunkCount(length, chunkSize int) int {
	return (length + chunkSize - 1) / chunkSize
}

// Len returns the true message length, without padding.
func (b *Blocks) Len() int { return len(b.data) }

// ChunkSize returns the configured chunk size.
func (b *Blocks) ChunkSize() int { return b.chunkSize }

// Count returns the number of chunks, k.
func (b *Blocks) Count() int { return b.count }

// Chunk returns the unpadded bytes of chunk i.
// The returned slice must not be modified.
func (b *Blocks) Chunk(i int) []byte {
	begin := i * b.chunkSize
	end := min(begin+b.chunkSize, len(b.data))
	return b.data[begin:end]
}

// XORInto XORs chunk i into dst, which must be ChunkSize bytes long.
func (b *Blocks) XORInto(dst []byte, i int) {
	xorBytes(dst, b.Chunk(i))
}
