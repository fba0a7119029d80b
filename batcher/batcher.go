package batcher

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"readfile/types"
)

// Config controls chunking
type Config struct {
	ChunkSize int
}

// Batcher groups lines into chunks of at most ChunkSize
type Batcher struct {
	cfg   Config
	buf   []types.Line
	start time.Time
	seq   int
	now   func() time.Time
}

// New creates a new Batcher
func New(cfg Config) (*Batcher, error) {
	if cfg.ChunkSize < 1 {
		return nil, &types.OpError{Op: "batcher.new", Kind: types.KindConfig, Err: errors.New("chunk size must be >= 1")}
	}
	return &Batcher{
		cfg: cfg,
		buf: make([]types.Line, 0, cfg.ChunkSize),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Add buffers one line and returns a chunk once the buffer is full.
func (b *Batcher) Add(line types.Line) (Chunk, bool) {
	if len(b.buf) == 0 {
		b.start = b.now()
	}
	b.buf = append(b.buf, line)
	if len(b.buf) >= b.cfg.ChunkSize {
		return b.flush(), true
	}
	return Chunk{}, false
}

// Flush emits whatever is buffered; false when nothing is.
func (b *Batcher) Flush() (Chunk, bool) {
	if len(b.buf) == 0 {
		return Chunk{}, false
	}
	return b.flush(), true
}

// Pending is the number of buffered lines.
func (b *Batcher) Pending() int { return len(b.buf) }

func (b *Batcher) flush() Chunk {
	b.seq++
	c := Chunk{
		ID:        uuid.New().String(),
		Seq:       b.seq,
		StartTime: b.start,
		EndTime:   b.now(),
		Lines:     b.buf,
	}
	b.buf = make([]types.Line, 0, b.cfg.ChunkSize)
	b.start = time.Time{}
	return c
}
