package batcher

import (
	"time"

	"readfile/types"
)

// Chunk is an ordered run of lines published as a unit
type Chunk struct {
	ID        string
	Seq       int // 1-based chunk number within the run
	StartTime time.Time
	EndTime   time.Time
	Lines     []types.Line
}

func (c Chunk) Len() int { return len(c.Lines) }

// FirstLine and LastLine are file line numbers, 0 for an empty chunk.
func (c Chunk) FirstLine() int64 {
	if len(c.Lines) == 0 {
		return 0
	}
	return c.Lines[0].Number
}

func (c Chunk) LastLine() int64 {
	if len(c.Lines) == 0 {
		return 0
	}
	return c.Lines[len(c.Lines)-1].Number
}

// EndOffset is the byte offset just past the chunk's last line.
func (c Chunk) EndOffset() int64 {
	if len(c.Lines) == 0 {
		return 0
	}
	return c.Lines[len(c.Lines)-1].Offset
}

// Texts returns the raw line texts in order.
func (c Chunk) Texts() []string {
	out := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		out[i] = l.Text
	}
	return out
}
