package checkpoint

import (
	"context"
	"path/filepath"
	"time"
)

// Checkpoint is the read position after the last fully published chunk.
type Checkpoint struct {
	Job       string    `json:"job"`
	File      string    `json:"file"`
	Offset    int64     `json:"offset"`
	Line      int64     `json:"line"`
	Chunks    int       `json:"chunks"`
	Records   int64     `json:"records"`
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists one checkpoint per job.
type Store interface {
	// Load returns ok=false when the job has no checkpoint.
	Load(ctx context.Context, job string) (cp Checkpoint, ok bool, err error)
	Save(ctx context.Context, cp Checkpoint) error
	Clear(ctx context.Context, job string) error
}

// Nop never remembers anything; every run starts from the top.
type Nop struct{}

func (Nop) Load(context.Context, string) (Checkpoint, bool, error) { return Checkpoint{}, false, nil }
func (Nop) Save(context.Context, Checkpoint) error                  { return nil }
func (Nop) Clear(context.Context, string) error                     { return nil }

// AbsPath is the form a file is recorded under in checkpoints and the spool.
func AbsPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// SameFile reports whether two recorded paths name the same input, so
// "in.txt", "./in.txt" and its absolute form all match.
func SameFile(a, b string) bool {
	return AbsPath(a) == AbsPath(b)
}
