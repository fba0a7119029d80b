package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"readfile/types"
)

// FileStore keeps the checkpoint as a JSON document on local disk.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(_ context.Context, job string) (Checkpoint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, s.fail("checkpoint.load", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, s.fail("checkpoint.load", err)
	}
	if cp.Job != job {
		return Checkpoint{}, false, nil
	}
	return cp, true, nil
}

// Save replaces the file atomically so a crash never leaves half a document.
func (s *FileStore) Save(_ context.Context, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return s.fail("checkpoint.save", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return s.fail("checkpoint.save", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return s.fail("checkpoint.save", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return s.fail("checkpoint.save", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return s.fail("checkpoint.save", err)
	}
	if err := tmp.Close(); err != nil {
		return s.fail("checkpoint.save", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return s.fail("checkpoint.save", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context, job string) error {
	if _, ok, err := s.Load(ctx, job); err != nil || !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return s.fail("checkpoint.clear", err)
	}
	return nil
}

func (s *FileStore) fail(op string, err error) error {
	return &types.OpError{Op: op, Kind: types.KindCheckpoint, Path: s.Path, Err: err}
}
