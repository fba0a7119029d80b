package buffer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"readfile/sender"
	"readfile/types"
)

// Entry is one chunk that could not be published. Job, File and FirstLine
// identify it; AfterOffset is the checkpoint offset the chunk follows.
type Entry struct {
	Job         string            `json:"job"`
	File        string            `json:"file"`
	ChunkID     string            `json:"chunk_id"`
	Seq         int               `json:"seq"`
	FirstLine   int64             `json:"first_line"`
	LastLine    int64             `json:"last_line"`
	AfterOffset int64             `json:"after_offset"`
	EndOffset   int64             `json:"end_offset"`
	Hash        string            `json:"hash"`
	Error       string            `json:"error"`
	SpooledAt   time.Time         `json:"spooled_at"`
	Records     []sender.Envelope `json:"records"`
}

func (e Entry) sameChunk(o Entry) bool {
	return e.Job == o.Job && e.File == o.File && e.FirstLine == o.FirstLine
}

// Spool is an append-only JSON-lines file of failed chunks.
type Spool struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Spool {
	return &Spool{path: path}
}

func (s *Spool) Path() string { return s.path }

// Append one failed chunk without looking at what is already spooled
func (s *Spool) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(e)
}

// Put spools e, replacing an earlier entry for the same job, file and
// first line so a chunk that keeps failing is held only once.
func (s *Spool) Put(e Entry) (replaced bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLocked()
	if err != nil {
		return false, err
	}
	for i := range entries {
		if entries[i].sameChunk(e) {
			entries[i] = e
			return true, s.writeLocked(entries)
		}
	}
	return false, s.appendLocked(e)
}

// Pending counts the entries spooled for job and file.
func (s *Spool) Pending(job, file string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLocked()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Job == job && e.File == file {
			n++
		}
	}
	return n, nil
}

// DropCovered removes the entries of job and file whose lines all lie at or
// before throughLine, i.e. lines a run has since published itself.
func (s *Spool) DropCovered(job, file string, throughLine int64) (dropped, remaining int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLocked()
	if err != nil {
		return 0, 0, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Job == job && e.File == file {
			if e.LastLine <= throughLine {
				dropped++
				continue
			}
			remaining++
		}
		kept = append(kept, e)
	}
	if dropped == 0 {
		return 0, remaining, nil
	}
	return dropped, remaining, s.writeLocked(kept)
}

func (s *Spool) appendLocked(e Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return s.fail("spool.append", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return s.fail("spool.append", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(e); err != nil {
		return s.fail("spool.append", err)
	}
	return f.Sync()
}

// ReadAll returns the spooled chunks oldest first; a missing file is empty.
func (s *Spool) ReadAll() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *Spool) readLocked() ([]Entry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("spool.read", err)
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, s.fail("spool.read", fmt.Errorf("entry %d: %w", n, err))
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, s.fail("spool.read", err)
	}
	return out, nil
}

// Replace rewrites the spool with entries; an empty slice removes it.
func (s *Spool) Replace(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(entries)
}

func (s *Spool) writeLocked(entries []Entry) error {
	if len(entries) == 0 {
		return s.clearLocked()
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return s.fail("spool.replace", err)
	}
	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			f.Close()
			os.Remove(tmp)
			return s.fail("spool.replace", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return s.fail("spool.replace", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return s.fail("spool.replace", err)
	}
	return nil
}

// Clear removes the spool after a successful replay
func (s *Spool) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *Spool) clearLocked() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return s.fail("spool.clear", err)
	}
	return nil
}

func (s *Spool) fail(op string, err error) error {
	return &types.OpError{Op: op, Kind: types.KindSpool, Path: s.path, Err: err}
}
