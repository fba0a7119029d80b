package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"readfile/types"
)

// Options controls where and how a FileSource reads.
type Options struct {
	Path string

	// resume position, both zero for a fresh read
	StartOffset int64
	StartLine   int64

	LinesToSkip     int      // header lines, honored only on a fresh read
	CommentPrefixes []string // matching lines are consumed but not emitted
	MaxLineBytes    int      // 0 means unlimited
}

// FileSource yields the lines of a flat file in order.
type FileSource struct {
	opts   Options
	file   *os.File
	reader *bufio.Reader

	offset int64
	line   int64
	done   bool
}

// Open acquires the file and positions it at opts.StartOffset.
func Open(opts Options) (*FileSource, error) {
	f, err := os.Open(opts.Path)
	if err != nil {
		kind := types.KindRead
		if errors.Is(err, os.ErrNotExist) {
			kind = types.KindNotFound
		}
		return nil, &types.OpError{Op: "source.open", Kind: kind, Path: opts.Path, Err: err}
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &types.OpError{Op: "source.open", Kind: types.KindRead, Path: opts.Path, Err: err}
	}
	if fi.IsDir() {
		f.Close()
		return nil, &types.OpError{Op: "source.open", Kind: types.KindRead, Path: opts.Path, Err: errors.New("is a directory")}
	}
	if opts.StartOffset > fi.Size() {
		f.Close()
		return nil, &types.OpError{
			Op:   "source.open",
			Kind: types.KindRead,
			Path: opts.Path,
			Err:  fmt.Errorf("resume offset %d beyond file size %d", opts.StartOffset, fi.Size()),
		}
	}

	if opts.StartOffset > 0 {
		if _, err := f.Seek(opts.StartOffset, io.SeekStart); err != nil {
			f.Close()
			return nil, &types.OpError{Op: "source.seek", Kind: types.KindRead, Path: opts.Path, Err: err}
		}
	}

	s := &FileSource{
		opts:   opts,
		file:   f,
		reader: bufio.NewReader(f),
		offset: opts.StartOffset,
		line:   opts.StartLine,
	}

	if opts.StartOffset == 0 {
		for i := 0; i < opts.LinesToSkip; i++ {
			if _, ok, err := s.readRaw(); err != nil {
				s.Close()
				return nil, err
			} else if !ok {
				break
			}
		}
	}
	return s, nil
}

// Next returns the next line, or io.EOF once the file is exhausted.
func (s *FileSource) Next() (types.Line, error) {
	for {
		text, ok, err := s.readRaw()
		if err != nil {
			return types.Line{}, err
		}
		if !ok {
			return types.Line{}, io.EOF
		}
		if s.isComment(text) {
			continue
		}
		return types.Line{
			Number: s.line,
			Offset: s.offset,
			Source: s.opts.Path,
			Text:   text,
		}, nil
	}
}

// Offset is the byte position just past the last consumed line.
func (s *FileSource) Offset() int64 { return s.offset }

// LineNumber is the number of the last consumed line.
func (s *FileSource) LineNumber() int64 { return s.line }

func (s *FileSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *FileSource) readRaw() (string, bool, error) {
	if s.done {
		return "", false, nil
	}

	// a terminator may add up to two bytes on top of the line limit
	limit := -1
	if s.opts.MaxLineBytes > 0 {
		limit = s.opts.MaxLineBytes + 2
	}

	var raw []byte
	for {
		frag, err := s.reader.ReadSlice('\n')
		raw = append(raw, frag...)
		if limit > 0 && len(raw) > limit {
			return "", false, s.tooLong(int64(len(raw)))
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			s.done = true
			if len(raw) == 0 {
				return "", false, nil
			}
			break
		}
		return "", false, &types.OpError{Op: "source.read", Kind: types.KindRead, Path: s.opts.Path, Err: err}
	}

	s.offset += int64(len(raw))
	s.line++

	text := strings.TrimSuffix(string(raw), "\n")
	text = strings.TrimSuffix(text, "\r")

	if s.opts.MaxLineBytes > 0 && len(text) > s.opts.MaxLineBytes {
		return "", false, s.tooLong(int64(len(text)))
	}
	return text, true, nil
}

func (s *FileSource) tooLong(n int64) error {
	return &types.OpError{
		Op:   "source.read",
		Kind: types.KindRead,
		Path: s.opts.Path,
		Err:  fmt.Errorf("line %d is over %d bytes (read %d)", s.line+1, s.opts.MaxLineBytes, n),
	}
}

func (s *FileSource) isComment(text string) bool {
	for _, p := range s.opts.CommentPrefixes {
		if p != "" && strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
