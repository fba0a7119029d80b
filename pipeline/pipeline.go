package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"readfile/batcher"
	"readfile/buffer"
	"readfile/checkpoint"
	"readfile/hasher"
	"readfile/logger"
	"readfile/metrics"
	"readfile/record"
	"readfile/retry"
	"readfile/sender"
	"readfile/source"
	"readfile/types"
)

type Config struct {
	JobName   string
	InputFile string
	ChunkSize int

	LinesToSkip     int
	CommentPrefixes []string
	MaxLineBytes    int

	Retry          retry.Policy
	PublishTimeout time.Duration
}

// Deps are the collaborators a run uses. Sender and Mapper are required;
// the rest fall back to no-op or private instances.
type Deps struct {
	Sender  sender.Sender
	Mapper  *record.Mapper
	Store   checkpoint.Store
	Spool   *buffer.Spool
	Metrics *metrics.Metrics
}

type Result struct {
	RunID            string
	Resumed          bool
	StartOffset      int64
	LinesRead        int64
	RecordsPublished int64
	ChunkSizes       []int
	LastHash         string
	Duration         time.Duration
}

// Pipeline reads InputFile, chunks it and publishes every chunk in order.
type Pipeline struct {
	cfg   Config
	deps  Deps
	file  string
	state atomic.Int32
}

func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Sender == nil || deps.Mapper == nil {
		return nil, &types.OpError{Op: "pipeline.new", Kind: types.KindConfig, Err: errors.New("sender and mapper are required")}
	}
	if cfg.ChunkSize < 1 {
		return nil, types.ConfigError("pipeline.new", "CHUNK_SIZE", "must be >= 1")
	}
	if cfg.InputFile == "" {
		return nil, types.ConfigError("pipeline.new", "INPUT_FILE", "is required")
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	if deps.Store == nil {
		deps.Store = checkpoint.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	return &Pipeline{cfg: cfg, deps: deps, file: checkpoint.AbsPath(cfg.InputFile)}, nil
}

// State is safe to call from other goroutines while Run is in progress.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// run holds the mutable progress of one Run call. cpOffset is the offset of
// the last saved checkpoint; spooled counts spool entries for this file that
// the run has not yet published itself.
type run struct {
	res      Result
	prevHash string
	chunks   int
	records  int64
	cpOffset int64
	spooled  int
}

// Run processes the file from the last checkpoint (or the top) to the end.
// A chunk is checkpointed only after the sender acknowledged all of it, so
// a failed run re-sends at most the failed chunk when restarted. Spooled
// copies of chunks the run publishes are dropped, leaving each failed chunk
// one way back: the resumed run or a replay, not both.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if s := p.State(); s != StateIdle {
		return Result{}, fmt.Errorf("pipeline already used (state=%s)", s)
	}

	started := time.Now()
	r := &run{res: Result{RunID: uuid.New().String()}}
	log := logger.L().With("job", p.cfg.JobName, "run_id", r.res.RunID)

	err := p.execute(ctx, r)
	r.res.Duration = time.Since(started)

	if err != nil {
		p.setState(StateFailed)
		log.Error("pipeline.failed",
			"kind", string(types.KindOf(err)),
			"chunks", len(r.res.ChunkSizes),
			"records", r.res.RecordsPublished,
			"err", err,
		)
		return r.res, err
	}

	p.setState(StateDone)
	p.deps.Metrics.MarkSuccess(time.Now())
	log.Info("pipeline.done",
		"lines", r.res.LinesRead,
		"records", r.res.RecordsPublished,
		"chunks", len(r.res.ChunkSizes),
		"took", r.res.Duration.String(),
	)
	return r.res, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run) error {
	log := logger.L().With("job", p.cfg.JobName, "run_id", r.res.RunID)
	p.setState(StateReading)

	opts := source.Options{
		Path:            p.cfg.InputFile,
		LinesToSkip:     p.cfg.LinesToSkip,
		CommentPrefixes: p.cfg.CommentPrefixes,
		MaxLineBytes:    p.cfg.MaxLineBytes,
	}

	cp, ok, err := p.deps.Store.Load(ctx, p.cfg.JobName)
	if err != nil {
		return err
	}
	switch {
	case ok && checkpoint.SameFile(cp.File, p.file):
		opts.StartOffset, opts.StartLine = cp.Offset, cp.Line
		r.prevHash, r.chunks, r.records = cp.Hash, cp.Chunks, cp.Records
		r.cpOffset = cp.Offset
		r.res.Resumed, r.res.StartOffset = true, cp.Offset
		log.Info("pipeline.resume", "file", cp.File, "offset", cp.Offset, "line", cp.Line, "chunks", cp.Chunks)
	case ok:
		log.Warn("pipeline.checkpoint_ignored", "checkpoint_file", cp.File, "file", p.file)
	}

	src, err := source.Open(opts)
	if err != nil {
		return err
	}
	defer src.Close()

	b, err := batcher.New(batcher.Config{ChunkSize: p.cfg.ChunkSize})
	if err != nil {
		return err
	}

	if p.deps.Spool != nil {
		if r.spooled, err = p.deps.Spool.Pending(p.cfg.JobName, p.file); err != nil {
			return err
		}
		if r.spooled > 0 {
			log.Info("pipeline.spool_pending", "entries", r.spooled, "spool", p.deps.Spool.Path())
		}
	}

	log.Info("pipeline.started", "file", p.cfg.InputFile, "chunk_size", p.cfg.ChunkSize, "offset", opts.StartOffset)

	for {
		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		r.res.LinesRead++
		p.deps.Metrics.LinesRead.Inc()

		p.setState(StateBatching)
		if chunk, full := b.Add(line); full {
			if err := p.publish(ctx, r, chunk); err != nil {
				return err
			}
		}
		p.setState(StateReading)
	}

	if chunk, ok := b.Flush(); ok {
		p.setState(StateBatching)
		if err := p.publish(ctx, r, chunk); err != nil {
			return err
		}
	}

	return p.deps.Store.Clear(ctx, p.cfg.JobName)
}

func (p *Pipeline) publish(ctx context.Context, r *run, chunk batcher.Chunk) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline canceled before chunk %d: %w", chunk.Seq, err)
	}
	p.setState(StatePublishing)

	hash := hasher.ChainHash(r.prevHash, chunk.Texts())
	records, err := p.deps.Mapper.MapAll(chunk.Lines, chunk.ID, hash)
	if err != nil {
		return err
	}

	began := time.Now()
	err = retry.Execute(ctx, p.cfg.Retry, "publish", func(ctx context.Context) error {
		sctx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
		defer cancel()

		if err := p.deps.Sender.Send(sctx, records); err != nil {
			p.deps.Metrics.PublishFailures.Inc()
			return err
		}
		return nil
	})
	if err != nil {
		// a cancelled chunk is re-read on resume; spooling it too would give
		// it a second way back
		if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
			p.spool(r, chunk, hash, records, err)
		}
		return fmt.Errorf("chunk %d (lines %d-%d): %w", chunk.Seq, chunk.FirstLine(), chunk.LastLine(), err)
	}
	p.deps.Metrics.ObserveChunk(len(records), time.Since(began))

	prev := r.prevHash
	r.prevHash = hash
	r.chunks++
	r.records += int64(len(records))
	r.res.RecordsPublished += int64(len(records))
	r.res.ChunkSizes = append(r.res.ChunkSizes, len(records))
	r.res.LastHash = hash

	logger.L().Info("pipeline.chunk_published",
		"job", p.cfg.JobName,
		"chunk_id", chunk.ID,
		"seq", chunk.Seq,
		"count", len(records),
		"lines", fmt.Sprintf("%d-%d", chunk.FirstLine(), chunk.LastLine()),
		"hash", hasher.Short(hash),
		"prev", hasher.Short(prev),
	)

	err = p.deps.Store.Save(ctx, checkpoint.Checkpoint{
		Job:       p.cfg.JobName,
		File:      p.file,
		Offset:    chunk.EndOffset(),
		Line:      chunk.LastLine(),
		Chunks:    r.chunks,
		Records:   r.records,
		Hash:      hash,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	r.cpOffset = chunk.EndOffset()

	if r.spooled > 0 {
		dropped, remaining, err := p.deps.Spool.DropCovered(p.cfg.JobName, p.file, chunk.LastLine())
		if err != nil {
			return err
		}
		r.spooled = remaining
		if dropped > 0 {
			logger.L().Info("pipeline.spool_superseded", "job", p.cfg.JobName, "through_line", chunk.LastLine(), "dropped", dropped)
		}
	}
	return nil
}

func (p *Pipeline) spool(r *run, chunk batcher.Chunk, hash string, records []types.Record, cause error) {
	if p.deps.Spool == nil {
		return
	}
	replaced, err := p.deps.Spool.Put(buffer.Entry{
		Job:         p.cfg.JobName,
		File:        p.file,
		ChunkID:     chunk.ID,
		Seq:         chunk.Seq,
		FirstLine:   chunk.FirstLine(),
		LastLine:    chunk.LastLine(),
		AfterOffset: r.cpOffset,
		EndOffset:   chunk.EndOffset(),
		Hash:        hash,
		Error:       cause.Error(),
		SpooledAt:   time.Now().UTC(),
		Records:     sender.ToEnvelopes(records),
	})
	if err != nil {
		logger.L().Error("pipeline.spool_failed", "chunk_id", chunk.ID, "err", err)
		return
	}
	logger.L().Warn("pipeline.chunk_spooled",
		"chunk_id", chunk.ID,
		"seq", chunk.Seq,
		"replaced", replaced,
		"spool", p.deps.Spool.Path(),
	)
}

func (p *Pipeline) setState(s State) {
	old := State(p.state.Swap(int32(s)))
	if old != s {
		logger.L().Debug("pipeline.state", "from", old.String(), "to", s.String())
	}
}
