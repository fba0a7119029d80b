package pipeline

import (
	"context"
	"fmt"
	"time"

	"readfile/buffer"
	"readfile/checkpoint"
	"readfile/logger"
	"readfile/retry"
	"readfile/sender"
)

type ReplayResult struct {
	Chunks    int
	Records   int
	Remaining int
}

// Replay re-sends spooled chunks oldest first. Sent chunks are dropped from
// the spool; on the first failure the rest stay spooled for the next replay.
// A sent chunk that directly follows its job's checkpoint moves the
// checkpoint past it, so a later run does not publish it again.
func Replay(ctx context.Context, spool *buffer.Spool, s sender.Sender, store checkpoint.Store, policy retry.Policy, timeout time.Duration) (ReplayResult, error) {
	var res ReplayResult

	entries, err := spool.ReadAll()
	if err != nil {
		return res, err
	}
	if len(entries) == 0 {
		logger.L().Info("replay.empty", "spool", spool.Path())
		return res, nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if store == nil {
		store = checkpoint.Nop{}
	}

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, keepRemaining(spool, entries[i:], &res, fmt.Errorf("replay canceled: %w", err))
		}

		records := sender.FromEnvelopes(e.Records)
		err := retry.Execute(ctx, policy, "replay", func(ctx context.Context) error {
			sctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return s.Send(sctx, records)
		})
		if err != nil {
			return res, keepRemaining(spool, entries[i:], &res, fmt.Errorf("replay chunk %s: %w", e.ChunkID, err))
		}

		res.Chunks++
		res.Records += len(records)
		logger.L().Info("replay.chunk_sent", "chunk_id", e.ChunkID, "seq", e.Seq, "count", len(records))

		if err := advance(ctx, store, e); err != nil {
			return res, keepRemaining(spool, entries[i+1:], &res, err)
		}
	}

	return res, spool.Clear()
}

func advance(ctx context.Context, store checkpoint.Store, e buffer.Entry) error {
	if e.Job == "" {
		return nil
	}
	cp, ok, err := store.Load(ctx, e.Job)
	if err != nil {
		return err
	}

	switch {
	case ok && checkpoint.SameFile(cp.File, e.File) && cp.Offset == e.AfterOffset:
	case !ok && e.AfterOffset == 0:
		cp = checkpoint.Checkpoint{Job: e.Job, File: e.File}
	default:
		logger.L().Warn("replay.checkpoint_kept",
			"job", e.Job,
			"chunk_id", e.ChunkID,
			"checkpoint_offset", cp.Offset,
			"after_offset", e.AfterOffset,
		)
		return nil
	}

	cp.Offset, cp.Line, cp.Hash = e.EndOffset, e.LastLine, e.Hash
	cp.Chunks++
	cp.Records += int64(len(e.Records))
	cp.UpdatedAt = time.Now().UTC()
	if err := store.Save(ctx, cp); err != nil {
		return err
	}
	logger.L().Info("replay.checkpoint_advanced", "job", e.Job, "offset", cp.Offset, "line", cp.Line)
	return nil
}

func keepRemaining(spool *buffer.Spool, rest []buffer.Entry, res *ReplayResult, cause error) error {
	res.Remaining = len(rest)
	if err := spool.Replace(rest); err != nil {
		logger.L().Error("replay.spool_rewrite_failed", "err", err)
	}
	return cause
}
