package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"readfile/types"
)

const keyPrefix = "readfile:checkpoint:"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps checkpoints under readfile:checkpoint:<job>.
type RedisStore struct {
	client redis.UniversalClient
	addr   string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, &types.OpError{Op: "checkpoint.redis_connect", Kind: types.KindCheckpoint, Path: cfg.Addr, Err: err}
	}
	return &RedisStore{client: rdb, addr: cfg.Addr}, nil
}

func (s *RedisStore) Load(ctx context.Context, job string) (Checkpoint, bool, error) {
	val, err := s.client.Get(ctx, Key(job)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, s.fail("checkpoint.load", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(val, &cp); err != nil {
		return Checkpoint{}, false, s.fail("checkpoint.load", fmt.Errorf("key %s: %w", Key(job), err))
	}
	return cp, true, nil
}

func (s *RedisStore) Save(ctx context.Context, cp Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return s.fail("checkpoint.save", err)
	}
	if err := s.client.Set(ctx, Key(cp.Job), data, 0).Err(); err != nil {
		return s.fail("checkpoint.save", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, job string) error {
	if err := s.client.Del(ctx, Key(job)).Err(); err != nil {
		return s.fail("checkpoint.clear", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Key is the redis key holding a job's checkpoint.
func Key(job string) string {
	return keyPrefix + job
}

func (s *RedisStore) fail(op string, err error) error {
	return &types.OpError{Op: op, Kind: types.KindCheckpoint, Path: s.addr, Err: err}
}
