package cli

import (
	"context"
	"io"
	"time"

	"readfile/buffer"
	"readfile/checkpoint"
	"readfile/config"
	"readfile/record"
	"readfile/retry"
	"readfile/sender"
)

func buildSender(cfg *config.Config) sender.Sender {
	if cfg.Publisher == "http" {
		return sender.NewHTTPSender(cfg.HTTPEndpoint, cfg.PublishTimeout)
	}
	return sender.NewKafkaSender(sender.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		BatchSize:    cfg.ChunkSize,
		WriteTimeout: cfg.PublishTimeout,
	})
}

// buildStore returns the checkpoint store and a closer for it.
func buildStore(ctx context.Context, cfg *config.Config) (checkpoint.Store, io.Closer, error) {
	switch cfg.Checkpoint.Store {
	case "redis":
		s, err := checkpoint.NewRedisStore(ctx, checkpoint.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "none":
		return checkpoint.Nop{}, noClose{}, nil
	default:
		return checkpoint.NewFileStore(cfg.Checkpoint.Path), noClose{}, nil
	}
}

func buildMapper(cfg *config.Config) (*record.Mapper, error) {
	k, err := record.ParseKeyStrategy(cfg.KeyStrategy)
	if err != nil {
		return nil, err
	}
	return record.NewMapper(k), nil
}

func buildSpool(cfg *config.Config) *buffer.Spool {
	if cfg.SpoolPath == "" {
		return nil
	}
	return buffer.New(cfg.SpoolPath)
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		Retries:        cfg.PublishRetries,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

type noClose struct{}

func (noClose) Close() error { return nil }
