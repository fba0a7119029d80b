package config

import (
	"net"
	"net/url"
	"strings"

	"readfile/types"
)

const opValidate = "config.validate"

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JobName) == "" {
		return types.ConfigError(opValidate, "JOB_NAME", "is required")
	}
	if strings.TrimSpace(c.InputFile) == "" {
		return types.ConfigError(opValidate, "INPUT_FILE", "is required")
	}
	if c.ChunkSize < 1 {
		return types.ConfigError(opValidate, "CHUNK_SIZE", "must be >= 1")
	}
	if c.LinesToSkip < 0 {
		return types.ConfigError(opValidate, "LINES_TO_SKIP", "must be >= 0")
	}
	if c.MaxLineBytes < 0 {
		return types.ConfigError(opValidate, "MAX_LINE_BYTES", "must be >= 0")
	}
	if c.PublishRetries < 0 {
		return types.ConfigError(opValidate, "PUBLISH_RETRIES", "must be >= 0")
	}
	if c.PublishTimeout <= 0 {
		return types.ConfigError(opValidate, "PUBLISH_TIMEOUT", "must be > 0")
	}

	if err := c.ValidatePublisher(); err != nil {
		return err
	}

	switch c.Checkpoint.Store {
	case "file":
		if strings.TrimSpace(c.Checkpoint.Path) == "" {
			return types.ConfigError(opValidate, "CHECKPOINT_PATH", "is required for the file store")
		}
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return types.ConfigError(opValidate, "REDIS_ADDR", "is required for the redis store")
		}
	case "none":
	default:
		return types.ConfigError(opValidate, "CHECKPOINT_STORE", "must be file, redis or none")
	}
	return nil
}

// ValidatePublisher checks only the transport settings.
func (c *Config) ValidatePublisher() error {
	switch c.Publisher {
	case "kafka":
		return c.validateKafka()
	case "http":
		u, err := url.Parse(c.HTTPEndpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return types.ConfigError(opValidate, "HTTP_ENDPOINT", "must be an http(s) URL")
		}
	default:
		return types.ConfigError(opValidate, "PUBLISHER", "must be kafka or http, got "+c.Publisher)
	}
	return nil
}

func (c *Config) validateKafka() error {
	if len(c.Kafka.Brokers) == 0 {
		return types.ConfigError(opValidate, "KAFKA_BROKERS", "at least one broker address is required")
	}
	for _, b := range c.Kafka.Brokers {
		host, port, err := net.SplitHostPort(b)
		if err != nil || host == "" || port == "" {
			return types.ConfigError(opValidate, "KAFKA_BROKERS", "invalid address "+b)
		}
	}
	if strings.TrimSpace(c.Kafka.Topic) == "" {
		return types.ConfigError(opValidate, "KAFKA_TOPIC", "is required")
	}
	return nil
}

// ErrLogging reports a bad LOG_LEVEL or LOG_FORMAT.
func ErrLogging(err error) error {
	return &types.OpError{Op: "config.logging", Kind: types.KindConfig, Err: err}
}
