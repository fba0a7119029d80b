package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"readfile/types"
)

type Config struct {
	JobName   string `yaml:"job_name"`
	InputFile string `yaml:"input_file"`
	ChunkSize int    `yaml:"chunk_size"`

	LinesToSkip     int      `yaml:"lines_to_skip"`
	CommentPrefixes []string `yaml:"comment_prefixes"`
	MaxLineBytes    int      `yaml:"max_line_bytes"` // 0 means unlimited
	KeyStrategy     string   `yaml:"key_strategy"`

	Publisher      string        `yaml:"publisher"` // kafka|http
	Kafka          KafkaConfig   `yaml:"kafka"`
	HTTPEndpoint   string        `yaml:"http_endpoint"`
	PublishRetries int           `yaml:"publish_retries"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`

	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Redis      RedisConfig      `yaml:"redis"`
	SpoolPath  string           `yaml:"spool_path"`

	PushgatewayURL string `yaml:"pushgateway_url"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type CheckpointConfig struct {
	Store string `yaml:"store"` // file|redis|none
	Path  string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

const (
	DefaultJobName   = "readFileAndPublishJob"
	DefaultChunkSize = 100
	DefaultBroker    = "localhost:9092"
	DefaultTopic     = "lines"
)

func Default() *Config {
	return &Config{
		JobName:        DefaultJobName,
		ChunkSize:      DefaultChunkSize,
		KeyStrategy:    "line",
		Publisher:      "kafka",
		Kafka:          KafkaConfig{Brokers: []string{DefaultBroker}, Topic: DefaultTopic},
		PublishTimeout: 10 * time.Second,
		Checkpoint:     CheckpointConfig{Store: "file", Path: "./data/readfile.checkpoint"},
		SpoolPath:      "./data/readfile.spool",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load builds the config from defaults, an optional YAML file and the
// environment (a .env file in the working directory is honored).
// It does not validate; callers apply flag overrides first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return types.ConfigError("config.env", key, "not an integer: "+v)
		}
		*dst = n
		return nil
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = SplitList(v)
		}
	}

	str("JOB_NAME", &cfg.JobName)
	str("INPUT_FILE", &cfg.InputFile)
	str("KEY_STRATEGY", &cfg.KeyStrategy)
	str("PUBLISHER", &cfg.Publisher)
	str("KAFKA_TOPIC", &cfg.Kafka.Topic)
	str("HTTP_ENDPOINT", &cfg.HTTPEndpoint)
	str("CHECKPOINT_STORE", &cfg.Checkpoint.Store)
	str("CHECKPOINT_PATH", &cfg.Checkpoint.Path)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("SPOOL_PATH", &cfg.SpoolPath)
	str("PUSHGATEWAY_URL", &cfg.PushgatewayURL)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	list("COMMENT_PREFIXES", &cfg.CommentPrefixes)

	ints := []struct {
		key string
		dst *int
	}{
		{"CHUNK_SIZE", &cfg.ChunkSize},
		{"LINES_TO_SKIP", &cfg.LinesToSkip},
		{"MAX_LINE_BYTES", &cfg.MaxLineBytes},
		{"PUBLISH_RETRIES", &cfg.PublishRetries},
		{"REDIS_DB", &cfg.Redis.DB},
	}
	for _, v := range ints {
		if err := num(v.key, v.dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("PUBLISH_TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return types.ConfigError("config.env", "PUBLISH_TIMEOUT", "not a duration: "+v)
		}
		cfg.PublishTimeout = d
	}
	return nil
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
