package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"readfile/config"
	"readfile/logger"
	"readfile/metrics"
	"readfile/pipeline"
)

// runFlags override config values when set on the command line.
type runFlags struct {
	file        string
	brokers     []string
	topic       string
	chunkSize   int
	keyStrategy string
	publisher   string
	endpoint    string
	retries     int
	store       string
	maxLine     int
}

func runCmd(root *rootOptions) *cobra.Command {
	f := &runFlags{}

	c := &cobra.Command{
		Use:   "run",
		Short: "Read the input file and publish it chunk by chunk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runJob(cmd.Context(), cfg)
		},
	}

	c.Flags().StringVarP(&f.file, "file", "f", "", "input file (INPUT_FILE)")
	c.Flags().StringSliceVar(&f.brokers, "brokers", nil, "Kafka bootstrap brokers (KAFKA_BROKERS)")
	c.Flags().StringVarP(&f.topic, "topic", "t", "", "Kafka topic (KAFKA_TOPIC)")
	c.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "lines per chunk (CHUNK_SIZE)")
	c.Flags().StringVar(&f.keyStrategy, "key", "", "record key: line|none|sequence|hash|uuid|jsonpath:<expr> (KEY_STRATEGY)")
	c.Flags().StringVar(&f.publisher, "publisher", "", "kafka|http (PUBLISHER)")
	c.Flags().StringVar(&f.endpoint, "http-endpoint", "", "endpoint for the http publisher (HTTP_ENDPOINT)")
	c.Flags().IntVar(&f.retries, "retries", 0, "extra attempts per failed chunk (PUBLISH_RETRIES)")
	c.Flags().StringVar(&f.store, "checkpoint-store", "", "file|redis|none (CHECKPOINT_STORE)")
	c.Flags().IntVar(&f.maxLine, "max-line-bytes", 0, "reject lines longer than this, 0 for no limit (MAX_LINE_BYTES)")
	return c
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("file") {
		cfg.InputFile = f.file
	}
	if set("brokers") {
		cfg.Kafka.Brokers = f.brokers
	}
	if set("topic") {
		cfg.Kafka.Topic = f.topic
	}
	if set("chunk-size") {
		cfg.ChunkSize = f.chunkSize
	}
	if set("key") {
		cfg.KeyStrategy = f.keyStrategy
	}
	if set("publisher") {
		cfg.Publisher = f.publisher
	}
	if set("http-endpoint") {
		cfg.HTTPEndpoint = f.endpoint
	}
	if set("retries") {
		cfg.PublishRetries = f.retries
	}
	if set("checkpoint-store") {
		cfg.Checkpoint.Store = f.store
	}
	if set("max-line-bytes") {
		cfg.MaxLineBytes = f.maxLine
	}
}

func runJob(ctx context.Context, cfg *config.Config) error {
	log := logger.L()

	mapper, err := buildMapper(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore.Close()

	snd := buildSender(cfg)
	defer func() {
		if err := snd.Close(); err != nil {
			log.Warn("sender.close_failed", "err", err)
		}
	}()

	m := metrics.New()
	p, err := pipeline.New(pipeline.Config{
		JobName:         cfg.JobName,
		InputFile:       cfg.InputFile,
		ChunkSize:       cfg.ChunkSize,
		LinesToSkip:     cfg.LinesToSkip,
		CommentPrefixes: cfg.CommentPrefixes,
		MaxLineBytes:    cfg.MaxLineBytes,
		Retry:           retryPolicy(cfg),
		PublishTimeout:  cfg.PublishTimeout,
	}, pipeline.Deps{
		Sender:  snd,
		Mapper:  mapper,
		Store:   store,
		Spool:   buildSpool(cfg),
		Metrics: m,
	})
	if err != nil {
		return err
	}

	log.Info("readfile.run",
		"job", cfg.JobName,
		"file", cfg.InputFile,
		"publisher", cfg.Publisher,
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
		"chunk_size", cfg.ChunkSize,
		"key", cfg.KeyStrategy,
	)

	_, runErr := p.Run(ctx)
	pushMetrics(cfg, m)
	return runErr
}

// pushMetrics is best effort; a failed push never fails the run.
func pushMetrics(cfg *config.Config, m *metrics.Metrics) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Push(ctx, cfg.PushgatewayURL, cfg.JobName); err != nil {
		logger.L().Warn("metrics.push_failed", "url", cfg.PushgatewayURL, "err", err)
	}
}
