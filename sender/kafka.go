package sender

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"readfile/types"
)

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	WriteTimeout time.Duration
}

// messageWriter is the part of *kafka.Writer the sender uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaSender struct {
	writer messageWriter
	topic  string
	addr   string
}

func NewKafkaSender(cfg KafkaConfig) *KafkaSender {
	batch := cfg.BatchSize
	if batch < 1 {
		batch = 100
	}
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
			BatchSize:    batch,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: cfg.WriteTimeout,
			// retries are decided by the pipeline, not the client
			MaxAttempts: 1,
		},
		topic: cfg.Topic,
		addr:  strings.Join(cfg.Brokers, ","),
	}
}

// Send writes the chunk with a single synchronous call so the records keep
// their order within each partition.
func (k *KafkaSender) Send(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(records))
	for i, r := range records {
		msgs[i] = toMessage(r)
	}

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return &types.OpError{
			Op:   "sender.kafka",
			Kind: types.KindPublish,
			Path: k.addr,
			Err:  describeWriteError(k.topic, len(msgs), err),
		}
	}
	return nil
}

func (k *KafkaSender) Close() error {
	return k.writer.Close()
}

func toMessage(r types.Record) kafka.Message {
	m := kafka.Message{
		Value: []byte(r.Value),
		Time:  r.Time,
	}
	if r.Key != "" {
		m.Key = []byte(r.Key)
	}

	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m.Headers = append(m.Headers, kafka.Header{Key: name, Value: []byte(r.Headers[name])})
	}
	return m
}

func describeWriteError(topic string, total int, err error) error {
	var werrs kafka.WriteErrors
	if errors.As(err, &werrs) {
		failed := werrs.Count()
		var first error
		for _, e := range werrs {
			if e != nil {
				first = e
				break
			}
		}
		return fmt.Errorf("topic %s: %d of %d records failed: %w", topic, failed, total, first)
	}
	return fmt.Errorf("topic %s: %w", topic, err)
}
