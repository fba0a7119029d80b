package sender

import (
	"time"

	"readfile/logger"
	"readfile/types"
)

// Envelope is the JSON form of a record on the HTTP transport and in the spool.
type Envelope struct {
	Key       string            `json:"key"`
	Value     string            `json:"value"`
	Headers   map[string]string `json:"headers,omitempty"`
	Timestamp string            `json:"timestamp"`
}

func ToEnvelopes(records []types.Record) []Envelope {
	out := make([]Envelope, len(records))
	for i, r := range records {
		out[i] = Envelope{
			Key:       r.Key,
			Value:     r.Value,
			Headers:   r.Headers,
			Timestamp: r.Time.UTC().Format(time.RFC3339Nano),
		}
	}
	return out
}

// FromEnvelopes rebuilds records. An unparsable timestamp is replaced by
// now, since the broker would otherwise stamp the record with year 1.
func FromEnvelopes(envs []Envelope) []types.Record {
	now := time.Now().UTC()
	out := make([]types.Record, len(envs))
	for i, e := range envs {
		ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
		if err != nil {
			logger.L().Warn("sender.envelope_bad_timestamp",
				"index", i,
				"timestamp", e.Timestamp,
				"err", err,
			)
			ts = now
		}
		out[i] = types.Record{Key: e.Key, Value: e.Value, Headers: e.Headers, Time: ts}
	}
	return out
}
