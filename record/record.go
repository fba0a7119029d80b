package record

import (
	"strconv"
	"time"

	"readfile/types"
)

// Header names attached to every published record.
const (
	HeaderChunkID   = "chunk-id"
	HeaderChunkHash = "chunk-hash"
	HeaderLine      = "line"
	HeaderSource    = "source"
)

// Mapper turns lines into publish records.
type Mapper struct {
	key Keyer
	now func() time.Time
}

func NewMapper(key Keyer) *Mapper {
	return &Mapper{key: key, now: func() time.Time { return time.Now().UTC() }}
}

// Map builds the record for one line. The value is always the line text.
func (m *Mapper) Map(l types.Line, chunkID, chunkHash string) (types.Record, error) {
	key, err := m.key(l)
	if err != nil {
		return types.Record{}, &types.OpError{Op: "record.key", Kind: types.KindPublish, Path: l.Source, Err: err}
	}

	return types.Record{
		Key:   key,
		Value: l.Text,
		Headers: map[string]string{
			HeaderChunkID:   chunkID,
			HeaderChunkHash: chunkHash,
			HeaderLine:      strconv.FormatInt(l.Number, 10),
			HeaderSource:    l.Source,
		},
		Time: m.now(),
	}, nil
}

// MapAll maps lines in order, stopping at the first failure.
func (m *Mapper) MapAll(lines []types.Line, chunkID, chunkHash string) ([]types.Record, error) {
	out := make([]types.Record, 0, len(lines))
	for _, l := range lines {
		r, err := m.Map(l, chunkID, chunkHash)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
