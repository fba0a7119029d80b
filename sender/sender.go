package sender

import (
	"context"

	"readfile/types"
)

// Sender publishes the records of one chunk, in order, to a fixed
// destination. A non-nil error means the chunk must be treated as failed.
type Sender interface {
	Send(ctx context.Context, records []types.Record) error
	Close() error
}
