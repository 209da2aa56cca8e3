package writer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Config contains configuration for the archive writer.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize bounds the queue between the store and the writer.
	BufferSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: time.Second,
		BufferSize:    1000,
	}
}

// Metrics tracks writer activity.
type Metrics struct {
	Inserts   int64 // Rows written
	Conflicts int64 // Rows already archived
	Flushes   int64
	Errors    int64 // Failed batches
	Dropped   int64 // Notifications rejected by a full or closed queue
}

// batchSender is satisfied by *pgxpool.Pool and *pgx.Conn.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// notificationRow represents a row in the notifications table.
type notificationRow struct {
	ID         string
	Type       string
	Message    string
	EntityID   int64
	EntityType string
	Timestamp  time.Time
}
