package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/supportdesk/internal/notification"
)

const insertNotification = `
	INSERT INTO notifications (id, type, message, entity_id, entity_type, ts)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
`

// NotificationWriter consumes accepted notifications and writes them to the notifications table.
type NotificationWriter struct {
	cfg    Config
	logger *slog.Logger

	// Input from the notification store
	input *Queue[notification.Notification]

	// Database
	db batchSender

	// Batching
	batch       []notificationRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics Metrics
}

// NewNotificationWriter creates a new NotificationWriter. db is typically a *pgxpool.Pool.
func NewNotificationWriter(cfg Config, db batchSender, logger *slog.Logger) *NotificationWriter {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = def.BufferSize
	}
	return &NotificationWriter{
		cfg:    cfg,
		input:  NewQueue[notification.Notification](cfg.BufferSize),
		db:     db,
		logger: logger,
		batch:  make([]notificationRow, 0, cfg.BatchSize),
	}
}

// Observe queues an accepted notification. It matches notification.Observer
// and never blocks the store.
func (w *NotificationWriter) Observe(n notification.Notification) {
	if !w.input.Push(n) {
		w.logger.Warn("archive queue rejected notification", "id", n.ID)
	}
}

// Start begins consuming notifications and writing to the database.
func (w *NotificationWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("notification writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
		"buffer_size", w.cfg.BufferSize,
	)
	return nil
}

// Stop drains queued notifications and flushes them using ctx.
func (w *NotificationWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping notification writer")

	// Closing the queue lets consumeLoop drain what is left, then exit.
	w.input.Close()

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	// flushLoop exits on cancel; consumeLoop exits once the queue is empty.
	if w.cancel != nil {
		w.cancel()
	}

	select {
	case <-done:
		w.logger.Info("notification writer stopped")
	case <-ctx.Done():
		w.logger.Warn("notification writer stop timed out")
	}

	// Final flush
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *NotificationWriter) Stats() Metrics {
	w.batchMu.Lock()
	m := w.metrics
	w.batchMu.Unlock()
	m.Dropped = w.input.Stats().Dropped
	return m
}

// consumeLoop reads from the input queue and accumulates batches. Whatever
// queued behind the first notification joins the same batch, up to BatchSize.
func (w *NotificationWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		n, ok := w.input.Receive()
		if !ok {
			return
		}
		pending := []notification.Notification{n}
		if room := w.room() - 1; room > 0 {
			pending = append(pending, w.input.DrainTo(room)...)
		}
		w.accumulate(pending)
	}
}

// room is how many rows the current batch can take before it is full.
func (w *NotificationWriter) room() int {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.cfg.BatchSize - len(w.batch)
}

// flushLoop periodically flushes the batch.
func (w *NotificationWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

func (w *NotificationWriter) accumulate(pending []notification.Notification) {
	w.batchMu.Lock()
	for _, n := range pending {
		w.batch = append(w.batch, transform(n))
	}
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		// The lifecycle context may already be cancelled while Stop drains.
		w.flush(context.WithoutCancel(w.ctx))
	}
}

func transform(n notification.Notification) notificationRow {
	return notificationRow{
		ID:         n.ID,
		Type:       string(n.Type),
		Message:    n.Message,
		EntityID:   n.EntityID,
		EntityType: string(n.EntityType),
		Timestamp:  n.Timestamp.UTC(),
	}
}

// flush writes the current batch to the database.
func (w *NotificationWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]notificationRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed notifications",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *NotificationWriter) batchInsert(ctx context.Context, rows []notificationRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertNotification, r.ID, r.Type, r.Message, r.EntityID, r.EntityType, r.Timestamp)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
