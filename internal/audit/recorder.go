package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BenjaminJRies/examen-bentoml/internal/database"
	"github.com/BenjaminJRies/examen-bentoml/pkg/logger"
)

// Store persists audit rows.
type Store interface {
	InsertBatch(ctx context.Context, rows []database.PredictionAudit) error
}

// Sink accepts audit rows from request handlers.
type Sink interface {
	Record(entries ...database.PredictionAudit)
}

// Nop discards every entry. It is used when auditing is disabled.
type Nop struct{}

func (Nop) Record(...database.PredictionAudit) {}

// Recorder buffers audit rows and writes them to a Store in the background,
// either every flush interval or as soon as a full batch is queued.
type Recorder struct {
	store         Store
	log           *logger.Logger
	flushInterval time.Duration
	batchSize     int
	maxPending    int

	mutex     sync.RWMutex
	pending   []database.PredictionAudit
	isRunning bool
	stopChan  chan struct{}
	doneChan  chan struct{}
	kick      chan struct{}

	onFlushed func(written int)
	onFailed  func(pending int, err error)
}

// NewRecorder creates a recorder. Non-positive values fall back to a 5s
// interval and batches of 100.
func NewRecorder(store Store, log *logger.Logger, flushInterval time.Duration, batchSize int) *Recorder {
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Recorder{
		store:         store,
		log:           log.WithComponent("audit"),
		flushInterval: flushInterval,
		batchSize:     batchSize,
		maxPending:    batchSize * 50,
		pending:       make([]database.PredictionAudit, 0, batchSize),
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
		kick:          make(chan struct{}, 1),
	}
}

// SetCallbacks registers hooks invoked after each flush attempt.
func (r *Recorder) SetCallbacks(onFlushed func(int), onFailed func(int, error)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.onFlushed = onFlushed
	r.onFailed = onFailed
}

// Record queues entries for the next flush. It never blocks on the store.
func (r *Recorder) Record(entries ...database.PredictionAudit) {
	if len(entries) == 0 {
		return
	}

	r.mutex.Lock()
	r.pending = append(r.pending, entries...)
	if over := len(r.pending) - r.maxPending; over > 0 {
		r.pending = append(r.pending[:0], r.pending[over:]...)
		r.log.Warning("Audit queue full, dropped oldest entries", "dropped", over)
	}
	full := len(r.pending) >= r.batchSize
	r.mutex.Unlock()

	if full {
		select {
		case r.kick <- struct{}{}:
		default:
		}
	}
}

// PendingCount returns the number of queued entries.
func (r *Recorder) PendingCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.pending)
}

// IsRunning reports whether the flush loop is active.
func (r *Recorder) IsRunning() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.isRunning
}

// Start launches the flush loop. A stopped recorder cannot be restarted.
func (r *Recorder) Start() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.isRunning {
		return fmt.Errorf("audit recorder is already running")
	}
	select {
	case <-r.stopChan:
		return fmt.Errorf("audit recorder has been stopped")
	default:
	}

	r.isRunning = true
	go r.flushLoop()

	r.log.Info("Audit recorder started", "interval", r.flushInterval.String(), "batch_size", r.batchSize)
	return nil
}

// Stop ends the flush loop and writes whatever is still queued.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mutex.Lock()
	if !r.isRunning {
		r.mutex.Unlock()
		return nil
	}
	close(r.stopChan)
	r.isRunning = false
	r.mutex.Unlock()

	select {
	case <-r.doneChan:
	case <-ctx.Done():
		return ctx.Err()
	}

	_, err := r.Flush(ctx)
	r.log.Info("Audit recorder stopped", "unflushed", r.PendingCount())
	return err
}

// Flush writes all queued entries now. On failure the entries stay queued.
func (r *Recorder) Flush(ctx context.Context) (int, error) {
	r.mutex.Lock()
	batch := r.pending
	r.pending = make([]database.PredictionAudit, 0, r.batchSize)
	onFlushed, onFailed := r.onFlushed, r.onFailed
	r.mutex.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}

	if err := r.store.InsertBatch(ctx, batch); err != nil {
		r.mutex.Lock()
		r.pending = append(batch, r.pending...)
		pending := len(r.pending)
		r.mutex.Unlock()

		r.log.Error("Failed to flush audit entries", "count", len(batch), "error", err.Error())
		if onFailed != nil {
			onFailed(pending, err)
		}
		return 0, err
	}

	r.log.Debug("Flushed audit entries", "count", len(batch))
	if onFlushed != nil {
		onFlushed(len(batch))
	}
	return len(batch), nil
}

func (r *Recorder) flushLoop() {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-r.kick:
		case <-r.stopChan:
			return
		}

		if r.PendingCount() == 0 {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.flushInterval)
		r.Flush(ctx)
		cancel()
	}
}
