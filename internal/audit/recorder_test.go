package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BenjaminJRies/examen-bentoml/internal/database"
	"github.com/BenjaminJRies/examen-bentoml/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	rows []database.PredictionAudit
	err  error
}

func (s *memoryStore) InsertBatch(_ context.Context, rows []database.PredictionAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *memoryStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func entry(subject string) database.PredictionAudit {
	return database.PredictionAudit{Subject: subject, Route: "/v1/models/admission_predictor/predict", Score: 0.7}
}

func TestRecorderFlushesOnStop(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, logger.NewDiscard(), time.Hour, 100)
	require.NoError(t, rec.Start())
	assert.True(t, rec.IsRunning())

	rec.Record(entry("admin"), entry("user"))
	assert.Equal(t, 2, rec.PendingCount())

	require.NoError(t, rec.Stop(context.Background()))
	assert.False(t, rec.IsRunning())
	assert.Equal(t, 2, store.count())
	assert.Zero(t, rec.PendingCount())

	assert.Error(t, rec.Start())
}

func TestRecorderFlushesFullBatch(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, logger.NewDiscard(), time.Hour, 3)

	flushed := make(chan int, 1)
	rec.SetCallbacks(func(n int) { flushed <- n }, nil)
	require.NoError(t, rec.Start())
	defer rec.Stop(context.Background())

	rec.Record(entry("a"), entry("b"), entry("c"))

	select {
	case n := <-flushed:
		assert.Equal(t, 3, n)
	case <-time.After(2 * time.Second):
		t.Fatal("full batch was not flushed")
	}
	assert.Equal(t, 3, store.count())
}

func TestRecorderFlushesOnInterval(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, logger.NewDiscard(), 20*time.Millisecond, 100)
	require.NoError(t, rec.Start())
	defer rec.Stop(context.Background())

	rec.Record(entry("admin"))
	assert.Eventually(t, func() bool { return store.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRecorderKeepsEntriesOnFailure(t *testing.T) {
	store := &memoryStore{}
	store.fail(errors.New("database is locked"))
	rec := NewRecorder(store, logger.NewDiscard(), time.Hour, 100)

	var failedPending int
	rec.SetCallbacks(nil, func(pending int, err error) { failedPending = pending })

	rec.Record(entry("admin"), entry("user"))
	n, err := rec.Flush(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, rec.PendingCount())
	assert.Equal(t, 2, failedPending)

	store.fail(nil)
	n, err = rec.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, store.count())
}

func TestRecorderDropsOldestWhenQueueIsFull(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, logger.NewDiscard(), time.Hour, 1)

	for i := 0; i < rec.maxPending+5; i++ {
		rec.Record(entry("admin"))
	}
	assert.Equal(t, rec.maxPending, rec.PendingCount())
}

func TestRecorderStartTwice(t *testing.T) {
	rec := NewRecorder(&memoryStore{}, logger.NewDiscard(), time.Hour, 10)
	require.NoError(t, rec.Start())
	defer rec.Stop(context.Background())
	assert.Error(t, rec.Start())
}

func TestNopSink(t *testing.T) {
	var sink Sink = Nop{}
	sink.Record(entry("admin"))
}
