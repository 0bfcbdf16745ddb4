package progress

import (
	"context"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"

	"github.com/coursehub/lms/core"
)

var newBackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() } // mockable

// Mirror keeps the reporting Records in line with Progress writes.
// Sync never fails: errors are logged.
type Mirror interface {
	Sync(ctx context.Context, r Record)
}

// SyncMirror upserts records inline, once.
type SyncMirror struct {
	records RecordRepository
	logger  core.Logger
}

var _ Mirror = (*SyncMirror)(nil)

func NewSyncMirror(records RecordRepository, logger core.Logger) *SyncMirror {
	return &SyncMirror{records: records, logger: logger}
}

func (m *SyncMirror) Sync(ctx context.Context, r Record) {
	if err := m.records.UpsertRecord(ctx, r); err != nil {
		m.logger.Error(fmt.Sprintf("syncing progress record of %s/%s: %v", r.StudentID, r.CourseID, err), err)
	}
}

// QueuedMirror upserts records from a bounded queue drained by a worker goroutine, retrying
// failed upserts with exponential backoff. When the queue is full the upsert runs inline.
type QueuedMirror struct {
	records    RecordRepository
	logger     core.Logger
	maxRetries uint64

	jobs   chan Record
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

var _ Mirror = (*QueuedMirror)(nil)

func NewQueuedMirror(records RecordRepository, logger core.Logger, conf *core.Config) *QueuedMirror {
	size := conf.Mirror.QueueSize
	if size < 1 {
		size = 1
	}
	retries := conf.Mirror.MaxRetries
	if retries < 0 {
		retries = 0
	}

	m := &QueuedMirror{
		records:    records,
		logger:     logger,
		maxRetries: uint64(retries),
		jobs:       make(chan Record, size),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

func (m *QueuedMirror) run() {
	defer m.wg.Done()
	for r := range m.jobs {
		m.upsert(r)
	}
}

// Sync queues r. The request context is not used: the job outlives the request.
func (m *QueuedMirror) Sync(_ context.Context, r Record) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		m.upsert(r)
		return
	}
	select {
	case m.jobs <- r:
	default:
		m.logger.Warn(fmt.Sprintf("progress mirror queue full, syncing %s/%s inline", r.StudentID, r.CourseID))
		m.upsert(r)
	}
}

func (m *QueuedMirror) upsert(r Record) {
	op := func() error {
		return m.records.UpsertRecord(context.Background(), r)
	}
	if err := backoff.Retry(op, backoff.WithMaxRetries(newBackOff(), m.maxRetries)); err != nil {
		m.logger.Error(fmt.Sprintf("syncing progress record of %s/%s: %v", r.StudentID, r.CourseID, err), err)
	}
}

// Close stops accepting jobs and waits for the queued ones to be done.
func (m *QueuedMirror) Close() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.jobs)
	}
	m.mu.Unlock()
	m.wg.Wait()
}
