package ondemand

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crashdesk/ondemand/internal/infra/events"
	"github.com/crashdesk/ondemand/internal/infra/task"
	"github.com/crashdesk/ondemand/internal/port/inbound"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"go.uber.org/zap"
)

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration)

// Option configures a Model.
type Option func(*Model)

// WithWaitFunc replaces the wait used to pace uploads.
func WithWaitFunc(wait WaitFunc) Option {
	return func(m *Model) {
		if wait != nil {
			m.wait = wait
		}
	}
}

// WithPublisher sets the publisher for on-demand events.
func WithPublisher(publisher outbound.EventPublisherPort) Option {
	return func(m *Model) {
		m.publisher = publisher
	}
}

// Model tracks on-demand quota and owns the serial queue that uploads or stores
// accepted reports.
//
// mu serializes the gate and every counter write. Counters are read without it
// so stats never wait on report I/O.
type Model struct {
	mu sync.Mutex

	settings  *Settings
	store     outbound.ReportStorePort
	publisher outbound.EventPublisherPort
	queue     *task.Queue
	wait      WaitFunc
	logger    *zap.Logger

	recordedCount atomic.Int64
	droppedCount  atomic.Int64
	queuedCount   atomic.Int64

	// pathsMu guards storedActiveReportPaths and clearedGeneration.
	// Lock order is mu then pathsMu.
	pathsMu sync.RWMutex

	// Newest first.
	storedActiveReportPaths []string

	// Bumped whenever the stored list is cleared. Operations recorded before
	// a clear no longer hold their report.
	clearedGeneration uint64
}

// NewModel creates a new on-demand model.
func NewModel(settings *Settings, store outbound.ReportStorePort, logger *zap.Logger, opts ...Option) (*Model, error) {
	if settings == nil {
		settings = DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrNilReportStore
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Model{
		settings: settings,
		store:    store,
		wait:     sleepContext,
		logger:   logger.Named("ondemand"),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.queue = task.NewQueue(logger, &task.Config{
		Name:          "on-demand",
		MaxConcurrent: 1,
		Capacity:      settings.MaxQueueSize,
	})
	return m, nil
}

// Compile-time interface checks
var (
	_ inbound.OnDemandRecorder   = (*Model)(nil)
	_ inbound.StoredReportSource = (*Model)(nil)
)

// Settings returns the model settings.
func (m *Model) Settings() Settings {
	return *m.settings
}

// RecordedCount returns the number of on-demand exceptions seen, including dropped ones.
func (m *Model) RecordedCount() int64 {
	return m.recordedCount.Load()
}

// DroppedCount returns the number of exceptions dropped since the last accepted one.
func (m *Model) DroppedCount() int64 {
	return m.droppedCount.Load()
}

// QueuedCount returns the number of on-demand operations in flight.
func (m *Model) QueuedCount() int64 {
	return m.queuedCount.Load()
}

// StoredActiveReportPaths returns the reports held while data collection was off, newest first.
func (m *Model) StoredActiveReportPaths() []string {
	m.pathsMu.RLock()
	defer m.pathsMu.RUnlock()

	paths := make([]string, len(m.storedActiveReportPaths))
	copy(paths, m.storedActiveReportPaths)
	return paths
}

// ClearStoredActiveReportPaths empties the stored list and returns what it held.
// Operations still queued for reports recorded before the clear will not add them back.
func (m *Model) ClearStoredActiveReportPaths() []string {
	m.pathsMu.Lock()
	defer m.pathsMu.Unlock()

	paths := m.storedActiveReportPaths
	m.storedActiveReportPaths = nil
	m.clearedGeneration++
	return paths
}

func (m *Model) generation() uint64 {
	m.pathsMu.RLock()
	defer m.pathsMu.RUnlock()
	return m.clearedGeneration
}

// CalculateUploadDelay returns the wait applied after the next on-demand operation.
func (m *Model) CalculateUploadDelay() time.Duration {
	return m.settings.UploadDelay(m.QueuedCount())
}

// Stop cancels pending upload delays and waits for queued operations to finish.
func (m *Model) Stop() {
	m.queue.Stop()
}

func (m *Model) isQueueFull() bool {
	return m.queuedCount.Load() >= int64(m.settings.MaxQueueSize)
}

func (m *Model) publish(ctx context.Context, eventType, path string) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, events.NewReportEvent(eventType, path)); err != nil {
		m.logger.Warn("failed to publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
