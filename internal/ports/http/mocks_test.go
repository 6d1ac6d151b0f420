package http

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/inbound"
)

type fakeRecorder struct {
	mu       sync.Mutex
	accept   bool
	recorded int64
	dropped  int64
	queued   int64
	stored   []string
	seen     []*model.ExceptionModel
	enabled  []bool
}

func (f *fakeRecorder) RecordOnDemandExceptionIfQuota(ctx context.Context, exception *model.ExceptionModel, dataCollectionEnabled bool, _ inbound.ExistingReportManager) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, exception)
	f.enabled = append(f.enabled, dataCollectionEnabled)
	f.recorded++
	if !f.accept {
		f.dropped++
		return false
	}
	f.queued++
	f.dropped = 0
	return true
}

func (f *fakeRecorder) RecordedCount() int64 { f.mu.Lock(); defer f.mu.Unlock(); return f.recorded }
func (f *fakeRecorder) DroppedCount() int64  { f.mu.Lock(); defer f.mu.Unlock(); return f.dropped }
func (f *fakeRecorder) QueuedCount() int64   { f.mu.Lock(); defer f.mu.Unlock(); return f.queued }

func (f *fakeRecorder) CalculateUploadDelay() time.Duration { return 6 * time.Second }

func (f *fakeRecorder) StoredActiveReportPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.stored...)
}

func (f *fakeRecorder) ClearStoredActiveReportPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := f.stored
	f.stored = nil
	return paths
}

var (
	_ inbound.OnDemandRecorder   = (*fakeRecorder)(nil)
	_ inbound.StoredReportSource = (*fakeRecorder)(nil)
	_ inbound.ReportManager      = (*MockReportManager)(nil)
)

type MockReportManager struct {
	mock.Mock
}

func (m *MockReportManager) HandleOnDemandReportUpload(ctx context.Context, path string, token model.DataCollectionToken, urgent bool) error {
	args := m.Called(ctx, path, token, urgent)
	return args.Error(0)
}

func (m *MockReportManager) UnsentReports(ctx context.Context) ([]*model.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Report), args.Error(1)
}

func (m *MockReportManager) NewestUnsentReport(ctx context.Context) (*model.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportManager) SendUnsentReports(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockReportManager) DeleteUnsentReports(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type fakeStats struct {
	stats *model.OnDemandStats
	err   error
}

func (f *fakeStats) Increment(ctx context.Context, counter model.StatsCounter, n int64) (int64, error) {
	return 0, nil
}

func (f *fakeStats) GetDaily(ctx context.Context, t time.Time) (*model.OnDemandStats, error) {
	return f.stats, f.err
}

func (f *fakeStats) Reset(ctx context.Context, t time.Time) error { return nil }
