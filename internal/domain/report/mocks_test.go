package report

import (
	"context"
	"sync"

	"github.com/crashdesk/ondemand/internal/model"
	"github.com/stretchr/testify/mock"
)

// --- Mock implementations ---

type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) CreateOnDemandReport(ctx context.Context, exception *model.ExceptionModel, recorded, dropped int64) (string, error) {
	args := m.Called(ctx, exception, recorded, dropped)
	return args.String(0), args.Error(1)
}

func (m *MockReportStore) Get(ctx context.Context, path string) (*model.Report, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportStore) Load(ctx context.Context, path string) (*model.Report, []byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Report), args.Get(1).([]byte), args.Error(2)
}

func (m *MockReportStore) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockReportStore) ListPending(ctx context.Context) ([]*model.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Report), args.Error(1)
}

func (m *MockReportStore) MarkPending(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockReportStore) MarkUploaded(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, report *model.Report, payload []byte, urgent bool) error {
	args := m.Called(ctx, report, payload, urgent)
	return args.Error(0)
}

type fakeStoredSource struct {
	mu      sync.Mutex
	paths   []string
	cleared int
}

func (s *fakeStoredSource) StoredActiveReportPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func (s *fakeStoredSource) ClearStoredActiveReportPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := s.paths
	s.paths = nil
	s.cleared++
	return paths
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []interface{}
}

func (p *recordingPublisher) Publish(ctx context.Context, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
