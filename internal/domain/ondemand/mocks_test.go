package ondemand

import (
	"context"
	"sync"

	"github.com/crashdesk/ondemand/internal/infra/events"
	"github.com/crashdesk/ondemand/internal/model"
	"github.com/stretchr/testify/mock"
)

func pendingReport(path string) *model.Report {
	return &model.Report{Path: path, Kind: model.ReportKindOnDemand, Status: model.ReportStatusPending}
}

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

type MockReportManager struct {
	mock.Mock
}

func (m *MockReportManager) HandleOnDemandReportUpload(ctx context.Context, path string, token model.DataCollectionToken, urgent bool) error {
	args := m.Called(ctx, path, token, urgent)
	return args.Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.ReportEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(*events.ReportEvent))
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
