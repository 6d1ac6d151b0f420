package ondemand

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crashdesk/ondemand/internal/infra/events"
	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func noWait(ctx context.Context, d time.Duration) {}

func newTestModel(t *testing.T, settings *Settings, store *MockReportStore, opts ...Option) *Model {
	t.Helper()
	if len(opts) == 0 {
		opts = []Option{WithWaitFunc(noWait)}
	}
	m, err := NewModel(settings, store, zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(m.Stop)
	return m
}

func waitIdle(t *testing.T, m *Model) {
	t.Helper()
	require.Eventually(t, func() bool { return m.QueuedCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

var validToken = mock.MatchedBy(func(token model.DataCollectionToken) bool { return token.IsValid() })

func TestNewModel(t *testing.T) {
	t.Run("requires a store", func(t *testing.T) {
		_, err := NewModel(nil, nil, nil)
		assert.ErrorIs(t, err, ErrNilReportStore)
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		s := DefaultSettings()
		s.UploadRate = -1
		_, err := NewModel(s, &MockReportStore{}, nil)
		assert.ErrorIs(t, err, ErrInvalidSettings)
	})

	t.Run("uses default settings", func(t *testing.T) {
		m := newTestModel(t, nil, &MockReportStore{})
		assert.Equal(t, *DefaultSettings(), m.Settings())
		assert.Zero(t, m.RecordedCount())
		assert.Zero(t, m.DroppedCount())
		assert.Zero(t, m.QueuedCount())
	})
}

func TestRecordOnDemandExceptionIfQuota_UploadsWhenCollectionEnabled(t *testing.T) {
	store := &MockReportStore{}
	manager := &MockReportManager{}
	publisher := &recordingPublisher{}
	m := newTestModel(t, nil, store, WithWaitFunc(noWait), WithPublisher(publisher))

	exception := model.NewExceptionModel("NSRangeException", "index out of bounds")

	store.On("CreateOnDemandReport", mock.Anything, mock.MatchedBy(func(e *model.ExceptionModel) bool {
		return e.OnDemand && e.Name == "NSRangeException"
	}), int64(0), int64(0)).Return("reports/on_demand/1.json", nil).Once()
	manager.On("HandleOnDemandReportUpload", mock.Anything, "reports/on_demand/1.json", validToken, true).Return(nil).Once()

	ok := m.RecordOnDemandExceptionIfQuota(context.Background(), exception, true, manager)
	require.True(t, ok)

	waitIdle(t, m)
	assert.Equal(t, int64(1), m.RecordedCount())
	assert.Equal(t, int64(0), m.DroppedCount())
	assert.Empty(t, m.StoredActiveReportPaths())
	assert.False(t, exception.OnDemand, "caller's exception must not be modified")
	assert.Equal(t, []string{events.TypeExceptionRecorded}, publisher.types())

	store.AssertExpectations(t)
	manager.AssertExpectations(t)
}

func TestRecordOnDemandExceptionIfQuota_DropsWhenQuotaExhausted(t *testing.T) {
	store := &MockReportStore{}
	manager := &MockReportManager{}
	publisher := &recordingPublisher{}

	settings := DefaultSettings()
	settings.MaxQueueSize = 2

	release := make(chan struct{})
	blockingWait := func(ctx context.Context, d time.Duration) {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}
	m := newTestModel(t, settings, store, WithWaitFunc(blockingWait), WithPublisher(publisher))

	store.On("CreateOnDemandReport", mock.Anything, mock.Anything, int64(0), int64(0)).Return("r1", nil).Once()
	store.On("CreateOnDemandReport", mock.Anything, mock.Anything, int64(1), int64(0)).Return("r2", nil).Once()
	manager.On("HandleOnDemandReportUpload", mock.Anything, mock.Anything, validToken, true).Return(nil)

	ctx := context.Background()
	exception := model.NewExceptionModel("Error", "boom")

	assert.True(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, true, manager))
	assert.True(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, true, manager))
	assert.Equal(t, int64(2), m.QueuedCount())

	assert.False(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, true, manager))
	assert.False(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, false, manager))
	assert.Equal(t, int64(4), m.RecordedCount())
	assert.Equal(t, int64(2), m.DroppedCount())
	assert.Equal(t, int64(2), m.QueuedCount())

	close(release)
	waitIdle(t, m)

	// The next accepted report carries the counts seen so far and resets dropped.
	store.On("CreateOnDemandReport", mock.Anything, mock.Anything, int64(4), int64(2)).Return("r3", nil).Once()
	assert.True(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, true, manager))
	assert.Equal(t, int64(5), m.RecordedCount())
	assert.Equal(t, int64(0), m.DroppedCount())
	waitIdle(t, m)

	assert.Equal(t, []string{
		events.TypeExceptionRecorded,
		events.TypeExceptionRecorded,
		events.TypeExceptionDropped,
		events.TypeExceptionDropped,
		events.TypeExceptionRecorded,
	}, publisher.types())
	store.AssertExpectations(t)
}

func TestRecordOnDemandExceptionIfQuota_StoresWhenCollectionDisabled(t *testing.T) {
	store := &MockReportStore{}
	manager := &MockReportManager{}

	settings := DefaultSettings()
	settings.MaxUnsentReports = 2
	m := newTestModel(t, settings, store)

	ctx := context.Background()
	exception := model.NewExceptionModel("Error", "offline")

	for i, path := range []string{"r1", "r2", "r3"} {
		store.On("CreateOnDemandReport", mock.Anything, mock.Anything, int64(i), mock.Anything).Return(path, nil).Once()
		store.On("MarkPending", mock.Anything, path).Return(nil).Once()
		store.On("Get", mock.Anything, path).Return(pendingReport(path), nil).Once()
	}
	store.On("Delete", mock.Anything, "r1").Return(nil).Once()

	for i := 0; i < 3; i++ {
		require.True(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, false, manager))
		waitIdle(t, m)
	}

	assert.Equal(t, []string{"r3", "r2"}, m.StoredActiveReportPaths())
	assert.Equal(t, int64(3), m.RecordedCount())
	assert.Equal(t, int64(1), m.DroppedCount())

	manager.AssertNotCalled(t, "HandleOnDemandReportUpload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)

	assert.Equal(t, []string{"r3", "r2"}, m.ClearStoredActiveReportPaths())
	assert.Empty(t, m.StoredActiveReportPaths())
}

func TestRecordOnDemandExceptionIfQuota_ClearedBeforeStored(t *testing.T) {
	store := &MockReportStore{}
	manager := &MockReportManager{}

	release := make(chan struct{})
	blockingWait := func(ctx context.Context, d time.Duration) {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}
	m := newTestModel(t, nil, store, WithWaitFunc(blockingWait))

	ctx := context.Background()
	exception := model.NewExceptionModel("Error", "offline")

	for i, path := range []string{"r1", "r2", "r3"} {
		store.On("CreateOnDemandReport", mock.Anything, mock.Anything, int64(i), int64(0)).Return(path, nil).Once()
		store.On("MarkPending", mock.Anything, path).Return(nil).Once()
	}
	store.On("Get", mock.Anything, "r1").Return(pendingReport("r1"), nil).Once()
	store.On("Get", mock.Anything, "r2").Return(pendingReport("r2"), nil).Once()
	store.On("Get", mock.Anything, "r3").Return(nil, outbound.ErrReportNotFound).Once()

	for i := 0; i < 3; i++ {
		require.True(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, false, manager))
	}

	// Every report is unsent as soon as it is recorded.
	store.AssertNumberOfCalls(t, "MarkPending", 3)

	require.Eventually(t, func() bool { return len(m.StoredActiveReportPaths()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"r1"}, m.ClearStoredActiveReportPaths())

	close(release)
	waitIdle(t, m)

	assert.Empty(t, m.StoredActiveReportPaths())
	assert.Zero(t, m.DroppedCount())
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRecordOnDemandExceptionIfQuota_ConcurrentCallers(t *testing.T) {
	store := &MockReportStore{}
	manager := &MockReportManager{}

	release := make(chan struct{})
	blockingWait := func(ctx context.Context, d time.Duration) {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}
	m := newTestModel(t, nil, store, WithWaitFunc(blockingWait))
	maxQueue := int64(m.Settings().MaxQueueSize)

	store.On("CreateOnDemandReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("r", nil)
	manager.On("HandleOnDemandReportUpload", mock.Anything, "r", validToken, true).Return(nil)

	const callers = 100
	var (
		wg          sync.WaitGroup
		accepted    atomic.Int64
		outOfBounds atomic.Int64
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if m.RecordOnDemandExceptionIfQuota(context.Background(), model.NewExceptionModel("E", ""), true, manager) {
				accepted.Add(1)
			}
			if q := m.QueuedCount(); q < 0 || q > maxQueue {
				outOfBounds.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, maxQueue, accepted.Load())
	assert.Zero(t, outOfBounds.Load())
	assert.Equal(t, maxQueue, m.QueuedCount())
	assert.Equal(t, int64(callers), m.RecordedCount())
	assert.Equal(t, callers-maxQueue, m.DroppedCount())

	close(release)
	waitIdle(t, m)
	assert.Zero(t, m.QueuedCount())
	store.AssertNumberOfCalls(t, "CreateOnDemandReport", int(maxQueue))
}

func TestModel_CountersReadableDuringReportWrite(t *testing.T) {
	store := &MockReportStore{}
	manager := &MockReportManager{}
	m := newTestModel(t, nil, store)

	writing := make(chan struct{})
	unblock := make(chan struct{})
	store.On("CreateOnDemandReport", mock.Anything, mock.Anything, int64(0), int64(0)).
		Run(func(mock.Arguments) {
			close(writing)
			<-unblock
		}).Return("r1", nil).Once()
	manager.On("HandleOnDemandReportUpload", mock.Anything, "r1", validToken, true).Return(nil).Once()

	done := make(chan bool)
	go func() {
		done <- m.RecordOnDemandExceptionIfQuota(context.Background(), model.NewExceptionModel("E", ""), true, manager)
	}()
	<-writing

	read := make(chan struct{})
	go func() {
		_ = m.RecordedCount()
		_ = m.DroppedCount()
		_ = m.QueuedCount()
		_ = m.CalculateUploadDelay()
		_ = m.StoredActiveReportPaths()
		close(read)
	}()
	select {
	case <-read:
	case <-time.After(2 * time.Second):
		t.Fatal("counter reads blocked on report write")
	}

	close(unblock)
	assert.True(t, <-done)
	waitIdle(t, m)
	manager.AssertExpectations(t)
}

func TestRecordOnDemandExceptionIfQuota_Failures(t *testing.T) {
	ctx := context.Background()
	exception := model.NewExceptionModel("Error", "boom")

	t.Run("nil exception", func(t *testing.T) {
		m := newTestModel(t, nil, &MockReportStore{})
		assert.False(t, m.RecordOnDemandExceptionIfQuota(ctx, nil, true, &MockReportManager{}))
		assert.Zero(t, m.RecordedCount())
	})

	t.Run("missing report manager", func(t *testing.T) {
		store := &MockReportStore{}
		m := newTestModel(t, nil, store)
		assert.False(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, true, nil))
		store.AssertNotCalled(t, "CreateOnDemandReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("report cannot be written", func(t *testing.T) {
		store := &MockReportStore{}
		m := newTestModel(t, nil, store)
		store.On("CreateOnDemandReport", mock.Anything, mock.Anything, int64(0), int64(0)).
			Return("", errors.New("disk full")).Once()

		assert.False(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, true, &MockReportManager{}))
		assert.Zero(t, m.RecordedCount())
		assert.Zero(t, m.QueuedCount())
	})

	t.Run("upload failure keeps report unsent", func(t *testing.T) {
		store := &MockReportStore{}
		manager := &MockReportManager{}
		m := newTestModel(t, nil, store)

		store.On("CreateOnDemandReport", mock.Anything, mock.Anything, int64(0), int64(0)).Return("r1", nil).Once()
		manager.On("HandleOnDemandReportUpload", mock.Anything, "r1", validToken, true).
			Return(errors.New("backend unavailable")).Once()
		store.On("MarkPending", mock.Anything, "r1").Return(nil).Once()

		assert.True(t, m.RecordOnDemandExceptionIfQuota(ctx, exception, true, manager))
		waitIdle(t, m)

		store.AssertExpectations(t)
		manager.AssertExpectations(t)
	})
}

func TestModel_CalculateUploadDelay(t *testing.T) {
	store := &MockReportStore{}
	manager := &MockReportManager{}

	release := make(chan struct{})
	delays := make(chan time.Duration, 10)
	wait := func(ctx context.Context, d time.Duration) {
		delays <- d
		<-release
	}
	m := newTestModel(t, nil, store, WithWaitFunc(wait))

	assert.Equal(t, 6*time.Second, m.CalculateUploadDelay())

	store.On("CreateOnDemandReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("r", nil)
	manager.On("HandleOnDemandReportUpload", mock.Anything, mock.Anything, mock.Anything, true).Return(nil)

	record := func() {
		require.True(t, m.RecordOnDemandExceptionIfQuota(context.Background(), model.NewExceptionModel("E", ""), true, manager))
	}

	record()
	assert.Equal(t, 6*time.Second, <-delays)

	for i := 0; i < 6; i++ {
		record()
	}
	release <- struct{}{}

	// The second operation starts with six operations still queued: one backoff step.
	assert.Equal(t, 9*time.Second, <-delays)
	close(release)
	waitIdle(t, m)
}

func TestModel_StopCancelsUploadDelay(t *testing.T) {
	store := &MockReportStore{}
	manager := &MockReportManager{}

	m, err := NewModel(nil, store, zap.NewNop())
	require.NoError(t, err)

	store.On("CreateOnDemandReport", mock.Anything, mock.Anything, int64(0), int64(0)).Return("r1", nil).Once()
	uploaded := make(chan struct{})
	manager.On("HandleOnDemandReportUpload", mock.Anything, "r1", validToken, true).
		Run(func(mock.Arguments) { close(uploaded) }).Return(nil).Once()

	require.True(t, m.RecordOnDemandExceptionIfQuota(context.Background(), model.NewExceptionModel("E", ""), true, manager))
	<-uploaded

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not cancel the upload delay")
	}
	assert.Zero(t, m.QueuedCount())
}
