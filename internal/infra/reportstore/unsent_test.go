package reportstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crashdesk/ondemand/internal/domain/ondemand"
	"github.com/crashdesk/ondemand/internal/domain/report"
	"github.com/crashdesk/ondemand/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUploader struct {
	mu    sync.Mutex
	paths []string
}

func (u *recordingUploader) Upload(ctx context.Context, r *model.Report, payload []byte, urgent bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, r.Path)
	return nil
}

func (u *recordingUploader) uploaded() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

// setupHeldReports records n exceptions with data collection off while the
// first operation blocks in its upload delay.
func setupHeldReports(t *testing.T, n int) (*Store, *memStorage, *ondemand.Model, *report.Manager, *recordingUploader, chan struct{}) {
	t.Helper()
	store, storage := setupStore(t)

	release := make(chan struct{})
	wait := func(ctx context.Context, d time.Duration) {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}
	m, err := ondemand.NewModel(nil, store, nil, ondemand.WithWaitFunc(wait))
	require.NoError(t, err)
	t.Cleanup(m.Stop)

	uploader := &recordingUploader{}
	manager := report.NewManager(store, uploader, m, nil, nil, nil)

	for i := 0; i < n; i++ {
		require.True(t, m.RecordOnDemandExceptionIfQuota(context.Background(), model.NewExceptionModel("Offline", ""), false, manager))
	}
	return store, storage, m, manager, uploader, release
}

func waitQueueDrained(t *testing.T, m *ondemand.Model) {
	t.Helper()
	require.Eventually(t, func() bool { return m.QueuedCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHeldReports_UnsentAsSoonAsRecorded(t *testing.T) {
	ctx := context.Background()
	_, _, m, manager, _, release := setupHeldReports(t, 3)
	defer close(release)

	unsent, err := manager.UnsentReports(ctx)
	require.NoError(t, err)
	assert.Len(t, unsent, 3)
	assert.Equal(t, int64(3), m.QueuedCount())
}

func TestHeldReports_DeleteCoversQueuedOperations(t *testing.T) {
	ctx := context.Background()
	_, storage, m, manager, _, release := setupHeldReports(t, 3)

	deleted, err := manager.DeleteUnsentReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	close(release)
	waitQueueDrained(t, m)

	unsent, err := manager.UnsentReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsent, "deleted reports must not come back as unsent")
	assert.Empty(t, m.StoredActiveReportPaths())
	assert.Empty(t, storage.objects)
}

func TestHeldReports_SendCoversQueuedOperations(t *testing.T) {
	ctx := context.Background()
	store, _, m, manager, uploader, release := setupHeldReports(t, 3)

	sent, err := manager.SendUnsentReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)

	close(release)
	waitQueueDrained(t, m)

	unsent, err := manager.UnsentReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsent)
	assert.Empty(t, m.StoredActiveReportPaths())

	paths := uploader.uploaded()
	require.Len(t, paths, 3)
	for _, path := range paths {
		r, err := store.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, model.ReportStatusUploaded, r.Status)
	}
}
