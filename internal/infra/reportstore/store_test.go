package reportstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crashdesk/ondemand/internal/adapter/outbound/postgres"
	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"github.com/crashdesk/ondemand/internal/shared/database"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, outbound.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return outbound.ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}

type failingDB struct {
	outbound.ReportDatabasePort
}

func (failingDB) Create(ctx context.Context, report *model.Report) error {
	return errors.New("connection refused")
}

func setupStore(t *testing.T) (*Store, *memStorage) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	storage := newMemStorage()
	store := NewStore(postgres.NewReportAdapter(db), storage, "reports", nil)
	return store, storage
}

func TestStore_CreateOnDemandReport(t *testing.T) {
	ctx := context.Background()
	store, storage := setupStore(t)

	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	exception := model.NewExceptionModel("NSInvalidArgumentException", "nil key")
	exception.OnDemand = true
	exception.Frames = []model.StackFrame{{Symbol: "main", File: "main.m", Line: 12, Address: 0x1000}}

	path, err := store.CreateOnDemandReport(ctx, exception, 7, 2)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "reports/on_demand/"))
	assert.True(t, strings.HasSuffix(path, ".json"))

	report, data, err := store.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, model.ReportStatusActive, report.Status)
	assert.Equal(t, model.ReportKindOnDemand, report.Kind)
	assert.Equal(t, "NSInvalidArgumentException", report.ExceptionName)
	assert.Equal(t, int64(len(data)), report.Size)
	assert.Equal(t, storage.objects[path], data)

	var payload model.ReportPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	want := model.ReportPayload{
		ReportID:              report.ID,
		Kind:                  model.ReportKindOnDemand,
		Exception:             exception,
		RecordedOnDemandCount: 7,
		DroppedOnDemandCount:  2,
		CreatedAt:             fixed,
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_CreateOnDemandReport_Kind(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	exception := model.NewExceptionModel("Error", "")
	path, err := store.CreateOnDemandReport(ctx, exception, 0, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "reports/on_demand/"))
	assert.False(t, exception.OnDemand)

	fatal := model.NewExceptionModel("SIGABRT", "")
	fatal.IsFatal = true
	path, err = store.CreateOnDemandReport(ctx, fatal, 0, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "reports/fatal/"))

	r, err := store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, model.ReportKindFatal, r.Kind)
}

func TestStore_CreateOnDemandReport_Invalid(t *testing.T) {
	store, storage := setupStore(t)

	_, err := store.CreateOnDemandReport(context.Background(), model.NewExceptionModel("", "no name"), 0, 0)
	assert.ErrorIs(t, err, model.ErrExceptionNameRequired)

	_, err = store.CreateOnDemandReport(context.Background(), nil, 0, 0)
	assert.Error(t, err)
	assert.Empty(t, storage.objects)
}

func TestStore_CreateOnDemandReport_StorageFailure(t *testing.T) {
	store, storage := setupStore(t)
	storage.putErr = errors.New("bucket missing")

	_, err := store.CreateOnDemandReport(context.Background(), model.NewExceptionModel("E", ""), 0, 0)
	assert.Error(t, err)
}

func TestStore_CreateOnDemandReport_RemovesPayloadOnDBFailure(t *testing.T) {
	storage := newMemStorage()
	store := NewStore(failingDB{}, storage, "reports", nil)

	_, err := store.CreateOnDemandReport(context.Background(), model.NewExceptionModel("E", ""), 0, 0)
	assert.Error(t, err)
	assert.Empty(t, storage.objects)
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, storage := setupStore(t)

	first, err := store.CreateOnDemandReport(ctx, model.NewExceptionModel("First", ""), 0, 0)
	require.NoError(t, err)
	second, err := store.CreateOnDemandReport(ctx, model.NewExceptionModel("Second", ""), 1, 0)
	require.NoError(t, err)

	// Active reports are not pending.
	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, store.MarkPending(ctx, first))
	require.NoError(t, store.MarkPending(ctx, second))
	pending, err = store.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, store.MarkUploaded(ctx, first))
	report, _, err := store.Load(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, model.ReportStatusUploaded, report.Status)
	assert.NotNil(t, report.UploadedAt)

	require.NoError(t, store.Delete(ctx, second))
	_, _, err = store.Load(ctx, second)
	assert.ErrorIs(t, err, outbound.ErrReportNotFound)
	assert.NotContains(t, storage.objects, second)

	pending, err = store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, store.MarkPending(ctx, "missing"), outbound.ErrReportNotFound)
}
