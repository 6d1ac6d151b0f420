package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/crashdesk/ondemand/internal/infra/config"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves path-style object requests from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func setupStorage(t *testing.T) (*ReportStorageAdapter, *fakeS3) {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), &config.StorageConfig{
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Bucket:          "reports",
	})
	require.NoError(t, err)
	return NewReportStorageAdapter(client, "reports"), fake
}

func TestNewClient_IncompleteConfig(t *testing.T) {
	_, err := NewClient(context.Background(), &config.StorageConfig{Endpoint: "http://localhost"})
	assert.Error(t, err)
}

func TestReportStorageAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage, fake := setupStorage(t)

	payload := []byte(`{"report_id":"1"}`)
	require.NoError(t, storage.Put(ctx, "on_demand/1.json", bytes.NewReader(payload), int64(len(payload)), "application/json"))

	assert.Equal(t, payload, fake.objects["reports/on_demand/1.json"])
	assert.Equal(t, "application/json", fake.types["reports/on_demand/1.json"])

	rc, err := storage.Get(ctx, "on_demand/1.json")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, storage.Delete(ctx, "on_demand/1.json"))
	_, err = storage.Get(ctx, "on_demand/1.json")
	assert.ErrorIs(t, err, outbound.ErrObjectNotFound)
}
