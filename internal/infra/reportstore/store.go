package reportstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const payloadContentType = "application/json"

// Store keeps report metadata in the database and report payloads in object storage.
// A report's path is the object key of its payload.
type Store struct {
	db      outbound.ReportDatabasePort
	storage outbound.StoragePort
	prefix  string
	now     func() time.Time
	logger  *zap.Logger
}

// NewStore creates a new report store. Payload keys are placed under prefix.
func NewStore(db outbound.ReportDatabasePort, storage outbound.StoragePort, prefix string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		storage: storage,
		prefix:  prefix,
		now:     time.Now,
		logger:  logger.Named("reportstore"),
	}
}

// Compile-time check
var _ outbound.ReportStorePort = (*Store)(nil)

func (s *Store) key(kind model.ReportKind, id uuid.UUID) string {
	return path.Join(s.prefix, kind.String(), id.String()+".json")
}

// CreateOnDemandReport writes an active on-demand report for the exception.
func (s *Store) CreateOnDemandReport(ctx context.Context, exception *model.ExceptionModel, recorded, dropped int64) (string, error) {
	if exception == nil {
		return "", model.ErrExceptionNameRequired
	}
	if err := exception.Validate(); err != nil {
		return "", err
	}

	onDemand := *exception
	onDemand.OnDemand = true

	id := uuid.New()
	createdAt := s.now().UTC()
	payload := &model.ReportPayload{
		ReportID:              id,
		Kind:                  onDemand.Kind(),
		Exception:             &onDemand,
		RecordedOnDemandCount: recorded,
		DroppedOnDemandCount:  dropped,
		CreatedAt:             createdAt,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	key := s.key(payload.Kind, id)
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), payloadContentType); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	report := &model.Report{
		ID:                    id,
		Path:                  key,
		Kind:                  payload.Kind,
		Status:                model.ReportStatusActive,
		ExceptionName:         exception.Name,
		Reason:                exception.Reason,
		RecordedOnDemandCount: recorded,
		DroppedOnDemandCount:  dropped,
		Size:                  int64(len(data)),
		CreatedAt:             createdAt,
	}
	if err := s.db.Create(ctx, report); err != nil {
		if derr := s.storage.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.logger.Warn("failed to remove orphaned report payload", zap.String("path", key), zap.Error(derr))
		}
		return "", err
	}

	s.logger.Debug("report created",
		zap.String("path", key),
		zap.String("exception", exception.Name),
		zap.Int64("recorded", recorded),
		zap.Int64("dropped", dropped))
	return key, nil
}

// Get returns the metadata of the report at path.
func (s *Store) Get(ctx context.Context, path string) (*model.Report, error) {
	return s.db.GetByPath(ctx, path)
}

// Load returns the report at path and its payload.
func (s *Store) Load(ctx context.Context, path string) (*model.Report, []byte, error) {
	report, err := s.db.GetByPath(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.Get(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("read report: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("read report: %w", err)
	}
	return report, data, nil
}

// Delete removes the report payload and its metadata.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.storage.Delete(ctx, path); err != nil && !errors.Is(err, outbound.ErrObjectNotFound) {
		return err
	}
	return s.db.DeleteByPath(ctx, path)
}

// ListPending lists reports waiting for an explicit send or delete, newest first.
func (s *Store) ListPending(ctx context.Context) ([]*model.Report, error) {
	return s.db.ListByStatus(ctx, model.ReportStatusPending)
}

// MarkPending moves the report to pending.
func (s *Store) MarkPending(ctx context.Context, path string) error {
	return s.db.UpdateStatus(ctx, path, model.ReportStatusPending, nil)
}

// MarkUploaded moves the report to uploaded.
func (s *Store) MarkUploaded(ctx context.Context, path string) error {
	uploadedAt := s.now().UTC()
	return s.db.UpdateStatus(ctx, path, model.ReportStatusUploaded, &uploadedAt)
}
