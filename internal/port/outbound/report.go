package outbound

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/crashdesk/ondemand/internal/model"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrObjectNotFound = errors.New("object not found")
)

// ReportDatabasePort defines report metadata persistence operations.
type ReportDatabasePort interface {
	// Create inserts a new report.
	Create(ctx context.Context, report *model.Report) error

	// GetByPath gets a report by its storage path.
	GetByPath(ctx context.Context, path string) (*model.Report, error)

	// ListByStatus lists reports in any of the given statuses, newest first.
	ListByStatus(ctx context.Context, statuses ...model.ReportStatus) ([]*model.Report, error)

	// UpdateStatus sets the status of the report at path.
	UpdateStatus(ctx context.Context, path string, status model.ReportStatus, uploadedAt *time.Time) error

	// DeleteByPath removes the report at path.
	DeleteByPath(ctx context.Context, path string) error
}

// StoragePort defines object storage operations.
type StoragePort interface {
	// Put uploads an object to storage.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Get retrieves an object from storage.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object from storage.
	Delete(ctx context.Context, key string) error
}

// ReportStorePort locates and creates persisted reports.
type ReportStorePort interface {
	// CreateOnDemandReport writes a new active on-demand report for the exception and returns its path.
	CreateOnDemandReport(ctx context.Context, exception *model.ExceptionModel, recorded, dropped int64) (string, error)

	// Get returns the metadata of the report at path.
	Get(ctx context.Context, path string) (*model.Report, error)

	// Load returns the report at path and its payload.
	Load(ctx context.Context, path string) (*model.Report, []byte, error)

	// Delete removes the report and its payload.
	Delete(ctx context.Context, path string) error

	// ListPending lists reports that have not been uploaded.
	ListPending(ctx context.Context) ([]*model.Report, error)

	// MarkPending moves the report to pending.
	MarkPending(ctx context.Context, path string) error

	// MarkUploaded moves the report to uploaded.
	MarkUploaded(ctx context.Context, path string) error
}

// ReportUploaderPort sends reports to the crash backend.
type ReportUploaderPort interface {
	Upload(ctx context.Context, report *model.Report, payload []byte, urgent bool) error
}
