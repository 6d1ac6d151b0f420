package inbound

import (
	"context"

	"github.com/crashdesk/ondemand/internal/model"
)

// ExistingReportManager uploads reports that already exist in storage.
type ExistingReportManager interface {
	// HandleOnDemandReportUpload uploads the report stored at path.
	HandleOnDemandReportUpload(ctx context.Context, path string, token model.DataCollectionToken, urgent bool) error
}

// ReportManager manages unsent reports.
type ReportManager interface {
	ExistingReportManager

	UnsentReports(ctx context.Context) ([]*model.Report, error)
	NewestUnsentReport(ctx context.Context) (*model.Report, error)
	SendUnsentReports(ctx context.Context) (int, error)
	DeleteUnsentReports(ctx context.Context) (int, error)
}
