package inbound

import (
	"context"
	"time"

	"github.com/crashdesk/ondemand/internal/model"
)

// OnDemandRecorder gates exceptions into on-demand reports under a quota.
type OnDemandRecorder interface {
	// RecordOnDemandExceptionIfQuota records the exception as an on-demand report when quota allows.
	// It returns false when the quota is exhausted or the report could not be written.
	RecordOnDemandExceptionIfQuota(
		ctx context.Context,
		exception *model.ExceptionModel,
		dataCollectionEnabled bool,
		reportManager ExistingReportManager,
	) bool

	RecordedCount() int64
	DroppedCount() int64
	QueuedCount() int64

	// CalculateUploadDelay returns the wait applied after the next on-demand operation.
	CalculateUploadDelay() time.Duration
}

// StoredReportSource exposes on-demand reports held back while data collection was off.
type StoredReportSource interface {
	StoredActiveReportPaths() []string
	ClearStoredActiveReportPaths() []string
}

// DataCollectionArbiter decides whether crash data may leave the service.
type DataCollectionArbiter interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
	IsOverridden() bool
	Reset()
}
