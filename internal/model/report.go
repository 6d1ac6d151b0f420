package model

import (
	"time"

	"github.com/google/uuid"
)

// ReportKind is the origin of a report.
type ReportKind string

const (
	ReportKindOnDemand ReportKind = "on_demand"
	ReportKindNonFatal ReportKind = "non_fatal"
	ReportKindFatal    ReportKind = "fatal"
)

// String returns the string representation of the report kind.
func (k ReportKind) String() string {
	return string(k)
}

// ReportStatus is the lifecycle state of a report.
type ReportStatus string

const (
	// ReportStatusActive is a freshly written report owned by the on-demand queue.
	ReportStatusActive ReportStatus = "active"
	// ReportStatusPending is waiting for an explicit send or delete.
	ReportStatusPending ReportStatus = "pending"
	// ReportStatusUploaded has been accepted by the backend.
	ReportStatusUploaded ReportStatus = "uploaded"
)

// String returns the string representation of the report status.
func (s ReportStatus) String() string {
	return string(s)
}

// IsUnsent reports whether the report has not yet reached the backend.
func (s ReportStatus) IsUnsent() bool {
	return s == ReportStatusActive || s == ReportStatusPending
}

// Report represents a persisted crash report.
type Report struct {
	ID                    uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Path                  string       `json:"path" gorm:"uniqueIndex;not null"`
	Kind                  ReportKind   `json:"kind" gorm:"not null"`
	Status                ReportStatus `json:"status" gorm:"index;not null"`
	ExceptionName         string       `json:"exception_name"`
	Reason                string       `json:"reason"`
	RecordedOnDemandCount int64        `json:"recorded_on_demand_count"`
	DroppedOnDemandCount  int64        `json:"dropped_on_demand_count"`
	Size                  int64        `json:"size"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
	UploadedAt            *time.Time   `json:"uploaded_at,omitempty"`
}

// TableName returns the database table name.
func (Report) TableName() string {
	return "reports"
}

// IsUnsent reports whether the report still needs to be sent.
func (r *Report) IsUnsent() bool {
	return r.Status.IsUnsent()
}

// ReportPayload is the document stored for each report.
type ReportPayload struct {
	ReportID              uuid.UUID       `json:"report_id"`
	Kind                  ReportKind      `json:"kind"`
	Exception             *ExceptionModel `json:"exception"`
	RecordedOnDemandCount int64           `json:"recorded_on_demand_count"`
	DroppedOnDemandCount  int64           `json:"dropped_on_demand_count"`
	CreatedAt             time.Time       `json:"created_at"`
}
