package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the on-demand pipeline.
const (
	TypeExceptionRecorded = "ondemand.exception_recorded"
	TypeExceptionDropped  = "ondemand.exception_dropped"
	TypeReportStored      = "report.stored"
	TypeReportUploaded    = "report.uploaded"
	TypeReportDeleted     = "report.deleted"
)

// Event is the interface that all domain events must implement.
type Event interface {
	// EventID returns the unique identifier for this event instance.
	EventID() uuid.UUID

	// EventType returns the type name of the event (e.g., "ondemand.exception_recorded").
	EventType() string

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent provides a base implementation of the Event interface.
// Embed this struct in your domain events to inherit common fields.
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// EventID returns the unique identifier for this event instance.
func (e BaseEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type name of the event.
func (e BaseEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent creates a new BaseEvent of the given type.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

// ReportEvent is published whenever an on-demand exception or report changes state.
// Path is empty for dropped exceptions, which never produce a report.
type ReportEvent struct {
	BaseEvent
	Path   string `json:"path,omitempty"`
	Urgent bool   `json:"urgent,omitempty"`
}

// NewReportEvent creates a report event for the report at path.
func NewReportEvent(eventType, path string) *ReportEvent {
	return &ReportEvent{
		BaseEvent: NewBaseEvent(eventType),
		Path:      path,
	}
}
