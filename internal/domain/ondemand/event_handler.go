package ondemand

import (
	"context"
	"fmt"

	"github.com/crashdesk/ondemand/internal/infra/events"
	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"go.uber.org/zap"
)

// StatsEventHandler keeps the daily on-demand counters in step with domain events.
type StatsEventHandler struct {
	stats  outbound.OnDemandStatsPort
	logger *zap.Logger
}

// NewStatsEventHandler creates a new stats event handler.
func NewStatsEventHandler(stats outbound.OnDemandStatsPort, logger *zap.Logger) *StatsEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsEventHandler{
		stats:  stats,
		logger: logger.Named("ondemand-stats"),
	}
}

// Handles returns the list of event types this handler can process.
func (h *StatsEventHandler) Handles() []string {
	return []string{
		events.TypeExceptionRecorded,
		events.TypeExceptionDropped,
		events.TypeReportUploaded,
		events.TypeReportDeleted,
	}
}

// Handle processes the given event.
func (h *StatsEventHandler) Handle(ctx context.Context, event events.Event) error {
	var counter model.StatsCounter
	switch event.EventType() {
	case events.TypeExceptionRecorded:
		counter = model.StatsCounterRecorded
	case events.TypeExceptionDropped:
		counter = model.StatsCounterDropped
	case events.TypeReportUploaded:
		counter = model.StatsCounterUploaded
	case events.TypeReportDeleted:
		counter = model.StatsCounterDeleted
	default:
		h.logger.Warn("unhandled event type", zap.String("event_type", event.EventType()))
		return nil
	}

	if _, err := h.stats.Increment(context.WithoutCancel(ctx), counter, 1); err != nil {
		return fmt.Errorf("increment %s: %w", counter, err)
	}
	return nil
}

// Compile-time check
var _ events.Handler = (*StatsEventHandler)(nil)
