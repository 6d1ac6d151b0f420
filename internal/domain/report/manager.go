package report

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/crashdesk/ondemand/internal/infra/events"
	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/inbound"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultSendConcurrency = 4

// Config contains report manager configuration.
type Config struct {
	// SendConcurrency bounds parallel uploads in SendUnsentReports.
	SendConcurrency int `json:"send_concurrency" yaml:"send_concurrency"`
}

// Manager uploads, sends and deletes persisted reports.
type Manager struct {
	store     outbound.ReportStorePort
	uploader  outbound.ReportUploaderPort
	stored    inbound.StoredReportSource
	publisher outbound.EventPublisherPort
	config    *Config
	logger    *zap.Logger
}

// NewManager creates a new report manager.
// stored may be nil when no on-demand model holds reports.
func NewManager(
	store outbound.ReportStorePort,
	uploader outbound.ReportUploaderPort,
	stored inbound.StoredReportSource,
	publisher outbound.EventPublisherPort,
	config *Config,
	logger *zap.Logger,
) *Manager {
	if config == nil {
		config = &Config{}
	}
	if config.SendConcurrency <= 0 {
		config.SendConcurrency = defaultSendConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:     store,
		uploader:  uploader,
		stored:    stored,
		publisher: publisher,
		config:    config,
		logger:    logger.Named("report"),
	}
}

// Compile-time interface check
var _ inbound.ReportManager = (*Manager)(nil)

// HandleOnDemandReportUpload uploads the report at path and marks it uploaded.
func (m *Manager) HandleOnDemandReportUpload(ctx context.Context, path string, token model.DataCollectionToken, urgent bool) error {
	if !token.IsValid() {
		return ErrInvalidToken
	}

	report, payload, err := m.store.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load report %s: %w", path, err)
	}
	if report.Status == model.ReportStatusUploaded {
		return ErrReportUploaded
	}

	if err := m.uploader.Upload(ctx, report, payload, urgent); err != nil {
		return fmt.Errorf("upload report %s: %w", path, err)
	}

	if err := m.store.MarkUploaded(ctx, path); err != nil {
		return fmt.Errorf("mark report %s uploaded: %w", path, err)
	}

	m.logger.Debug("report uploaded",
		zap.String("path", path),
		zap.String("kind", report.Kind.String()),
		zap.Bool("urgent", urgent))

	if m.publisher != nil {
		event := events.NewReportEvent(events.TypeReportUploaded, path)
		event.Urgent = urgent
		if err := m.publisher.Publish(ctx, event); err != nil {
			m.logger.Warn("failed to publish event", zap.String("event_type", event.EventType()), zap.Error(err))
		}
	}
	return nil
}

// UnsentReports lists reports waiting to be sent, newest first.
func (m *Manager) UnsentReports(ctx context.Context) ([]*model.Report, error) {
	return m.store.ListPending(ctx)
}

// NewestUnsentReport returns the most recent unsent report.
func (m *Manager) NewestUnsentReport(ctx context.Context) (*model.Report, error) {
	reports, err := m.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrNoUnsentReports
	}
	return reports[0], nil
}

// SendUnsentReports uploads every unsent report and returns how many were sent.
// Failed reports stay unsent; the first failure is returned.
func (m *Manager) SendUnsentReports(ctx context.Context) (int, error) {
	m.clearStored()

	reports, err := m.store.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	if len(reports) == 0 {
		return 0, nil
	}

	token := model.ValidToken()

	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(m.config.SendConcurrency)

	for _, r := range reports {
		path := r.Path
		g.Go(func() error {
			if err := m.HandleOnDemandReportUpload(ctx, path, token, false); err != nil {
				m.logger.Warn("failed to send unsent report", zap.String("path", path), zap.Error(err))
				return err
			}
			sent.Add(1)
			return nil
		})
	}

	err = g.Wait()
	m.logger.Info("sent unsent reports",
		zap.Int64("sent", sent.Load()),
		zap.Int("total", len(reports)))
	return int(sent.Load()), err
}

// DeleteUnsentReports deletes every unsent report and returns how many were deleted.
func (m *Manager) DeleteUnsentReports(ctx context.Context) (int, error) {
	m.clearStored()

	reports, err := m.store.ListPending(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	deleted := 0
	for _, r := range reports {
		if err := m.store.Delete(ctx, r.Path); err != nil {
			errs = append(errs, fmt.Errorf("delete report %s: %w", r.Path, err))
			continue
		}
		deleted++
		if m.publisher != nil {
			if err := m.publisher.Publish(ctx, events.NewReportEvent(events.TypeReportDeleted, r.Path)); err != nil {
				m.logger.Warn("failed to publish event", zap.String("event_type", events.TypeReportDeleted), zap.Error(err))
			}
		}
	}

	m.logger.Info("deleted unsent reports", zap.Int("deleted", deleted), zap.Int("total", len(reports)))
	return deleted, errors.Join(errs...)
}

func (m *Manager) clearStored() {
	if m.stored == nil {
		return
	}
	if paths := m.stored.ClearStoredActiveReportPaths(); len(paths) > 0 {
		m.logger.Debug("cleared stored on-demand reports", zap.Int("count", len(paths)))
	}
}
