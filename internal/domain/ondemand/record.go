package ondemand

import (
	"context"
	"errors"

	"github.com/crashdesk/ondemand/internal/infra/events"
	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/inbound"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"go.uber.org/zap"
)

// RecordOnDemandExceptionIfQuota records the exception into a new report when on-demand
// quota is available. When it is not, the occurrence is counted and the exception dropped.
//
// An accepted report is uploaded through reportManager when dataCollectionEnabled is set.
// Otherwise it is unsent from the moment it is written, so sending or deleting unsent
// reports covers it even while its operation is still queued. Either way the operation
// keeps its quota slot until the upload delay has elapsed.
func (m *Model) RecordOnDemandExceptionIfQuota(
	ctx context.Context,
	exception *model.ExceptionModel,
	dataCollectionEnabled bool,
	reportManager inbound.ExistingReportManager,
) bool {
	if exception == nil {
		m.logger.Error("on-demand exception is nil")
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isQueueFull() {
		m.logger.Debug("no available on-demand quota, dropping report",
			zap.String("exception", exception.Name),
			zap.Int64("queued", m.queuedCount.Load()))
		m.droppedCount.Add(1)
		m.recordedCount.Add(1)
		m.publish(ctx, events.TypeExceptionDropped, "")
		return false
	}

	if dataCollectionEnabled && reportManager == nil {
		m.logger.Error("no report manager to upload on-demand exception")
		return false
	}

	token := model.ValidToken()

	recorded := *exception
	recorded.OnDemand = true
	path, err := m.store.CreateOnDemandReport(ctx, &recorded, m.recordedCount.Load(), m.droppedCount.Load())
	if err != nil {
		m.logger.Error("error recording on-demand exception", zap.Error(err))
		return false
	}

	if !dataCollectionEnabled {
		if err := m.store.MarkPending(ctx, path); err != nil {
			m.logger.Warn("failed to mark on-demand report unsent", zap.String("path", path), zap.Error(err))
		}
	}
	generation := m.generation()

	m.queuedCount.Add(1)
	m.recordedCount.Add(1)
	m.droppedCount.Store(0)

	err = m.queue.Submit(func(qctx context.Context) {
		m.processReport(qctx, path, token, generation, dataCollectionEnabled, reportManager)
	})
	if err != nil {
		m.queuedCount.Add(-1)
		m.logger.Error("failed to queue on-demand report", zap.String("path", path), zap.Error(err))
		if dataCollectionEnabled {
			if err := m.store.MarkPending(ctx, path); err != nil {
				m.logger.Warn("failed to keep on-demand report as unsent", zap.String("path", path), zap.Error(err))
			}
		}
		return false
	}

	m.publish(ctx, events.TypeExceptionRecorded, path)
	return true
}

// processReport runs on the serial queue for every accepted exception.
func (m *Model) processReport(
	ctx context.Context,
	path string,
	token model.DataCollectionToken,
	generation uint64,
	dataCollectionEnabled bool,
	reportManager inbound.ExistingReportManager,
) {
	defer m.queuedCount.Add(-1)

	uploadDelay := m.CalculateUploadDelay()

	if dataCollectionEnabled {
		if err := reportManager.HandleOnDemandReportUpload(ctx, path, token, true); err != nil {
			m.logger.Warn("failed to upload on-demand report, keeping it unsent",
				zap.String("path", path), zap.Error(err))
			if err := m.store.MarkPending(context.WithoutCancel(ctx), path); err != nil {
				m.logger.Error("failed to keep on-demand report as unsent", zap.String("path", path), zap.Error(err))
			}
		} else {
			m.logger.Debug("submitted an on-demand exception",
				zap.String("path", path),
				zap.Duration("upload_delay", uploadDelay))
		}
	} else {
		m.storeActiveReport(context.WithoutCancel(ctx), path, generation)
	}

	m.wait(ctx, uploadDelay)
}

// storeActiveReport holds the report until unsent reports are sent or deleted.
// Past MaxUnsentReports the oldest held report is deleted. Reports already sent or
// deleted since the operation was recorded are left alone.
func (m *Model) storeActiveReport(ctx context.Context, path string, generation uint64) {
	report, err := m.store.Get(ctx, path)
	switch {
	case errors.Is(err, outbound.ErrReportNotFound):
		m.logger.Debug("on-demand report deleted before it was stored", zap.String("path", path))
		return
	case err != nil:
		m.logger.Error("failed to look up on-demand report", zap.String("path", path), zap.Error(err))
		return
	case report.Status == model.ReportStatusUploaded:
		m.logger.Debug("on-demand report sent before it was stored", zap.String("path", path))
		return
	case report.Status == model.ReportStatusActive:
		if err := m.store.MarkPending(ctx, path); err != nil {
			m.logger.Error("failed to mark on-demand report unsent", zap.String("path", path), zap.Error(err))
		}
	}

	var evicted string
	m.mu.Lock()
	m.pathsMu.Lock()
	if m.clearedGeneration != generation {
		m.pathsMu.Unlock()
		m.mu.Unlock()
		m.logger.Debug("unsent reports cleared before on-demand report was stored", zap.String("path", path))
		return
	}
	m.storedActiveReportPaths = append([]string{path}, m.storedActiveReportPaths...)
	if len(m.storedActiveReportPaths) > m.settings.MaxUnsentReports {
		last := len(m.storedActiveReportPaths) - 1
		evicted = m.storedActiveReportPaths[last]
		m.storedActiveReportPaths = m.storedActiveReportPaths[:last]
		m.droppedCount.Add(1)
	}
	m.pathsMu.Unlock()
	m.mu.Unlock()

	m.logger.Debug("stored an on-demand exception while data collection is disabled",
		zap.String("path", path))
	m.publish(ctx, events.TypeReportStored, path)
	if evicted == "" {
		return
	}

	if err := m.store.Delete(ctx, evicted); err != nil && !errors.Is(err, outbound.ErrReportNotFound) {
		m.logger.Error("failed to delete oldest unsent on-demand report",
			zap.String("path", evicted), zap.Error(err))
		return
	}
	m.logger.Debug("deleted oldest unsent on-demand report", zap.String("path", evicted))
	m.publish(ctx, events.TypeReportDeleted, evicted)
}
