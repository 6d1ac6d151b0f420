package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	"gorm.io/gorm"
)

// reportAdapter implements outbound.ReportDatabasePort.
type reportAdapter struct {
	db *gorm.DB
}

// NewReportAdapter creates a new report database adapter.
func NewReportAdapter(db *gorm.DB) outbound.ReportDatabasePort {
	return &reportAdapter{db: db}
}

func (a *reportAdapter) Create(ctx context.Context, report *model.Report) error {
	if err := a.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (a *reportAdapter) GetByPath(ctx context.Context, path string) (*model.Report, error) {
	var report model.Report
	err := a.db.WithContext(ctx).First(&report, "path = ?", path).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrReportNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}

func (a *reportAdapter) ListByStatus(ctx context.Context, statuses ...model.ReportStatus) ([]*model.Report, error) {
	var reports []*model.Report
	query := a.db.WithContext(ctx)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (a *reportAdapter) UpdateStatus(ctx context.Context, path string, status model.ReportStatus, uploadedAt *time.Time) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if uploadedAt != nil {
		updates["uploaded_at"] = *uploadedAt
	}

	result := a.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("path = ?", path).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update report status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return outbound.ErrReportNotFound
	}
	return nil
}

func (a *reportAdapter) DeleteByPath(ctx context.Context, path string) error {
	result := a.db.WithContext(ctx).Where("path = ?", path).Delete(&model.Report{})
	if result.Error != nil {
		return fmt.Errorf("delete report: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return outbound.ErrReportNotFound
	}
	return nil
}

// Compile-time check
var _ outbound.ReportDatabasePort = (*reportAdapter)(nil)
