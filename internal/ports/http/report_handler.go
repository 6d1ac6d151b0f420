package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crashdesk/ondemand/internal/port/inbound"
)

// ReportHandler handles unsent report HTTP requests.
type ReportHandler struct {
	manager      inbound.ReportManager
	errorHandler *ErrorHandler
	logger       *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(manager inbound.ReportManager, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{
		manager:      manager,
		errorHandler: NewErrorHandler(logger),
		logger:       logger.Named("report-http"),
	}
}

// RegisterRoutes registers report routes.
func (h *ReportHandler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports/unsent")
	{
		reports.GET("", h.ListUnsent)
		reports.GET("/newest", h.GetNewestUnsent)
		reports.POST("/send", h.SendUnsent)
		reports.POST("/delete", h.DeleteUnsent)
	}
}

// ListUnsent lists reports that have not reached the backend.
//
//	@Summary		List unsent reports
//	@Tags			Reports
//	@Produce		json
//	@Success		200	{object}	ListResponse{data=[]model.Report}
//	@Failure		500	{object}	apperrors.ErrorResponse
//	@Router			/reports/unsent [get]
func (h *ReportHandler) ListUnsent(c *gin.Context) {
	reports, err := h.manager.UnsentReports(c.Request.Context())
	if err != nil {
		h.errorHandler.HandleReportError(c, err)
		return
	}
	respondSuccess(c, ListResponse{Data: reports, Total: len(reports)})
}

// GetNewestUnsent returns the most recent unsent report.
//
//	@Summary		Get newest unsent report
//	@Tags			Reports
//	@Produce		json
//	@Success		200	{object}	model.Report
//	@Failure		404	{object}	apperrors.ErrorResponse
//	@Router			/reports/unsent/newest [get]
func (h *ReportHandler) GetNewestUnsent(c *gin.Context) {
	report, err := h.manager.NewestUnsentReport(c.Request.Context())
	if err != nil {
		h.errorHandler.HandleReportError(c, err)
		return
	}
	respondSuccess(c, report)
}

// BatchResponse reports how many reports a batch operation handled.
type BatchResponse struct {
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// SendUnsent uploads every unsent report.
//
//	@Summary		Send unsent reports
//	@Tags			Reports
//	@Produce		json
//	@Success		200	{object}	BatchResponse
//	@Failure		503	{object}	apperrors.ErrorResponse
//	@Router			/reports/unsent/send [post]
func (h *ReportHandler) SendUnsent(c *gin.Context) {
	sent, err := h.manager.SendUnsentReports(c.Request.Context())
	if err != nil && sent == 0 {
		h.errorHandler.HandleReportError(c, err)
		return
	}
	resp := BatchResponse{Count: sent}
	if err != nil {
		h.logger.Warn("some unsent reports were not sent", zap.Int("sent", sent), zap.Error(err))
		resp.Error = err.Error()
	}
	respondSuccess(c, resp)
}

// DeleteUnsent removes every unsent report.
//
//	@Summary		Delete unsent reports
//	@Tags			Reports
//	@Produce		json
//	@Success		200	{object}	BatchResponse
//	@Failure		500	{object}	apperrors.ErrorResponse
//	@Router			/reports/unsent/delete [post]
func (h *ReportHandler) DeleteUnsent(c *gin.Context) {
	deleted, err := h.manager.DeleteUnsentReports(c.Request.Context())
	if err != nil && deleted == 0 {
		h.errorHandler.HandleReportError(c, err)
		return
	}
	resp := BatchResponse{Count: deleted}
	if err != nil {
		h.logger.Warn("some unsent reports were not deleted", zap.Int("deleted", deleted), zap.Error(err))
		resp.Error = err.Error()
	}
	respondSuccess(c, resp)
}
