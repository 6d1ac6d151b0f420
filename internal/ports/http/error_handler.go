package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crashdesk/ondemand/internal/adapter/outbound/uploader"
	"github.com/crashdesk/ondemand/internal/domain/report"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	apperrors "github.com/crashdesk/ondemand/internal/utils/errors"
	"github.com/crashdesk/ondemand/internal/utils/requestctx"
)

// ErrorHandler provides centralized error handling for HTTP responses.
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger}
}

// HandleReportError handles report domain errors.
func (h *ErrorHandler) HandleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, report.ErrNoUnsentReports):
		respondError(c, apperrors.NotFound("unsent report"))
	case errors.Is(err, outbound.ErrReportNotFound), errors.Is(err, outbound.ErrObjectNotFound):
		respondError(c, apperrors.NotFound("report"))
	case errors.Is(err, report.ErrReportUploaded):
		respondError(c, apperrors.BadRequest("report was already uploaded"))
	case errors.Is(err, report.ErrInvalidToken):
		respondError(c, apperrors.NewAppError("DATA_COLLECTION_DISABLED", "data collection is not permitted", http.StatusForbidden, err))
	case errors.Is(err, uploader.ErrBackendUnavailable):
		respondError(c, apperrors.ServiceUnavailable("crash backend unavailable").WithError(err))
	case errors.Is(err, uploader.ErrUploadRejected):
		respondError(c, apperrors.NewAppError("UPLOAD_REJECTED", "crash backend rejected the report", http.StatusBadGateway, err))
	default:
		fields := append(requestctx.Fields(c.Request.Context()), zap.String("route", c.FullPath()), zap.Error(err))
		h.logger.Error("unhandled report error", fields...)
		respondError(c, apperrors.Internal("internal server error", err))
	}
}
