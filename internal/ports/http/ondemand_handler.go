package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crashdesk/ondemand/internal/model"
	"github.com/crashdesk/ondemand/internal/port/inbound"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	apperrors "github.com/crashdesk/ondemand/internal/utils/errors"
)

// OnDemandHandler handles exception ingestion and on-demand quota status.
type OnDemandHandler struct {
	recorder inbound.OnDemandRecorder
	stored   inbound.StoredReportSource
	manager  inbound.ExistingReportManager
	arbiter  inbound.DataCollectionArbiter
	stats    outbound.OnDemandStatsPort
	logger   *zap.Logger
}

// NewOnDemandHandler creates a new on-demand handler.
// stats may be nil, in which case daily counters are omitted.
func NewOnDemandHandler(
	recorder inbound.OnDemandRecorder,
	stored inbound.StoredReportSource,
	manager inbound.ExistingReportManager,
	arbiter inbound.DataCollectionArbiter,
	stats outbound.OnDemandStatsPort,
	logger *zap.Logger,
) *OnDemandHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnDemandHandler{
		recorder: recorder,
		stored:   stored,
		manager:  manager,
		arbiter:  arbiter,
		stats:    stats,
		logger:   logger.Named("ondemand-http"),
	}
}

// RegisterRoutes registers on-demand routes.
// exceptionMiddleware runs in front of exception ingestion only.
func (h *OnDemandHandler) RegisterRoutes(r *gin.RouterGroup, exceptionMiddleware ...gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{}, exceptionMiddleware...)
	r.POST("/exceptions", append(handlers, h.RecordException)...)

	onDemand := r.Group("/on-demand")
	{
		onDemand.GET("/stats", h.GetStats)
	}
}

// RecordExceptionResponse is returned for every gated exception.
type RecordExceptionResponse struct {
	Recorded              bool   `json:"recorded"`
	DataCollectionEnabled bool   `json:"data_collection_enabled"`
	Code                  string `json:"code,omitempty"`
	DroppedCount          int64  `json:"dropped_count"`
}

// RecordException runs an exception through the on-demand gate.
//
//	@Summary		Record exception
//	@Description	Record a non-fatal exception as an on-demand report when quota allows
//	@Tags			OnDemand
//	@Accept			json
//	@Produce		json
//	@Param			request	body		model.ExceptionModel	true	"Exception"
//	@Success		202		{object}	RecordExceptionResponse
//	@Failure		400		{object}	apperrors.ErrorResponse
//	@Failure		422		{object}	apperrors.ErrorResponse
//	@Failure		429		{object}	RecordExceptionResponse
//	@Router			/exceptions [post]
func (h *OnDemandHandler) RecordException(c *gin.Context) {
	var exception model.ExceptionModel
	if err := c.ShouldBindJSON(&exception); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}
	if err := exception.Validate(); err != nil {
		respondError(c, apperrors.ValidationError(err.Error()))
		return
	}

	enabled := h.arbiter.IsEnabled()
	recorded := h.recorder.RecordOnDemandExceptionIfQuota(c.Request.Context(), &exception, enabled, h.manager)

	resp := RecordExceptionResponse{
		Recorded:              recorded,
		DataCollectionEnabled: enabled,
		DroppedCount:          h.recorder.DroppedCount(),
	}
	if !recorded {
		resp.Code = apperrors.QuotaExceeded("").Code
		c.JSON(http.StatusTooManyRequests, resp)
		return
	}
	respondAccepted(c, resp)
}

// StatsResponse describes the on-demand quota state.
type StatsResponse struct {
	RecordedCount      int64                `json:"recorded_count"`
	DroppedCount       int64                `json:"dropped_count"`
	QueuedCount        int64                `json:"queued_count"`
	UploadDelaySeconds float64              `json:"upload_delay_seconds"`
	StoredReportPaths  []string             `json:"stored_report_paths"`
	Today              *model.OnDemandStats `json:"today,omitempty"`
}

// GetStats returns the in-memory counters and today's persisted counters.
//
//	@Summary		Get on-demand stats
//	@Tags			OnDemand
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Router			/on-demand/stats [get]
func (h *OnDemandHandler) GetStats(c *gin.Context) {
	resp := StatsResponse{
		RecordedCount:      h.recorder.RecordedCount(),
		DroppedCount:       h.recorder.DroppedCount(),
		QueuedCount:        h.recorder.QueuedCount(),
		UploadDelaySeconds: h.recorder.CalculateUploadDelay().Seconds(),
		StoredReportPaths:  h.stored.StoredActiveReportPaths(),
	}

	if h.stats != nil {
		today, err := h.stats.GetDaily(c.Request.Context(), time.Now())
		switch {
		case err == nil, errors.Is(err, outbound.ErrCacheMiss):
			resp.Today = today
		default:
			h.logger.Warn("failed to read daily on-demand stats", zap.Error(err))
		}
	}

	respondSuccess(c, resp)
}
