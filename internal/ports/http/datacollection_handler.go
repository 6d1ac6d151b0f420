package http

import (
	"github.com/gin-gonic/gin"

	"github.com/crashdesk/ondemand/internal/port/inbound"
	apperrors "github.com/crashdesk/ondemand/internal/utils/errors"
)

// DataCollectionHandler reads and sets data collection consent.
type DataCollectionHandler struct {
	arbiter inbound.DataCollectionArbiter
}

// NewDataCollectionHandler creates a new data collection handler.
func NewDataCollectionHandler(arbiter inbound.DataCollectionArbiter) *DataCollectionHandler {
	return &DataCollectionHandler{arbiter: arbiter}
}

// RegisterRoutes registers data collection routes.
func (h *DataCollectionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/data-collection", h.Get)
	r.PUT("/data-collection", h.Set)
	r.DELETE("/data-collection", h.Reset)
}

// DataCollectionResponse describes the current consent state.
type DataCollectionResponse struct {
	Enabled    bool `json:"enabled"`
	Overridden bool `json:"overridden"`
}

// SetDataCollectionRequest sets data collection consent.
type SetDataCollectionRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Get returns the consent state.
//
//	@Summary		Get data collection consent
//	@Tags			DataCollection
//	@Produce		json
//	@Success		200	{object}	DataCollectionResponse
//	@Router			/data-collection [get]
func (h *DataCollectionHandler) Get(c *gin.Context) {
	respondSuccess(c, h.state())
}

// Set overrides the configured consent.
//
//	@Summary		Set data collection consent
//	@Tags			DataCollection
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SetDataCollectionRequest	true	"Consent"
//	@Success		200		{object}	DataCollectionResponse
//	@Failure		400		{object}	apperrors.ErrorResponse
//	@Router			/data-collection [put]
func (h *DataCollectionHandler) Set(c *gin.Context) {
	var req SetDataCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.BadRequest(err.Error()))
		return
	}
	h.arbiter.SetEnabled(*req.Enabled)
	respondSuccess(c, h.state())
}

// Reset drops the runtime override and restores the configured consent.
//
//	@Summary		Reset data collection consent
//	@Tags			DataCollection
//	@Produce		json
//	@Success		200	{object}	DataCollectionResponse
//	@Router			/data-collection [delete]
func (h *DataCollectionHandler) Reset(c *gin.Context) {
	h.arbiter.Reset()
	respondSuccess(c, h.state())
}

func (h *DataCollectionHandler) state() DataCollectionResponse {
	return DataCollectionResponse{
		Enabled:    h.arbiter.IsEnabled(),
		Overridden: h.arbiter.IsOverridden(),
	}
}
