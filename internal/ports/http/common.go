package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/crashdesk/ondemand/internal/utils/errors"
)

// respondError sends an error response for the given application error.
func respondError(c *gin.Context, err *apperrors.AppError) {
	c.JSON(err.StatusCode, err.ToResponse())
}

// respondSuccess sends a success response with the given data.
func respondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// respondAccepted sends a 202 Accepted response with the given data.
func respondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, data)
}

// ListResponse wraps a list of items with its length.
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}
