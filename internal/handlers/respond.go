package handlers

import (
	"context"
	"errors"
	"net/http"

	"neohub_monitor/internal/export"
	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK       = "ok"
	statusAccepted = "accepted"

	errInternal        = "internal error"
	errHubAuth         = "hub authentication failed"
	errHubUnavailable  = "hub unavailable"
	errHubTimeout      = "hub did not answer in time"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondError maps a domain error to its HTTP status.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code, msg := errorStatus(err)
	h.logAndJSONError(c, code, msg, logKey, err, kv...)
}

func errorStatus(err error) (int, string) {
	var (
		ce *hub.CommandError
		ee *export.ExportError
		fe *hub.FetchError
	)
	switch {
	case errors.As(err, &ce):
		switch ce.Kind {
		case hub.CommandInvalid:
			return http.StatusBadRequest, err.Error()
		case hub.CommandRejected:
			return http.StatusUnprocessableEntity, err.Error()
		case hub.CommandAuth:
			return http.StatusBadGateway, errHubAuth
		default:
			return http.StatusGatewayTimeout, errHubTimeout
		}
	case errors.As(err, &ee):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidTimeRange), errors.Is(err, service.ErrInvalidScope):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnknownDevice), errors.Is(err, service.ErrUnknownZone):
		return http.StatusNotFound, err.Error()
	case hub.IsAuth(err):
		return http.StatusBadGateway, errHubAuth
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errHubTimeout
	case errors.As(err, &fe):
		return http.StatusBadGateway, errHubUnavailable
	}
	return http.StatusInternalServerError, errInternal
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
