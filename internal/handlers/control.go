package handlers

import (
	"net/http"

	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/models"

	"github.com/gin-gonic/gin"
)

// SetTemperatureRequest is the setpoint payload.
type SetTemperatureRequest struct {
	// Target temperature in °C
	Temperature *float64 `json:"temperature" binding:"required" example:"21.5"`
}

// SetModeRequest is the zone mode payload.
type SetModeRequest struct {
	// Allowed: Heat, Cool, Vent
	Mode string `json:"mode" binding:"required" example:"Heat"`
}

// SetAwayRequest toggles away mode for a whole device.
type SetAwayRequest struct {
	Away *bool `json:"away" binding:"required" example:"true"`
}

func (h *Handler) respondAck(c *gin.Context, ack hub.Ack) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusAccepted,
		"ack":    ack,
	})
}

// @Summary      Set zone temperature
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        device  path  string                 true  "Device id"
// @Param        zone    path  string                 true  "Zone name"
// @Param        body    body  SetTemperatureRequest  true  "Setpoint"
// @Success      200  {object}  map[string]interface{}  "status, ack"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string  "rejected by the hub"
// @Failure      502  {object}  map[string]string
// @Failure      504  {object}  map[string]string
// @Router       /api/v1/zones/{device}/{zone}/temperature [post]
// @Security     BearerAuth
func (h *Handler) setTemperature(c *gin.Context) {
	var req SetTemperatureRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	device, zone := c.Param("device"), c.Param("zone")
	ack, err := h.services.Control.SetTemperature(c.Request.Context(), device, zone, *req.Temperature)
	if err != nil {
		h.respondError(c, "set_temperature_failed", err, "device_id", device, "zone", zone)
		return
	}
	h.respondAck(c, ack)
}

// @Summary      Set zone mode
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        device  path  string          true  "Device id"
// @Param        zone    path  string          true  "Zone name"
// @Param        body    body  SetModeRequest  true  "Mode"
// @Success      200  {object}  map[string]interface{}  "status, ack"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      504  {object}  map[string]string
// @Router       /api/v1/zones/{device}/{zone}/mode [post]
// @Security     BearerAuth
func (h *Handler) setMode(c *gin.Context) {
	var req SetModeRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	device, zone := c.Param("device"), c.Param("zone")
	ack, err := h.services.Control.SetMode(c.Request.Context(), device, zone, models.HeatMode(req.Mode))
	if err != nil {
		h.respondError(c, "set_mode_failed", err, "device_id", device, "zone", zone, "mode", req.Mode)
		return
	}
	h.respondAck(c, ack)
}

// @Summary      Set away mode
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        device  path  string          true  "Device id"
// @Param        body    body  SetAwayRequest  true  "Away flag"
// @Success      200  {object}  map[string]interface{}  "status, ack"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      504  {object}  map[string]string
// @Router       /api/v1/devices/{device}/away [post]
// @Security     BearerAuth
func (h *Handler) setAway(c *gin.Context) {
	var req SetAwayRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	device := c.Param("device")
	ack, err := h.services.Control.SetAway(c.Request.Context(), device, *req.Away)
	if err != nil {
		h.respondError(c, "set_away_failed", err, "device_id", device)
		return
	}
	h.respondAck(c, ack)
}

// @Summary      Zone temperature history
// @Tags         control
// @Produce      json
// @Param        device  path   string  true   "Device id"
// @Param        zone    path   string  true   "Zone name"
// @Param        from    query  string  false  "Start of range"
// @Param        to      query  string  false  "End of range. Date-only treated as end of day."
// @Success      200  {object}  map[string]interface{}  "count, points"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/zones/{device}/{zone}/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	from, to, ok := parseRangeOrBadRequest(c)
	if !ok {
		return
	}
	device, zone := c.Param("device"), c.Param("zone")
	points, err := h.services.Control.History(c.Request.Context(), device, zone, hub.Range{From: from, To: to})
	if err != nil {
		h.respondError(c, "zone_history_failed", err, "device_id", device, "zone", zone)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(points),
		"points": points,
	})
}
