package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"neohub_monitor/internal/models"
	"neohub_monitor/internal/service"
	"neohub_monitor/internal/view"

	"github.com/gin-gonic/gin"
)

// @Summary      Current snapshot
// @Description  Last committed fleet snapshot. Empty before the first poll.
// @Tags         fleet
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/snapshot [get]
// @Security     BearerAuth
func (h *Handler) getSnapshot(c *gin.Context) {
	snap, err := h.services.Monitoring.Snapshot(c.Request.Context())
	if err != nil {
		h.respondError(c, "snapshot_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Fleet overview
// @Tags         fleet
// @Produce      json
// @Success      200  {object}  view.Overview
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/overview [get]
// @Security     BearerAuth
func (h *Handler) getOverview(c *gin.Context) {
	ov, err := h.services.Monitoring.Overview(c.Request.Context())
	if err != nil {
		h.respondError(c, "overview_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// @Summary      Zone matrix
// @Description  One row per zone. Filters combine with AND; comma separated values within a filter combine with OR.
// @Tags         fleet
// @Produce      json
// @Param        sort       query  string  false  "Sort key"  Enums(device,device_name,zone,type,actual_temp,set_temp,mode,status,humidity)
// @Param        desc       query  bool    false  "Descending order"
// @Param        device     query  string  false  "Device ids"
// @Param        type       query  string  false  "Zone kinds"  Enums(Thermostat,Socket)
// @Param        indicator  query  string  false  "Indicators"
// @Param        online     query  bool    false  "Only online devices"
// @Param        q          query  string  false  "Search in device and zone names"
// @Success      200  {object}  map[string]interface{}  "count, rows"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/matrix [get]
// @Security     BearerAuth
func (h *Handler) getMatrix(c *gin.Context) {
	q, err := parseMatrixQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, err := h.services.Monitoring.Matrix(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, "matrix_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(rows),
		"rows":  rows,
	})
}

// @Summary      Device summaries
// @Tags         fleet
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) getDevices(c *gin.Context) {
	devices, err := h.services.Monitoring.Devices(c.Request.Context())
	if err != nil {
		h.respondError(c, "devices_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(devices),
		"devices": devices,
	})
}

// @Summary      List alerts
// @Description  state=open reads live alerts; cleared and all read the persisted history. from/to bound first_seen.
// @Tags         alerts
// @Produce      json
// @Param        state      query  string  false  "Alert scope"  Enums(open,cleared,all)
// @Param        indicator  query  string  false  "Indicator"  Enums(Heating,WindowOpen,LowBattery,InvalidReading)
// @Param        device     query  string  false  "Device id"
// @Param        from       query  string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to         query  string  false  "End of range. Date-only treated as end of day."
// @Success      200  {object}  map[string]interface{}  "count, alerts"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/alerts [get]
// @Security     BearerAuth
func (h *Handler) getAlerts(c *gin.Context) {
	from, to, ok := parseRangeOrBadRequest(c)
	if !ok {
		return
	}
	q := service.AlertQuery{
		Scope:    c.Query("state"),
		DeviceID: strings.TrimSpace(c.Query("device")),
		From:     from,
		To:       to,
	}
	if s := c.Query("indicator"); s != "" {
		ind, err := models.ParseIndicator(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q.Indicator = ind
	}

	alerts, err := h.services.Monitoring.Alerts(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, "alerts_list_failed", err, "state", q.Scope)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// @Summary      Export zones
// @Description  Field-selected CSV or XLSX export of the matrix. Accepts the matrix filters.
// @Tags         fleet
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        format  query  string  false  "Export format"  Enums(csv,xlsx)
// @Param        fields  query  string  false  "Comma separated field list; empty exports every field"
// @Success      200  {file}    file
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/export [get]
// @Security     BearerAuth
func (h *Handler) getExport(c *gin.Context) {
	mq, err := parseMatrixQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format := c.DefaultQuery("format", "csv")
	res, err := h.services.Exporter.Export(c.Request.Context(), service.ExportRequest{
		Format: format,
		Fields: c.Query("fields"),
		Matrix: mq,
	})
	if err != nil {
		h.respondError(c, "export_failed", err, "format", format)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	c.Data(http.StatusOK, res.ContentType, res.Body)
}

// @Summary      Poll now
// @Description  Runs one poll cycle immediately and returns its report. Waits for a running cycle first.
// @Tags         fleet
// @Produce      json
// @Success      200  {object}  models.CycleReport
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]interface{}  "error, cycle"
// @Router       /api/v1/poll [post]
// @Security     BearerAuth
func (h *Handler) triggerPoll(c *gin.Context) {
	// the cycle commits state; a client hanging up must not cut it short
	ctx := context.WithoutCancel(c.Request.Context())
	report := h.services.Poller.RunCycle(ctx)
	if report.Aborted() {
		if h.log != nil {
			h.log.Infow("manual_poll_aborted", "err", report.Error)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": report.Error, "cycle": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

// parseMatrixQuery reads sort, desc, device, type, indicator, online and q.
func parseMatrixQuery(c *gin.Context) (service.MatrixQuery, error) {
	var q service.MatrixQuery

	key, err := view.ParseSortKey(c.Query("sort"))
	if err != nil {
		return q, err
	}
	q.Order.Key = key
	if s := c.Query("desc"); s != "" {
		desc, err := strconv.ParseBool(s)
		if err != nil {
			return q, fmt.Errorf("invalid 'desc' value %q", s)
		}
		q.Order.Desc = desc
	}

	q.Filter.DeviceIDs = listParam(c, "device")
	for _, s := range listParam(c, "type") {
		typ, ok := parseDeviceType(s)
		if !ok {
			return q, fmt.Errorf("unknown zone type %q", s)
		}
		q.Filter.Types = append(q.Filter.Types, typ)
	}
	for _, s := range listParam(c, "indicator") {
		ind, err := models.ParseIndicator(s)
		if err != nil {
			return q, err
		}
		q.Filter.Indicators = append(q.Filter.Indicators, ind)
	}
	if s := c.Query("online"); s != "" {
		online, err := strconv.ParseBool(s)
		if err != nil {
			return q, fmt.Errorf("invalid 'online' value %q", s)
		}
		q.Filter.OnlineOnly = online
	}
	q.Filter.Query = c.Query("q")
	return q, nil
}

// listParam accepts both ?k=a,b and ?k=a&k=b.
func listParam(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseDeviceType(s string) (models.DeviceType, bool) {
	for _, t := range []models.DeviceType{models.DeviceThermostat, models.DeviceSocket} {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}
