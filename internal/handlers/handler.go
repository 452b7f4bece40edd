package handlers

import (
	"neohub_monitor/internal/logger"
	"neohub_monitor/internal/metrics"
	"neohub_monitor/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// WithMetrics enables request instrumentation and the /metrics endpoint.
func (h *Handler) WithMetrics(m *metrics.Metrics) *Handler {
	h.metrics = m
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if h.metrics != nil {
		router.Use(h.metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Overview stream; browsers pass the token as ?access_token=
	router.GET("/ws", h.userIdMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerFleetRoutes(api)
		h.registerControlRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerFleetRoutes(api *gin.RouterGroup) {
	api.GET("/snapshot", h.getSnapshot)
	api.GET("/overview", h.getOverview)
	api.GET("/matrix", h.getMatrix)
	api.GET("/devices", h.getDevices)
	api.GET("/alerts", h.getAlerts)
	api.GET("/export", h.getExport)
	api.POST("/poll", h.triggerPoll)
}

func (h *Handler) registerControlRoutes(api *gin.RouterGroup) {
	zones := api.Group("/zones/:device/:zone")
	{
		// Body example: {"temperature":21.5}
		zones.POST("/temperature", h.setTemperature)
		// Body example: {"mode":"Heat"}
		zones.POST("/mode", h.setMode)
		zones.GET("/history", h.getHistory)
	}
	api.POST("/devices/:device/away", h.setAway)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
