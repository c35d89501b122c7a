package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dealerpulse/dashboard-engine/internal/deal"
	"github.com/dealerpulse/dashboard-engine/internal/provider"
	"github.com/dealerpulse/dashboard-engine/internal/realtime"
	"github.com/dealerpulse/dashboard-engine/internal/timewindow"
)

// Handler handles HTTP requests for the dashboard engine
type Handler struct {
	provider *provider.Provider
	realtime *realtime.Manager
	logger   *zap.Logger
	version  string
}

// NewHandler creates a new HTTP handler
func NewHandler(p *provider.Provider, rt *realtime.Manager, logger *zap.Logger, version string) *Handler {
	return &Handler{
		provider: p,
		realtime: rt,
		logger:   logger,
		version:  version,
	}
}

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		dashboards := api.Group("/dashboards")
		{
			dashboards.GET("/:type", h.GetDashboardData)
			dashboards.GET("/manager/:dealership_id", h.GetManagerDashboard)
			dashboards.POST("/aggregate", h.AggregateDeals)
			dashboards.DELETE("/cache", h.ClearCache)
		}

		rt := api.Group("/realtime")
		{
			rt.GET("/ws", h.realtime.HandleWebSocket)
		}

		system := api.Group("/system")
		{
			system.GET("/health", h.HealthCheck)
			system.GET("/version", h.GetVersion)
		}
	}
}

// GetDashboardData runs the full pipeline for one dashboard type.
func (h *Handler) GetDashboardData(c *gin.Context) {
	dashboardType := provider.DashboardType(c.Param("type"))
	switch dashboardType {
	case provider.DashboardTypeSalesperson, provider.DashboardTypeManager, provider.DashboardTypeDealership:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown dashboard type"})
		return
	}

	opts, err := optionsFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data := h.provider.GetDashboardData(c.Request.Context(), dashboardType, opts)
	c.JSON(http.StatusOK, data)
}

// GetManagerDashboard returns the manager view for a dealership.
func (h *Handler) GetManagerDashboard(c *gin.Context) {
	dealershipID := c.Param("dealership_id")
	if dealershipID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dealership ID required"})
		return
	}

	data := h.provider.GetManagerDashboardData(c.Request.Context(), dealershipID, c.Query("time_period"))
	c.JSON(http.StatusOK, data)
}

// AggregateRequest is the body of the stateless aggregation entry point.
type AggregateRequest struct {
	Deals   []deal.RawRecord `json:"deals"`
	Options provider.Options `json:"options"`
}

// AggregateDeals aggregates a caller-supplied raw record slice without
// touching the record store.
func (h *Handler) AggregateDeals(c *gin.Context) {
	var req AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	data := h.provider.AggregateDealsForDashboard(req.Deals, req.Options)
	c.JSON(http.StatusOK, data)
}

// ClearCache drops every memoized aggregation result.
func (h *Handler) ClearCache(c *gin.Context) {
	h.provider.ClearCache()
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetVersion reports the running build.
func (h *Handler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}

// optionsFromQuery maps the recognized query parameters onto the provider
// option set. An explicit start/end pair takes precedence over a named
// time period.
func optionsFromQuery(c *gin.Context) (provider.Options, error) {
	opts := provider.Options{
		UserRole:      c.Query("user_role"),
		ParticipantID: c.Query("participant_id"),
		TimePeriod:    c.Query("time_period"),
	}

	if raw := c.Query("include_inactive"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return provider.Options{}, err
		}
		opts.IncludeInactive = include
	}

	startRaw, endRaw := c.Query("start"), c.Query("end")
	if startRaw != "" && endRaw != "" {
		start, err := time.Parse("2006-01-02", startRaw)
		if err != nil {
			return provider.Options{}, err
		}
		end, err := time.Parse("2006-01-02", endRaw)
		if err != nil {
			return provider.Options{}, err
		}
		window := timewindow.Range(start, end)
		opts.CustomRange = &window
	}

	return opts, nil
}
