package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/service"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/response"
)

// StatsHandler exposes dashboard and audit endpoints.
type StatsHandler struct {
	stats *service.StatsService
	audit *service.AuditService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService, audit *service.AuditService) *StatsHandler {
	return &StatsHandler{stats: stats, audit: audit}
}

// Dashboard godoc
// @Summary Dashboard aggregates
// @Description Report counts by status, urgency and village plus pending registrations
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/dashboard [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	stats, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// AuditLogs godoc
// @Summary Query the audit trail
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Param action query string false "Filter by action"
// @Param userId query string false "Filter by actor"
// @Param reportId query string false "Filter by report"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /stats/audit [get]
func (h *StatsHandler) AuditLogs(c *gin.Context) {
	var filter models.AuditFilter
	filter.Action = c.Query("action")
	filter.UserID = c.Query("userId")
	filter.ReportID = c.Query("reportId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	entries, pagination, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
