package handlers

import (
	"net/http"

	"gym_backend/internal/services"
	"gym_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves the dashboard.
type StatsHandler struct {
	statsService services.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(ss services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: ss}
}

// GetDashboardStats returns member counts and expiring memberships.
func (h *StatsHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.statsService.GetDashboardStats()
	if err != nil {
		utils.LogError(err, "GetDashboardStats: Error from statsService.GetDashboardStats")
		utils.RespondInternal(c, "Failed to compute dashboard stats.")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetPaymentsDashboard returns paid-up, due and lapsed clients.
func (h *StatsHandler) GetPaymentsDashboard(c *gin.Context) {
	board, err := h.statsService.GetPaymentsDashboard()
	if err != nil {
		utils.LogError(err, "GetPaymentsDashboard: Error from statsService.GetPaymentsDashboard")
		utils.RespondInternal(c, "Failed to build the payments dashboard.")
		return
	}
	c.JSON(http.StatusOK, board)
}
