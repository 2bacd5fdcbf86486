package handlers

import (
	"errors"
	"net/http"

	"gym_backend/internal/services"
	"gym_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingsHandler holds the settings service.
type SettingsHandler struct {
	settingsService services.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(ss services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: ss}
}

// GetSettings returns capacity, average stay, alert threshold and opening hours.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings()
	if err != nil {
		utils.LogError(err, "GetSettings: Error from settingsService.GetSettings")
		utils.RespondInternal(c, "Failed to fetch settings.")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings patches the gym settings.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateSettings: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	settings, err := h.settingsService.UpdateSettings(req)
	if err != nil {
		utils.LogError(err, "UpdateSettings: Error from settingsService.UpdateSettings")
		if errors.Is(err, services.ErrSettingsValidation) {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		utils.RespondInternal(c, "Failed to update settings.")
		return
	}
	c.JSON(http.StatusOK, settings)
}
