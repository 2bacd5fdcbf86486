package handlers

import (
	"errors"
	"net/http"

	"gym_backend/internal/services"
	"gym_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// KioskHandler serves the self-service entrance terminal.
type KioskHandler struct {
	kioskService services.KioskService
}

// NewKioskHandler creates a new KioskHandler.
func NewKioskHandler(ks services.KioskService) *KioskHandler {
	return &KioskHandler{kioskService: ks}
}

// Scan evaluates a QR or access-card code.
func (h *KioskHandler) Scan(c *gin.Context) {
	var req services.KioskScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	result, err := h.kioskService.Scan(req.Code)
	h.respond(c, result, err)
}

// ScanNationalID evaluates a typed national ID.
func (h *KioskHandler) ScanNationalID(c *gin.Context) {
	var req services.KioskDNIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	result, err := h.kioskService.ScanNationalID(req.NationalID)
	h.respond(c, result, err)
}

// respond always answers 200 for a decision; DENY is a normal outcome for the kiosk screen.
func (h *KioskHandler) respond(c *gin.Context, result *services.KioskScanResult, err error) {
	if err != nil {
		if errors.Is(err, services.ErrMalformedIdentity) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Unreadable code.", err.Error()))
			return
		}
		utils.LogError(err, "Kiosk: access evaluation failed")
		utils.RespondInternal(c, "Failed to evaluate access.")
		return
	}
	c.JSON(http.StatusOK, result)
}
