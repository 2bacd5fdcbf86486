package handlers

import (
	"errors"
	"net/http"

	"gym_backend/internal/services"
	"gym_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MembershipHandler holds the membership service.
type MembershipHandler struct {
	membershipService services.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler.
func NewMembershipHandler(ms services.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: ms}
}

func respondMembershipError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrMembershipNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Membership not found.", err.Error()))
	case errors.Is(err, services.ErrMembershipValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	default:
		utils.RespondInternal(c, fallback)
	}
}

// CreateMembership creates a plan.
func (h *MembershipHandler) CreateMembership(c *gin.Context) {
	var req services.CreateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateMembership: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	m, err := h.membershipService.CreateMembership(req)
	if err != nil {
		utils.LogError(err, "CreateMembership: Error from membershipService.CreateMembership")
		respondMembershipError(c, err, "Failed to create membership.")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GetMemberships lists plans; ?active=true hides inactive ones.
func (h *MembershipHandler) GetMemberships(c *gin.Context) {
	list, err := h.membershipService.GetMemberships(c.Query("active") == "true")
	if err != nil {
		utils.LogError(err, "GetMemberships: Error from membershipService.GetMemberships")
		respondMembershipError(c, err, "Failed to fetch memberships.")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetMembershipByID fetches one plan.
func (h *MembershipHandler) GetMembershipByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "membership")
	if !ok {
		return
	}
	m, err := h.membershipService.GetMembershipByID(id)
	if err != nil {
		respondMembershipError(c, err, "Failed to fetch membership.")
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpdateMembership patches a plan.
func (h *MembershipHandler) UpdateMembership(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "membership")
	if !ok {
		return
	}
	var req services.UpdateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	m, err := h.membershipService.UpdateMembership(id, req)
	if err != nil {
		utils.LogError(err, "UpdateMembership: Error from membershipService.UpdateMembership", map[string]interface{}{"membership_id": id})
		respondMembershipError(c, err, "Failed to update membership.")
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMembership removes a plan.
func (h *MembershipHandler) DeleteMembership(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "membership")
	if !ok {
		return
	}
	if err := h.membershipService.DeleteMembership(id); err != nil {
		utils.LogError(err, "DeleteMembership: Error from membershipService.DeleteMembership", map[string]interface{}{"membership_id": id})
		respondMembershipError(c, err, "Failed to delete membership.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Membership deleted successfully"})
}
