package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gym_backend/internal/models"
	"gym_backend/internal/services"
	"gym_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ClientHandler holds the client and routine services.
type ClientHandler struct {
	clientService  services.ClientService
	routineService services.RoutineService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(cs services.ClientService, rs services.RoutineService) *ClientHandler {
	return &ClientHandler{clientService: cs, routineService: rs}
}

// respondClientError maps client service errors to API errors.
func respondClientError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrClientNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
	case errors.Is(err, services.ErrMembershipNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Membership not found.", err.Error()))
	case errors.Is(err, services.ErrAccessCardNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Access card not found.", err.Error()))
	case errors.Is(err, services.ErrTemplateNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Routine template not found.", err.Error()))
	case errors.Is(err, services.ErrNationalIDExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "National ID already registered.", err.Error()))
	case errors.Is(err, services.ErrEmailExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already exists.", err.Error()))
	case errors.Is(err, services.ErrClientInUse):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Client has attendance history and cannot be deleted.", err.Error()))
	case errors.Is(err, services.ErrClientValidation), errors.Is(err, services.ErrDateFormat), errors.Is(err, services.ErrRoutineValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	default:
		utils.RespondInternal(c, fallback)
	}
}

// CreateClient handles the creation of a new client.
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req services.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateClient: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	client, err := h.clientService.CreateClient(req)
	if err != nil {
		utils.LogError(err, "CreateClient: Error from clientService.CreateClient")
		respondClientError(c, err, "Failed to create client.")
		return
	}
	c.JSON(http.StatusCreated, client)
}

// GetClients handles fetching clients with pagination, search and status filter.
func (h *ClientHandler) GetClients(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	filters := models.ClientFilters{
		Search:   optionalStringQuery(c, "search"),
		Status:   optionalStringQuery(c, "status"),
		Page:     page,
		PageSize: pageSize,
	}

	clients, totalCount, err := h.clientService.GetClients(filters)
	if err != nil {
		utils.LogError(err, "GetClients: Error from clientService.GetClients")
		respondClientError(c, err, "Failed to fetch clients.")
		return
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      clients,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetClientByID handles fetching a single client by ID.
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	client, err := h.clientService.GetClientByID(clientID)
	if err != nil {
		utils.LogError(err, "GetClientByID: Error from clientService.GetClientByID", map[string]interface{}{"client_id": clientID})
		respondClientError(c, err, "Failed to fetch client.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClient handles updating a client.
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	var req services.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateClient: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	client, err := h.clientService.UpdateClient(clientID, req)
	if err != nil {
		utils.LogError(err, "UpdateClient: Error from clientService.UpdateClient", map[string]interface{}{"client_id": clientID})
		respondClientError(c, err, "Failed to update client.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient handles deleting a client.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	if err := h.clientService.DeleteClient(clientID); err != nil {
		utils.LogError(err, "DeleteClient: Error from clientService.DeleteClient", map[string]interface{}{"client_id": clientID})
		respondClientError(c, err, "Failed to delete client.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

// CheckNationalID reports whether a national ID is already registered.
func (h *ClientHandler) CheckNationalID(c *gin.Context) {
	excludeID, ok := optionalInt64Query(c, "exclude_id")
	if !ok {
		return
	}
	result, err := h.clientService.CheckNationalID(c.Query("national_id"), excludeID)
	if err != nil {
		respondClientError(c, err, "Failed to check national ID.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMembershipSummary returns the client's plan with days remaining.
func (h *ClientHandler) GetMembershipSummary(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	summary, err := h.clientService.GetMembershipSummary(clientID)
	if err != nil {
		utils.LogError(err, "GetMembershipSummary: Error from clientService", map[string]interface{}{"client_id": clientID})
		respondClientError(c, err, "Failed to fetch membership.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RenewMembership restarts the client's plan today.
func (h *ClientHandler) RenewMembership(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	var req services.RenewMembershipRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
			return
		}
	}
	client, err := h.clientService.RenewMembership(clientID, req)
	if err != nil {
		utils.LogError(err, "RenewMembership: Error from clientService", map[string]interface{}{"client_id": clientID})
		respondClientError(c, err, "Failed to renew membership.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// RegisterPayment extends the client's plan.
func (h *ClientHandler) RegisterPayment(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	var req services.RegisterPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
			return
		}
	}
	client, err := h.clientService.RegisterPayment(clientID, req)
	if err != nil {
		utils.LogError(err, "RegisterPayment: Error from clientService", map[string]interface{}{"client_id": clientID})
		respondClientError(c, err, "Failed to register payment.")
		return
	}
	c.JSON(http.StatusOK, client)
}

// GetAccessCard returns the client's access card.
func (h *ClientHandler) GetAccessCard(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	card, err := h.clientService.GetAccessCard(clientID)
	if err != nil {
		respondClientError(c, err, "Failed to fetch access card.")
		return
	}
	c.JSON(http.StatusOK, card)
}

// IssueAccessCard issues (or re-issues) the client's access card.
func (h *ClientHandler) IssueAccessCard(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	card, err := h.clientService.IssueAccessCard(clientID)
	if err != nil {
		utils.LogError(err, "IssueAccessCard: Error from clientService", map[string]interface{}{"client_id": clientID})
		respondClientError(c, err, "Failed to issue access card.")
		return
	}
	c.JSON(http.StatusCreated, card)
}

// GetClientRoutines lists the client's routines.
func (h *ClientHandler) GetClientRoutines(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	routines, err := h.routineService.GetClientRoutines(clientID)
	if err != nil {
		respondClientError(c, err, "Failed to fetch routines.")
		return
	}
	c.JSON(http.StatusOK, routines)
}

// AssignRoutine copies a template into a new routine for the client.
func (h *ClientHandler) AssignRoutine(c *gin.Context) {
	clientID, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}
	var req services.AssignRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	routine, err := h.routineService.AssignTemplate(clientID, req)
	if err != nil {
		utils.LogError(err, "AssignRoutine: Error from routineService.AssignTemplate", map[string]interface{}{"client_id": clientID})
		respondClientError(c, err, "Failed to assign routine.")
		return
	}
	c.JSON(http.StatusCreated, routine)
}
