package handlers

import (
	"errors"
	"net/http"

	"gym_backend/internal/services"
	"gym_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// EventHandler serves the event calendar and its attendees.
type EventHandler struct {
	eventService services.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(es services.EventService) *EventHandler {
	return &EventHandler{eventService: es}
}

func respondEventError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrEventNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
	case errors.Is(err, services.ErrClientNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
	case errors.Is(err, services.ErrAttendeeNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client is not registered for this event.", err.Error()))
	case errors.Is(err, services.ErrEventFull):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeEventFull, "Event has no free spots.", err.Error()))
	case errors.Is(err, services.ErrAlreadyRegistered):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeAlreadyRegistered, "Client is already registered for this event.", err.Error()))
	case errors.Is(err, services.ErrEventValidation), errors.Is(err, services.ErrDateFormat):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.RespondInternal(c, fallback)
	}
}

// CreateEvent schedules a new event.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateEvent: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	event, err := h.eventService.CreateEvent(req)
	if err != nil {
		utils.LogError(err, "CreateEvent: Error from eventService.CreateEvent")
		respondEventError(c, err, "Failed to create event.")
		return
	}
	c.JSON(http.StatusCreated, event)
}

// GetEvents lists events, filtered by ?from=, ?to= and ?type=.
func (h *EventHandler) GetEvents(c *gin.Context) {
	events, err := h.eventService.GetEvents(services.EventQuery{
		From: c.Query("from"),
		To:   c.Query("to"),
		Type: optionalStringQuery(c, "type"),
	})
	if err != nil {
		utils.LogError(err, "GetEvents: Error from eventService.GetEvents")
		respondEventError(c, err, "Failed to fetch events.")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEventByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}
	event, err := h.eventService.GetEventByID(id)
	if err != nil {
		respondEventError(c, err, "Failed to fetch event.")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}
	var req services.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	event, err := h.eventService.UpdateEvent(id, req)
	if err != nil {
		utils.LogError(err, "UpdateEvent: Error from eventService.UpdateEvent", map[string]interface{}{"event_id": id})
		respondEventError(c, err, "Failed to update event.")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}
	if err := h.eventService.DeleteEvent(id); err != nil {
		utils.LogError(err, "DeleteEvent: Error from eventService.DeleteEvent", map[string]interface{}{"event_id": id})
		respondEventError(c, err, "Failed to delete event.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

// RegisterAttendee signs a client up; 409 when the event is full or the client is already in.
func (h *EventHandler) RegisterAttendee(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}
	var req services.RegisterAttendeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	reg, err := h.eventService.RegisterAttendee(id, req)
	if err != nil {
		utils.LogError(err, "RegisterAttendee: Error from eventService.RegisterAttendee", map[string]interface{}{"event_id": id, "client_id": req.ClientID})
		respondEventError(c, err, "Failed to register attendee.")
		return
	}
	c.JSON(http.StatusCreated, reg)
}

func (h *EventHandler) GetAttendees(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}
	list, err := h.eventService.GetAttendees(id)
	if err != nil {
		respondEventError(c, err, "Failed to fetch attendees.")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *EventHandler) RemoveAttendee(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}
	clientID, ok := parseIDParam(c, "clientId", "client")
	if !ok {
		return
	}
	if err := h.eventService.RemoveAttendee(id, clientID); err != nil {
		utils.LogError(err, "RemoveAttendee: Error from eventService.RemoveAttendee", map[string]interface{}{"event_id": id, "client_id": clientID})
		respondEventError(c, err, "Failed to remove attendee.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendee removed successfully"})
}
