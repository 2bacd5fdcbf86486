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

// AttendanceHandler holds the attendance service.
type AttendanceHandler struct {
	attendanceService services.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(as services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: as}
}

func respondAttendanceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrDuplicateCheckIn):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeDuplicateCheckIn, "Attendance already registered today.", err.Error()))
	case errors.Is(err, services.ErrNoOpenSession):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNoOpenSession, "No open session for today.", err.Error()))
	case errors.Is(err, services.ErrAttendanceNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Attendance not found.", err.Error()))
	case errors.Is(err, services.ErrClientNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
	case errors.Is(err, services.ErrAttendanceValidation), errors.Is(err, services.ErrDateFormat):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	default:
		utils.RespondInternal(c, fallback)
	}
}

// CheckIn opens a session for a client at the front desk.
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req services.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CheckIn: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	channel := models.ChannelManual
	if req.Channel != "" {
		channel = models.AttendanceChannel(req.Channel)
	}

	result, err := h.attendanceService.CheckIn(req.ClientID, channel)
	if err != nil {
		utils.LogError(err, "CheckIn: Error from attendanceService.CheckIn", map[string]interface{}{"client_id": req.ClientID})
		respondAttendanceError(c, err, "Failed to register check-in.")
		return
	}
	status := http.StatusCreated
	if result.ReEntry {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// CheckOut closes today's open session, by attendance id or by client id.
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req services.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CheckOut: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.attendanceService.CheckOut(req)
	if err != nil {
		utils.LogError(err, "CheckOut: Error from attendanceService.CheckOut")
		respondAttendanceError(c, err, "Failed to register check-out.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAttendances lists sessions filtered by client, date and open state.
func (h *AttendanceHandler) GetAttendances(c *gin.Context) {
	clientID, ok := optionalInt64Query(c, "client_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	filters := models.AttendanceFilters{
		ClientID: clientID,
		Date:     optionalStringQuery(c, "date"),
		OpenOnly: c.Query("open_only") == "true",
		Limit:    limit,
	}

	list, err := h.attendanceService.GetAttendances(filters)
	if err != nil {
		utils.LogError(err, "GetAttendances: Error from attendanceService.GetAttendances")
		respondAttendanceError(c, err, "Failed to fetch attendances.")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetAttendanceByID fetches one session.
func (h *AttendanceHandler) GetAttendanceByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "attendance")
	if !ok {
		return
	}
	a, err := h.attendanceService.GetAttendanceByID(id)
	if err != nil {
		respondAttendanceError(c, err, "Failed to fetch attendance.")
		return
	}
	c.JSON(http.StatusOK, a)
}

// UpdateAttendance corrects the channel of a session.
func (h *AttendanceHandler) UpdateAttendance(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "attendance")
	if !ok {
		return
	}
	var req services.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	a, err := h.attendanceService.UpdateAttendance(id, req)
	if err != nil {
		utils.LogError(err, "UpdateAttendance: Error from attendanceService.UpdateAttendance", map[string]interface{}{"attendance_id": id})
		respondAttendanceError(c, err, "Failed to update attendance.")
		return
	}
	c.JSON(http.StatusOK, a)
}

// GetOpenSessions lists today's open sessions with elapsed time.
func (h *AttendanceHandler) GetOpenSessions(c *gin.Context) {
	clientID, ok := optionalInt64Query(c, "client_id")
	if !ok {
		return
	}
	sessions, err := h.attendanceService.OpenSessions(clientID)
	if err != nil {
		utils.LogError(err, "GetOpenSessions: Error from attendanceService.OpenSessions")
		respondAttendanceError(c, err, "Failed to fetch open sessions.")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetOccupancy returns the current occupancy snapshot.
func (h *AttendanceHandler) GetOccupancy(c *gin.Context) {
	snapshot, err := h.attendanceService.CurrentOccupancy()
	if err != nil {
		utils.LogError(err, "GetOccupancy: Error from attendanceService.CurrentOccupancy")
		respondAttendanceError(c, err, "Failed to compute occupancy.")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetTodayStats returns today's visit statistics.
func (h *AttendanceHandler) GetTodayStats(c *gin.Context) {
	stats, err := h.attendanceService.TodayStats()
	if err != nil {
		utils.LogError(err, "GetTodayStats: Error from attendanceService.TodayStats")
		respondAttendanceError(c, err, "Failed to compute today's stats.")
		return
	}
	c.JSON(http.StatusOK, stats)
}
