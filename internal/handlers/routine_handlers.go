package handlers

import (
	"errors"
	"net/http"

	"gym_backend/internal/services"
	"gym_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RoutineHandler serves exercises and routine templates.
type RoutineHandler struct {
	routineService services.RoutineService
}

// NewRoutineHandler creates a new RoutineHandler.
func NewRoutineHandler(rs services.RoutineService) *RoutineHandler {
	return &RoutineHandler{routineService: rs}
}

func respondRoutineError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrTemplateNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Routine template not found.", err.Error()))
	case errors.Is(err, services.ErrRoutineNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Routine not found.", err.Error()))
	case errors.Is(err, services.ErrExerciseNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Exercise not found.", err.Error()))
	case errors.Is(err, services.ErrRoutineExerciseNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Exercise line not found.", err.Error()))
	case errors.Is(err, services.ErrRoutineValidation), errors.Is(err, services.ErrDateFormat):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.RespondInternal(c, fallback)
	}
}

// CreateExercise adds an exercise to the catalogue.
func (h *RoutineHandler) CreateExercise(c *gin.Context) {
	var req services.CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateExercise: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	e, err := h.routineService.CreateExercise(req)
	if err != nil {
		utils.LogError(err, "CreateExercise: Error from routineService.CreateExercise")
		respondRoutineError(c, err, "Failed to create exercise.")
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GetExercises lists the catalogue, optionally filtered by ?search=.
func (h *RoutineHandler) GetExercises(c *gin.Context) {
	list, err := h.routineService.GetExercises(optionalStringQuery(c, "search"))
	if err != nil {
		utils.LogError(err, "GetExercises: Error from routineService.GetExercises")
		respondRoutineError(c, err, "Failed to fetch exercises.")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetExerciseByID fetches one catalogue entry.
func (h *RoutineHandler) GetExerciseByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "exercise")
	if !ok {
		return
	}
	e, err := h.routineService.GetExerciseByID(id)
	if err != nil {
		respondRoutineError(c, err, "Failed to fetch exercise.")
		return
	}
	c.JSON(http.StatusOK, e)
}

// UpdateExercise edits a catalogue entry.
func (h *RoutineHandler) UpdateExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "exercise")
	if !ok {
		return
	}
	var req services.UpdateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	e, err := h.routineService.UpdateExercise(id, req)
	if err != nil {
		utils.LogError(err, "UpdateExercise: Error from routineService.UpdateExercise", map[string]interface{}{"exercise_id": id})
		respondRoutineError(c, err, "Failed to update exercise.")
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteExercise removes a catalogue entry.
func (h *RoutineHandler) DeleteExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "exercise")
	if !ok {
		return
	}
	if err := h.routineService.DeleteExercise(id); err != nil {
		utils.LogError(err, "DeleteExercise: Error from routineService.DeleteExercise", map[string]interface{}{"exercise_id": id})
		respondRoutineError(c, err, "Failed to delete exercise.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exercise deleted successfully"})
}

// CreateTemplate creates a routine template.
func (h *RoutineHandler) CreateTemplate(c *gin.Context) {
	var req services.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateTemplate: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if req.CreatedBy == nil {
		if p, ok := currentPrincipal(c); ok && p.Username != "" {
			req.CreatedBy = &p.Username
		}
	}
	t, err := h.routineService.CreateTemplate(req)
	if err != nil {
		utils.LogError(err, "CreateTemplate: Error from routineService.CreateTemplate")
		respondRoutineError(c, err, "Failed to create routine template.")
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GetTemplates lists routine templates.
func (h *RoutineHandler) GetTemplates(c *gin.Context) {
	list, err := h.routineService.GetTemplates(optionalStringQuery(c, "search"))
	if err != nil {
		utils.LogError(err, "GetTemplates: Error from routineService.GetTemplates")
		respondRoutineError(c, err, "Failed to fetch routine templates.")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetTemplateByID fetches one template with its exercises.
func (h *RoutineHandler) GetTemplateByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}
	t, err := h.routineService.GetTemplateByID(id)
	if err != nil {
		respondRoutineError(c, err, "Failed to fetch routine template.")
		return
	}
	c.JSON(http.StatusOK, t)
}

// UpdateTemplate renames or re-describes a template.
func (h *RoutineHandler) UpdateTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}
	var req services.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	t, err := h.routineService.UpdateTemplate(id, req)
	if err != nil {
		utils.LogError(err, "UpdateTemplate: Error from routineService.UpdateTemplate", map[string]interface{}{"template_id": id})
		respondRoutineError(c, err, "Failed to update routine template.")
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTemplate removes a template. Routines already assigned keep their copy.
func (h *RoutineHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}
	if err := h.routineService.DeleteTemplate(id); err != nil {
		utils.LogError(err, "DeleteTemplate: Error from routineService.DeleteTemplate", map[string]interface{}{"template_id": id})
		respondRoutineError(c, err, "Failed to delete routine template.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Routine template deleted successfully"})
}

// AddTemplateExercise appends an exercise line to a template.
func (h *RoutineHandler) AddTemplateExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}
	var req services.AddTemplateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	t, err := h.routineService.AddTemplateExercise(id, req)
	if err != nil {
		utils.LogError(err, "AddTemplateExercise: Error from routineService.AddTemplateExercise", map[string]interface{}{"template_id": id})
		respondRoutineError(c, err, "Failed to add exercise to template.")
		return
	}
	c.JSON(http.StatusCreated, t)
}

// DeleteTemplateExercise removes a line from a template.
func (h *RoutineHandler) DeleteTemplateExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId", "exercise line")
	if !ok {
		return
	}
	if err := h.routineService.DeleteTemplateExercise(id, lineID); err != nil {
		utils.LogError(err, "DeleteTemplateExercise: Error from routineService.DeleteTemplateExercise", map[string]interface{}{"template_id": id, "line_id": lineID})
		respondRoutineError(c, err, "Failed to delete template exercise.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template exercise deleted successfully"})
}

// GetRoutineByID fetches a client routine with its exercises.
func (h *RoutineHandler) GetRoutineByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "routine")
	if !ok {
		return
	}
	rt, err := h.routineService.GetRoutineByID(id)
	if err != nil {
		respondRoutineError(c, err, "Failed to fetch routine.")
		return
	}
	c.JSON(http.StatusOK, rt)
}

// UpdateRoutine edits a client routine.
func (h *RoutineHandler) UpdateRoutine(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "routine")
	if !ok {
		return
	}
	var req services.UpdateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	rt, err := h.routineService.UpdateRoutine(id, req)
	if err != nil {
		utils.LogError(err, "UpdateRoutine: Error from routineService.UpdateRoutine", map[string]interface{}{"routine_id": id})
		respondRoutineError(c, err, "Failed to update routine.")
		return
	}
	c.JSON(http.StatusOK, rt)
}

// DeleteRoutine removes a client routine and its exercises.
func (h *RoutineHandler) DeleteRoutine(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "routine")
	if !ok {
		return
	}
	if err := h.routineService.DeleteRoutine(id); err != nil {
		utils.LogError(err, "DeleteRoutine: Error from routineService.DeleteRoutine", map[string]interface{}{"routine_id": id})
		respondRoutineError(c, err, "Failed to delete routine.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Routine deleted successfully"})
}

// AddRoutineExercise appends an exercise line to a client routine.
func (h *RoutineHandler) AddRoutineExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "routine")
	if !ok {
		return
	}
	var req services.RoutineExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	line, err := h.routineService.AddRoutineExercise(id, req)
	if err != nil {
		utils.LogError(err, "AddRoutineExercise: Error from routineService.AddRoutineExercise", map[string]interface{}{"routine_id": id})
		respondRoutineError(c, err, "Failed to add exercise to routine.")
		return
	}
	c.JSON(http.StatusCreated, line)
}

// UpdateRoutineExercise edits one line of a client routine.
func (h *RoutineHandler) UpdateRoutineExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "routine")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId", "exercise line")
	if !ok {
		return
	}
	var req services.RoutineExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	line, err := h.routineService.UpdateRoutineExercise(id, lineID, req)
	if err != nil {
		respondRoutineError(c, err, "Failed to update routine exercise.")
		return
	}
	c.JSON(http.StatusOK, line)
}

// DeleteRoutineExercise removes one line of a client routine.
func (h *RoutineHandler) DeleteRoutineExercise(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "routine")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "lineId", "exercise line")
	if !ok {
		return
	}
	if err := h.routineService.DeleteRoutineExercise(id, lineID); err != nil {
		respondRoutineError(c, err, "Failed to delete routine exercise.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Routine exercise deleted successfully"})
}
