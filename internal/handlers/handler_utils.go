package handlers

import (
	"net/http"
	"strconv"

	"gym_backend/internal/models"
	"gym_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// parseIDParam reads a positive int64 path parameter, responding 400 when it is not one.
func parseIDParam(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		details := "id must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+label+" ID format.", details))
		return 0, false
	}
	return id, true
}

// optionalInt64Query reads an optional int64 query parameter.
func optionalInt64Query(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := utils.StrToInt64(raw)
	if err != nil {
		utils.RespondValidationFailed(c, "query parameter "+name+" must be an integer")
		return nil, false
	}
	return &v, true
}

// optionalStringQuery returns nil for an absent or empty query parameter.
func optionalStringQuery(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

// currentPrincipal returns the caller set by middleware.AuthMiddleware.
func currentPrincipal(c *gin.Context) (*models.Principal, bool) {
	v, exists := c.Get("principal")
	if !exists {
		return nil, false
	}
	p, ok := v.(*models.Principal)
	return p, ok
}
