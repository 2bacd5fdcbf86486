package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gym_backend/internal/models"
	"gym_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-secret")
	engine := gin.New()
	engine.GET("/protected", AuthMiddleware(), RoleAuthMiddleware(roles...), func(c *gin.Context) {
		p, _ := c.Get(ContextPrincipal)
		c.JSON(http.StatusOK, p)
	})
	return engine
}

func get(engine *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_RejectsMissingOrMalformedHeader(t *testing.T) {
	engine := newEngine(models.RoleStaff)

	assert.Equal(t, http.StatusUnauthorized, get(engine, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "Bearer").Code)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "Bearer not-a-jwt").Code)
}

func TestAuthMiddleware_SetsPrincipal(t *testing.T) {
	engine := newEngine(models.RoleStaff, models.RoleAdmin)
	token, err := utils.GenerateAccessToken(12, "recepcion", models.RoleStaff, time.Minute)
	require.NoError(t, err)

	w := get(engine, "bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":12,"subject":"12","username":"recepcion","role":"Staff"}`, w.Body.String())
}

func TestRoleAuthMiddleware_Forbidden(t *testing.T) {
	engine := newEngine(models.RoleAdmin)
	token, err := utils.GenerateAccessToken(3, "kiosk-1", models.RoleKiosk, time.Minute)
	require.NoError(t, err)

	w := get(engine, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), utils.ErrCodeForbidden)
}

func TestRoleAuthMiddleware_CaseInsensitive(t *testing.T) {
	engine := newEngine("admin")
	token, err := utils.GenerateAccessToken(1, "root", models.RoleAdmin, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(engine, "Bearer "+token).Code)
}
