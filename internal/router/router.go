package router

import (
	"net/http"

	"gym_backend/internal/handlers"
	"gym_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler the API routes to.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Client     *handlers.ClientHandler
	Membership *handlers.MembershipHandler
	Attendance *handlers.AttendanceHandler
	Kiosk      *handlers.KioskHandler
	Stats      *handlers.StatsHandler
	Settings   *handlers.SettingsHandler
	Routine    *handlers.RoutineHandler
	Event      *handlers.EventHandler
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, h Handlers) {
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), h.Auth)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), h.Auth)
		SetupClientRoutes(authenticated, h.Client)
		SetupMembershipRoutes(authenticated, h.Membership)
		SetupAttendanceRoutes(authenticated, h.Attendance)
		SetupRoutineRoutes(authenticated, h.Routine)
		SetupEventRoutes(authenticated, h.Event)
		SetupDashboardRoutes(authenticated, h.Stats)
		SetupSettingsRoutes(authenticated, h.Settings)
		SetupKioskRoutes(authenticated, h.Kiosk)
	}
}
