package router

import (
	"gym_backend/internal/handlers"
	"gym_backend/internal/middleware"
	"gym_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes sets up the login route.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

// SetupAuthenticatedAuthRoutes sets up the routes that need a valid token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetMe)
	group.POST("/register", middleware.RoleAuthMiddleware(models.RoleAdmin), authHandler.RegisterUser)
}

// SetupClientRoutes sets up the client routes.
func SetupClientRoutes(authenticatedGroup *gin.RouterGroup, clientHandler *handlers.ClientHandler) {
	clientRoutes := authenticatedGroup.Group("/clients")
	clientRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		clientRoutes.POST("", clientHandler.CreateClient)
		clientRoutes.GET("", clientHandler.GetClients)
		clientRoutes.GET("/national-id/check", clientHandler.CheckNationalID)
		clientRoutes.GET("/:id", clientHandler.GetClientByID)
		clientRoutes.PUT("/:id", clientHandler.UpdateClient)
		clientRoutes.DELETE("/:id", clientHandler.DeleteClient)
		clientRoutes.GET("/:id/membership", clientHandler.GetMembershipSummary)
		clientRoutes.POST("/:id/renew", clientHandler.RenewMembership)
		clientRoutes.POST("/:id/payment", clientHandler.RegisterPayment)
		clientRoutes.GET("/:id/access-card", clientHandler.GetAccessCard)
		clientRoutes.POST("/:id/access-card", clientHandler.IssueAccessCard)
		clientRoutes.GET("/:id/routines", clientHandler.GetClientRoutines)
		clientRoutes.POST("/:id/routines", clientHandler.AssignRoutine)
	}
}

// SetupMembershipRoutes sets up the membership plan routes. Writes are Admin only.
func SetupMembershipRoutes(authenticatedGroup *gin.RouterGroup, membershipHandler *handlers.MembershipHandler) {
	readRoles := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff)
	authenticatedGroup.GET("/memberships", readRoles, membershipHandler.GetMemberships)
	authenticatedGroup.GET("/memberships/:id", readRoles, membershipHandler.GetMembershipByID)

	membershipWriteRoutes := authenticatedGroup.Group("/memberships")
	membershipWriteRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		membershipWriteRoutes.POST("", membershipHandler.CreateMembership)
		membershipWriteRoutes.PUT("/:id", membershipHandler.UpdateMembership)
		membershipWriteRoutes.DELETE("/:id", membershipHandler.DeleteMembership)
	}
}

// SetupAttendanceRoutes sets up attendance, occupancy and daily stats routes.
func SetupAttendanceRoutes(authenticatedGroup *gin.RouterGroup, attendanceHandler *handlers.AttendanceHandler) {
	staff := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff)

	attendanceRoutes := authenticatedGroup.Group("/attendances")
	attendanceRoutes.Use(staff)
	{
		attendanceRoutes.GET("", attendanceHandler.GetAttendances)
		attendanceRoutes.GET("/open", attendanceHandler.GetOpenSessions)
		attendanceRoutes.POST("/check-in", attendanceHandler.CheckIn)
		attendanceRoutes.POST("/check-out", attendanceHandler.CheckOut)
		attendanceRoutes.GET("/:id", attendanceHandler.GetAttendanceByID)
		attendanceRoutes.PATCH("/:id", attendanceHandler.UpdateAttendance)
	}

	authenticatedGroup.GET("/occupancy", staff, attendanceHandler.GetOccupancy)
	authenticatedGroup.GET("/stats/today", staff, attendanceHandler.GetTodayStats)
}

// SetupRoutineRoutes sets up exercise catalogue, routine template and client routine routes.
func SetupRoutineRoutes(authenticatedGroup *gin.RouterGroup, routineHandler *handlers.RoutineHandler) {
	staff := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff)

	templateRoutes := authenticatedGroup.Group("/routine-templates")
	templateRoutes.Use(staff)
	{
		templateRoutes.POST("", routineHandler.CreateTemplate)
		templateRoutes.GET("", routineHandler.GetTemplates)
		templateRoutes.GET("/:id", routineHandler.GetTemplateByID)
		templateRoutes.PUT("/:id", routineHandler.UpdateTemplate)
		templateRoutes.DELETE("/:id", routineHandler.DeleteTemplate)
		templateRoutes.POST("/:id/exercises", routineHandler.AddTemplateExercise)
		templateRoutes.DELETE("/:id/exercises/:lineId", routineHandler.DeleteTemplateExercise)
	}

	routineRoutes := authenticatedGroup.Group("/routines")
	routineRoutes.Use(staff)
	{
		routineRoutes.GET("/:id", routineHandler.GetRoutineByID)
		routineRoutes.PUT("/:id", routineHandler.UpdateRoutine)
		routineRoutes.DELETE("/:id", routineHandler.DeleteRoutine)
		routineRoutes.POST("/:id/exercises", routineHandler.AddRoutineExercise)
		routineRoutes.PUT("/:id/exercises/:lineId", routineHandler.UpdateRoutineExercise)
		routineRoutes.DELETE("/:id/exercises/:lineId", routineHandler.DeleteRoutineExercise)
	}

	exerciseRoutes := authenticatedGroup.Group("/exercises")
	exerciseRoutes.Use(staff)
	{
		exerciseRoutes.GET("", routineHandler.GetExercises)
		exerciseRoutes.POST("", routineHandler.CreateExercise)
		exerciseRoutes.GET("/:id", routineHandler.GetExerciseByID)
		exerciseRoutes.PUT("/:id", routineHandler.UpdateExercise)
		exerciseRoutes.DELETE("/:id", routineHandler.DeleteExercise)
	}
}

// SetupDashboardRoutes sets up the dashboard routes.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, statsHandler *handlers.StatsHandler) {
	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	dashboardRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		dashboardRoutes.GET("/stats", statsHandler.GetDashboardStats)
		dashboardRoutes.GET("/payments", statsHandler.GetPaymentsDashboard)
	}
}

// SetupEventRoutes sets up the event calendar and attendee routes.
func SetupEventRoutes(authenticatedGroup *gin.RouterGroup, eventHandler *handlers.EventHandler) {
	eventRoutes := authenticatedGroup.Group("/events")
	eventRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		eventRoutes.GET("", eventHandler.GetEvents)
		eventRoutes.POST("", eventHandler.CreateEvent)
		eventRoutes.GET("/:id", eventHandler.GetEventByID)
		eventRoutes.PUT("/:id", eventHandler.UpdateEvent)
		eventRoutes.DELETE("/:id", eventHandler.DeleteEvent)
		eventRoutes.GET("/:id/attendees", eventHandler.GetAttendees)
		eventRoutes.POST("/:id/attendees", eventHandler.RegisterAttendee)
		eventRoutes.DELETE("/:id/attendees/:clientId", eventHandler.RemoveAttendee)
	}
}

// SetupSettingsRoutes sets up the gym settings routes.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingsHandler *handlers.SettingsHandler) {
	authenticatedGroup.GET("/settings", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff), settingsHandler.GetSettings)
	authenticatedGroup.PUT("/settings", middleware.RoleAuthMiddleware(models.RoleAdmin), settingsHandler.UpdateSettings)
}

// SetupKioskRoutes sets up the entrance terminal routes.
func SetupKioskRoutes(authenticatedGroup *gin.RouterGroup, kioskHandler *handlers.KioskHandler) {
	kioskRoutes := authenticatedGroup.Group("/kiosk")
	kioskRoutes.Use(middleware.RoleAuthMiddleware(models.RoleKiosk, models.RoleAdmin, models.RoleStaff))
	{
		kioskRoutes.POST("/scan", kioskHandler.Scan)
		kioskRoutes.POST("/dni", kioskHandler.ScanNationalID)
	}
}
