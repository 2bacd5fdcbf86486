package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gym_backend/internal/actuator"
	"gym_backend/internal/config"
	"gym_backend/internal/database"
	"gym_backend/internal/handlers"
	"gym_backend/internal/repositories"
	"gym_backend/internal/router"
	"gym_backend/internal/services"
	"gym_backend/pkg/utils"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		utils.LogError(err, "Server stopped with error")
		log.Fatalf("Error running server: %v", err)
	}
	utils.LogInfo("Server stopped")
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	displayAppName(cfg.AppName)

	utils.InitLogger(cfg.LogConfig.Level, cfg.LogConfig.Format)
	config.LogSummary(cfg)
	utils.SetJWTSecret(cfg.AuthConfig.JWTSecret)

	db, err := database.Open(cfg.DBConfig)
	if err != nil {
		return err
	}
	defer db.Close()

	clock := services.NewGymClock(cfg.Location())

	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	clientRepo := repositories.NewClientRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	attendanceRepo := repositories.NewAttendanceRepository(db)
	accessCardRepo := repositories.NewAccessCardRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)
	routineRepo := repositories.NewRoutineRepository(db)
	eventRepo := repositories.NewEventRepository(db)

	// Services
	authService := services.NewAuthService(authRepo, db, cfg.AuthConfig.TokenTTL)
	if err := authService.EnsureAdmin(cfg.AuthConfig.AdminUsername, cfg.AuthConfig.AdminPassword); err != nil {
		return err
	}
	clientService := services.NewClientService(clientRepo, membershipRepo, accessCardRepo, db, clock)
	membershipService := services.NewMembershipService(membershipRepo, db)
	attendanceService := services.NewAttendanceService(attendanceRepo, clientRepo, settingsRepo, db, clock, cfg.GymConfig.AverageStayMinutes)
	accessService := services.NewAccessService(clientRepo, accessCardRepo, attendanceService, db, clock)
	routineService := services.NewRoutineService(routineRepo, clientRepo, db, clock)
	eventService := services.NewEventService(eventRepo, clientRepo, db, clock)
	statsService := services.NewStatsService(clientRepo, eventRepo, clock)
	settingsService := services.NewSettingsService(settingsRepo, db)

	door := actuator.New(cfg.RelayConfig)
	defer door.Close()
	kioskService := services.NewKioskService(accessService, services.NewScanDebouncer(cfg.KioskConfig.Debounce), door)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, router.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Client:     handlers.NewClientHandler(clientService, routineService),
		Membership: handlers.NewMembershipHandler(membershipService),
		Attendance: handlers.NewAttendanceHandler(attendanceService),
		Kiosk:      handlers.NewKioskHandler(kioskService),
		Stats:      handlers.NewStatsHandler(statsService),
		Settings:   handlers.NewSettingsHandler(settingsService),
		Routine:    handlers.NewRoutineHandler(routineService),
		Event:      handlers.NewEventHandler(eventService),
	})

	server := &http.Server{Addr: ":" + cfg.ServerConfig.Port, Handler: engine}
	serveErr := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.ServerConfig.Port, "timezone": cfg.GymConfig.TimeZone})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server.ListenAndServe: %w", err)
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerConfig.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppName(name string) {
	myFigure := figure.NewFigure(name, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
