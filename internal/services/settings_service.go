package services

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
)

// ErrSettingsValidation is returned for out-of-range gym settings.
var ErrSettingsValidation = errors.New("gym settings validation error")

var clockTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// UpdateSettingsRequest DTO
type UpdateSettingsRequest struct {
	MaxCapacity        *int    `json:"max_capacity"`
	AverageStayMinutes *int    `json:"average_stay_minutes"`
	AlertPercentage    *int    `json:"alert_percentage"`
	OpeningTime        *string `json:"opening_time"`
	ClosingTime        *string `json:"closing_time"`
}

// SettingsService reads and updates the gym's operating settings.
type SettingsService interface {
	GetSettings() (*models.GymSettings, error)
	UpdateSettings(req UpdateSettingsRequest) (*models.GymSettings, error)
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
	db           *sql.DB
}

// NewSettingsService creates a new instance of SettingsService.
func NewSettingsService(repo repositories.SettingsRepository, db *sql.DB) SettingsService {
	return &settingsService{settingsRepo: repo, db: db}
}

func (s *settingsService) GetSettings() (*models.GymSettings, error) {
	settings, err := s.settingsRepo.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get gym settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) UpdateSettings(req UpdateSettingsRequest) (*models.GymSettings, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return nil, err
	}
	if req.MaxCapacity != nil {
		if *req.MaxCapacity <= 0 {
			return nil, fmt.Errorf("%w: max_capacity must be positive", ErrSettingsValidation)
		}
		settings.MaxCapacity = *req.MaxCapacity
	}
	if req.AverageStayMinutes != nil {
		if *req.AverageStayMinutes <= 0 {
			return nil, fmt.Errorf("%w: average_stay_minutes must be positive", ErrSettingsValidation)
		}
		settings.AverageStayMinutes = *req.AverageStayMinutes
	}
	if req.AlertPercentage != nil {
		if *req.AlertPercentage < 1 || *req.AlertPercentage > 100 {
			return nil, fmt.Errorf("%w: alert_percentage must be between 1 and 100", ErrSettingsValidation)
		}
		settings.AlertPercentage = *req.AlertPercentage
	}
	for _, t := range []*string{req.OpeningTime, req.ClosingTime} {
		if t != nil && *t != "" && !clockTimeRegex.MatchString(*t) {
			return nil, fmt.Errorf("%w: times must use HH:MM", ErrSettingsValidation)
		}
	}
	if req.OpeningTime != nil {
		settings.OpeningTime = trimmedPtr(req.OpeningTime)
	}
	if req.ClosingTime != nil {
		settings.ClosingTime = trimmedPtr(req.ClosingTime)
	}

	if err := s.settingsRepo.UpdateSettings(s.db, settings); err != nil {
		return nil, fmt.Errorf("failed to update gym settings: %w", err)
	}
	return settings, nil
}
