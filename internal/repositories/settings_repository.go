package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_backend/internal/models"
)

// SettingsRepository defines the interface for the single gym_settings row.
type SettingsRepository interface {
	GetSettings() (*models.GymSettings, error)
	UpdateSettings(executor SQLExecutor, s *models.GymSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

const settingsSelect = `SELECT id, max_capacity, average_stay_minutes, alert_percentage, opening_time, closing_time,
	created_at, updated_at FROM gym_settings ORDER BY id LIMIT 1`

func scanSettings(row scanner) (*models.GymSettings, error) {
	s := &models.GymSettings{}
	err := row.Scan(&s.ID, &s.MaxCapacity, &s.AverageStayMinutes, &s.AlertPercentage, &s.OpeningTime, &s.ClosingTime,
		&s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetSettings returns the settings row, creating it with defaults on first read.
func (r *settingsRepository) GetSettings() (*models.GymSettings, error) {
	s, err := scanSettings(r.db.QueryRow(settingsSelect))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: getting gym settings: %v", ErrDatabaseError, err)
	}

	defaults := models.DefaultGymSettings()
	query := `INSERT INTO gym_settings (max_capacity, average_stay_minutes, alert_percentage, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $4)
	          RETURNING id, max_capacity, average_stay_minutes, alert_percentage, opening_time, closing_time, created_at, updated_at`
	s, err = scanSettings(r.db.QueryRow(query,
		defaults.MaxCapacity, defaults.AverageStayMinutes, defaults.AlertPercentage, time.Now()))
	if err != nil {
		return nil, wrapWriteError(err, "creating default gym settings")
	}
	return s, nil
}

// UpdateSettings overwrites the settings row identified by s.ID.
func (r *settingsRepository) UpdateSettings(executor SQLExecutor, s *models.GymSettings) error {
	query := `UPDATE gym_settings SET max_capacity = $1, average_stay_minutes = $2, alert_percentage = $3,
	              opening_time = $4, closing_time = $5, updated_at = $6
	          WHERE id = $7`
	s.UpdatedAt = time.Now()
	result, err := executor.Exec(query, s.MaxCapacity, s.AverageStayMinutes, s.AlertPercentage,
		s.OpeningTime, s.ClosingTime, s.UpdatedAt, s.ID)
	if err != nil {
		return wrapWriteError(err, "updating gym settings")
	}
	return expectOneRow(result, "updating gym settings")
}
