package models

import "time"

// Defaults used when the gym_settings row does not exist yet.
const (
	DefaultMaxCapacity        = 50
	DefaultAverageStayMinutes = 90
	DefaultAlertPercentage    = 80
)

// GymSettings is the single-row operating configuration of the gym
type GymSettings struct {
	ID                 int64     `json:"id" db:"id"`
	MaxCapacity        int       `json:"max_capacity" db:"max_capacity"`
	AverageStayMinutes int       `json:"average_stay_minutes" db:"average_stay_minutes"`
	AlertPercentage    int       `json:"alert_percentage" db:"alert_percentage"`
	OpeningTime        *string   `json:"opening_time,omitempty" db:"opening_time"` // HH:MM
	ClosingTime        *string   `json:"closing_time,omitempty" db:"closing_time"` // HH:MM
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultGymSettings returns the settings used on a fresh install.
func DefaultGymSettings() GymSettings {
	return GymSettings{
		MaxCapacity:        DefaultMaxCapacity,
		AverageStayMinutes: DefaultAverageStayMinutes,
		AlertPercentage:    DefaultAlertPercentage,
	}
}
