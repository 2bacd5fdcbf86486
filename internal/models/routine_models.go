package models

import "time"

// Exercise is an entry of the exercise catalogue.
type Exercise struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Category    *string   `json:"category,omitempty" db:"category"`
	Difficulty  *string   `json:"difficulty,omitempty" db:"difficulty"`
	Muscles     []string  `json:"muscles" db:"muscles"`
	Description *string   `json:"description,omitempty" db:"description"`
	ImageURL    *string   `json:"image_url,omitempty" db:"image_url"`
	VideoURL    *string   `json:"video_url,omitempty" db:"video_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RoutineTemplate is a reusable routine that can be assigned to clients.
type RoutineTemplate struct {
	ID          int64                     `json:"id" db:"id"`
	Name        string                    `json:"name" db:"name"`
	Description *string                   `json:"description,omitempty" db:"description"`
	CreatedBy   *string                   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time                 `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at" db:"updated_at"`
	Exercises   []RoutineTemplateExercise `json:"exercises,omitempty"`
}

// RoutineTemplateExercise is one line of a template.
type RoutineTemplateExercise struct {
	ID              int64    `json:"id" db:"id"`
	TemplateID      int64    `json:"template_id" db:"template_id"`
	ExerciseID      *int64   `json:"exercise_id,omitempty" db:"exercise_id"`
	Name            *string  `json:"name,omitempty" db:"name"`
	Sets            *int     `json:"sets,omitempty" db:"sets"`
	Repetitions     *string  `json:"repetitions,omitempty" db:"repetitions"` // e.g. "8-12"
	SuggestedWeight *float64 `json:"suggested_weight,omitempty" db:"suggested_weight"`
	Day             *string  `json:"day,omitempty" db:"day"`
	Notes           *string  `json:"notes,omitempty" db:"notes"`
	Position        *int     `json:"position,omitempty" db:"position"`
}

const (
	RoutineStatusActive    = "active"
	RoutineStatusPaused    = "paused"
	RoutineStatusCompleted = "completed"
)

// IsValidRoutineStatus checks a client routine status.
func IsValidRoutineStatus(status string) bool {
	switch status {
	case RoutineStatusActive, RoutineStatusPaused, RoutineStatusCompleted:
		return true
	}
	return false
}

// Routine is a template instance assigned to a client.
type Routine struct {
	ID          int64             `json:"id" db:"id"`
	ClientID    int64             `json:"client_id" db:"client_id"`
	TemplateID  *int64            `json:"template_id,omitempty" db:"template_id"`
	Name        string            `json:"name" db:"name"`
	Description *string           `json:"description,omitempty" db:"description"`
	Status      string            `json:"status" db:"status"`
	StartDate   time.Time         `json:"start_date" db:"start_date"`
	EndDate     *time.Time        `json:"end_date,omitempty" db:"end_date"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
	Exercises   []RoutineExercise `json:"exercises,omitempty"`
}

// RoutineExercise is one line of a client's routine.
type RoutineExercise struct {
	ID          int64   `json:"id" db:"id"`
	RoutineID   int64   `json:"routine_id" db:"routine_id"`
	Name        string  `json:"name" db:"name"`
	Sets        *int    `json:"sets,omitempty" db:"sets"`
	Repetitions *string `json:"repetitions,omitempty" db:"repetitions"`
	Day         *string `json:"day,omitempty" db:"day"`
	Notes       *string `json:"notes,omitempty" db:"notes"`
	Position    *int    `json:"position,omitempty" db:"position"`
}
