package models

import "time"

// Event statuses.
const (
	EventStatusScheduled = "scheduled"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

// IsValidEventStatus checks an event status.
func IsValidEventStatus(status string) bool {
	switch status {
	case EventStatusScheduled, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Registration statuses.
const (
	RegistrationPresent = "present"
	RegistrationAbsent  = "absent"
)

// IsValidRegistrationStatus checks an attendee status.
func IsValidRegistrationStatus(status string) bool {
	return status == RegistrationPresent || status == RegistrationAbsent
}

// Event is a scheduled class, session or appointment.
type Event struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     *string   `json:"description,omitempty" db:"description"`
	Date            time.Time `json:"date" db:"event_date"`
	StartTime       string    `json:"time" db:"start_time"` // HH:MM
	Type            string    `json:"type" db:"type"`
	ClientID        *int64    `json:"client_id,omitempty" db:"client_id"`
	ClientName      *string   `json:"client_name,omitempty" db:"client_name"`
	Trainer         *string   `json:"trainer,omitempty" db:"trainer"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Status          string    `json:"status" db:"status"`
	MaxParticipants *int      `json:"max_participants" db:"max_participants"` // nil means no limit
	Participants    int       `json:"participants"`
	Price           *float64  `json:"price,omitempty" db:"price"`
	Notes           *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	Registrations []EventRegistration `json:"registrations,omitempty"`
}

// IsFull reports whether count attendees leave no room.
func (e *Event) IsFull(count int) bool {
	return e.MaxParticipants != nil && count >= *e.MaxParticipants
}

// EventRegistration is a client signed up for an event.
type EventRegistration struct {
	ID           int64     `json:"id" db:"id"`
	EventID      int64     `json:"event_id" db:"event_id"`
	ClientID     int64     `json:"client_id" db:"client_id"`
	ClientName   string    `json:"client_name"`
	Status       string    `json:"status" db:"status"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// EventFilters narrows the event list.
type EventFilters struct {
	From *time.Time
	To   *time.Time
	Type *string
}
