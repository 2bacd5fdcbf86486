package services

import (
	"time"

	"gym_backend/internal/models"
)

// GymClock supplies "now" and the gym's time zone. Attendance days are calendar days in Location.
type GymClock struct {
	Now      func() time.Time
	Location *time.Location
}

// NewGymClock returns a wall clock in loc; a nil loc means UTC.
func NewGymClock(loc *time.Location) GymClock {
	if loc == nil {
		loc = time.UTC
	}
	return GymClock{Now: time.Now, Location: loc}
}

// FixedClock returns a clock that always reports t. Used by tests and replays.
func FixedClock(t time.Time, loc *time.Location) GymClock {
	c := NewGymClock(loc)
	c.Now = func() time.Time { return t }
	return c
}

// Today returns the current attendance date (YYYY-MM-DD) in the gym time zone.
func (c GymClock) Today() string {
	return c.NowLocal().Format(models.DateLayout)
}

// NowLocal returns now in the gym time zone.
func (c GymClock) NowLocal() time.Time {
	return c.Now().In(c.Location)
}
