package services

import (
	"time"

	"gym_backend/internal/models"
)

// EndOfDay returns the last millisecond of date's calendar day in loc.
// Only the year, month and day of date are used, so DATE values scanned as UTC midnight keep their day.
func EndOfDay(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EvaluateMembership decides whether a membership admits entry at now.
// Suspension wins over dates; an end date is valid through the end of its day in loc;
// a nil end date on an active membership never expires. mode does not affect the outcome.
func EvaluateMembership(status models.MembershipStatus, endDate *time.Time, mode models.MembershipMode, now time.Time, loc *time.Location) models.Validity {
	if status == models.MembershipStatusSuspended {
		return models.ValidityDeniedSuspended
	}
	if endDate != nil && EndOfDay(*endDate, loc).Before(now) {
		return models.ValidityDeniedExpired
	}
	if status == models.MembershipStatusExpired {
		return models.ValidityDeniedExpired
	}
	return models.ValidityAllowed
}

// EvaluateClient applies EvaluateMembership to a loaded client.
func EvaluateClient(client *models.Client, now time.Time, loc *time.Location) models.Validity {
	return EvaluateMembership(client.Status, client.EndDate, client.PlanMode(), now, loc)
}

// DaysRemaining counts whole calendar days from today until endDate in loc; negative once expired.
func DaysRemaining(endDate *time.Time, now time.Time, loc *time.Location) *int {
	if endDate == nil {
		return nil
	}
	ey, em, ed := endDate.Date()
	ty, tm, td := now.In(loc).Date()
	end := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	today := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(today).Hours() / 24)
	return &days
}

// AddMonths adds n calendar months to t, clamping to the last day of the target month.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
