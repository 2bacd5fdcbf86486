package models

import "time"

// MembershipMode defines how a plan may be used.
type MembershipMode string

const (
	MembershipModeRecurring MembershipMode = "recurring"
	MembershipModeDaily     MembershipMode = "daily" // single-day pass, re-entry allowed the same day
)

// IsValidMembershipMode checks if the provided mode string is a valid MembershipMode.
func IsValidMembershipMode(mode string) bool {
	switch MembershipMode(mode) {
	case MembershipModeRecurring, MembershipModeDaily:
		return true
	default:
		return false
	}
}

// Membership is a plan a client can hold.
type Membership struct {
	ID             int64          `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	Description    *string        `json:"description,omitempty" db:"description"`
	Type           string         `json:"type" db:"type"` // e.g. monthly, quarterly, daily
	Mode           MembershipMode `json:"mode" db:"mode"`
	Price          float64        `json:"price" db:"price"`
	DurationMonths int            `json:"duration_months" db:"duration_months"`
	Features       []string       `json:"features" db:"features"`
	Active         bool           `json:"active" db:"active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
	ActiveClients  int            `json:"active_clients"` // non-suspended clients on the plan, list views only
}

// IsDailyPass reports whether the plan is a single-day pass.
func (m *Membership) IsDailyPass() bool {
	return m != nil && m.Mode == MembershipModeDaily
}
