package models

import "time"

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// MembershipStatus is the stored status of a client's membership.
type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusExpired   MembershipStatus = "expired"
	MembershipStatusSuspended MembershipStatus = "suspended"
)

// IsValidMembershipStatus checks if the provided status string is a valid MembershipStatus.
func IsValidMembershipStatus(status string) bool {
	switch MembershipStatus(status) {
	case MembershipStatusActive, MembershipStatusExpired, MembershipStatusSuspended:
		return true
	default:
		return false
	}
}

// Client represents a gym member
type Client struct {
	ID           int64            `json:"id" db:"id"`
	FullName     string           `json:"full_name" db:"full_name"`
	NationalID   *string          `json:"national_id,omitempty" db:"national_id"`
	Email        *string          `json:"email,omitempty" db:"email"`
	PhoneNumber  *string          `json:"phone_number,omitempty" db:"phone_number"`
	DateOfBirth  *time.Time       `json:"date_of_birth,omitempty" db:"date_of_birth"`
	MembershipID *int64           `json:"membership_id,omitempty" db:"membership_id"`
	Status       MembershipStatus `json:"status" db:"status"`
	StartDate    *time.Time       `json:"start_date,omitempty" db:"start_date"`
	EndDate      *time.Time       `json:"end_date,omitempty" db:"end_date"` // nil means no enforced expiry
	AvatarURL    *string          `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
	Membership   *Membership      `json:"membership,omitempty"` // joined plan, when loaded
}

// IsDailyPass reports whether the client's joined plan is a single-day pass.
func (c *Client) IsDailyPass() bool {
	return c.Membership != nil && c.Membership.IsDailyPass()
}

// PlanMode returns the joined plan mode, or "" when the client has no plan loaded.
func (c *Client) PlanMode() MembershipMode {
	if c.Membership == nil {
		return ""
	}
	return c.Membership.Mode
}

// ClientFilters defines the available filters for listing clients.
type ClientFilters struct {
	Search   *string `form:"search"`
	Status   *string `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// MembershipSummary is the member-facing view of a client's plan.
type MembershipSummary struct {
	ClientID       int64            `json:"client_id"`
	FullName       string           `json:"full_name"`
	Status         MembershipStatus `json:"status"`
	StartDate      *time.Time       `json:"start_date,omitempty"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	Membership     *Membership      `json:"membership,omitempty"`
	DaysRemaining  *int             `json:"days_remaining"`
	EffectiveState Validity         `json:"effective_state"`
}
