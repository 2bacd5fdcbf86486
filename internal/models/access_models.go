package models

import "time"

// Validity is the outcome of evaluating a membership at an instant.
type Validity string

const (
	ValidityAllowed         Validity = "allowed"
	ValidityDeniedExpired   Validity = "denied-expired"
	ValidityDeniedSuspended Validity = "denied-suspended"
)

// AccessDecision is the verdict kind of the access gate.
type AccessDecision string

const (
	AccessAllow AccessDecision = "ALLOW"
	AccessDeny  AccessDecision = "DENY"
)

// DenyReason explains a DENY verdict.
type DenyReason string

const (
	DenyReasonUnknown   DenyReason = "unknown"
	DenyReasonExpired   DenyReason = "expired"
	DenyReasonSuspended DenyReason = "suspended"
	DenyReasonDuplicate DenyReason = "duplicate"
)

// Verdict is the result of evaluating a scanned identity.
type Verdict struct {
	Decision   AccessDecision `json:"decision"`
	Reason     DenyReason     `json:"reason,omitempty"`
	Client     *Client        `json:"client,omitempty"`
	CheckInAt  *time.Time     `json:"check_in_at,omitempty"`
	Attendance *Attendance    `json:"attendance,omitempty"`
	DailyPass  bool           `json:"daily_pass"`
	ReEntry    bool           `json:"re_entry,omitempty"` // daily-pass holder already inside or registered today
	Token      string         `json:"token"`
}

// Allowed reports whether the verdict grants entry.
func (v *Verdict) Allowed() bool {
	return v.Decision == AccessAllow
}

// AccessCard is a physical or printed code bound to one client.
type AccessCard struct {
	ID          int64      `json:"id" db:"id"`
	ClientID    int64      `json:"client_id" db:"client_id"`
	Code        string     `json:"code" db:"code"`
	Status      string     `json:"status" db:"status"` // active, revoked
	LastEntryAt *time.Time `json:"last_entry_at,omitempty" db:"last_entry_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

const (
	AccessCardActive  = "active"
	AccessCardRevoked = "revoked"
)
