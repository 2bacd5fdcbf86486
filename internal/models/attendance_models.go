package models

import "time"

// AttendanceChannel records how a visit was registered.
type AttendanceChannel string

const (
	ChannelQR     AttendanceChannel = "qr"
	ChannelDNI    AttendanceChannel = "dni"
	ChannelManual AttendanceChannel = "manual"
)

// IsValidAttendanceChannel checks if the provided channel string is a valid AttendanceChannel.
func IsValidAttendanceChannel(channel string) bool {
	switch AttendanceChannel(channel) {
	case ChannelQR, ChannelDNI, ChannelManual:
		return true
	default:
		return false
	}
}

// SessionState is the lifecycle state of an attendance session.
type SessionState string

const (
	SessionOpen   SessionState = "OPEN"
	SessionClosed SessionState = "CLOSED"
)

// Attendance is one physical visit, bounded by check-in and check-out.
type Attendance struct {
	ID              int64             `json:"id" db:"id"`
	ClientID        int64             `json:"client_id" db:"client_id"`
	AttendanceDate  string            `json:"attendance_date" db:"attendance_date"` // YYYY-MM-DD in the gym time zone
	EntryAt         time.Time         `json:"entry_at" db:"entry_at"`
	ExitAt          *time.Time        `json:"exit_at,omitempty" db:"exit_at"`
	DurationMinutes *int              `json:"duration_minutes,omitempty" db:"duration_minutes"`
	Channel         AttendanceChannel `json:"channel" db:"channel"`
	DailyPass       bool              `json:"daily_pass" db:"daily_pass"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	Client          *Client           `json:"client,omitempty"`
}

// State derives the session state from the exit timestamp.
func (a *Attendance) State() SessionState {
	if a.ExitAt == nil {
		return SessionOpen
	}
	return SessionClosed
}

// IsOpen reports whether the person is still inside.
func (a *Attendance) IsOpen() bool {
	return a.ExitAt == nil
}

// AttendanceFilters defines the available filters for listing attendances.
type AttendanceFilters struct {
	ClientID *int64  `form:"client_id"`
	Date     *string `form:"date"`
	OpenOnly bool    `form:"open_only"`
	Limit    int     `form:"limit"`
}

// CheckOutResult is returned when a session is closed.
type CheckOutResult struct {
	Attendance   *Attendance `json:"attendance"`
	Minutes      int         `json:"duration_minutes"`
	DurationText string      `json:"duration_text"`
}

// OpenSession is an open visit with its elapsed time.
type OpenSession struct {
	Attendance      *Attendance `json:"attendance"`
	ElapsedMinutes  int         `json:"elapsed_minutes"`
	EstimatedExitAt time.Time   `json:"estimated_exit_at"`
}
