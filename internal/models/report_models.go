package models

import "time"

// OccupancyLevel buckets the occupancy percentage.
type OccupancyLevel string

const (
	OccupancyAvailable OccupancyLevel = "available"
	OccupancyModerate  OccupancyLevel = "moderate"
	OccupancyFull      OccupancyLevel = "full"
	OccupancyExceeded  OccupancyLevel = "exceeded"
)

// OccupancySnapshot is who is inside right now.
type OccupancySnapshot struct {
	Current     int            `json:"current"`
	MaxCapacity int            `json:"max_capacity"`
	Percentage  int            `json:"percentage"`
	FreeSpots   int            `json:"free_spots"`
	Level       OccupancyLevel `json:"level"`
	Sessions    []OpenSession  `json:"sessions"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// PeakHour is the hour of day with the most check-ins.
type PeakHour struct {
	Hour  int    `json:"hour"` // 0-23 in the gym time zone
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TodayStats aggregates today's attendance.
type TodayStats struct {
	Date               string    `json:"date"`
	TotalSessions      int       `json:"total_sessions"`
	ClosedSessions     int       `json:"closed_sessions"`
	AverageStayMinutes int       `json:"average_stay_minutes"`
	Peak               *PeakHour `json:"peak,omitempty"`
}

// MembershipCount is the number of clients holding a plan.
type MembershipCount struct {
	MembershipID *int64 `json:"membership_id"`
	Count        int    `json:"count"`
}

// ClientPeriod is a client listed by the end of their paid period.
type ClientPeriod struct {
	ID             int64      `json:"id"`
	FullName       string     `json:"full_name"`
	Email          *string    `json:"email,omitempty"`
	PhoneNumber    *string    `json:"phone_number,omitempty"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	EndDate        *time.Time `json:"end_date"`
	MembershipName *string    `json:"membership_name,omitempty"`
}

// DashboardStats holds key metrics for the dashboard.
type DashboardStats struct {
	TotalClients     int               `json:"total_clients"`
	ActiveClients    int               `json:"active_clients"`
	ExpiredClients   int               `json:"expired_clients"`
	SuspendedClients int               `json:"suspended_clients"`
	ScheduledEvents  int               `json:"scheduled_events"`
	PerMembership    []MembershipCount `json:"per_membership"`
	Expiring         []ClientPeriod    `json:"expiring"`
}

// PaymentsDashboard splits clients by where their paid period stands today.
type PaymentsDashboard struct {
	Date     string         `json:"date"`
	Active   []ClientPeriod `json:"active"`
	Expiring []ClientPeriod `json:"expiring"`
	Expired  []ClientPeriod `json:"expired"`
}
