package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
	"gym_backend/pkg/utils"
)

// --- Custom Service Errors for Attendance ---
var (
	ErrDuplicateCheckIn     = errors.New("client already has an attendance today")
	ErrNoOpenSession        = errors.New("no open attendance session for today")
	ErrAttendanceNotFound   = errors.New("attendance not found")
	ErrAttendanceValidation = errors.New("attendance data validation error")
)

// sessionScanLimit bounds the rows read for one day's occupancy and stats.
const sessionScanLimit = 5000

// --- Attendance DTOs ---
type CheckInRequest struct {
	ClientID int64  `json:"client_id" binding:"required"`
	Channel  string `json:"channel"`
}

type CheckOutRequest struct {
	AttendanceID *int64 `json:"attendance_id"`
	ClientID     *int64 `json:"client_id"`
}

type UpdateAttendanceRequest struct {
	Channel string `json:"channel" binding:"required"`
}

// CheckInResult is an opened session. ReEntry is set when a daily-pass holder was already inside.
type CheckInResult struct {
	Attendance *models.Attendance `json:"attendance"`
	ReEntry    bool               `json:"re_entry"`
}

// AttendanceService tracks visits: check-in, check-out, occupancy and daily stats.
type AttendanceService interface {
	CheckIn(clientID int64, channel models.AttendanceChannel) (*CheckInResult, error)
	CheckOut(req CheckOutRequest) (*models.CheckOutResult, error)
	CurrentOccupancy() (*models.OccupancySnapshot, error)
	TodayStats() (*models.TodayStats, error)
	OpenSessions(clientID *int64) ([]models.OpenSession, error)
	GetAttendanceByID(id int64) (*models.Attendance, error)
	GetAttendances(filters models.AttendanceFilters) ([]models.Attendance, error)
	UpdateAttendance(id int64, req UpdateAttendanceRequest) (*models.Attendance, error)
}

type attendanceService struct {
	attendanceRepo     repositories.AttendanceRepository
	clientRepo         repositories.ClientRepository
	settingsRepo       repositories.SettingsRepository
	db                 *sql.DB
	clock              GymClock
	defaultAverageStay int
}

// NewAttendanceService creates a new instance of AttendanceService.
// defaultAverageStay (minutes) is used when the settings row carries no positive value.
func NewAttendanceService(attendanceRepo repositories.AttendanceRepository, clientRepo repositories.ClientRepository,
	settingsRepo repositories.SettingsRepository, db *sql.DB, clock GymClock, defaultAverageStay int) AttendanceService {
	if defaultAverageStay <= 0 {
		defaultAverageStay = models.DefaultAverageStayMinutes
	}
	return &attendanceService{
		attendanceRepo:     attendanceRepo,
		clientRepo:         clientRepo,
		settingsRepo:       settingsRepo,
		db:                 db,
		clock:              clock,
		defaultAverageStay: defaultAverageStay,
	}
}

// FormatDuration renders minutes as "Hh Mmin" from one hour on, "Mmin" below.
func FormatDuration(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dmin", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dmin", minutes)
}

// RoundedMinutes is the session length rounded to the nearest minute, never negative.
func RoundedMinutes(entry, exit time.Time) int {
	d := exit.Sub(entry)
	if d < 0 {
		return 0
	}
	return int(math.Round(float64(d) / float64(time.Minute)))
}

func (s *attendanceService) CheckIn(clientID int64, channel models.AttendanceChannel) (*CheckInResult, error) {
	if channel == "" {
		channel = models.ChannelManual
	}
	if !models.IsValidAttendanceChannel(string(channel)) {
		return nil, fmt.Errorf("%w: invalid channel '%s'", ErrAttendanceValidation, channel)
	}

	client, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client for check-in: %w", err)
	}

	now := s.clock.NowLocal()
	today := now.Format(models.DateLayout)
	dailyPass := client.IsDailyPass()

	if dailyPass {
		open, err := s.attendanceRepo.FindOpenAttendance(clientID, today)
		if err == nil {
			utils.LogInfo("daily pass re-entry", map[string]interface{}{"client_id": clientID, "attendance_id": open.ID})
			return &CheckInResult{Attendance: open, ReEntry: true}, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up open attendance: %w", err)
		}
	} else {
		existing, err := s.attendanceRepo.ListClientAttendancesForDate(clientID, today)
		if err != nil {
			return nil, fmt.Errorf("failed to look up today's attendances: %w", err)
		}
		for _, a := range existing {
			if !a.DailyPass {
				return nil, ErrDuplicateCheckIn
			}
		}
	}

	attendance := &models.Attendance{
		ClientID:       clientID,
		AttendanceDate: today,
		EntryAt:        now,
		Channel:        channel,
		DailyPass:      dailyPass,
	}
	if _, err := s.attendanceRepo.CreateAttendance(s.db, attendance); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateCheckIn
		}
		return nil, fmt.Errorf("failed to create attendance: %w", err)
	}
	attendance.Client = client

	utils.LogInfo("check-in registered", map[string]interface{}{
		"client_id":     clientID,
		"attendance_id": attendance.ID,
		"channel":       string(channel),
		"daily_pass":    dailyPass,
	})
	return &CheckInResult{Attendance: attendance}, nil
}

func (s *attendanceService) findSessionToClose(req CheckOutRequest, today string) (*models.Attendance, error) {
	switch {
	case req.AttendanceID != nil:
		a, err := s.attendanceRepo.GetAttendanceByID(*req.AttendanceID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrAttendanceNotFound
			}
			return nil, fmt.Errorf("failed to get attendance: %w", err)
		}
		if !a.IsOpen() || a.AttendanceDate != today {
			return nil, ErrNoOpenSession
		}
		return a, nil
	case req.ClientID != nil:
		a, err := s.attendanceRepo.FindOpenAttendance(*req.ClientID, today)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrNoOpenSession
			}
			return nil, fmt.Errorf("failed to find open attendance: %w", err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%w: attendance_id or client_id is required", ErrAttendanceValidation)
	}
}

func (s *attendanceService) CheckOut(req CheckOutRequest) (*models.CheckOutResult, error) {
	now := s.clock.NowLocal()
	attendance, err := s.findSessionToClose(req, now.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}

	minutes := RoundedMinutes(attendance.EntryAt, now)
	if err := s.attendanceRepo.CloseAttendance(s.db, attendance.ID, now, minutes); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoOpenSession
		}
		return nil, fmt.Errorf("failed to close attendance: %w", err)
	}
	attendance.ExitAt = &now
	attendance.DurationMinutes = &minutes

	utils.LogInfo("check-out registered", map[string]interface{}{
		"client_id":        attendance.ClientID,
		"attendance_id":    attendance.ID,
		"duration_minutes": minutes,
	})
	return &models.CheckOutResult{
		Attendance:   attendance,
		Minutes:      minutes,
		DurationText: FormatDuration(minutes),
	}, nil
}

func (s *attendanceService) settings() (*models.GymSettings, error) {
	settings, err := s.settingsRepo.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get gym settings: %w", err)
	}
	if settings.AverageStayMinutes <= 0 {
		settings.AverageStayMinutes = s.defaultAverageStay
	}
	return settings, nil
}

func (s *attendanceService) openSessions(clientID *int64, averageStay int) ([]models.OpenSession, error) {
	now := s.clock.NowLocal()
	today := now.Format(models.DateLayout)
	open, err := s.attendanceRepo.ListAttendances(models.AttendanceFilters{
		ClientID: clientID,
		Date:     &today,
		OpenOnly: true,
		Limit:    sessionScanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendances: %w", err)
	}

	sessions := make([]models.OpenSession, 0, len(open))
	for i := range open {
		a := &open[i]
		elapsed := int(now.Sub(a.EntryAt) / time.Minute)
		if elapsed < 0 {
			elapsed = 0
		}
		sessions = append(sessions, models.OpenSession{
			Attendance:      a,
			ElapsedMinutes:  elapsed,
			EstimatedExitAt: a.EntryAt.Add(time.Duration(averageStay) * time.Minute).In(s.clock.Location),
		})
	}
	return sessions, nil
}

func (s *attendanceService) OpenSessions(clientID *int64) ([]models.OpenSession, error) {
	settings, err := s.settings()
	if err != nil {
		return nil, err
	}
	return s.openSessions(clientID, settings.AverageStayMinutes)
}

// OccupancyLevelFor buckets a percentage against the alert threshold.
func OccupancyLevelFor(percentage, alertPercentage int) models.OccupancyLevel {
	switch {
	case percentage >= 100:
		return models.OccupancyExceeded
	case percentage >= alertPercentage:
		return models.OccupancyFull
	case percentage >= 50:
		return models.OccupancyModerate
	default:
		return models.OccupancyAvailable
	}
}

func (s *attendanceService) CurrentOccupancy() (*models.OccupancySnapshot, error) {
	settings, err := s.settings()
	if err != nil {
		return nil, err
	}
	sessions, err := s.openSessions(nil, settings.AverageStayMinutes)
	if err != nil {
		return nil, err
	}

	current := len(sessions)
	percentage := 0
	if settings.MaxCapacity > 0 {
		percentage = int(math.Round(float64(current) / float64(settings.MaxCapacity) * 100))
	}
	free := settings.MaxCapacity - current
	if free < 0 {
		free = 0
	}
	return &models.OccupancySnapshot{
		Current:     current,
		MaxCapacity: settings.MaxCapacity,
		Percentage:  percentage,
		FreeSpots:   free,
		Level:       OccupancyLevelFor(percentage, settings.AlertPercentage),
		Sessions:    sessions,
		GeneratedAt: s.clock.NowLocal(),
	}, nil
}

func (s *attendanceService) TodayStats() (*models.TodayStats, error) {
	settings, err := s.settings()
	if err != nil {
		return nil, err
	}
	today := s.clock.Today()
	rows, err := s.attendanceRepo.ListAttendances(models.AttendanceFilters{Date: &today, Limit: sessionScanLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list today's attendances: %w", err)
	}

	stats := &models.TodayStats{
		Date:               today,
		TotalSessions:      len(rows),
		AverageStayMinutes: settings.AverageStayMinutes,
	}

	var hours [24]int
	totalMinutes := 0
	for _, a := range rows {
		hours[a.EntryAt.In(s.clock.Location).Hour()]++
		if a.ExitAt != nil && a.DurationMinutes != nil {
			stats.ClosedSessions++
			totalMinutes += *a.DurationMinutes
		}
	}
	if stats.ClosedSessions > 0 {
		stats.AverageStayMinutes = int(math.Round(float64(totalMinutes) / float64(stats.ClosedSessions)))
	}

	best := -1
	for h, n := range hours {
		if n > 0 && (best < 0 || n > hours[best]) {
			best = h
		}
	}
	if best >= 0 {
		stats.Peak = &models.PeakHour{
			Hour:  best,
			Label: fmt.Sprintf("%02d:00 - %02d:00", best, (best+1)%24),
			Count: hours[best],
		}
	}
	return stats, nil
}

func (s *attendanceService) GetAttendanceByID(id int64) (*models.Attendance, error) {
	a, err := s.attendanceRepo.GetAttendanceByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return a, nil
}

func (s *attendanceService) GetAttendances(filters models.AttendanceFilters) ([]models.Attendance, error) {
	if filters.Date != nil && *filters.Date != "" {
		if _, err := time.Parse(models.DateLayout, *filters.Date); err != nil {
			return nil, ErrDateFormat
		}
	}
	list, err := s.attendanceRepo.ListAttendances(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	return list, nil
}

func (s *attendanceService) UpdateAttendance(id int64, req UpdateAttendanceRequest) (*models.Attendance, error) {
	if !models.IsValidAttendanceChannel(req.Channel) {
		return nil, fmt.Errorf("%w: invalid channel '%s'", ErrAttendanceValidation, req.Channel)
	}
	if err := s.attendanceRepo.UpdateChannel(s.db, id, models.AttendanceChannel(req.Channel)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("failed to update attendance: %w", err)
	}
	return s.GetAttendanceByID(id)
}
