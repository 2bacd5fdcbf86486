package repofakes

import (
	"fmt"
	"sort"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
)

type attendanceRepo struct{ s *Store }

// NewAttendanceRepository returns an AttendanceRepository over the store.
// It enforces the same one-ordinary-visit-per-day rule as the partial unique index.
func NewAttendanceRepository(s *Store) repositories.AttendanceRepository {
	return &attendanceRepo{s: s}
}

func (r *attendanceRepo) withClient(a *models.Attendance) models.Attendance {
	cp := *a
	if c, ok := r.s.Clients[a.ClientID]; ok {
		cp.Client = &models.Client{ID: c.ID, FullName: c.FullName, NationalID: c.NationalID, AvatarURL: c.AvatarURL, Status: c.Status}
	}
	return cp
}

func (r *attendanceRepo) CreateAttendance(_ repositories.SQLExecutor, a *models.Attendance) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return 0, r.s.FailWith
	}
	if !a.DailyPass {
		for _, existing := range r.s.Attendances {
			if existing.ClientID == a.ClientID && existing.AttendanceDate == a.AttendanceDate && !existing.DailyPass {
				return 0, fmt.Errorf("%w: attendances_client_day_key", repositories.ErrDuplicateKey)
			}
		}
	}
	a.ID = r.s.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.EntryAt
	}
	cp := *a
	cp.Client = nil
	r.s.Attendances[a.ID] = &cp
	return a.ID, nil
}

func (r *attendanceRepo) GetAttendanceByID(id int64) (*models.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	a, ok := r.s.Attendances[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := r.withClient(a)
	return &cp, nil
}

func (r *attendanceRepo) sorted(filter func(*models.Attendance) bool, newestFirst bool) []models.Attendance {
	list := []models.Attendance{}
	for _, a := range r.s.Attendances {
		if filter(a) {
			list = append(list, r.withClient(a))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].EntryAt.Equal(list[j].EntryAt) {
			if newestFirst {
				return list[i].ID > list[j].ID
			}
			return list[i].ID < list[j].ID
		}
		if newestFirst {
			return list[i].EntryAt.After(list[j].EntryAt)
		}
		return list[i].EntryAt.Before(list[j].EntryAt)
	})
	return list
}

func (r *attendanceRepo) FindOpenAttendance(clientID int64, date string) (*models.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	list := r.sorted(func(a *models.Attendance) bool {
		return a.ClientID == clientID && a.AttendanceDate == date && a.ExitAt == nil
	}, true)
	if len(list) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &list[0], nil
}

func (r *attendanceRepo) ListClientAttendancesForDate(clientID int64, date string) ([]models.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	return r.sorted(func(a *models.Attendance) bool {
		return a.ClientID == clientID && a.AttendanceDate == date
	}, false), nil
}

func (r *attendanceRepo) ListAttendances(filters models.AttendanceFilters) ([]models.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	list := r.sorted(func(a *models.Attendance) bool {
		if filters.ClientID != nil && a.ClientID != *filters.ClientID {
			return false
		}
		if filters.Date != nil && *filters.Date != "" && a.AttendanceDate != *filters.Date {
			return false
		}
		if filters.OpenOnly && a.ExitAt != nil {
			return false
		}
		return true
	}, true)
	limit := filters.Limit
	if limit <= 0 {
		limit = repositories.DefaultAttendanceLimit
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *attendanceRepo) CloseAttendance(_ repositories.SQLExecutor, id int64, exitAt time.Time, durationMinutes int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	a, ok := r.s.Attendances[id]
	if !ok || a.ExitAt != nil {
		return repositories.ErrNotFound
	}
	exit := exitAt
	d := durationMinutes
	a.ExitAt = &exit
	a.DurationMinutes = &d
	return nil
}

func (r *attendanceRepo) UpdateChannel(_ repositories.SQLExecutor, id int64, channel models.AttendanceChannel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return r.s.FailWith
	}
	a, ok := r.s.Attendances[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Channel = channel
	return nil
}
