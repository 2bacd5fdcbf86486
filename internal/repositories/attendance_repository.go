package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_backend/internal/models"
)

// DefaultAttendanceLimit caps attendance listings when no limit is given.
const DefaultAttendanceLimit = 100

// AttendanceRepository defines the interface for attendance session database operations.
type AttendanceRepository interface {
	CreateAttendance(executor SQLExecutor, a *models.Attendance) (int64, error)
	GetAttendanceByID(id int64) (*models.Attendance, error)
	FindOpenAttendance(clientID int64, date string) (*models.Attendance, error)
	ListClientAttendancesForDate(clientID int64, date string) ([]models.Attendance, error)
	ListAttendances(filters models.AttendanceFilters) ([]models.Attendance, error)
	CloseAttendance(executor SQLExecutor, id int64, exitAt time.Time, durationMinutes int) error
	UpdateChannel(executor SQLExecutor, id int64, channel models.AttendanceChannel) error
}

type attendanceRepository struct {
	db *sql.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sql.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceSelect = `
	SELECT a.id, a.client_id, a.attendance_date, a.entry_at, a.exit_at, a.duration_minutes, a.channel,
	       a.daily_pass, a.created_at,
	       c.full_name, c.national_id, c.avatar_url, c.status
	FROM attendances a
	JOIN clients c ON c.id = a.client_id`

func scanAttendance(row scanner) (*models.Attendance, error) {
	var a models.Attendance
	var date time.Time
	var exitAt sql.NullTime
	var duration sql.NullInt32
	var channel, status string
	client := &models.Client{}

	err := row.Scan(
		&a.ID, &a.ClientID, &date, &a.EntryAt, &exitAt, &duration, &channel,
		&a.DailyPass, &a.CreatedAt,
		&client.FullName, &client.NationalID, &client.AvatarURL, &status,
	)
	if err != nil {
		return nil, err
	}

	a.AttendanceDate = date.Format(models.DateLayout)
	a.ExitAt = nullTimePtr(exitAt)
	if duration.Valid {
		d := int(duration.Int32)
		a.DurationMinutes = &d
	}
	a.Channel = models.AttendanceChannel(channel)
	client.ID = a.ClientID
	client.Status = models.MembershipStatus(status)
	a.Client = client
	return &a, nil
}

func (r *attendanceRepository) queryAttendances(query string, args ...interface{}) ([]models.Attendance, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying attendances: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	list := []models.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning attendance: %v", ErrDatabaseError, err)
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating attendances: %v", ErrDatabaseError, err)
	}
	return list, nil
}

// CreateAttendance opens a session. Hitting the per-day unique index yields ErrDuplicateKey.
func (r *attendanceRepository) CreateAttendance(executor SQLExecutor, a *models.Attendance) (int64, error) {
	query := `INSERT INTO attendances (client_id, attendance_date, entry_at, channel, daily_pass, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.EntryAt
	}
	err := executor.QueryRow(query,
		a.ClientID, a.AttendanceDate, a.EntryAt, string(a.Channel), a.DailyPass, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating attendance")
	}
	return a.ID, nil
}

// GetAttendanceByID retrieves a session by its ID.
func (r *attendanceRepository) GetAttendanceByID(id int64) (*models.Attendance, error) {
	a, err := scanAttendance(r.db.QueryRow(attendanceSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting attendance by ID %d: %v", ErrDatabaseError, id, err)
	}
	return a, nil
}

// FindOpenAttendance returns the latest open session of a client on date.
func (r *attendanceRepository) FindOpenAttendance(clientID int64, date string) (*models.Attendance, error) {
	query := attendanceSelect + `
	          WHERE a.client_id = $1 AND a.attendance_date = $2 AND a.exit_at IS NULL
	          ORDER BY a.entry_at DESC
	          LIMIT 1`
	a, err := scanAttendance(r.db.QueryRow(query, clientID, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding open attendance of client %d: %v", ErrDatabaseError, clientID, err)
	}
	return a, nil
}

// ListClientAttendancesForDate lists every session of a client on date, oldest first.
func (r *attendanceRepository) ListClientAttendancesForDate(clientID int64, date string) ([]models.Attendance, error) {
	return r.queryAttendances(attendanceSelect+`
	          WHERE a.client_id = $1 AND a.attendance_date = $2
	          ORDER BY a.entry_at ASC`, clientID, date)
}

// ListAttendances lists sessions newest first.
func (r *attendanceRepository) ListAttendances(filters models.AttendanceFilters) ([]models.Attendance, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(attendanceSelect)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("a.client_id = $%d", argCount))
		args = append(args, *filters.ClientID)
		argCount++
	}
	if filters.Date != nil && *filters.Date != "" {
		conditions = append(conditions, fmt.Sprintf("a.attendance_date = $%d", argCount))
		args = append(args, *filters.Date)
		argCount++
	}
	if filters.OpenOnly {
		conditions = append(conditions, "a.exit_at IS NULL")
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultAttendanceLimit
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY a.entry_at DESC LIMIT $%d", argCount))
	args = append(args, limit)

	return r.queryAttendances(queryBuilder.String(), args...)
}

// CloseAttendance records the exit of an open session. A closed or missing session yields ErrNotFound.
func (r *attendanceRepository) CloseAttendance(executor SQLExecutor, id int64, exitAt time.Time, durationMinutes int) error {
	query := `UPDATE attendances SET exit_at = $1, duration_minutes = $2
	          WHERE id = $3 AND exit_at IS NULL`
	result, err := executor.Exec(query, exitAt, durationMinutes, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("closing attendance ID %d", id))
	}
	return expectOneRow(result, fmt.Sprintf("closing attendance ID %d", id))
}

// UpdateChannel rewrites the registration note of a session.
func (r *attendanceRepository) UpdateChannel(executor SQLExecutor, id int64, channel models.AttendanceChannel) error {
	result, err := executor.Exec(`UPDATE attendances SET channel = $1 WHERE id = $2`, string(channel), id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating channel of attendance ID %d", id))
	}
	return expectOneRow(result, fmt.Sprintf("updating channel of attendance ID %d", id))
}
