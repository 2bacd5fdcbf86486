package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gym_backend/internal/models"
)

// EventRepository defines the interface for events and their attendees.
type EventRepository interface {
	CreateEvent(executor SQLExecutor, event *models.Event) (int64, error)
	GetEventByID(id int64) (*models.Event, error) // with the attendee count
	LockEvent(executor SQLExecutor, id int64) (*models.Event, error)
	GetEvents(filters models.EventFilters, limit int) ([]models.Event, error)
	UpdateEvent(executor SQLExecutor, event *models.Event) error
	DeleteEvent(executor SQLExecutor, id int64) error
	CountByStatus(status string) (int, error)

	CountRegistrations(executor SQLExecutor, eventID int64) (int, error)
	CreateRegistration(executor SQLExecutor, reg *models.EventRegistration) (int64, error)
	GetRegistrations(eventID int64) ([]models.EventRegistration, error)
	DeleteRegistration(executor SQLExecutor, eventID, clientID int64) error
}

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `e.id, e.title, e.description, e.event_date, e.start_time, e.type,
	e.client_id, e.client_name, e.trainer, e.duration_minutes, e.status, e.max_participants,
	e.price, e.notes, e.created_at, e.updated_at`

const eventParticipants = `(SELECT COUNT(*) FROM event_registrations r WHERE r.event_id = e.id)`

func scanEvent(row scanner, extra ...interface{}) (*models.Event, error) {
	var e models.Event
	var maxParticipants sql.NullInt32
	var price sql.NullFloat64

	dest := []interface{}{
		&e.ID, &e.Title, &e.Description, &e.Date, &e.StartTime, &e.Type,
		&e.ClientID, &e.ClientName, &e.Trainer, &e.DurationMinutes, &e.Status, &maxParticipants,
		&price, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if maxParticipants.Valid {
		n := int(maxParticipants.Int32)
		e.MaxParticipants = &n
	}
	if price.Valid {
		e.Price = &price.Float64
	}
	return &e, nil
}

func (r *eventRepository) CreateEvent(executor SQLExecutor, event *models.Event) (int64, error) {
	query := `INSERT INTO events
		(title, description, event_date, start_time, type, client_id, client_name, trainer,
		 duration_minutes, status, max_participants, price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`
	err := executor.QueryRow(query,
		event.Title, event.Description, dateParam(&event.Date), event.StartTime, event.Type,
		event.ClientID, event.ClientName, event.Trainer, event.DurationMinutes, event.Status,
		event.MaxParticipants, event.Price, event.Notes,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return 0, wrapWriteError(err, "creating event")
	}
	return event.ID, nil
}

func (r *eventRepository) GetEventByID(id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + `, ` + eventParticipants + ` FROM events e WHERE e.id = $1`
	var count int
	event, err := scanEvent(r.db.QueryRow(query, id), &count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting event ID %d: %v", ErrDatabaseError, id, err)
	}
	event.Participants = count
	return event, nil
}

// LockEvent reads the event row FOR UPDATE so concurrent sign-ups queue on it.
func (r *eventRepository) LockEvent(executor SQLExecutor, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1 FOR UPDATE`
	event, err := scanEvent(executor.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking event ID %d: %v", ErrDatabaseError, id, err)
	}
	return event, nil
}

func (r *eventRepository) GetEvents(filters models.EventFilters, limit int) ([]models.Event, error) {
	events := []models.Event{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + eventColumns + `, ` + eventParticipants + ` FROM events e`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("e.event_date >= $%d", argCount))
		args = append(args, dateParam(filters.From))
		argCount++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("e.event_date <= $%d", argCount))
		args = append(args, dateParam(filters.To))
		argCount++
	}
	if filters.Type != nil && *filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("e.type = $%d", argCount))
		args = append(args, *filters.Type)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY e.event_date, e.start_time")
	if limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, limit)
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying events: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var count int
		event, err := scanEvent(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning event: %v", ErrDatabaseError, err)
		}
		event.Participants = count
		events = append(events, *event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating event rows: %v", ErrDatabaseError, err)
	}
	return events, nil
}

func (r *eventRepository) UpdateEvent(executor SQLExecutor, event *models.Event) error {
	query := `UPDATE events SET
		title = $1, description = $2, event_date = $3, start_time = $4, type = $5, client_id = $6,
		client_name = $7, trainer = $8, duration_minutes = $9, status = $10, max_participants = $11,
		price = $12, notes = $13, updated_at = NOW()
		WHERE id = $14`
	result, err := executor.Exec(query,
		event.Title, event.Description, dateParam(&event.Date), event.StartTime, event.Type, event.ClientID,
		event.ClientName, event.Trainer, event.DurationMinutes, event.Status, event.MaxParticipants,
		event.Price, event.Notes, event.ID,
	)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating event ID %d", event.ID))
	}
	return expectOneRow(result, "event update")
}

func (r *eventRepository) DeleteEvent(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting event ID %d", id))
	}
	return expectOneRow(result, "event delete")
}

func (r *eventRepository) CountByStatus(status string) (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM events WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting %s events: %v", ErrDatabaseError, status, err)
	}
	return count, nil
}

func (r *eventRepository) CountRegistrations(executor SQLExecutor, eventID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`
	if err := executor.QueryRow(query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting attendees of event %d: %v", ErrDatabaseError, eventID, err)
	}
	return count, nil
}

func (r *eventRepository) CreateRegistration(executor SQLExecutor, reg *models.EventRegistration) (int64, error) {
	query := `INSERT INTO event_registrations (event_id, client_id, status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, registered_at`
	err := executor.QueryRow(query, reg.EventID, reg.ClientID, reg.Status, reg.Notes).Scan(&reg.ID, &reg.RegisteredAt)
	if err != nil {
		return 0, wrapWriteError(err, "registering event attendee")
	}
	return reg.ID, nil
}

func (r *eventRepository) GetRegistrations(eventID int64) ([]models.EventRegistration, error) {
	query := `SELECT r.id, r.event_id, r.client_id, c.full_name, r.status, r.notes, r.registered_at
		FROM event_registrations r JOIN clients c ON c.id = r.client_id
		WHERE r.event_id = $1
		ORDER BY r.registered_at DESC`
	rows, err := r.db.Query(query, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying attendees of event %d: %v", ErrDatabaseError, eventID, err)
	}
	defer rows.Close()

	list := []models.EventRegistration{}
	for rows.Next() {
		var reg models.EventRegistration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.ClientID, &reg.ClientName, &reg.Status, &reg.Notes, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("%w: scanning attendee: %v", ErrDatabaseError, err)
		}
		list = append(list, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating attendee rows: %v", ErrDatabaseError, err)
	}
	return list, nil
}

func (r *eventRepository) DeleteRegistration(executor SQLExecutor, eventID, clientID int64) error {
	result, err := executor.Exec(`DELETE FROM event_registrations WHERE event_id = $1 AND client_id = $2`, eventID, clientID)
	if err != nil {
		return wrapWriteError(err, "removing event attendee")
	}
	return expectOneRow(result, "attendee delete")
}
