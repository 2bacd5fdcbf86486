package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
	"gym_backend/pkg/utils"
)

// --- Custom Service Errors for Events ---
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventValidation   = errors.New("event data validation error")
	ErrEventFull         = errors.New("event has no free spots")
	ErrAlreadyRegistered = errors.New("client is already registered for this event")
	ErrAttendeeNotFound  = errors.New("client is not registered for this event")
)

// Event defaults.
const (
	EventListLimit         = 100
	DefaultEventDuration   = 60
	DefaultMaxParticipants = 1
)

// --- Event DTOs ---

// CreateEventRequest carries a new event. A max_participants of 0 removes the limit.
type CreateEventRequest struct {
	Title           string   `json:"title" binding:"required"`
	Description     *string  `json:"description"`
	Date            string   `json:"date" binding:"required"`
	Time            string   `json:"time" binding:"required"`
	Type            string   `json:"type" binding:"required"`
	ClientID        *int64   `json:"client_id"`
	ClientName      *string  `json:"client_name"`
	Trainer         *string  `json:"trainer"`
	DurationMinutes *int     `json:"duration_minutes"`
	Status          *string  `json:"status"`
	MaxParticipants *int     `json:"max_participants"`
	Price           *float64 `json:"price"`
	Notes           *string  `json:"notes"`
}

type UpdateEventRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Date            *string  `json:"date"`
	Time            *string  `json:"time"`
	Type            *string  `json:"type"`
	ClientID        *int64   `json:"client_id"`
	ClientName      *string  `json:"client_name"`
	Trainer         *string  `json:"trainer"`
	DurationMinutes *int     `json:"duration_minutes"`
	Status          *string  `json:"status"`
	MaxParticipants *int     `json:"max_participants"`
	Price           *float64 `json:"price"`
	Notes           *string  `json:"notes"`
}

// EventQuery carries the raw list filters.
type EventQuery struct {
	From string
	To   string
	Type *string
}

type RegisterAttendeeRequest struct {
	ClientID int64   `json:"client_id" binding:"required"`
	Status   *string `json:"status"`
	Notes    *string `json:"notes"`
}

// --- EventService Interface ---
type EventService interface {
	CreateEvent(req CreateEventRequest) (*models.Event, error)
	GetEventByID(id int64) (*models.Event, error)
	GetEvents(q EventQuery) ([]models.Event, error)
	UpdateEvent(id int64, req UpdateEventRequest) (*models.Event, error)
	DeleteEvent(id int64) error
	RegisterAttendee(eventID int64, req RegisterAttendeeRequest) (*models.EventRegistration, error)
	GetAttendees(eventID int64) ([]models.EventRegistration, error)
	RemoveAttendee(eventID, clientID int64) error
}

type eventService struct {
	eventRepo  repositories.EventRepository
	clientRepo repositories.ClientRepository
	db         *sql.DB
	clock      GymClock
}

// NewEventService creates a new instance of EventService.
func NewEventService(er repositories.EventRepository, cr repositories.ClientRepository, db *sql.DB, clock GymClock) EventService {
	return &eventService{eventRepo: er, clientRepo: cr, db: db, clock: clock}
}

func eventValidation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrEventValidation, fmt.Sprintf(format, args...))
}

// applyCapacity maps the requested limit onto the event: 0 means unlimited.
func applyCapacity(event *models.Event, limit *int) error {
	if limit == nil {
		return nil
	}
	switch {
	case *limit < 0:
		return eventValidation("max_participants cannot be negative")
	case *limit == 0:
		event.MaxParticipants = nil
	default:
		n := *limit
		event.MaxParticipants = &n
	}
	return nil
}

func (s *eventService) parseEventDate(value string) (time.Time, error) {
	d, err := parseCalendarDate(value, s.clock.Location)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return time.Time{}, eventValidation("date is required")
	}
	return *d, nil
}

// linkClient checks the optional linked client and fills the display name from it.
func (s *eventService) linkClient(event *models.Event) error {
	if event.ClientID == nil {
		return nil
	}
	client, err := s.clientRepo.GetClientByID(*event.ClientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: ID %d", ErrClientNotFound, *event.ClientID)
		}
		return fmt.Errorf("failed to validate event client: %w", err)
	}
	if event.ClientName == nil {
		name := client.FullName
		event.ClientName = &name
	}
	return nil
}

func validateEvent(event *models.Event) error {
	if event.Title == "" {
		return eventValidation("title is required")
	}
	if event.Type == "" {
		return eventValidation("type is required")
	}
	if !clockTimeRegex.MatchString(event.StartTime) {
		return eventValidation("time must use HH:MM")
	}
	if event.DurationMinutes <= 0 {
		return eventValidation("duration_minutes must be positive")
	}
	if !models.IsValidEventStatus(event.Status) {
		return eventValidation("invalid status '%s'", event.Status)
	}
	if event.Price != nil && *event.Price < 0 {
		return eventValidation("price cannot be negative")
	}
	return nil
}

func (s *eventService) CreateEvent(req CreateEventRequest) (*models.Event, error) {
	date, err := s.parseEventDate(req.Date)
	if err != nil {
		return nil, err
	}
	capacity := DefaultMaxParticipants
	event := &models.Event{
		Title:           strings.TrimSpace(req.Title),
		Description:     trimmedPtr(req.Description),
		Date:            date,
		StartTime:       strings.TrimSpace(req.Time),
		Type:            strings.ToLower(strings.TrimSpace(req.Type)),
		ClientID:        req.ClientID,
		ClientName:      trimmedPtr(req.ClientName),
		Trainer:         trimmedPtr(req.Trainer),
		DurationMinutes: DefaultEventDuration,
		Status:          models.EventStatusScheduled,
		MaxParticipants: &capacity,
		Price:           req.Price,
		Notes:           trimmedPtr(req.Notes),
	}
	if req.DurationMinutes != nil {
		event.DurationMinutes = *req.DurationMinutes
	}
	if req.Status != nil && strings.TrimSpace(*req.Status) != "" {
		event.Status = strings.ToLower(strings.TrimSpace(*req.Status))
	}
	if err := applyCapacity(event, req.MaxParticipants); err != nil {
		return nil, err
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if err := s.linkClient(event); err != nil {
		return nil, err
	}

	if _, err := s.eventRepo.CreateEvent(s.db, event); err != nil {
		return nil, fmt.Errorf("failed to create event in repository: %w", err)
	}
	utils.LogInfo("event created", map[string]interface{}{
		"event_id": event.ID,
		"date":     dateKey(event.Date),
		"type":     event.Type,
	})
	return event, nil
}

func (s *eventService) GetEventByID(id int64) (*models.Event, error) {
	event, err := s.eventRepo.GetEventByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}
	regs, err := s.eventRepo.GetRegistrations(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event attendees: %w", err)
	}
	event.Registrations = regs
	return event, nil
}

func (s *eventService) GetEvents(q EventQuery) ([]models.Event, error) {
	from, err := parseCalendarDate(q.From, s.clock.Location)
	if err != nil {
		return nil, err
	}
	to, err := parseCalendarDate(q.To, s.clock.Location)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, eventValidation("to must not be before from")
	}
	filters := models.EventFilters{From: from, To: to}
	if q.Type != nil && strings.TrimSpace(*q.Type) != "" {
		t := strings.ToLower(strings.TrimSpace(*q.Type))
		filters.Type = &t
	}
	events, err := s.eventRepo.GetEvents(filters, EventListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}

func (s *eventService) UpdateEvent(id int64, req UpdateEventRequest) (*models.Event, error) {
	event, err := s.eventRepo.GetEventByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event for update: %w", err)
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = trimmedPtr(req.Description)
	}
	if req.Date != nil {
		date, err := s.parseEventDate(*req.Date)
		if err != nil {
			return nil, err
		}
		event.Date = date
	}
	if req.Time != nil {
		event.StartTime = strings.TrimSpace(*req.Time)
	}
	if req.Type != nil {
		event.Type = strings.ToLower(strings.TrimSpace(*req.Type))
	}
	if req.ClientID != nil {
		event.ClientID = req.ClientID
		if req.ClientName == nil {
			event.ClientName = nil
		}
	}
	if req.ClientName != nil {
		event.ClientName = trimmedPtr(req.ClientName)
	}
	if req.Trainer != nil {
		event.Trainer = trimmedPtr(req.Trainer)
	}
	if req.DurationMinutes != nil {
		event.DurationMinutes = *req.DurationMinutes
	}
	if req.Status != nil {
		event.Status = strings.ToLower(strings.TrimSpace(*req.Status))
	}
	if req.Price != nil {
		event.Price = req.Price
	}
	if req.Notes != nil {
		event.Notes = trimmedPtr(req.Notes)
	}
	if err := applyCapacity(event, req.MaxParticipants); err != nil {
		return nil, err
	}
	if event.MaxParticipants != nil && event.Participants > *event.MaxParticipants {
		return nil, eventValidation("max_participants is below the %d registered attendees", event.Participants)
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if req.ClientID != nil {
		if err := s.linkClient(event); err != nil {
			return nil, err
		}
	}

	if err := s.eventRepo.UpdateEvent(s.db, event); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event in repository: %w", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(id int64) error {
	if err := s.eventRepo.DeleteEvent(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// RegisterAttendee signs a client up while holding the event row lock,
// so the capacity check and the insert see the same attendee count.
func (s *eventService) RegisterAttendee(eventID int64, req RegisterAttendeeRequest) (*models.EventRegistration, error) {
	status := models.RegistrationPresent
	if req.Status != nil && strings.TrimSpace(*req.Status) != "" {
		status = strings.ToLower(strings.TrimSpace(*req.Status))
		if !models.IsValidRegistrationStatus(status) {
			return nil, eventValidation("invalid attendee status '%s'", status)
		}
	}
	client, err := s.clientRepo.GetClientByID(req.ClientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client for event: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	event, err := s.eventRepo.LockEvent(tx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	if event.Status == models.EventStatusCancelled {
		return nil, eventValidation("event is cancelled")
	}
	count, err := s.eventRepo.CountRegistrations(tx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendees: %w", err)
	}
	if event.IsFull(count) {
		return nil, ErrEventFull
	}

	reg := &models.EventRegistration{
		EventID:    eventID,
		ClientID:   client.ID,
		ClientName: client.FullName,
		Status:     status,
		Notes:      trimmedPtr(req.Notes),
	}
	if _, err := s.eventRepo.CreateRegistration(tx, reg); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to register attendee: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit attendee registration: %w", err)
	}

	utils.LogInfo("event attendee registered", map[string]interface{}{
		"event_id":  eventID,
		"client_id": client.ID,
		"attendees": count + 1,
	})
	return reg, nil
}

func (s *eventService) GetAttendees(eventID int64) ([]models.EventRegistration, error) {
	if _, err := s.eventRepo.GetEventByID(eventID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	regs, err := s.eventRepo.GetRegistrations(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event attendees: %w", err)
	}
	return regs, nil
}

func (s *eventService) RemoveAttendee(eventID, clientID int64) error {
	if err := s.eventRepo.DeleteRegistration(s.db, eventID, clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAttendeeNotFound
		}
		return fmt.Errorf("failed to remove attendee: %w", err)
	}
	return nil
}
