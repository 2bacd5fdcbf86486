package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
	"gym_backend/pkg/utils"
)

// --- Custom Service Errors for Routines ---
var (
	ErrTemplateNotFound        = errors.New("routine template not found")
	ErrRoutineNotFound         = errors.New("routine not found")
	ErrExerciseNotFound        = errors.New("exercise not found")
	ErrRoutineExerciseNotFound = errors.New("exercise line not found in this routine")
	ErrRoutineValidation       = errors.New("routine data validation error")
)

// MuscleList accepts either a JSON array or a comma separated string.
type MuscleList []string

// UnmarshalJSON implements json.Unmarshaler.
func (m *MuscleList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*m = cleanFeatures(list)
		return nil
	}
	var csv string
	if err := json.Unmarshal(data, &csv); err != nil {
		return fmt.Errorf("muscles must be a list or a comma separated string")
	}
	*m = utils.SplitCSV(csv)
	return nil
}

// --- Routine DTOs ---
type CreateExerciseRequest struct {
	Name        string     `json:"name" binding:"required"`
	Category    *string    `json:"category"`
	Difficulty  *string    `json:"difficulty"`
	Muscles     MuscleList `json:"muscles"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url"`
	VideoURL    *string    `json:"video_url"`
}

// UpdateExerciseRequest replaces the optional fields it carries.
type UpdateExerciseRequest struct {
	Name        *string     `json:"name"`
	Category    *string     `json:"category"`
	Difficulty  *string     `json:"difficulty"`
	Muscles     *MuscleList `json:"muscles"`
	Description *string     `json:"description"`
	ImageURL    *string     `json:"image_url"`
	VideoURL    *string     `json:"video_url"`
}

type CreateTemplateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	CreatedBy   *string `json:"created_by"`
}

type UpdateTemplateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type AddTemplateExerciseRequest struct {
	ExerciseID      *int64   `json:"exercise_id"`
	Name            *string  `json:"name"`
	Sets            *int     `json:"sets"`
	Repetitions     *string  `json:"repetitions"`
	SuggestedWeight *float64 `json:"suggested_weight"`
	Day             *string  `json:"day"`
	Notes           *string  `json:"notes"`
	Position        *int     `json:"position"`
}

type AssignRoutineRequest struct {
	TemplateID int64   `json:"template_id" binding:"required"`
	Name       *string `json:"name"`
}

type UpdateRoutineRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"` // empty string clears it
}

// RoutineExerciseRequest adds a line to a routine, or patches one on update.
type RoutineExerciseRequest struct {
	Name        *string `json:"name"`
	Sets        *int    `json:"sets"`
	Repetitions *string `json:"repetitions"`
	Day         *string `json:"day"`
	Notes       *string `json:"notes"`
	Position    *int    `json:"position"`
}

// RoutineService manages the exercise catalogue, routine templates and client routines.
type RoutineService interface {
	CreateExercise(req CreateExerciseRequest) (*models.Exercise, error)
	GetExerciseByID(id int64) (*models.Exercise, error)
	GetExercises(search *string) ([]models.Exercise, error)
	UpdateExercise(id int64, req UpdateExerciseRequest) (*models.Exercise, error)
	DeleteExercise(id int64) error
	CreateTemplate(req CreateTemplateRequest) (*models.RoutineTemplate, error)
	GetTemplateByID(id int64) (*models.RoutineTemplate, error)
	GetTemplates(search *string) ([]models.RoutineTemplate, error)
	UpdateTemplate(id int64, req UpdateTemplateRequest) (*models.RoutineTemplate, error)
	DeleteTemplate(id int64) error
	AddTemplateExercise(templateID int64, req AddTemplateExerciseRequest) (*models.RoutineTemplate, error)
	DeleteTemplateExercise(templateID, lineID int64) error
	AssignTemplate(clientID int64, req AssignRoutineRequest) (*models.Routine, error)
	GetClientRoutines(clientID int64) ([]models.Routine, error)
	GetRoutineByID(id int64) (*models.Routine, error)
	UpdateRoutine(id int64, req UpdateRoutineRequest) (*models.Routine, error)
	DeleteRoutine(id int64) error
	AddRoutineExercise(routineID int64, req RoutineExerciseRequest) (*models.RoutineExercise, error)
	UpdateRoutineExercise(routineID, lineID int64, req RoutineExerciseRequest) (*models.RoutineExercise, error)
	DeleteRoutineExercise(routineID, lineID int64) error
}

type routineService struct {
	routineRepo repositories.RoutineRepository
	clientRepo  repositories.ClientRepository
	db          *sql.DB
	clock       GymClock
}

// NewRoutineService creates a new instance of RoutineService.
func NewRoutineService(routineRepo repositories.RoutineRepository, clientRepo repositories.ClientRepository, db *sql.DB, clock GymClock) RoutineService {
	return &routineService{routineRepo: routineRepo, clientRepo: clientRepo, db: db, clock: clock}
}

func (s *routineService) CreateExercise(req CreateExerciseRequest) (*models.Exercise, error) {
	if utils.IsEmpty(req.Name) {
		return nil, fmt.Errorf("%w: exercise name cannot be empty", ErrRoutineValidation)
	}
	e := &models.Exercise{
		Name:        strings.TrimSpace(req.Name),
		Category:    trimmedPtr(req.Category),
		Difficulty:  trimmedPtr(req.Difficulty),
		Muscles:     []string(req.Muscles),
		Description: trimmedPtr(req.Description),
		ImageURL:    trimmedPtr(req.ImageURL),
		VideoURL:    trimmedPtr(req.VideoURL),
	}
	if _, err := s.routineRepo.CreateExercise(s.db, e); err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}
	return e, nil
}

func (s *routineService) GetExercises(search *string) ([]models.Exercise, error) {
	list, err := s.routineRepo.GetExercises(search)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercises: %w", err)
	}
	return list, nil
}

func (s *routineService) GetExerciseByID(id int64) (*models.Exercise, error) {
	e, err := s.routineRepo.GetExerciseByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return e, nil
}

func (s *routineService) UpdateExercise(id int64, req UpdateExerciseRequest) (*models.Exercise, error) {
	e, err := s.GetExerciseByID(id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if utils.IsEmpty(*req.Name) {
			return nil, fmt.Errorf("%w: exercise name cannot be empty", ErrRoutineValidation)
		}
		e.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		e.Category = trimmedPtr(req.Category)
	}
	if req.Difficulty != nil {
		e.Difficulty = trimmedPtr(req.Difficulty)
	}
	if req.Muscles != nil {
		e.Muscles = []string(*req.Muscles)
	}
	if req.Description != nil {
		e.Description = trimmedPtr(req.Description)
	}
	if req.ImageURL != nil {
		e.ImageURL = trimmedPtr(req.ImageURL)
	}
	if req.VideoURL != nil {
		e.VideoURL = trimmedPtr(req.VideoURL)
	}
	if err := s.routineRepo.UpdateExercise(s.db, e); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("failed to update exercise: %w", err)
	}
	return e, nil
}

func (s *routineService) DeleteExercise(id int64) error {
	if err := s.routineRepo.DeleteExercise(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	return nil
}

func (s *routineService) CreateTemplate(req CreateTemplateRequest) (*models.RoutineTemplate, error) {
	if utils.IsEmpty(req.Name) {
		return nil, fmt.Errorf("%w: template name cannot be empty", ErrRoutineValidation)
	}
	t := &models.RoutineTemplate{
		Name:        strings.TrimSpace(req.Name),
		Description: trimmedPtr(req.Description),
		CreatedBy:   trimmedPtr(req.CreatedBy),
	}
	id, err := s.routineRepo.CreateTemplate(s.db, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create routine template: %w", err)
	}
	return s.GetTemplateByID(id)
}

func (s *routineService) GetTemplateByID(id int64) (*models.RoutineTemplate, error) {
	t, err := s.routineRepo.GetTemplateByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get routine template: %w", err)
	}
	return t, nil
}

func (s *routineService) GetTemplates(search *string) ([]models.RoutineTemplate, error) {
	list, err := s.routineRepo.GetTemplates(search)
	if err != nil {
		return nil, fmt.Errorf("failed to get routine templates: %w", err)
	}
	return list, nil
}

func (s *routineService) UpdateTemplate(id int64, req UpdateTemplateRequest) (*models.RoutineTemplate, error) {
	t, err := s.GetTemplateByID(id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if utils.IsEmpty(*req.Name) {
			return nil, fmt.Errorf("%w: template name cannot be empty", ErrRoutineValidation)
		}
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		t.Description = trimmedPtr(req.Description)
	}
	if err := s.routineRepo.UpdateTemplate(s.db, t); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to update routine template: %w", err)
	}
	return s.GetTemplateByID(id)
}

func (s *routineService) DeleteTemplate(id int64) error {
	if err := s.routineRepo.DeleteTemplate(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to delete routine template: %w", err)
	}
	return nil
}

func (s *routineService) AddTemplateExercise(templateID int64, req AddTemplateExerciseRequest) (*models.RoutineTemplate, error) {
	if req.ExerciseID == nil && (req.Name == nil || utils.IsEmpty(*req.Name)) {
		return nil, fmt.Errorf("%w: exercise_id or name is required", ErrRoutineValidation)
	}
	if req.Sets != nil && *req.Sets <= 0 {
		return nil, fmt.Errorf("%w: sets must be positive", ErrRoutineValidation)
	}
	if _, err := s.GetTemplateByID(templateID); err != nil {
		return nil, err
	}
	line := &models.RoutineTemplateExercise{
		TemplateID:      templateID,
		ExerciseID:      req.ExerciseID,
		Name:            trimmedPtr(req.Name),
		Sets:            req.Sets,
		Repetitions:     trimmedPtr(req.Repetitions),
		SuggestedWeight: req.SuggestedWeight,
		Day:             trimmedPtr(req.Day),
		Notes:           trimmedPtr(req.Notes),
		Position:        req.Position,
	}
	if _, err := s.routineRepo.AddTemplateExercise(s.db, line); err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return nil, fmt.Errorf("%w: exercise %d does not exist", ErrRoutineValidation, *req.ExerciseID)
		}
		return nil, fmt.Errorf("failed to add exercise to template: %w", err)
	}
	return s.GetTemplateByID(templateID)
}

func (s *routineService) DeleteTemplateExercise(templateID, lineID int64) error {
	if err := s.routineRepo.DeleteTemplateExercise(s.db, templateID, lineID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRoutineExerciseNotFound
		}
		return fmt.Errorf("failed to delete template exercise: %w", err)
	}
	return nil
}

// AssignTemplate copies a template into a new active routine of the client, in one transaction.
func (s *routineService) AssignTemplate(clientID int64, req AssignRoutineRequest) (*models.Routine, error) {
	if _, err := s.clientRepo.GetClientByID(clientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	t, err := s.GetTemplateByID(req.TemplateID)
	if err != nil {
		return nil, err
	}

	name := t.Name
	if req.Name != nil && !utils.IsEmpty(*req.Name) {
		name = strings.TrimSpace(*req.Name)
	}
	routine := &models.Routine{
		ClientID:    clientID,
		TemplateID:  &t.ID,
		Name:        name,
		Description: t.Description,
		Status:      models.RoutineStatusActive,
		StartDate:   StartOfDay(s.clock.Now(), s.clock.Location),
		Exercises:   []models.RoutineExercise{},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	if _, err := s.routineRepo.CreateRoutine(tx, routine); err != nil {
		return nil, fmt.Errorf("failed to create routine: %w", err)
	}
	for _, te := range t.Exercises {
		line := models.RoutineExercise{
			RoutineID:   routine.ID,
			Name:        utils.DerefString(te.Name),
			Sets:        te.Sets,
			Repetitions: te.Repetitions,
			Day:         te.Day,
			Notes:       te.Notes,
			Position:    te.Position,
		}
		if _, err := s.routineRepo.AddRoutineExercise(tx, &line); err != nil {
			return nil, fmt.Errorf("failed to copy template exercise: %w", err)
		}
		routine.Exercises = append(routine.Exercises, line)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit routine assignment: %w", err)
	}

	utils.LogInfo("routine assigned", map[string]interface{}{
		"client_id":   clientID,
		"template_id": t.ID,
		"routine_id":  routine.ID,
		"exercises":   len(routine.Exercises),
	})
	return routine, nil
}

func (s *routineService) GetClientRoutines(clientID int64) ([]models.Routine, error) {
	list, err := s.routineRepo.GetRoutinesByClient(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client routines: %w", err)
	}
	return list, nil
}

func (s *routineService) GetRoutineByID(id int64) (*models.Routine, error) {
	rt, err := s.routineRepo.GetRoutineByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, fmt.Errorf("failed to get routine: %w", err)
	}
	return rt, nil
}

func (s *routineService) parseDate(value string) (*time.Time, error) {
	return parseCalendarDate(value, s.clock.Location)
}

// parseCalendarDate reads a YYYY-MM-DD date in loc; blank yields nil.
func parseCalendarDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(models.DateLayout, value, loc)
	if err != nil {
		return nil, ErrDateFormat
	}
	return &t, nil
}

func (s *routineService) UpdateRoutine(id int64, req UpdateRoutineRequest) (*models.Routine, error) {
	rt, err := s.GetRoutineByID(id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if utils.IsEmpty(*req.Name) {
			return nil, fmt.Errorf("%w: routine name cannot be empty", ErrRoutineValidation)
		}
		rt.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		rt.Description = trimmedPtr(req.Description)
	}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if !models.IsValidRoutineStatus(status) {
			return nil, fmt.Errorf("%w: invalid status '%s'", ErrRoutineValidation, *req.Status)
		}
		rt.Status = status
	}
	if req.StartDate != nil {
		start, err := s.parseDate(*req.StartDate)
		if err != nil {
			return nil, err
		}
		if start == nil {
			return nil, fmt.Errorf("%w: start_date cannot be cleared", ErrRoutineValidation)
		}
		rt.StartDate = *start
	}
	if req.EndDate != nil {
		if rt.EndDate, err = s.parseDate(*req.EndDate); err != nil {
			return nil, err
		}
	}
	if rt.EndDate != nil && dateKey(*rt.EndDate) < dateKey(rt.StartDate) {
		return nil, fmt.Errorf("%w: end date cannot be before start date", ErrRoutineValidation)
	}

	if err := s.routineRepo.UpdateRoutine(s.db, rt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, fmt.Errorf("failed to update routine: %w", err)
	}
	return rt, nil
}

func (s *routineService) DeleteRoutine(id int64) error {
	if err := s.routineRepo.DeleteRoutine(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRoutineNotFound
		}
		return fmt.Errorf("failed to delete routine: %w", err)
	}
	utils.LogInfo("routine deleted", map[string]interface{}{"routine_id": id})
	return nil
}

func validateRoutineLine(req RoutineExerciseRequest) error {
	if req.Sets != nil && *req.Sets <= 0 {
		return fmt.Errorf("%w: sets must be positive", ErrRoutineValidation)
	}
	if req.Position != nil && *req.Position < 0 {
		return fmt.Errorf("%w: position cannot be negative", ErrRoutineValidation)
	}
	return nil
}

func (s *routineService) AddRoutineExercise(routineID int64, req RoutineExerciseRequest) (*models.RoutineExercise, error) {
	if req.Name == nil || utils.IsEmpty(*req.Name) {
		return nil, fmt.Errorf("%w: name is required", ErrRoutineValidation)
	}
	if err := validateRoutineLine(req); err != nil {
		return nil, err
	}
	if _, err := s.GetRoutineByID(routineID); err != nil {
		return nil, err
	}
	line := &models.RoutineExercise{
		RoutineID:   routineID,
		Name:        strings.TrimSpace(*req.Name),
		Sets:        req.Sets,
		Repetitions: trimmedPtr(req.Repetitions),
		Day:         trimmedPtr(req.Day),
		Notes:       trimmedPtr(req.Notes),
		Position:    req.Position,
	}
	if _, err := s.routineRepo.AddRoutineExercise(s.db, line); err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return nil, ErrRoutineNotFound
		}
		return nil, fmt.Errorf("failed to add exercise to routine: %w", err)
	}
	return line, nil
}

// UpdateRoutineExercise patches a line; a line of another routine is reported as not found.
func (s *routineService) UpdateRoutineExercise(routineID, lineID int64, req RoutineExerciseRequest) (*models.RoutineExercise, error) {
	if err := validateRoutineLine(req); err != nil {
		return nil, err
	}
	line, err := s.routineRepo.GetRoutineExercise(routineID, lineID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRoutineExerciseNotFound
		}
		return nil, fmt.Errorf("failed to get routine exercise: %w", err)
	}
	if req.Name != nil {
		if utils.IsEmpty(*req.Name) {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrRoutineValidation)
		}
		line.Name = strings.TrimSpace(*req.Name)
	}
	if req.Sets != nil {
		line.Sets = req.Sets
	}
	if req.Repetitions != nil {
		line.Repetitions = trimmedPtr(req.Repetitions)
	}
	if req.Day != nil {
		line.Day = trimmedPtr(req.Day)
	}
	if req.Notes != nil {
		line.Notes = trimmedPtr(req.Notes)
	}
	if req.Position != nil {
		line.Position = req.Position
	}
	if err := s.routineRepo.UpdateRoutineExercise(s.db, line); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRoutineExerciseNotFound
		}
		return nil, fmt.Errorf("failed to update routine exercise: %w", err)
	}
	return line, nil
}

func (s *routineService) DeleteRoutineExercise(routineID, lineID int64) error {
	if err := s.routineRepo.DeleteRoutineExercise(s.db, routineID, lineID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRoutineExerciseNotFound
		}
		return fmt.Errorf("failed to delete routine exercise: %w", err)
	}
	return nil
}
