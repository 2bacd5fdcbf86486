package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_backend/internal/models"

	"github.com/lib/pq"
)

// RoutineRepository defines the interface for exercises, routine templates and client routines.
type RoutineRepository interface {
	CreateExercise(executor SQLExecutor, e *models.Exercise) (int64, error)
	GetExerciseByID(id int64) (*models.Exercise, error)
	GetExercises(search *string) ([]models.Exercise, error)
	UpdateExercise(executor SQLExecutor, e *models.Exercise) error
	DeleteExercise(executor SQLExecutor, id int64) error

	CreateTemplate(executor SQLExecutor, t *models.RoutineTemplate) (int64, error)
	GetTemplateByID(id int64) (*models.RoutineTemplate, error)
	GetTemplates(search *string) ([]models.RoutineTemplate, error)
	UpdateTemplate(executor SQLExecutor, t *models.RoutineTemplate) error
	DeleteTemplate(executor SQLExecutor, id int64) error
	AddTemplateExercise(executor SQLExecutor, e *models.RoutineTemplateExercise) (int64, error)
	DeleteTemplateExercise(executor SQLExecutor, templateID, lineID int64) error

	CreateRoutine(executor SQLExecutor, r *models.Routine) (int64, error)
	GetRoutineByID(id int64) (*models.Routine, error)
	GetRoutinesByClient(clientID int64) ([]models.Routine, error)
	UpdateRoutine(executor SQLExecutor, r *models.Routine) error
	DeleteRoutine(executor SQLExecutor, id int64) error
	AddRoutineExercise(executor SQLExecutor, e *models.RoutineExercise) (int64, error)
	GetRoutineExercise(routineID, lineID int64) (*models.RoutineExercise, error)
	UpdateRoutineExercise(executor SQLExecutor, e *models.RoutineExercise) error
	DeleteRoutineExercise(executor SQLExecutor, routineID, lineID int64) error
}

type routineRepository struct {
	db *sql.DB
}

// NewRoutineRepository creates a new instance of RoutineRepository.
func NewRoutineRepository(db *sql.DB) RoutineRepository {
	return &routineRepository{db: db}
}

// CreateExercise adds an exercise to the catalogue.
func (r *routineRepository) CreateExercise(executor SQLExecutor, e *models.Exercise) (int64, error) {
	query := `INSERT INTO exercises (name, category, difficulty, muscles, description, image_url, video_url, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	e.CreatedAt = time.Now()
	if e.Muscles == nil {
		e.Muscles = []string{}
	}
	err := executor.QueryRow(query, e.Name, e.Category, e.Difficulty, pq.Array(e.Muscles), e.Description,
		e.ImageURL, e.VideoURL, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating exercise")
	}
	return e.ID, nil
}

// GetExercises lists the catalogue ordered by name.
func (r *routineRepository) GetExercises(search *string) ([]models.Exercise, error) {
	query := `SELECT ` + exerciseColumns + `
	          FROM exercises
	          WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%')
	          ORDER BY name ASC`
	rows, err := r.db.Query(query, trimmedOrNil(search))
	if err != nil {
		return nil, fmt.Errorf("%w: querying exercises: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	list := []models.Exercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning exercise: %v", ErrDatabaseError, err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating exercises: %v", ErrDatabaseError, err)
	}
	return list, nil
}

const exerciseColumns = `id, name, category, difficulty, muscles, description, image_url, video_url, created_at`

func scanExercise(row scanner) (*models.Exercise, error) {
	var e models.Exercise
	var muscles []string
	if err := row.Scan(&e.ID, &e.Name, &e.Category, &e.Difficulty, pq.Array(&muscles), &e.Description,
		&e.ImageURL, &e.VideoURL, &e.CreatedAt); err != nil {
		return nil, err
	}
	if muscles == nil {
		muscles = []string{}
	}
	e.Muscles = muscles
	return &e, nil
}

// GetExerciseByID retrieves one catalogue entry.
func (r *routineRepository) GetExerciseByID(id int64) (*models.Exercise, error) {
	e, err := scanExercise(r.db.QueryRow(`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting exercise %d: %v", ErrDatabaseError, id, err)
	}
	return e, nil
}

// UpdateExercise overwrites a catalogue entry.
func (r *routineRepository) UpdateExercise(executor SQLExecutor, e *models.Exercise) error {
	if e.Muscles == nil {
		e.Muscles = []string{}
	}
	query := `UPDATE exercises SET name = $1, category = $2, difficulty = $3, muscles = $4, description = $5,
	              image_url = $6, video_url = $7
	          WHERE id = $8`
	result, err := executor.Exec(query, e.Name, e.Category, e.Difficulty, pq.Array(e.Muscles), e.Description,
		e.ImageURL, e.VideoURL, e.ID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating exercise %d", e.ID))
	}
	return expectOneRow(result, fmt.Sprintf("updating exercise %d", e.ID))
}

// DeleteExercise removes a catalogue entry. Template lines keep their own name.
func (r *routineRepository) DeleteExercise(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting exercise %d", id))
	}
	return expectOneRow(result, fmt.Sprintf("deleting exercise %d", id))
}

// CreateTemplate inserts a routine template without exercises.
func (r *routineRepository) CreateTemplate(executor SQLExecutor, t *models.RoutineTemplate) (int64, error) {
	query := `INSERT INTO routine_templates (name, description, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $4)
	          RETURNING id`
	currentTime := time.Now()
	if err := executor.QueryRow(query, t.Name, t.Description, t.CreatedBy, currentTime).Scan(&t.ID); err != nil {
		return 0, wrapWriteError(err, "creating routine template")
	}
	t.CreatedAt = currentTime
	t.UpdatedAt = currentTime
	return t.ID, nil
}

// GetTemplateByID retrieves a template with its exercises ordered by position.
func (r *routineRepository) GetTemplateByID(id int64) (*models.RoutineTemplate, error) {
	t := &models.RoutineTemplate{}
	err := r.db.QueryRow(`SELECT id, name, description, created_by, created_at, updated_at FROM routine_templates WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting routine template %d: %v", ErrDatabaseError, id, err)
	}

	query := `SELECT te.id, te.template_id, te.exercise_id, COALESCE(te.name, e.name), te.sets, te.repetitions,
	                 te.suggested_weight, te.day, te.notes, te.position
	          FROM routine_template_exercises te
	          LEFT JOIN exercises e ON e.id = te.exercise_id
	          WHERE te.template_id = $1
	          ORDER BY te.position ASC NULLS LAST, te.id ASC`
	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("%w: querying template exercises of %d: %v", ErrDatabaseError, id, err)
	}
	defer rows.Close()

	t.Exercises = []models.RoutineTemplateExercise{}
	for rows.Next() {
		var te models.RoutineTemplateExercise
		if err := rows.Scan(&te.ID, &te.TemplateID, &te.ExerciseID, &te.Name, &te.Sets, &te.Repetitions,
			&te.SuggestedWeight, &te.Day, &te.Notes, &te.Position); err != nil {
			return nil, fmt.Errorf("%w: scanning template exercise: %v", ErrDatabaseError, err)
		}
		t.Exercises = append(t.Exercises, te)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating template exercises: %v", ErrDatabaseError, err)
	}
	return t, nil
}

// GetTemplates lists templates, newest first, optionally filtered by name.
func (r *routineRepository) GetTemplates(search *string) ([]models.RoutineTemplate, error) {
	query := `SELECT id, name, description, created_by, created_at, updated_at
	          FROM routine_templates
	          WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
	          ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(query, trimmedOrNil(search))
	if err != nil {
		return nil, fmt.Errorf("%w: querying routine templates: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	list := []models.RoutineTemplate{}
	for rows.Next() {
		var t models.RoutineTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning routine template: %v", ErrDatabaseError, err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating routine templates: %v", ErrDatabaseError, err)
	}
	return list, nil
}

// UpdateTemplate overwrites name and description of a template.
func (r *routineRepository) UpdateTemplate(executor SQLExecutor, t *models.RoutineTemplate) error {
	t.UpdatedAt = time.Now()
	result, err := executor.Exec(`UPDATE routine_templates SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		t.Name, t.Description, t.UpdatedAt, t.ID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating routine template %d", t.ID))
	}
	return expectOneRow(result, fmt.Sprintf("updating routine template %d", t.ID))
}

// DeleteTemplate removes a template and its exercise lines. Assigned routines are kept.
func (r *routineRepository) DeleteTemplate(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM routine_templates WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting routine template %d", id))
	}
	return expectOneRow(result, fmt.Sprintf("deleting routine template %d", id))
}

// AddTemplateExercise appends a line to a template.
func (r *routineRepository) AddTemplateExercise(executor SQLExecutor, e *models.RoutineTemplateExercise) (int64, error) {
	query := `INSERT INTO routine_template_exercises (template_id, exercise_id, name, sets, repetitions, suggested_weight, day, notes, position)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	err := executor.QueryRow(query, e.TemplateID, e.ExerciseID, e.Name, e.Sets, e.Repetitions, e.SuggestedWeight,
		e.Day, e.Notes, e.Position).Scan(&e.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("adding exercise to template %d", e.TemplateID))
	}
	return e.ID, nil
}

// DeleteTemplateExercise removes a line of the given template.
func (r *routineRepository) DeleteTemplateExercise(executor SQLExecutor, templateID, lineID int64) error {
	result, err := executor.Exec(`DELETE FROM routine_template_exercises WHERE id = $1 AND template_id = $2`, lineID, templateID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting line %d of template %d", lineID, templateID))
	}
	return expectOneRow(result, fmt.Sprintf("deleting line %d of template %d", lineID, templateID))
}

// CreateRoutine inserts a client routine without exercises.
func (r *routineRepository) CreateRoutine(executor SQLExecutor, rt *models.Routine) (int64, error) {
	query := `INSERT INTO routines (client_id, template_id, name, description, status, start_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query, rt.ClientID, rt.TemplateID, rt.Name, rt.Description, rt.Status,
		rt.StartDate.Format(models.DateLayout), currentTime).Scan(&rt.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("creating routine for client %d", rt.ClientID))
	}
	rt.CreatedAt = currentTime
	rt.UpdatedAt = currentTime
	return rt.ID, nil
}

const routineColumns = `id, client_id, template_id, name, description, status, start_date, end_date, created_at, updated_at`

const routineExerciseColumns = `re.id, re.routine_id, re.name, re.sets, re.repetitions, re.day, re.notes, re.position`

func scanRoutine(row scanner) (*models.Routine, error) {
	var rt models.Routine
	var end sql.NullTime
	if err := row.Scan(&rt.ID, &rt.ClientID, &rt.TemplateID, &rt.Name, &rt.Description, &rt.Status,
		&rt.StartDate, &end, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return nil, err
	}
	rt.EndDate = nullTimePtr(end)
	rt.Exercises = []models.RoutineExercise{}
	return &rt, nil
}

func scanRoutineExercise(row scanner) (*models.RoutineExercise, error) {
	var e models.RoutineExercise
	if err := row.Scan(&e.ID, &e.RoutineID, &e.Name, &e.Sets, &e.Repetitions, &e.Day, &e.Notes, &e.Position); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetRoutineByID retrieves a client routine with its exercises ordered by position.
func (r *routineRepository) GetRoutineByID(id int64) (*models.Routine, error) {
	rt, err := scanRoutine(r.db.QueryRow(`SELECT `+routineColumns+` FROM routines WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting routine %d: %v", ErrDatabaseError, id, err)
	}

	rows, err := r.db.Query(`SELECT `+routineExerciseColumns+`
	          FROM routine_exercises re
	          WHERE re.routine_id = $1
	          ORDER BY re.position ASC NULLS LAST, re.id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: querying exercises of routine %d: %v", ErrDatabaseError, id, err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanRoutineExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning routine exercise: %v", ErrDatabaseError, err)
		}
		rt.Exercises = append(rt.Exercises, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating routine exercises: %v", ErrDatabaseError, err)
	}
	return rt, nil
}

// GetRoutinesByClient lists a client's routines with their exercises, newest first.
func (r *routineRepository) GetRoutinesByClient(clientID int64) ([]models.Routine, error) {
	rows, err := r.db.Query(`SELECT `+routineColumns+`
	          FROM routines WHERE client_id = $1 ORDER BY created_at DESC, id DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying routines of client %d: %v", ErrDatabaseError, clientID, err)
	}
	defer rows.Close()

	routines := []models.Routine{}
	index := map[int64]int{}
	for rows.Next() {
		rt, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning routine: %v", ErrDatabaseError, err)
		}
		index[rt.ID] = len(routines)
		routines = append(routines, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating routines: %v", ErrDatabaseError, err)
	}
	if len(routines) == 0 {
		return routines, nil
	}

	exRows, err := r.db.Query(`SELECT `+routineExerciseColumns+`
	          FROM routine_exercises re JOIN routines r ON r.id = re.routine_id
	          WHERE r.client_id = $1
	          ORDER BY re.position ASC NULLS LAST, re.id ASC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying routine exercises of client %d: %v", ErrDatabaseError, clientID, err)
	}
	defer exRows.Close()

	for exRows.Next() {
		e, err := scanRoutineExercise(exRows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning routine exercise: %v", ErrDatabaseError, err)
		}
		if i, ok := index[e.RoutineID]; ok {
			routines[i].Exercises = append(routines[i].Exercises, *e)
		}
	}
	if err := exRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating routine exercises: %v", ErrDatabaseError, err)
	}
	return routines, nil
}

// UpdateRoutine overwrites the editable fields of a client routine.
func (r *routineRepository) UpdateRoutine(executor SQLExecutor, rt *models.Routine) error {
	rt.UpdatedAt = time.Now()
	query := `UPDATE routines SET name = $1, description = $2, status = $3, start_date = $4, end_date = $5, updated_at = $6
	          WHERE id = $7`
	result, err := executor.Exec(query, rt.Name, rt.Description, rt.Status, rt.StartDate.Format(models.DateLayout),
		dateParam(rt.EndDate), rt.UpdatedAt, rt.ID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating routine %d", rt.ID))
	}
	return expectOneRow(result, fmt.Sprintf("updating routine %d", rt.ID))
}

// DeleteRoutine removes a client routine; its exercise lines cascade.
func (r *routineRepository) DeleteRoutine(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM routines WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting routine %d", id))
	}
	return expectOneRow(result, fmt.Sprintf("deleting routine %d", id))
}

// AddRoutineExercise appends a line to a client routine.
func (r *routineRepository) AddRoutineExercise(executor SQLExecutor, e *models.RoutineExercise) (int64, error) {
	query := `INSERT INTO routine_exercises (routine_id, name, sets, repetitions, day, notes, position)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := executor.QueryRow(query, e.RoutineID, e.Name, e.Sets, e.Repetitions, e.Day, e.Notes, e.Position).Scan(&e.ID)
	if err != nil {
		return 0, wrapWriteError(err, fmt.Sprintf("adding exercise to routine %d", e.RoutineID))
	}
	return e.ID, nil
}

// GetRoutineExercise retrieves a line only when it belongs to the given routine.
func (r *routineRepository) GetRoutineExercise(routineID, lineID int64) (*models.RoutineExercise, error) {
	e, err := scanRoutineExercise(r.db.QueryRow(`SELECT `+routineExerciseColumns+`
	          FROM routine_exercises re WHERE re.id = $1 AND re.routine_id = $2`, lineID, routineID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting line %d of routine %d: %v", ErrDatabaseError, lineID, routineID, err)
	}
	return e, nil
}

// UpdateRoutineExercise overwrites a line of its routine.
func (r *routineRepository) UpdateRoutineExercise(executor SQLExecutor, e *models.RoutineExercise) error {
	query := `UPDATE routine_exercises SET name = $1, sets = $2, repetitions = $3, day = $4, notes = $5, position = $6
	          WHERE id = $7 AND routine_id = $8`
	result, err := executor.Exec(query, e.Name, e.Sets, e.Repetitions, e.Day, e.Notes, e.Position, e.ID, e.RoutineID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("updating line %d of routine %d", e.ID, e.RoutineID))
	}
	return expectOneRow(result, fmt.Sprintf("updating line %d of routine %d", e.ID, e.RoutineID))
}

// DeleteRoutineExercise removes a line of the given routine.
func (r *routineRepository) DeleteRoutineExercise(executor SQLExecutor, routineID, lineID int64) error {
	result, err := executor.Exec(`DELETE FROM routine_exercises WHERE id = $1 AND routine_id = $2`, lineID, routineID)
	if err != nil {
		return wrapWriteError(err, fmt.Sprintf("deleting line %d of routine %d", lineID, routineID))
	}
	return expectOneRow(result, fmt.Sprintf("deleting line %d of routine %d", lineID, routineID))
}

func trimmedOrNil(s *string) interface{} {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return strings.TrimSpace(*s)
}
