package services

import (
	"errors"
	"testing"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
	"gym_backend/internal/repositories/repofakes"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	templateColumns         = []string{"id", "name", "description", "created_by", "created_at", "updated_at"}
	templateExerciseColumns = []string{"id", "template_id", "exercise_id", "name", "sets", "repetitions", "suggested_weight", "day", "notes", "position"}
	routineColumns          = []string{"id", "client_id", "template_id", "name", "description", "status", "start_date", "end_date", "created_at", "updated_at"}
	routineExerciseColumns  = []string{"id", "routine_id", "name", "sets", "repetitions", "day", "notes", "position"}
	exerciseColumns         = []string{"id", "name", "category", "difficulty", "muscles", "description", "image_url", "video_url", "created_at"}
)

func newRoutineFixture(t *testing.T) (sqlmock.Sqlmock, *repofakes.Store, RoutineService) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := repofakes.NewStore()
	clock := FixedClock(time.Date(2024, 3, 10, 9, 0, 0, 0, lima), lima)
	svc := NewRoutineService(repositories.NewRoutineRepository(db), repofakes.NewClientRepository(store), db, clock)
	return mock, store, svc
}

func expectTemplate(mock sqlmock.Sqlmock, id int64) {
	created := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, name, description, created_by, created_at, updated_at FROM routine_templates").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(templateColumns).AddRow(id, "Full body", nil, "coach", created, created))
	mock.ExpectQuery("FROM routine_template_exercises te").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(templateExerciseColumns).
			AddRow(1, id, 10, "Squat", 4, "8-10", 60.0, "Mon", nil, 1).
			AddRow(2, id, nil, "Plank", 3, "45s", nil, "Mon", "core", 2))
}

func TestAssignTemplate_CopiesExercisesInOneTransaction(t *testing.T) {
	mock, store, svc := newRoutineFixture(t)
	c := store.AddClient(models.Client{FullName: "Ana"})

	expectTemplate(mock, 7)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO routines").
		WithArgs(c.ID, int64(7), "Full body", sqlmock.AnyArg(), "active", "2024-03-10", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery("INSERT INTO routine_exercises").
		WithArgs(int64(100), "Squat", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1000))
	mock.ExpectQuery("INSERT INTO routine_exercises").
		WithArgs(int64(100), "Plank", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1001))
	mock.ExpectCommit()

	routine, err := svc.AssignTemplate(c.ID, AssignRoutineRequest{TemplateID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(100), routine.ID)
	assert.Equal(t, "Full body", routine.Name)
	assert.Equal(t, models.RoutineStatusActive, string(routine.Status))
	require.Len(t, routine.Exercises, 2)
	assert.Equal(t, "Squat", routine.Exercises[0].Name)
	assert.Equal(t, int64(1001), routine.Exercises[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignTemplate_RollsBackOnFailedLine(t *testing.T) {
	mock, store, svc := newRoutineFixture(t)
	c := store.AddClient(models.Client{FullName: "Ana"})

	expectTemplate(mock, 7)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO routines").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery("INSERT INTO routine_exercises").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.AssignTemplate(c.ID, AssignRoutineRequest{TemplateID: 7, Name: strPtr("Custom")})
	require.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrDatabaseError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignTemplate_Errors(t *testing.T) {
	mock, store, svc := newRoutineFixture(t)

	_, err := svc.AssignTemplate(404, AssignRoutineRequest{TemplateID: 7})
	assert.ErrorIs(t, err, ErrClientNotFound)

	c := store.AddClient(models.Client{FullName: "Ana"})
	mock.ExpectQuery("FROM routine_templates").
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(templateColumns))
	_, err = svc.AssignTemplate(c.ID, AssignRoutineRequest{TemplateID: 8})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddTemplateExercise_Validation(t *testing.T) {
	mock, _, svc := newRoutineFixture(t)

	_, err := svc.AddTemplateExercise(7, AddTemplateExerciseRequest{})
	assert.ErrorIs(t, err, ErrRoutineValidation)

	_, err = svc.AddTemplateExercise(7, AddTemplateExerciseRequest{Name: strPtr("Row"), Sets: intPtr(0)})
	assert.ErrorIs(t, err, ErrRoutineValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMuscleList_UnmarshalJSON(t *testing.T) {
	var list MuscleList
	require.NoError(t, list.UnmarshalJSON([]byte(`["chest", " triceps ", ""]`)))
	assert.Equal(t, MuscleList{"chest", "triceps"}, list)

	require.NoError(t, list.UnmarshalJSON([]byte(`"back, biceps"`)))
	assert.Equal(t, MuscleList{"back", "biceps"}, list)

	assert.Error(t, list.UnmarshalJSON([]byte(`42`)))
}

func expectRoutine(mock sqlmock.Sqlmock, id int64) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM routines WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(routineColumns).
			AddRow(id, 3, 7, "Full body", nil, "active", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nil, created, created))
	mock.ExpectQuery("FROM routine_exercises re").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(routineExerciseColumns).
			AddRow(55, id, "Squat", 4, "8-10", "Mon", nil, 1))
}

func TestGetRoutineByID(t *testing.T) {
	mock, _, svc := newRoutineFixture(t)

	expectRoutine(mock, 9)
	rt, err := svc.GetRoutineByID(9)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rt.ClientID)
	assert.Nil(t, rt.EndDate)
	require.Len(t, rt.Exercises, 1)
	assert.Equal(t, "Squat", rt.Exercises[0].Name)

	mock.ExpectQuery("FROM routines WHERE id").WithArgs(int64(10)).WillReturnRows(sqlmock.NewRows(routineColumns))
	_, err = svc.GetRoutineByID(10)
	assert.ErrorIs(t, err, ErrRoutineNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoutine(t *testing.T) {
	mock, _, svc := newRoutineFixture(t)

	expectRoutine(mock, 9)
	mock.ExpectExec("UPDATE routines SET").
		WithArgs("Legs", sqlmock.AnyArg(), "paused", "2024-03-01", "2024-04-30", sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rt, err := svc.UpdateRoutine(9, UpdateRoutineRequest{Name: strPtr(" Legs "), Status: strPtr("Paused"), EndDate: strPtr("2024-04-30")})
	require.NoError(t, err)
	assert.Equal(t, "paused", rt.Status)
	assert.Equal(t, "2024-04-30", rt.EndDate.Format(models.DateLayout))

	expectRoutine(mock, 9)
	_, err = svc.UpdateRoutine(9, UpdateRoutineRequest{Status: strPtr("archived")})
	assert.ErrorIs(t, err, ErrRoutineValidation)

	expectRoutine(mock, 9)
	_, err = svc.UpdateRoutine(9, UpdateRoutineRequest{EndDate: strPtr("2024-02-01")})
	assert.ErrorIs(t, err, ErrRoutineValidation)

	expectRoutine(mock, 9)
	_, err = svc.UpdateRoutine(9, UpdateRoutineRequest{StartDate: strPtr("01/03/2024")})
	assert.ErrorIs(t, err, ErrDateFormat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoutine(t *testing.T) {
	mock, _, svc := newRoutineFixture(t)

	mock.ExpectExec("DELETE FROM routines WHERE id").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.DeleteRoutine(9))

	mock.ExpectExec("DELETE FROM routines WHERE id").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, svc.DeleteRoutine(9), ErrRoutineNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRoutineExercise(t *testing.T) {
	mock, _, svc := newRoutineFixture(t)

	_, err := svc.AddRoutineExercise(9, RoutineExerciseRequest{Sets: intPtr(3)})
	assert.ErrorIs(t, err, ErrRoutineValidation)
	_, err = svc.AddRoutineExercise(9, RoutineExerciseRequest{Name: strPtr("Row"), Sets: intPtr(0)})
	assert.ErrorIs(t, err, ErrRoutineValidation)

	expectRoutine(mock, 9)
	mock.ExpectQuery("INSERT INTO routine_exercises").
		WithArgs(int64(9), "Row", int64(3), "12", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(56))
	line, err := svc.AddRoutineExercise(9, RoutineExerciseRequest{Name: strPtr("Row"), Sets: intPtr(3), Repetitions: strPtr("12")})
	require.NoError(t, err)
	assert.Equal(t, int64(56), line.ID)
	assert.Equal(t, int64(9), line.RoutineID)

	mock.ExpectQuery("FROM routines WHERE id").WithArgs(int64(10)).WillReturnRows(sqlmock.NewRows(routineColumns))
	_, err = svc.AddRoutineExercise(10, RoutineExerciseRequest{Name: strPtr("Row")})
	assert.ErrorIs(t, err, ErrRoutineNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoutineExercise_LineMustBelongToRoutine(t *testing.T) {
	mock, _, svc := newRoutineFixture(t)

	// Line 55 lives in routine 9; asking through routine 12 finds nothing and writes nothing.
	mock.ExpectQuery("FROM routine_exercises re WHERE re.id").
		WithArgs(int64(55), int64(12)).
		WillReturnRows(sqlmock.NewRows(routineExerciseColumns))
	_, err := svc.UpdateRoutineExercise(12, 55, RoutineExerciseRequest{Name: strPtr("Deadlift")})
	assert.ErrorIs(t, err, ErrRoutineExerciseNotFound)

	mock.ExpectQuery("FROM routine_exercises re WHERE re.id").
		WithArgs(int64(55), int64(9)).
		WillReturnRows(sqlmock.NewRows(routineExerciseColumns).AddRow(55, 9, "Squat", 4, "8-10", "Mon", nil, 1))
	mock.ExpectExec("UPDATE routine_exercises SET").
		WithArgs("Deadlift", int64(5), "8-10", "Mon", nil, int64(1), int64(55), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	line, err := svc.UpdateRoutineExercise(9, 55, RoutineExerciseRequest{Name: strPtr("Deadlift"), Sets: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, "Deadlift", line.Name)
	assert.Equal(t, 5, *line.Sets)

	mock.ExpectExec("DELETE FROM routine_exercises").
		WithArgs(int64(55), int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, svc.DeleteRoutineExercise(12, 55), ErrRoutineExerciseNotFound)

	mock.ExpectExec("DELETE FROM routine_template_exercises").
		WithArgs(int64(4), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, svc.DeleteTemplateExercise(7, 4), ErrRoutineExerciseNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExerciseCatalogue(t *testing.T) {
	mock, _, svc := newRoutineFixture(t)
	created := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM exercises WHERE id").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(exerciseColumns).AddRow(10, "Squat", "legs", nil, "{quads,glutes}", nil, nil, nil, created))
	e, err := svc.GetExerciseByID(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"quads", "glutes"}, e.Muscles)

	mock.ExpectQuery("FROM exercises WHERE id").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(exerciseColumns).AddRow(10, "Squat", "legs", nil, "{quads}", nil, nil, nil, created))
	mock.ExpectExec("UPDATE exercises SET").
		WithArgs("Back squat", "legs", "hard", sqlmock.AnyArg(), nil, nil, nil, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	muscles := MuscleList{"quads", "core"}
	e, err = svc.UpdateExercise(10, UpdateExerciseRequest{Name: strPtr("Back squat"), Difficulty: strPtr("hard"), Muscles: &muscles})
	require.NoError(t, err)
	assert.Equal(t, []string{"quads", "core"}, e.Muscles)

	mock.ExpectQuery("FROM exercises WHERE id").WithArgs(int64(11)).WillReturnRows(sqlmock.NewRows(exerciseColumns))
	_, err = svc.UpdateExercise(11, UpdateExerciseRequest{Name: strPtr("X")})
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	mock.ExpectExec("DELETE FROM exercises").WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, svc.DeleteExercise(11), ErrExerciseNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
