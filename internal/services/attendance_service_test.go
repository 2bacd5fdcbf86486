package services

import (
	"errors"
	"testing"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories/repofakes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// movableClock is a GymClock whose instant tests can advance.
type movableClock struct {
	now time.Time
}

func (m *movableClock) clock() GymClock {
	c := NewGymClock(lima)
	c.Now = func() time.Time { return m.now }
	return c
}

func (m *movableClock) advance(d time.Duration) { m.now = m.now.Add(d) }

type attendanceFixture struct {
	store   *repofakes.Store
	clock   *movableClock
	service AttendanceService
	monthly *models.Membership
	daily   *models.Membership
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	store := repofakes.NewStore()
	mc := &movableClock{now: time.Date(2024, 3, 10, 8, 0, 0, 0, lima)}
	f := &attendanceFixture{
		store: store,
		clock: mc,
		service: NewAttendanceService(
			repofakes.NewAttendanceRepository(store),
			repofakes.NewClientRepository(store),
			repofakes.NewSettingsRepository(store),
			nil, mc.clock(), 0,
		),
		monthly: store.AddMembership(models.Membership{Name: "Monthly", Mode: models.MembershipModeRecurring, DurationMonths: 1, Active: true}),
		daily:   store.AddMembership(models.Membership{Name: "Day pass", Mode: models.MembershipModeDaily, Active: true}),
	}
	return f
}

func (f *attendanceFixture) client(name string, plan *models.Membership) *models.Client {
	return f.store.AddClient(models.Client{FullName: name, MembershipID: &plan.ID, EndDate: day(2024, 12, 31)})
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0min", FormatDuration(0))
	assert.Equal(t, "45min", FormatDuration(45))
	assert.Equal(t, "59min", FormatDuration(59))
	assert.Equal(t, "1h 0min", FormatDuration(60))
	assert.Equal(t, "1h 30min", FormatDuration(90))
	assert.Equal(t, "2h 5min", FormatDuration(125))
}

func TestRoundedMinutes(t *testing.T) {
	entry := time.Date(2024, 3, 10, 8, 0, 0, 0, lima)
	assert.Equal(t, 90, RoundedMinutes(entry, entry.Add(89*time.Minute+30*time.Second)))
	assert.Equal(t, 89, RoundedMinutes(entry, entry.Add(89*time.Minute+29*time.Second)))
	assert.Equal(t, 0, RoundedMinutes(entry, entry.Add(-time.Minute)))
}

func TestOccupancyLevelFor(t *testing.T) {
	assert.Equal(t, models.OccupancyAvailable, OccupancyLevelFor(0, 80))
	assert.Equal(t, models.OccupancyAvailable, OccupancyLevelFor(49, 80))
	assert.Equal(t, models.OccupancyModerate, OccupancyLevelFor(50, 80))
	assert.Equal(t, models.OccupancyFull, OccupancyLevelFor(80, 80))
	assert.Equal(t, models.OccupancyFull, OccupancyLevelFor(99, 80))
	assert.Equal(t, models.OccupancyExceeded, OccupancyLevelFor(100, 80))
	assert.Equal(t, models.OccupancyExceeded, OccupancyLevelFor(130, 80))
}

func TestCheckIn_OncePerDayForRecurringPlans(t *testing.T) {
	f := newAttendanceFixture(t)
	c := f.client("Ana Torres", f.monthly)

	res, err := f.service.CheckIn(c.ID, models.ChannelQR)
	require.NoError(t, err)
	assert.False(t, res.ReEntry)
	assert.Equal(t, "2024-03-10", res.Attendance.AttendanceDate)
	assert.Equal(t, models.ChannelQR, res.Attendance.Channel)
	assert.True(t, res.Attendance.IsOpen())

	_, err = f.service.CheckIn(c.ID, models.ChannelManual)
	assert.ErrorIs(t, err, ErrDuplicateCheckIn)

	// Leaving does not free the day.
	_, err = f.service.CheckOut(CheckOutRequest{ClientID: &c.ID})
	require.NoError(t, err)
	_, err = f.service.CheckIn(c.ID, models.ChannelQR)
	assert.ErrorIs(t, err, ErrDuplicateCheckIn)

	// Next day is a new attendance date.
	f.clock.advance(24 * time.Hour)
	res, err = f.service.CheckIn(c.ID, models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", res.Attendance.AttendanceDate)
}

func TestCheckIn_DailyPassReEntry(t *testing.T) {
	f := newAttendanceFixture(t)
	c := f.client("Luis Paredes", f.daily)

	first, err := f.service.CheckIn(c.ID, models.ChannelQR)
	require.NoError(t, err)
	assert.True(t, first.Attendance.DailyPass)
	assert.False(t, first.ReEntry)

	f.clock.advance(10 * time.Minute)
	again, err := f.service.CheckIn(c.ID, models.ChannelQR)
	require.NoError(t, err)
	assert.True(t, again.ReEntry)
	assert.Equal(t, first.Attendance.ID, again.Attendance.ID)

	_, err = f.service.CheckOut(CheckOutRequest{ClientID: &c.ID})
	require.NoError(t, err)

	f.clock.advance(2 * time.Hour)
	back, err := f.service.CheckIn(c.ID, models.ChannelQR)
	require.NoError(t, err)
	assert.False(t, back.ReEntry)
	assert.NotEqual(t, first.Attendance.ID, back.Attendance.ID)
	assert.Len(t, f.store.Attendances, 2)
}

func TestCheckIn_Errors(t *testing.T) {
	f := newAttendanceFixture(t)
	c := f.client("Ana Torres", f.monthly)

	_, err := f.service.CheckIn(999, models.ChannelQR)
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = f.service.CheckIn(c.ID, models.AttendanceChannel("carrier-pigeon"))
	assert.ErrorIs(t, err, ErrAttendanceValidation)

	f.store.FailWith = errors.New("connection reset")
	_, err = f.service.CheckIn(c.ID, models.ChannelQR)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateCheckIn)
}

func TestCheckOut_ComputesDuration(t *testing.T) {
	f := newAttendanceFixture(t)
	c := f.client("Ana Torres", f.monthly)

	in, err := f.service.CheckIn(c.ID, models.ChannelManual)
	require.NoError(t, err)

	f.clock.advance(90 * time.Minute)
	out, err := f.service.CheckOut(CheckOutRequest{AttendanceID: &in.Attendance.ID})
	require.NoError(t, err)
	assert.Equal(t, 90, out.Minutes)
	assert.Equal(t, "1h 30min", out.DurationText)
	require.NotNil(t, out.Attendance.ExitAt)
	assert.Equal(t, models.SessionClosed, out.Attendance.State())

	stored := f.store.Attendances[in.Attendance.ID]
	require.NotNil(t, stored.DurationMinutes)
	assert.Equal(t, 90, *stored.DurationMinutes)
}

func TestCheckOut_NoOpenSession(t *testing.T) {
	f := newAttendanceFixture(t)
	c := f.client("Ana Torres", f.monthly)

	_, err := f.service.CheckOut(CheckOutRequest{ClientID: &c.ID})
	assert.ErrorIs(t, err, ErrNoOpenSession)

	in, err := f.service.CheckIn(c.ID, models.ChannelManual)
	require.NoError(t, err)
	_, err = f.service.CheckOut(CheckOutRequest{ClientID: &c.ID})
	require.NoError(t, err)

	// Already closed.
	_, err = f.service.CheckOut(CheckOutRequest{AttendanceID: &in.Attendance.ID})
	assert.ErrorIs(t, err, ErrNoOpenSession)

	unknown := int64(4242)
	_, err = f.service.CheckOut(CheckOutRequest{AttendanceID: &unknown})
	assert.ErrorIs(t, err, ErrAttendanceNotFound)

	_, err = f.service.CheckOut(CheckOutRequest{})
	assert.ErrorIs(t, err, ErrAttendanceValidation)
}

func TestCheckOut_YesterdaysSessionIsNotClosable(t *testing.T) {
	f := newAttendanceFixture(t)
	c := f.client("Ana Torres", f.monthly)

	in, err := f.service.CheckIn(c.ID, models.ChannelManual)
	require.NoError(t, err)

	f.clock.advance(24 * time.Hour)
	_, err = f.service.CheckOut(CheckOutRequest{AttendanceID: &in.Attendance.ID})
	assert.ErrorIs(t, err, ErrNoOpenSession)
	_, err = f.service.CheckOut(CheckOutRequest{ClientID: &c.ID})
	assert.ErrorIs(t, err, ErrNoOpenSession)
}

func TestCurrentOccupancy(t *testing.T) {
	f := newAttendanceFixture(t)
	settings := models.DefaultGymSettings()
	settings.ID = 1
	settings.MaxCapacity = 4
	settings.AlertPercentage = 80
	settings.AverageStayMinutes = 60
	f.store.Settings = &settings

	a := f.client("Ana", f.monthly)
	b := f.client("Beto", f.monthly)
	c := f.client("Carla", f.monthly)

	for _, cl := range []*models.Client{a, b, c} {
		_, err := f.service.CheckIn(cl.ID, models.ChannelQR)
		require.NoError(t, err)
		f.clock.advance(5 * time.Minute)
	}
	_, err := f.service.CheckOut(CheckOutRequest{ClientID: &c.ID})
	require.NoError(t, err)

	snap, err := f.service.CurrentOccupancy()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Current)
	assert.Equal(t, 4, snap.MaxCapacity)
	assert.Equal(t, 50, snap.Percentage)
	assert.Equal(t, 2, snap.FreeSpots)
	assert.Equal(t, models.OccupancyModerate, snap.Level)
	require.Len(t, snap.Sessions, 2)

	// Newest entry first. Beto came in at 08:05, now is 08:15.
	assert.Equal(t, b.ID, snap.Sessions[0].Attendance.ClientID)
	assert.Equal(t, 10, snap.Sessions[0].ElapsedMinutes)
	assert.True(t, time.Date(2024, 3, 10, 9, 5, 0, 0, lima).Equal(snap.Sessions[0].EstimatedExitAt))
}

func TestCurrentOccupancy_Exceeded(t *testing.T) {
	f := newAttendanceFixture(t)
	settings := models.DefaultGymSettings()
	settings.ID = 1
	settings.MaxCapacity = 1
	f.store.Settings = &settings

	for _, name := range []string{"Ana", "Beto"} {
		_, err := f.service.CheckIn(f.client(name, f.monthly).ID, models.ChannelQR)
		require.NoError(t, err)
	}
	snap, err := f.service.CurrentOccupancy()
	require.NoError(t, err)
	assert.Equal(t, 200, snap.Percentage)
	assert.Equal(t, 0, snap.FreeSpots)
	assert.Equal(t, models.OccupancyExceeded, snap.Level)
}

func TestTodayStats(t *testing.T) {
	f := newAttendanceFixture(t)

	empty, err := f.service.TodayStats()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalSessions)
	assert.Nil(t, empty.Peak)
	assert.Equal(t, models.DefaultAverageStayMinutes, empty.AverageStayMinutes)

	// 08:00 one entry, 18:xx two entries.
	early := f.client("Early", f.monthly)
	_, err = f.service.CheckIn(early.ID, models.ChannelQR)
	require.NoError(t, err)
	f.clock.advance(40 * time.Minute)
	_, err = f.service.CheckOut(CheckOutRequest{ClientID: &early.ID})
	require.NoError(t, err)

	f.clock.now = time.Date(2024, 3, 10, 18, 10, 0, 0, lima)
	for _, name := range []string{"Evening A", "Evening B"} {
		_, err = f.service.CheckIn(f.client(name, f.monthly).ID, models.ChannelQR)
		require.NoError(t, err)
		f.clock.advance(5 * time.Minute)
	}

	stats, err := f.service.TodayStats()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", stats.Date)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 1, stats.ClosedSessions)
	assert.Equal(t, 40, stats.AverageStayMinutes)
	require.NotNil(t, stats.Peak)
	assert.Equal(t, 18, stats.Peak.Hour)
	assert.Equal(t, "18:00 - 19:00", stats.Peak.Label)
	assert.Equal(t, 2, stats.Peak.Count)
}

func TestGetAttendances_ValidatesDate(t *testing.T) {
	f := newAttendanceFixture(t)
	bad := "10/03/2024"
	_, err := f.service.GetAttendances(models.AttendanceFilters{Date: &bad})
	assert.ErrorIs(t, err, ErrDateFormat)

	c := f.client("Ana", f.monthly)
	_, err = f.service.CheckIn(c.ID, models.ChannelQR)
	require.NoError(t, err)

	good := "2024-03-10"
	list, err := f.service.GetAttendances(models.AttendanceFilters{Date: &good})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Client)
	assert.Equal(t, "Ana", list[0].Client.FullName)
}

func TestUpdateAttendance(t *testing.T) {
	f := newAttendanceFixture(t)
	c := f.client("Ana", f.monthly)
	in, err := f.service.CheckIn(c.ID, models.ChannelQR)
	require.NoError(t, err)

	updated, err := f.service.UpdateAttendance(in.Attendance.ID, UpdateAttendanceRequest{Channel: "dni"})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelDNI, updated.Channel)

	_, err = f.service.UpdateAttendance(in.Attendance.ID, UpdateAttendanceRequest{Channel: "fax"})
	assert.ErrorIs(t, err, ErrAttendanceValidation)

	_, err = f.service.UpdateAttendance(999, UpdateAttendanceRequest{Channel: "qr"})
	assert.ErrorIs(t, err, ErrAttendanceNotFound)
}
