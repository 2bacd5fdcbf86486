package services

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
	"gym_backend/internal/repositories/repofakes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accessFixture struct {
	*attendanceFixture
	gate AccessService
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	f := newAttendanceFixture(t)
	gate := NewAccessService(
		repofakes.NewClientRepository(f.store),
		repofakes.NewAccessCardRepository(f.store),
		f.service, nil, f.clock.clock(),
	)
	return &accessFixture{attendanceFixture: f, gate: gate}
}

func TestParseIdentityToken(t *testing.T) {
	id, err := ParseIdentityToken("CLIENT:42", models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, IdentityClientID, id.Kind)
	assert.Equal(t, int64(42), id.ClientID)

	id, err = ParseIdentityToken("  client:7 ", models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, IdentityClientID, id.Kind)
	assert.Equal(t, int64(7), id.ClientID)

	id, err = ParseIdentityToken("A1B2C3", models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, IdentityCode, id.Kind)
	assert.Equal(t, "A1B2C3", id.Value)

	id, err = ParseIdentityToken("CLIENT:42", models.ChannelDNI)
	require.NoError(t, err)
	assert.Equal(t, IdentityNationalID, id.Kind)

	for _, bad := range []string{"", "   ", "CLIENT:", "CLIENT:abc", "CLIENT:-3", "two words"} {
		_, err := ParseIdentityToken(bad, models.ChannelQR)
		assert.ErrorIs(t, err, ErrMalformedIdentity, "token %q", bad)
	}
}

func TestEvaluate_AllowThenDuplicate(t *testing.T) {
	f := newAccessFixture(t)
	c := f.client("Ana Torres", f.monthly)
	token := "CLIENT:" + strconv.FormatInt(c.ID, 10)

	v, err := f.gate.Evaluate(token, models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAllow, v.Decision)
	assert.True(t, v.Allowed())
	require.NotNil(t, v.Attendance)
	require.NotNil(t, v.CheckInAt)
	assert.Equal(t, c.ID, v.Client.ID)
	assert.False(t, v.DailyPass)

	f.clock.advance(time.Minute)
	v, err = f.gate.Evaluate(token, models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.AccessDeny, v.Decision)
	assert.Equal(t, models.DenyReasonDuplicate, v.Reason)
	assert.Len(t, f.store.Attendances, 1)
}

func TestEvaluate_ExpiredYesterdayCreatesNoSession(t *testing.T) {
	f := newAccessFixture(t)
	c := f.store.AddClient(models.Client{FullName: "Rosa", MembershipID: &f.monthly.ID, EndDate: day(2024, 3, 9)})

	v, err := f.gate.Evaluate("CLIENT:"+strconv.FormatInt(c.ID, 10), models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.AccessDeny, v.Decision)
	assert.Equal(t, models.DenyReasonExpired, v.Reason)
	assert.Empty(t, f.store.Attendances)
}

func TestEvaluate_EndsTodayIsAllowed(t *testing.T) {
	f := newAccessFixture(t)
	f.clock.now = time.Date(2024, 3, 10, 23, 30, 0, 0, lima)
	c := f.store.AddClient(models.Client{FullName: "Rosa", MembershipID: &f.monthly.ID, EndDate: day(2024, 3, 10)})

	v, err := f.gate.Evaluate("CLIENT:"+strconv.FormatInt(c.ID, 10), models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAllow, v.Decision)
}

func TestEvaluate_Suspended(t *testing.T) {
	f := newAccessFixture(t)
	c := f.store.AddClient(models.Client{FullName: "Rosa", MembershipID: &f.monthly.ID, Status: models.MembershipStatusSuspended, EndDate: day(2025, 1, 1)})

	v, err := f.gate.Evaluate("CLIENT:"+strconv.FormatInt(c.ID, 10), models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.DenyReasonSuspended, v.Reason)
	assert.Empty(t, f.store.Attendances)
}

func TestEvaluate_UnknownIdentity(t *testing.T) {
	f := newAccessFixture(t)

	v, err := f.gate.Evaluate("CLIENT:999", models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.DenyReasonUnknown, v.Reason)
	assert.Nil(t, v.Client)

	v, err = f.gate.Evaluate("NOPE123", models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.DenyReasonUnknown, v.Reason)

	_, err = f.gate.Evaluate("", models.ChannelQR)
	assert.ErrorIs(t, err, ErrMalformedIdentity)
}

func TestEvaluate_ResolvesCardAndNationalID(t *testing.T) {
	f := newAccessFixture(t)
	nid := "45678912"
	c := f.store.AddClient(models.Client{FullName: "Ana", NationalID: &nid, MembershipID: &f.daily.ID, EndDate: day(2024, 3, 10)})
	f.store.Cards[c.ID] = &models.AccessCard{ID: 50, ClientID: c.ID, Code: "CARD0001", Status: models.AccessCardActive}

	v, err := f.gate.Evaluate("CARD0001", models.ChannelQR)
	require.NoError(t, err)
	require.Equal(t, models.AccessAllow, v.Decision)
	assert.True(t, v.DailyPass)
	require.NotNil(t, f.store.Cards[c.ID].LastEntryAt)
	assert.True(t, f.store.Cards[c.ID].LastEntryAt.Equal(*v.CheckInAt))

	// A national ID typed into the QR field falls back to the DNI lookup.
	v, err = f.gate.Evaluate(nid, models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAllow, v.Decision)
	assert.True(t, v.ReEntry)

	v, err = f.gate.Evaluate(nid, models.ChannelDNI)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAllow, v.Decision)
	assert.Len(t, f.store.Attendances, 1)
}

type stuckCardRepo struct {
	repositories.AccessCardRepository
}

func (stuckCardRepo) TouchLastEntry(repositories.SQLExecutor, int64, time.Time) error {
	return errors.New("card table locked")
}

func TestEvaluate_CardStampFailureStillAdmits(t *testing.T) {
	f := newAccessFixture(t)
	gate := NewAccessService(
		repofakes.NewClientRepository(f.store),
		stuckCardRepo{repofakes.NewAccessCardRepository(f.store)},
		f.service, nil, f.clock.clock(),
	)
	c := f.client("Ana Torres", f.monthly)

	v, err := gate.Evaluate("CLIENT:"+strconv.FormatInt(c.ID, 10), models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.AccessAllow, v.Decision)
	assert.Len(t, f.store.Attendances, 1)
}

func TestEvaluate_RevokedCardIsUnknown(t *testing.T) {
	f := newAccessFixture(t)
	c := f.client("Ana", f.monthly)
	f.store.Cards[c.ID] = &models.AccessCard{ID: 51, ClientID: c.ID, Code: "OLDCARD", Status: models.AccessCardRevoked}

	v, err := f.gate.Evaluate("OLDCARD", models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, models.DenyReasonUnknown, v.Reason)
}

// recordingDoor counts Open calls.
type recordingDoor struct {
	mu    sync.Mutex
	opens int
}

func (d *recordingDoor) Open() {
	d.mu.Lock()
	d.opens++
	d.mu.Unlock()
}

func (d *recordingDoor) Close() error { return nil }

func (d *recordingDoor) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

func TestKiosk_ScanOpensDoorOnlyOnAllow(t *testing.T) {
	f := newAccessFixture(t)
	door := &recordingDoor{}
	kiosk := NewKioskService(f.gate, NewScanDebouncer(0), door)

	c := f.client("Ana Torres", f.monthly)
	token := "CLIENT:" + strconv.FormatInt(c.ID, 10)

	res, err := kiosk.Scan(token)
	require.NoError(t, err)
	assert.Equal(t, KioskGranted, res.Status)
	assert.Equal(t, "Welcome, Ana Torres", res.Message)
	assert.Equal(t, 1, door.count())

	res, err = kiosk.Scan(token)
	require.NoError(t, err)
	assert.Equal(t, KioskDenied, res.Status)
	assert.Equal(t, "Attendance already registered today", res.Message)
	assert.Equal(t, 1, door.count())

	res, err = kiosk.Scan("UNKNOWN1")
	require.NoError(t, err)
	assert.Equal(t, "Unknown code", res.Message)
}

func TestKiosk_DebounceIgnoresRepeatScan(t *testing.T) {
	f := newAccessFixture(t)
	door := &recordingDoor{}
	kiosk := NewKioskService(f.gate, NewScanDebouncer(time.Minute), door)

	nid := "11223344"
	f.store.AddClient(models.Client{FullName: "Luis", NationalID: &nid, MembershipID: &f.daily.ID, EndDate: day(2024, 3, 10)})

	res, err := kiosk.ScanNationalID(nid)
	require.NoError(t, err)
	assert.Equal(t, KioskGranted, res.Status)

	res, err = kiosk.ScanNationalID(nid)
	require.NoError(t, err)
	assert.Equal(t, KioskIgnored, res.Status)
	assert.Nil(t, res.Verdict)
	assert.Equal(t, 1, door.count())

	// The same digits on the QR channel are a different key.
	res, err = kiosk.Scan(nid)
	require.NoError(t, err)
	assert.Equal(t, KioskGranted, res.Status)
	assert.Equal(t, "Welcome back, Luis", res.Message)
}

func TestKiosk_MalformedTokenIsNotDebounced(t *testing.T) {
	f := newAccessFixture(t)
	kiosk := NewKioskService(f.gate, NewScanDebouncer(time.Minute), &recordingDoor{})

	_, err := kiosk.Scan("CLIENT:x")
	assert.ErrorIs(t, err, ErrMalformedIdentity)
	_, err = kiosk.Scan("CLIENT:x")
	assert.ErrorIs(t, err, ErrMalformedIdentity)
}

func TestScanDebouncer(t *testing.T) {
	d := NewScanDebouncer(time.Minute)
	assert.False(t, d.Seen("qr|abc"))
	assert.True(t, d.Seen(" qr|abc "))
	assert.False(t, d.Seen("qr|other"))

	// Card codes are case sensitive.
	assert.False(t, d.Seen("CARD-7f3a"))
	assert.False(t, d.Seen("CARD-7F3A"))

	d.Forget("qr|abc")
	assert.False(t, d.Seen("qr|abc"))

	disabled := NewScanDebouncer(0)
	assert.False(t, disabled.Seen("x"))
	assert.False(t, disabled.Seen("x"))

	var nilDebouncer *ScanDebouncer
	assert.False(t, nilDebouncer.Seen("x"))
	nilDebouncer.Forget("x")
}
