package services

import (
	"testing"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories/repofakes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

type clientFixture struct {
	store     *repofakes.Store
	service   ClientService
	monthly   *models.Membership
	quarterly *models.Membership
	daily     *models.Membership
}

// The fixture's today is 2024-01-31 in Lima.
func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	store := repofakes.NewStore()
	clock := FixedClock(time.Date(2024, 1, 31, 10, 0, 0, 0, lima), lima)
	return &clientFixture{
		store: store,
		service: NewClientService(
			repofakes.NewClientRepository(store),
			repofakes.NewMembershipRepository(store),
			repofakes.NewAccessCardRepository(store),
			nil, clock,
		),
		monthly:   store.AddMembership(models.Membership{Name: "Monthly", Mode: models.MembershipModeRecurring, DurationMonths: 1, Active: true}),
		quarterly: store.AddMembership(models.Membership{Name: "Quarterly", Mode: models.MembershipModeRecurring, DurationMonths: 3, Active: true}),
		daily:     store.AddMembership(models.Membership{Name: "Day pass", Mode: models.MembershipModeDaily, Active: true}),
	}
}

func dateOf(t *testing.T, d *time.Time) string {
	t.Helper()
	require.NotNil(t, d)
	return d.Format(models.DateLayout)
}

func TestCreateClient_DefaultsPeriodFromPlan(t *testing.T) {
	f := newClientFixture(t)

	c, err := f.service.CreateClient(CreateClientRequest{
		FullName:     "  Ana Torres ",
		NationalID:   strPtr("45678912"),
		Email:        strPtr("Ana@Example.com"),
		MembershipID: &f.monthly.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Torres", c.FullName)
	assert.Equal(t, "ana@example.com", *c.Email)
	assert.Equal(t, models.MembershipStatusActive, c.Status)
	assert.Equal(t, "2024-01-31", dateOf(t, c.StartDate))
	assert.Equal(t, "2024-02-29", dateOf(t, c.EndDate))
	require.NotNil(t, c.Membership)
	assert.Equal(t, "Monthly", c.Membership.Name)
}

func TestCreateClient_DailyPassEndsSameDay(t *testing.T) {
	f := newClientFixture(t)
	c, err := f.service.CreateClient(CreateClientRequest{FullName: "Visitor", MembershipID: &f.daily.ID})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", dateOf(t, c.StartDate))
	assert.Equal(t, "2024-01-31", dateOf(t, c.EndDate))
}

func TestCreateClient_Validation(t *testing.T) {
	f := newClientFixture(t)

	_, err := f.service.CreateClient(CreateClientRequest{FullName: "  "})
	assert.ErrorIs(t, err, ErrClientValidation)

	_, err = f.service.CreateClient(CreateClientRequest{FullName: "X", Email: strPtr("not-an-email")})
	assert.ErrorIs(t, err, ErrClientValidation)

	_, err = f.service.CreateClient(CreateClientRequest{FullName: "X", DateOfBirth: strPtr("31/01/1990")})
	assert.ErrorIs(t, err, ErrDateFormat)

	_, err = f.service.CreateClient(CreateClientRequest{FullName: "X", DateOfBirth: strPtr("2030-01-01")})
	assert.ErrorIs(t, err, ErrClientValidation)

	_, err = f.service.CreateClient(CreateClientRequest{FullName: "X", StartDate: strPtr("2024-02-10"), EndDate: strPtr("2024-02-01")})
	assert.ErrorIs(t, err, ErrClientValidation)

	missing := int64(999)
	_, err = f.service.CreateClient(CreateClientRequest{FullName: "X", MembershipID: &missing})
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestCreateClient_NationalIDUnique(t *testing.T) {
	f := newClientFixture(t)
	_, err := f.service.CreateClient(CreateClientRequest{FullName: "Ana", NationalID: strPtr("45678912")})
	require.NoError(t, err)

	_, err = f.service.CreateClient(CreateClientRequest{FullName: "Otra", NationalID: strPtr(" 45678912 ")})
	assert.ErrorIs(t, err, ErrNationalIDExists)

	check, err := f.service.CheckNationalID("45678912", nil)
	require.NoError(t, err)
	assert.True(t, check.Exists)

	check, err = f.service.CheckNationalID("00000000", nil)
	require.NoError(t, err)
	assert.False(t, check.Exists)

	_, err = f.service.CheckNationalID(" ", nil)
	assert.ErrorIs(t, err, ErrClientValidation)
}

func TestUpdateClient(t *testing.T) {
	f := newClientFixture(t)
	a, err := f.service.CreateClient(CreateClientRequest{FullName: "Ana", NationalID: strPtr("111")})
	require.NoError(t, err)
	b, err := f.service.CreateClient(CreateClientRequest{FullName: "Beto", NationalID: strPtr("222")})
	require.NoError(t, err)

	// Keeping one's own national ID is fine.
	updated, err := f.service.UpdateClient(a.ID, UpdateClientRequest{NationalID: strPtr("111"), Status: strPtr("suspended")})
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusSuspended, updated.Status)

	_, err = f.service.UpdateClient(b.ID, UpdateClientRequest{NationalID: strPtr("111")})
	assert.ErrorIs(t, err, ErrNationalIDExists)

	_, err = f.service.UpdateClient(a.ID, UpdateClientRequest{Status: strPtr("frozen")})
	assert.ErrorIs(t, err, ErrClientValidation)

	_, err = f.service.UpdateClient(404, UpdateClientRequest{FullName: strPtr("Nobody")})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestRenewMembership_RestartsToday(t *testing.T) {
	f := newClientFixture(t)
	c := f.store.AddClient(models.Client{
		FullName:     "Ana",
		MembershipID: &f.quarterly.ID,
		Status:       models.MembershipStatusExpired,
		StartDate:    day(2023, 9, 1),
		EndDate:      day(2023, 12, 1),
	})

	renewed, err := f.service.RenewMembership(c.ID, RenewMembershipRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusActive, renewed.Status)
	assert.Equal(t, "2024-01-31", dateOf(t, renewed.StartDate))
	assert.Equal(t, "2024-04-30", dateOf(t, renewed.EndDate))

	// Switching plan on renewal.
	renewed, err = f.service.RenewMembership(c.ID, RenewMembershipRequest{MembershipID: &f.monthly.ID})
	require.NoError(t, err)
	assert.Equal(t, f.monthly.ID, *renewed.MembershipID)
	assert.Equal(t, "2024-02-29", dateOf(t, renewed.EndDate))
}

func TestRenewMembership_RequiresPlan(t *testing.T) {
	f := newClientFixture(t)
	c := f.store.AddClient(models.Client{FullName: "No plan"})

	_, err := f.service.RenewMembership(c.ID, RenewMembershipRequest{})
	assert.ErrorIs(t, err, ErrClientValidation)

	_, err = f.service.RenewMembership(404, RenewMembershipRequest{})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestRegisterPayment_ExtendsFromLaterOfEndAndToday(t *testing.T) {
	f := newClientFixture(t)

	// Still running: extend from the current end date.
	running := f.store.AddClient(models.Client{FullName: "Ana", MembershipID: &f.monthly.ID, StartDate: day(2024, 1, 10), EndDate: day(2024, 2, 10)})
	paid, err := f.service.RegisterPayment(running.ID, RegisterPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", dateOf(t, paid.EndDate))
	assert.Equal(t, "2024-01-10", dateOf(t, paid.StartDate))

	// Lapsed: extend from today.
	lapsed := f.store.AddClient(models.Client{FullName: "Beto", MembershipID: &f.monthly.ID, Status: models.MembershipStatusExpired, EndDate: day(2023, 11, 5)})
	paid, err = f.service.RegisterPayment(lapsed.ID, RegisterPaymentRequest{DurationMonths: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusActive, paid.Status)
	assert.Equal(t, "2024-03-31", dateOf(t, paid.EndDate))

	_, err = f.service.RegisterPayment(lapsed.ID, RegisterPaymentRequest{DurationMonths: intPtr(0)})
	assert.ErrorIs(t, err, ErrClientValidation)

	amount := -10.0
	_, err = f.service.RegisterPayment(lapsed.ID, RegisterPaymentRequest{Amount: &amount})
	assert.ErrorIs(t, err, ErrClientValidation)
}

func TestRegisterPayment_UsesPlanDuration(t *testing.T) {
	f := newClientFixture(t)

	quarterly := f.store.AddClient(models.Client{FullName: "Ana", MembershipID: &f.quarterly.ID, EndDate: day(2024, 2, 10)})
	paid, err := f.service.RegisterPayment(quarterly.ID, RegisterPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", dateOf(t, paid.EndDate))

	// Switching plan on payment takes the new plan's duration.
	switching := f.store.AddClient(models.Client{FullName: "Beto", MembershipID: &f.monthly.ID, Status: models.MembershipStatusExpired, EndDate: day(2023, 12, 20)})
	paid, err = f.service.RegisterPayment(switching.ID, RegisterPaymentRequest{MembershipID: &f.quarterly.ID})
	require.NoError(t, err)
	assert.Equal(t, f.quarterly.ID, *paid.MembershipID)
	assert.Equal(t, "2024-04-30", dateOf(t, paid.EndDate))

	visitor := f.store.AddClient(models.Client{FullName: "Visitor", MembershipID: &f.daily.ID, EndDate: day(2024, 1, 20)})
	paid, err = f.service.RegisterPayment(visitor.ID, RegisterPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", dateOf(t, paid.EndDate))
	paid, err = f.service.RegisterPayment(visitor.ID, RegisterPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", dateOf(t, paid.EndDate))
}

func TestRegisterPayment_RequiresPlan(t *testing.T) {
	f := newClientFixture(t)
	noPlan := f.store.AddClient(models.Client{FullName: "No plan", EndDate: day(2024, 2, 10)})

	_, err := f.service.RegisterPayment(noPlan.ID, RegisterPaymentRequest{})
	assert.ErrorIs(t, err, ErrClientValidation)
	assert.Equal(t, "2024-02-10", dateOf(t, f.store.Clients[noPlan.ID].EndDate))

	missing := int64(999)
	_, err = f.service.RegisterPayment(noPlan.ID, RegisterPaymentRequest{MembershipID: &missing})
	assert.ErrorIs(t, err, ErrMembershipNotFound)

	_, err = f.service.RegisterPayment(404, RegisterPaymentRequest{})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestGetMembershipSummary(t *testing.T) {
	f := newClientFixture(t)
	c := f.store.AddClient(models.Client{FullName: "Ana", MembershipID: &f.monthly.ID, EndDate: day(2024, 2, 10)})

	summary, err := f.service.GetMembershipSummary(c.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.DaysRemaining)
	assert.Equal(t, 10, *summary.DaysRemaining)
	assert.Equal(t, models.ValidityAllowed, summary.EffectiveState)
	assert.Equal(t, "Monthly", summary.Membership.Name)

	expired := f.store.AddClient(models.Client{FullName: "Beto", EndDate: day(2024, 1, 30)})
	summary, err = f.service.GetMembershipSummary(expired.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, *summary.DaysRemaining)
	assert.Equal(t, models.ValidityDeniedExpired, summary.EffectiveState)
}

func TestAccessCard_IssueAndReissue(t *testing.T) {
	f := newClientFixture(t)
	c := f.store.AddClient(models.Client{FullName: "Ana"})

	_, err := f.service.GetAccessCard(c.ID)
	assert.ErrorIs(t, err, ErrAccessCardNotFound)

	first, err := f.service.IssueAccessCard(c.ID)
	require.NoError(t, err)
	assert.Len(t, first.Code, 32)
	assert.Regexp(t, `^[0-9A-F]{32}$`, first.Code)
	assert.Equal(t, models.AccessCardActive, first.Status)

	second, err := f.service.IssueAccessCard(c.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.Code, second.Code)

	got, err := f.service.GetAccessCard(c.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Code, got.Code)

	_, err = f.service.IssueAccessCard(404)
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestDeleteClient(t *testing.T) {
	f := newClientFixture(t)
	c := f.store.AddClient(models.Client{FullName: "Ana"})

	require.NoError(t, f.service.DeleteClient(c.ID))
	assert.ErrorIs(t, f.service.DeleteClient(c.ID), ErrClientNotFound)
}

func TestGetClients_RejectsUnknownStatus(t *testing.T) {
	f := newClientFixture(t)
	f.store.AddClient(models.Client{FullName: "Ana"})
	f.store.AddClient(models.Client{FullName: "Beto", Status: models.MembershipStatusSuspended})

	_, _, err := f.service.GetClients(models.ClientFilters{Status: strPtr("gone")})
	assert.ErrorIs(t, err, ErrClientValidation)

	list, total, err := f.service.GetClients(models.ClientFilters{Status: strPtr("suspended")})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Beto", list[0].FullName)
}
