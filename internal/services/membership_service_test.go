package services

import (
	"testing"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories/repofakes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMembership_Defaults(t *testing.T) {
	svc := NewMembershipService(repofakes.NewMembershipRepository(repofakes.NewStore()), nil)

	m, err := svc.CreateMembership(CreateMembershipRequest{Name: " Basic ", Price: 80, Features: []string{" pool ", "", "sauna"}})
	require.NoError(t, err)
	assert.Equal(t, "Basic", m.Name)
	assert.Equal(t, models.MembershipModeRecurring, m.Mode)
	assert.Equal(t, "monthly", m.Type)
	assert.Equal(t, 1, m.DurationMonths)
	assert.True(t, m.Active)
	assert.Equal(t, []string{"pool", "sauna"}, m.Features)

	d, err := svc.CreateMembership(CreateMembershipRequest{Name: "Day", Mode: "daily", Price: 10})
	require.NoError(t, err)
	assert.Equal(t, "daily", d.Type)
	assert.Equal(t, 0, d.DurationMonths)
}

func TestCreateMembership_Validation(t *testing.T) {
	svc := NewMembershipService(repofakes.NewMembershipRepository(repofakes.NewStore()), nil)

	_, err := svc.CreateMembership(CreateMembershipRequest{Name: "X", Mode: "weekly"})
	assert.ErrorIs(t, err, ErrMembershipValidation)

	_, err = svc.CreateMembership(CreateMembershipRequest{Name: "X", Price: -1})
	assert.ErrorIs(t, err, ErrMembershipValidation)

	_, err = svc.CreateMembership(CreateMembershipRequest{Name: "X", DurationMonths: intPtr(0)})
	assert.ErrorIs(t, err, ErrMembershipValidation)
}

func TestUpdateAndDeleteMembership(t *testing.T) {
	store := repofakes.NewStore()
	svc := NewMembershipService(repofakes.NewMembershipRepository(store), nil)
	m, err := svc.CreateMembership(CreateMembershipRequest{Name: "Basic"})
	require.NoError(t, err)
	store.AddClient(models.Client{FullName: "Ana", MembershipID: &m.ID})
	store.AddClient(models.Client{FullName: "Beto", MembershipID: &m.ID, Status: models.MembershipStatusSuspended})

	inactive := false
	updated, err := svc.UpdateMembership(m.ID, UpdateMembershipRequest{DurationMonths: intPtr(6), Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.DurationMonths)
	assert.False(t, updated.Active)
	assert.Equal(t, 1, updated.ActiveClients)

	list, err := svc.GetMemberships(true)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.DeleteMembership(m.ID))
	_, err = svc.GetMembershipByID(m.ID)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
	assert.ErrorIs(t, svc.DeleteMembership(m.ID), ErrMembershipNotFound)
}

func TestSettingsService(t *testing.T) {
	svc := NewSettingsService(repofakes.NewSettingsRepository(repofakes.NewStore()), nil)

	s, err := svc.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMaxCapacity, s.MaxCapacity)

	s, err = svc.UpdateSettings(UpdateSettingsRequest{MaxCapacity: intPtr(120), OpeningTime: strPtr("06:00"), ClosingTime: strPtr("22:30")})
	require.NoError(t, err)
	assert.Equal(t, 120, s.MaxCapacity)
	assert.Equal(t, "06:00", *s.OpeningTime)

	again, err := svc.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, 120, again.MaxCapacity)

	for _, req := range []UpdateSettingsRequest{
		{MaxCapacity: intPtr(0)},
		{AverageStayMinutes: intPtr(-5)},
		{AlertPercentage: intPtr(101)},
		{OpeningTime: strPtr("6am")},
		{ClosingTime: strPtr("24:00")},
	} {
		_, err := svc.UpdateSettings(req)
		assert.ErrorIs(t, err, ErrSettingsValidation)
	}
}
