package services

import (
	"fmt"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
)

// Dashboard windows.
const (
	ExpiringWithinDays   = 7
	ExpiringListLimit    = 10
	PaymentDueWithinDays = 3
	PaymentListLimit     = 50
)

// StatsService builds the back-office dashboard.
type StatsService interface {
	GetDashboardStats() (*models.DashboardStats, error)
	GetPaymentsDashboard() (*models.PaymentsDashboard, error)
}

type statsService struct {
	clientRepo repositories.ClientRepository
	eventRepo  repositories.EventRepository
	clock      GymClock
}

// NewStatsService creates a new instance of StatsService.
func NewStatsService(clientRepo repositories.ClientRepository, eventRepo repositories.EventRepository, clock GymClock) StatsService {
	return &statsService{clientRepo: clientRepo, eventRepo: eventRepo, clock: clock}
}

func (s *statsService) GetDashboardStats() (*models.DashboardStats, error) {
	counts, total, err := s.clientRepo.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	perMembership, err := s.clientRepo.CountPerMembership()
	if err != nil {
		return nil, fmt.Errorf("failed to count clients per membership: %w", err)
	}
	scheduled, err := s.eventRepo.CountByStatus(models.EventStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to count scheduled events: %w", err)
	}

	today := StartOfDay(s.clock.Now(), s.clock.Location)
	until := today.AddDate(0, 0, ExpiringWithinDays)
	expiring, err := s.clientRepo.ListExpiring(today, until, ExpiringListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring clients: %w", err)
	}

	return &models.DashboardStats{
		TotalClients:     total,
		ActiveClients:    counts[models.MembershipStatusActive],
		ExpiredClients:   counts[models.MembershipStatusExpired],
		SuspendedClients: counts[models.MembershipStatusSuspended],
		ScheduledEvents:  scheduled,
		PerMembership:    perMembership,
		Expiring:         expiring,
	}, nil
}

// GetPaymentsDashboard lists clients whose period is running, about to end, or over.
func (s *statsService) GetPaymentsDashboard() (*models.PaymentsDashboard, error) {
	today := StartOfDay(s.clock.Now(), s.clock.Location)

	active, err := s.clientRepo.ListCurrent(today, PaymentListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list paid-up clients: %w", err)
	}
	expiring, err := s.clientRepo.ListExpiring(today, today.AddDate(0, 0, PaymentDueWithinDays), PaymentListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients due to pay: %w", err)
	}
	expired, err := s.clientRepo.ListLapsed(today, PaymentListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list lapsed clients: %w", err)
	}

	return &models.PaymentsDashboard{
		Date:     dateKey(today),
		Active:   active,
		Expiring: expiring,
		Expired:  expired,
	}, nil
}
