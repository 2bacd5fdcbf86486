package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
	"gym_backend/pkg/utils"
)

// --- Custom Service Errors for Membership ---
var (
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrMembershipValidation = errors.New("membership data validation error")
)

// --- Membership DTOs ---
type CreateMembershipRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    *string  `json:"description"`
	Type           string   `json:"type"`
	Mode           string   `json:"mode"`
	Price          float64  `json:"price"`
	DurationMonths *int     `json:"duration_months"`
	Features       []string `json:"features"`
	Active         *bool    `json:"active"`
}

type UpdateMembershipRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	Type           *string  `json:"type"`
	Mode           *string  `json:"mode"`
	Price          *float64 `json:"price"`
	DurationMonths *int     `json:"duration_months"`
	Features       []string `json:"features"`
	Active         *bool    `json:"active"`
}

// MembershipService manages the catalogue of plans.
type MembershipService interface {
	CreateMembership(req CreateMembershipRequest) (*models.Membership, error)
	GetMembershipByID(id int64) (*models.Membership, error)
	GetMemberships(activeOnly bool) ([]models.Membership, error)
	UpdateMembership(id int64, req UpdateMembershipRequest) (*models.Membership, error)
	DeleteMembership(id int64) error
}

type membershipService struct {
	membershipRepo repositories.MembershipRepository
	db             *sql.DB
}

// NewMembershipService creates a new instance of MembershipService.
func NewMembershipService(repo repositories.MembershipRepository, db *sql.DB) MembershipService {
	return &membershipService{membershipRepo: repo, db: db}
}

func validateMembership(m *models.Membership) error {
	if utils.IsEmpty(m.Name) {
		return fmt.Errorf("%w: name cannot be empty", ErrMembershipValidation)
	}
	if !models.IsValidMembershipMode(string(m.Mode)) {
		return fmt.Errorf("%w: invalid mode '%s'", ErrMembershipValidation, m.Mode)
	}
	if m.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrMembershipValidation)
	}
	if m.DurationMonths < 0 {
		return fmt.Errorf("%w: duration_months cannot be negative", ErrMembershipValidation)
	}
	if m.Mode == models.MembershipModeRecurring && m.DurationMonths == 0 {
		return fmt.Errorf("%w: recurring plans need a duration", ErrMembershipValidation)
	}
	return nil
}

func cleanFeatures(features []string) []string {
	out := []string{}
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (s *membershipService) CreateMembership(req CreateMembershipRequest) (*models.Membership, error) {
	m := &models.Membership{
		Name:        strings.TrimSpace(req.Name),
		Description: trimmedPtr(req.Description),
		Type:        strings.TrimSpace(req.Type),
		Mode:        models.MembershipMode(req.Mode),
		Price:       req.Price,
		Features:    cleanFeatures(req.Features),
		Active:      true,
	}
	if m.Mode == "" {
		m.Mode = models.MembershipModeRecurring
	}
	if m.Type == "" {
		m.Type = "monthly"
		if m.Mode == models.MembershipModeDaily {
			m.Type = "daily"
		}
	}
	if req.DurationMonths != nil {
		m.DurationMonths = *req.DurationMonths
	} else if m.Mode == models.MembershipModeRecurring {
		m.DurationMonths = 1
	}
	if req.Active != nil {
		m.Active = *req.Active
	}
	if err := validateMembership(m); err != nil {
		return nil, err
	}

	id, err := s.membershipRepo.CreateMembership(s.db, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	return s.GetMembershipByID(id)
}

func (s *membershipService) GetMembershipByID(id int64) (*models.Membership, error) {
	m, err := s.membershipRepo.GetMembershipByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

func (s *membershipService) GetMemberships(activeOnly bool) ([]models.Membership, error) {
	list, err := s.membershipRepo.GetMemberships(activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships: %w", err)
	}
	return list, nil
}

func (s *membershipService) UpdateMembership(id int64, req UpdateMembershipRequest) (*models.Membership, error) {
	m, err := s.GetMembershipByID(id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		m.Description = trimmedPtr(req.Description)
	}
	if req.Type != nil {
		m.Type = strings.TrimSpace(*req.Type)
	}
	if req.Mode != nil {
		m.Mode = models.MembershipMode(*req.Mode)
	}
	if req.Price != nil {
		m.Price = *req.Price
	}
	if req.DurationMonths != nil {
		m.DurationMonths = *req.DurationMonths
	}
	if req.Features != nil {
		m.Features = cleanFeatures(req.Features)
	}
	if req.Active != nil {
		m.Active = *req.Active
	}
	if err := validateMembership(m); err != nil {
		return nil, err
	}

	if err := s.membershipRepo.UpdateMembership(s.db, m); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}
	return s.GetMembershipByID(id)
}

func (s *membershipService) DeleteMembership(id int64) error {
	if err := s.membershipRepo.DeleteMembership(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}
