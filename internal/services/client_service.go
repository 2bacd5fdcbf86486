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

	"github.com/google/uuid"
)

// --- Custom Service Errors for Client ---
var (
	ErrClientNotFound     = errors.New("client not found")
	ErrNationalIDExists   = errors.New("national ID already registered")
	ErrEmailExists        = errors.New("email already exists")
	ErrClientValidation   = errors.New("client data validation error")
	ErrDateFormat         = errors.New("invalid date format, please use YYYY-MM-DD")
	ErrClientInUse        = errors.New("client cannot be deleted as they are referenced in other records")
	ErrAccessCardNotFound = errors.New("access card not found")
)

// --- Client DTOs ---
type CreateClientRequest struct {
	FullName     string  `json:"full_name" binding:"required"`
	NationalID   *string `json:"national_id"`
	Email        *string `json:"email"`
	PhoneNumber  *string `json:"phone_number"`
	DateOfBirth  *string `json:"date_of_birth"` // Format YYYY-MM-DD
	MembershipID *int64  `json:"membership_id"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	AvatarURL    *string `json:"avatar_url"`
}

type UpdateClientRequest struct {
	FullName     *string `json:"full_name"`
	NationalID   *string `json:"national_id"`
	Email        *string `json:"email"`
	PhoneNumber  *string `json:"phone_number"`
	DateOfBirth  *string `json:"date_of_birth"`
	MembershipID *int64  `json:"membership_id"`
	Status       *string `json:"status"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	AvatarURL    *string `json:"avatar_url"`
}

type RenewMembershipRequest struct {
	MembershipID *int64 `json:"membership_id"`
}

type RegisterPaymentRequest struct {
	MembershipID   *int64   `json:"membership_id"`
	DurationMonths *int     `json:"duration_months"`
	Amount         *float64 `json:"amount"`
}

// NationalIDCheck answers whether a national ID can be used.
type NationalIDCheck struct {
	NationalID string `json:"national_id"`
	Exists     bool   `json:"exists"`
}

// --- ClientService Interface ---
type ClientService interface {
	CreateClient(req CreateClientRequest) (*models.Client, error)
	GetClientByID(clientID int64) (*models.Client, error)
	GetClients(filters models.ClientFilters) ([]models.Client, int, error)
	UpdateClient(clientID int64, req UpdateClientRequest) (*models.Client, error)
	DeleteClient(clientID int64) error
	CheckNationalID(nationalID string, excludeID *int64) (*NationalIDCheck, error)
	GetMembershipSummary(clientID int64) (*models.MembershipSummary, error)
	RenewMembership(clientID int64, req RenewMembershipRequest) (*models.Client, error)
	RegisterPayment(clientID int64, req RegisterPaymentRequest) (*models.Client, error)
	IssueAccessCard(clientID int64) (*models.AccessCard, error)
	GetAccessCard(clientID int64) (*models.AccessCard, error)
}

// --- clientService Implementation ---
type clientService struct {
	clientRepo     repositories.ClientRepository
	membershipRepo repositories.MembershipRepository
	accessCardRepo repositories.AccessCardRepository
	db             *sql.DB
	clock          GymClock
}

// NewClientService creates a new instance of ClientService.
func NewClientService(repo repositories.ClientRepository, membershipRepo repositories.MembershipRepository,
	accessCardRepo repositories.AccessCardRepository, db *sql.DB, clock GymClock) ClientService {
	return &clientService{
		clientRepo:     repo,
		membershipRepo: membershipRepo,
		accessCardRepo: accessCardRepo,
		db:             db,
		clock:          clock,
	}
}

// parseDate reads an optional YYYY-MM-DD value as a date in the gym time zone.
func (s *clientService) parseDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(*value), s.clock.Location)
	if err != nil {
		return nil, ErrDateFormat
	}
	return &t, nil
}

func (s *clientService) today() time.Time {
	return StartOfDay(s.clock.Now(), s.clock.Location)
}

func (s *clientService) validateNationalID(nationalID *string, clientID *int64) error {
	if nationalID == nil || strings.TrimSpace(*nationalID) == "" {
		return nil
	}
	exists, err := s.clientRepo.NationalIDExists(strings.TrimSpace(*nationalID), clientID)
	if err != nil {
		return fmt.Errorf("failed to check national ID uniqueness: %w", err)
	}
	if exists {
		return ErrNationalIDExists
	}
	return nil
}

func (s *clientService) validateEmail(email *string) error {
	if email != nil && strings.TrimSpace(*email) != "" && !utils.IsValidEmail(*email) {
		return fmt.Errorf("%w: email format is invalid", ErrClientValidation)
	}
	return nil
}

func (s *clientService) getMembership(id int64) (*models.Membership, error) {
	m, err := s.membershipRepo.GetMembershipByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// periodEnd is the last valid day of a plan started on start. Daily passes end the day they start.
func periodEnd(start time.Time, m *models.Membership) time.Time {
	if m.IsDailyPass() || m.DurationMonths <= 0 {
		return start
	}
	return AddMonths(start, m.DurationMonths)
}

func mapClientWriteError(err error, action string) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		if strings.Contains(err.Error(), "clients_national_id_key") {
			return ErrNationalIDExists
		}
		if strings.Contains(err.Error(), "clients_email_key") {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to %s client due to duplicate data: %w", action, err)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrClientNotFound
	}
	if errors.Is(err, repositories.ErrForeignKey) {
		return ErrClientInUse
	}
	return fmt.Errorf("failed to %s client in repository: %w", action, err)
}

func (s *clientService) CreateClient(req CreateClientRequest) (*models.Client, error) {
	if utils.IsEmpty(req.FullName) {
		return nil, fmt.Errorf("%w: full name cannot be empty", ErrClientValidation)
	}
	if err := s.validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := s.validateNationalID(req.NationalID, nil); err != nil {
		return nil, err
	}

	dob, err := s.parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	if dob != nil && dob.After(s.clock.Now()) {
		return nil, fmt.Errorf("%w: date of birth cannot be in the future", ErrClientValidation)
	}
	start, err := s.parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := s.parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	if req.MembershipID != nil {
		m, err := s.getMembership(*req.MembershipID)
		if err != nil {
			return nil, err
		}
		if start == nil {
			t := s.today()
			start = &t
		}
		if end == nil {
			t := periodEnd(*start, m)
			end = &t
		}
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, fmt.Errorf("%w: end date cannot be before start date", ErrClientValidation)
	}

	client := &models.Client{
		FullName:     strings.TrimSpace(req.FullName),
		NationalID:   trimmedPtr(req.NationalID),
		Email:        lowerPtr(req.Email),
		PhoneNumber:  trimmedPtr(req.PhoneNumber),
		DateOfBirth:  dob,
		MembershipID: req.MembershipID,
		Status:       models.MembershipStatusActive,
		StartDate:    start,
		EndDate:      end,
		AvatarURL:    trimmedPtr(req.AvatarURL),
	}

	id, err := s.clientRepo.CreateClient(s.db, client)
	if err != nil {
		return nil, mapClientWriteError(err, "create")
	}
	utils.LogInfo("client created", map[string]interface{}{"client_id": id})
	return s.GetClientByID(id)
}

func (s *clientService) GetClientByID(clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client by ID: %w", err)
	}
	return client, nil
}

func (s *clientService) GetClients(filters models.ClientFilters) ([]models.Client, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 10
	}
	if filters.Status != nil && *filters.Status != "" && !models.IsValidMembershipStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: invalid status filter '%s'", ErrClientValidation, *filters.Status)
	}

	clients, totalCount, err := s.clientRepo.GetClients(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get clients: %w", err)
	}
	return clients, totalCount, nil
}

func (s *clientService) UpdateClient(clientID int64, req UpdateClientRequest) (*models.Client, error) {
	client, err := s.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		if utils.IsEmpty(*req.FullName) {
			return nil, fmt.Errorf("%w: full name cannot be empty if provided", ErrClientValidation)
		}
		client.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.NationalID != nil {
		if err := s.validateNationalID(req.NationalID, &clientID); err != nil {
			return nil, err
		}
		client.NationalID = trimmedPtr(req.NationalID)
	}
	if req.Email != nil {
		if err := s.validateEmail(req.Email); err != nil {
			return nil, err
		}
		client.Email = lowerPtr(req.Email)
	}
	if req.PhoneNumber != nil {
		client.PhoneNumber = trimmedPtr(req.PhoneNumber)
	}
	if req.AvatarURL != nil {
		client.AvatarURL = trimmedPtr(req.AvatarURL)
	}
	if req.DateOfBirth != nil {
		if client.DateOfBirth, err = s.parseDate(req.DateOfBirth); err != nil {
			return nil, err
		}
	}
	if req.StartDate != nil {
		if client.StartDate, err = s.parseDate(req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if client.EndDate, err = s.parseDate(req.EndDate); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		if !models.IsValidMembershipStatus(*req.Status) {
			return nil, fmt.Errorf("%w: invalid status '%s'", ErrClientValidation, *req.Status)
		}
		client.Status = models.MembershipStatus(*req.Status)
	}
	if req.MembershipID != nil {
		if _, err := s.getMembership(*req.MembershipID); err != nil {
			return nil, err
		}
		client.MembershipID = req.MembershipID
	}
	if client.StartDate != nil && client.EndDate != nil && dateKey(*client.EndDate) < dateKey(*client.StartDate) {
		return nil, fmt.Errorf("%w: end date cannot be before start date", ErrClientValidation)
	}

	if err := s.clientRepo.UpdateClient(s.db, client); err != nil {
		return nil, mapClientWriteError(err, "update")
	}
	return s.GetClientByID(clientID)
}

func (s *clientService) DeleteClient(clientID int64) error {
	if err := s.clientRepo.DeleteClient(s.db, clientID); err != nil {
		return mapClientWriteError(err, "delete")
	}
	utils.LogInfo("client deleted", map[string]interface{}{"client_id": clientID})
	return nil
}

func (s *clientService) CheckNationalID(nationalID string, excludeID *int64) (*NationalIDCheck, error) {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, fmt.Errorf("%w: national_id is required", ErrClientValidation)
	}
	exists, err := s.clientRepo.NationalIDExists(nationalID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check national ID: %w", err)
	}
	return &NationalIDCheck{NationalID: nationalID, Exists: exists}, nil
}

func (s *clientService) GetMembershipSummary(clientID int64) (*models.MembershipSummary, error) {
	client, err := s.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	return &models.MembershipSummary{
		ClientID:       client.ID,
		FullName:       client.FullName,
		Status:         client.Status,
		StartDate:      client.StartDate,
		EndDate:        client.EndDate,
		Membership:     client.Membership,
		DaysRemaining:  DaysRemaining(client.EndDate, now, s.clock.Location),
		EffectiveState: EvaluateClient(client, now, s.clock.Location),
	}, nil
}

// RenewMembership restarts the plan today: start = today, end = today + plan duration.
func (s *clientService) RenewMembership(clientID int64, req RenewMembershipRequest) (*models.Client, error) {
	client, err := s.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}
	membershipID := req.MembershipID
	if membershipID == nil {
		membershipID = client.MembershipID
	}
	if membershipID == nil {
		return nil, fmt.Errorf("%w: client has no membership to renew", ErrClientValidation)
	}
	m, err := s.getMembership(*membershipID)
	if err != nil {
		return nil, err
	}

	start := s.today()
	end := periodEnd(start, m)
	if err := s.clientRepo.UpdateMembershipPeriod(s.db, clientID, membershipID, &start, &end, models.MembershipStatusActive); err != nil {
		return nil, mapClientWriteError(err, "renew")
	}
	utils.LogInfo("membership renewed", map[string]interface{}{
		"client_id":     clientID,
		"membership_id": *membershipID,
		"end_date":      end.Format(models.DateLayout),
	})
	return s.GetClientByID(clientID)
}

// RegisterPayment extends the plan from the later of its end date and today by the plan duration.
// A day pass covers today when lapsed and adds one day when still running.
func (s *clientService) RegisterPayment(clientID int64, req RegisterPaymentRequest) (*models.Client, error) {
	client, err := s.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}
	if req.DurationMonths != nil && *req.DurationMonths <= 0 {
		return nil, fmt.Errorf("%w: duration_months must be positive", ErrClientValidation)
	}
	if req.Amount != nil && *req.Amount < 0 {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrClientValidation)
	}
	membershipID := req.MembershipID
	if membershipID == nil {
		membershipID = client.MembershipID
	}
	if membershipID == nil {
		return nil, fmt.Errorf("%w: client has no membership to pay for", ErrClientValidation)
	}
	m, err := s.getMembership(*membershipID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	running := client.EndDate != nil && dateKey(*client.EndDate) >= dateKey(today)
	var currentEnd time.Time
	if running {
		y, mo, d := client.EndDate.Date()
		currentEnd = time.Date(y, mo, d, 0, 0, 0, 0, s.clock.Location)
	}

	var end time.Time
	months := 0
	if req.DurationMonths == nil && m.IsDailyPass() {
		end = today
		if running {
			end = currentEnd.AddDate(0, 0, 1)
		}
	} else {
		months = m.DurationMonths
		if req.DurationMonths != nil {
			months = *req.DurationMonths
		}
		if months <= 0 {
			months = 1
		}
		base := today
		if running && currentEnd.After(today) {
			base = currentEnd
		}
		end = AddMonths(base, months)
	}

	if err := s.clientRepo.UpdateMembershipPeriod(s.db, clientID, membershipID, nil, &end, models.MembershipStatusActive); err != nil {
		return nil, mapClientWriteError(err, "register payment for")
	}
	fields := map[string]interface{}{
		"client_id":     clientID,
		"membership_id": *membershipID,
		"months":        months,
		"end_date":      end.Format(models.DateLayout),
	}
	if req.Amount != nil {
		fields["amount"] = *req.Amount
	}
	utils.LogInfo("payment registered", fields)
	return s.GetClientByID(clientID)
}

func (s *clientService) IssueAccessCard(clientID int64) (*models.AccessCard, error) {
	if _, err := s.GetClientByID(clientID); err != nil {
		return nil, err
	}
	card := &models.AccessCard{
		ClientID: clientID,
		Code:     strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")),
		Status:   models.AccessCardActive,
	}
	if err := s.accessCardRepo.UpsertAccessCard(s.db, card); err != nil {
		return nil, fmt.Errorf("failed to issue access card: %w", err)
	}
	utils.LogInfo("access card issued", map[string]interface{}{"client_id": clientID, "card_id": card.ID})
	return card, nil
}

func (s *clientService) GetAccessCard(clientID int64) (*models.AccessCard, error) {
	card, err := s.accessCardRepo.GetAccessCardByClientID(clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAccessCardNotFound
		}
		return nil, fmt.Errorf("failed to get access card: %w", err)
	}
	return card, nil
}

// dateKey orders dates by their calendar day regardless of location.
func dateKey(t time.Time) string {
	return t.Format(models.DateLayout)
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.NewNullString(*s)
}

func lowerPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return utils.NewNullString(strings.ToLower(*s))
}
