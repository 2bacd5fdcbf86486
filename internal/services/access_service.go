package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
	"gym_backend/pkg/utils"
)

// ErrMalformedIdentity is returned for tokens that cannot name anybody (empty, bad CLIENT:<id>).
var ErrMalformedIdentity = errors.New("malformed identity token")

// ClientTokenPrefix marks QR payloads that carry an internal client id.
const ClientTokenPrefix = "CLIENT:"

const maxIdentityLength = 128

// IdentityKind is how a token resolves to a client.
type IdentityKind int

const (
	IdentityClientID IdentityKind = iota
	IdentityNationalID
	IdentityCode // access-card code, falling back to national ID
)

// Identity is a parsed identity token.
type Identity struct {
	Kind     IdentityKind
	ClientID int64
	Value    string
}

// ParseIdentityToken classifies a raw scan. The DNI channel always means a national ID.
func ParseIdentityToken(token string, channel models.AttendanceChannel) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, fmt.Errorf("%w: empty token", ErrMalformedIdentity)
	}
	if len(token) > maxIdentityLength || strings.ContainsAny(token, " \t\r\n") {
		return Identity{}, fmt.Errorf("%w: unexpected characters", ErrMalformedIdentity)
	}
	if channel == models.ChannelDNI {
		return Identity{Kind: IdentityNationalID, Value: token}, nil
	}
	if len(token) >= len(ClientTokenPrefix) && strings.EqualFold(token[:len(ClientTokenPrefix)], ClientTokenPrefix) {
		id, err := strconv.ParseInt(token[len(ClientTokenPrefix):], 10, 64)
		if err != nil || id <= 0 {
			return Identity{}, fmt.Errorf("%w: invalid client id in '%s'", ErrMalformedIdentity, token)
		}
		return Identity{Kind: IdentityClientID, ClientID: id, Value: token}, nil
	}
	return Identity{Kind: IdentityCode, Value: token}, nil
}

// AccessService turns a presented identity into an ALLOW/DENY verdict and records the visit.
type AccessService interface {
	Evaluate(token string, channel models.AttendanceChannel) (*models.Verdict, error)
}

type accessService struct {
	clientRepo        repositories.ClientRepository
	accessCardRepo    repositories.AccessCardRepository
	attendanceService AttendanceService
	db                *sql.DB
	clock             GymClock
}

// NewAccessService creates a new instance of AccessService.
func NewAccessService(clientRepo repositories.ClientRepository, accessCardRepo repositories.AccessCardRepository,
	attendanceService AttendanceService, db *sql.DB, clock GymClock) AccessService {
	return &accessService{
		clientRepo:        clientRepo,
		accessCardRepo:    accessCardRepo,
		attendanceService: attendanceService,
		db:                db,
		clock:             clock,
	}
}

// resolve finds the client named by id. A nil client with nil error means nobody matched.
func (s *accessService) resolve(id Identity) (*models.Client, error) {
	var client *models.Client
	var err error
	switch id.Kind {
	case IdentityClientID:
		client, err = s.clientRepo.GetClientByID(id.ClientID)
	case IdentityNationalID:
		client, err = s.clientRepo.GetClientByNationalID(id.Value)
	default:
		client, err = s.clientRepo.GetClientByAccessCode(id.Value)
		if errors.Is(err, repositories.ErrNotFound) {
			client, err = s.clientRepo.GetClientByNationalID(id.Value)
		}
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	return client, nil
}

func deny(token string, reason models.DenyReason, client *models.Client) *models.Verdict {
	return &models.Verdict{
		Decision:  models.AccessDeny,
		Reason:    reason,
		Client:    client,
		DailyPass: client != nil && client.IsDailyPass(),
		Token:     token,
	}
}

func (s *accessService) Evaluate(token string, channel models.AttendanceChannel) (*models.Verdict, error) {
	if channel == "" {
		channel = models.ChannelQR
	}
	identity, err := ParseIdentityToken(token, channel)
	if err != nil {
		return nil, err
	}
	token = identity.Value

	client, err := s.resolve(identity)
	if err != nil {
		return nil, err
	}
	if client == nil {
		utils.LogInfo("access denied", map[string]interface{}{"reason": string(models.DenyReasonUnknown), "channel": string(channel)})
		return deny(token, models.DenyReasonUnknown, nil), nil
	}

	switch EvaluateClient(client, s.clock.Now(), s.clock.Location) {
	case models.ValidityDeniedSuspended:
		s.logDenial(client, models.DenyReasonSuspended, channel)
		return deny(token, models.DenyReasonSuspended, client), nil
	case models.ValidityDeniedExpired:
		s.logDenial(client, models.DenyReasonExpired, channel)
		return deny(token, models.DenyReasonExpired, client), nil
	}

	result, err := s.attendanceService.CheckIn(client.ID, channel)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateCheckIn):
			s.logDenial(client, models.DenyReasonDuplicate, channel)
			return deny(token, models.DenyReasonDuplicate, client), nil
		case errors.Is(err, ErrClientNotFound):
			return deny(token, models.DenyReasonUnknown, nil), nil
		}
		return nil, fmt.Errorf("failed to register check-in: %w", err)
	}

	entry := result.Attendance.EntryAt
	if err := s.accessCardRepo.TouchLastEntry(s.db, client.ID, entry); err != nil {
		utils.LogWarn("Failed to stamp access card last entry", map[string]interface{}{"client_id": client.ID, "error": err.Error()})
	}
	result.Attendance.Client = nil

	utils.LogInfo("access granted", map[string]interface{}{
		"client_id":     client.ID,
		"attendance_id": result.Attendance.ID,
		"channel":       string(channel),
		"re_entry":      result.ReEntry,
	})
	return &models.Verdict{
		Decision:   models.AccessAllow,
		Client:     client,
		CheckInAt:  &entry,
		Attendance: result.Attendance,
		DailyPass:  client.IsDailyPass(),
		ReEntry:    result.ReEntry,
		Token:      token,
	}, nil
}

func (s *accessService) logDenial(client *models.Client, reason models.DenyReason, channel models.AttendanceChannel) {
	utils.LogInfo("access denied", map[string]interface{}{
		"client_id": client.ID,
		"reason":    string(reason),
		"channel":   string(channel),
	})
}
