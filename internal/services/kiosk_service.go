package services

import (
	"fmt"

	"gym_backend/internal/actuator"
	"gym_backend/internal/models"
)

// Kiosk scan outcomes.
const (
	KioskGranted = "granted"
	KioskDenied  = "denied"
	KioskIgnored = "ignored"
)

// --- Kiosk DTOs ---
type KioskScanRequest struct {
	Code string `json:"code" binding:"required"`
}

type KioskDNIRequest struct {
	NationalID string `json:"national_id" binding:"required"`
}

// KioskScanResult is what the kiosk screen shows.
type KioskScanResult struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Verdict *models.Verdict `json:"verdict,omitempty"`
}

// KioskService is the self-service entrance: debounce, decide, open the door.
type KioskService interface {
	Scan(code string) (*KioskScanResult, error)
	ScanNationalID(nationalID string) (*KioskScanResult, error)
}

type kioskService struct {
	access    AccessService
	debouncer *ScanDebouncer
	door      actuator.Actuator
}

// NewKioskService creates a new instance of KioskService.
func NewKioskService(access AccessService, debouncer *ScanDebouncer, door actuator.Actuator) KioskService {
	return &kioskService{access: access, debouncer: debouncer, door: door}
}

func (s *kioskService) Scan(code string) (*KioskScanResult, error) {
	return s.handle(code, models.ChannelQR)
}

func (s *kioskService) ScanNationalID(nationalID string) (*KioskScanResult, error) {
	return s.handle(nationalID, models.ChannelDNI)
}

func (s *kioskService) handle(token string, channel models.AttendanceChannel) (*KioskScanResult, error) {
	if s.debouncer.Seen(string(channel) + "|" + token) {
		return &KioskScanResult{Status: KioskIgnored, Message: "Scan already processed"}, nil
	}

	verdict, err := s.access.Evaluate(token, channel)
	if err != nil {
		s.debouncer.Forget(string(channel) + "|" + token)
		return nil, err
	}

	if !verdict.Allowed() {
		return &KioskScanResult{Status: KioskDenied, Message: denyMessage(verdict), Verdict: verdict}, nil
	}
	if s.door != nil {
		s.door.Open()
	}
	return &KioskScanResult{Status: KioskGranted, Message: welcomeMessage(verdict), Verdict: verdict}, nil
}

func welcomeMessage(v *models.Verdict) string {
	if v.ReEntry {
		return fmt.Sprintf("Welcome back, %s", v.Client.FullName)
	}
	return fmt.Sprintf("Welcome, %s", v.Client.FullName)
}

func denyMessage(v *models.Verdict) string {
	switch v.Reason {
	case models.DenyReasonExpired:
		return "Membership expired"
	case models.DenyReasonSuspended:
		return "Membership suspended"
	case models.DenyReasonDuplicate:
		return "Attendance already registered today"
	default:
		return "Unknown code"
	}
}
