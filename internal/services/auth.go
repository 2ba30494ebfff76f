package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sstracker/sstracker-backend/internal/models"
	"github.com/sstracker/sstracker-backend/internal/storage"
	"github.com/sstracker/sstracker-backend/internal/utils"
)

const (
	otpTTL         = 5 * time.Minute
	otpMaxAttempts = 3
	otpPurpose     = "login"
)

// AuthService runs the OTP login pipeline for one principal class. The
// consignor and transporter flows are two instances of this service over
// different Directory implementations.
type AuthService struct {
	store     storage.Store
	directory Directory
	messenger Messenger
	sessions  *SessionManager

	// strictDelivery surfaces messenger failures to the caller. Off by
	// default: the code is already durable, so the login can still be
	// completed, and the office can read the code out over the phone.
	strictDelivery bool

	now func() time.Time
}

// NewAuthService creates the login pipeline for the given directory.
func NewAuthService(store storage.Store, directory Directory, messenger Messenger, sessions *SessionManager, strictDelivery bool) *AuthService {
	return &AuthService{
		store:          store,
		directory:      directory,
		messenger:      messenger,
		sessions:       sessions,
		strictDelivery: strictDelivery,
		now:            time.Now,
	}
}

// Directory returns the principal-class capability this service runs over.
func (s *AuthService) Directory() Directory {
	return s.directory
}

// OTPIssue reports where a requested code went.
type OTPIssue struct {
	Principal Principal
	Phone     string
}

// LoginResult is a verified principal plus its freshly minted session.
type LoginResult struct {
	Principal    Principal
	SessionToken string
}

// RequestLoginOTP resolves the login key (phone or GST depending on the
// directory), expires any live codes for that phone, stores a fresh 5-minute
// code and dispatches it. Expire-then-insert keeps at most one live record
// per phone; the two steps are separate round-trips, so a failure in between
// leaves zero live records, which fails closed.
func (s *AuthService) RequestLoginOTP(key string) (*OTPIssue, error) {
	p, err := s.directory.LookupByKey(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}

	phone := strings.TrimSpace(p.PrincipalPhone())
	if phone == "" {
		return nil, ErrNoMobileNumber
	}

	code, err := utils.GenerateOTPCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	ns := s.directory.Namespace()
	if err := s.store.ExpireLiveOTPs(ns, phone); err != nil {
		return nil, fmt.Errorf("failed to expire previous OTPs: %w", err)
	}

	rec := &models.OTPRecord{
		PrincipalID: p.PrincipalID(),
		PhoneNumber: phone,
		OTPCode:     code,
		Purpose:     otpPurpose,
		ExpiresAt:   s.now().Add(otpTTL),
	}
	if err := s.store.CreateOTPRecord(ns, rec); err != nil {
		return nil, fmt.Errorf("failed to store OTP: %w", err)
	}

	if err := s.messenger.SendOTP(phone, code); err != nil {
		if s.strictDelivery {
			return nil, fmt.Errorf("failed to deliver OTP: %w", err)
		}
		log.Printf("⚠️  OTP delivery to %s failed, code is stored: %v", maskPhone(phone), err)
	}

	return &OTPIssue{Principal: p, Phone: phone}, nil
}

// VerifyLoginOTP checks the submitted code against the latest live record
// for the phone. The attempt is charged before the comparison, so a wrong
// code still burns one of the three tries. A match consumes the record and
// mints a session; this is the only path into session issuance.
func (s *AuthService) VerifyLoginOTP(phone, code, deviceInfo string) (*LoginResult, error) {
	phone = strings.TrimSpace(phone)
	ns := s.directory.Namespace()

	rec, err := s.store.GetLatestLiveOTP(ns, phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoLiveOTP
		}
		return nil, fmt.Errorf("failed to load OTP record: %w", err)
	}

	if s.now().After(rec.ExpiresAt) {
		if err := s.store.MarkOTPExpired(ns, rec.ID); err != nil {
			return nil, fmt.Errorf("failed to expire OTP: %w", err)
		}
		return nil, ErrOTPExpired
	}

	if rec.AttemptCount >= otpMaxAttempts {
		if err := s.store.MarkOTPExpired(ns, rec.ID); err != nil {
			return nil, fmt.Errorf("failed to expire OTP: %w", err)
		}
		return nil, ErrTooManyAttempts
	}

	if err := s.store.IncrementOTPAttempts(ns, rec.ID); err != nil {
		return nil, fmt.Errorf("failed to charge attempt: %w", err)
	}

	// Exact string comparison; "042819" and "42819" are different codes.
	if rec.OTPCode != code {
		return nil, ErrOTPMismatch
	}

	if err := s.store.MarkOTPVerified(ns, rec.ID, s.now()); err != nil {
		return nil, fmt.Errorf("failed to consume OTP: %w", err)
	}

	p, err := s.directory.LookupByID(rec.PrincipalID)
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.Create(s.directory, p, deviceInfo)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Principal: p, SessionToken: token}, nil
}
