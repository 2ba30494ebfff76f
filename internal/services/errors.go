package services

import "errors"

// Auth failure taxonomy. Handlers match with errors.Is and turn every one
// of these into a structured JSON body; none of them crosses the HTTP
// boundary as a panic or a 500.
var (
	// ErrNotRegistered: the login identifier has no matching principal.
	// There is no self-registration; onboarding happens at the office.
	ErrNotRegistered = errors.New("not registered, please contact support")

	// ErrNoMobileNumber: transporter row matched but carries no phone,
	// so there is nowhere to send the code.
	ErrNoMobileNumber = errors.New("no mobile number registered for this account")

	// ErrNoLiveOTP: verification attempted with nothing pending.
	ErrNoLiveOTP = errors.New("no valid OTP found, please request a new one")

	// ErrOTPExpired: the pending code aged out. Terminal for that record.
	ErrOTPExpired = errors.New("OTP has expired, please request a new one")

	// ErrTooManyAttempts: attempt ceiling hit. Terminal for that record.
	ErrTooManyAttempts = errors.New("too many attempts, please request a new OTP")

	// ErrOTPMismatch: wrong code. The record stays live, the attempt is
	// already charged.
	ErrOTPMismatch = errors.New("invalid OTP, please try again")

	// ErrSessionInvalid: unknown or revoked token.
	ErrSessionInvalid = errors.New("session is invalid")

	// ErrSessionExpired: token past its 30-day window; it has been
	// revoked as a side effect.
	ErrSessionExpired = errors.New("session has expired, please log in again")
)
