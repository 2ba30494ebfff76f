package models

import (
	"time"

	"gorm.io/gorm"
)

// OTPRecord is one issued login code. Records are soft history: they are
// flipped to expired/verified but never deleted. At most one record per
// (principal, phone) may be live (not expired, not verified) at a time.
type OTPRecord struct {
	gorm.Model
	PrincipalID  uint       `json:"principal_id" gorm:"index;not null"`
	PhoneNumber  string     `json:"phone_number" gorm:"index;not null"`
	OTPCode      string     `json:"otp_code" gorm:"not null"` // 6 digits, leading zeros kept
	Purpose      string     `json:"purpose" gorm:"not null;default:login"`
	IsVerified   bool       `json:"is_verified" gorm:"default:false"`
	IsExpired    bool       `json:"is_expired" gorm:"default:false"`
	AttemptCount int        `json:"attempt_count" gorm:"default:0"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"not null"`
	VerifiedAt   *time.Time `json:"verified_at"`
}

// Live reports whether the record can still be submitted against.
func (o *OTPRecord) Live() bool {
	return !o.IsExpired && !o.IsVerified
}
