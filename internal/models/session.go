package models

import (
	"time"

	"gorm.io/gorm"
)

// AuthSession is a bearer session minted after OTP verification. The token
// is 32 bytes of crypto/rand entropy, hex-encoded (64 chars). At most one
// active session may exist per principal; a new login revokes the rest.
// Revoked and expired sessions are terminal, never reactivated.
type AuthSession struct {
	gorm.Model
	PrincipalID  uint       `json:"principal_id" gorm:"index;not null"`
	PhoneNumber  string     `json:"phone_number"`
	SessionToken string     `json:"session_token" gorm:"uniqueIndex;not null"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	DeviceInfo   string     `json:"device_info"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"not null"`
	LastUsedAt   *time.Time `json:"last_used_at"`
	LoggedOutAt  *time.Time `json:"logged_out_at"`
}
