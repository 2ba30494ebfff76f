package storage

import (
	"errors"
	"time"

	"github.com/sstracker/sstracker-backend/internal/models"
)

// ErrNotFound is returned by lookups that miss. Callers match with errors.Is.
var ErrNotFound = errors.New("record not found")

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Namespace routes OTP and session rows to the per-principal-class tables.
// Consignor and transporter records never share a table.
type Namespace struct {
	OTPTable     string
	SessionTable string
}

var (
	// ConsignorNS backs the consignor login flow.
	ConsignorNS = Namespace{
		OTPTable:     "consignor_otp_records",
		SessionTable: "consignor_sessions",
	}
	// TransporterNS backs the transporter login flow.
	TransporterNS = Namespace{
		OTPTable:     "transport_otp_records",
		SessionTable: "transport_sessions",
	}
)

// Store defines the interface for storage operations
type Store interface {
	// Principal lookups (read-only; profiles are managed elsewhere)
	GetConsignorByPhone(phone string) (*models.Consignor, error)
	GetConsignorByID(id uint) (*models.Consignor, error)
	GetTransporterByGST(gst string) (*models.Transporter, error)
	GetTransporterByID(id uint) (*models.Transporter, error)

	// OTP operations. Records are soft history: flipped, never deleted.
	ExpireLiveOTPs(ns Namespace, phone string) error
	CreateOTPRecord(ns Namespace, rec *models.OTPRecord) error
	GetLatestLiveOTP(ns Namespace, phone string) (*models.OTPRecord, error)
	IncrementOTPAttempts(ns Namespace, id uint) error
	MarkOTPExpired(ns Namespace, id uint) error
	MarkOTPVerified(ns Namespace, id uint, at time.Time) error
	SweepExpiredOTPs(ns Namespace, now time.Time) (int64, error)

	// Session operations
	RevokeActiveSessions(ns Namespace, principalID uint, at time.Time) error
	CreateSession(ns Namespace, sess *models.AuthSession) error
	GetActiveSessionByToken(ns Namespace, token string) (*models.AuthSession, error)
	RevokeSessionByToken(ns Namespace, token string, at time.Time) error
	TouchSession(ns Namespace, id uint, at time.Time) error
	SweepExpiredSessions(ns Namespace, now time.Time) (int64, error)

	// Bilty read model
	GetBiltyByGR(grNo string) (*models.Bilty, error)
	ListBiltiesForConsignor(c *models.Consignor, limit int) ([]*models.Bilty, error)
	ListBiltiesForTransporter(t *models.Transporter, limit int) ([]*models.Bilty, error)
	GetBiltyStatsForConsignor(c *models.Consignor) (*models.BiltyStats, error)
	GetCitiesByIDs(ids []uint) ([]*models.City, error)
	ListCities() ([]*models.City, error)
}
