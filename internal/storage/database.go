package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sstracker/sstracker-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/Postgres.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by the given database handle.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Migrate creates the namespaced OTP/session tables plus the shared ones.
// AutoMigrate is run per table name because consignor and transporter rows
// live in separate tables with the same shape.
func (d *DatabaseStore) Migrate() error {
	if err := d.db.AutoMigrate(
		&models.Consignor{},
		&models.Transporter{},
		&models.Bilty{},
		&models.City{},
	); err != nil {
		return err
	}
	for _, ns := range []Namespace{ConsignorNS, TransporterNS} {
		if err := d.db.Table(ns.OTPTable).AutoMigrate(&models.OTPRecord{}); err != nil {
			return fmt.Errorf("migrate %s: %w", ns.OTPTable, err)
		}
		if err := d.db.Table(ns.SessionTable).AutoMigrate(&models.AuthSession{}); err != nil {
			return fmt.Errorf("migrate %s: %w", ns.SessionTable, err)
		}
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Principal lookups

func (d *DatabaseStore) GetConsignorByPhone(phone string) (*models.Consignor, error) {
	var c models.Consignor
	if err := d.db.Where("number = ?", phone).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (d *DatabaseStore) GetConsignorByID(id uint) (*models.Consignor, error) {
	var c models.Consignor
	if err := d.db.First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// GetTransporterByGST matches case-insensitively. Legacy rows sometimes carry
// padding spaces in gst_number, so an indexed miss falls back to a trimmed
// comparison over all rows that have a GST set.
func (d *DatabaseStore) GetTransporterByGST(gst string) (*models.Transporter, error) {
	clean := strings.ToUpper(strings.TrimSpace(gst))

	var t models.Transporter
	err := d.db.
		Where("gst_number IS NOT NULL AND gst_number <> ''").
		Where("UPPER(gst_number) = ?", clean).
		First(&t).Error
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var all []*models.Transporter
	if err := d.db.Where("gst_number IS NOT NULL AND gst_number <> ''").Find(&all).Error; err != nil {
		return nil, err
	}
	for _, cand := range all {
		if strings.ToUpper(strings.TrimSpace(cand.GSTNumber)) == clean {
			return cand, nil
		}
	}
	return nil, ErrNotFound
}

func (d *DatabaseStore) GetTransporterByID(id uint) (*models.Transporter, error) {
	var t models.Transporter
	if err := d.db.First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// OTP operations

func (d *DatabaseStore) ExpireLiveOTPs(ns Namespace, phone string) error {
	return d.db.Table(ns.OTPTable).
		Where("phone_number = ? AND is_expired = ? AND is_verified = ?", phone, false, false).
		Update("is_expired", true).Error
}

func (d *DatabaseStore) CreateOTPRecord(ns Namespace, rec *models.OTPRecord) error {
	return d.db.Table(ns.OTPTable).Create(rec).Error
}

func (d *DatabaseStore) GetLatestLiveOTP(ns Namespace, phone string) (*models.OTPRecord, error) {
	var rec models.OTPRecord
	err := d.db.Table(ns.OTPTable).
		Where("phone_number = ? AND is_expired = ? AND is_verified = ?", phone, false, false).
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (d *DatabaseStore) IncrementOTPAttempts(ns Namespace, id uint) error {
	return d.db.Table(ns.OTPTable).
		Where("id = ?", id).
		UpdateColumn("attempt_count", gorm.Expr("attempt_count + 1")).Error
}

func (d *DatabaseStore) MarkOTPExpired(ns Namespace, id uint) error {
	return d.db.Table(ns.OTPTable).
		Where("id = ?", id).
		Update("is_expired", true).Error
}

func (d *DatabaseStore) MarkOTPVerified(ns Namespace, id uint, at time.Time) error {
	return d.db.Table(ns.OTPTable).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_verified": true,
			"verified_at": at,
		}).Error
}

func (d *DatabaseStore) SweepExpiredOTPs(ns Namespace, now time.Time) (int64, error) {
	res := d.db.Table(ns.OTPTable).
		Where("is_expired = ? AND is_verified = ? AND expires_at < ?", false, false, now).
		Update("is_expired", true)
	return res.RowsAffected, res.Error
}

// Session operations

func (d *DatabaseStore) RevokeActiveSessions(ns Namespace, principalID uint, at time.Time) error {
	return d.db.Table(ns.SessionTable).
		Where("principal_id = ? AND is_active = ?", principalID, true).
		Updates(map[string]interface{}{
			"is_active":     false,
			"logged_out_at": at,
		}).Error
}

func (d *DatabaseStore) CreateSession(ns Namespace, sess *models.AuthSession) error {
	return d.db.Table(ns.SessionTable).Create(sess).Error
}

func (d *DatabaseStore) GetActiveSessionByToken(ns Namespace, token string) (*models.AuthSession, error) {
	var sess models.AuthSession
	err := d.db.Table(ns.SessionTable).
		Where("session_token = ? AND is_active = ?", token, true).
		First(&sess).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sess, nil
}

func (d *DatabaseStore) RevokeSessionByToken(ns Namespace, token string, at time.Time) error {
	// No-op when the token is unknown or already revoked; logout is idempotent.
	return d.db.Table(ns.SessionTable).
		Where("session_token = ? AND is_active = ?", token, true).
		Updates(map[string]interface{}{
			"is_active":     false,
			"logged_out_at": at,
		}).Error
}

func (d *DatabaseStore) TouchSession(ns Namespace, id uint, at time.Time) error {
	return d.db.Table(ns.SessionTable).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (d *DatabaseStore) SweepExpiredSessions(ns Namespace, now time.Time) (int64, error) {
	res := d.db.Table(ns.SessionTable).
		Where("is_active = ? AND expires_at < ?", true, now).
		Updates(map[string]interface{}{
			"is_active":     false,
			"logged_out_at": now,
		})
	return res.RowsAffected, res.Error
}

// Bilty read model

func (d *DatabaseStore) GetBiltyByGR(grNo string) (*models.Bilty, error) {
	var b models.Bilty
	err := d.db.
		Where("LOWER(gr_no) = LOWER(?)", strings.TrimSpace(grNo)).
		Where("is_active = ?", true).
		First(&b).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (d *DatabaseStore) ListBiltiesForConsignor(c *models.Consignor, limit int) ([]*models.Bilty, error) {
	q := d.db.Where("is_active = ?", true)
	if c.GSTNumber != "" {
		q = q.Where("consignor_number = ? OR UPPER(consignor_gst) = UPPER(?)", c.Number, c.GSTNumber)
	} else {
		q = q.Where("consignor_number = ?", c.Number)
	}
	var bilties []*models.Bilty
	if err := q.Order("created_at DESC").Limit(limit).Find(&bilties).Error; err != nil {
		return nil, err
	}
	return bilties, nil
}

func (d *DatabaseStore) ListBiltiesForTransporter(t *models.Transporter, limit int) ([]*models.Bilty, error) {
	var bilties []*models.Bilty
	err := d.db.
		Where("is_active = ?", true).
		Where("UPPER(transport_gst) = UPPER(?)", strings.TrimSpace(t.GSTNumber)).
		Order("created_at DESC").
		Limit(limit).
		Find(&bilties).Error
	if err != nil {
		return nil, err
	}
	return bilties, nil
}

func (d *DatabaseStore) GetBiltyStatsForConsignor(c *models.Consignor) (*models.BiltyStats, error) {
	bilties, err := d.ListBiltiesForConsignor(c, -1)
	if err != nil {
		return nil, err
	}
	stats := &models.BiltyStats{}
	for _, b := range bilties {
		stats.Total++
		switch b.SavingOption {
		case "paid":
			stats.Paid++
		case "to_pay":
			stats.ToPay++
		}
	}
	return stats, nil
}

func (d *DatabaseStore) GetCitiesByIDs(ids []uint) ([]*models.City, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var cities []*models.City
	if err := d.db.Where("id IN ?", ids).Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

func (d *DatabaseStore) ListCities() ([]*models.City, error) {
	var cities []*models.City
	if err := d.db.Order("city_name ASC").Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}
