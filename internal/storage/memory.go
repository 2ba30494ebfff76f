package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sstracker/sstracker-backend/internal/models"
)

// MemoryStore holds all data in memory. Used for tests and local runs
// without Postgres (USE_MEMORY_STORE=true).
type MemoryStore struct {
	mu sync.RWMutex

	consignors   []*models.Consignor
	transporters []*models.Transporter
	bilties      []*models.Bilty
	cities       []*models.City

	// OTP records and sessions keyed by namespace table name, mirroring
	// the per-principal-class tables in Postgres.
	otps     map[string][]*models.OTPRecord
	sessions map[string][]*models.AuthSession

	nextID uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		otps:     make(map[string][]*models.OTPRecord),
		sessions: make(map[string][]*models.AuthSession),
	}
}

func (m *MemoryStore) allocID() uint {
	m.nextID++
	return m.nextID
}

// Seed helpers for tests and local bootstrap.

func (m *MemoryStore) AddConsignor(c *models.Consignor) *models.Consignor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.allocID()
	}
	c.CreatedAt = time.Now()
	m.consignors = append(m.consignors, c)
	return c
}

func (m *MemoryStore) AddTransporter(t *models.Transporter) *models.Transporter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.allocID()
	}
	t.CreatedAt = time.Now()
	m.transporters = append(m.transporters, t)
	return t
}

func (m *MemoryStore) AddBilty(b *models.Bilty) *models.Bilty {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == 0 {
		b.ID = m.allocID()
	}
	b.CreatedAt = time.Now()
	m.bilties = append(m.bilties, b)
	return b
}

func (m *MemoryStore) AddCity(c *models.City) *models.City {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.allocID()
	}
	m.cities = append(m.cities, c)
	return c
}

// Principal lookups

func (m *MemoryStore) GetConsignorByPhone(phone string) (*models.Consignor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.consignors {
		if c.Number == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetConsignorByID(id uint) (*models.Consignor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.consignors {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetTransporterByGST(gst string) (*models.Transporter, error) {
	clean := strings.ToUpper(strings.TrimSpace(gst))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transporters {
		if t.GSTNumber == "" {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(t.GSTNumber)) == clean {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetTransporterByID(id uint) (*models.Transporter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transporters {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// OTP operations

func (m *MemoryStore) ExpireLiveOTPs(ns Namespace, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.otps[ns.OTPTable] {
		if rec.PhoneNumber == phone && rec.Live() {
			rec.IsExpired = true
		}
	}
	return nil
}

func (m *MemoryStore) CreateOTPRecord(ns Namespace, rec *models.OTPRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.allocID()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	cp := *rec
	m.otps[ns.OTPTable] = append(m.otps[ns.OTPTable], &cp)
	return nil
}

func (m *MemoryStore) GetLatestLiveOTP(ns Namespace, phone string) (*models.OTPRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var live []*models.OTPRecord
	for _, rec := range m.otps[ns.OTPTable] {
		if rec.PhoneNumber == phone && rec.Live() {
			live = append(live, rec)
		}
	}
	if len(live) == 0 {
		return nil, ErrNotFound
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].CreatedAt.Equal(live[j].CreatedAt) {
			return live[i].ID > live[j].ID
		}
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})
	cp := *live[0]
	return &cp, nil
}

func (m *MemoryStore) findOTP(ns Namespace, id uint) *models.OTPRecord {
	for _, rec := range m.otps[ns.OTPTable] {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (m *MemoryStore) IncrementOTPAttempts(ns Namespace, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.findOTP(ns, id)
	if rec == nil {
		return ErrNotFound
	}
	rec.AttemptCount++
	return nil
}

func (m *MemoryStore) MarkOTPExpired(ns Namespace, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.findOTP(ns, id)
	if rec == nil {
		return ErrNotFound
	}
	rec.IsExpired = true
	return nil
}

func (m *MemoryStore) MarkOTPVerified(ns Namespace, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.findOTP(ns, id)
	if rec == nil {
		return ErrNotFound
	}
	rec.IsVerified = true
	rec.VerifiedAt = &at
	return nil
}

func (m *MemoryStore) SweepExpiredOTPs(ns Namespace, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, rec := range m.otps[ns.OTPTable] {
		if rec.Live() && now.After(rec.ExpiresAt) {
			rec.IsExpired = true
			n++
		}
	}
	return n, nil
}

// LiveOTPCount reports the live records for a phone; test helper for the
// single-live-record invariant.
func (m *MemoryStore) LiveOTPCount(ns Namespace, phone string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rec := range m.otps[ns.OTPTable] {
		if rec.PhoneNumber == phone && rec.Live() {
			n++
		}
	}
	return n
}

// Session operations

func (m *MemoryStore) RevokeActiveSessions(ns Namespace, principalID uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions[ns.SessionTable] {
		if sess.PrincipalID == principalID && sess.IsActive {
			sess.IsActive = false
			stamp := at
			sess.LoggedOutAt = &stamp
		}
	}
	return nil
}

func (m *MemoryStore) CreateSession(ns Namespace, sess *models.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess.ID = m.allocID()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	cp := *sess
	m.sessions[ns.SessionTable] = append(m.sessions[ns.SessionTable], &cp)
	return nil
}

func (m *MemoryStore) GetActiveSessionByToken(ns Namespace, token string) (*models.AuthSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sess := range m.sessions[ns.SessionTable] {
		if sess.SessionToken == token && sess.IsActive {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) RevokeSessionByToken(ns Namespace, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions[ns.SessionTable] {
		if sess.SessionToken == token && sess.IsActive {
			sess.IsActive = false
			stamp := at
			sess.LoggedOutAt = &stamp
		}
	}
	return nil
}

func (m *MemoryStore) TouchSession(ns Namespace, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions[ns.SessionTable] {
		if sess.ID == id {
			stamp := at
			sess.LastUsedAt = &stamp
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) SweepExpiredSessions(ns Namespace, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, sess := range m.sessions[ns.SessionTable] {
		if sess.IsActive && now.After(sess.ExpiresAt) {
			sess.IsActive = false
			stamp := now
			sess.LoggedOutAt = &stamp
			n++
		}
	}
	return n, nil
}

// Bilty read model

func (m *MemoryStore) GetBiltyByGR(grNo string) (*models.Bilty, error) {
	clean := strings.ToLower(strings.TrimSpace(grNo))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bilties {
		if b.IsActive && strings.ToLower(b.GRNumber) == clean {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListBiltiesForConsignor(c *models.Consignor, limit int) ([]*models.Bilty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Bilty
	for _, b := range m.bilties {
		if !b.IsActive {
			continue
		}
		match := b.ConsignorNumber == c.Number
		if !match && c.GSTNumber != "" {
			match = strings.EqualFold(b.ConsignorGST, c.GSTNumber)
		}
		if match {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortBiltiesNewestFirst(out)
	return capBilties(out, limit), nil
}

func (m *MemoryStore) ListBiltiesForTransporter(t *models.Transporter, limit int) ([]*models.Bilty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Bilty
	for _, b := range m.bilties {
		if b.IsActive && strings.EqualFold(strings.TrimSpace(b.TransportGST), strings.TrimSpace(t.GSTNumber)) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortBiltiesNewestFirst(out)
	return capBilties(out, limit), nil
}

func (m *MemoryStore) GetBiltyStatsForConsignor(c *models.Consignor) (*models.BiltyStats, error) {
	bilties, err := m.ListBiltiesForConsignor(c, -1)
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

func (m *MemoryStore) GetCitiesByIDs(ids []uint) ([]*models.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.City
	for _, c := range m.cities {
		for _, id := range ids {
			if c.ID == id {
				cp := *c
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) ListCities() ([]*models.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.City, 0, len(m.cities))
	for _, c := range m.cities {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CityName < out[j].CityName })
	return out, nil
}

func sortBiltiesNewestFirst(bilties []*models.Bilty) {
	sort.Slice(bilties, func(i, j int) bool {
		if bilties[i].CreatedAt.Equal(bilties[j].CreatedAt) {
			return bilties[i].ID > bilties[j].ID
		}
		return bilties[i].CreatedAt.After(bilties[j].CreatedAt)
	})
}

func capBilties(bilties []*models.Bilty, limit int) []*models.Bilty {
	if limit > 0 && len(bilties) > limit {
		return bilties[:limit]
	}
	return bilties
}
