package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sstracker/sstracker-backend/internal/models"
	"github.com/sstracker/sstracker-backend/internal/storage"
	"github.com/sstracker/sstracker-backend/internal/utils"
)

const sessionTTL = 30 * 24 * time.Hour

// SessionManager mints, validates and revokes bearer sessions. One active
// session per principal: creating a new one revokes the rest, so logging in
// on a second device logs the first one out. Revoked and expired sessions
// stay in the table as history and are never reactivated.
type SessionManager struct {
	store storage.Store
	now   func() time.Time
}

// NewSessionManager creates a new session manager
func NewSessionManager(store storage.Store) *SessionManager {
	return &SessionManager{
		store: store,
		now:   time.Now,
	}
}

// Create revokes the principal's active sessions and inserts a fresh one
// with a 30-day expiry. Returns the opaque token; it is stored nowhere else
// server-side.
func (sm *SessionManager) Create(dir Directory, p Principal, deviceInfo string) (string, error) {
	token, err := utils.GenerateSessionToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	if deviceInfo == "" {
		deviceInfo = "Mobile App"
	}

	now := sm.now()
	ns := dir.Namespace()

	if err := sm.store.RevokeActiveSessions(ns, p.PrincipalID(), now); err != nil {
		return "", fmt.Errorf("failed to revoke previous sessions: %w", err)
	}

	sess := &models.AuthSession{
		PrincipalID:  p.PrincipalID(),
		PhoneNumber:  p.PrincipalPhone(),
		SessionToken: token,
		IsActive:     true,
		DeviceInfo:   deviceInfo,
		ExpiresAt:    now.Add(sessionTTL),
	}
	if dir.TracksLastUsed() {
		stamp := now
		sess.LastUsedAt = &stamp
	}

	if err := sm.store.CreateSession(ns, sess); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	log.Printf("Session created for %s %d", dir.Kind(), p.PrincipalID())
	return token, nil
}

// Validate resolves a token to its principal. An expired session is revoked
// on sight and reported as expired; the consignor namespace additionally
// refreshes last_used_at on every successful validation.
func (sm *SessionManager) Validate(dir Directory, token string) (Principal, error) {
	ns := dir.Namespace()

	sess, err := sm.store.GetActiveSessionByToken(ns, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := sm.now()
	if now.After(sess.ExpiresAt) {
		if err := sm.store.RevokeSessionByToken(ns, token, now); err != nil {
			return nil, fmt.Errorf("failed to revoke expired session: %w", err)
		}
		return nil, ErrSessionExpired
	}

	if dir.TracksLastUsed() {
		if err := sm.store.TouchSession(ns, sess.ID, now); err != nil {
			log.Printf("⚠️  Failed to refresh last_used_at for session %d: %v", sess.ID, err)
		}
	}

	return dir.LookupByID(sess.PrincipalID)
}

// Revoke logs a token out. Revoking an unknown or already-revoked token is
// a no-op success.
func (sm *SessionManager) Revoke(dir Directory, token string) error {
	if err := sm.store.RevokeSessionByToken(dir.Namespace(), token, sm.now()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
