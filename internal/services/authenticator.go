package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sstracker/sstracker-backend/internal/clientcache"
)

// AuthState is the client-visible login state. Transitions are owned here;
// the UI layer queries State() instead of reading an ambient flag.
type AuthState int

const (
	StateUnauthenticated AuthState = iota
	StateAuthenticated
)

func (s AuthState) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Authenticator drives the login lifecycle for one principal class on one
// device: restore a cached session at startup, step through OTP login,
// log out. State machine: Unauthenticated → Authenticated → Unauthenticated.
type Authenticator struct {
	auth     *AuthService
	sessions *SessionManager
	cache    *clientcache.Cache
	cacheKey string

	mu        sync.RWMutex
	state     AuthState
	principal Principal
	token     string
}

// NewAuthenticator wires the login flow to the device cache. The cache key
// is the directory's namespace: consignor and transporter logins coexist on
// one device.
func NewAuthenticator(auth *AuthService, sessions *SessionManager, cache *clientcache.Cache) *Authenticator {
	key := clientcache.ConsignorKey
	if auth.Directory().Kind() == "transporter" {
		key = clientcache.TransporterKey
	}
	return &Authenticator{
		auth:     auth,
		sessions: sessions,
		cache:    cache,
		cacheKey: key,
	}
}

// State returns the current login state and, when authenticated, the
// principal.
func (a *Authenticator) State() (AuthState, Principal) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state, a.principal
}

// Token returns the live session token, empty when unauthenticated.
func (a *Authenticator) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Restore validates the cached session, if any. An invalid or expired
// cached token clears the cache and lands in Unauthenticated; the caller
// shows the login screen.
func (a *Authenticator) Restore() (AuthState, error) {
	entry, err := a.cache.Load(a.cacheKey)
	if err != nil {
		if errors.Is(err, clientcache.ErrNoEntry) {
			return StateUnauthenticated, nil
		}
		return StateUnauthenticated, err
	}

	p, err := a.sessions.Validate(a.auth.Directory(), entry.SessionToken)
	if err != nil {
		if errors.Is(err, ErrSessionInvalid) || errors.Is(err, ErrSessionExpired) {
			if clearErr := a.cache.Clear(a.cacheKey); clearErr != nil {
				log.Printf("⚠️  Failed to clear stale session cache: %v", clearErr)
			}
			return StateUnauthenticated, nil
		}
		return StateUnauthenticated, err
	}

	a.mu.Lock()
	a.state = StateAuthenticated
	a.principal = p
	a.token = entry.SessionToken
	a.mu.Unlock()

	return StateAuthenticated, nil
}

// RequestOTP starts a login with the class's identifier (phone or GST).
func (a *Authenticator) RequestOTP(key string) error {
	_, err := a.auth.RequestLoginOTP(key)
	return err
}

// SubmitOTP completes a login. On success the session is persisted to the
// device cache and the state flips to Authenticated.
func (a *Authenticator) SubmitOTP(phone, code string) (Principal, error) {
	res, err := a.auth.VerifyLoginOTP(phone, code, a.cache.DeviceInfo())
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(res.Principal)
	if err != nil {
		return nil, fmt.Errorf("failed to encode principal for cache: %w", err)
	}
	if err := a.cache.Save(a.cacheKey, &clientcache.Entry{
		SessionToken: res.SessionToken,
		Principal:    raw,
	}); err != nil {
		// The session exists server-side; a failed cache write only
		// costs the auto-login next launch.
		log.Printf("⚠️  Failed to persist session cache: %v", err)
	}

	a.mu.Lock()
	a.state = StateAuthenticated
	a.principal = res.Principal
	a.token = res.SessionToken
	a.mu.Unlock()

	return res.Principal, nil
}

// Logout revokes the session and clears the cache. Always lands in
// Unauthenticated, even if the server-side revoke fails.
func (a *Authenticator) Logout() error {
	a.mu.Lock()
	token := a.token
	a.state = StateUnauthenticated
	a.principal = nil
	a.token = ""
	a.mu.Unlock()

	if err := a.cache.Clear(a.cacheKey); err != nil {
		log.Printf("⚠️  Failed to clear session cache: %v", err)
	}
	if token == "" {
		return nil
	}
	return a.sessions.Revoke(a.auth.Directory(), token)
}
