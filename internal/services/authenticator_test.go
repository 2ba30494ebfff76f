package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sstracker/sstracker-backend/internal/clientcache"
	"github.com/sstracker/sstracker-backend/internal/models"
	"github.com/sstracker/sstracker-backend/internal/storage"
)

func newAuthenticatorFixture(t *testing.T, cacheDir string) (*captureMessenger, *Authenticator) {
	t.Helper()
	store := storage.NewMemoryStore()
	store.AddConsignor(&models.Consignor{
		CompanyName: "Shree Shyam Traders",
		Number:      "9876543210",
	})
	messenger := &captureMessenger{}
	sessions := NewSessionManager(store)
	auth := NewAuthService(store, NewConsignorDirectory(store), messenger, sessions, false)

	cache, err := clientcache.New(cacheDir)
	require.NoError(t, err)

	return messenger, NewAuthenticator(auth, sessions, cache)
}

func TestAuthenticatorLifecycle(t *testing.T) {
	_, a := newAuthenticatorFixture(t, t.TempDir())

	state, err := a.Restore()
	require.NoError(t, err)
	require.Equal(t, StateUnauthenticated, state)

	got, _ := a.State()
	require.Equal(t, StateUnauthenticated, got)
	require.Empty(t, a.Token())
}

func TestAuthenticatorLoginLogout(t *testing.T) {
	messenger, a := newAuthenticatorFixture(t, t.TempDir())

	require.NoError(t, a.RequestOTP("9876543210"))

	p, err := a.SubmitOTP("9876543210", messenger.lastCode())
	require.NoError(t, err)
	require.Equal(t, "Shree Shyam Traders", p.(*models.Consignor).CompanyName)

	state, principal := a.State()
	require.Equal(t, StateAuthenticated, state)
	require.NotNil(t, principal)
	require.Len(t, a.Token(), 64)

	require.NoError(t, a.Logout())
	state, principal = a.State()
	require.Equal(t, StateUnauthenticated, state)
	require.Nil(t, principal)
	require.Empty(t, a.Token())
}

func TestAuthenticatorWrongCodeStaysUnauthenticated(t *testing.T) {
	messenger, a := newAuthenticatorFixture(t, t.TempDir())

	require.NoError(t, a.RequestOTP("9876543210"))

	wrong := "000000"
	if wrong == messenger.lastCode() {
		wrong = "000001"
	}
	_, err := a.SubmitOTP("9876543210", wrong)
	require.ErrorIs(t, err, ErrOTPMismatch)

	state, _ := a.State()
	require.Equal(t, StateUnauthenticated, state)
}

func TestAuthenticatorRestoreSkipsLogin(t *testing.T) {
	cacheDir := t.TempDir()

	// First launch: full OTP login, session lands in the device cache.
	store := storage.NewMemoryStore()
	store.AddConsignor(&models.Consignor{CompanyName: "Restore Me", Number: "9876543210"})
	messenger := &captureMessenger{}
	sessions := NewSessionManager(store)
	auth := NewAuthService(store, NewConsignorDirectory(store), messenger, sessions, false)

	cache, err := clientcache.New(cacheDir)
	require.NoError(t, err)
	first := NewAuthenticator(auth, sessions, cache)

	require.NoError(t, first.RequestOTP("9876543210"))
	_, err = first.SubmitOTP("9876543210", messenger.lastCode())
	require.NoError(t, err)
	token := first.Token()

	// Second launch: same store and cache dir, fresh Authenticator.
	cache2, err := clientcache.New(cacheDir)
	require.NoError(t, err)
	second := NewAuthenticator(auth, sessions, cache2)

	state, err := second.Restore()
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, state)
	require.Equal(t, token, second.Token())

	// Logout on the second launch invalidates the token for good.
	require.NoError(t, second.Logout())

	cache3, err := clientcache.New(cacheDir)
	require.NoError(t, err)
	third := NewAuthenticator(auth, sessions, cache3)
	state, err = third.Restore()
	require.NoError(t, err)
	require.Equal(t, StateUnauthenticated, state)
}
