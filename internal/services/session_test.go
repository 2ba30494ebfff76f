package services

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sstracker/sstracker-backend/internal/models"
	"github.com/sstracker/sstracker-backend/internal/storage"
)

func newSessionFixture(t *testing.T) (*storage.MemoryStore, *SessionManager, *ConsignorDirectory, *models.Consignor) {
	t.Helper()
	store := storage.NewMemoryStore()
	c := store.AddConsignor(&models.Consignor{
		CompanyName: "Shree Shyam Traders",
		Number:      "9876543210",
	})
	return store, NewSessionManager(store), NewConsignorDirectory(store), c
}

func TestSessionCreateAndValidate(t *testing.T) {
	_, sm, dir, c := newSessionFixture(t)

	token, err := sm.Create(dir, c, "Pixel 7")
	require.NoError(t, err)
	require.Len(t, token, 64)
	_, err = hex.DecodeString(token)
	require.NoError(t, err)

	p, err := sm.Validate(dir, token)
	require.NoError(t, err)
	require.Equal(t, c.ID, p.PrincipalID())
}

func TestSessionThirtyDayWindow(t *testing.T) {
	_, sm, dir, c := newSessionFixture(t)

	start := time.Now()
	sm.now = func() time.Time { return start }

	token, err := sm.Create(dir, c, "")
	require.NoError(t, err)

	sm.now = func() time.Time { return start.Add(29 * 24 * time.Hour) }
	_, err = sm.Validate(dir, token)
	require.NoError(t, err)

	sm.now = func() time.Time { return start.Add(31 * 24 * time.Hour) }
	_, err = sm.Validate(dir, token)
	require.ErrorIs(t, err, ErrSessionExpired)

	// Expiry revoked the row; no resurrection even if the clock rewinds.
	sm.now = func() time.Time { return start.Add(29 * 24 * time.Hour) }
	_, err = sm.Validate(dir, token)
	require.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSecondSessionRevokesFirst(t *testing.T) {
	_, sm, dir, c := newSessionFixture(t)

	first, err := sm.Create(dir, c, "old phone")
	require.NoError(t, err)
	second, err := sm.Create(dir, c, "new phone")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = sm.Validate(dir, first)
	require.ErrorIs(t, err, ErrSessionInvalid)
	_, err = sm.Validate(dir, second)
	require.NoError(t, err)
}

func TestRevokeIsIdempotent(t *testing.T) {
	_, sm, dir, c := newSessionFixture(t)

	token, err := sm.Create(dir, c, "")
	require.NoError(t, err)

	require.NoError(t, sm.Revoke(dir, token))
	require.NoError(t, sm.Revoke(dir, token))
	require.NoError(t, sm.Revoke(dir, "deadbeef"))

	_, err = sm.Validate(dir, token)
	require.ErrorIs(t, err, ErrSessionInvalid)
}

func TestValidateUnknownToken(t *testing.T) {
	_, sm, dir, _ := newSessionFixture(t)

	_, err := sm.Validate(dir, "not-a-token")
	require.ErrorIs(t, err, ErrSessionInvalid)
}

func TestLastUsedTrackingPerNamespace(t *testing.T) {
	store := storage.NewMemoryStore()
	c := store.AddConsignor(&models.Consignor{CompanyName: "Track Me", Number: "9876543210"})
	tr := store.AddTransporter(&models.Transporter{TransportName: "No Tracking", GSTNumber: "22AAAAA0000A1Z5", MobNumber: "9000000001"})

	sm := NewSessionManager(store)
	consignorDir := NewConsignorDirectory(store)
	transporterDir := NewTransporterDirectory(store)

	start := time.Now()
	sm.now = func() time.Time { return start }

	cTok, err := sm.Create(consignorDir, c, "")
	require.NoError(t, err)
	tTok, err := sm.Create(transporterDir, tr, "")
	require.NoError(t, err)

	later := start.Add(time.Hour)
	sm.now = func() time.Time { return later }

	_, err = sm.Validate(consignorDir, cTok)
	require.NoError(t, err)
	_, err = sm.Validate(transporterDir, tTok)
	require.NoError(t, err)

	cSess, err := store.GetActiveSessionByToken(storage.ConsignorNS, cTok)
	require.NoError(t, err)
	require.NotNil(t, cSess.LastUsedAt)
	require.True(t, cSess.LastUsedAt.Equal(later))

	// The transporter variant never stamps last_used_at.
	tSess, err := store.GetActiveSessionByToken(storage.TransporterNS, tTok)
	require.NoError(t, err)
	require.Nil(t, tSess.LastUsedAt)
}
