package services

import (
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sstracker/sstracker-backend/internal/models"
	"github.com/sstracker/sstracker-backend/internal/storage"
)

// captureMessenger records sent codes instead of delivering them.
type captureMessenger struct {
	mu   sync.Mutex
	sent []struct{ phone, code string }
	fail error
}

func (m *captureMessenger) SendOTP(phone, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, struct{ phone, code string }{phone, code})
	return nil
}

func (m *captureMessenger) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].code
}

func (m *captureMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newConsignorFixture(t *testing.T) (*storage.MemoryStore, *captureMessenger, *AuthService) {
	t.Helper()
	store := storage.NewMemoryStore()
	store.AddConsignor(&models.Consignor{
		CompanyName: "Shree Shyam Traders",
		Number:      "9876543210",
		GSTNumber:   "22BBBBB1111B1Z6",
	})
	messenger := &captureMessenger{}
	sessions := NewSessionManager(store)
	auth := NewAuthService(store, NewConsignorDirectory(store), messenger, sessions, false)
	return store, messenger, auth
}

func newTransporterFixture(t *testing.T) (*storage.MemoryStore, *captureMessenger, *AuthService) {
	t.Helper()
	store := storage.NewMemoryStore()
	store.AddTransporter(&models.Transporter{
		TransportName: "Shree Roadlines",
		GSTNumber:     "22AAAAA0000A1Z5",
		MobNumber:     "9000000001",
		CityName:      "Raipur",
	})
	store.AddTransporter(&models.Transporter{
		TransportName: "No Phone Carriers",
		GSTNumber:     "27CCCCC2222C1Z7",
	})
	messenger := &captureMessenger{}
	sessions := NewSessionManager(store)
	auth := NewAuthService(store, NewTransporterDirectory(store), messenger, sessions, false)
	return store, messenger, auth
}

func TestRequestLoginOTPUnknownPhone(t *testing.T) {
	store, messenger, auth := newConsignorFixture(t)

	_, err := auth.RequestLoginOTP("1234509876")
	require.ErrorIs(t, err, ErrNotRegistered)
	require.Equal(t, 0, messenger.count())
	require.Equal(t, 0, store.LiveOTPCount(storage.ConsignorNS, "1234509876"))
}

func TestRequestLoginOTPStoresAndSends(t *testing.T) {
	store, messenger, auth := newConsignorFixture(t)

	issue, err := auth.RequestLoginOTP("9876543210")
	require.NoError(t, err)
	require.Equal(t, "9876543210", issue.Phone)
	require.Equal(t, 1, messenger.count())
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), messenger.lastCode())
	require.Equal(t, 1, store.LiveOTPCount(storage.ConsignorNS, "9876543210"))
}

func TestRequestLoginOTPSupersedesPrevious(t *testing.T) {
	store, messenger, auth := newConsignorFixture(t)

	_, err := auth.RequestLoginOTP("9876543210")
	require.NoError(t, err)
	_, err = auth.RequestLoginOTP("9876543210")
	require.NoError(t, err)

	// Expire-then-insert: never two live records after the call returns.
	require.Equal(t, 1, store.LiveOTPCount(storage.ConsignorNS, "9876543210"))

	// Only the latest code verifies.
	latest := messenger.lastCode()
	res, err := auth.VerifyLoginOTP("9876543210", latest, "test device")
	require.NoError(t, err)
	require.Equal(t, "9876543210", res.Principal.PrincipalPhone())
}

func TestRequestLoginOTPDeliveryFailureIsBestEffort(t *testing.T) {
	store, messenger, auth := newConsignorFixture(t)
	messenger.fail = errors.New("channel down")

	_, err := auth.RequestLoginOTP("9876543210")
	require.NoError(t, err)
	// The code is durable even though nothing was sent.
	require.Equal(t, 1, store.LiveOTPCount(storage.ConsignorNS, "9876543210"))
}

func TestRequestLoginOTPStrictDeliverySurfacesFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	store.AddConsignor(&models.Consignor{CompanyName: "Strict Co", Number: "9876543210"})
	messenger := &captureMessenger{fail: errors.New("channel down")}
	auth := NewAuthService(store, NewConsignorDirectory(store), messenger, NewSessionManager(store), true)

	_, err := auth.RequestLoginOTP("9876543210")
	require.Error(t, err)
	// The record was already written before dispatch.
	require.Equal(t, 1, store.LiveOTPCount(storage.ConsignorNS, "9876543210"))
}

func TestVerifyLoginOTPHappyPathConsumesRecord(t *testing.T) {
	_, messenger, auth := newConsignorFixture(t)

	_, err := auth.RequestLoginOTP("9876543210")
	require.NoError(t, err)
	code := messenger.lastCode()

	res, err := auth.VerifyLoginOTP("9876543210", code, "test device")
	require.NoError(t, err)
	require.Len(t, res.SessionToken, 64)
	require.Equal(t, "consignor", res.Principal.PrincipalKind())

	// The record is consumed; the same code cannot log in twice.
	_, err = auth.VerifyLoginOTP("9876543210", code, "test device")
	require.ErrorIs(t, err, ErrNoLiveOTP)
}

func TestVerifyLoginOTPNothingPending(t *testing.T) {
	_, _, auth := newConsignorFixture(t)

	_, err := auth.VerifyLoginOTP("9876543210", "123456", "")
	require.ErrorIs(t, err, ErrNoLiveOTP)
}

func TestVerifyLoginOTPExpiry(t *testing.T) {
	_, messenger, auth := newConsignorFixture(t)

	start := time.Now()
	auth.now = func() time.Time { return start }

	_, err := auth.RequestLoginOTP("9876543210")
	require.NoError(t, err)

	auth.now = func() time.Time { return start.Add(6 * time.Minute) }
	_, err = auth.VerifyLoginOTP("9876543210", messenger.lastCode(), "")
	require.ErrorIs(t, err, ErrOTPExpired)

	// The record was flipped to expired; a retry finds nothing pending.
	_, err = auth.VerifyLoginOTP("9876543210", messenger.lastCode(), "")
	require.ErrorIs(t, err, ErrNoLiveOTP)
}

func TestVerifyLoginOTPAttemptCeiling(t *testing.T) {
	_, messenger, auth := newConsignorFixture(t)

	_, err := auth.RequestLoginOTP("9876543210")
	require.NoError(t, err)
	code := messenger.lastCode()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 3; i++ {
		_, err = auth.VerifyLoginOTP("9876543210", wrong, "")
		require.ErrorIs(t, err, ErrOTPMismatch)
	}

	// Three attempts charged; even the correct code is refused now.
	_, err = auth.VerifyLoginOTP("9876543210", code, "")
	require.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = auth.VerifyLoginOTP("9876543210", code, "")
	require.ErrorIs(t, err, ErrNoLiveOTP)
}

func TestVerifyLoginOTPLeadingZeros(t *testing.T) {
	store, _, auth := newConsignorFixture(t)

	c, err := store.GetConsignorByPhone("9876543210")
	require.NoError(t, err)

	rec := &models.OTPRecord{
		PrincipalID: c.ID,
		PhoneNumber: "9876543210",
		OTPCode:     "042819",
		Purpose:     "login",
		ExpiresAt:   time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, store.CreateOTPRecord(storage.ConsignorNS, rec))

	// "42819" is not "042819": comparison is on the stored string.
	_, err = auth.VerifyLoginOTP("9876543210", "42819", "")
	require.ErrorIs(t, err, ErrOTPMismatch)

	res, err := auth.VerifyLoginOTP("9876543210", "042819", "")
	require.NoError(t, err)
	require.Equal(t, "Shree Shyam Traders", res.Principal.(*models.Consignor).CompanyName)
	require.Len(t, res.SessionToken, 64)
}

func TestTransporterRequestByGST(t *testing.T) {
	store, messenger, auth := newTransporterFixture(t)

	// Case-insensitive, whitespace-tolerant GST lookup.
	issue, err := auth.RequestLoginOTP("  22aaaaa0000a1z5 ")
	require.NoError(t, err)
	require.Equal(t, "9000000001", issue.Phone)
	require.Equal(t, 1, store.LiveOTPCount(storage.TransporterNS, "9000000001"))
	require.Equal(t, 1, messenger.count())
}

func TestTransporterWithoutMobileIsRejectedBeforeIssue(t *testing.T) {
	store, messenger, auth := newTransporterFixture(t)

	_, err := auth.RequestLoginOTP("27CCCCC2222C1Z7")
	require.ErrorIs(t, err, ErrNoMobileNumber)
	require.Equal(t, 0, messenger.count())
	require.Equal(t, 0, store.LiveOTPCount(storage.TransporterNS, ""))
}

func TestTransporterUnknownGST(t *testing.T) {
	_, _, auth := newTransporterFixture(t)

	_, err := auth.RequestLoginOTP("29ZZZZZ9999Z9Z9")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestConsignorAndTransporterNamespacesAreIsolated(t *testing.T) {
	store := storage.NewMemoryStore()
	store.AddConsignor(&models.Consignor{CompanyName: "Shared Phone Co", Number: "9111111111"})
	store.AddTransporter(&models.Transporter{TransportName: "Shared Phone Lines", GSTNumber: "22DDDDD3333D1Z8", MobNumber: "9111111111"})

	messenger := &captureMessenger{}
	sessions := NewSessionManager(store)
	consignorAuth := NewAuthService(store, NewConsignorDirectory(store), messenger, sessions, false)
	transporterAuth := NewAuthService(store, NewTransporterDirectory(store), messenger, sessions, false)

	_, err := consignorAuth.RequestLoginOTP("9111111111")
	require.NoError(t, err)

	// The transporter pipeline must not see the consignor's code.
	_, err = transporterAuth.VerifyLoginOTP("9111111111", messenger.lastCode(), "")
	require.ErrorIs(t, err, ErrNoLiveOTP)
}
