// Package clientcache is the device-local half of the auth subsystem: a
// persisted {session token, principal} copy per user class, read once at
// startup so a valid session skips the login screen. It stands in for the
// mobile app's AsyncStorage.
package clientcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Namespace keys. Consignor and transporter sessions are cached
// independently; a device can hold both.
const (
	ConsignorKey   = "consignor_session"
	TransporterKey = "transporter_session"
)

// ErrNoEntry is returned when nothing is cached under a key.
var ErrNoEntry = errors.New("no cached session")

// Entry is one cached login.
type Entry struct {
	SessionToken string          `json:"session_token"`
	Principal    json.RawMessage `json:"principal"`
	SavedAt      time.Time       `json:"saved_at"`
}

// Cache persists entries as JSON files under a directory, one file per
// namespace key, plus a stable per-install device id.
type Cache struct {
	dir      string
	deviceID string
	mu       sync.Mutex
}

// New opens (or initializes) the cache directory. A device id is minted on
// first use and reused for every later session's device_info.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	c := &Cache{dir: dir}

	idPath := filepath.Join(dir, "device_id")
	raw, err := os.ReadFile(idPath)
	switch {
	case err == nil && len(raw) > 0:
		c.deviceID = strings.TrimSpace(string(raw))
	case err == nil || os.IsNotExist(err):
		c.deviceID = uuid.NewString()
		if err := os.WriteFile(idPath, []byte(c.deviceID+"\n"), 0o600); err != nil {
			return nil, fmt.Errorf("failed to persist device id: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to read device id: %w", err)
	}

	return c, nil
}

// DeviceID returns the stable per-install identifier.
func (c *Cache) DeviceID() string {
	return c.deviceID
}

// DeviceInfo renders the device_info string recorded on sessions.
func (c *Cache) DeviceInfo() string {
	return "Mobile App (" + c.deviceID + ")"
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Save persists an entry under the namespace key. Written via a temp file
// and rename so a crash never leaves a torn cache file.
func (c *Cache) Save(key string, e *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now()
	}

	raw, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp, c.path(key)); err != nil {
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return nil
}

// Load reads the entry cached under the key, or ErrNoEntry.
func (c *Cache) Load(key string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoEntry
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt file behaves like an empty cache; the user just
		// logs in again.
		return nil, ErrNoEntry
	}
	if e.SessionToken == "" {
		return nil, ErrNoEntry
	}
	return &e, nil
}

// Clear removes the entry under the key. Clearing an absent entry is fine.
func (c *Cache) Clear(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache entry: %w", err)
	}
	return nil
}
