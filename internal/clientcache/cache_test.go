package clientcache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache, err := New(dir)
	require.NoError(t, err)

	_, err = cache.Load(ConsignorKey)
	require.ErrorIs(t, err, ErrNoEntry)

	entry := &Entry{
		SessionToken: "abc123",
		Principal:    json.RawMessage(`{"company_name":"Shree Shyam Traders"}`),
	}
	require.NoError(t, cache.Save(ConsignorKey, entry))

	got, err := cache.Load(ConsignorKey)
	require.NoError(t, err)
	require.Equal(t, "abc123", got.SessionToken)
	require.JSONEq(t, `{"company_name":"Shree Shyam Traders"}`, string(got.Principal))
	require.False(t, got.SavedAt.IsZero())

	require.NoError(t, cache.Clear(ConsignorKey))
	_, err = cache.Load(ConsignorKey)
	require.ErrorIs(t, err, ErrNoEntry)

	// Clearing twice is fine.
	require.NoError(t, cache.Clear(ConsignorKey))
}

func TestCacheNamespacesAreIndependent(t *testing.T) {
	cache, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Save(ConsignorKey, &Entry{SessionToken: "consignor-token"}))
	require.NoError(t, cache.Save(TransporterKey, &Entry{SessionToken: "transporter-token"}))

	c, err := cache.Load(ConsignorKey)
	require.NoError(t, err)
	tr, err := cache.Load(TransporterKey)
	require.NoError(t, err)
	require.NotEqual(t, c.SessionToken, tr.SessionToken)

	require.NoError(t, cache.Clear(ConsignorKey))
	_, err = cache.Load(TransporterKey)
	require.NoError(t, err)
}

func TestDeviceIDIsStableAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	first, err := New(dir)
	require.NoError(t, err)
	require.NotEmpty(t, first.DeviceID())

	second, err := New(dir)
	require.NoError(t, err)
	require.Equal(t, first.DeviceID(), second.DeviceID())
	require.Contains(t, second.DeviceInfo(), first.DeviceID())
}
