package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_DefaultsAndOverrides(t *testing.T) {
	e := newTestEnv(t, "test_settings")
	ctx := context.Background()

	assert.Equal(t, 0.19, e.settings.GetFloat64(ctx, SettingTaxRate, 0))
	assert.Equal(t, "RON", e.settings.GetString(ctx, SettingDefaultCurrency, ""))
	assert.True(t, e.settings.GetBool(ctx, SettingBookingsEnabled, true))
	assert.Equal(t, 7, e.settings.GetInt(ctx, "UNKNOWN", 7))

	_, err := e.settings.Set(ctx, SettingTaxRate, 0.09, true)
	require.NoError(t, err)
	_, err = e.settings.Set(ctx, SettingInvoiceDueDays, 30, false)
	require.NoError(t, err)
	_, err = e.settings.Set(ctx, "SESSION_GRACE", 90, false)
	require.NoError(t, err)
	_, err = e.settings.Set(ctx, SettingBookingsEnabled, "yes", false)
	require.NoError(t, err)

	// A fresh instance reads what the first one stored.
	other := NewSettingsService(e.db, e.cfg, nil)
	assert.Equal(t, 0.09, other.GetFloat64(ctx, SettingTaxRate, 0))
	assert.Equal(t, 30, other.GetInt(ctx, SettingInvoiceDueDays, 0))
	assert.Equal(t, 90*time.Second, other.GetDuration(ctx, "SESSION_GRACE", 0))
	assert.True(t, other.GetBool(ctx, SettingBookingsEnabled, true), "non-boolean values fall back to the default")

	public, err := other.GetAllPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.09, public[SettingTaxRate])
	assert.Equal(t, "Hotel Booking", public[SettingAppName])
	assert.NotContains(t, public, SettingInvoiceDueDays)

	all, err := other.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = e.settings.Set(ctx, "", 1, false)
	assert.Error(t, err)
}
