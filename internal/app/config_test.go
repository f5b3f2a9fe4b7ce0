package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 11.0, cfg.TaxPercent)
	require.Equal(t, 0.0, cfg.DefaultDiscountPercent)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsOutOfRangePercents(t *testing.T) {
	t.Setenv("TAX_PERCENT", "120")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsNegativeDiscount(t *testing.T) {
	t.Setenv("DEFAULT_DISCOUNT_PERCENT", "-1")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestIsProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}
