package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.05, cfg.Analysis.Alpha)
	assert.Equal(t, 1, cfg.Analysis.Digits)
	assert.Equal(t, "trajectories", cfg.Data.PGTable)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BFDA_PORT", "9999")
	t.Setenv("BFDA_ALPHA", "0.01")
	t.Setenv("BFDA_DIGITS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 0.01, cfg.Analysis.Alpha)
	assert.Equal(t, 3, cfg.Analysis.Digits)
}

func TestLoad_InvalidAlpha(t *testing.T) {
	t.Setenv("BFDA_ALPHA", "1.5")

	_, err := Load()
	assert.Error(t, err)
}
