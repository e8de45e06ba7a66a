package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecConstants(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []uint64{5, 30, 100}, cfg.CPFeeTiersBPS)
	assert.Equal(t, uint64(1000), cfg.CPMaxFeeBPS)
	assert.Equal(t, uint64(100), cfg.SSDefaultAmpFactor)
	assert.Equal(t, uint64(4), cfg.SSDefaultFeeBPS)
	assert.Equal(t, uint64(5000), cfg.MaxSlippageBPS)
	assert.Equal(t, uint64(1000), cfg.ProtocolFeeBPS)
	require.NoError(t, cfg.validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cp_max_fee_bps: 500\nmax_slippage_bps: 2000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), cfg.CPMaxFeeBPS)
	assert.Equal(t, uint64(2000), cfg.MaxSlippageBPS)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_slippage_bps: 20000\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
