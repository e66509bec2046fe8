package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := LoadOrCreate(path)
	assert.Equal(t, "31337", cfg.NetworkID)
	assert.Equal(t, 1000, cfg.PollIntervalMs)
	require.NotEmpty(t, cfg.RPCURLs)

	_, err := os.Stat(path)
	require.NoError(t, err, "default config should have been written")

	cfg.NetworkID = "1"
	Save(path, cfg)
	again := LoadOrCreate(path)
	assert.Equal(t, "1", again.NetworkID)
}

func TestActiveRPC(t *testing.T) {
	cfg := Config{RPCURLs: []RPCUrl{
		{Name: "a", URL: "http://a"},
		{Name: "b", URL: "http://b", Active: true},
	}}
	assert.Equal(t, "http://b", cfg.ActiveRPC().URL)

	cfg.RPCURLs[1].Active = false
	assert.Equal(t, "http://a", cfg.ActiveRPC().URL, "falls back to first")

	assert.Equal(t, "", Config{}.ActiveRPC().URL)
}

func TestHasRPC(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.HasRPC("Hardhat"))
	assert.True(t, cfg.HasRPC("hardhat"), "names match case-insensitively")
	assert.False(t, cfg.HasRPC("mainnet"))
	assert.False(t, Config{}.HasRPC("Hardhat"))
}

func TestSetActiveRPC(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetActiveRPC("http://localhost:9999")
	assert.Equal(t, "http://localhost:9999", cfg.ActiveRPC().URL)

	cfg.SetActiveRPC("http://127.0.0.1:8545")
	assert.Equal(t, "Hardhat", cfg.ActiveRPC().Name, "existing entry re-activated, not duplicated")
	assert.Len(t, cfg.RPCURLs, 2)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TOKEN_DAPP_RPC_URL", "http://node:8545")
	t.Setenv("TOKEN_DAPP_NETWORK_ID", "1337")
	t.Setenv("TOKEN_DAPP_TOKEN_ADDRESS", "0x000000000000000000000000000000000000dEaD")
	t.Setenv("TOKEN_DAPP_POLL_MS", "250")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "http://node:8545", cfg.ActiveRPC().URL)
	assert.Equal(t, "1337", cfg.NetworkID)
	assert.Equal(t, "0x000000000000000000000000000000000000dEaD", cfg.TokenAddress)
	assert.Equal(t, 250, cfg.PollIntervalMs)
}

func TestDeploymentArtifactOverridesTokenAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contract-address.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Token":"0x00000000000000000000000000000000000000AA"}`), 0o644))
	t.Setenv("TOKEN_DAPP_CONTRACTS", path)
	t.Setenv("TOKEN_DAPP_TOKEN_ADDRESS", "0x000000000000000000000000000000000000dEaD")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "0x00000000000000000000000000000000000000AA", cfg.TokenAddress)
}

func TestKeys(t *testing.T) {
	t.Setenv("TOKEN_DAPP_KEYS", " abc , def,")
	assert.Equal(t, []string{"abc", "def"}, Keys())

	t.Setenv("TOKEN_DAPP_KEYS", "")
	require.NotNil(t, Keys(), "explicitly empty means a wallet with no accounts")
	assert.Empty(t, Keys())

	os.Unsetenv("TOKEN_DAPP_KEYS")
	assert.Nil(t, Keys(), "unset lets the app fall back to built-in dev keys")
}
