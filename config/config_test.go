package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGetFromFlags(t *testing.T) {
	t.Setenv(RelayTokenEnv, "secret")

	cfg, err := Get([]string{
		"--relay", "https://relay.example",
		"--tls-domains", "a.example, b.example,",
		"--refresh", "0",
		"--wallet", DefaultStampsProcess,
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultComputeUnitURL, cfg.ComputeUnitURL)
	assert.Equal(t, "https://relay.example", cfg.RelayURL)
	assert.Equal(t, "secret", cfg.RelayToken)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.TLSDomains)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.Equal(t, DefaultMarketProcess, cfg.EscrowAddress)
}

func TestGetFromYaml(t *testing.T) {
	content := `
compute_unit_url: https://cu.example
processes:
  market: hqdL4AZaFZ0huQHbAsYxdTwG6vpibK7ALWKNzmWaD4Q
listen_addr: ":9000"
refresh_interval: 2m
reads_per_second: "2.5"
gateway_retries: "1"
`
	path := filepath.Join(t.TempDir(), "bazar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Get([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, "https://cu.example", cfg.ComputeUnitURL)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 2*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 2.5, cfg.ReadsPerSecond)
	assert.Equal(t, 1, cfg.GatewayRetries)
	assert.Equal(t, DefaultStampsProcess, cfg.Processes.Stamps)
	assert.Equal(t, DefaultMarketProcess, cfg.EscrowAddress)
}

func TestGetYamlErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Get([]string{"--config", filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("reads_per_second: fast\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "reads_per_second")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("processes:\n  registry: nope\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "registry")
}

func TestTmpRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.ViewerWallet = DefaultStampsProcess
	cfg.TLSDomains = []string{"bazar.example"}

	data, err := yaml.Marshal(cfg.Tmp())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bazar.gen.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.ViewerWallet = "nope"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RefreshInterval = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ComputeUnitURL = ""
	assert.Error(t, cfg.Validate())
}
