package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"test-bin"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	require.Equal(t, ":8080", cfg.EndpointAddr)
	require.Equal(t, 4*24*time.Hour, cfg.SessionTokenValidityDuration)
	require.NotEmpty(t, cfg.DatabaseDSN)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	withArgs(t, "-a", ":9999", "-s", "flag-secret", "-t", "48", "-w", "whsec_test")

	cfg := LoadConfig()

	require.Equal(t, ":9999", cfg.EndpointAddr)
	require.Equal(t, "flag-secret", cfg.SecretKey)
	require.Equal(t, 48*time.Hour, cfg.SessionTokenValidityDuration)
	require.Equal(t, "whsec_test", cfg.StripeWebhookSecret)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	body := map[string]any{
		"endpoint_addr":                   ":7070",
		"secret_key":                      "json-secret",
		"session_token_validity_duration": "96h",
		"stripe_api_key":                  "sk_test_json",
		"checkout_success_url":            "https://app.example.com/settings",
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, raw, 0o600))

	withArgs(t, "-c", file)

	cfg := LoadConfig()

	require.Equal(t, ":7070", cfg.EndpointAddr)
	require.Equal(t, "json-secret", cfg.SecretKey)
	require.Equal(t, 96*time.Hour, cfg.SessionTokenValidityDuration)
	require.Equal(t, "sk_test_json", cfg.StripeAPIKey)
	require.Equal(t, "https://app.example.com/settings", cfg.CheckoutSuccessURL)
	// fields the file does not name keep their defaults
	require.Equal(t, "http://localhost:3000", cfg.PortalReturnURL)
}

func TestLoadConfig_FlagsWinOverJson(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"endpoint_addr":":7070"}`), 0o600))

	withArgs(t, "-c", file, "-a", ":6060")

	cfg := LoadConfig()
	require.Equal(t, ":6060", cfg.EndpointAddr, "flags overlay last")
}

func TestParseJson_MissingFilePanics(t *testing.T) {
	withArgs(t, "-c", "/does/not/exist.json")

	require.Panics(t, func() { LoadConfig() })
}
