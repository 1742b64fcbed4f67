package config

import (
	"os"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// 1. Setup Required Envs (to bypass validation)
	required := map[string]string{
		"TARGET_ADDRESS":  "0x1234567890abcdef1234567890abcdef12345678",
		"RELAYER_API_KEY": "test_key",
	}

	for k, v := range required {
		os.Setenv(k, v)
		defer os.Unsetenv(k) // Clean up
	}

	// 2. Ensure Optional Envs are Unset
	optionals := []string{
		"WATCHER_LOG_LEVEL",
		"POLL_INTERVAL_SEC",
		"HTTP_TIMEOUT_SEC",
		"TRADE_SIZE_LIMIT",
		"MIRROR_ENABLED",
		"DRY_RUN",
		"DATA_API_URL",
	}

	for _, k := range optionals {
		os.Unsetenv(k)
	}

	// 3. Load Config
	cfg := Load()

	// 4. Verify Defaults
	if cfg.LogLevel != "INFO" {
		t.Errorf("Expected LogLevel 'INFO', got '%s'", cfg.LogLevel)
	}

	if cfg.PollIntervalSec != 30 {
		t.Errorf("Expected PollIntervalSec 30, got %d", cfg.PollIntervalSec)
	}

	if cfg.HTTPTimeoutSec != 15 {
		t.Errorf("Expected HTTPTimeoutSec 15, got %d", cfg.HTTPTimeoutSec)
	}

	if !cfg.Enabled {
		t.Error("Expected Enabled true by default")
	}

	if cfg.DryRun {
		t.Error("Expected DryRun false by default")
	}

	if cfg.DataAPIURL != "https://data-api.polymarket.com" {
		t.Errorf("Unexpected DataAPIURL default: %s", cfg.DataAPIURL)
	}

	if cfg.TradeSizeLimit != 0 {
		t.Errorf("Expected TradeSizeLimit 0, got %f", cfg.TradeSizeLimit)
	}
}

func TestLoadConfig_DryRunSkipsRelayerKey(t *testing.T) {
	os.Setenv("TARGET_ADDRESS", "0xabc")
	os.Setenv("DRY_RUN", "true")
	os.Unsetenv("RELAYER_API_KEY")
	defer os.Unsetenv("TARGET_ADDRESS")
	defer os.Unsetenv("DRY_RUN")

	// Load would log.Fatalf if the relayer key were still required.
	cfg := Load()

	if !cfg.DryRun {
		t.Error("Expected DryRun true")
	}
	if cfg.RelayerAPIKey != "" {
		t.Errorf("Expected empty RelayerAPIKey, got %s", cfg.RelayerAPIKey)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	os.Setenv("TEST_BOOL_FLAG", "yes")
	defer os.Unsetenv("TEST_BOOL_FLAG")

	if !getEnvAsBool("TEST_BOOL_FLAG", false) {
		t.Error("Expected 'yes' to parse as true")
	}

	os.Setenv("TEST_BOOL_FLAG", "garbage")
	if getEnvAsBool("TEST_BOOL_FLAG", false) {
		t.Error("Expected invalid value to fall back to default false")
	}
}
