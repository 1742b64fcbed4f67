package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the mirror watcher.
// It is loaded once at startup and passed around by pointer.
type Config struct {
	// Target & endpoints
	TargetAddress string // wallet we mirror (required)
	DataAPIURL    string // position/trade data API base URL
	RelayerAPIURL string // order submission endpoint base URL
	RelayerAPIKey string // auth for the relayer; required unless DryRun

	// Behavior
	Enabled         bool // master switch: observe only when false
	DryRun          bool // suppress real order submission
	PollIntervalSec int
	TradeSizeLimit  float64 // max notional per mirrored trade, 0 = unlimited
	HTTPTimeoutSec  int

	// Logging
	LogLevel      string
	MaxLogSizeMB  int64
	MaxLogBackups int

	Version string
}

// Load initializes the configuration.
// It tries to read a .env file and checks for necessary environment variables.
func Load() *Config {
	// Load .env variables into the process environment
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	// Variables that must be present; the bool marks them confidential.
	requiredVars := map[string]bool{
		"TARGET_ADDRESS":  false,
		"RELAYER_API_KEY": true,
	}

	dryRun := getEnvAsBool("DRY_RUN", false)

	var missing []string
	for key := range requiredVars {
		if os.Getenv(key) == "" {
			// The relayer key is only needed when orders are real.
			if key == "RELAYER_API_KEY" && dryRun {
				continue
			}
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		log.Fatalf("CRITICAL: Missing required environment variables: %v", missing)
	}

	// Echo the .env contents at startup so misconfiguration is visible,
	// with secret values masked down to their last 4 chars.
	if envMap, err := godotenv.Read(); err == nil {
		log.Println("--- .env File Variables ---")
		for key, val := range envMap {
			if requiredVars[key] || key == "TELEGRAM_BOT_TOKEN" {
				masked := "***"
				if len(val) > 4 {
					masked = "***" + val[len(val)-4:]
				}
				log.Printf("%s=%s", key, masked)
			} else {
				log.Printf("%s=%s", key, val)
			}
		}
		log.Println("---------------------------")
	}

	return &Config{
		TargetAddress: os.Getenv("TARGET_ADDRESS"),
		DataAPIURL:    getEnv("DATA_API_URL", "https://data-api.polymarket.com"),
		RelayerAPIURL: getEnv("RELAYER_API_URL", "https://relayer.polymarket.com"),
		RelayerAPIKey: os.Getenv("RELAYER_API_KEY"),

		Enabled:         getEnvAsBool("MIRROR_ENABLED", true),
		DryRun:          dryRun,
		PollIntervalSec: getEnvAsInt("POLL_INTERVAL_SEC", 30),
		TradeSizeLimit:  getEnvAsFloat64("TRADE_SIZE_LIMIT", 0),
		HTTPTimeoutSec:  getEnvAsInt("HTTP_TIMEOUT_SEC", 15),

		LogLevel:      getEnv("WATCHER_LOG_LEVEL", "INFO"),
		MaxLogSizeMB:  int64(getEnvAsInt("MAX_LOG_SIZE_MB", 10)),
		MaxLogBackups: getEnvAsInt("MAX_LOG_BACKUPS", 3),
	}
}
