package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv builds a Config from Default() with environment overrides and
// validates it. Callers load .env first (godotenv) if they want file-based
// configuration.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.Matcher.ConfidenceThreshold = Float("MATCH_THRESHOLD", cfg.Matcher.ConfidenceThreshold)
	cfg.Matcher.Workers = Int("MATCH_WORKERS", cfg.Matcher.Workers)
	cfg.Detector.MinEdgeThreshold = Float("MIN_EDGE", cfg.Detector.MinEdgeThreshold)
	cfg.Detector.MaxSlippageTolerance = Float("MAX_SLIPPAGE", cfg.Detector.MaxSlippageTolerance)
	cfg.Depth.MinLevelSize = Float("MIN_LEVEL_SIZE", cfg.Depth.MinLevelSize)
	cfg.Scout.PollInterval = Duration("SCOUT_POLL_INTERVAL", cfg.Scout.PollInterval)
	cfg.Scout.MaxPollInterval = Duration("SCOUT_MAX_POLL_INTERVAL", cfg.Scout.MaxPollInterval)
	cfg.Scout.AlertThreshold = Float("ALERT_THRESHOLD", cfg.Scout.AlertThreshold)
	cfg.Scout.ProbeSize = Float("SCOUT_PROBE_SIZE", cfg.Scout.ProbeSize)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// String reads an env var with a fallback.
func String(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// Int reads an integer env var with a fallback.
func Int(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

// Float reads a float env var with a fallback.
func Float(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

// Duration reads a duration env var (e.g. "90s", "5m") with a fallback.
func Duration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return def
}
