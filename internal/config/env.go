package config

import (
	"os"
	"strconv"
)

// ApplyEnv overrides balance tunables from IDLE_* environment variables.
// Unset or malformed variables leave the current value alone.
func ApplyEnv(b *Balance) {
	if val, ok := getEnvFloat("IDLE_OFFLINE_EFFICIENCY"); ok && val > 0 && val <= 1 {
		b.OfflineEfficiency = val
	}
	if val, ok := getEnvFloat("IDLE_MAX_OFFLINE_HOURS"); ok && val >= 0 {
		b.MaxOfflineHours = val
	}
	if val, ok := getEnvFloat("IDLE_EVENT_RATE_PER_HOUR"); ok && val >= 0 {
		b.EventRatePerHour = val
	}
	if val := getEnvInt("IDLE_AUTOSAVE_SECONDS"); val > 0 {
		b.AutosaveSeconds = val
	}
	if val := getEnvInt("IDLE_TICK_INTERVAL_MS"); val > 0 {
		b.TickIntervalMS = val
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func getEnvFloat(key string) (float64, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
