package config

import "github.com/talgya/idle-economy/internal/bignum"

// Balance holds global tunables.
type Balance struct {
	// Offline catch-up
	OfflineEfficiency float64 `yaml:"offline_efficiency" json:"offline_efficiency"`
	MaxOfflineHours   float64 `yaml:"max_offline_hours" json:"max_offline_hours"`

	// Prestige reward defaults, used when a tier leaves its own coefficient non-positive
	DefaultRewardA            float64       `yaml:"default_reward_a" json:"default_reward_a"`
	DefaultRewardB            bignum.Number `yaml:"default_reward_b" json:"default_reward_b"`
	DefaultRewardExponent     float64       `yaml:"default_reward_exponent" json:"default_reward_exponent"`
	GlobalPrestigeRequirement bignum.Number `yaml:"global_prestige_requirement" json:"global_prestige_requirement"`

	// World events
	EventRatePerHour float64 `yaml:"event_rate_per_hour" json:"event_rate_per_hour"`

	// Host loop
	AutosaveSeconds int `yaml:"autosave_seconds" json:"autosave_seconds"`
	TickIntervalMS  int `yaml:"tick_interval_ms" json:"tick_interval_ms"`
}

// DefaultBalance returns the default tunables.
func DefaultBalance() Balance {
	return Balance{
		OfflineEfficiency:     0.5,
		MaxOfflineHours:       12,
		DefaultRewardA:        1,
		DefaultRewardB:        bignum.New(1, 6),
		DefaultRewardExponent: 0.5,
		EventRatePerHour:      2,
		AutosaveSeconds:       60,
		TickIntervalMS:        100,
	}
}
