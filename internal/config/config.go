// Package config holds the immutable definition records and balance tunables
// supplied to the engine at startup.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/idle-economy/internal/bignum"
)

//go:embed default.yaml
var defaultCatalog []byte

type Config struct {
	Version    string      `yaml:"version" json:"version"`
	Resources  []Resource  `yaml:"resources" json:"resources"`
	Generators []Generator `yaml:"generators" json:"generators"`
	Upgrades   []Upgrade   `yaml:"upgrades" json:"upgrades"`
	Prestige   []Prestige  `yaml:"prestige" json:"prestige"`
	Events     []Event     `yaml:"events" json:"events"`
	MapNodes   []MapNode   `yaml:"map_nodes" json:"map_nodes"`
	Balance    Balance     `yaml:"balance" json:"balance"`
}

type Resource struct {
	ID             string        `yaml:"id" json:"id"`
	Name           string        `yaml:"name" json:"name"`
	Description    string        `yaml:"description" json:"description,omitempty"`
	StartingAmount bignum.Number `yaml:"starting_amount" json:"starting_amount"`
	SoftCaps       []SoftCap     `yaml:"soft_caps" json:"soft_caps,omitempty"`
}

// SoftCap dampens incoming gains once the balance reaches Amount.
// Thresholds are expected in ascending Amount order.
type SoftCap struct {
	Amount   bignum.Number `yaml:"amount" json:"amount"`
	Exponent float64       `yaml:"exponent" json:"exponent"`
}

// Unlock describes when a generator, upgrade or map node becomes available.
// Any satisfied clause unlocks.
type Unlock struct {
	Default   bool          `yaml:"default" json:"default"`
	Resource  string        `yaml:"resource" json:"resource,omitempty"`
	Threshold bignum.Number `yaml:"threshold" json:"threshold"`
	MapNode   string        `yaml:"map_node" json:"map_node,omitempty"`
}

type Generator struct {
	ID             string        `yaml:"id" json:"id"`
	Name           string        `yaml:"name" json:"name"`
	Tags           []string      `yaml:"tags" json:"tags,omitempty"`
	BaseCost       bignum.Number `yaml:"base_cost" json:"base_cost"`
	CostMultiplier float64       `yaml:"cost_multiplier" json:"cost_multiplier"`
	BaseProduction bignum.Number `yaml:"base_production" json:"base_production"`
	Produces       string        `yaml:"produces" json:"produces"`
	CostResource   string        `yaml:"cost_resource" json:"cost_resource"`
	Unlock         Unlock        `yaml:"unlock" json:"unlock"`
}

type EffectType string

const (
	EffectAdditive       EffectType = "additive"
	EffectMultiplicative EffectType = "multiplicative"
	EffectExponential    EffectType = "exponential"
)

type Upgrade struct {
	ID             string        `yaml:"id" json:"id"`
	Name           string        `yaml:"name" json:"name"`
	CostResource   string        `yaml:"cost_resource" json:"cost_resource"`
	BaseCost       bignum.Number `yaml:"base_cost" json:"base_cost"`
	CostMultiplier float64       `yaml:"cost_multiplier" json:"cost_multiplier"`
	Targets        []string      `yaml:"targets" json:"targets"`
	Effect         EffectType    `yaml:"effect" json:"effect"`
	Value          float64       `yaml:"value" json:"value"`
	MaxLevel       int           `yaml:"max_level" json:"max_level"` // -1 for unbounded; 0 is rejected
	Unlock         Unlock        `yaml:"unlock" json:"unlock"`
}

// Capped reports whether the upgrade has a finite level cap. Validate
// rejects a zero or missing max_level so it cannot be mistaken for either.
func (u Upgrade) Capped() bool { return u.MaxLevel > 0 }

// Prestige defines one reset tier. Reward = floor(A · max(1, metric/B)^E);
// non-positive A, B or E fall back to the balance defaults.
type Prestige struct {
	ID             string        `yaml:"id" json:"id"`
	Name           string        `yaml:"name" json:"name"`
	Tier           int           `yaml:"tier" json:"tier"`
	Metric         string        `yaml:"metric" json:"metric"` // lifetime-produced resource id
	Requirement    bignum.Number `yaml:"requirement" json:"requirement"`
	RewardCurrency string        `yaml:"reward_currency" json:"reward_currency"`
	RewardA        float64       `yaml:"reward_a" json:"reward_a"`
	RewardB        bignum.Number `yaml:"reward_b" json:"reward_b"`
	RewardExponent float64       `yaml:"reward_exponent" json:"reward_exponent"`
}

// Event is a timed global production multiplier.
type Event struct {
	ID              string  `yaml:"id" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	DurationSeconds float64 `yaml:"duration_seconds" json:"duration_seconds"`
	Multiplier      float64 `yaml:"multiplier" json:"multiplier"`
	Weight          float64 `yaml:"weight" json:"weight"`
}

// Cost is a one-off price in a single resource.
type Cost struct {
	Resource string        `yaml:"resource" json:"resource"`
	Amount   bignum.Number `yaml:"amount" json:"amount"`
}

// MapNode contributes Multiplier to global production once unlocked.
// A node with Requires set needs at least one of those nodes unlocked first.
type MapNode struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Multiplier    float64  `yaml:"multiplier" json:"multiplier"`
	StartUnlocked bool     `yaml:"start_unlocked" json:"start_unlocked"`
	Requires      []string `yaml:"requires" json:"requires,omitempty"`
	Cost          *Cost    `yaml:"cost" json:"cost,omitempty"`
	Unlock        Unlock   `yaml:"unlock" json:"unlock"`
}

// Default returns the embedded catalog.
func Default() (*Config, error) {
	return Parse(defaultCatalog)
}

// Load reads and validates a YAML catalog from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Balance keys missing from the
// document keep their DefaultBalance values.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{Balance: DefaultBalance()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Currencies returns the reward currency ids of all prestige tiers, deduplicated.
func (c *Config) Currencies() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.Prestige {
		if p.RewardCurrency != "" && !seen[p.RewardCurrency] {
			seen[p.RewardCurrency] = true
			out = append(out, p.RewardCurrency)
		}
	}
	return out
}
