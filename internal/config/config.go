// Package config loads the static analysis configuration: the
// handedness override table for width-degenerate junctions and the
// policy knobs for the feature table and conservation check.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beelabhmc/TurtleAntAnalysis-Summer2021/internal/turns"
)

// Config is the root analysis configuration. Fields omitted from the
// JSON file keep their defaults, so partial configs are safe. The
// override table is physical ground truth recorded out-of-band and is
// consulted only when width ranking cannot resolve a junction.
type Config struct {
	// HandednessOverrides maps junction IDs to "LH" or "RH".
	HandednessOverrides map[string]string `json:"handedness_overrides,omitempty"`

	// Feature-table policy (both default to true).
	ExplorationOnly     *bool `json:"exploration_only,omitempty"`
	FirstPairMemberOnly *bool `json:"first_pair_member_only,omitempty"`

	// Relative tolerance for the prediction conservation check.
	ConservationRelTol *float64 `json:"conservation_rel_tol,omitempty"`
}

// Default returns a Config with every field unset, meaning all
// defaults apply and no junction carries an override.
func Default() *Config {
	return &Config{}
}

// Load reads and validates a Config from a JSON file.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects malformed override values and tolerances.
func (c *Config) Validate() error {
	for junction, hand := range c.HandednessOverrides {
		if hand != string(turns.LeftHanded) && hand != string(turns.RightHanded) {
			return fmt.Errorf("handedness override for junction %q must be LH or RH, got %q", junction, hand)
		}
	}
	if c.ConservationRelTol != nil && *c.ConservationRelTol <= 0 {
		return fmt.Errorf("conservation_rel_tol must be positive, got %v", *c.ConservationRelTol)
	}
	return nil
}

// Overrides returns the override table in the classifier's type.
func (c *Config) Overrides() map[string]turns.Handedness {
	out := make(map[string]turns.Handedness, len(c.HandednessOverrides))
	for junction, hand := range c.HandednessOverrides {
		out[junction] = turns.Handedness(hand)
	}
	return out
}

// GetExplorationOnly returns the exploration-phase restriction flag.
func (c *Config) GetExplorationOnly() bool {
	if c.ExplorationOnly != nil {
		return *c.ExplorationOnly
	}
	return true
}

// GetFirstPairMemberOnly returns the pair-member restriction flag.
func (c *Config) GetFirstPairMemberOnly() bool {
	if c.FirstPairMemberOnly != nil {
		return *c.FirstPairMemberOnly
	}
	return true
}

// GetConservationRelTol returns the conservation check tolerance.
func (c *Config) GetConservationRelTol() float64 {
	if c.ConservationRelTol != nil {
		return *c.ConservationRelTol
	}
	return 1e-9
}
