// Package config loads the demo router's yaml configuration.
package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// RouterConfig describes one quote request against a snapshot file.
type RouterConfig struct {
	ChainID         uint64 `yaml:"chainId"`
	ProtocolVersion int    `yaml:"protocolVersion"`

	// SnapshotFile is a JSON file holding the pool and buffer snapshot.
	SnapshotFile string `yaml:"snapshotFile"`

	TokenIn  string `yaml:"tokenIn"`
	TokenOut string `yaml:"tokenOut"`

	// Kind is GIVEN_IN or GIVEN_OUT.
	Kind string `yaml:"kind"`
	// AmountRaw is the fixed-side amount in raw token units, as a decimal
	// integer string.
	AmountRaw string `yaml:"amountRaw"`

	MaxHops  int `yaml:"maxHops,omitempty"`
	MaxPaths int `yaml:"maxPaths,omitempty"`

	CacheTTLSeconds int `yaml:"cacheTtlSeconds,omitempty"`
}

// LoadConfig reads and validates a yaml config file.
func LoadConfig(path string) (*RouterConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg RouterConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RouterConfig) validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("config: chainId is required")
	}
	if c.SnapshotFile == "" {
		return fmt.Errorf("config: snapshotFile is required")
	}
	if !common.IsHexAddress(c.TokenIn) {
		return fmt.Errorf("config: tokenIn %q is not an address", c.TokenIn)
	}
	if !common.IsHexAddress(c.TokenOut) {
		return fmt.Errorf("config: tokenOut %q is not an address", c.TokenOut)
	}
	if c.Kind != "GIVEN_IN" && c.Kind != "GIVEN_OUT" {
		return fmt.Errorf("config: kind must be GIVEN_IN or GIVEN_OUT, got %q", c.Kind)
	}
	if c.AmountRaw == "" {
		return fmt.Errorf("config: amountRaw is required")
	}
	return nil
}
