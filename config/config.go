// Package config loads engine-wide tunables from YAML, the same
// Load(path)-returning-a-validated-struct idiom as the teacher's
// cmd/client/config.ClientConfig / config.LoadConfig(path) (referenced
// from cmd/client/main.go; the file itself was not present in the
// retrieval pack and is rebuilt here in the same shape).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds the tunables spec.md §6 fixes as constants but a
// host may reasonably want to override per deployment. No other package
// reads an EngineConfig: the pools, factory and slippage package keep
// their own constants, and a host passes these values on where an API
// takes them (for example CPFeeTiersBPS to factory.New).
type EngineConfig struct {
	// CPFeeTiersBPS is the allowlist of fee tiers a host can hand to
	// factory.New (spec.md §4.8).
	CPFeeTiersBPS []uint64 `yaml:"cp_fee_tiers_bps"`
	// CPMaxFeeBPS bounds CPFeeTiersBPS in validate; cppool.NewPool
	// enforces its own cppool.MaxFeeBPS.
	CPMaxFeeBPS uint64 `yaml:"cp_max_fee_bps"`

	// SSDefaultAmpFactor and SSDefaultFeeBPS are the stable-swap
	// amp factor and fee a host can pass to sspool.NewPool, which
	// itself has no defaults.
	SSDefaultAmpFactor uint64 `yaml:"ss_default_amp_factor"`
	SSDefaultFeeBPS    uint64 `yaml:"ss_default_fee_bps"`
	SSMaxAmpFactor     uint64 `yaml:"ss_max_amp_factor"`
	SSMaxFeeBPS        uint64 `yaml:"ss_max_fee_bps"`

	// MaxSlippageBPS and DefaultPriceImpactBPS mirror
	// slippage.MaxSlippageBPS and slippage.DefaultPriceImpactBPS;
	// slippage.CalculateMinOutput uses its own constant, and
	// EnforcePriceImpact takes its ceiling as an argument.
	MaxSlippageBPS        uint64 `yaml:"max_slippage_bps"`
	DefaultPriceImpactBPS uint64 `yaml:"default_price_impact_bps"`

	// ProtocolFeeBPS mirrors fixedpoint.ProtocolFeeBPS, the protocol's
	// share of every swap fee that cppool and sspool apply.
	ProtocolFeeBPS uint64 `yaml:"protocol_fee_bps"`

	// FeeRecipient receives withdrawn protocol fee buckets
	// (spec.md §4.8); hex-encoded 20-byte address.
	FeeRecipient string `yaml:"fee_recipient"`
}

// Default returns the literal constants spec.md §6 specifies, so a
// host that supplies no configuration file still gets exactly the
// documented contract.
func Default() *EngineConfig {
	return &EngineConfig{
		CPFeeTiersBPS:         []uint64{5, 30, 100},
		CPMaxFeeBPS:           1000,
		SSDefaultAmpFactor:    100,
		SSDefaultFeeBPS:       4,
		SSMaxAmpFactor:        10000,
		SSMaxFeeBPS:           100,
		MaxSlippageBPS:        5000,
		DefaultPriceImpactBPS: 500,
		ProtocolFeeBPS:        1000,
	}
}

// Load reads and validates an EngineConfig from a YAML file at path.
func Load(path string) (*EngineConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *EngineConfig) validate() error {
	if c.CPMaxFeeBPS > 10000 {
		return fmt.Errorf("cp_max_fee_bps %d exceeds 10000", c.CPMaxFeeBPS)
	}
	if c.SSMaxAmpFactor < 1 {
		return fmt.Errorf("ss_max_amp_factor must be >= 1")
	}
	if c.MaxSlippageBPS > 10000 {
		return fmt.Errorf("max_slippage_bps %d exceeds 10000", c.MaxSlippageBPS)
	}
	for _, tier := range c.CPFeeTiersBPS {
		if tier > c.CPMaxFeeBPS {
			return fmt.Errorf("cp fee tier %d exceeds cp_max_fee_bps %d", tier, c.CPMaxFeeBPS)
		}
	}
	return nil
}
