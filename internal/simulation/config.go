package simulation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the fill-policy coefficients. All of them are configuration,
// not invariants: the zero value fills exactly at the requested price with no
// commission and no partial fills.
type Config struct {
	Enabled bool `yaml:"enabled"`

	// SlippagePct is the maximum adverse price move as a fraction of the
	// requested price; the applied slippage is uniform in [0, SlippagePct).
	SlippagePct float64 `yaml:"slippage_pct"`

	// CommissionRate is charged on filled value, floored at MinCommission
	// when the rate is positive.
	CommissionRate float64 `yaml:"commission_rate"`
	MinCommission  float64 `yaml:"min_commission"`

	// PartialFillProb is the probability an order fills partially; partial
	// fills land uniformly in [MinFillRatio, 1) of the requested quantity.
	PartialFillProb float64 `yaml:"partial_fill_prob"`
	MinFillRatio    float64 `yaml:"min_fill_ratio"`

	// Seed fixes the random source for reproducible runs; 0 seeds from the
	// clock.
	Seed int64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		MinFillRatio: 0.5,
	}
}

func (c Config) Validate() error {
	if c.SlippagePct < 0 {
		return fmt.Errorf("slippage_pct must be >= 0")
	}
	if c.CommissionRate < 0 {
		return fmt.Errorf("commission_rate must be >= 0")
	}
	if c.MinCommission < 0 {
		return fmt.Errorf("min_commission must be >= 0")
	}
	if c.PartialFillProb < 0 || c.PartialFillProb > 1 {
		return fmt.Errorf("partial_fill_prob must be in [0, 1]")
	}
	if c.PartialFillProb > 0 && (c.MinFillRatio <= 0 || c.MinFillRatio > 1) {
		return fmt.Errorf("min_fill_ratio must be in (0, 1] when partial fills are enabled")
	}
	return nil
}

// LoadConfig reads the YAML policy file. A missing file is not an error: the
// defaults apply until the file shows up.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read simulation config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse simulation config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid simulation config: %w", err)
	}
	return cfg, nil
}
