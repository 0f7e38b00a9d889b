package common

import (
	"fmt"
	"os"
	"path/filepath"

	"token-settlement-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type tokenomicsFile struct {
	BaseValue          string `yaml:"base_value"`
	TotalSupply        string `yaml:"total_supply"`
	UserSupplyUnlocked string `yaml:"user_supply_unlocked"`
}

// LoadTokenomics reads the pricing base value and the initial supply split.
// Tokens not unlocked for users start in the admin reserve.
func LoadTokenomics(tokenomicsPath string) (*models.Tokenomics, error) {
	path := tokenomicsPath
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, tokenomicsPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", tokenomicsPath, err)
	}

	var raw tokenomicsFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", tokenomicsPath, err)
	}

	t := &models.Tokenomics{}
	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"base_value", raw.BaseValue, &t.BaseValue},
		{"total_supply", raw.TotalSupply, &t.TotalSupply},
		{"user_supply_unlocked", raw.UserSupplyUnlocked, &t.UserSupplyUnlocked},
	}
	for _, f := range fields {
		if f.value == "" {
			return nil, fmt.Errorf("%s missing %s", tokenomicsPath, f.name)
		}
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return nil, fmt.Errorf("%s has invalid %s %q: %w", tokenomicsPath, f.name, f.value, err)
		}
		*f.dst = d
	}

	if !t.BaseValue.IsPositive() {
		return nil, fmt.Errorf("base_value must be positive, got %s", t.BaseValue)
	}
	if !t.TotalSupply.IsPositive() {
		return nil, fmt.Errorf("total_supply must be positive, got %s", t.TotalSupply)
	}
	if t.UserSupplyUnlocked.IsNegative() || t.UserSupplyUnlocked.GreaterThan(t.TotalSupply) {
		return nil, fmt.Errorf("user_supply_unlocked must be between 0 and total_supply, got %s", t.UserSupplyUnlocked)
	}
	t.AdminReserve = t.TotalSupply.Sub(t.UserSupplyUnlocked)

	return t, nil
}
