package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTokenomics(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenomics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTokenomics(t *testing.T) {
	path := writeTokenomics(t, `
base_value: "0.0035"
total_supply: "1000000000"
user_supply_unlocked: "400000000"
`)

	tk, err := LoadTokenomics(path)
	require.NoError(t, err)
	assert.True(t, tk.BaseValue.Equal(decimal.RequireFromString("0.0035")))
	assert.True(t, tk.AdminReserve.Equal(decimal.NewFromInt(600000000)))
}

func TestLoadTokenomicsValidation(t *testing.T) {
	tests := map[string]string{
		"missing base":      "total_supply: \"10\"\nuser_supply_unlocked: \"5\"\n",
		"unlock over total": "base_value: \"0.0035\"\ntotal_supply: \"10\"\nuser_supply_unlocked: \"11\"\n",
		"bad number":        "base_value: \"abc\"\ntotal_supply: \"10\"\nuser_supply_unlocked: \"5\"\n",
		"zero base":         "base_value: \"0\"\ntotal_supply: \"10\"\nuser_supply_unlocked: \"5\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadTokenomics(writeTokenomics(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadTokenomicsMissingFile(t *testing.T) {
	_, err := LoadTokenomics(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
