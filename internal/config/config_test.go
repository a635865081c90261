package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
name: Emissary Token
symbol: EMSY
max_supply: 1000000000
initial_percent_bps: 1500
foundation_account: foundation
deployer: deployer
db_path: emissary.db
`

// TestParse_Valid tests a well-formed config.
func TestParse_Valid(t *testing.T) {
	cfg, errs, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	require.Empty(t, errs)

	assert.Equal(t, "Emissary Token", cfg.Name)
	assert.Equal(t, "EMSY", cfg.Symbol)
	assert.Equal(t, uint64(1_000_000_000), cfg.MaxSupply)
	assert.Equal(t, uint64(1500), cfg.InitialPercentBps)
	assert.Equal(t, "deployer", cfg.Authority, "authority defaults to deployer")
}

// TestParse_ExplicitAuthority tests that a named authority is kept.
func TestParse_ExplicitAuthority(t *testing.T) {
	cfg, errs, err := Parse([]byte(validYAML + "authority: treasurer\n"))
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Equal(t, "treasurer", cfg.Authority)
}

// TestParse_SchemaViolations tests that each violation is reported.
func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name: "zero max supply",
			yaml: `
name: T
symbol: TT
max_supply: 0
initial_percent_bps: 1500
foundation_account: foundation
deployer: deployer
db_path: t.db
`,
			field: "max_supply",
		},
		{
			name: "wrong initial grant",
			yaml: `
name: T
symbol: TT
max_supply: 1000
initial_percent_bps: 2000
foundation_account: foundation
deployer: deployer
db_path: t.db
`,
			field: "initial_percent_bps",
		},
		{
			name: "empty foundation",
			yaml: `
name: T
symbol: TT
max_supply: 1000
initial_percent_bps: 1500
foundation_account: ""
deployer: deployer
db_path: t.db
`,
			field: "foundation_account",
		},
		{
			name: "lowercase symbol",
			yaml: `
name: T
symbol: tt
max_supply: 1000
initial_percent_bps: 1500
foundation_account: foundation
deployer: deployer
db_path: t.db
`,
			field: "symbol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			require.NotEmpty(t, errs)

			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected a violation on %s, got %v", tt.field, errs)
		})
	}
}

// TestParse_CollectsAllViolations tests that a doubly-bad config
// reports both problems in one pass.
func TestParse_CollectsAllViolations(t *testing.T) {
	bad := `
name: ""
symbol: TT
max_supply: 0
initial_percent_bps: 1500
foundation_account: foundation
deployer: deployer
db_path: t.db
`
	_, errs, err := Parse([]byte(bad))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(errs), 2, "got %v", errs)
}

// TestParse_MalformedYAML tests that broken YAML is a hard error.
func TestParse_MalformedYAML(t *testing.T) {
	_, _, err := Parse([]byte("name: [unclosed"))
	assert.Error(t, err)
}

// TestLoad tests reading from disk.
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	cfg, errs, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Equal(t, "EMSY", cfg.Symbol)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestValidationError_Error tests the error string formats.
func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "max_supply: out of range",
		ValidationError{Field: "max_supply", Message: "out of range"}.Error())
	assert.Equal(t, "bad config", ValidationError{Message: "bad config"}.Error())
}
