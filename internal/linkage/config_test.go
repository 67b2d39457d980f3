package linkage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/schema"
)

func TestDefaultConfigs(t *testing.T) {
	for _, tt := range []schema.TableType{schema.Individuals, schema.Organizations} {
		t.Run(string(tt), func(t *testing.T) {
			cfg, err := DefaultConfig(tt)
			require.NoError(t, err)
			assert.Equal(t, string(tt), cfg.Table)
			assert.Equal(t, 0.7, cfg.MatchThreshold)
			require.NoError(t, cfg.Validate(schema.MustFor(tt)))
			for _, c := range cfg.Comparisons {
				assert.InDelta(t, 1.0, sum(c.M), 1e-9, c.Column)
				assert.InDelta(t, 1.0, sum(c.U), 1e-9, c.Column)
			}
		})
	}

	_, err := DefaultConfig(schema.Transactions)
	assert.True(t, errs.IsConfiguration(err))
}

func TestBlockKeyShorthand(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
table: individuals
blocking_rules:
  - keys: [last_name, metaphone(first_name)]
  - keys:
      - column: zip_code
        transform: initial
comparisons:
  - column: last_name
`))
	require.NoError(t, err)

	require.Len(t, cfg.BlockingRules, 2)
	assert.Equal(t, []BlockKey{
		{Column: "last_name"},
		{Column: "first_name", Transform: TransformMetaphone},
	}, cfg.BlockingRules[0].Keys)
	assert.Equal(t, "last_name+metaphone(first_name)", cfg.BlockingRules[0].Name)
	assert.Equal(t, BlockKey{Column: "zip_code", Transform: TransformInitial}, cfg.BlockingRules[1].Keys[0])

	// defaults
	assert.Equal(t, "id", cfg.IDColumn)
	assert.Equal(t, MethodExact, cfg.Comparisons[0].Method)
	assert.InDeltaSlice(t, []float64{0.95, 0.05}, cfg.Comparisons[0].M, 1e-12)
	assert.InDeltaSlice(t, []float64{0.1, 0.9}, cfg.Comparisons[0].U, 1e-12)
	assert.NoError(t, cfg.Validate(schema.MustFor(schema.Individuals)))
}

func TestConfigValidate(t *testing.T) {
	individuals := schema.MustFor(schema.Individuals)
	tests := []struct {
		name   string
		yaml   string
		config bool
	}{
		{"unknown blocking column", `
blocking_rules: [{keys: [nope]}]
comparisons: [{column: last_name}]`, true},
		{"unknown comparison column", `
blocking_rules: [{keys: [last_name]}]
comparisons: [{column: nope}]`, true},
		{"unknown method", `
blocking_rules: [{keys: [last_name]}]
comparisons: [{column: last_name, method: soundex}]`, true},
		{"unknown transform", `
blocking_rules: [{keys: [soundex(last_name)]}]
comparisons: [{column: last_name}]`, true},
		{"prior count mismatch", `
blocking_rules: [{keys: [last_name]}]
comparisons: [{column: last_name, method: jaro_winkler, thresholds: [0.9], m: [0.9, 0.1]}]`, false},
		{"thresholds out of order", `
blocking_rules: [{keys: [last_name]}]
comparisons: [{column: last_name, method: jaro_winkler, thresholds: [0.8, 0.9]}]`, false},
		{"no blocking rules", `
comparisons: [{column: last_name}]`, false},
		{"negative prior weight", `
prior_weight: -1
blocking_rules: [{keys: [last_name]}]
comparisons: [{column: last_name}]`, false},
		{"negative max iterations", `
max_iterations: -5
blocking_rules: [{keys: [last_name]}]
comparisons: [{column: last_name}]`, false},
		{"negative convergence", `
em_convergence: -0.001
blocking_rules: [{keys: [last_name]}]
comparisons: [{column: last_name}]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.yaml))
			require.NoError(t, err)
			err = cfg.Validate(individuals)
			require.Error(t, err)
			assert.Equal(t, tt.config, errs.IsConfiguration(err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
table: individuals
match_threshold: 0.9
blocking_rules: [{keys: [last_name]}]
comparisons: [{column: last_name}]
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.MatchThreshold)
	assert.Equal(t, 25, cfg.MaxIterations)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}
