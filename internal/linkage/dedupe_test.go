package linkage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

// people builds an individuals table from id plus column values.
func people(t *testing.T, rows ...map[string]string) *table.Table {
	t.Helper()
	out := schema.NewTable(schema.Individuals)
	for _, values := range rows {
		r := out.NewRow()
		for col, v := range values {
			j := out.Schema.Index(col)
			require.GreaterOrEqual(t, j, 0, col)
			r[j] = v
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func defaultIndividuals(t *testing.T) *Config {
	t.Helper()
	cfg, err := DefaultConfig(schema.Individuals)
	require.NoError(t, err)
	return cfg
}

func smiths(t *testing.T) *table.Table {
	return people(t,
		map[string]string{"id": "id-1", "first_name": "ROBERT", "last_name": "SMITH", "state": "TX"},
		map[string]string{"id": "id-2", "first_name": "BOB", "last_name": "SMITH", "state": "TX"},
		map[string]string{"id": "id-3", "first_name": "ROBERT", "last_name": "SMITH", "state": "CA"},
	)
}

func TestDeduplicateNicknameAndStateScenario(t *testing.T) {
	res, err := Deduplicate(context.Background(), smiths(t), defaultIndividuals(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.CandidatePairs)
	assert.Equal(t, 1, res.Table.Len())
	assert.Equal(t, map[string]string{
		"id-1": "id-1",
		"id-2": "id-1",
		"id-3": "id-1",
	}, res.Mapping)
	assert.Equal(t, 1, res.Stats.Clusters)
	assert.Equal(t, 2, res.Stats.MergedRows)
	assert.Empty(t, res.Warnings)
}

func TestDeduplicateStateMismatchPenalty(t *testing.T) {
	cfg := defaultIndividuals(t)
	state := &cfg.Comparisons[2]
	require.Equal(t, "state", state.Column)
	state.M = []float64{0.99999, 0.00001}
	state.FixM = true

	res, err := Deduplicate(context.Background(), smiths(t), cfg, Options{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"id-1": "id-1", "id-2": "id-1"}, res.Mapping)
	assert.Equal(t, 2, res.Table.Len())
	_, ok := res.Mapping["id-3"]
	assert.False(t, ok, "singletons stay out of the mapping")

	for _, p := range res.Pairs {
		if p.B == "id-3" {
			assert.Less(t, p.Probability, cfg.MatchThreshold)
			assert.Equal(t, "first_last", p.Rule)
		}
	}
}

func TestDeduplicateExactDuplicates(t *testing.T) {
	in := people(t,
		map[string]string{"id": "z", "first_name": "ANA", "last_name": "LOPEZ", "zip_code": "85001"},
		map[string]string{"id": "m", "first_name": "ANA", "last_name": "LOPEZ", "zip_code": "85001"},
		map[string]string{"id": "q", "first_name": "PETER", "last_name": "NGUYEN", "zip_code": "48201"},
	)
	res, err := Deduplicate(context.Background(), in, defaultIndividuals(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.ExactDuplicates)
	assert.Equal(t, map[string]string{"m": "m", "z": "m"}, res.Mapping)
	assert.Equal(t, 2, res.Table.Len())
	assert.Equal(t, []any{"m", "q"}, res.Table.Column("id"))
}

func TestDeduplicateIsTransitive(t *testing.T) {
	in := people(t,
		map[string]string{"id": "a", "first_name": "JOHN", "last_name": "DOE", "state": "NY", "zip_code": "11111"},
		map[string]string{"id": "b", "first_name": "JOHN", "last_name": "DOE", "state": "NJ", "zip_code": "22222"},
		map[string]string{"id": "c", "first_name": "JON", "last_name": "DOE", "state": "NJ", "zip_code": "22222"},
	)
	res, err := Deduplicate(context.Background(), in, defaultIndividuals(t), Options{})
	require.NoError(t, err)

	// a and c are never compared
	require.Equal(t, 2, res.Stats.CandidatePairs)
	for _, p := range res.Pairs {
		assert.False(t, p.A == "a" && p.B == "c")
	}
	assert.Equal(t, map[string]string{"a": "a", "b": "a", "c": "a"}, res.Mapping)
}

func TestDeduplicateIgnoresRowOrder(t *testing.T) {
	faker := gofakeit.New(7)
	var rows []map[string]string
	for i := 0; i < 40; i++ {
		row := map[string]string{
			"id":         fmt.Sprintf("id-%03d", i),
			"first_name": faker.FirstName(),
			"last_name":  faker.LastName(),
			"state":      faker.StateAbr(),
			"zip_code":   faker.Zip(),
		}
		rows = append(rows, row)
		if i%4 == 0 {
			dup := map[string]string{}
			for k, v := range row {
				dup[k] = v
			}
			dup["id"] = fmt.Sprintf("dup-%03d", i)
			dup["zip_code"] = ""
			rows = append(rows, dup)
		}
	}

	cfg := defaultIndividuals(t)
	base, err := Deduplicate(context.Background(), people(t, rows...), cfg, Options{Workers: 1})
	require.NoError(t, err)
	require.NotEmpty(t, base.Mapping)

	for round := 0; round < 3; round++ {
		shuffled := append([]map[string]string(nil), rows...)
		faker.ShuffleAnySlice(shuffled)
		got, err := Deduplicate(context.Background(), people(t, shuffled...), cfg, Options{Workers: 4})
		require.NoError(t, err)
		assert.Equal(t, base.Mapping, got.Mapping)
		assert.Equal(t, base.Table.Rows, got.Table.Rows)
		assert.Equal(t, base.Pairs, got.Pairs)
	}
}

func TestDeduplicateConvergenceWarning(t *testing.T) {
	cfg := defaultIndividuals(t)
	cfg.MaxIterations = 1
	cfg.EMConvergence = 1e-12

	res, err := Deduplicate(context.Background(), smiths(t), cfg, Options{})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)

	var cw *errs.ConvergenceWarning
	require.True(t, errors.As(res.Warnings[0], &cw))
	assert.Equal(t, 1, cw.Iterations)
	assert.Equal(t, "individuals", cw.Table)
	assert.False(t, res.Stats.Converged)
}

func TestDeduplicateRejectsBadInput(t *testing.T) {
	cfg := defaultIndividuals(t)

	missing := people(t, map[string]string{"first_name": "ANA"})
	_, err := Deduplicate(context.Background(), missing, cfg, Options{})
	assert.ErrorContains(t, err, "has no id")

	dup := people(t,
		map[string]string{"id": "x", "first_name": "ANA"},
		map[string]string{"id": "x", "first_name": "ANN"},
	)
	_, err = Deduplicate(context.Background(), dup, cfg, Options{})
	assert.ErrorContains(t, err, "duplicate id")

	orgs := schema.NewTable(schema.Organizations)
	_, err = Deduplicate(context.Background(), orgs, cfg, Options{})
	assert.True(t, errs.IsConfiguration(err))
}

func TestDeduplicateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Deduplicate(ctx, smiths(t), defaultIndividuals(t), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeduplicateOrganizations(t *testing.T) {
	cfg, err := DefaultConfig(schema.Organizations)
	require.NoError(t, err)

	orgs := schema.NewTable(schema.Organizations)
	for _, v := range [][]string{
		{"o-2", "FRIENDS OF JANE DOE", "AZ", "85001"},
		{"o-1", "FRIENDS OF JANE DOE", "AZ", ""},
		{"o-3", "ARIZONA REALTORS PAC", "AZ", "85004"},
	} {
		r := orgs.NewRow()
		r[orgs.Schema.Index("id")] = v[0]
		r[orgs.Schema.Index("name")] = v[1]
		r[orgs.Schema.Index("state")] = v[2]
		if v[3] != "" {
			r[orgs.Schema.Index("zip_code")] = v[3]
		}
		orgs.Rows = append(orgs.Rows, r)
	}

	res, err := Deduplicate(context.Background(), orgs, cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"o-1": "o-1", "o-2": "o-1"}, res.Mapping)
	assert.Equal(t, 2, res.Table.Len())
}
