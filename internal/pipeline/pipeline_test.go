package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfdb/internal/dataset"
	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/metrics"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/sources"
	"github.com/cfdb/internal/table"
)

// fake returns a pipeline that emits the given tables without reading
// files, counting its runs in *calls.
func fake(name string, calls *int, out schema.TableSet) *sources.Pipeline {
	return &sources.Pipeline{
		Name:       name,
		TableTypes: out.Names(),
		Preprocess: func(context.Context, string, *sources.Env) (sources.Raw, error) {
			*calls++
			return sources.Raw{}, nil
		},
		Standardize: func(sources.Raw, *sources.Env) (schema.TableSet, error) {
			return out, nil
		},
	}
}

// failing returns a pipeline whose raw files are missing.
func failing(name string, calls *int) *sources.Pipeline {
	return &sources.Pipeline{
		Name:       name,
		TableTypes: []schema.TableType{schema.Individuals},
		Preprocess: func(_ context.Context, dir string, _ *sources.Env) (sources.Raw, error) {
			*calls++
			return nil, &errs.SourceFormatError{Source: name, Path: dir, Err: errors.New("no files")}
		},
		Standardize: func(sources.Raw, *sources.Env) (schema.TableSet, error) {
			return nil, nil
		},
	}
}

// rows builds a canonical table from column values.
func rows(t *testing.T, tt schema.TableType, values ...map[string]any) *table.Table {
	t.Helper()
	out := schema.NewTable(tt)
	for _, v := range values {
		r := out.NewRow()
		for col, cell := range v {
			j := out.Schema.Index(col)
			require.GreaterOrEqual(t, j, 0, col)
			r[j] = cell
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func person(t *testing.T, id, first string) schema.TableSet {
	return schema.TableSet{
		schema.Individuals: rows(t, schema.Individuals, map[string]any{"id": id, "first_name": first, "last_name": "DOE"}),
	}
}

func TestStandardizeStatesUnknownStateRunsNothing(t *testing.T) {
	calls := 0
	reg := sources.NewRegistry()
	reg.Register("AZ", fake("az", &calls, person(t, "a", "ANN")))

	_, _, err := StandardizeStates(context.Background(), Options{Registry: reg, States: []string{"AZ", "ZZ"}})
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.Equal(t, 0, calls)
}

func TestStandardizeStatesConcatenatesInRegistrationOrder(t *testing.T) {
	calls := 0
	reg := sources.NewRegistry()
	reg.Register("AZ", fake("az", &calls, person(t, "a", "ANN")))
	reg.Declare("NV")
	reg.Register("MI", fake("mi-1", &calls, person(t, "b", "BEN")))
	reg.Register("MI", fake("mi-2", &calls, person(t, "c", "CAL")))

	tables, report, err := StandardizeStates(context.Background(), Options{
		Registry: reg,
		States:   []string{"mi", "nv", "az"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []any{"a", "b", "c"}, tables[schema.Individuals].Column("id"))
	assert.Equal(t, []any{"az", "mi-1", "mi-2"}, tables[schema.Individuals].Column("source"))

	for _, tt := range schema.TableTypes {
		assert.NotNil(t, tables[tt], tt)
	}
	assert.Equal(t, 0, tables[schema.Transactions].Len())
	assert.Len(t, report.Sources(), 3)
}

func TestStandardizeStatesZeroPipelineState(t *testing.T) {
	reg := sources.NewRegistry()
	reg.Declare("NV")

	tables, _, err := StandardizeStates(context.Background(), Options{Registry: reg, States: []string{"NV"}})
	require.NoError(t, err)
	assert.Equal(t, 0, tables[schema.Individuals].Len())
}

func TestStandardizeStatesAggregatesFailures(t *testing.T) {
	calls := 0
	reg := sources.NewRegistry()
	reg.Register("AZ", failing("az", &calls))
	reg.Register("MI", fake("mi", &calls, person(t, "b", "BEN")))
	reg.Register("TX", failing("tx", &calls))

	m := metrics.New()
	tables, report, err := StandardizeStates(context.Background(), Options{Registry: reg, Metrics: m})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var agg *errs.AggregateError
	require.True(t, errors.As(err, &agg))
	assert.Len(t, agg.Errors, 2)
	var sfe *errs.SourceFormatError
	assert.True(t, errors.As(err, &sfe))

	assert.Equal(t, []any{"b"}, tables[schema.Individuals].Column("id"))
	failed := 0
	for _, s := range report.Sources() {
		if s.Failed {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues("tx")))
}

func TestStandardizeStatesFailFast(t *testing.T) {
	calls := 0
	reg := sources.NewRegistry()
	reg.Register("AZ", failing("az", &calls))
	reg.Register("MI", fake("mi", &calls, person(t, "b", "BEN")))

	tables, _, err := StandardizeStates(context.Background(), Options{Registry: reg, FailFast: true})
	require.Error(t, err)
	assert.Nil(t, tables)
	assert.Equal(t, 1, calls)

	var sfe *errs.SourceFormatError
	assert.True(t, errors.As(err, &sfe))
}

func TestStandardizeStatesHonoursCancellation(t *testing.T) {
	calls := 0
	reg := sources.NewRegistry()
	reg.Register("AZ", fake("az", &calls, person(t, "a", "ANN")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := StandardizeStates(ctx, Options{Registry: reg})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func smithsRegistry(t *testing.T) *sources.Registry {
	calls := 0
	out := schema.TableSet{
		schema.Individuals: rows(t, schema.Individuals,
			map[string]any{"id": "id-1", "first_name": "ROBERT", "last_name": "SMITH", "state": "TX"},
			map[string]any{"id": "id-2", "first_name": "BOB", "last_name": "SMITH", "state": "TX"},
			map[string]any{"id": "id-3", "first_name": "ROBERT", "last_name": "SMITH", "state": "CA"},
		),
		schema.Organizations: rows(t, schema.Organizations,
			map[string]any{"id": "o-1", "name": "SMITH FOR TEXAS", "state": "TX"},
		),
		schema.Transactions: rows(t, schema.Transactions,
			map[string]any{"transaction_id": "t-1", "donor_id": "id-2", "recipient_id": "o-1", "amount": 100.0},
			map[string]any{"transaction_id": "t-2", "donor_id": "id-3", "recipient_id": "o-1", "amount": 50.0},
			map[string]any{"transaction_id": "t-3", "donor_id": "ghost", "recipient_id": "o-1", "amount": 5.0},
			map[string]any{
				"donor_id":     "id-1",
				"recipient_id": "o-1",
				"amount":       20.0,
				"date":         time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC),
			},
		),
	}
	reg := sources.NewRegistry()
	reg.Register("TX", fake("tx", &calls, out))
	return reg
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "db")
	m := metrics.New()

	summary, err := Run(ctx, Options{
		Registry: smithsRegistry(t),
		Output:   out,
		Format:   dataset.Feather,
		Workers:  2,
		Metrics:  m,
	})
	require.NoError(t, err)

	people := summary.Tables[schema.Individuals]
	assert.Equal(t, []any{"id-1"}, people.Column("id"))
	assert.Equal(t, 1, summary.Tables[schema.Organizations].Len())

	tx := summary.Tables[schema.Transactions]
	assert.Equal(t, []any{"id-1", "id-1", "ghost", "id-1"}, tx.Column("donor_id"))
	for _, id := range tx.Column("transaction_id") {
		assert.NotEmpty(t, id, "every transaction gets an id")
	}

	idMap := summary.Tables[schema.IDMap]
	assert.Equal(t, []table.Row{
		{"individuals", "id-1", "id-1"},
		{"individuals", "id-2", "id-1"},
		{"individuals", "id-3", "id-1"},
	}, idMap.Rows)

	assert.Equal(t, map[string]int{"donor_id": 1, "recipient_id": 0}, summary.Dangling)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DanglingIDs.WithLabelValues("donor_id")))

	saved, err := dataset.Load(ctx, out, dataset.Feather)
	require.NoError(t, err)
	require.Len(t, saved, 5)
	for tt, want := range summary.Tables {
		got := saved[tt]
		require.NotNil(t, got, tt)
		assert.Equal(t, want.Schema, got.Schema, tt)
		require.Equal(t, want.Len(), got.Len(), tt)
		for i := range want.Rows {
			assert.Equal(t, want.Rows[i], got.Rows[i], tt)
		}
	}
}

func TestRunThresholdOverride(t *testing.T) {
	summary, err := Run(context.Background(), Options{
		Registry:  smithsRegistry(t),
		Threshold: 0.99999999,
	})
	require.NoError(t, err)
	// nothing clears a near-certain threshold, so every row survives
	assert.Equal(t, 3, summary.Tables[schema.Individuals].Len())
	assert.Equal(t, 0, summary.Tables[schema.IDMap].Len())
	assert.Equal(t, []any{"id-2", "id-3", "ghost", "id-1"}, summary.Tables[schema.Transactions].Column("donor_id"))
}

func TestRunKeepsGoingPastSourceFailures(t *testing.T) {
	calls := 0
	reg := smithsRegistry(t)
	reg.Register("AZ", failing("az", &calls))

	summary, err := Run(context.Background(), Options{Registry: reg})
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Tables[schema.Individuals].Len())

	_, err = Run(context.Background(), Options{Registry: reg, FailFast: true})
	require.Error(t, err)
}

func TestLinkSavedCSVDataset(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "db")

	// standardize only: nothing clears the threshold, ids are assigned
	_, err := Run(ctx, Options{
		Registry:  smithsRegistry(t),
		Threshold: 0.99999999,
		Output:    out,
		Format:    dataset.CSV,
	})
	require.NoError(t, err)

	saved, err := dataset.Load(ctx, out, dataset.CSV)
	require.NoError(t, err)
	tables := dataset.Recoerce(saved)
	require.Equal(t, 3, tables[schema.Individuals].Len())

	summary, err := Link(ctx, tables, Options{Output: out, Format: dataset.CSV})
	require.NoError(t, err)
	assert.Equal(t, []any{"id-1"}, summary.Tables[schema.Individuals].Column("id"))
	assert.Equal(t, 3, summary.Tables[schema.IDMap].Len())
	assert.Equal(t, []any{"id-1", "id-1", "ghost", "id-1"}, summary.Tables[schema.Transactions].Column("donor_id"))

	relinked, err := dataset.Load(ctx, out, dataset.CSV)
	require.NoError(t, err)
	assert.Equal(t, 1, relinked[schema.Individuals].Len())

	// a second link finds nothing new and keeps the first pass's id_map
	summary, err = Link(ctx, dataset.Recoerce(relinked), Options{Output: out, Format: dataset.CSV})
	require.NoError(t, err)
	assert.Equal(t, []table.Row{
		{"individuals", "id-1", "id-1"},
		{"individuals", "id-2", "id-1"},
		{"individuals", "id-3", "id-1"},
	}, summary.Tables[schema.IDMap].Rows)

	saved, err = dataset.Load(ctx, out, dataset.CSV)
	require.NoError(t, err)
	assert.Equal(t, 3, saved[schema.IDMap].Len())
}

func TestLinkComposesEarlierIDMap(t *testing.T) {
	tables := schema.TableSet{
		schema.Individuals: rows(t, schema.Individuals,
			map[string]any{"id": "id-1", "first_name": "ROBERT", "last_name": "SMITH", "state": "TX"},
			map[string]any{"id": "id-2", "first_name": "BOB", "last_name": "SMITH", "state": "TX"},
			map[string]any{"id": "id-3", "first_name": "ROBERT", "last_name": "SMITH", "state": "CA"},
		),
		schema.Organizations: rows(t, schema.Organizations,
			map[string]any{"id": "o-1", "name": "SMITH FOR TEXAS", "state": "TX"},
		),
		schema.Transactions: rows(t, schema.Transactions,
			map[string]any{"transaction_id": "t-1", "donor_id": "id-2", "recipient_id": "o-1", "amount": 100.0},
		),
		// an earlier link merged x-9 into id-2 and o-0 into o-1
		schema.IDMap: rows(t, schema.IDMap,
			map[string]any{"table_type": "individuals", "original_id": "id-2", "canonical_id": "id-2"},
			map[string]any{"table_type": "individuals", "original_id": "x-9", "canonical_id": "id-2"},
			map[string]any{"table_type": "organizations", "original_id": "o-0", "canonical_id": "o-1"},
			map[string]any{"table_type": "organizations", "original_id": "o-1", "canonical_id": "o-1"},
		),
	}

	summary, err := Link(context.Background(), tables, Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{"id-1"}, summary.Tables[schema.Individuals].Column("id"))
	assert.Equal(t, []table.Row{
		{"individuals", "id-1", "id-1"},
		{"individuals", "id-2", "id-1"},
		{"individuals", "id-3", "id-1"},
		{"individuals", "x-9", "id-1"},
		{"organizations", "o-0", "o-1"},
		{"organizations", "o-1", "o-1"},
	}, summary.Tables[schema.IDMap].Rows)
	assert.Equal(t, []any{"id-1"}, summary.Tables[schema.Transactions].Column("donor_id"))
}

func TestLinkLeavesElectionResultsAlone(t *testing.T) {
	assert.NotContains(t, referenceColumns, schema.ElectionResults)

	tables := schema.TableSet{
		schema.Individuals: rows(t, schema.Individuals,
			map[string]any{"id": "id-1", "first_name": "ROBERT", "last_name": "SMITH", "state": "TX"},
			map[string]any{"id": "id-2", "first_name": "BOB", "last_name": "SMITH", "state": "TX"},
		),
		schema.ElectionResults: rows(t, schema.ElectionResults,
			map[string]any{"id": "e-1", "candidate_name": "ROBERT SMITH", "votes": 10.0},
		),
	}
	want := tables[schema.ElectionResults].Rows[0]

	summary, err := Link(context.Background(), tables, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Tables[schema.ElectionResults].Len())
	assert.Equal(t, want, summary.Tables[schema.ElectionResults].Rows[0])
}

func TestLinkSkipsMissingTables(t *testing.T) {
	tables := schema.TableSet{schema.Individuals: person(t, "a", "ANN")[schema.Individuals]}

	summary, err := Link(context.Background(), tables, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Tables[schema.Individuals].Len())
	assert.Equal(t, 0, summary.Tables[schema.IDMap].Len())
	assert.Empty(t, summary.Dangling)
}
