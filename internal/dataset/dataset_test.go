package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

func fixture(t *testing.T) schema.TableSet {
	t.Helper()
	people := schema.NewTable(schema.Individuals)
	for _, v := range []map[string]any{
		{"id": "id-1", "first_name": "MARY", "last_name": "SMITH", "state": "MN", "source": "MN"},
		{"id": "id-2", "first_name": "JOSÉ", "last_name": "O'NEIL, JR", "source": "TX"},
	} {
		r := people.NewRow()
		for col, cell := range v {
			r[people.Schema.Index(col)] = cell
		}
		people.Rows = append(people.Rows, r)
	}

	tx := schema.NewTable(schema.Transactions)
	for _, v := range []map[string]any{
		{
			"transaction_id": "t-1",
			"donor_id":       "id-1",
			"recipient_id":   "o-1",
			"amount":         250.75,
			"date":           time.Date(2020, 3, 14, 0, 0, 0, 0, time.UTC),
			"year":           2020.0,
			"source":         "MN",
		},
		{
			"transaction_id": "t-2",
			"donor_id":       "id-2",
			"amount":         -25.0,
			"date":           time.Date(1968, 11, 5, 0, 0, 0, 0, time.UTC),
			"purpose":        "refund\nwith newline",
			"source":         "TX",
		},
	} {
		r := tx.NewRow()
		for col, cell := range v {
			r[tx.Schema.Index(col)] = cell
		}
		tx.Rows = append(tx.Rows, r)
	}

	idMap := schema.NewTable(schema.IDMap)
	idMap.Rows = append(idMap.Rows, table.Row{"individuals", "id-3", "id-1"})

	return schema.TableSet{
		schema.Individuals:  people,
		schema.Transactions: tx,
		schema.IDMap:        idMap,
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"csv", "Feather", " sqlite ", "postgres"} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseFormat("parquet")
	assert.True(t, errs.IsConfiguration(err))
}

func TestFeatherRoundTripIsExact(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	want := fixture(t)

	require.NoError(t, Save(ctx, want, dir, Feather))
	for _, name := range []string{"individuals.feather", "transactions.feather", "id_map.feather"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	got, err := Load(ctx, dir, Feather)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCSVRoundTripAfterRecoerce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	want := fixture(t)

	require.NoError(t, Save(ctx, want, dir, CSV))
	raw, err := Load(ctx, dir, CSV)
	require.NoError(t, err)

	// text until recoerced
	amount := raw[schema.Transactions].Get(0, "amount")
	assert.Equal(t, "250.75", amount)

	assert.Equal(t, want, Recoerce(raw))
}

func TestRecoerceKeepsUnknownTables(t *testing.T) {
	extra := table.New("notes", table.Strings("text"))
	extra.Rows = append(extra.Rows, table.Row{"hello"})
	got := Recoerce(schema.TableSet{"notes": extra})
	assert.Same(t, extra, got["notes"])
}

func TestSaveReplacesTables(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first := fixture(t)
	require.NoError(t, Save(ctx, first, dir, Feather))

	second := fixture(t)
	second[schema.Individuals].Rows = second[schema.Individuals].Rows[:1]
	require.NoError(t, Save(ctx, second, dir, Feather))

	got, err := Load(ctx, dir, Feather)
	require.NoError(t, err)
	assert.Equal(t, 1, got[schema.Individuals].Len())
}

func TestSaveRemovesTablesOfEarlierSaves(t *testing.T) {
	ctx := context.Background()
	for _, format := range []Format{CSV, Feather} {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, Save(ctx, fixture(t), dir, format))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0o644))

			only := schema.TableSet{schema.Individuals: fixture(t)[schema.Individuals]}
			require.NoError(t, Save(ctx, only, dir, format))

			got, err := Load(ctx, dir, format)
			require.NoError(t, err)
			assert.Len(t, got, 1)
			assert.Contains(t, got, schema.Individuals)
			assert.NoFileExists(t, filepath.Join(dir, "transactions."+string(format)))
			assert.FileExists(t, filepath.Join(dir, "README.txt"), "foreign files are left alone")
		})
	}
}

func TestSQLiteSaveRemovesTablesOfEarlierSaves(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cfdb.sqlite")
	require.NoError(t, Save(ctx, fixture(t), path, SQLite))

	only := schema.TableSet{schema.Individuals: fixture(t)[schema.Individuals]}
	require.NoError(t, Save(ctx, only, path, SQLite))

	got, err := Load(ctx, path, SQLite)
	require.NoError(t, err)
	assert.Equal(t, only, got)
}

func TestMemoryLocation(t *testing.T) {
	ctx := context.Background()
	want := fixture(t)
	require.NoError(t, Save(ctx, want, "mem://dataset-test", Feather))

	got, err := Load(ctx, "mem://dataset-test", Feather)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// csv files under the same prefix are not feather tables
	_, err = Load(ctx, "mem://dataset-test", CSV)
	assert.ErrorContains(t, err, "no csv tables")
}

func TestLoadIgnoresNestedAndForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, Save(ctx, fixture(t), dir, CSV))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "old"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old", "individuals.csv"), []byte("id\nx\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0o644))

	got, err := Load(ctx, dir, CSV)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 2, got[schema.Individuals].Len())
}

func TestSQLiteRoundTripIsExact(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "cfdb.sqlite")
	want := fixture(t)

	require.NoError(t, Save(ctx, want, path, SQLite))
	got, err := Load(ctx, path, SQLite)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// saving again replaces rather than appends
	require.NoError(t, Save(ctx, want, path, SQLite))
	got, err = Load(ctx, path, SQLite)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnknownFormat(t *testing.T) {
	err := Save(context.Background(), fixture(t), t.TempDir(), Format("orc"))
	assert.True(t, errs.IsConfiguration(err))
	_, err = Load(context.Background(), t.TempDir(), Format("orc"))
	assert.True(t, errs.IsConfiguration(err))
}
