package rawio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/table"
)

func TestReadCSVUTF16WithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, err := enc.Bytes([]byte("Committee Name,Amount\nFriends of José,100\n"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, []byte{0xFF, 0xFE}))

	res, err := ReadCSVFrom(bytes.NewReader(raw), "arizona", "az.csv", CSVOptions{
		Encoding: UTF16LE,
		Expected: []string{"Committee Name", "Amount"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Table.Len())
	name, _ := res.Table.String(0, "Committee Name")
	assert.Equal(t, "Friends of José", name)
}

func TestReadCSVUTF8AcceptedForUTF16Source(t *testing.T) {
	res, err := ReadCSVFrom(strings.NewReader("\ufeffCommittee Name,Amount\nA,1\n"), "arizona", "az.csv", CSVOptions{Encoding: UTF8})
	require.NoError(t, err)
	assert.Equal(t, []string{"Committee Name", "Amount"}, res.Table.Schema.Names())
}

func TestReadCSVWindows1252Tabs(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte("f_name\tl_name_or_org\tamount\nRenée\tO'Brien\t25.00\n"))
	require.NoError(t, err)

	res, err := ReadCSVFrom(bytes.NewReader(raw), "michigan", "mi.txt", CSVOptions{Encoding: Windows1252, Comma: '\t'})
	require.NoError(t, err)
	first, _ := res.Table.String(0, "f_name")
	assert.Equal(t, "Renée", first)
}

func TestReadCSVHeaderless(t *testing.T) {
	res, err := ReadCSVFrom(strings.NewReader("1,2\n3,4\n"), "pennsylvania", "contrib.txt", CSVOptions{Columns: []string{"A", "B"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Table.Len())
	assert.Equal(t, "3", res.Table.Get(1, "A"))
}

func TestReadCSVMissingColumns(t *testing.T) {
	_, err := ReadCSVFrom(strings.NewReader("a,b\n1,2\n"), "texas", "t.csv", CSVOptions{Expected: []string{"a", "contributionAmount", "filerIdent"}})
	var sfe *errs.SourceFormatError
	require.True(t, errors.As(err, &sfe))
	assert.Equal(t, []string{"contributionAmount", "filerIdent"}, sfe.Missing)
}

func TestReadCSVBadLineTolerance(t *testing.T) {
	var b strings.Builder
	b.WriteString("a,b\n")
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "%d,x\n", i)
	}
	b.WriteString("1,2,3\n")

	res, err := ReadCSVFrom(strings.NewReader(b.String()), "minnesota", "mn.csv", CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, 200, res.Table.Len())
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 201, res.Lines)

	_, err = ReadCSVFrom(strings.NewReader("a,b\n1,2\n1,2,3\n"), "minnesota", "mn.csv", CSVOptions{})
	var sfe *errs.SourceFormatError
	require.True(t, errors.As(err, &sfe))
	assert.Contains(t, sfe.Error(), "skipped 1 of 2 lines")
}

func TestReadCSVEmptyCellsAreNull(t *testing.T) {
	res, err := ReadCSVFrom(strings.NewReader("a,b\n , x \n"), "texas", "t.csv", CSVOptions{})
	require.NoError(t, err)
	assert.Nil(t, res.Table.Get(0, "a"))
	assert.Equal(t, "x", res.Table.Get(0, "b"))
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV("texas", filepath.Join(t.TempDir(), "nope.csv"), CSVOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestXLSXRoundTrip(t *testing.T) {
	src := table.New("az", table.Strings("Committee Name", "Amount", "Office"))
	require.NoError(t, src.Append(table.Row{"Friends of Ann", "50", nil}))
	require.NoError(t, src.Append(table.Row{"Bob for Senate", "75.5", "State Senate - District No. 5"}))

	path := filepath.Join(t.TempDir(), "az.xlsx")
	require.NoError(t, WriteXLSX(src, path))

	res, err := ReadXLSX("arizona", path, []string{"Committee Name", "Amount"}, 0)
	require.NoError(t, err)
	require.Equal(t, 2, res.Table.Len())
	assert.Nil(t, res.Table.Get(0, "Office"))
	assert.Equal(t, "State Senate - District No. 5", res.Table.Get(1, "Office"))

	_, err = ReadXLSX("arizona", path, []string{"Contributor Zip"}, 0)
	var sfe *errs.SourceFormatError
	require.True(t, errors.As(err, &sfe))
	assert.Equal(t, []string{"Contributor Zip"}, sfe.Missing)
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"contribs_02.csv", "contribs_01.csv", "other.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	got, err := Glob("texas", dir, "contribs*.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "contribs_01.csv"), filepath.Join(dir, "contribs_02.csv")}, got)

	_, err = Glob("texas", dir, "missing*.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
