package blob

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in   string
		want Location
	}{
		{"data/db", Location{Driver: DriverFilesystem, Root: "data/db"}},
		{"s3://bucket", Location{Driver: DriverS3, Root: "bucket"}},
		{"s3://bucket/runs/2024/", Location{Driver: DriverS3, Root: "bucket", Prefix: "runs/2024"}},
		{"mem://scratch", Location{Driver: DriverMemory, Prefix: "scratch"}},
	}
	for _, tt := range tests {
		got, err := ParseLocation(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLocation("s3:///prefix")
	assert.Error(t, err)
	_, err = ParseLocation(" ")
	assert.Error(t, err)

	assert.Equal(t, "runs/individuals.csv", Location{Prefix: "runs"}.Key("individuals.csv"))
	assert.Equal(t, "individuals.csv", Location{}.Key("individuals.csv"))
}

// exercise runs the Store contract shared by every driver.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Head(ctx, "db/missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Get(ctx, "db/missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	info, err := s.Put(ctx, "db/individuals.csv", bytes.NewReader([]byte("id\n1\n")), PutOptions{ContentType: "text/csv"})
	require.NoError(t, err)
	assert.Equal(t, "db/individuals.csv", info.Key)
	assert.EqualValues(t, 5, info.Size)

	// Put replaces
	_, err = s.Put(ctx, "db/individuals.csv", bytes.NewReader([]byte("id\n2\n")), PutOptions{})
	require.NoError(t, err)
	_, rc, err := s.Get(ctx, "db/individuals.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "id\n2\n", string(data))

	_, err = s.Put(ctx, "db/organizations.csv", bytes.NewReader([]byte("id\n")), PutOptions{})
	require.NoError(t, err)
	_, err = s.Put(ctx, "other/x.csv", bytes.NewReader([]byte("x")), PutOptions{})
	require.NoError(t, err)

	list, err := s.List(ctx, "db/")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "db/individuals.csv", list[0].Key)
	assert.Equal(t, "db/organizations.csv", list[1].Key)

	ok, err := s.Delete(ctx, "db/organizations.csv")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, "db/organizations.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	assert.Equal(t, DriverMemory, s.Driver())
	exercise(t, s)
}

func TestFilesystemStore(t *testing.T) {
	root := t.TempDir()
	s, err := NewFilesystem(root)
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())
	exercise(t, s)

	// plain files, no sidecars or leftovers
	entries, err := os.ReadDir(filepath.Join(root, "db"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "individuals.csv", entries[0].Name())
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	s, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"", "/etc/passwd", "../escape", "a/../../escape"} {
		_, err := s.Put(context.Background(), key, bytes.NewReader(nil), PutOptions{})
		assert.Error(t, err, key)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Location{Driver: DriverFilesystem, Root: dir})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())

	a, err := Open(ctx, Location{Driver: DriverMemory})
	require.NoError(t, err)
	b, err := Open(ctx, Location{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = Open(ctx, Location{Driver: "ftp"})
	assert.Error(t, err)
}
