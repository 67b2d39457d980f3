package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/table"
)

func TestAssignIDs(t *testing.T) {
	src := table.New("individuals", table.Strings("id", "first_name"))
	require.NoError(t, src.Append(table.Row{nil, "ANN"}))
	require.NoError(t, src.Append(table.Row{"keep-me", "BOB"}))
	require.NoError(t, src.Append(table.Row{"", "CAROL"}))

	out, err := AssignIDs(src, "id")
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := range out.Rows {
		id, ok := out.String(i, "id")
		require.True(t, ok)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, "keep-me", out.Get(1, "id"))

	parsed, err := uuid.Parse(out.Get(0, "id").(string))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())

	// input untouched
	assert.Nil(t, src.Get(0, "id"))

	again, err := AssignIDs(out, "id")
	require.NoError(t, err)
	assert.Equal(t, out.Rows, again.Rows)
}

func TestAssignIDsMissingColumn(t *testing.T) {
	src := table.New("transactions", table.Strings("amount"))
	_, err := AssignIDs(src, "transaction_id")
	assert.True(t, errs.IsConfiguration(err))
}
