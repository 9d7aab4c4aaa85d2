package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct{ id string }

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2024-01-02T03:04:05Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2024-01-02T03:04:05Z", cursor.CreatedAt)
}

func TestTrimDetectsExtraRow(t *testing.T) {
	rows := []*row{{"a"}, {"b"}, {"c"}}

	out, info := Trim(rows, 2, func(r *row) string { return r.id })
	assert.Len(t, out, 2)
	assert.True(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)

	out, info = Trim(rows, 5, func(r *row) string { return r.id })
	assert.Len(t, out, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestNormalizePageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, NormalizePageSize(0))
	assert.Equal(t, MaxPageSize, NormalizePageSize(1000))
	assert.Equal(t, 10, NormalizePageSize(10))
}
