package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestTokenRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	token := At(42, ts).Token()
	assert.NotContains(t, token, "=")

	c, err := Parse(&token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), c.ID)
	assert.True(t, c.Time().Equal(ts))
	assert.False(t, c.IsZero())
}

func TestParse_FirstPageAndInvalid(t *testing.T) {
	for name, token := range map[string]*string{"nil": nil, "empty": ptr("")} {
		t.Run(name, func(t *testing.T) {
			c, err := Parse(token)
			require.NoError(t, err)
			assert.True(t, c.IsZero())
		})
	}

	for name, token := range map[string]string{
		"not base64": "%%%",
		"not json":   "bm9wZQ",
		"zero":       Cursor{}.Token(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(&token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPage(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	key := func(id uint64) Cursor { return At(id, ts) }

	rows, next := Page([]uint64{5, 4, 3}, 2, key)
	assert.Equal(t, []uint64{5, 4}, rows)
	require.NotNil(t, next)
	c, err := Parse(next)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), c.ID)

	rows, next = Page([]uint64{2, 1}, 2, key)
	assert.Equal(t, []uint64{2, 1}, rows)
	assert.Nil(t, next)
}
