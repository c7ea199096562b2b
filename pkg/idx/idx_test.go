package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/toolgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := idx.New()
	b := idx.New()

	require.False(t, a.IsZero())
	require.Len(t, a.String(), 26)
	require.NotEqual(t, a, b)

	// Monotonic source keeps same-millisecond IDs sortable
	require.Less(t, a.String(), b.String())
}

func TestNewAt(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := idx.NewAt(at)

	require.Equal(t, at.Truncate(time.Millisecond), id.Time())
}

func TestParse(t *testing.T) {
	t.Run("round trips a generated id", func(t *testing.T) {
		id := idx.New()
		parsed, err := idx.Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})

	t.Run("rejects empty and malformed input", func(t *testing.T) {
		_, err := idx.Parse("")
		require.ErrorIs(t, err, idx.ErrInvalid)

		_, err = idx.Parse("not-a-ulid")
		require.ErrorIs(t, err, idx.ErrInvalid)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		id := idx.New()
		parsed, err := idx.Parse("  " + id.String() + "  ")
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})
}

func TestMustParse(t *testing.T) {
	require.Panics(t, func() {
		idx.MustParse("definitely-invalid")
	})
}
