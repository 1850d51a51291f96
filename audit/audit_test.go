package audit

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndList(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Append("ret-1", ActionReturnCreated, ""))
	require.NoError(t, s.Append("ret-1", ActionSaved, "file=return_2025.dat"))
	require.NoError(t, s.Append("ret-1", ActionCalculated, "tax_year=2025"))

	entries, err := s.List(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, ActionCalculated, entries[0].Action)
	assert.Equal(t, ActionReturnCreated, entries[2].Action)
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, "ret-1", e.ReturnID)
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestListLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Append("ret-1", ActionSaved, fmt.Sprintf("n=%d", i)))
	}

	entries, err := s.List(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, "n=9", entries[0].Detail)
}

func TestListEmpty(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.List(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
