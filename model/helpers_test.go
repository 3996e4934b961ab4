package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// boardOf builds a board from layout rows ('.' empty, R G B Y P tokens).
func boardOf(t *testing.T, rows ...string) *Board {
	t.Helper()
	b, err := NewBoard(len(rows))
	require.NoError(t, err)
	for r, row := range rows {
		require.Len(t, row, len(rows), "row %d", r)
		for c, char := range row {
			color, ok := ParseColor(char)
			require.True(t, ok, "rune %q", char)
			require.NoError(t, b.Set(r, c, color))
		}
	}
	return b
}
