package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardTable(t *testing.T) {
	tests := []struct {
		code  Code
		year  int
		label string
	}{
		{"小1", 1, "小一"},
		{"小2", 2, "小二"},
		{"小3", 3, "小三"},
		{"小4", 4, "小四"},
		{"小5", 5, "小五"},
		{"小6", 6, "小六"},
		{"中1", 7, "中一"},
		{"中2", 8, "中二"},
		{"中3", 9, "中三"},
	}

	table := Standard()
	require.Len(t, table.Codes(), len(tests))

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			g, ok := table.Lookup(tt.code)
			require.True(t, ok)
			assert.Equal(t, tt.year, g.Year)
			assert.Equal(t, tt.label, g.Label)

			year, ok := table.Year(tt.code)
			assert.True(t, ok)
			assert.Equal(t, tt.year, year)

			label, ok := table.Label(tt.code)
			assert.True(t, ok)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestLookupMiss(t *testing.T) {
	table := Standard()

	for _, code := range []string{"", "小7", "高1", "小１", " 小1"} {
		_, ok := table.Lookup(code)
		assert.False(t, ok, "code %q", code)

		year, ok := table.Year(code)
		assert.False(t, ok)
		assert.Zero(t, year)
	}
}

func TestIsEntry(t *testing.T) {
	assert.True(t, IsEntry("小1"))
	for _, code := range Standard().Codes()[1:] {
		assert.False(t, IsEntry(code), code)
	}
	assert.False(t, IsEntry("小１"))
}

func TestNewTableIgnoresDuplicates(t *testing.T) {
	table := NewTable(
		Grade{Code: "A", Year: 1, Label: "a"},
		Grade{Code: "A", Year: 2, Label: "b"},
	)

	g, ok := table.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, 1, g.Year)
	assert.Equal(t, []Code{"A"}, table.Codes())
}
