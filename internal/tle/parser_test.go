package tle

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "SAT %d\n%s\n%s\n", i, issLine1, issLine2)
	}
	return b.String()
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		max   int
		count int
	}{
		{"empty", "", 0, 0},
		{"whitespace only", "\n   \n\t\n", 0, 0},
		{"one record", catalogText(1), 0, 1},
		{"five records", catalogText(5), 0, 5},
		{"trailing name only", catalogText(2) + "LONELY\n", 0, 2},
		{"trailing name and line1", catalogText(2) + "LONELY\n" + issLine1 + "\n", 0, 2},
		{"capped", catalogText(10), 3, 3},
		{"cap larger than input", catalogText(2), 1000, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text, tt.max)
			assert.Len(t, got, tt.count)
			for _, r := range got {
				assert.NotEmpty(t, r.Name)
				assert.NotEmpty(t, r.Line1)
				assert.NotEmpty(t, r.Line2)
			}
		})
	}
}

func TestParse_KeepsMostRecent(t *testing.T) {
	got := Parse(catalogText(10), 3)
	require.Len(t, got, 3)
	assert.Equal(t, "SAT 7", got[0].Name)
	assert.Equal(t, "SAT 9", got[2].Name)
}

func TestParse_BlankLinesAndCRLF(t *testing.T) {
	text := "\r\nISS (ZARYA)\r\n\r\n" + issLine1 + "\r\n   " + issLine2 + "   \r\n\r\n"
	got := Parse(text, 0)
	require.Len(t, got, 1)
	assert.Equal(t, issRecord(), got[0])
}

func TestParseElementSet(t *testing.T) {
	rec, ok := ParseElementSet(issLine1+"\n"+issLine2+"\n", "MANEUVERED")
	require.True(t, ok)
	assert.Equal(t, "MANEUVERED", rec.Name)
	assert.Equal(t, issLine1, rec.Line1)

	rec, ok = ParseElementSet("ISS (ZARYA)\n"+issLine1+"\n"+issLine2, "ignored")
	require.True(t, ok)
	assert.Equal(t, "ISS (ZARYA)", rec.Name)

	_, ok = ParseElementSet(issLine1, "x")
	assert.False(t, ok)
}

func TestSplitValid(t *testing.T) {
	records := []Record{
		issRecord(),
		{Name: "BAD", Line1: "1 nope", Line2: "2 nope"},
		issRecord(),
	}
	valid, dropped := SplitValid(records)
	assert.Len(t, valid, 2)
	assert.Equal(t, 1, dropped)
}
