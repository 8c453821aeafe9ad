package tle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func issRecord() Record {
	return Record{Name: "ISS (ZARYA)", Line1: issLine1, Line2: issLine2}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid", issRecord(), false},
		{"short lines", Record{Name: "X", Line1: "1 25544U", Line2: "2 25544"}, true},
		{"swapped lines", Record{Name: "X", Line1: issLine2, Line2: issLine1}, true},
		{"garbage mean motion", Record{Name: "X", Line1: issLine1, Line2: issLine2[:52] + "abcdefghijk" + issLine2[63:]}, true},
		{"zero mean motion", Record{Name: "X", Line1: issLine1, Line2: issLine2[:52] + " 0.00000000" + issLine2[63:]}, true},
		{"checksum not enforced", Record{Name: "X", Line1: issLine1[:68] + "0", Line2: issLine2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordMeanMotionAndPeriod(t *testing.T) {
	rec := issRecord()

	n, ok := rec.MeanMotion()
	require.True(t, ok)
	assert.InDelta(t, 15.72125391, n, 1e-9)

	p, ok := rec.Period()
	require.True(t, ok)
	assert.InDelta(t, 91.6, p.Minutes(), 0.1)
}

func TestRecordEpoch(t *testing.T) {
	epoch, ok := issRecord().Epoch()
	require.True(t, ok)
	assert.Equal(t, 2008, epoch.Year())
	assert.Equal(t, time.September, epoch.Month())
	assert.Equal(t, 20, epoch.Day())
	assert.Equal(t, 12, epoch.Hour())

	_, ok = Record{Line1: "1 2"}.Epoch()
	assert.False(t, ok)
}

func TestRecordCatalogNumber(t *testing.T) {
	assert.Equal(t, "25544", issRecord().CatalogNumber())
	assert.Equal(t, "", Record{Line1: "1"}.CatalogNumber())
}

func TestRecordKeyIgnoresName(t *testing.T) {
	a := issRecord()
	b := issRecord()
	b.Name = "SOMETHING ELSE"
	assert.Equal(t, a.Key(), b.Key())
}
