package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoundary(t *testing.T) {
	// Roughly 100m x 100m near the equator.
	raw := []byte(`{"type":"Polygon","coordinates":[[[0,0],[0.0009,0],[0.0009,0.0009],[0,0.0009],[0,0]]]}`)
	poly, err := ParseBoundary(raw)
	require.NoError(t, err)
	assert.InDelta(t, 10000, AreaSquareMeters(poly), 200)
}

func TestParseBoundaryClosesRing(t *testing.T) {
	raw := []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1]]]}`)
	poly, err := ParseBoundary(raw)
	require.NoError(t, err)
	assert.True(t, poly[0].Closed())
	assert.Len(t, poly[0], 4)
}

func TestParseBoundaryRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `nope`},
		{"point", `{"type":"Point","coordinates":[1,2]}`},
		{"too few points", `{"type":"Polygon","coordinates":[[[0,0],[1,1]]]}`},
		{"latitude out of range", `{"type":"Polygon","coordinates":[[[0,0],[1,95],[2,0],[0,0]]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBoundary([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}
