package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var markerColors = []string{"#800026", "#BD0026", "#E31A1C", "#FC4E2A", "#FD8D3C", "#FFEDA0"}

func TestMarkerSize(t *testing.T) {
	tests := []struct {
		name      string
		magnitude float64
		expected  float64
	}{
		{"typical", 4.5, 112500},
		{"one", 1, 25000},
		{"zero", 0, 0},
		{"negative", -0.8, -20000},
		{"large", 9.1, 227500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MarkerSize(tt.magnitude), 1e-9)
		})
	}
}

func TestMarkerSize_ExactProduct(t *testing.T) {
	for _, m := range []float64{-3.3, 0.01, 2.7, 5.2, 7.77, 12} {
		assert.Equal(t, m*25000, MarkerSize(m))
	}
}

func TestColorForDepth(t *testing.T) {
	tests := []struct {
		name     string
		depth    float64
		expected string
	}{
		{"deep", 650, "#800026"},
		{"exactly 90", 90, "#800026"},
		{"just under 90", 89.999, "#BD0026"},
		{"exactly 70", 70, "#BD0026"},
		{"just under 70", 69.999, "#E31A1C"},
		{"exactly 50", 50, "#E31A1C"},
		{"exactly 30", 30, "#FC4E2A"},
		{"mid band", 35, "#FC4E2A"},
		{"exactly 10", 10, "#FD8D3C"},
		{"just under 10", 9.999, "#FFEDA0"},
		{"surface", 0, "#FFEDA0"},
		{"above sea level", -10, "#FFEDA0"},
		{"positive infinity", math.Inf(1), "#800026"},
		{"negative infinity", math.Inf(-1), "#FFEDA0"},
		{"NaN", math.NaN(), "#FFEDA0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ColorForDepth(tt.depth))
		})
	}
}

func TestColorForDepth_Total(t *testing.T) {
	for depth := -100.0; depth <= 800; depth += 0.5 {
		assert.Contains(t, markerColors, ColorForDepth(depth), "depth %v", depth)
	}
}

func TestColorForDepth_Idempotent(t *testing.T) {
	for _, d := range []float64{-5, 10, 42.4, 90} {
		first := ColorForDepth(d)
		for range 5 {
			assert.Equal(t, first, ColorForDepth(d))
		}
	}
}

func TestNewMarker(t *testing.T) {
	q := Quake{
		ID:        "us7000test",
		Magnitude: 5.2,
		Depth:     35,
		Lat:       38.1,
		Lon:       -122.3,
		Place:     "5 km N of Somewhere, CA",
		Time:      time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC),
	}

	m := NewMarker(q)

	assert.Equal(t, "us7000test", m.ID)
	assert.InDelta(t, 130000.0, m.Radius, 1e-6)
	assert.Equal(t, "#FC4E2A", m.FillColor)
	assert.Equal(t, 0.5, m.FillOpacity)
	assert.True(t, m.Stroke)
	assert.Equal(t, "black", m.Color)
	assert.Equal(t, 0.25, m.Weight)
	assert.Equal(t, 38.1, m.Lat)
	assert.Equal(t, -122.3, m.Lon)
	assert.Equal(t, q, m.Quake)
	assert.NotEmpty(t, m.Popup)
}

func TestPopupText(t *testing.T) {
	q := Quake{
		Magnitude: 2.35,
		Place:     "3 km <b>E</b> of Town & Co",
		Time:      time.Date(2024, time.March, 3, 12, 30, 0, 0, time.UTC),
		Depth:     -1.2,
	}

	popup := PopupText(q)

	assert.Contains(t, popup, "Magnitude: 2.35")
	assert.Contains(t, popup, "Location: 3 km &lt;b&gt;E&lt;/b&gt; of Town &amp; Co")
	assert.Contains(t, popup, "Date: Sun, 03 Mar 2024 12:30:00 UTC")
	assert.Contains(t, popup, "Depth: -1.2")
}

func TestLegend(t *testing.T) {
	legend := Legend()
	require.Len(t, legend, 6)

	labels := make([]string, 0, len(legend))
	colors := make([]string, 0, len(legend))
	for _, e := range legend {
		labels = append(labels, e.Label)
		colors = append(colors, e.Color)
	}

	assert.Equal(t, []string{"-10 - 10", "10 - 30", "30 - 50", "50 - 70", "70 - 90", "90 +"}, labels)
	assert.Equal(t, []string{"#FFEDA0", "#FD8D3C", "#FC4E2A", "#E31A1C", "#BD0026", "#800026"}, colors)

	require.NotNil(t, legend[0].To)
	assert.Equal(t, 10.0, *legend[0].To)
	assert.Nil(t, legend[5].To)
}
