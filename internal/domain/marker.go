package domain

import (
	"fmt"
	"html"
	"strconv"
	"time"
)

// Fixed marker styling.
const (
	RadiusPerMagnitude = 25000
	FillOpacity        = 0.5
	StrokeColor        = "black"
	StrokeWeight       = 0.25
)

// depthBand pairs a lower depth bound (km, inclusive) with its fill color.
type depthBand struct {
	min   float64
	color string
}

// depthBands is ordered deepest first; the first band whose min is <= depth wins.
var depthBands = []depthBand{
	{90, "#800026"},
	{70, "#BD0026"},
	{50, "#E31A1C"},
	{30, "#FC4E2A"},
	{10, "#FD8D3C"},
}

// ShallowColor is used for every depth below the shallowest threshold.
const ShallowColor = "#FFEDA0"

// legendStops are the lower bounds shown in the depth legend.
var legendStops = []float64{-10, 10, 30, 50, 70, 90}

// MarkerSize returns the circle radius for a magnitude. Non-positive magnitudes
// yield non-positive radii; callers filter upstream if they care.
func MarkerSize(magnitude float64) float64 {
	return magnitude * RadiusPerMagnitude
}

// ColorForDepth returns the fill color for a depth in kilometers.
func ColorForDepth(depth float64) string {
	for _, b := range depthBands {
		if depth >= b.min {
			return b.color
		}
	}
	return ShallowColor
}

// NewMarker builds the marker descriptor for a quake.
func NewMarker(q Quake) Marker {
	return Marker{
		ID:          q.ID,
		Lat:         q.Lat,
		Lon:         q.Lon,
		Radius:      MarkerSize(q.Magnitude),
		FillColor:   ColorForDepth(q.Depth),
		FillOpacity: FillOpacity,
		Stroke:      true,
		Color:       StrokeColor,
		Weight:      StrokeWeight,
		Popup:       PopupText(q),
		Quake:       q,
	}
}

// PopupText renders the HTML popup body shown when a marker is clicked.
func PopupText(q Quake) string {
	return fmt.Sprintf(
		"<h3> Magnitude: %s<br> Location: %s</h3><hr><p><b> Date: %s<br>Depth: %s</b></p>",
		formatNumber(q.Magnitude),
		html.EscapeString(q.Place),
		q.Time.UTC().Format(time.RFC1123),
		formatNumber(q.Depth),
	)
}

// LegendEntry describes one depth band of the map legend. To is nil for the
// open-ended deepest band.
type LegendEntry struct {
	From  float64  `json:"from"`
	To    *float64 `json:"to,omitempty"`
	Color string   `json:"color"`
	Label string   `json:"label"`
}

// Legend returns the depth legend, shallowest band first.
func Legend() []LegendEntry {
	entries := make([]LegendEntry, 0, len(legendStops))
	for i, from := range legendStops {
		e := LegendEntry{
			From:  from,
			Color: ColorForDepth(from + 1),
		}
		if i+1 < len(legendStops) {
			to := legendStops[i+1]
			e.To = &to
			e.Label = formatNumber(from) + " - " + formatNumber(to)
		} else {
			e.Label = formatNumber(from) + " +"
		}
		entries = append(entries, e)
	}
	return entries
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
