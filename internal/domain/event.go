package domain

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feed is a decoded USGS GeoJSON FeatureCollection.
type Feed struct {
	Metadata FeedMetadata
	Features []RawFeature
}

// FeedMetadata mirrors the "metadata" block USGS attaches to each feed.
type FeedMetadata struct {
	Generated int64  `json:"generated"` // ms since epoch
	URL       string `json:"url"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Count     int    `json:"count"`
}

// RawFeature is a single undecoded feature from the feed. Geometry is kept as
// the raw coordinate slice because orb.Point carries only two dimensions and
// depth lives in the third.
type RawFeature struct {
	ID            string             `json:"id"`
	Properties    geojson.Properties `json:"properties"`
	GeometryType  string             `json:"-"`
	Coordinates   []float64          `json:"-"`
	GeometryError string             `json:"-"` // set when a Point's coordinates could not be decoded
}

// RawEvent represents one feature extracted from a feed poll. Commit marks
// the feature as delivered so later polls skip it until USGS updates it.
type RawEvent struct {
	Feature   RawFeature
	FeedURL   string
	FetchedAt time.Time
	Commit    func(ctx context.Context) error
}

// Quake is the parsed earthquake record.
type Quake struct {
	ID          string    `json:"id"`
	Magnitude   float64   `json:"magnitude"`
	Place       string    `json:"place"`
	Time        time.Time `json:"time"`
	Updated     time.Time `json:"updated"`
	Depth       float64   `json:"depth"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	EventType   string    `json:"event_type,omitempty"`
	URL         string    `json:"url,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Point returns the epicenter as an orb point (lon, lat).
func (q Quake) Point() orb.Point {
	return orb.Point{q.Lon, q.Lat}
}

// Marker is a circle-marker descriptor ready for a map frontend.
type Marker struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Radius      float64 `json:"radius"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
	Stroke      bool    `json:"stroke"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Popup       string  `json:"popup"`
	Quake       Quake   `json:"event"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
