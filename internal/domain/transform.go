package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
)

// ErrInvalidFeature marks a feature that cannot be turned into a Quake.
var ErrInvalidFeature = errors.New("invalid feature")

type wireFeed struct {
	Type     string        `json:"type"`
	Metadata FeedMetadata  `json:"metadata"`
	Features []wireFeature `json:"features"`
}

type wireFeature struct {
	ID         string             `json:"id"`
	Properties geojson.Properties `json:"properties"`
	Geometry   *wireGeometry      `json:"geometry"`
}

type wireGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// DecodeFeed reads a USGS GeoJSON FeatureCollection.
func DecodeFeed(r io.Reader) (Feed, error) {
	var wf wireFeed
	if err := json.NewDecoder(r).Decode(&wf); err != nil {
		return Feed{}, fmt.Errorf("decode feed: %w", err)
	}
	if wf.Type != "FeatureCollection" {
		return Feed{}, fmt.Errorf("decode feed: unexpected type %q", wf.Type)
	}

	features := make([]RawFeature, 0, len(wf.Features))
	for _, f := range wf.Features {
		rf := RawFeature{ID: f.ID, Properties: f.Properties}
		if f.Geometry != nil {
			rf.GeometryType = f.Geometry.Type
			if rf.GeometryType == "Point" {
				coords, err := pointCoordinates(f.Geometry.Coordinates)
				if err != nil {
					rf.GeometryError = err.Error()
				}
				rf.Coordinates = coords
			}
		}
		features = append(features, rf)
	}
	return Feed{Metadata: wf.Metadata, Features: features}, nil
}

// pointCoordinates decodes a Point's position. Nested arrays and null
// entries are reported rather than failing the whole feed.
func pointCoordinates(raw json.RawMessage) ([]float64, error) {
	var vals []*float64
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, errors.New("coordinates are not a flat number array")
	}
	coords := make([]float64, 0, len(vals))
	for i, v := range vals {
		if v == nil {
			return nil, fmt.Errorf("coordinate %d is null", i)
		}
		coords = append(coords, *v)
	}
	return coords, nil
}

// ParseFeature converts a raw feed feature into a Quake. Magnitude, origin time,
// and a three-dimensional point geometry are required.
func ParseFeature(raw RawEvent) (Quake, error) {
	f := raw.Feature
	if f.GeometryType != "Point" {
		return Quake{}, fmt.Errorf("%w: geometry type %q", ErrInvalidFeature, f.GeometryType)
	}
	if f.GeometryError != "" {
		return Quake{}, fmt.Errorf("%w: %s", ErrInvalidFeature, f.GeometryError)
	}
	if len(f.Coordinates) < 3 {
		return Quake{}, fmt.Errorf("%w: point has %d coordinates, need lon,lat,depth", ErrInvalidFeature, len(f.Coordinates))
	}

	mag, ok := numberProperty(f.Properties, "mag")
	if !ok {
		return Quake{}, fmt.Errorf("%w: missing magnitude", ErrInvalidFeature)
	}
	originMs, ok := numberProperty(f.Properties, "time")
	if !ok {
		return Quake{}, fmt.Errorf("%w: missing time", ErrInvalidFeature)
	}

	q := Quake{
		Magnitude: mag,
		Place:     f.Properties.MustString("place", ""),
		Time:      time.UnixMilli(int64(originMs)).UTC(),
		Lon:       f.Coordinates[0],
		Lat:       f.Coordinates[1],
		Depth:     f.Coordinates[2],
		EventType: f.Properties.MustString("type", ""),
		URL:       f.Properties.MustString("url", ""),
	}
	if updatedMs, ok := numberProperty(f.Properties, "updated"); ok {
		q.Updated = time.UnixMilli(int64(updatedMs)).UTC()
	}

	q.ID = f.ID
	if q.ID == "" {
		q.ID = generateID(q.Place, originMs, q.Lon, q.Lat, q.Depth)
	}
	return q, nil
}

// numberProperty returns a numeric property. JSON null and absent keys report false.
func numberProperty(p geojson.Properties, key string) (float64, bool) {
	v, ok := p[key].(float64)
	return v, ok
}

// generateID produces a deterministic ID for features the feed left unnamed.
func generateID(place string, originMs, lon, lat, depth float64) string {
	input := fmt.Sprintf("%s|%.0f|%.4f|%.4f|%.2f", place, originMs, lon, lat, depth)
	hash := sha256.Sum256([]byte(input))
	return "quake-" + hex.EncodeToString(hash[:8])
}

// EnrichQuake normalizes text fields and stamps the processing time.
func EnrichQuake(q Quake) Quake {
	q.Place = strings.TrimSpace(q.Place)
	q.EventType = strings.ToLower(strings.TrimSpace(q.EventType))
	if q.EventType == "" {
		q.EventType = "earthquake"
	}
	q.ProcessedAt = clock.Now().UTC()
	return q
}

// SerializeMarker marshals a marker for the sink topic.
func SerializeMarker(m Marker) (OutputEvent, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize marker: %w", err)
	}
	return OutputEvent{
		Key:   []byte(m.ID),
		Value: data,
		Headers: map[string]string{
			"event_type":   m.Quake.EventType,
			"depth_band":   m.FillColor,
			"processed_at": m.Quake.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
