// Package domain models USGS earthquake feed records and the circle markers
// derived from them.
//
// # Data Source
//
// Records come from the USGS Earthquake Hazards Program GeoJSON summary feeds,
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/geojson.php. The default
// feed is "all_week" (every magnitude, past seven days), regenerated by USGS
// about once a minute.
//
// # Feed Conventions
//
// Geometry:
//
//	A Point with three coordinates: [longitude, latitude, depth].
//	Depth is in kilometers and may be negative for events above sea level
//	(e.g. shallow volcanic events under high terrain).
//
// Properties used:
//
//	mag      magnitude, may be null for events still being reviewed
//	place    human-readable region, e.g. "10 km SSW of Idyllwild, CA"
//	time     origin time, milliseconds since the Unix epoch (UTC)
//	updated  last modification time, milliseconds since the Unix epoch
//	url      USGS event page
//	type     "earthquake", "quarry blast", "explosion", ...
//
// Records with a null magnitude or a geometry without depth are rejected by
// [ParseFeature] with [ErrInvalidFeature].
//
// # Marker Mapping
//
// Marker size and color are deliberately driven by different fields:
//
//	radius    = magnitude × 25000 (meters on the map)
//	fillColor = depth band, evaluated highest threshold first:
//
//	  ≥ 90 km  #800026
//	  ≥ 70 km  #BD0026
//	  ≥ 50 km  #E31A1C
//	  ≥ 30 km  #FC4E2A
//	  ≥ 10 km  #FD8D3C
//	  else     #FFEDA0
//
// Boundary depths take the deeper band. See [MarkerSize] and [ColorForDepth].
//
// # ID Generation
//
// The USGS feature id (e.g. "us7000abcd") is used as-is. Features without one
// get a deterministic SHA-256 prefix of place|time|lon|lat|depth so replays
// produce the same key. See [generateID].
package domain
