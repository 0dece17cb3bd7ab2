package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
	"github.com/couchcryptid/quake-map-service/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type failingLister struct{}

func (failingLister) List(context.Context, store.Filter) ([]domain.Marker, error) {
	return nil, errors.New("redis down")
}

func seededSnapshot(t *testing.T) *store.Memory {
	t.Helper()
	s := store.NewMemory(7*24*time.Hour, observability.NewMetricsForTesting(),
		store.WithClock(clockwork.NewFakeClockAt(now)))
	quakes := []domain.Quake{
		{ID: "ci1", Magnitude: 1.1, Place: "5km N of Ridgecrest, CA", Depth: 3.2, Lat: 35.7, Lon: -117.6, Time: now.Add(-time.Hour), EventType: "earthquake"},
		{ID: "us2", Magnitude: 5.4, Place: "Fiji region", Depth: 560, Lat: -18.1, Lon: 178.2, Time: now.Add(-2 * time.Hour), EventType: "earthquake"},
		{ID: "ak3", Magnitude: 2.9, Place: "Alaska Peninsula", Depth: 45, Lat: 57.1, Lon: -156.4, Time: now.Add(-3 * time.Hour), EventType: "earthquake"},
	}
	markers := make([]domain.Marker, 0, len(quakes))
	for _, q := range quakes {
		markers = append(markers, domain.NewMarker(q))
	}
	require.NoError(t, s.LoadBatch(context.Background(), markers))
	return s
}

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, seededSnapshot(t), slog.Default())
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(t, nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(t, fmt.Errorf("pipeline not started")), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "pipeline not started", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(t, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMarkersListsNewestFirst(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/markers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var markers []domain.Marker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &markers))
	require.Len(t, markers, 3)
	assert.Equal(t, "ci1", markers[0].ID)
	assert.Equal(t, "#FFEDA0", markers[0].FillColor)
	assert.Equal(t, "#800026", markers[1].FillColor)
	assert.InDelta(t, 135000, markers[1].Radius, 1e-6)
	assert.Equal(t, 0.5, markers[1].FillOpacity)
	assert.Equal(t, "black", markers[1].Color)
}

func TestMarkersFilters(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"min magnitude", "minmag=2.5", []string{"us2", "ak3"}},
		{"bbox", "bbox=-170,50,-150,60", []string{"ak3"}},
		{"limit", "limit=2", []string{"ci1", "us2"}},
		{"combined", "minmag=2&bbox=-180,-90,0,90&limit=10", []string{"ak3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(srv, "/api/markers?"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var markers []domain.Marker
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &markers))
			got := make([]string, 0, len(markers))
			for _, m := range markers {
				got = append(got, m.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarkersRejectsBadQuery(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, q := range []string{
		"minmag=big",
		"minmag=NaN",
		"bbox=1,2,3",
		"bbox=10,0,-10,5",
		"bbox=0,-100,10,10",
		"limit=0",
		"limit=ten",
	} {
		t.Run(q, func(t *testing.T) {
			rec := get(srv, "/api/markers?"+q)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMarkersSnapshotFailure(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockReadiness{}, failingLister{}, slog.Default())

	rec := get(srv, "/api/markers")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis down")
}

func TestMarkersGeoJSON(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/markers.geojson?minmag=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "us2", f.ID)
	assert.Equal(t, orb.Point{178.2, -18.1}, f.Geometry)
	assert.Equal(t, "#800026", f.Properties.MustString("fillColor", ""))
	assert.InDelta(t, 135000, f.Properties.MustFloat64("radius", 0), 1e-9)
	assert.InDelta(t, 560, f.Properties.MustFloat64("depth", 0), 1e-9)
	assert.Equal(t, "Fiji region", f.Properties.MustString("place", ""))
}

func TestLegend(t *testing.T) {
	rec := get(newTestServer(t, nil), "/api/legend")
	require.Equal(t, http.StatusOK, rec.Code)

	var legend []domain.LegendEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &legend))
	assert.Equal(t, domain.Legend(), legend)
}

func TestParseFilterDefaultsLimit(t *testing.T) {
	f, err := httpadapter.ParseFilter(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, f.MinMagnitude)
	assert.Nil(t, f.Bound)
	assert.Equal(t, 5000, f.Limit)

	f, err = httpadapter.ParseFilter(url.Values{"limit": {"999999"}})
	require.NoError(t, err)
	assert.Equal(t, 5000, f.Limit)
}
