package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/store"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxLimit caps a single listing.
const maxLimit = 5000

// MarkerLister reads markers from the current snapshot.
type MarkerLister interface {
	List(ctx context.Context, f store.Filter) ([]domain.Marker, error)
}

// Server exposes the marker API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	markers    MarkerLister
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api routes backed by markers.
func NewServer(addr string, ready sharedobs.ReadinessChecker, markers MarkerLister, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		markers: markers,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/markers", s.handleMarkers)
	mux.HandleFunc("GET /api/markers.geojson", s.handleMarkersGeoJSON)
	mux.HandleFunc("GET /api/legend", handleLegend)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	markers, ok := s.list(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, markers)
}

func (s *Server) handleMarkersGeoJSON(w http.ResponseWriter, r *http.Request) {
	markers, ok := s.list(w, r)
	if !ok {
		return
	}

	body, err := FeatureCollection(markers).MarshalJSON()
	if err != nil {
		s.logger.Error("encode geojson", "error", err)
		writeError(w, http.StatusInternalServerError, "encode geojson")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func handleLegend(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, domain.Legend())
}

// list parses the query, reads the snapshot, and writes any error response.
func (s *Server) list(w http.ResponseWriter, r *http.Request) ([]domain.Marker, bool) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	markers, err := s.markers.List(r.Context(), f)
	if err != nil {
		s.logger.Error("list markers", "error", err)
		writeError(w, http.StatusInternalServerError, "snapshot unavailable")
		return nil, false
	}
	return markers, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}

var errBadQuery = errors.New("invalid query")

// ParseFilter reads minmag, bbox (minLon,minLat,maxLon,maxLat) and limit.
func ParseFilter(q url.Values) (store.Filter, error) {
	var f store.Filter

	if v := strings.TrimSpace(q.Get("minmag")); v != "" {
		m, err := parseFinite(v)
		if err != nil {
			return f, fmt.Errorf("%w: minmag %q", errBadQuery, v)
		}
		f.MinMagnitude = &m
	}

	if v := strings.TrimSpace(q.Get("bbox")); v != "" {
		b, err := parseBound(v)
		if err != nil {
			return f, err
		}
		f.Bound = &b
	}

	f.Limit = maxLimit
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("%w: limit must be a positive integer", errBadQuery)
		}
		f.Limit = min(n, maxLimit)
	}

	return f, nil
}

func parseBound(v string) (orb.Bound, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: bbox needs minLon,minLat,maxLon,maxLat", errBadQuery)
	}
	var vals [4]float64
	for i, p := range parts {
		n, err := parseFinite(strings.TrimSpace(p))
		if err != nil {
			return orb.Bound{}, fmt.Errorf("%w: bbox value %q", errBadQuery, p)
		}
		vals[i] = n
	}
	b := orb.Bound{
		Min: orb.Point{vals[0], vals[1]},
		Max: orb.Point{vals[2], vals[3]},
	}
	if b.Min.Lon() > b.Max.Lon() || b.Min.Lat() > b.Max.Lat() {
		return orb.Bound{}, fmt.Errorf("%w: bbox min exceeds max", errBadQuery)
	}
	if b.Min.Lat() < -90 || b.Max.Lat() > 90 || b.Min.Lon() < -180 || b.Max.Lon() > 180 {
		return orb.Bound{}, fmt.Errorf("%w: bbox out of range", errBadQuery)
	}
	return b, nil
}

func parseFinite(v string) (float64, error) {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errors.New("not finite")
	}
	return n, nil
}

// FeatureCollection renders markers as GeoJSON points carrying their style
// and quake attributes as properties.
func FeatureCollection(markers []domain.Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(orb.Point{m.Lon, m.Lat})
		f.ID = m.ID
		f.Properties = geojson.Properties{
			"radius":      m.Radius,
			"fillColor":   m.FillColor,
			"fillOpacity": m.FillOpacity,
			"stroke":      m.Stroke,
			"color":       m.Color,
			"weight":      m.Weight,
			"popup":       m.Popup,
			"mag":         m.Quake.Magnitude,
			"place":       m.Quake.Place,
			"depth":       m.Quake.Depth,
			"time":        m.Quake.Time.UnixMilli(),
			"type":        m.Quake.EventType,
			"url":         m.Quake.URL,
		}
		fc.Append(f)
	}
	return fc
}
