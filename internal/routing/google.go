package routing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gmaps "googlemaps.github.io/maps"
)

// GoogleSegmenter is the primary Segmenter, backed by the Google Maps
// Distance Matrix API. Every call carries an explicit timeout; any
// failure — network error, non-OK element status, context deadline — is
// logged and handed to fallback rather than returned.
type GoogleSegmenter struct {
	client   *gmaps.Client
	fallback Segmenter
	timeout  time.Duration
	log      *slog.Logger
}

// NewGoogleSegmenter builds a GoogleSegmenter. fallback is used whenever
// the Google Maps call fails or times out; it is never nil in practice
// (cmd/planner-svc always wires a HaversineFallback).
func NewGoogleSegmenter(client *gmaps.Client, fallback Segmenter, timeout time.Duration, log *slog.Logger) *GoogleSegmenter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &GoogleSegmenter{client: client, fallback: fallback, timeout: timeout, log: log}
}

// Segment implements Segmenter. It never returns an error: provider
// failures fall through to fallback, which is itself infallible.
func (g *GoogleSegmenter) Segment(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (Segment, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	seg, err := g.segmentViaGoogle(callCtx, fromLat, fromLon, toLat, toLon)
	if err != nil {
		g.log.WarnContext(ctx, "routing segment fell back to haversine estimate",
			"error", err,
			"from_lat", fromLat, "from_lon", fromLon,
			"to_lat", toLat, "to_lon", toLon,
		)
		return g.fallback.Segment(ctx, fromLat, fromLon, toLat, toLon)
	}

	return seg, nil
}

func (g *GoogleSegmenter) segmentViaGoogle(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (Segment, error) {
	req := &gmaps.DistanceMatrixRequest{
		Origins:      []string{fmt.Sprintf("%f,%f", fromLat, fromLon)},
		Destinations: []string{fmt.Sprintf("%f,%f", toLat, toLon)},
		Mode:         gmaps.TravelModeDriving,
		Units:        gmaps.UnitsMetric,
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		return Segment{}, fmt.Errorf("distance matrix request: %w", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return Segment{}, fmt.Errorf("no route found")
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return Segment{}, fmt.Errorf("route element status: %s", element.Status)
	}

	return Segment{
		DistanceKm:  float64(element.Distance.Meters) / 1000.0,
		DurationMin: element.Duration.Minutes(),
		Source:      "google",
	}, nil
}
