// Package provider implements the place-search adapters the resolver
// pipeline draws candidates from: a primary free-form geocoder, a
// commercial places API used as a secondary source, and a web-search
// fallback. All three speak the same Searcher interface and share one
// rule: a provider failure never propagates — it becomes an empty result
// set, logged at the call site.
package provider

import "context"

// Candidate is a single place returned by a Searcher, before any
// resolver-side scoring is applied.
type Candidate struct {
	Name       string
	Address    string
	Lat        float64
	Lon        float64
	Precision  int     // lower is more precise (provider-specific ranking, e.g. OSM "place_rank")
	Importance float64 // provider-reported prominence, higher is better
	Country    string
	Source     string // adapter name, e.g. "primary_geocoder"
}

// Bias optionally steers a multi-result geocode toward a location, used to
// break ties among similarly-named candidates.
type Bias struct {
	Lat     float64
	Lon     float64
	Present bool
}

// Searcher is the shared interface every place-search adapter implements.
// Implementations must never return an error for ordinary provider
// failure (timeout, non-200, empty result): they return a nil/empty slice
// and the caller logs internally (spec §7.2, "adapter failures never
// propagate").
type Searcher interface {
	// Geocode resolves free-form text to a single best candidate set
	// (implementations may return more than one; callers needing exactly
	// one should take index 0).
	Geocode(ctx context.Context, text string) ([]Candidate, error)

	// GeocodeMulti resolves free-form text to up to limit candidates,
	// sorted by precision ascending, then importance descending, then
	// (if bias is present) distance-to-bias ascending.
	GeocodeMulti(ctx context.Context, text string, limit int, bias Bias) ([]Candidate, error)

	// SearchNearby finds up to limit candidates matching query within
	// radiusKm of (centerLat, centerLon).
	SearchNearby(ctx context.Context, query string, centerLat, centerLon float64, radiusKm float64, limit int) ([]Candidate, error)
}
