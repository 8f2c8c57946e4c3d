package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"time"

	gmaps "googlemaps.github.io/maps"

	"dayplanner/internal/geo"
	"dayplanner/pkg/cache"
	"dayplanner/pkg/metrics"
)

// SecondaryPlaces is the commercial-places adapter (Google Places Nearby
// Search) used by resolver Tier B. Unlike PrimaryGeocoder it relies on the
// provider's own server-side rate limiting rather than a client-side
// gate. Results are distance-ranked and post-filtered to a maximum radius
// in miles, since Places' radius parameter is meters-based and occasionally
// over-returns.
type SecondaryPlaces struct {
	client   *gmaps.Client
	store    cache.Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

// NewSecondaryPlaces builds a SecondaryPlaces adapter.
func NewSecondaryPlaces(client *gmaps.Client, store cache.Cache, cacheTTL time.Duration, log *slog.Logger) *SecondaryPlaces {
	if log == nil {
		log = slog.Default()
	}
	return &SecondaryPlaces{client: client, store: store, cacheTTL: cacheTTL, log: log}
}

// Geocode implements Searcher using the Places text-search endpoint.
func (s *SecondaryPlaces) Geocode(ctx context.Context, text string) ([]Candidate, error) {
	return s.GeocodeMulti(ctx, text, 1, Bias{})
}

// GeocodeMulti implements Searcher.
func (s *SecondaryPlaces) GeocodeMulti(ctx context.Context, text string, limit int, bias Bias) ([]Candidate, error) {
	key := cache.AdapterKey("secondary_places", "geocode", text, strconv.Itoa(limit))
	if cands, ok := s.fromCache(ctx, key); ok {
		metrics.Get().RecordProviderCache("secondary_places", true)
		return limitCandidates(cands, limit), nil
	}
	metrics.Get().RecordProviderCache("secondary_places", false)

	req := &gmaps.TextSearchRequest{Query: text}
	resp, err := s.client.TextSearch(ctx, req)
	metrics.Get().RecordProviderRequest("secondary_places", err == nil)
	if err != nil {
		s.log.WarnContext(ctx, "secondary places text search failed, returning no results", "error", err, "query", text)
		return nil, nil
	}

	cands := placesToCandidates(resp.Results)
	if bias.Present {
		sortByDistance(cands, bias.Lat, bias.Lon)
	}
	s.toCache(ctx, key, cands)

	return limitCandidates(cands, limit), nil
}

// SearchNearby implements Searcher using the Places Nearby Search
// endpoint, ranked by distance and post-filtered to radiusKm.
func (s *SecondaryPlaces) SearchNearby(ctx context.Context, query string, centerLat, centerLon, radiusKm float64, limit int) ([]Candidate, error) {
	key := cache.AdapterKey("secondary_places", "nearby", query,
		strconv.FormatFloat(centerLat, 'f', 4, 64), strconv.FormatFloat(centerLon, 'f', 4, 64),
		strconv.FormatFloat(radiusKm, 'f', 1, 64), strconv.Itoa(limit))

	if cands, ok := s.fromCache(ctx, key); ok {
		metrics.Get().RecordProviderCache("secondary_places", true)
		return filterByRadius(limitCandidates(cands, limit), centerLat, centerLon, radiusKm), nil
	}
	metrics.Get().RecordProviderCache("secondary_places", false)

	req := &gmaps.NearbySearchRequest{
		Location: &gmaps.LatLng{Lat: centerLat, Lng: centerLon},
		Keyword:  query,
		RankBy:   gmaps.RankByDistance,
	}
	resp, err := s.client.NearbySearch(ctx, req)
	metrics.Get().RecordProviderRequest("secondary_places", err == nil)
	if err != nil {
		s.log.WarnContext(ctx, "secondary places nearby search failed, returning no results", "error", err, "query", query)
		return nil, nil
	}

	cands := placesToCandidates(resp.Results)
	s.toCache(ctx, key, cands)

	filtered := filterByRadius(cands, centerLat, centerLon, radiusKm)
	return limitCandidates(filtered, limit), nil
}

func (s *SecondaryPlaces) fromCache(ctx context.Context, key string) ([]Candidate, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var cands []Candidate
	if err := json.Unmarshal(raw, &cands); err != nil {
		return nil, false
	}
	return cands, true
}

func (s *SecondaryPlaces) toCache(ctx context.Context, key string, cands []Candidate) {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(cands)
	if err != nil {
		return
	}
	_ = s.store.Set(ctx, key, raw, s.cacheTTL)
}

func placesToCandidates(results []gmaps.PlacesSearchResult) []Candidate {
	cands := make([]Candidate, 0, len(results))
	for _, r := range results {
		cands = append(cands, Candidate{
			Name:       r.Name,
			Address:    r.FormattedAddress,
			Lat:        r.Geometry.Location.Lat,
			Lon:        r.Geometry.Location.Lng,
			Precision:  0,
			Importance: r.Rating,
			Source:     "secondary_places",
		})
	}
	return cands
}

func sortByDistance(cands []Candidate, lat, lon float64) {
	sort.SliceStable(cands, func(i, j int) bool {
		return geo.Haversine(lat, lon, cands[i].Lat, cands[i].Lon) < geo.Haversine(lat, lon, cands[j].Lat, cands[j].Lon)
	})
}

// filterByRadius drops candidates beyond radiusKm (compared in miles against
// each candidate's haversine distance) of the search center, a client-side
// correction for providers whose own radius filtering is approximate.
func filterByRadius(cands []Candidate, centerLat, centerLon, radiusKm float64) []Candidate {
	maxMi := geo.KmToMi(radiusKm)
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		distKm := geo.Haversine(centerLat, centerLon, c.Lat, c.Lon)
		if geo.KmToMi(distKm) <= maxMi {
			out = append(out, c)
		}
	}
	return out
}
