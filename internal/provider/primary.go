package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"dayplanner/internal/geo"
	"dayplanner/pkg/cache"
	"dayplanner/pkg/metrics"
)

// PrimaryGeocoder is a Nominatim-style free-form geocoder. It enforces a
// single in-process rate limit (one request per RateLimit interval, gated
// by a mutex-guarded monotonic timestamp per spec §5 — not a generic
// sliding-window limiter) and always identifies itself with a fixed
// User-Agent, since Nominatim's usage policy requires one.
type PrimaryGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	store     cache.Cache
	cacheTTL  time.Duration
	log       *slog.Logger

	mu       sync.Mutex
	lastCall time.Time
	minGap   time.Duration
}

// NewPrimaryGeocoder builds a PrimaryGeocoder.
func NewPrimaryGeocoder(baseURL, userAgent string, rateLimit, timeout time.Duration, store cache.Cache, cacheTTL time.Duration, log *slog.Logger) *PrimaryGeocoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if rateLimit <= 0 {
		rateLimit = time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &PrimaryGeocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		store:     store,
		cacheTTL:  cacheTTL,
		log:       log,
		minGap:    rateLimit,
	}
}

type nominatimResult struct {
	PlaceID     int64   `json:"place_id"`
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
	PlaceRank   int     `json:"place_rank"`
	Importance  float64 `json:"importance"`
	Address     struct {
		Road        string `json:"road"`
		HouseNumber string `json:"house_number"`
		City        string `json:"city"`
		Town        string `json:"town"`
		State       string `json:"state"`
		Country     string `json:"country"`
	} `json:"address"`
}

// Geocode implements Searcher.
func (p *PrimaryGeocoder) Geocode(ctx context.Context, text string) ([]Candidate, error) {
	return p.GeocodeMulti(ctx, text, 1, Bias{})
}

// GeocodeMulti implements Searcher.
func (p *PrimaryGeocoder) GeocodeMulti(ctx context.Context, text string, limit int, bias Bias) ([]Candidate, error) {
	key := cache.AdapterKey("primary_geocoder", "geocode", text, strconv.Itoa(limit))
	if cands, ok := p.fromCache(ctx, key); ok {
		metrics.Get().RecordProviderCache("primary_geocoder", true)
		return limitCandidates(cands, limit), nil
	}
	metrics.Get().RecordProviderCache("primary_geocoder", false)

	results, err := p.search(ctx, text, nil)
	metrics.Get().RecordProviderRequest("primary_geocoder", err == nil)
	if err != nil {
		p.log.WarnContext(ctx, "primary geocoder request failed, returning no results", "error", err, "query", text)
		return nil, nil
	}

	cands := toCandidates(results, "primary_geocoder")
	sortCandidates(cands, bias)
	p.toCache(ctx, key, cands)

	return limitCandidates(cands, limit), nil
}

// SearchNearby implements Searcher, bounding the Nominatim query to a
// viewport around (centerLat, centerLon).
func (p *PrimaryGeocoder) SearchNearby(ctx context.Context, query string, centerLat, centerLon, radiusKm float64, limit int) ([]Candidate, error) {
	box := geo.Bounds(centerLat, centerLon, radiusKm)
	key := cache.AdapterKey("primary_geocoder", "nearby", query,
		strconv.FormatFloat(centerLat, 'f', 4, 64), strconv.FormatFloat(centerLon, 'f', 4, 64),
		strconv.FormatFloat(radiusKm, 'f', 1, 64), strconv.Itoa(limit))

	if cands, ok := p.fromCache(ctx, key); ok {
		metrics.Get().RecordProviderCache("primary_geocoder", true)
		return limitCandidates(cands, limit), nil
	}
	metrics.Get().RecordProviderCache("primary_geocoder", false)

	results, err := p.search(ctx, query, &box)
	metrics.Get().RecordProviderRequest("primary_geocoder", err == nil)
	if err != nil {
		p.log.WarnContext(ctx, "primary geocoder nearby search failed, returning no results", "error", err, "query", query)
		return nil, nil
	}

	cands := toCandidates(results, "primary_geocoder")
	sortCandidates(cands, Bias{Lat: centerLat, Lon: centerLon, Present: true})
	p.toCache(ctx, key, cands)

	return limitCandidates(cands, limit), nil
}

func (p *PrimaryGeocoder) fromCache(ctx context.Context, key string) ([]Candidate, bool) {
	if p.store == nil {
		return nil, false
	}
	raw, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var cands []Candidate
	if err := json.Unmarshal(raw, &cands); err != nil {
		return nil, false
	}
	return cands, true
}

func (p *PrimaryGeocoder) toCache(ctx context.Context, key string, cands []Candidate) {
	if p.store == nil {
		return
	}
	raw, err := json.Marshal(cands)
	if err != nil {
		return
	}
	_ = p.store.Set(ctx, key, raw, p.cacheTTL)
}

// search issues the rate-limited HTTP request against Nominatim's /search
// endpoint, optionally bounded to a viewport.
func (p *PrimaryGeocoder) search(ctx context.Context, query string, box *geo.BoundingBox) ([]nominatimResult, error) {
	p.waitForSlot()

	reqURL, err := url.Parse(p.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	q := reqURL.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", "10")
	if box != nil {
		q.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", box.MinLon, box.MaxLat, box.MaxLon, box.MinLat))
		q.Set("bounded", "1")
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return results, nil
}

// waitForSlot blocks until at least minGap has elapsed since the previous
// call, enforcing Nominatim's one-request-per-second usage policy with a
// single mutex-guarded monotonic timestamp.
func (p *PrimaryGeocoder) waitForSlot() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.lastCall)
	if elapsed < p.minGap {
		time.Sleep(p.minGap - elapsed)
	}
	p.lastCall = time.Now()
}

func toCandidates(results []nominatimResult, source string) []Candidate {
	cands := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}

		name := r.Address.Road
		if name == "" {
			name = r.DisplayName
		}

		cands = append(cands, Candidate{
			Name:       name,
			Address:    r.DisplayName,
			Lat:        lat,
			Lon:        lon,
			Precision:  r.PlaceRank,
			Importance: r.Importance,
			Country:    r.Address.Country,
			Source:     source,
		})
	}
	return cands
}

// sortCandidates orders by precision ascending, importance descending,
// then (if bias is present) distance-to-bias ascending.
func sortCandidates(cands []Candidate, bias Bias) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Precision != b.Precision {
			return a.Precision < b.Precision
		}
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if bias.Present {
			da := geo.Haversine(bias.Lat, bias.Lon, a.Lat, a.Lon)
			db := geo.Haversine(bias.Lat, bias.Lon, b.Lat, b.Lon)
			return da < db
		}
		return false
	})
}

func limitCandidates(cands []Candidate, limit int) []Candidate {
	if limit <= 0 || limit >= len(cands) {
		return cands
	}
	return cands[:limit]
}
