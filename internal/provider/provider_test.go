package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dayplanner/pkg/cache"
)

func newMemCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.New(cache.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to create memory cache: %v", err)
	}
	return c
}

func TestPrimaryGeocoder_Geocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]nominatimResult{
			{PlaceID: 1, DisplayName: "123 Main St, Springfield, IL 62701", Lat: "39.78", Lon: "-89.65", PlaceRank: 30, Importance: 0.5},
		})
	}))
	defer srv.Close()

	g := NewPrimaryGeocoder(srv.URL, "dayplanner-test/1.0", time.Millisecond, time.Second, newMemCache(t), time.Minute, nil)

	cands, err := g.Geocode(context.Background(), "123 Main St, Springfield, IL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].Lat != 39.78 || cands[0].Lon != -89.65 {
		t.Errorf("unexpected coordinates: %+v", cands[0])
	}
}

func TestPrimaryGeocoder_ProviderFailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewPrimaryGeocoder(srv.URL, "dayplanner-test/1.0", time.Millisecond, time.Second, newMemCache(t), time.Minute, nil)

	cands, err := g.Geocode(context.Background(), "anything")
	if err != nil {
		t.Fatalf("adapter failures must not propagate as errors, got: %v", err)
	}
	if cands != nil {
		t.Errorf("expected nil candidates on failure, got %+v", cands)
	}
}

func TestPrimaryGeocoder_CachesResults(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]nominatimResult{
			{PlaceID: 1, DisplayName: "1 Test Way", Lat: "10", Lon: "20", PlaceRank: 20, Importance: 0.3},
		})
	}))
	defer srv.Close()

	store := newMemCache(t)
	g := NewPrimaryGeocoder(srv.URL, "dayplanner-test/1.0", time.Millisecond, time.Second, store, time.Minute, nil)

	ctx := context.Background()
	if _, err := g.Geocode(ctx, "same query"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.Geocode(ctx, "same query"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected exactly one HTTP call due to caching, got %d", calls)
	}
}

func TestPrimaryGeocoder_RateLimitsSequentialCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]nominatimResult{})
	}))
	defer srv.Close()

	gap := 30 * time.Millisecond
	g := NewPrimaryGeocoder(srv.URL, "dayplanner-test/1.0", gap, time.Second, newMemCache(t), time.Minute, nil)

	ctx := context.Background()
	start := time.Now()
	if _, err := g.Geocode(ctx, "query one"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.Geocode(ctx, "query two"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < gap {
		t.Errorf("expected rate limiter to enforce at least %v between distinct calls, took %v", gap, elapsed)
	}
}

func TestSortCandidates_PrecisionThenImportanceThenDistance(t *testing.T) {
	cands := []Candidate{
		{Name: "far but precise", Precision: 1, Importance: 0.1, Lat: 0, Lon: 0},
		{Name: "near, same precision, higher importance", Precision: 1, Importance: 0.9, Lat: 1, Lon: 1},
		{Name: "imprecise", Precision: 5, Importance: 0.9, Lat: 0, Lon: 0},
	}
	sortCandidates(cands, Bias{Lat: 1, Lon: 1, Present: true})

	if cands[0].Name != "near, same precision, higher importance" {
		t.Errorf("expected the higher-importance same-precision candidate first, got %s", cands[0].Name)
	}
	if cands[len(cands)-1].Name != "imprecise" {
		t.Errorf("expected the less precise candidate last, got %s", cands[len(cands)-1].Name)
	}
}

func TestFilterByRadius(t *testing.T) {
	cands := []Candidate{
		{Name: "close", Lat: 37.7749, Lon: -122.4194},
		{Name: "far", Lat: 51.5074, Lon: -0.1278},
	}
	filtered := filterByRadius(cands, 37.7749, -122.4194, 10)

	if len(filtered) != 1 || filtered[0].Name != "close" {
		t.Errorf("expected only the nearby candidate to survive filtering, got %+v", filtered)
	}
}

func TestUSAddressPattern_Extracts(t *testing.T) {
	text := "Visit us at 742 Evergreen Ave, Springfield, IL 62704 for details."
	m := usAddressPattern.FindString(text)
	if m == "" {
		t.Fatal("expected address pattern to match")
	}
}

func TestUSAddressPattern_NoMatchOnPlainText(t *testing.T) {
	text := "We are the best store in town, come visit!"
	m := usAddressPattern.FindString(text)
	if m != "" {
		t.Errorf("expected no match on address-free text, got %q", m)
	}
}

func TestWebSearchFallback_NoAddressFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>no address here</body></html>"))
	}))
	defer srv.Close()

	fallback := NewWebSearchFallback(srv.URL, time.Second, &fakeSearcher{}, nil)
	cands, err := fallback.Geocode(context.Background(), "obscure query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cands != nil {
		t.Errorf("expected nil candidates when no address is found, got %+v", cands)
	}
}

func TestWebSearchFallback_ExtractsAndRegeocodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Located at 742 Evergreen Ave, Springfield, IL 62704</body></html>"))
	}))
	defer srv.Close()

	geocoder := &fakeSearcher{result: []Candidate{{Name: "742 Evergreen Ave", Lat: 39.78, Lon: -89.65}}}
	fallback := NewWebSearchFallback(srv.URL, time.Second, geocoder, nil)

	cands, err := fallback.Geocode(context.Background(), "springfield landmark")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate from re-geocoding, got %d", len(cands))
	}
	if geocoder.lastQuery == "" {
		t.Error("expected the extracted address to be passed to the geocoder")
	}
}

type fakeSearcher struct {
	result    []Candidate
	lastQuery string
}

func (f *fakeSearcher) Geocode(_ context.Context, text string) ([]Candidate, error) {
	f.lastQuery = text
	return f.result, nil
}

func (f *fakeSearcher) GeocodeMulti(_ context.Context, text string, _ int, _ Bias) ([]Candidate, error) {
	f.lastQuery = text
	return f.result, nil
}

func (f *fakeSearcher) SearchNearby(_ context.Context, query string, _, _, _ float64, _ int) ([]Candidate, error) {
	f.lastQuery = query
	return f.result, nil
}
