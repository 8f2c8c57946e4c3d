package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dayplanner/pkg/metrics"
)

// usAddressPattern extracts US-style street addresses from free-text
// search-result snippets: a leading street number, a name, a street-type
// word, then a city/state/zip tail.
var usAddressPattern = regexp.MustCompile(
	`\d{1,6}\s+[A-Za-z0-9.'\- ]+?\s+(?:St|Street|Ave|Avenue|Blvd|Boulevard|Rd|Road|Dr|Drive|Ln|Lane|Way|Ct|Court|Pl|Place|Hwy|Highway)\.?,?\s+[A-Za-z .]+,\s*[A-Z]{2}\s*\d{5}(?:-\d{4})?`,
)

// WebSearchFallback is the last-resort adapter: it runs a web search,
// scrapes result snippets for address-shaped text, and re-geocodes any
// match through the primary geocoder. It exists for queries neither the
// primary geocoder nor secondary places can resolve directly — retail
// locations behind aggregator sites, for example.
type WebSearchFallback struct {
	searchURL string
	client    *http.Client
	geocoder  Searcher
	log       *slog.Logger
}

// NewWebSearchFallback builds a WebSearchFallback. geocoder is used to
// turn an extracted address back into coordinates, and is typically the
// same PrimaryGeocoder instance used elsewhere.
func NewWebSearchFallback(searchURL string, timeout time.Duration, geocoder Searcher, log *slog.Logger) *WebSearchFallback {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &WebSearchFallback{
		searchURL: searchURL,
		client:    &http.Client{Timeout: timeout},
		geocoder:  geocoder,
		log:       log,
	}
}

// Geocode implements Searcher: search the web for text, extract the first
// address-shaped snippet, and re-geocode it.
func (w *WebSearchFallback) Geocode(ctx context.Context, text string) ([]Candidate, error) {
	address, err := w.extractAddress(ctx, text)
	metrics.Get().RecordProviderRequest("web_search_fallback", err == nil)
	if err != nil || address == "" {
		if err != nil {
			w.log.WarnContext(ctx, "web search fallback failed, returning no results", "error", err, "query", text)
		}
		return nil, nil
	}

	return w.geocoder.Geocode(ctx, address)
}

// GeocodeMulti implements Searcher; the web-search fallback only ever
// extracts one candidate address per query, so limit beyond 1 has no
// effect.
func (w *WebSearchFallback) GeocodeMulti(ctx context.Context, text string, limit int, bias Bias) ([]Candidate, error) {
	cands, err := w.Geocode(ctx, text)
	if err != nil {
		return nil, err
	}
	return limitCandidates(cands, limit), nil
}

// SearchNearby implements Searcher by running the same search as Geocode
// on the query text alone; the center and radius are not used, since this
// adapter has no radius search. It's an address-extraction best effort.
func (w *WebSearchFallback) SearchNearby(ctx context.Context, query string, centerLat, centerLon, radiusKm float64, limit int) ([]Candidate, error) {
	return w.GeocodeMulti(ctx, query, limit, Bias{Lat: centerLat, Lon: centerLon, Present: true})
}

// extractAddress runs the web search and returns the first address-shaped
// match found across all result snippets.
func (w *WebSearchFallback) extractAddress(ctx context.Context, query string) (string, error) {
	reqURL, err := url.Parse(w.searchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	q := reqURL.Query()
	q.Set("q", query)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var found string
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		if found != "" {
			return
		}
		text := sel.Text()
		if m := usAddressPattern.FindString(text); m != "" {
			found = m
		}
	})

	return found, nil
}
