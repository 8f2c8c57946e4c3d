package resolver

import (
	"strings"

	"dayplanner/internal/geo"
	"dayplanner/internal/provider"
)

func milesBetween(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.KmToMi(geo.Haversine(lat1, lon1, lat2, lon2))
}

// streetTypeWords flags candidate names that look like a street address
// rather than a business name — used by the Tier B trigger condition
// "the top Tier A candidate name contains a street-type word the query
// does not".
var streetTypeWords = []string{
	"drive", "dr", "street", "st", "avenue", "ave", "road", "rd",
	"lane", "ln", "boulevard", "blvd", "way", "court", "ct",
	"parkway", "pkwy", "highway", "hwy", "place", "pl",
}

// retailChainPatterns is a small table of common national retail/restaurant
// chains whose locations are frequently ambiguous by name alone (many
// branches, generic addresses) and so benefit from a secondary commercial
// places lookup even when the primary geocoder found something.
var retailChainPatterns = []string{
	"walmart", "target", "costco", "kroger", "safeway", "walgreens", "cvs",
	"starbucks", "mcdonald", "home depot", "lowe's", "lowes", "whole foods",
	"trader joe", "best buy", "great clips", "supercuts", "chipotle",
	"subway", "dunkin", "7-eleven", "7 eleven",
}

func containsAny(haystack string, needles []string) bool {
	haystack = strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func isRetailChainQuery(query string) bool {
	return containsAny(query, retailChainPatterns)
}

func hasStreetTypeWord(s string) bool {
	lower := strings.ToLower(s)
	for _, w := range streetTypeWords {
		for _, tok := range strings.Fields(lower) {
			if strings.Trim(tok, ".,") == w {
				return true
			}
		}
	}
	return false
}

// shouldTriggerTierB implements the Tier B trigger condition: the adapter
// must be configured, AND any of no Tier A results / fewer than 3 results
// / a retail-chain query / the leading candidate reading like a bare
// street address the query itself doesn't mention.
func shouldTriggerTierB(candidates []provider.Candidate, query string) bool {
	if len(candidates) == 0 {
		return true
	}
	if len(candidates) < 3 {
		return true
	}
	if isRetailChainQuery(query) {
		return true
	}
	top := candidates[0]
	if hasStreetTypeWord(top.Name) && !hasStreetTypeWord(query) {
		return true
	}
	return false
}

// shouldTriggerTierD implements the Tier D trigger condition.
func shouldTriggerTierD(candidates []provider.Candidate, llm llmOutcome) bool {
	if len(candidates) == 0 {
		return true
	}
	if len(candidates) < 2 {
		return true
	}
	if llm.consulted && llm.bestIndexNil && llm.confidence == "low" {
		// LLM was consulted, returned no best_index (null), and flagged
		// low confidence in there being a good answer among candidates.
		return true
	}
	return false
}

// filterCandidates drops candidates beyond rMaxMi of (startLat, startLon)
// and candidates whose country differs from the home country (when both
// are known) — dropping results that have wandered outside the user's
// own country.
func filterCandidates(candidates []provider.Candidate, startLat, startLon, rMaxMi float64, homeCountry string) []provider.Candidate {
	out := make([]provider.Candidate, 0, len(candidates))
	for _, c := range candidates {
		distMi := milesBetween(startLat, startLon, c.Lat, c.Lon)
		if distMi > rMaxMi {
			continue
		}
		if homeCountry != "" && c.Country != "" && !strings.EqualFold(c.Country, homeCountry) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// prepend returns fresh candidates placed before existing ones, per the
// ordering guarantee that later tiers' finds are prepended while earlier
// tiers' candidates remain as backups.
func prepend(existing []provider.Candidate, fresh []provider.Candidate) []provider.Candidate {
	if len(fresh) == 0 {
		return existing
	}
	out := make([]provider.Candidate, 0, len(existing)+len(fresh))
	out = append(out, fresh...)
	out = append(out, existing...)
	return dedupeByCoordinate(out)
}

func dedupeByCoordinate(candidates []provider.Candidate) []provider.Candidate {
	seen := make(map[[2]float64]struct{}, len(candidates))
	out := make([]provider.Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := [2]float64{round4(c.Lat), round4(c.Lon)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func round4(x float64) float64 {
	return float64(int(x*10000+0.5)) / 10000
}
