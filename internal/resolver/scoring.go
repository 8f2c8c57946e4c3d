package resolver

import (
	"sort"

	"dayplanner/internal/geo"
	"dayplanner/internal/provider"
)

// maxScoredDistanceMi is the distance beyond which the distance component
// of combined_score floors at zero.
const maxScoredDistanceMi = 25.0

// sameBrandThreshold is the name_similarity floor two candidates must
// each clear, against the query AND against each other, to count as
// "same brand".
const sameBrandThreshold = 70.0

// score converts raw provider candidates into ScoredCandidates relative
// to the query text and starting coordinate, sorted descending by
// combined_score.
func score(query string, startLat, startLon float64, candidates []provider.Candidate) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		distKm := geo.Haversine(startLat, startLon, c.Lat, c.Lon)
		distMi := round1(geo.KmToMi(distKm))
		sim := nameSimilarity(query, c.Name)

		distComponent := max0(50 * (1 - distMi/maxScoredDistanceMi))
		nameComponent := sim / 2
		combined := distComponent + nameComponent

		scored = append(scored, ScoredCandidate{
			Candidate:      c,
			DistanceMiles:  distMi,
			NameSimilarity: sim,
			CombinedScore:  combined,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CombinedScore > scored[j].CombinedScore
	})

	return scored
}

func round1(x float64) float64 {
	return float64(int(x*10+0.5)) / 10
}

func max0(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// sameBrand reports whether a and b are the "same brand": each has
// name_similarity ≥ 70 against the original query, and the fuzzy
// similarity between their own names is ≥ 70. This is a symmetric
// predicate over a pair, never an equivalence class — two candidates
// might each be "same brand" as a third without being same-brand with
// each other in pathological name data, and that's fine.
func sameBrand(a, b ScoredCandidate) bool {
	if a.NameSimilarity < sameBrandThreshold || b.NameSimilarity < sameBrandThreshold {
		return false
	}
	return nameSimilarity(a.Name, b.Name) >= sameBrandThreshold
}

// applySameBrandTieBreak resorts the leading run of candidates that are
// each same-brand with the leader ascending by distance, annotating the
// new leader with
// ReasonClosestToHome. A no-op if fewer than 2 candidates or the leading
// two aren't same-brand.
func applySameBrandTieBreak(scored []ScoredCandidate) []ScoredCandidate {
	if len(scored) < 2 || !sameBrand(scored[0], scored[1]) {
		return scored
	}

	runEnd := 1
	for runEnd < len(scored) && sameBrand(scored[0], scored[runEnd]) {
		runEnd++
	}

	run := make([]ScoredCandidate, runEnd)
	copy(run, scored[:runEnd])
	sort.SliceStable(run, func(i, j int) bool {
		return run[i].DistanceMiles < run[j].DistanceMiles
	})
	run[0].SelectionReason = ReasonClosestToHome

	out := make([]ScoredCandidate, 0, len(scored))
	out = append(out, run...)
	out = append(out, scored[runEnd:]...)
	return out
}

// ApplyRouteAwareTieBreak re-ranks the candidates of a stop that is the
// last errand before returning home, given the previous stop and home.
// Resolve does not apply it, and the scheduler does not call it: it takes
// effect only where a caller invokes it. Among the same-brand run at
// the front of candidates, it promotes whichever minimizes
// dist(prev, c) + dist(c, home), annotated ReasonBestForRoute, iff that
// candidate differs from the distance-only winner already at position 0.
func ApplyRouteAwareTieBreak(scored []ScoredCandidate, prevLat, prevLon, homeLat, homeLon float64) []ScoredCandidate {
	if len(scored) < 2 || !sameBrand(scored[0], scored[1]) {
		return scored
	}

	runEnd := 1
	for runEnd < len(scored) && sameBrand(scored[0], scored[runEnd]) {
		runEnd++
	}

	bestIdx := 0
	bestAdded := routeAdded(scored[0], prevLat, prevLon, homeLat, homeLon)
	for i := 1; i < runEnd; i++ {
		added := routeAdded(scored[i], prevLat, prevLon, homeLat, homeLon)
		if added < bestAdded {
			bestAdded = added
			bestIdx = i
		}
	}

	if bestIdx == 0 {
		return scored
	}

	out := make([]ScoredCandidate, 0, len(scored))
	winner := scored[bestIdx]
	winner.SelectionReason = ReasonBestForRoute
	out = append(out, winner)
	for i, c := range scored {
		if i == bestIdx {
			continue
		}
		out = append(out, c)
	}
	return out
}

func routeAdded(c ScoredCandidate, prevLat, prevLon, homeLat, homeLon float64) float64 {
	return geo.Haversine(prevLat, prevLon, c.Lat, c.Lon) + geo.Haversine(c.Lat, c.Lon, homeLat, homeLon)
}

// llmOutcome carries the Tier C re-ranker's verdict down into the
// decision table; zero value means "LLM not consulted or no opinion".
type llmOutcome struct {
	consulted    bool
	bestIndexNil bool   // true when the LLM returned best_index: null
	confidence   string // "high", "medium", "low", ""
}

// decide applies the final decision table to the fully scored, tie-broken
// candidate list.
func decide(scored []ScoredCandidate, llm llmOutcome) (Decision, string) {
	switch len(scored) {
	case 0:
		return DecisionNoMatch, "no candidates found"
	case 1:
		if scored[0].NameSimilarity >= 50 {
			return DecisionAutoBest, string(ReasonOnlyMatch)
		}
		return DecisionPending, "single low-confidence candidate"
	}

	top, second := scored[0], scored[1]

	if top.CombinedScore-second.CombinedScore >= 15 {
		return DecisionAutoBest, string(ReasonClearWinner)
	}
	if top.NameSimilarity >= 80 && top.DistanceMiles <= 10 {
		return DecisionAutoBest, string(ReasonBestOverall)
	}
	if top.NameSimilarity >= 70 && second.NameSimilarity >= 70 && sameBrand(top, second) && top.DistanceMiles < second.DistanceMiles {
		return DecisionAutoBest, string(ReasonClosestToHome)
	}
	if llm.consulted && llm.confidence == "high" {
		return DecisionAutoBest, string(ReasonBestOverall)
	}

	return DecisionPending, "multiple plausible candidates"
}
