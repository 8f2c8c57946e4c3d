package resolver

import (
	"context"
	"testing"

	"dayplanner/internal/provider"
	"dayplanner/pkg/apperror"
)

type stubSearcher struct {
	geocodeResult []provider.Candidate
	nearbyResult  []provider.Candidate
}

func (s *stubSearcher) Geocode(_ context.Context, _ string) ([]provider.Candidate, error) {
	return s.geocodeResult, nil
}

func (s *stubSearcher) GeocodeMulti(_ context.Context, _ string, limit int, _ provider.Bias) ([]provider.Candidate, error) {
	return limitCands(s.geocodeResult, limit), nil
}

func (s *stubSearcher) SearchNearby(_ context.Context, _ string, _, _, _ float64, limit int) ([]provider.Candidate, error) {
	return limitCands(s.nearbyResult, limit), nil
}

func limitCands(cands []provider.Candidate, limit int) []provider.Candidate {
	if limit <= 0 || limit >= len(cands) {
		return cands
	}
	return cands[:limit]
}

func homeAt(lat, lon float64) HomeContext {
	return HomeContext{Lat: lat, Lon: lon, Set: true}
}

func TestResolve_HomeNotSet(t *testing.T) {
	r := New(&stubSearcher{}, nil, nil, nil, Config{}, nil)
	_, err := r.Resolve(context.Background(), Query{Text: "anywhere"}, HomeContext{Set: false})
	if !apperror.Is(err, apperror.CodeHomeNotSet) {
		t.Fatalf("expected HOME_NOT_SET error, got %v", err)
	}
}

func TestResolve_LiteralAddressShortCircuits(t *testing.T) {
	primary := &stubSearcher{geocodeResult: []provider.Candidate{
		{Name: "123 Main St", Lat: 30.5, Lon: -97.5, Source: "primary_geocoder"},
	}}
	r := New(primary, nil, nil, nil, Config{}, nil)

	rp, err := r.Resolve(context.Background(), Query{Text: "ignored", Address: "123 Main St, Austin, TX"}, homeAt(30.5427, -97.5467))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Decision != DecisionAutoBest {
		t.Fatalf("expected auto-best, got %s", rp.Decision)
	}
	if rp.Selected == nil || rp.Selected.Lat != 30.5 {
		t.Fatalf("expected selected candidate from literal address geocode, got %+v", rp.Selected)
	}
}

func TestResolve_UnresolvableQuery_NoMatch(t *testing.T) {
	primary := &stubSearcher{} // no results anywhere
	r := New(primary, nil, nil, nil, Config{}, nil)

	rp, err := r.Resolve(context.Background(), Query{Text: "zzqzzq nonexistent 123"}, homeAt(30.5427, -97.5467))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Decision != DecisionNoMatch {
		t.Fatalf("expected no-match, got %s", rp.Decision)
	}
	if len(rp.Candidates) != 0 {
		t.Errorf("expected zero candidates, got %d", len(rp.Candidates))
	}
	if rp.Selected != nil {
		t.Errorf("expected nil selected, got %+v", rp.Selected)
	}
}

func TestResolve_SameBrandCloserWins(t *testing.T) {
	// Scenario 2: home (30.5427, -97.5467). Two "Great Clips" candidates;
	// the Hutto one is essentially at home, Georgetown is much further.
	primary := &stubSearcher{nearbyResult: []provider.Candidate{
		{Name: "Great Clips", Address: "Georgetown", Lat: 30.6328, Lon: -97.6780, Importance: 0.5},
		{Name: "Great Clips", Address: "Hutto", Lat: 30.5427, Lon: -97.5467, Importance: 0.5},
	}}
	r := New(primary, nil, nil, nil, Config{}, nil)

	rp, err := r.Resolve(context.Background(), Query{Text: "Great Clips"}, homeAt(30.5427, -97.5467))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Selected == nil {
		t.Fatalf("expected a selected candidate, got decision %s", rp.Decision)
	}
	if rp.Selected.Address != "Hutto" {
		t.Errorf("expected the closer Hutto candidate to win, got %s", rp.Selected.Address)
	}
	if rp.Selected.SelectionReason != ReasonClosestToHome {
		t.Errorf("expected reason closest-to-home, got %s", rp.Selected.SelectionReason)
	}
}

func TestSelect_OutOfRangeReturnsUnchanged(t *testing.T) {
	rp := &ResolvedPlace{
		Candidates: []ScoredCandidate{{Candidate: provider.Candidate{Name: "A"}}},
		Decision:   DecisionPending,
	}
	out := Select(rp, 5)
	if out.Decision != DecisionPending {
		t.Errorf("expected unchanged decision for out-of-range index, got %s", out.Decision)
	}
}

func TestSelect_ValidIndexSetsUserSelected(t *testing.T) {
	rp := &ResolvedPlace{
		Candidates: []ScoredCandidate{
			{Candidate: provider.Candidate{Name: "A"}},
			{Candidate: provider.Candidate{Name: "B"}},
		},
		Decision: DecisionPending,
	}
	out := Select(rp, 1)
	if out.Decision != DecisionUserSelected {
		t.Fatalf("expected user-selected decision, got %s", out.Decision)
	}
	if out.Selected == nil || out.Selected.Name != "B" {
		t.Errorf("expected candidate B selected, got %+v", out.Selected)
	}
}

func TestResolveBatch_PreservesInputOrder(t *testing.T) {
	primary := &stubSearcher{geocodeResult: []provider.Candidate{{Name: "place", Lat: 1, Lon: 1}}}
	r := New(primary, nil, nil, nil, Config{}, nil)

	queries := []Query{
		{Text: "one"}, {Text: "two"}, {Text: "three"}, {Text: "four"},
	}
	results, err := r.ResolveBatch(context.Background(), queries, homeAt(30, -97))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, rp := range results {
		if rp.Query != queries[i].Text {
			t.Errorf("result %d: expected query %q, got %q", i, queries[i].Text, rp.Query)
		}
	}
}

func TestApplyRouteAwareTieBreak_PromotesBetterRouteOption(t *testing.T) {
	// Scenario 6: home (30.5,-97.5); prev stop (30.8,-97.65). A is near
	// home but far from prev; B is on the way home from prev.
	home := [2]float64{30.5, -97.5}
	prev := [2]float64{30.8, -97.65}

	candA := ScoredCandidate{Candidate: provider.Candidate{Name: "Great Clips", Lat: 30.51, Lon: -97.51}, NameSimilarity: 90}
	candB := ScoredCandidate{Candidate: provider.Candidate{Name: "Great Clips", Lat: 30.7, Lon: -97.6}, NameSimilarity: 90}

	scored := []ScoredCandidate{candA, candB} // distance-only winner would be A (closer to home)
	out := ApplyRouteAwareTieBreak(scored, prev[0], prev[1], home[0], home[1])

	if out[0].Lat != candB.Lat {
		t.Fatalf("expected route-aware tie-break to promote B, got %+v", out[0])
	}
	if out[0].SelectionReason != ReasonBestForRoute {
		t.Errorf("expected reason best-for-route, got %s", out[0].SelectionReason)
	}
}
