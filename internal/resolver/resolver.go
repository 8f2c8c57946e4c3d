package resolver

import (
	"context"
	"log/slog"
	"sync"

	"dayplanner/internal/geo"
	"dayplanner/internal/provider"
	"dayplanner/pkg/apperror"
)

const (
	tierALimit       = 10
	tierBLimit       = 5
	defaultRadiusMi  = 10
	expandedRadiusMi = 25
)

// Config controls which optional tiers are active and the radii Tier A
// escalates through.
type Config struct {
	SimpleMode       bool // short-circuits to Tier B only, per spec §9's open question
	RadiusMi         float64
	ExpandedRadiusMi float64
	PlacesEnabled    bool
	WebSearchEnabled bool
	LLMEnabled       bool
	MaxConcurrent    int
}

// Resolver runs the tiered A→D cascade described in the resolver's
// component design, turning one free-text Query into one ResolvedPlace.
type Resolver struct {
	primary   provider.Searcher
	secondary provider.Searcher
	webSearch provider.Searcher
	llm       Reranker
	cfg       Config
	log       *slog.Logger
}

// New builds a Resolver. secondary, webSearch, and llm may be nil to
// disable their tiers regardless of cfg's enabled flags.
func New(primary, secondary, webSearch provider.Searcher, llm Reranker, cfg Config, log *slog.Logger) *Resolver {
	if cfg.RadiusMi <= 0 {
		cfg.RadiusMi = defaultRadiusMi
	}
	if cfg.ExpandedRadiusMi <= 0 {
		cfg.ExpandedRadiusMi = expandedRadiusMi
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{primary: primary, secondary: secondary, webSearch: webSearch, llm: llm, cfg: cfg, log: log}
}

// Resolve runs the full cascade for a single query. It raises only for
// the precondition violation of a missing home coordinate; every other
// failure is absorbed into a no-match ResolvedPlace.
func (r *Resolver) Resolve(ctx context.Context, q Query, home HomeContext) (*ResolvedPlace, error) {
	if !home.Set {
		return nil, apperror.ErrHomeNotSet
	}

	if q.Address != "" {
		if rp := r.resolveLiteralAddress(ctx, q); rp != nil {
			return rp, nil
		}
	}

	candidates, llmResult := r.cascade(ctx, q, home)

	scored := score(q.Text, home.Lat, home.Lon, candidates)
	scored = applySameBrandTieBreak(scored)

	decision, reason := decide(scored, llmResult)

	rp := &ResolvedPlace{
		Query:      q.Text,
		Candidates: scored,
		Decision:   decision,
		Reason:     reason,
	}
	if rp.IsResolved() && len(scored) > 0 {
		selected := scored[0]
		rp.Selected = &selected
	}

	return rp, nil
}

// resolveLiteralAddress implements the pipeline's step 1 short-circuit:
// if a literal address is present, geocode it directly and, on success,
// emit a single-candidate auto-best ResolvedPlace. Returns nil (meaning:
// fall through to the normal cascade) if the address doesn't geocode.
func (r *Resolver) resolveLiteralAddress(ctx context.Context, q Query) *ResolvedPlace {
	cands, err := r.primary.Geocode(ctx, q.Address)
	if err != nil || len(cands) == 0 {
		return nil
	}

	sc := ScoredCandidate{
		Candidate:       cands[0],
		NameSimilarity:  100,
		CombinedScore:   100,
		SelectionReason: ReasonOnlyMatch,
	}

	return &ResolvedPlace{
		Query:      q.Text,
		Selected:   &sc,
		Candidates: []ScoredCandidate{sc},
		Decision:   DecisionAutoBest,
		Reason:     "literal address geocoded directly",
	}
}

// cascade runs Tiers A through D and returns the raw candidate list plus
// whatever the LLM re-ranker concluded (zero value if never consulted).
func (r *Resolver) cascade(ctx context.Context, q Query, home HomeContext) ([]provider.Candidate, llmOutcome) {
	var candidates []provider.Candidate

	if !r.cfg.SimpleMode {
		candidates = r.tierA(ctx, q, home)
		candidates = filterCandidates(candidates, home.Lat, home.Lon, r.cfg.ExpandedRadiusMi, home.Country)
	}

	if r.cfg.PlacesEnabled && r.secondary != nil && shouldTriggerTierB(candidates, q.Text) {
		radiusKm := geo.MiToKm(r.cfg.RadiusMi)
		fresh, err := r.secondary.SearchNearby(ctx, q.Text, home.Lat, home.Lon, radiusKm, tierBLimit)
		if err != nil {
			r.log.WarnContext(ctx, "tier B secondary places search failed", "error", err)
		} else {
			candidates = prepend(candidates, fresh)
		}
	}

	var llmResult llmOutcome
	if !r.cfg.SimpleMode && r.cfg.LLMEnabled && r.llm != nil && len(candidates) > 0 {
		bestIndex, confidence, _ := r.llm.Rerank(ctx, q.Text, home.LocationContext, candidates)
		llmResult = llmOutcome{consulted: true, bestIndexNil: bestIndex == nil, confidence: confidence}
		if bestIndex != nil {
			candidates = rotateToFront(candidates, *bestIndex)
		}
	}

	if !r.cfg.SimpleMode && r.cfg.WebSearchEnabled && r.webSearch != nil && shouldTriggerTierD(candidates, llmResult) {
		fresh, err := r.webSearch.Geocode(ctx, q.Text)
		if err != nil {
			r.log.WarnContext(ctx, "tier D web search fallback failed", "error", err)
		} else {
			candidates = prepend(candidates, fresh)
		}
	}

	return candidates, llmResult
}

// tierA runs the primary geocoder's nearby search with radius escalation,
// falling back to a plain geocode if both radii come up empty.
func (r *Resolver) tierA(ctx context.Context, q Query, home HomeContext) []provider.Candidate {
	radiusKm := geo.MiToKm(r.cfg.RadiusMi)
	cands, err := r.primary.SearchNearby(ctx, q.Text, home.Lat, home.Lon, radiusKm, tierALimit)
	if err != nil {
		r.log.WarnContext(ctx, "tier A nearby search failed", "error", err)
		cands = nil
	}
	if len(cands) > 0 {
		return cands
	}

	expandedKm := geo.MiToKm(r.cfg.ExpandedRadiusMi)
	cands, err = r.primary.SearchNearby(ctx, q.Text, home.Lat, home.Lon, expandedKm, tierALimit)
	if err != nil {
		r.log.WarnContext(ctx, "tier A expanded nearby search failed", "error", err)
		cands = nil
	}
	if len(cands) > 0 {
		return cands
	}

	cands, err = r.primary.Geocode(ctx, q.Text)
	if err != nil {
		r.log.WarnContext(ctx, "tier A plain geocode fallback failed", "error", err)
		return nil
	}
	return cands
}

func rotateToFront(candidates []provider.Candidate, index int) []provider.Candidate {
	if index <= 0 || index >= len(candidates) {
		return candidates
	}
	out := make([]provider.Candidate, 0, len(candidates))
	out = append(out, candidates[index])
	out = append(out, candidates[:index]...)
	out = append(out, candidates[index+1:]...)
	return out
}

// Select implements the user-selection operation: move the Nth candidate
// to Selected and rewrite the decision to user-selected. Out-of-range
// indices return the original ResolvedPlace unchanged.
func Select(resolved *ResolvedPlace, index int) *ResolvedPlace {
	if index < 0 || index >= len(resolved.Candidates) {
		return resolved
	}

	out := *resolved
	selected := resolved.Candidates[index]
	selected.SelectionReason = ReasonUserSelected
	out.Selected = &selected
	out.Decision = DecisionUserSelected
	out.Reason = string(ReasonUserSelected)
	return &out
}

// batchResult pairs a resolution with its original input position so
// ResolveBatch can restore input order regardless of completion order.
type batchResult struct {
	index int
	place *ResolvedPlace
	err   error
}

// ResolveBatch resolves queries concurrently, bounded by cfg.MaxConcurrent,
// and returns results in the same order as the input queries regardless
// of completion order (spec §5's ordering guarantee for batch resolve).
func (r *Resolver) ResolveBatch(ctx context.Context, queries []Query, home HomeContext) ([]*ResolvedPlace, error) {
	results := make([]*ResolvedPlace, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	sem := make(chan struct{}, r.cfg.MaxConcurrent)
	resultCh := make(chan batchResult, len(queries))
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		go func(i int, q Query) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			place, err := r.Resolve(ctx, q, home)
			resultCh <- batchResult{index: i, place: place, err: err}
		}(i, q)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var firstErr error
	for res := range resultCh {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		results[res.index] = res.place
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
