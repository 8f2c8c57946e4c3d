package routing

import (
	"context"
	"encoding/json"
	"time"

	"dayplanner/pkg/cache"
	"dayplanner/pkg/metrics"
	"dayplanner/pkg/telemetry"
)

// CachedSegmenter decorates a Segmenter with a cache keyed on the four
// rounded coordinates, so repeated requests for the same origin/destination
// pair within the TTL window never hit the network twice.
type CachedSegmenter struct {
	next  Segmenter
	store cache.Cache
	ttl   time.Duration
}

// NewCachedSegmenter wraps next with store, caching successful results for
// ttl.
func NewCachedSegmenter(next Segmenter, store cache.Cache, ttl time.Duration) *CachedSegmenter {
	return &CachedSegmenter{next: next, store: store, ttl: ttl}
}

// Segment implements Segmenter, consulting the cache before delegating to
// the wrapped Segmenter on a miss.
func (c *CachedSegmenter) Segment(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (Segment, error) {
	key := cache.SegmentKey(fromLat, fromLon, toLat, toLon)

	if raw, err := c.store.Get(ctx, key); err == nil {
		var seg Segment
		if jsonErr := json.Unmarshal(raw, &seg); jsonErr == nil {
			metrics.Get().RecordRoutingSegment(seg.Source)
			telemetry.SetAttributes(ctx, telemetry.RoutingAttributes(seg.Source, seg.DistanceKm, seg.DurationMin)...)
			return seg, nil
		}
	}

	seg, err := c.next.Segment(ctx, fromLat, fromLon, toLat, toLon)
	if err != nil {
		return Segment{}, err
	}
	metrics.Get().RecordRoutingSegment(seg.Source)
	telemetry.SetAttributes(ctx, telemetry.RoutingAttributes(seg.Source, seg.DistanceKm, seg.DurationMin)...)

	if raw, err := json.Marshal(seg); err == nil {
		_ = c.store.Set(ctx, key, raw, c.ttl)
	}

	return seg, nil
}
