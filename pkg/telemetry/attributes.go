package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Standard attribute keys.
const (
	// Resolution
	AttrResolveTier     = "resolve.tier"
	AttrResolveQuery    = "resolve.query"
	AttrResolveScore    = "resolve.score"
	AttrResolveMatched  = "resolve.matched"
	AttrResolveProvider = "resolve.provider"

	// Routing
	AttrRoutingSource    = "routing.source" // google, haversine_fallback
	AttrRoutingDistance  = "routing.distance_km"
	AttrRoutingDuration  = "routing.duration_minutes"

	// Optimizer
	AttrOptimizeMethod = "optimize.method"
	AttrOptimizeStops  = "optimize.stops"
	AttrOptimizeCostKm = "optimize.total_cost_km"

	// Scheduler
	AttrScheduleItems       = "schedule.items"
	AttrScheduleSuggestions = "schedule.suggestions_count"
)

// ResolveAttributes returns attributes describing a place resolution.
func ResolveAttributes(tier, query string, matched bool, score float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrResolveTier, tier),
		attribute.String(AttrResolveQuery, query),
		attribute.Bool(AttrResolveMatched, matched),
		attribute.Float64(AttrResolveScore, score),
	}
}

// RoutingAttributes returns attributes describing a routing segment lookup.
func RoutingAttributes(source string, distanceKm, durationMinutes float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRoutingSource, source),
		attribute.Float64(AttrRoutingDistance, distanceKm),
		attribute.Float64(AttrRoutingDuration, durationMinutes),
	}
}

// OptimizeAttributes returns attributes describing a route optimization.
func OptimizeAttributes(method string, stops int, totalCostKm float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrOptimizeMethod, method),
		attribute.Int(AttrOptimizeStops, stops),
		attribute.Float64(AttrOptimizeCostKm, totalCostKm),
	}
}

// ScheduleAttributes returns attributes describing a finished day schedule.
func ScheduleAttributes(items, suggestions int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrScheduleItems, items),
		attribute.Int(AttrScheduleSuggestions, suggestions),
	}
}
