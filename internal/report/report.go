// Package report renders a finished domain.PlanResult as a printable
// itinerary. Both exporters are pure consumers: they read a PlanResult and
// a date and produce bytes, never touching persistence or scheduling.
package report

import (
	"fmt"
	"time"

	"dayplanner/internal/domain"
)

func formatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04")
}

func kindLabel(k domain.ItemKind) string {
	switch k {
	case domain.KindTask:
		return "Task"
	case domain.KindTravel:
		return "Travel"
	case domain.KindFixed:
		return "Fixed"
	case domain.KindWait:
		return "Wait"
	default:
		return string(k)
	}
}

func itemDetail(it domain.ScheduledItem) string {
	if it.Kind == domain.KindTravel {
		return fmt.Sprintf("%s -> %s (%.1f km, %.0f min)", it.FromName, it.ToName, it.DistanceKm, it.DurationMin)
	}
	return it.Title
}
