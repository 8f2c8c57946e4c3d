package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"dayplanner/internal/domain"
	"dayplanner/internal/geo"
	"dayplanner/internal/routing"
)

// haversineSegmenter is a deterministic test double standing in for a real
// Routing port: straight-line distance at a fixed speed, no network calls.
type haversineSegmenter struct {
	speedKmh float64
}

func (h haversineSegmenter) Segment(_ context.Context, fromLat, fromLon, toLat, toLon float64) (routing.Segment, error) {
	km := geo.Haversine(fromLat, fromLon, toLat, toLon)
	speed := h.speedKmh
	if speed <= 0 {
		speed = 40
	}
	return routing.Segment{DistanceKm: km, DurationMin: (km / speed) * 60, Source: "test"}, nil
}

func wallClock(hour, min int) time.Time {
	return time.Date(0, 1, 1, hour, min, 0, 0, time.UTC)
}

func dateOf(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// Scenario 1: single errand within window.
func TestSchedule_SingleErrandWithinWindow(t *testing.T) {
	in := Input{
		Date:          dateOf(2026, 8, 3),
		Today:         dateOf(2026, 8, 3),
		WorkStart:     wallClock(9, 0),
		WorkEnd:       wallClock(17, 0),
		StartLat:      30.5427,
		StartLon:      -97.5467,
		ReturnToStart: true,
		Errands: []domain.Task{
			{ID: "t1", Title: "DMV", DurationMin: 30, Priority: 2, Category: domain.CategoryErrand,
				HasLocation: true, Lat: 30.5127, Lon: -97.6780, DisplayName: "DMV"},
		},
	}

	result, err := Schedule(context.Background(), in, haversineSegmenter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Fits {
		t.Fatalf("expected fits=true, got overtime %v", result.Overtime)
	}
	if len(result.Overflow) != 0 {
		t.Errorf("expected no overflow, got %v", result.Overflow)
	}

	var taskCount, travelCount int
	for _, it := range result.Items {
		switch it.Kind {
		case domain.KindTask:
			taskCount++
		case domain.KindTravel:
			travelCount++
		}
	}
	if taskCount != 1 {
		t.Errorf("expected 1 task item, got %d", taskCount)
	}
	if travelCount != 2 {
		t.Errorf("expected 2 travel segments (out + return), got %d", travelCount)
	}
}

// Scenario 4: window overrun produces ranked suggestions. Six 45-minute
// stops sit on a short spur north of home, each 0.003 deg (~0.33 km)
// apart, with the spur itself starting 0.045 deg (~5 km) out — chosen so
// all six fit inside the 09:00-14:00 window on the way out, but the
// straight-line trip back from the last stop is long enough to push the
// finish past work_end.
func TestSchedule_WindowOverrun_ProducesSuggestions(t *testing.T) {
	homeLat, homeLon := 30.5427, -97.5467
	var stops []domain.Task
	names := []string{"A", "B", "C", "D", "E", "F"}
	for i, name := range names {
		priority := 3
		if i == 0 {
			priority = 1
		}
		stops = append(stops, domain.Task{
			ID: name, Title: "Stop " + name, DurationMin: 45, Priority: priority,
			Category: domain.CategoryErrand, HasLocation: true,
			Lat: homeLat + 0.045 + 0.003*float64(i), Lon: homeLon, DisplayName: name,
		})
	}

	in := Input{
		Date:          dateOf(2026, 8, 3),
		Today:         dateOf(2026, 8, 3),
		WorkStart:     wallClock(9, 0),
		WorkEnd:       wallClock(14, 0),
		StartLat:      homeLat,
		StartLon:      homeLon,
		ReturnToStart: true,
		Errands:       stops,
	}

	result, err := Schedule(context.Background(), in, haversineSegmenter{speedKmh: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fits {
		t.Fatalf("expected fits=false given the tight window")
	}
	if result.Overtime <= 0 {
		t.Errorf("expected positive overtime, got %v", result.Overtime)
	}
	if len(result.Suggestions) == 0 {
		t.Fatalf("expected at least one suggestion")
	}

	var hasEarlierOrExtend, hasDrop bool
	for _, s := range result.Suggestions {
		if strings.Contains(s.Text, "earlier") || strings.Contains(s.Text, "Extend") {
			hasEarlierOrExtend = true
		}
		if strings.HasPrefix(s.Text, "Drop '") {
			hasDrop = true
		}
	}
	if !hasEarlierOrExtend {
		t.Errorf("expected a suggestion mentioning 'earlier' or 'Extend', got %+v", result.Suggestions)
	}
	if !hasDrop {
		t.Errorf("expected a 'Drop' suggestion given a priority-1 task, got %+v", result.Suggestions)
	}
	if len(result.Suggestions) > 5 {
		t.Errorf("expected at most 5 suggestions, got %d", len(result.Suggestions))
	}
}

func TestSchedule_ZeroStops_EmptyPlanFits(t *testing.T) {
	in := Input{
		Date:      dateOf(2026, 8, 3),
		Today:     dateOf(2026, 8, 3),
		WorkStart: wallClock(9, 0),
		WorkEnd:   wallClock(17, 0),
		StartLat:  30.5427,
		StartLon:  -97.5467,
	}
	result, err := Schedule(context.Background(), in, haversineSegmenter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Fits {
		t.Errorf("expected an empty plan to fit")
	}
	if result.TotalKm != 0 || result.TotalDriveMinutes != 0 {
		t.Errorf("expected zero travel for an empty plan, got %f km / %f min", result.TotalKm, result.TotalDriveMinutes)
	}
	if len(result.Items) != 0 {
		t.Errorf("expected no items, got %d", len(result.Items))
	}
}

func TestSchedule_MissingLocation_Overflows(t *testing.T) {
	in := Input{
		Date:      dateOf(2026, 8, 3),
		Today:     dateOf(2026, 8, 3),
		WorkStart: wallClock(9, 0),
		WorkEnd:   wallClock(17, 0),
		StartLat:  30.5427,
		StartLon:  -97.5467,
		Errands: []domain.Task{
			{ID: "noloc", Title: "Call someone", DurationMin: 15, Priority: 2, Category: domain.CategoryErrand, HasLocation: false},
		},
	}
	result, err := Schedule(context.Background(), in, haversineSegmenter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Overflow) != 1 || result.Overflow[0].Reason != "missing location" {
		t.Fatalf("expected one overflow entry with reason 'missing location', got %+v", result.Overflow)
	}
}

func TestSchedule_ClosedOnWeekday_Overflows(t *testing.T) {
	// 2026-08-03 is a Monday.
	in := Input{
		Date:      dateOf(2026, 8, 3),
		Today:     dateOf(2026, 8, 3),
		WorkStart: wallClock(9, 0),
		WorkEnd:   wallClock(17, 0),
		StartLat:  30.5427,
		StartLon:  -97.5467,
		Errands: []domain.Task{
			{ID: "sunday-only", Title: "Farmers market", DurationMin: 30, Priority: 2, Category: domain.CategoryErrand,
				HasLocation: true, Lat: 30.55, Lon: -97.55, DisplayName: "Market", DaysOpen: []time.Weekday{time.Sunday}},
		},
	}
	result, err := Schedule(context.Background(), in, haversineSegmenter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Overflow) != 1 || result.Overflow[0].Reason != "closed on this day of week" {
		t.Fatalf("expected overflow reason 'closed on this day of week', got %+v", result.Overflow)
	}
}

// Boundary: a task whose feasible window is exactly its duration fits;
// one minute narrower does not.
func TestFeasibleWindow_ExactDurationFitsOneMinuteNarrowerDoesNot(t *testing.T) {
	open := wallClock(10, 0)
	closeExact := wallClock(10, 30)
	task := domain.Task{ID: "x", DurationMin: 30, OpenLocal: &open, CloseLocal: &closeExact}

	date := dateOf(2026, 8, 3)
	dayStart := combineDateTime(date, wallClock(9, 0))
	dayEnd := combineDateTime(date, wallClock(17, 0))

	if _, ok := feasibleWindow(task, date, dayStart, dayEnd); !ok {
		t.Errorf("expected a window exactly as long as the task duration to fit")
	}

	closeNarrow := wallClock(10, 29)
	task.CloseLocal = &closeNarrow
	if _, ok := feasibleWindow(task, date, dayStart, dayEnd); ok {
		t.Errorf("expected a window one minute narrower than the task duration to not fit")
	}
}

func TestSchedule_HomeTaskBackfillsIntoGap(t *testing.T) {
	in := Input{
		Date:      dateOf(2026, 8, 3),
		Today:     dateOf(2026, 8, 3),
		WorkStart: wallClock(9, 0),
		WorkEnd:   wallClock(17, 0),
		StartLat:  30.5427,
		StartLon:  -97.5467,
		HomeTasks: []domain.Task{
			{ID: "h1", Title: "Pay bills", DurationMin: 20, Priority: 2, Category: domain.CategoryHome},
		},
	}
	result, err := Schedule(context.Background(), in, haversineSegmenter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Overflow) != 0 {
		t.Fatalf("expected the home task to fit into the open day, got overflow %+v", result.Overflow)
	}
	found := false
	for _, it := range result.Items {
		if it.TaskID == "h1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected home task h1 to appear among scheduled items")
	}
}
