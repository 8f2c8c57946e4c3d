// Package scheduler lays an already-optimized list of errands onto a
// single day's timeline, respecting working hours, per-stop open/close
// windows, fixed blocks, and travel time, then reports what didn't fit
// and how to fix it. Like the optimizer, its body does no I/O: every
// travel duration comes from the injected Segmenter, and the only clock
// input is the caller-supplied "today" used for due-date urgency.
package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"dayplanner/internal/domain"
	"dayplanner/internal/routing"
)

const (
	dropThresholdFrac    = 0.70
	longTaskMinutes      = 30
	longTravelMinutes    = 15.0
	suggestionRoundMin   = 15
	maxSuggestions       = 5
	maxDropSuggestions   = 5 // bounded further by maxSuggestions overall
	maxLocationSuggested = 2
)

// Input is everything the scheduler needs for one plan date. Errands must
// already be in the Optimizer's chosen visit order; the main loop's score
// ties break by that order's index.
type Input struct {
	Date          time.Time // Y/M/D and Location matter; time-of-day is ignored
	Today         time.Time // caller's current date, for due-date urgency scoring
	WorkStart     time.Time // wall-clock time-of-day
	WorkEnd       time.Time
	StartLat      float64
	StartLon      float64
	ReturnToStart bool
	Errands       []domain.Task // location-based, in Optimizer order
	HomeTasks     []domain.Task // location-less, backfilled into gaps
	FixedBlocks   []domain.FixedBlock
}

// Schedule runs the full algorithm: feasibility, greedy insertion,
// return-home, home-task backfill, and suggestion generation.
func Schedule(ctx context.Context, in Input, segmenter routing.Segmenter) (domain.PlanResult, error) {
	dayStart := combineDateTime(in.Date, in.WorkStart)
	dayEnd := combineDateTime(in.Date, in.WorkEnd)

	var overflow []domain.OverflowEntry
	var items []domain.ScheduledItem

	for _, fb := range in.FixedBlocks {
		items = append(items, domain.ScheduledItem{
			Kind: domain.KindFixed, Start: fb.Start, End: fb.End, Title: fb.Title,
		})
	}

	feasible := make(map[string]window, len(in.Errands))
	for _, t := range in.Errands {
		if len(t.DaysOpen) > 0 && !weekdayIn(in.Date.Weekday(), t.DaysOpen) {
			overflow = append(overflow, domain.OverflowEntry{TaskID: t.ID, Title: t.Title, Reason: "closed on this day of week"})
			continue
		}
		if !t.HasLocation {
			overflow = append(overflow, domain.OverflowEntry{TaskID: t.ID, Title: t.Title, Reason: "missing location"})
			continue
		}
		w, ok := feasibleWindow(t, in.Date, dayStart, dayEnd)
		if !ok {
			overflow = append(overflow, domain.OverflowEntry{TaskID: t.ID, Title: t.Title, Reason: "no feasible time window"})
			continue
		}
		feasible[t.ID] = w
	}

	currentTime := dayStart
	curLat, curLon := in.StartLat, in.StartLon
	curName := "start"
	scheduled := make(map[string]bool)
	var totalKm, totalMin float64

	for {
		type candidate struct {
			task      domain.Task
			index     int
			route     routing.Segment
			arrival   time.Time
			taskStart time.Time
			taskEnd   time.Time
			score     float64
		}

		var best *candidate
		for idx, t := range in.Errands {
			if scheduled[t.ID] {
				continue
			}
			w, ok := feasible[t.ID]
			if !ok {
				continue
			}

			seg, err := segmenter.Segment(ctx, curLat, curLon, t.Lat, t.Lon)
			if err != nil {
				continue
			}

			arrival := currentTime.Add(time.Duration(seg.DurationMin * float64(time.Minute)))
			if arrival.After(w.end) {
				continue
			}
			taskStart := arrival
			if taskStart.Before(w.start) {
				taskStart = w.start
			}
			taskEnd := taskStart.Add(time.Duration(t.DurationMin) * time.Minute)
			if taskEnd.After(w.end) || taskEnd.After(dayEnd) {
				continue
			}
			if overlapsAny(items, taskStart, taskEnd) {
				continue
			}

			score := priorityScore(t, in.Today) - 2*seg.DurationMin

			c := candidate{task: t, index: idx, route: seg, arrival: arrival, taskStart: taskStart, taskEnd: taskEnd, score: score}
			if best == nil || score > best.score || (score == best.score && idx < best.index) {
				bc := c
				best = &bc
			}
		}

		if best == nil {
			break
		}

		if best.route.DistanceKm > 0 || best.arrival.After(currentTime) {
			items = append(items, domain.ScheduledItem{
				Kind:        domain.KindTravel,
				Start:       currentTime,
				End:         best.arrival,
				Title:       fmt.Sprintf("Drive to %s", best.task.DisplayName),
				FromName:    curName,
				ToName:      best.task.DisplayName,
				DistanceKm:  best.route.DistanceKm,
				DurationMin: best.route.DurationMin,
			})
			totalKm += best.route.DistanceKm
			totalMin += best.route.DurationMin
		}

		if best.taskStart.After(best.arrival) {
			items = append(items, domain.ScheduledItem{
				Kind: domain.KindWait, Start: best.arrival, End: best.taskStart, Title: "Wait",
			})
		}

		items = append(items, domain.ScheduledItem{
			Kind: domain.KindTask, Start: best.taskStart, End: best.taskEnd,
			Title: best.task.Title, TaskID: best.task.ID, Priority: best.task.Priority,
		})

		scheduled[best.task.ID] = true
		currentTime = best.taskEnd
		curLat, curLon = best.task.Lat, best.task.Lon
		curName = best.task.DisplayName
	}

	if in.ReturnToStart && (curLat != in.StartLat || curLon != in.StartLon) && currentTime.Before(dayEnd) {
		seg, err := segmenter.Segment(ctx, curLat, curLon, in.StartLat, in.StartLon)
		if err == nil {
			end := currentTime.Add(time.Duration(seg.DurationMin * float64(time.Minute)))
			items = append(items, domain.ScheduledItem{
				Kind: domain.KindTravel, Start: currentTime, End: end,
				Title: "Drive home", FromName: curName, ToName: "start",
				DistanceKm: seg.DistanceKm, DurationMin: seg.DurationMin,
			})
			totalKm += seg.DistanceKm
			totalMin += seg.DurationMin
			currentTime = end
		}
	}

	items = backfillHomeTasks(items, in.HomeTasks, dayStart, dayEnd, &overflow)

	sort.Slice(items, func(i, j int) bool { return items[i].Start.Before(items[j].Start) })

	result := domain.PlanResult{
		Items:             items,
		Overflow:          overflow,
		TotalKm:           totalKm,
		TotalDriveMinutes: totalMin,
	}

	scheduleEnd := dayEnd
	if len(items) > 0 {
		scheduleEnd = items[len(items)-1].End
		for _, it := range items {
			if it.End.After(scheduleEnd) {
				scheduleEnd = it.End
			}
		}
	}

	if scheduleEnd.After(dayEnd) {
		result.Fits = false
		result.Overtime = scheduleEnd.Sub(dayEnd)
		result.Buffer = 0
		result.Suggestions = generateSuggestions(items, result.Overtime)
	} else {
		result.Fits = true
		result.Overtime = 0
		result.Buffer = dayEnd.Sub(scheduleEnd)
	}

	return result, nil
}

type window struct {
	start time.Time
	end   time.Time
}

func combineDateTime(date, wallClock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		wallClock.Hour(), wallClock.Minute(), wallClock.Second(), 0, date.Location())
}

func weekdayIn(d time.Weekday, days []time.Weekday) bool {
	for _, w := range days {
		if w == d {
			return true
		}
	}
	return false
}

// feasibleWindow intersects the day window with the task's open/close and
// earliest/latest constraints; ok is false if the result can't hold the
// task's duration.
func feasibleWindow(t domain.Task, date, dayStart, dayEnd time.Time) (window, bool) {
	w := window{start: dayStart, end: dayEnd}

	if t.OpenLocal != nil && t.CloseLocal != nil {
		w.start = maxTime(w.start, combineDateTime(date, *t.OpenLocal))
		w.end = minTime(w.end, combineDateTime(date, *t.CloseLocal))
	}
	if t.EarliestStart != nil {
		w.start = maxTime(w.start, *t.EarliestStart)
	}
	if t.LatestEnd != nil {
		w.end = minTime(w.end, *t.LatestEnd)
	}

	if !w.start.Before(w.end) {
		return window{}, false
	}
	if w.end.Sub(w.start) < time.Duration(t.DurationMin)*time.Minute {
		return window{}, false
	}
	return w, true
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func overlapsAny(items []domain.ScheduledItem, start, end time.Time) bool {
	for _, it := range items {
		if start.Before(it.End) && it.Start.Before(end) {
			return true
		}
	}
	return false
}

// priorityScore combines stated priority with due-date urgency.
func priorityScore(t domain.Task, today time.Time) float64 {
	score := 10.0 * float64(t.Priority)
	if t.DueDate == nil {
		return score
	}

	due := truncateToDate(*t.DueDate)
	day := truncateToDate(today)

	switch {
	case !due.After(day):
		score += 100
	case due.Equal(day.AddDate(0, 0, 1)):
		score += 50
	case !due.After(day.AddDate(0, 0, 3)):
		score += 20
	}
	return score
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// backfillHomeTasks sorts location-less tasks by (due date ascending,
// priority descending) and fits each into the earliest free gap wide
// enough to hold it.
func backfillHomeTasks(items []domain.ScheduledItem, homeTasks []domain.Task, dayStart, dayEnd time.Time, overflow *[]domain.OverflowEntry) []domain.ScheduledItem {
	sorted := append([]domain.Task(nil), homeTasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i].DueDate, sorted[j].DueDate
		switch {
		case di == nil && dj == nil:
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.Before(*dj)
		}
		return sorted[i].Priority > sorted[j].Priority
	})

	for _, t := range sorted {
		gaps := freeGaps(items, dayStart, dayEnd)
		placed := false
		need := time.Duration(t.DurationMin) * time.Minute
		for _, g := range gaps {
			if g.end.Sub(g.start) >= need {
				items = append(items, domain.ScheduledItem{
					Kind: domain.KindTask, Start: g.start, End: g.start.Add(need),
					Title: t.Title, TaskID: t.ID, Priority: t.Priority,
				})
				placed = true
				break
			}
		}
		if !placed {
			*overflow = append(*overflow, domain.OverflowEntry{TaskID: t.ID, Title: t.Title, Reason: "no feasible time window"})
		}
	}

	return items
}

// freeGaps merges overlapping scheduled intervals and complements the
// result against the day window.
func freeGaps(items []domain.ScheduledItem, dayStart, dayEnd time.Time) []window {
	if len(items) == 0 {
		return []window{{start: dayStart, end: dayEnd}}
	}

	sorted := append([]domain.ScheduledItem(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var merged []window
	for _, it := range sorted {
		if len(merged) > 0 && !it.Start.After(merged[len(merged)-1].end) {
			if it.End.After(merged[len(merged)-1].end) {
				merged[len(merged)-1].end = it.End
			}
			continue
		}
		merged = append(merged, window{start: it.Start, end: it.End})
	}

	var gaps []window
	cursor := dayStart
	for _, m := range merged {
		if m.start.After(cursor) {
			gaps = append(gaps, window{start: cursor, end: m.start})
		}
		if m.end.After(cursor) {
			cursor = m.end
		}
	}
	if dayEnd.After(cursor) {
		gaps = append(gaps, window{start: cursor, end: dayEnd})
	}
	return gaps
}

// generateSuggestions implements the five ranked remediation rules,
// capped at maxSuggestions total.
func generateSuggestions(items []domain.ScheduledItem, overtime time.Duration) []domain.Suggestion {
	var out []domain.Suggestion
	overtimeMin := overtime.Minutes()

	if overtimeMin <= 60 {
		rounded := roundUpTo(overtimeMin, suggestionRoundMin)
		out = append(out, domain.Suggestion{Text: fmt.Sprintf("Leave %d min earlier", int(rounded))})
		out = append(out, domain.Suggestion{Text: fmt.Sprintf("Extend return-by time by %d min", int(rounded))})
	}

	out = append(out, dropSuggestions(items, overtimeMin)...)

	for _, it := range items {
		if it.Kind == domain.KindTask && it.End.Sub(it.Start) > longTaskMinutes*time.Minute {
			out = append(out, domain.Suggestion{Text: "Reduce duration of long tasks"})
			break
		}
	}

	out = append(out, longTravelSuggestions(items)...)

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func roundUpTo(x float64, step float64) float64 {
	return math.Ceil(x/step) * step
}

type dropCandidate struct {
	title     string
	priority  int
	timeSaved float64
}

// dropSuggestions estimates the time saved by dropping each scheduled
// task (its duration plus adjacent travel), ranks by (priority ascending,
// time-saved descending), and emits one suggestion per candidate clearing
// the dropThresholdFrac-of-overtime bar.
func dropSuggestions(items []domain.ScheduledItem, overtimeMin float64) []domain.Suggestion {
	var candidates []dropCandidate
	for i, it := range items {
		if it.Kind != domain.KindTask {
			continue
		}
		saved := it.End.Sub(it.Start).Minutes()
		if i > 0 && items[i-1].Kind == domain.KindTravel {
			saved += items[i-1].DurationMin
		}
		if i+1 < len(items) && items[i+1].Kind == domain.KindTravel {
			saved += items[i+1].DurationMin
		}
		candidates = append(candidates, dropCandidate{title: it.Title, priority: it.Priority, timeSaved: saved})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority < candidates[j].priority
		}
		return candidates[i].timeSaved > candidates[j].timeSaved
	})

	var out []domain.Suggestion
	threshold := overtimeMin * dropThresholdFrac
	for _, c := range candidates {
		if c.timeSaved >= threshold {
			out = append(out, domain.Suggestion{Text: fmt.Sprintf("Drop '%s'", c.title)})
		}
		if len(out) >= maxDropSuggestions {
			break
		}
	}
	return out
}

func longTravelSuggestions(items []domain.ScheduledItem) []domain.Suggestion {
	var out []domain.Suggestion
	for i, it := range items {
		if it.Kind != domain.KindTravel || it.DurationMin <= longTravelMinutes {
			continue
		}
		next := "the next stop"
		if i+1 < len(items) {
			next = items[i+1].Title
		}
		out = append(out, domain.Suggestion{Text: fmt.Sprintf("Choose closer location for '%s'", next)})
		if len(out) >= maxLocationSuggested {
			break
		}
	}
	return out
}
