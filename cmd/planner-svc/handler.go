package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dayplanner/internal/domain"
	"dayplanner/internal/mapurl"
	"dayplanner/internal/optimizer"
	"dayplanner/internal/packing"
	"dayplanner/internal/persistence"
	"dayplanner/internal/report"
	"dayplanner/internal/resolver"
	"dayplanner/internal/routing"
	"dayplanner/internal/scheduler"
	"dayplanner/pkg/apperror"
	"dayplanner/pkg/config"
	"dayplanner/pkg/metrics"
	"dayplanner/pkg/telemetry"
)

// handler wires the resolve -> optimize -> schedule pipeline behind the one
// HTTP endpoint this binary exposes.
type handler struct {
	store      persistence.Store
	resolver   *resolver.Resolver
	segmenter  routing.Segmenter
	cfg        *config.Config
	log        *slog.Logger
	metrics    *metrics.Metrics
	pdf        *report.PDFExporter
	xlsx       *report.XLSXExporter
	healthPing func(ctx context.Context) error
}

// planTaskRequest is one errand or home task in a plan request. Location-
// based tasks (Category == "errand") carry a free-text Query that the
// resolver turns into coordinates; home tasks need neither Query nor
// Address.
type planTaskRequest struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Query         string   `json:"query"`
	Address       string   `json:"address"`
	DurationMin   int      `json:"duration_min"`
	Priority      int      `json:"priority"`
	Category      string   `json:"category"`
	DueDate       *string  `json:"due_date"`
	Purpose       string   `json:"purpose"`
	DaysOpen      []int    `json:"days_open"`
	RequiredItems []string `json:"required_items"`
}

type planFixedBlockRequest struct {
	Title string `json:"title"`
	Start string `json:"start"` // "15:04"
	End   string `json:"end"`
}

type planRequest struct {
	Date          string                  `json:"date"` // "2006-01-02"
	ReturnToStart bool                    `json:"return_to_start"`
	Tasks         []planTaskRequest       `json:"tasks"`
	FixedBlocks   []planFixedBlockRequest `json:"fixed_blocks"`
}

type planResponse struct {
	Plan        domain.PlanResult `json:"plan"`
	MapURL      string            `json:"map_url,omitempty"`
	Unresolved  []string          `json:"unresolved,omitempty"`
	PackingList []string          `json:"packing_list,omitempty"`
}

// handlePlan runs one end-to-end planning pass: resolve every errand's
// query to a place, order the errands, lay them onto the day's timeline
// alongside fixed blocks and home tasks, then persist and return the plan.
func (h *handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, apperror.New(apperror.CodeInvalidArgument, "malformed request body"))
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, h.log, apperror.NewWithField(apperror.CodeInvalidTimeString, "date must be YYYY-MM-DD", "date"))
		return
	}

	settings, err := h.store.GetSettings(ctx)
	if err != nil {
		writeError(w, h.log, apperror.Wrap(err, apperror.CodeInternal, "failed to load settings"))
		return
	}
	if settings == nil || !settings.HomeCoordSet {
		writeError(w, h.log, apperror.ErrHomeNotSet)
		return
	}

	home := resolver.HomeContext{
		Lat:             settings.HomeLat,
		Lon:             settings.HomeLon,
		Country:         "",
		LocationContext: settings.HomeName,
		Set:             settings.HomeCoordSet,
	}

	errands, homeTasks, unresolved, err := h.resolveTasks(ctx, req.Tasks, home)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	ordered, optResult := h.orderErrands(ctx, settings.HomeLat, settings.HomeLon, errands, req.ReturnToStart)

	fixedBlocks := make([]domain.FixedBlock, 0, len(req.FixedBlocks))
	for _, fb := range req.FixedBlocks {
		start, err1 := time.Parse("15:04", fb.Start)
		end, err2 := time.Parse("15:04", fb.End)
		if err1 != nil || err2 != nil {
			continue
		}
		fixedBlocks = append(fixedBlocks, domain.FixedBlock{
			Date:  date,
			Start: combineDateTime(date, start),
			End:   combineDateTime(date, end),
			Title: fb.Title,
		})
	}

	plan, err := telemetry.TraceValue(ctx, "scheduler.Schedule", func(ctx context.Context) (domain.PlanResult, error) {
		return scheduleFn(ctx, settings, date, ordered, homeTasks, fixedBlocks, req.ReturnToStart, h.segmenter)
	})
	if err != nil {
		writeError(w, h.log, apperror.Wrap(err, apperror.CodeInternal, "scheduling failed"))
		return
	}
	h.metrics.RecordOptimize(string(optResult.Method), len(ordered), 0)
	telemetry.SetAttributes(ctx, telemetry.ScheduleAttributes(len(plan.Items), len(plan.Suggestions))...)
	for _, s := range plan.Suggestions {
		h.metrics.RecordScheduleSuggestion(suggestionReason(s.Text))
	}

	mapURL := buildMapURL(settings, ordered, req.ReturnToStart)

	if err := h.store.PutPlan(ctx, persistence.Plan{ID: date.Format("2006-01-02"), Date: date, Result: plan}); err != nil {
		h.log.Warn("failed to persist plan", "error", err)
	}

	purposes := make([]string, 0, len(req.Tasks))
	requiredByTask := make([][]string, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		purposes = append(purposes, t.Purpose)
		requiredByTask = append(requiredByTask, t.RequiredItems)
	}

	resp := planResponse{
		Plan:        plan,
		MapURL:      mapURL,
		Unresolved:  unresolved,
		PackingList: packing.ConsolidatedChecklist(purposes, requiredByTask),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// scheduleFn is split out from handlePlan so telemetry.TraceValue can wrap
// just the scheduling call with its own span.
func scheduleFn(ctx context.Context, settings *domain.Settings, date time.Time, errands, homeTasks []domain.Task, fixedBlocks []domain.FixedBlock, returnToStart bool, segmenter routing.Segmenter) (domain.PlanResult, error) {
	in := scheduler.Input{
		Date:          date,
		Today:         time.Now(),
		WorkStart:     settings.WorkStart,
		WorkEnd:       settings.WorkEnd,
		StartLat:      settings.HomeLat,
		StartLon:      settings.HomeLon,
		ReturnToStart: returnToStart,
		Errands:       errands,
		HomeTasks:     homeTasks,
		FixedBlocks:   fixedBlocks,
	}
	return scheduler.Schedule(ctx, in, segmenter)
}

func (h *handler) resolveTasks(ctx context.Context, reqs []planTaskRequest, home resolver.HomeContext) (errands, homeTasks []domain.Task, unresolved []string, err error) {
	for _, t := range reqs {
		task := domain.Task{
			ID:          t.ID,
			Title:       t.Title,
			DurationMin: t.DurationMin,
			Priority:    t.Priority,
			Purpose:     t.Purpose,
			Address:     t.Address,
		}
		if t.DueDate != nil {
			if d, perr := time.Parse("2006-01-02", *t.DueDate); perr == nil {
				task.DueDate = &d
			}
		}
		for _, d := range t.DaysOpen {
			task.DaysOpen = append(task.DaysOpen, time.Weekday(d))
		}

		if t.Category != "home" {
			task.Category = domain.CategoryErrand

			rp, rerr := telemetry.TraceValue(ctx, "resolver.Resolve", func(ctx context.Context) (*resolver.ResolvedPlace, error) {
				return h.resolver.Resolve(ctx, resolver.Query{ID: t.ID, Text: t.Query, Address: t.Address}, home)
			})
			if rerr != nil {
				return nil, nil, nil, rerr
			}
			h.metrics.RecordResolve(string(rp.Decision), rp.IsResolved(), 0)

			score := 0.0
			if rp.Selected != nil {
				score = rp.Selected.CombinedScore
			}
			telemetry.SetAttributes(ctx, telemetry.ResolveAttributes(string(rp.Decision), t.Query, rp.IsResolved(), score)...)

			if !rp.IsResolved() {
				unresolved = append(unresolved, t.Title)
				continue
			}

			task.HasLocation = true
			task.Lat = rp.Selected.Lat
			task.Lon = rp.Selected.Lon
			task.DisplayName = rp.Selected.Name
			if task.Address == "" {
				task.Address = rp.Selected.Address
			}
			errands = append(errands, task)
		} else {
			task.Category = domain.CategoryHome
			homeTasks = append(homeTasks, task)
		}
	}
	return errands, homeTasks, unresolved, nil
}

// orderErrands runs the optimizer over the resolved errands' coordinates
// and returns them reordered into the chosen visiting sequence, along with
// the optimizer's result (method used, distance savings).
func (h *handler) orderErrands(ctx context.Context, homeLat, homeLon float64, errands []domain.Task, returnToStart bool) ([]domain.Task, optimizer.Result) {
	if len(errands) == 0 {
		return errands, optimizer.Result{Order: []int{}, Method: optimizer.MethodNone}
	}
	stops := make([]optimizer.Stop, len(errands))
	for i, e := range errands {
		stops[i] = optimizer.Stop{Lat: e.Lat, Lon: e.Lon}
	}

	_, span := telemetry.StartSpan(ctx, "optimizer.Optimize")
	result := optimizer.Optimize(homeLat, homeLon, stops, returnToStart)
	span.SetAttributes(telemetry.OptimizeAttributes(string(result.Method), len(stops), result.TotalDistanceKm)...)
	span.End()

	ordered := make([]domain.Task, len(errands))
	for i, idx := range result.Order {
		ordered[i] = errands[idx]
	}
	return ordered, result
}

func buildMapURL(settings *domain.Settings, errands []domain.Task, returnToStart bool) string {
	if len(errands) == 0 {
		return ""
	}
	stops := make([]mapurl.Point, len(errands))
	for i, e := range errands {
		stops[i] = mapurl.Point{Lat: e.Lat, Lon: e.Lon}
	}
	return mapurl.Build(mapurl.Point{Lat: settings.HomeLat, Lon: settings.HomeLon}, stops, returnToStart)
}

// suggestionReason buckets a scheduler suggestion's free text into a
// coarse metric label, mirroring the reasons generateSuggestions emits.
func suggestionReason(text string) string {
	switch {
	case strings.HasPrefix(text, "Leave") || strings.HasPrefix(text, "Extend"):
		return "time_shift"
	case strings.HasPrefix(text, "Drop"):
		return "drop_task"
	case strings.HasPrefix(text, "Reduce"):
		return "shorten_task"
	case strings.HasPrefix(text, "Choose"):
		return "closer_location"
	default:
		return "other"
	}
}

func combineDateTime(date, wallClock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), wallClock.Hour(), wallClock.Minute(), 0, 0, date.Location())
}

// handleHealthz reports healthy only when the database is actually
// reachable, not just when the process is up.
func (h *handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.healthPing != nil {
		if err := h.healthPing(r.Context()); err != nil {
			h.log.WarnContext(r.Context(), "health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unhealthy"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleExportPDF renders the stored plan for ?date=YYYY-MM-DD as a one-page
// itinerary PDF.
func (h *handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	date, plan, err := h.loadPlanForExport(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out, err := h.pdf.Export(date, plan)
	if err != nil {
		writeError(w, h.log, apperror.Wrap(err, apperror.CodeInternal, "pdf export failed"))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary-`+date.Format("2006-01-02")+`.pdf"`)
	_, _ = w.Write(out)
}

// handleExportXLSX renders the stored plan for ?date=YYYY-MM-DD as a
// single-sheet workbook.
func (h *handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	date, plan, err := h.loadPlanForExport(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	out, err := h.xlsx.Export(date, plan)
	if err != nil {
		writeError(w, h.log, apperror.Wrap(err, apperror.CodeInternal, "xlsx export failed"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary-`+date.Format("2006-01-02")+`.xlsx"`)
	_, _ = w.Write(out)
}

func (h *handler) loadPlanForExport(r *http.Request) (time.Time, domain.PlanResult, error) {
	dateStr := r.URL.Query().Get("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, domain.PlanResult{}, apperror.NewWithField(apperror.CodeInvalidTimeString, "date must be YYYY-MM-DD", "date")
	}
	plan, err := h.store.GetPlanByDate(r.Context(), date)
	if err != nil {
		return time.Time{}, domain.PlanResult{}, apperror.Wrap(err, apperror.CodeInternal, "failed to load plan")
	}
	if plan == nil {
		return time.Time{}, domain.PlanResult{}, apperror.New(apperror.CodeNotFound, "no plan stored for date")
	}
	return date, plan.Result, nil
}

// withMiddleware applies the structured-logging and panic-recovery wrapper
// every route gets, and records the request in Prometheus.
func withMiddleware(next http.HandlerFunc, m *metrics.Metrics, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered in request handler", "panic", rec, "path", r.URL.Path)
				rw.WriteHeader(http.StatusInternalServerError)
			}
			m.RecordHTTPRequest(r.URL.Path, statusClass(rw.status), time.Since(start))
			log.Info("request handled", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
		}()

		next(rw, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
