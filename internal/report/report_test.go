package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"dayplanner/internal/domain"
)

func samplePlan() domain.PlanResult {
	base := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	return domain.PlanResult{
		Items: []domain.ScheduledItem{
			{Kind: domain.KindTravel, Start: base, End: base.Add(20 * time.Minute), FromName: "Home", ToName: "DMV", DistanceKm: 8.2, DurationMin: 20},
			{Kind: domain.KindTask, Start: base.Add(20 * time.Minute), End: base.Add(50 * time.Minute), Title: "Renew license", TaskID: "t1", Priority: 2},
		},
		Overflow:          []domain.OverflowEntry{{TaskID: "t2", Title: "Dentist", Reason: "no feasible time window"}},
		TotalKm:           8.2,
		TotalDriveMinutes: 20,
		Fits:              true,
		Suggestions:       []domain.Suggestion{{Text: "Leave 15 min earlier"}},
	}
}

func TestPDFExporter_Export_ProducesNonEmptyPDF(t *testing.T) {
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	out, err := NewPDFExporter().Export(date, samplePlan())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty PDF bytes")
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("expected output to start with the PDF magic header, got %q", out[:minInt(8, len(out))])
	}
}

func TestPDFExporter_Export_EmptyPlan(t *testing.T) {
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	out, err := NewPDFExporter().Export(date, domain.PlanResult{Fits: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty PDF bytes even for an empty plan")
	}
}

func TestXLSXExporter_Export_RoundTripsViaExcelize(t *testing.T) {
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	out, err := NewXLSXExporter().Export(date, samplePlan())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("failed to reopen generated workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Itinerary")
	if err != nil {
		t.Fatalf("failed to read Itinerary sheet: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected at least one row in the Itinerary sheet")
	}

	found := false
	for _, r := range rows {
		for _, c := range r {
			if c == "Renew license" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected task title to appear somewhere in the workbook")
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
