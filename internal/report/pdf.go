package report

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"dayplanner/internal/domain"
)

var (
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241}
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141}

	titleStyle = props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Center, Color: headerBgColor}
	h2Style    = props.Text{Size: 14, Style: fontstyle.Bold, Color: headerBgColor, Top: 5}
	normalText = props.Text{Size: 10}
	smallText  = props.Text{Size: 8, Color: darkGrayColor}
	boldText   = props.Text{Size: 10, Style: fontstyle.Bold}

	metricValueStyle = props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center, Color: primaryColor}
	metricLabelStyle = props.Text{Size: 9, Align: align.Center, Color: darkGrayColor}

	tableHeaderCell = &props.Cell{BackgroundColor: primaryColor}
	tableHeaderText = props.Text{Size: 9, Style: fontstyle.Bold, Color: &props.Color{Red: 255, Green: 255, Blue: 255}, Align: align.Center}
	tableCell       = &props.Cell{BorderType: border.Bottom, BorderColor: lightGrayColor}
	tableCellText   = props.Text{Size: 9, Align: align.Center}
)

// PDFExporter renders a one-page itinerary: a metrics header, the timeline
// table, overflow entries, and suggestions.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export renders plan for date as a single-page PDF.
func (e *PDFExporter) Export(date time.Time, plan domain.PlanResult) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14, text.NewCol(12, "Day Plan", titleStyle))
	m.AddRow(5, line.NewCol(12))
	m.AddRow(6,
		text.NewCol(6, date.Format("Monday, January 2 2006"), smallText),
		text.NewCol(6, fmt.Sprintf("%.1f km driven", plan.TotalKm), props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)
	m.AddRow(8)

	e.addMetrics(m, plan)
	e.addTimeline(m, plan)
	e.addOverflow(m, plan)
	e.addSuggestions(m, plan)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func (e *PDFExporter) addMetrics(m core.Maroto, plan domain.PlanResult) {
	fitsValue := "Yes"
	fitsStyle := metricValueStyle
	if !plan.Fits {
		fitsValue = "No"
		fitsStyle.Color = dangerColor
	}

	m.AddRow(18,
		col.New(4).Add(text.New(fmt.Sprintf("%.1f", plan.TotalKm), metricValueStyle), text.New("Total km", metricLabelStyle)),
		col.New(4).Add(text.New(fmt.Sprintf("%.0f min", plan.TotalDriveMinutes), metricValueStyle), text.New("Drive time", metricLabelStyle)),
		col.New(4).Add(text.New(fitsValue, fitsStyle), text.New("Fits in window", metricLabelStyle)),
	)
	m.AddRow(6)
}

func (e *PDFExporter) addTimeline(m core.Maroto, plan domain.PlanResult) {
	m.AddRow(9, text.NewCol(12, "Timeline", h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))

	m.AddRow(7,
		text.NewCol(2, "Start", tableHeaderText).WithStyle(tableHeaderCell),
		text.NewCol(2, "End", tableHeaderText).WithStyle(tableHeaderCell),
		text.NewCol(2, "Kind", tableHeaderText).WithStyle(tableHeaderCell),
		text.NewCol(6, "Detail", tableHeaderText).WithStyle(tableHeaderCell),
	)

	for _, it := range plan.Items {
		m.AddRow(6,
			text.NewCol(2, formatClock(it.Start), tableCellText).WithStyle(tableCell),
			text.NewCol(2, formatClock(it.End), tableCellText).WithStyle(tableCell),
			text.NewCol(2, kindLabel(it.Kind), tableCellText).WithStyle(tableCell),
			text.NewCol(6, itemDetail(it), props.Text{Size: 9, Align: align.Left}).WithStyle(tableCell),
		)
	}
	m.AddRow(6)
}

func (e *PDFExporter) addOverflow(m core.Maroto, plan domain.PlanResult) {
	if len(plan.Overflow) == 0 {
		return
	}
	m.AddRow(9, text.NewCol(12, "Didn't fit", h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))
	for _, o := range plan.Overflow {
		m.AddRow(6, text.NewCol(12, fmt.Sprintf("%s -- %s", o.Title, o.Reason), normalText))
	}
	m.AddRow(6)
}

func (e *PDFExporter) addSuggestions(m core.Maroto, plan domain.PlanResult) {
	if len(plan.Suggestions) == 0 {
		return
	}
	m.AddRow(9, text.NewCol(12, "Suggestions", h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))
	for i, s := range plan.Suggestions {
		m.AddRow(6, text.NewCol(12, fmt.Sprintf("%d. %s", i+1, s.Text), boldText))
	}
}
