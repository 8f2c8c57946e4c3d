package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"dayplanner/internal/domain"
)

func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// XLSXExporter renders a PlanResult as a single-sheet workbook: a metrics
// block followed by one row per ScheduledItem, then overflow and
// suggestions sections.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Export renders plan for date as an .xlsx workbook.
func (e *XLSXExporter) Export(date time.Time, plan domain.PlanResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Itinerary"
	f.NewSheet(sheet)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	row := 1
	f.SetCellValue(sheet, cellAddr("A", row), "Day Plan")
	f.SetCellValue(sheet, cellAddr("B", row), date.Format("2006-01-02"))
	row += 2

	f.SetCellValue(sheet, cellAddr("A", row), "Total km")
	f.SetCellValue(sheet, cellAddr("B", row), plan.TotalKm)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Drive minutes")
	f.SetCellValue(sheet, cellAddr("B", row), plan.TotalDriveMinutes)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Fits in window")
	f.SetCellValue(sheet, cellAddr("B", row), plan.Fits)
	row++
	if !plan.Fits {
		f.SetCellValue(sheet, cellAddr("A", row), "Overtime")
		f.SetCellValue(sheet, cellAddr("B", row), plan.Overtime.String())
		row++
	}
	row++

	f.SetCellValue(sheet, cellAddr("A", row), "Timeline")
	row++
	headers := []string{"Start", "End", "Kind", "Detail"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(string(rune('A'+i)), row), h)
	}
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("D", row), headerStyle)
	row++

	for _, it := range plan.Items {
		f.SetCellValue(sheet, cellAddr("A", row), formatClock(it.Start))
		f.SetCellValue(sheet, cellAddr("B", row), formatClock(it.End))
		f.SetCellValue(sheet, cellAddr("C", row), kindLabel(it.Kind))
		f.SetCellValue(sheet, cellAddr("D", row), itemDetail(it))
		row++
	}
	row++

	if len(plan.Overflow) > 0 {
		f.SetCellValue(sheet, cellAddr("A", row), "Didn't fit")
		row++
		for _, o := range plan.Overflow {
			f.SetCellValue(sheet, cellAddr("A", row), o.Title)
			f.SetCellValue(sheet, cellAddr("B", row), o.Reason)
			row++
		}
		row++
	}

	if len(plan.Suggestions) > 0 {
		f.SetCellValue(sheet, cellAddr("A", row), "Suggestions")
		row++
		for _, s := range plan.Suggestions {
			f.SetCellValue(sheet, cellAddr("A", row), s.Text)
			row++
		}
	}

	f.SetColWidth(sheet, "A", "D", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
