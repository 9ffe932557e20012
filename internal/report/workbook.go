package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ehr/examscore/internal/scoring"
)

const sheetName = "Scores"

// Row is one patient/score line of a cohort export.
type Row struct {
	PatientID string
	Title     string
	Label     string
	Result    scoring.Result
}

var workbookHeaders = []string{
	"Patient", "Score", "Label", "Value", "Display", "Interpretation", "Risk level", "Status", "Defaults applied", "Warnings",
}

var workbookWidths = []float64{16, 28, 16, 10, 14, 48, 14, 18, 24, 40}

// Workbook builds an xlsx file with one row per patient and score. The caller
// closes the returned file.
func Workbook(rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range workbookHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("set header style: %w", err)
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(sheetName, name, name, workbookWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := rowValues(row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	return f, nil
}

// WriteWorkbook writes the workbook for rows to w.
func WriteWorkbook(w io.Writer, rows []Row) error {
	f, err := Workbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rowValues(row Row) []any {
	r := row.Result
	title := row.Title
	if title == "" {
		title = string(r.Score)
	}
	var value any
	if r.Value != nil {
		value = *r.Value
	}
	var defaults []string
	for _, d := range r.DefaultsApplied {
		defaults = append(defaults, fmt.Sprintf("%s=%g", d.Field, d.Value))
	}
	return []any{
		row.PatientID,
		title,
		row.Label,
		value,
		r.Display,
		r.Interpretation,
		string(r.RiskLevel),
		string(r.Status),
		strings.Join(defaults, "; "),
		strings.Join(r.Warnings, "; "),
	}
}
