// Package export renders a user's expenses as downloadable spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const (
	expenseSheet  = "Expenses"
	categorySheet = "By Category"
	dateLayout    = "2006-01-02"
)

var expenseHeaders = []string{"Date", "Description", "Category", "Amount", "Note", "Recurring"}

// ParseFormat resolves a format name; an empty name selects XLSX.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", apperrors.WithMessage(apperrors.ErrExportNotSupported,
		fmt.Sprintf("Unsupported export format %q, use xlsx or csv", name))
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename names the download for the given range.
func (f Format) Filename(from, to time.Time) string {
	return fmt.Sprintf("expenses_%s_%s.%s", from.Format(dateLayout), to.Format(dateLayout), f)
}

// Report is the data behind one export.
type Report struct {
	From       time.Time
	To         time.Time
	Expenses   []models.Expense
	Categories []services.CategoryTotal
}

// Write renders r in the requested format.
func Write(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	}
	return apperrors.ErrExportNotSupported
}

// WriteCSV writes one row per expense after a header row.
func WriteCSV(w io.Writer, r Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(expenseHeaders); err != nil {
		return err
	}
	for i := range r.Expenses {
		if err := writer.Write(expenseRow(&r.Expenses[i])); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func expenseRow(e *models.Expense) []string {
	recurring := ""
	if e.IsRecurring && e.RecurringFrequency != nil {
		recurring = string(*e.RecurringFrequency)
	}
	return []string{
		e.Date.Format(dateLayout),
		e.Description,
		e.CategoryName(),
		e.Amount.StringFixed(2),
		e.Note,
		recurring,
	}
}

// WriteXLSX writes a workbook with an expense sheet ending in a total row and
// a per-category summary sheet.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", expenseSheet); err != nil {
		return err
	}
	if err := writeExpenseSheet(f, styles, r); err != nil {
		return err
	}

	if _, err := f.NewSheet(categorySheet); err != nil {
		return err
	}
	if err := writeCategorySheet(f, styles, r); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

type sheetStyles struct {
	header  int
	money   int
	summary int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return sheetStyles{}, err
	}

	// Built-in format 4 is "#,##0.00".
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4, Border: border})
	if err != nil {
		return sheetStyles{}, err
	}

	summary, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		NumFmt: 4,
		Border: border,
	})
	if err != nil {
		return sheetStyles{}, err
	}

	return sheetStyles{header: header, money: money, summary: summary}, nil
}

func writeHeaders(f *excelize.File, sheet string, style int, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeExpenseSheet(f *excelize.File, s sheetStyles, r Report) error {
	if err := writeHeaders(f, expenseSheet, s.header, expenseHeaders); err != nil {
		return err
	}
	_ = f.SetColWidth(expenseSheet, "A", "A", 12)
	_ = f.SetColWidth(expenseSheet, "B", "C", 28)
	_ = f.SetColWidth(expenseSheet, "D", "D", 14)
	_ = f.SetColWidth(expenseSheet, "E", "E", 36)
	_ = f.SetColWidth(expenseSheet, "F", "F", 12)

	row := 2
	for i := range r.Expenses {
		values := expenseRow(&r.Expenses[i])
		cells := []any{values[0], values[1], values[2], r.Expenses[i].Amount.InexactFloat64(), values[4], values[5]}
		if err := f.SetSheetRow(expenseSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return err
		}
		if err := f.SetCellStyle(expenseSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), s.money); err != nil {
			return err
		}
		row++
	}

	label := fmt.Sprintf("Total %s to %s", r.From.Format(dateLayout), r.To.Format(dateLayout))
	if err := f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", row), label); err != nil {
		return err
	}
	if err := f.MergeCell(expenseSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row)); err != nil {
		return err
	}
	if row > 2 {
		if err := f.SetCellFormula(expenseSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("SUM(D2:D%d)", row-1)); err != nil {
			return err
		}
	} else if err := f.SetCellValue(expenseSheet, fmt.Sprintf("D%d", row), 0); err != nil {
		return err
	}
	return f.SetCellStyle(expenseSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), s.summary)
}

func writeCategorySheet(f *excelize.File, s sheetStyles, r Report) error {
	if err := writeHeaders(f, categorySheet, s.header, []string{"Category", "Total", "Count", "Average"}); err != nil {
		return err
	}
	_ = f.SetColWidth(categorySheet, "A", "A", 28)
	_ = f.SetColWidth(categorySheet, "B", "D", 14)

	for i, c := range r.Categories {
		row := i + 2
		cells := []any{c.CategoryName, c.Total.InexactFloat64(), c.Count, c.Average.InexactFloat64()}
		if err := f.SetSheetRow(categorySheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return err
		}
		if err := f.SetCellStyle(categorySheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), s.money); err != nil {
			return err
		}
		if err := f.SetCellStyle(categorySheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), s.money); err != nil {
			return err
		}
	}
	return nil
}
