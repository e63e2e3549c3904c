package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	finance "dorm-billing/internal/finance/domain"
)

func yearLabel(year int) string {
	if year == 0 {
		return "all years"
	}
	return fmt.Sprintf("%04d", year)
}

// BuildChartXLSX renders the monthly income-versus-expense chart.
func BuildChartXLSX(year int, chart [12]finance.MonthBucket) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "chart"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Income vs Expense, %s", yearLabel(year)))
	_ = f.SetCellValue(sheet, "A3", "Month")
	_ = f.SetCellValue(sheet, "B3", "Income")
	_ = f.SetCellValue(sheet, "C3", "Expense")
	for i, bucket := range chart {
		row := i + 4
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), bucket.Month.String())
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), bucket.Income.String())
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), bucket.Expense.String())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSummaryPDF renders the year summary with the closing balance.
func BuildSummaryPDF(year int, chart [12]finance.MonthBucket, balance decimal.Decimal) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Financial Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", yearLabel(year)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Income", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Expense", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, bucket := range chart {
		pdf.CellFormat(40, 6, bucket.Month.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, bucket.Income.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, bucket.Expense.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 6, "Balance", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, balance.String(), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
