package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	billing "dorm-billing/internal/billing/domain"
)

// BuildReceiptPDF renders a payment receipt.
func BuildReceiptPDF(payment *billing.Payment) ([]byte, error) {
	if payment == nil {
		return nil, errors.New("receipt pdf: nil payment")
	}
	breakdown := payment.Breakdown()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Payment Receipt")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Payment: %s", payment.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Stay: %s", payment.StayID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Issued: %s", payment.IssueDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", payment.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Units", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	lines := []struct {
		label  string
		units  string
		amount string
	}{
		{"Room", "", breakdown.Room.String()},
		{"Water", payment.WaterUnits.String(), breakdown.Water.String()},
		{"Electricity", payment.EleUnits.String(), breakdown.Electricity.String()},
	}
	if payment.Other.Sign() > 0 {
		label := "Other"
		if payment.OtherDetail != "" {
			label = "Other: " + payment.OtherDetail
		}
		lines = append(lines, struct {
			label  string
			units  string
			amount string
		}{label, "", breakdown.Other.String()})
	}
	for _, line := range lines {
		pdf.CellFormat(60, 6, line.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, line.units, "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, line.amount, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(100, 6, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, payment.Total.String(), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPaymentListXLSX renders a period listing.
func BuildPaymentListXLSX(year int, month time.Month, payments []*billing.Payment) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "payments"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Payments %04d-%02d", year, int(month)))

	headers := []string{"Payment", "Stay", "Date", "Room", "Water Units", "Electricity Units", "Other", "Total", "Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for i, payment := range payments {
		row := i + 4
		values := []any{
			payment.ID,
			payment.StayID,
			payment.IssueDate.Format("2006-01-02"),
			payment.RoomPrice.String(),
			payment.WaterUnits.String(),
			payment.EleUnits.String(),
			payment.Other.String(),
			payment.Total.String(),
			string(payment.Status),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
