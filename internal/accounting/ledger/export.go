package ledger

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// File is a rendered export.
type File struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Export renders the ledger for q as a spreadsheet or PDF.
func (s *Service) Export(ctx context.Context, q Query, format string) (File, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatXLSX && format != FormatPDF {
		return File{}, httpx.FieldErrors{"format": "must be one of xlsx pdf"}
	}
	resp, err := s.Query(ctx, q)
	if err != nil {
		return File{}, err
	}
	base := fmt.Sprintf("ledger_%s_%s", resp.Account.Code, s.now().Format("2006-01-02"))
	switch format {
	case FormatXLSX:
		body, err := s.renderXLSX(resp)
		if err != nil {
			return File{}, err
		}
		return File{
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Body:        body,
		}, nil
	default:
		body, err := s.renderPDF(resp)
		if err != nil {
			return File{}, err
		}
		return File{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	}
}

func (s *Service) renderXLSX(resp Response) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Ledger"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", s.company)
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	_ = f.SetCellValue(sheet, "A2", fmt.Sprintf("%s %s", resp.Account.Code, resp.Account.Name))

	headers := []string{"Date", "Journal", "Description", "Debit", "Credit", "Balance"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheet, cell, h)
	}
	_ = f.SetCellStyle(sheet, "A4", "F4", headerStyle)

	row := 5
	if resp.OpeningBalance != nil {
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), "Opening balance")
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), resp.OpeningBalance.InexactFloat64())
		row++
	}
	for _, item := range resp.Items {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Date.String())
		if item.JournalNumber != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), *item.JournalNumber)
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Description)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Debit.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Credit.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.Balance.InexactFloat64())
		row++
	}
	_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), "Closing balance")
	_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), resp.ClosingBalance.InexactFloat64())
	_ = f.SetColWidth(sheet, "C", "C", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) renderPDF(resp Response) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr(s.company))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Ledger %s %s", resp.Account.Code, resp.Account.Name)))
	pdf.Ln(10)

	widths := []float64{28, 24, 110, 32, 32, 32}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(224, 224, 224)
	for i, h := range []string{"Date", "Journal", "Description", "Debit", "Credit", "Balance"} {
		align := "L"
		if i >= 3 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	if resp.OpeningBalance != nil {
		pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4], 6, "Opening balance", "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[5], 6, resp.OpeningBalance.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	for _, item := range resp.Items {
		number := ""
		if item.JournalNumber != nil {
			number = fmt.Sprintf("%d", *item.JournalNumber)
		}
		pdf.CellFormat(widths[0], 6, item.Date.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, number, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, tr(truncate(item.Description, 70)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, item.Debit.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, item.Credit.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, item.Balance.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4], 7, "Closing balance", "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[5], 7, resp.ClosingBalance.StringFixed(2), "1", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
