package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bevscan/bevscan/internal/repository"
)

// Service is a tiny façade over the invoice repository that produces XLSX
// bytes for exports.
type Service struct {
	invoices *repository.InvoiceRepo
	logger   *slog.Logger
}

func NewService(invoices *repository.InvoiceRepo, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) with one row per
// stored invoice, newest-first.
func (s *Service) ExportInvoicesXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	invoices, err := s.invoices.List(ctx, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Vendor",
		"Invoice Number",
		"Invoice Date",
		"Due Date",
		"Subtotal",
		"Tax",
		"Total",
		"Status",
		"Confidence",
		"File Path",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, inv := range invoices {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		vendor := inv.VendorName
		if vendor == "" {
			vendor = "Unknown"
		}

		write(1, vendor)
		write(2, inv.InvoiceNumber)
		write(3, inv.InvoiceDate)
		write(4, inv.DueDate)
		write(5, money(inv.Subtotal))
		write(6, money(inv.Tax))
		write(7, money(inv.Total))
		write(8, string(inv.Status))
		if inv.ConfidenceScore != nil {
			write(9, *inv.ConfidenceScore)
		} else {
			write(9, "")
		}
		write(10, inv.FilePath)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // vendor
	_ = f.SetColWidth(sheet, "B", "B", 18) // number
	_ = f.SetColWidth(sheet, "C", "D", 14) // dates
	_ = f.SetColWidth(sheet, "E", "G", 12) // amounts
	_ = f.SetColWidth(sheet, "J", "J", 60) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(invoices),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func money(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
