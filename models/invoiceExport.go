package models

import (
	"context"

	"github.com/xuri/excelize/v2"
)

var invoiceExportHeaders = []string{
	"Invoice Number", "Customer", "Package", "Period", "Amount",
	"Due Date", "Status", "Notes", "Created At",
}

const invoiceSheet = "Invoices"

// ExportInvoicesXLSX writes the filtered invoice list into a workbook.
func ExportInvoicesXLSX(ctx context.Context, status InvoiceStatus, period string) (*excelize.File, error) {
	invoices, err := ListInvoices(ctx, status, period)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", invoiceSheet)

	for col, header := range invoiceExportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(invoiceSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, invoice := range invoices {
		customerName := ""
		if invoice.Customer != nil {
			customerName = invoice.Customer.Name
		}
		packageName := ""
		if invoice.Package != nil {
			packageName = invoice.Package.Name
		}
		values := []interface{}{
			invoice.InvoiceNumber,
			customerName,
			packageName,
			invoice.Period,
			invoice.Amount.String(),
			invoice.DueDate.Format("2006-01-02"),
			string(invoice.Status),
			invoice.Notes,
			invoice.CreatedAt.Format("2006-01-02"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(invoiceSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}
