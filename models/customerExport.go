package models

import (
	"context"
	"fmt"
	"io"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"github.com/xuri/excelize/v2"
)

var customerExportHeaders = []string{
	"Name", "Email", "Phone", "Address", "Lokasi", "Teknisi Pemasangan",
	"PPPoE Username", "Package", "Status", "Installation Date",
}

const customerSheet = "Customers"

// ExportCustomersXLSX writes all customers into a workbook for backup.
func ExportCustomersXLSX(ctx context.Context) (*excelize.File, error) {
	customers, err := ListCustomers(ctx, "", "")
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", customerSheet)

	for col, header := range customerExportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(customerSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, customer := range customers {
		packageName := ""
		if customer.Package != nil {
			packageName = customer.Package.Name
		}
		pppoe := ""
		if customer.PppoeUsername != nil {
			pppoe = *customer.PppoeUsername
		}
		values := []interface{}{
			customer.Name,
			customer.Email,
			customer.Phone,
			customer.Address,
			customer.Lokasi,
			customer.TeknisiPemasangan,
			pppoe,
			packageName,
			string(customer.Status),
			customer.InstallationDate.Format("2006-01-02"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(customerSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// CustomerImportTemplateXLSX returns an empty workbook with the header row.
func CustomerImportTemplateXLSX() (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", customerSheet)
	for col, header := range customerExportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(customerSheet, cell, header); err != nil {
			return nil, err
		}
	}
	return f, nil
}

type CustomerImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportCustomersXLSX restores customers from a workbook produced by
// ExportCustomersXLSX. Packages are matched by name; rows that fail
// validation are skipped and reported, never aborting the batch.
func ImportCustomersXLSX(ctx context.Context, r io.Reader) (*CustomerImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var packages []*Package
	if err := db.WithContext(ctx).Find(&packages).Error; err != nil {
		return nil, err
	}
	packageByName := make(map[string]int, len(packages))
	for _, pkg := range packages {
		packageByName[pkg.Name] = pkg.ID
	}

	result := &CustomerImportResult{}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cell := func(idx int) string {
			if idx < len(row) {
				return row[idx]
			}
			return ""
		}

		packageId, ok := packageByName[cell(7)]
		if !ok {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown package %q", i+1, cell(7)))
			continue
		}

		input := &NewCustomer{
			Name:              cell(0),
			Email:             cell(1),
			Phone:             cell(2),
			Address:           cell(3),
			Lokasi:            cell(4),
			TeknisiPemasangan: cell(5),
			PppoeUsername:     cell(6),
			PackageId:         packageId,
			Status:            CustomerStatus(cell(8)),
		}
		if d, err := time.Parse("2006-01-02", cell(9)); err == nil {
			input.InstallationDate = &d
		}

		if _, err := CreateCustomer(ctx, input); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Imported++
	}
	return result, nil
}
