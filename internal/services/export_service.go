package services

import (
	"context"
	"fmt"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const catalogSheet = "Catalog"

// CatalogExportHeader is the first row of a vendor catalog workbook.
var CatalogExportHeader = []string{
	"Product",
	"Slug",
	"Status",
	"SKU",
	"Variant",
	"Stock",
	"Currency",
	"Price",
	"Min Quantity",
}

var catalogColumnWidths = []float64{30, 25, 12, 18, 25, 10, 10, 12, 14}

type ExportService interface {
	// ExportCatalog builds an .xlsx of the calling vendor's catalog, one row per variant.
	ExportCatalog(ctx context.Context, tenantID, userID uuid.UUID) ([]byte, error)
}

type exportService struct {
	productRepo repositories.ProductRepository
	vendorRepo  repositories.VendorRepository
}

func NewExportService(productRepo repositories.ProductRepository, vendorRepo repositories.VendorRepository) ExportService {
	return &exportService{productRepo: productRepo, vendorRepo: vendorRepo}
}

func (s *exportService) ExportCatalog(ctx context.Context, tenantID, userID uuid.UUID) ([]byte, error) {
	vendor, err := s.vendorRepo.GetByUserID(ctx, tenantID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user is not a vendor: %w", common.ErrForbidden)
		}
		return nil, err
	}

	rows, err := s.productRepo.ListExportRows(ctx, tenantID, vendor.ID)
	if err != nil {
		return nil, err
	}
	return GenerateCatalogWorkbook(rows)
}

// GenerateCatalogWorkbook renders export rows as an Excel workbook.
func GenerateCatalogWorkbook(rows []*models.CatalogExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(catalogSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(CatalogExportHeader))
	for i, h := range CatalogExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(catalogSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(CatalogExportHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(catalogSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range catalogColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(catalogSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		price, _ := row.Amount.Float64()
		values := []interface{}{
			row.ProductName,
			row.ProductSlug,
			row.Status,
			row.SKU,
			row.VariantName,
			row.Stock,
			row.Currency,
			price,
			row.MinQuantity,
		}
		if err := f.SetSheetRow(catalogSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
