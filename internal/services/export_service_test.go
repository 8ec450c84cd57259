package services

import (
	"bytes"
	"context"
	"testing"

	"digimall/internal/common"
	"digimall/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateCatalogWorkbook(t *testing.T) {
	rows := []*models.CatalogExportRow{
		{ProductName: "Tile Mug", ProductSlug: "tile-mug", Status: "published", SKU: "MUG-BLUE", VariantName: "Blue",
			Stock: 10, Currency: "EUR", Amount: decimal.RequireFromString("12.50"), MinQuantity: 1},
		{ProductName: "Tile Mug", ProductSlug: "tile-mug", Status: "published", SKU: "MUG-BLUE", VariantName: "Blue",
			Stock: 10, Currency: "EUR", Amount: decimal.RequireFromString("10"), MinQuantity: 10},
	}

	data, err := GenerateCatalogWorkbook(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Catalog"}, f.GetSheetList())
	got, err := f.GetRows("Catalog")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, CatalogExportHeader, got[0])
	assert.Equal(t, "MUG-BLUE", got[1][3])
	assert.Equal(t, "12.5", got[1][7])
	assert.Equal(t, "10", got[2][8])
}

func TestExportCatalog_RequiresVendor(t *testing.T) {
	ctx := context.Background()
	vendors := &MockVendorRepository{}
	tenantID, userID := uuid.New(), uuid.New()
	vendors.On("GetByUserID", ctx, tenantID, userID).Return(nil, common.ErrNotFound)

	_, err := NewExportService(&MockProductRepository{}, vendors).ExportCatalog(ctx, tenantID, userID)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestExportCatalog_ScopesToVendor(t *testing.T) {
	ctx := context.Background()
	vendors := &MockVendorRepository{}
	products := &MockProductRepository{}
	tenantID, userID := uuid.New(), uuid.New()
	vendor := &models.Vendor{ID: uuid.New(), TenantID: tenantID, UserID: userID}
	vendors.On("GetByUserID", ctx, tenantID, userID).Return(vendor, nil)
	products.On("ListExportRows", ctx, tenantID, vendor.ID).Return([]*models.CatalogExportRow{}, nil)

	data, err := NewExportService(products, vendors).ExportCatalog(ctx, tenantID, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	products.AssertExpectations(t)
}
