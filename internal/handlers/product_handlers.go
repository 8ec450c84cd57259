package handlers

import (
	"fmt"
	"net/http"
	"time"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProductHandlers handles storefront, vendor and admin product requests
type ProductHandlers struct {
	productService services.ProductService
	exportService  services.ExportService
}

func NewProductHandlers(productService services.ProductService, exportService services.ExportService) *ProductHandlers {
	return &ProductHandlers{
		productService: productService,
		exportService:  exportService,
	}
}

// parseSearchFilter reads the product listing query parameters.
func parseSearchFilter(c echo.Context) (*models.ProductSearchFilter, error) {
	limit, offset, err := pagination(c)
	if err != nil {
		return nil, err
	}
	filter := &models.ProductSearchFilter{
		Query:     c.QueryParam("q"),
		Status:    c.QueryParam("status"),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
		Limit:     limit,
		Offset:    offset,
	}

	if filter.CollectionID, err = queryUUID(c, "collection_id"); err != nil {
		return nil, err
	}
	if filter.BrandID, err = queryUUID(c, "brand_id"); err != nil {
		return nil, err
	}
	if filter.TagID, err = queryUUID(c, "tag_id"); err != nil {
		return nil, err
	}
	if filter.VendorID, err = queryUUID(c, "vendor_id"); err != nil {
		return nil, err
	}

	v := common.NewValidationError()
	filter.MinPrice = queryDecimal(c, v, "min_price")
	filter.MaxPrice = queryDecimal(c, v, "max_price")
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return filter, nil
}

func queryDecimal(c echo.Context, v *common.ValidationError, name string) *decimal.Decimal {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		v.Add(name, name+" must be a decimal number")
		return nil
	}
	return &d
}

// Storefront

// ListProducts handles GET /products
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	tenant, err := requestTenant(c)
	if err != nil {
		return err
	}
	filter, err := parseSearchFilter(c)
	if err != nil {
		return err
	}

	products, total, err := h.productService.SearchPublic(c.Request().Context(), tenant, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ListResponse{Items: products, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

// GetProduct handles GET /products/:id
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.productService.GetPublic(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// GetProductBySlug handles GET /products/slug/:slug
func (h *ProductHandlers) GetProductBySlug(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	product, err := h.productService.GetPublicBySlug(c.Request().Context(), tenantID, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// Administration

// SearchProducts handles GET /admin/products
func (h *ProductHandlers) SearchProducts(c echo.Context) error {
	tenant, err := requestTenant(c)
	if err != nil {
		return err
	}
	filter, err := parseSearchFilter(c)
	if err != nil {
		return err
	}
	filter.Currency = tenant.Currency

	products, total, err := h.productService.Search(c.Request().Context(), tenant.ID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ListResponse{Items: products, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

// Vendor catalog

// ListOwnProducts handles GET /vendor/products
func (h *ProductHandlers) ListOwnProducts(c echo.Context) error {
	tenant, err := requestTenant(c)
	if err != nil {
		return err
	}
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	filter, err := parseSearchFilter(c)
	if err != nil {
		return err
	}
	filter.Currency = tenant.Currency

	products, total, err := h.productService.ListOwn(c.Request().Context(), tenantID, userID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ListResponse{Items: products, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

// GetOwnProduct handles GET /vendor/products/:id
func (h *ProductHandlers) GetOwnProduct(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.productService.GetOwn(c.Request().Context(), tenantID, userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /vendor/products
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	var product models.Product
	if err := bindJSON(c, &product); err != nil {
		return err
	}
	if err := h.productService.Create(c.Request().Context(), tenantID, userID, &product); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, &product)
}

// UpdateProduct handles PUT /vendor/products/:id
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var product models.Product
	if err := bindJSON(c, &product); err != nil {
		return err
	}
	product.ID = id
	if err := h.productService.Update(c.Request().Context(), tenantID, userID, &product); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &product)
}

// DeleteProduct handles DELETE /vendor/products/:id
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.productService.Delete(c.Request().Context(), tenantID, userID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListVariants handles GET /vendor/products/:id/variants
func (h *ProductHandlers) ListVariants(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	variants, err := h.productService.ListVariants(c.Request().Context(), tenantID, userID, productID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, variants)
}

// CreateVariant handles POST /vendor/products/:id/variants
func (h *ProductHandlers) CreateVariant(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var variant models.ProductVariant
	if err := bindJSON(c, &variant); err != nil {
		return err
	}
	if err := h.productService.CreateVariant(c.Request().Context(), tenantID, userID, productID, &variant); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, &variant)
}

// UpdateVariant handles PUT /vendor/products/:id/variants/:variantId
func (h *ProductHandlers) UpdateVariant(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	variantID, err := pathID(c, "variantId")
	if err != nil {
		return err
	}
	var variant models.ProductVariant
	if err := bindJSON(c, &variant); err != nil {
		return err
	}
	variant.ID = variantID
	if err := h.productService.UpdateVariant(c.Request().Context(), tenantID, userID, productID, &variant); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &variant)
}

// DeleteVariant handles DELETE /vendor/products/:id/variants/:variantId
func (h *ProductHandlers) DeleteVariant(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	variantID, err := pathID(c, "variantId")
	if err != nil {
		return err
	}
	if err := h.productService.DeleteVariant(c.Request().Context(), tenantID, userID, productID, variantID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadProductImage handles POST /vendor/products/:id/images (multipart field "image")
func (h *ProductHandlers) UploadProductImage(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	file, err := c.FormFile("image")
	if err != nil {
		return common.FieldError("image", "image file is required")
	}
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	image, err := h.productService.UploadProductImage(c.Request().Context(), tenantID, userID, productID,
		file.Filename, file.Header.Get("Content-Type"), src, file.Size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, image)
}

// ListProductImages handles GET /vendor/products/:id/images
func (h *ProductHandlers) ListProductImages(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	images, err := h.productService.GetProductImages(c.Request().Context(), tenantID, userID, productID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, images)
}

// DeleteProductImage handles DELETE /vendor/products/:id/images/:imageId
func (h *ProductHandlers) DeleteProductImage(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := pathID(c, "imageId")
	if err != nil {
		return err
	}
	if err := h.productService.DeleteProductImage(c.Request().Context(), tenantID, userID, productID, imageID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ExportCatalog handles GET /vendor/products/export
func (h *ProductHandlers) ExportCatalog(c echo.Context) error {
	tenantID, userID, err := requestUser(c)
	if err != nil {
		return err
	}
	data, err := h.exportService.ExportCatalog(c.Request().Context(), tenantID, userID)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("catalog-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}
