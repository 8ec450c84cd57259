package handlers

import (
	"net/http"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/services"

	"github.com/labstack/echo/v4"
)

// TaxonomyHandlers serves collections, brands, attributes and tags. Reads
// are public on the storefront; writes require taxonomy:manage.
type TaxonomyHandlers struct {
	collectionService services.CollectionService
	brandService      services.BrandService
	attributeService  services.AttributeService
	tagService        services.TagService
}

func NewTaxonomyHandlers(
	collectionService services.CollectionService,
	brandService services.BrandService,
	attributeService services.AttributeService,
	tagService services.TagService,
) *TaxonomyHandlers {
	return &TaxonomyHandlers{
		collectionService: collectionService,
		brandService:      brandService,
		attributeService:  attributeService,
		tagService:        tagService,
	}
}

// Collections

// CollectionTree handles GET /collections
func (h *TaxonomyHandlers) CollectionTree(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	tree, err := h.collectionService.Tree(c.Request().Context(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tree)
}

// GetCollection handles GET /collections/:slug
func (h *TaxonomyHandlers) GetCollection(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	collection, err := h.collectionService.GetBySlug(c.Request().Context(), tenantID, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, collection)
}

// CreateCollection handles POST /admin/collections
func (h *TaxonomyHandlers) CreateCollection(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	var collection models.Collection
	if err := bindJSON(c, &collection); err != nil {
		return err
	}
	if err := h.collectionService.Create(c.Request().Context(), tenantID, &collection); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, &collection)
}

// UpdateCollection handles PUT /admin/collections/:id
func (h *TaxonomyHandlers) UpdateCollection(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var collection models.Collection
	if err := bindJSON(c, &collection); err != nil {
		return err
	}
	collection.ID = id
	if err := h.collectionService.Update(c.Request().Context(), tenantID, &collection); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &collection)
}

// DeleteCollection handles DELETE /admin/collections/:id
func (h *TaxonomyHandlers) DeleteCollection(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.collectionService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Brands

// ListBrands handles GET /brands
func (h *TaxonomyHandlers) ListBrands(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	brands, err := h.brandService.List(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, brands)
}

// GetBrand handles GET /brands/:id
func (h *TaxonomyHandlers) GetBrand(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	brand, err := h.brandService.GetByID(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, brand)
}

// CreateBrand handles POST /admin/brands
func (h *TaxonomyHandlers) CreateBrand(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	var brand models.Brand
	if err := bindJSON(c, &brand); err != nil {
		return err
	}
	if err := h.brandService.Create(c.Request().Context(), tenantID, &brand); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, &brand)
}

// UpdateBrand handles PUT /admin/brands/:id
func (h *TaxonomyHandlers) UpdateBrand(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var brand models.Brand
	if err := bindJSON(c, &brand); err != nil {
		return err
	}
	brand.ID = id
	if err := h.brandService.Update(c.Request().Context(), tenantID, &brand); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &brand)
}

// DeleteBrand handles DELETE /admin/brands/:id
func (h *TaxonomyHandlers) DeleteBrand(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.brandService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Attributes

// ListAttributes handles GET /attributes
func (h *TaxonomyHandlers) ListAttributes(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	attributes, err := h.attributeService.List(c.Request().Context(), tenantID, c.QueryParam("filterable") == "true")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, attributes)
}

// CreateAttribute handles POST /admin/attributes
func (h *TaxonomyHandlers) CreateAttribute(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	var attribute models.Attribute
	if err := bindJSON(c, &attribute); err != nil {
		return err
	}
	if err := h.attributeService.Create(c.Request().Context(), tenantID, &attribute); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, &attribute)
}

// UpdateAttribute handles PUT /admin/attributes/:id
func (h *TaxonomyHandlers) UpdateAttribute(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var attribute models.Attribute
	if err := bindJSON(c, &attribute); err != nil {
		return err
	}
	attribute.ID = id
	if err := h.attributeService.Update(c.Request().Context(), tenantID, &attribute); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &attribute)
}

// DeleteAttribute handles DELETE /admin/attributes/:id
func (h *TaxonomyHandlers) DeleteAttribute(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.attributeService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Tags

// ListTags handles GET /tags
func (h *TaxonomyHandlers) ListTags(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	tags, err := h.tagService.List(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

// CreateTag handles POST /admin/tags
func (h *TaxonomyHandlers) CreateTag(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	var tag models.Tag
	if err := bindJSON(c, &tag); err != nil {
		return err
	}
	if err := h.tagService.Create(c.Request().Context(), tenantID, &tag); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, &tag)
}

// UpdateTag handles PUT /admin/tags/:id
func (h *TaxonomyHandlers) UpdateTag(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var tag models.Tag
	if err := bindJSON(c, &tag); err != nil {
		return err
	}
	tag.ID = id
	if err := h.tagService.Update(c.Request().Context(), tenantID, &tag); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &tag)
}

// DeleteTag handles DELETE /admin/tags/:id
func (h *TaxonomyHandlers) DeleteTag(c echo.Context) error {
	tenantID, err := common.RequireTenant(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tagService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
