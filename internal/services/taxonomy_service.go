package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}

// BrandService manages tenant brands
type BrandService interface {
	Create(ctx context.Context, tenantID uuid.UUID, brand *models.Brand) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Brand, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Brand, error)
	Update(ctx context.Context, tenantID uuid.UUID, brand *models.Brand) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type brandService struct {
	brandRepo repositories.BrandRepository
}

func NewBrandService(brandRepo repositories.BrandRepository) BrandService {
	return &brandService{brandRepo: brandRepo}
}

func validateBrand(brand *models.Brand) error {
	v := common.NewValidationError()
	normalizeNamed(v, &brand.Name, &brand.Slug)
	v.Check("description", common.ValidateFreeText(brand.Description, "description"))
	v.Check("logo_url", common.ValidateOptionalString(brand.LogoURL, "logo_url", 2048))
	return v.OrNil()
}

func (s *brandService) Create(ctx context.Context, tenantID uuid.UUID, brand *models.Brand) error {
	if err := validateBrand(brand); err != nil {
		return err
	}
	brand.ID = uuid.New()
	brand.TenantID = tenantID
	if err := s.brandRepo.Create(ctx, brand); err != nil {
		return fmt.Errorf("failed to create brand: %w", err)
	}
	return nil
}

func (s *brandService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Brand, error) {
	return s.brandRepo.GetByID(ctx, tenantID, id)
}

func (s *brandService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Brand, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, common.FieldError("offset", err.Error())
	}
	return s.brandRepo.List(ctx, tenantID, limit, offset)
}

func (s *brandService) Update(ctx context.Context, tenantID uuid.UUID, brand *models.Brand) error {
	if err := validateBrand(brand); err != nil {
		return err
	}
	brand.TenantID = tenantID
	if err := s.brandRepo.Update(ctx, brand); err != nil {
		return fmt.Errorf("failed to update brand: %w", err)
	}
	return nil
}

func (s *brandService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.brandRepo.Delete(ctx, tenantID, id)
}

// AttributeService manages product attribute definitions
type AttributeService interface {
	Create(ctx context.Context, tenantID uuid.UUID, attribute *models.Attribute) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Attribute, error)
	List(ctx context.Context, tenantID uuid.UUID, filterableOnly bool) ([]*models.Attribute, error)
	Update(ctx context.Context, tenantID uuid.UUID, attribute *models.Attribute) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type attributeService struct {
	attributeRepo repositories.AttributeRepository
}

func NewAttributeService(attributeRepo repositories.AttributeRepository) AttributeService {
	return &attributeService{attributeRepo: attributeRepo}
}

var handlePattern = regexp.MustCompile(`^[a-z0-9]+(?:_[a-z0-9]+)*$`)

func validateAttribute(attribute *models.Attribute) error {
	v := common.NewValidationError()
	attribute.Name = strings.TrimSpace(attribute.Name)
	v.Check("name", common.ValidateRequiredString(attribute.Name, "name"))

	attribute.Handle = strings.TrimSpace(attribute.Handle)
	if attribute.Handle == "" {
		attribute.Handle = slug.MakeLang(attribute.Name, "en")
		attribute.Handle = strings.ReplaceAll(attribute.Handle, "-", "_")
	}
	if attribute.Name != "" && !handlePattern.MatchString(attribute.Handle) {
		v.Add("handle", "handle may only contain lowercase letters, digits and underscores")
	}

	attribute.Type = strings.ToLower(strings.TrimSpace(attribute.Type))
	if !models.IsValidAttributeType(attribute.Type) {
		v.Add("type", "type must be one of text, number, select, boolean")
	}

	if attribute.Type == models.AttributeTypeSelect {
		seen := make(map[string]bool, len(attribute.Values))
		values := make([]string, 0, len(attribute.Values))
		for _, value := range attribute.Values {
			value = strings.TrimSpace(value)
			if value == "" || seen[value] {
				continue
			}
			seen[value] = true
			values = append(values, value)
		}
		if len(values) == 0 {
			v.Add("values", "select attributes need at least one value")
		}
		attribute.Values = values
	} else {
		attribute.Values = []string{}
	}
	return v.OrNil()
}

// ValidateAttributeValue checks a product value against its attribute definition.
func ValidateAttributeValue(attribute *models.Attribute, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("value is required")
	}
	switch attribute.Type {
	case models.AttributeTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%s must be a number", attribute.Handle)
		}
	case models.AttributeTypeBoolean:
		if value != "true" && value != "false" {
			return fmt.Errorf("%s must be true or false", attribute.Handle)
		}
	case models.AttributeTypeSelect:
		for _, allowed := range attribute.Values {
			if allowed == value {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of %s", attribute.Handle, strings.Join(attribute.Values, ", "))
	}
	return nil
}

func (s *attributeService) Create(ctx context.Context, tenantID uuid.UUID, attribute *models.Attribute) error {
	if err := validateAttribute(attribute); err != nil {
		return err
	}
	attribute.ID = uuid.New()
	attribute.TenantID = tenantID
	if err := s.attributeRepo.Create(ctx, attribute); err != nil {
		return fmt.Errorf("failed to create attribute: %w", err)
	}
	return nil
}

func (s *attributeService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Attribute, error) {
	return s.attributeRepo.GetByID(ctx, tenantID, id)
}

func (s *attributeService) List(ctx context.Context, tenantID uuid.UUID, filterableOnly bool) ([]*models.Attribute, error) {
	return s.attributeRepo.List(ctx, tenantID, filterableOnly)
}

func (s *attributeService) Update(ctx context.Context, tenantID uuid.UUID, attribute *models.Attribute) error {
	if err := validateAttribute(attribute); err != nil {
		return err
	}
	attribute.TenantID = tenantID
	if err := s.attributeRepo.Update(ctx, attribute); err != nil {
		return fmt.Errorf("failed to update attribute: %w", err)
	}
	return nil
}

func (s *attributeService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.attributeRepo.Delete(ctx, tenantID, id)
}

// TagService manages product tags
type TagService interface {
	Create(ctx context.Context, tenantID uuid.UUID, tag *models.Tag) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Tag, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Tag, error)
	Update(ctx context.Context, tenantID uuid.UUID, tag *models.Tag) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type tagService struct {
	tagRepo repositories.TagRepository
}

func NewTagService(tagRepo repositories.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

func (s *tagService) Create(ctx context.Context, tenantID uuid.UUID, tag *models.Tag) error {
	v := common.NewValidationError()
	normalizeNamed(v, &tag.Name, &tag.Slug)
	if err := v.OrNil(); err != nil {
		return err
	}
	tag.ID = uuid.New()
	tag.TenantID = tenantID
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (s *tagService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Tag, error) {
	return s.tagRepo.GetByID(ctx, tenantID, id)
}

func (s *tagService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Tag, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, common.FieldError("offset", err.Error())
	}
	return s.tagRepo.List(ctx, tenantID, limit, offset)
}

func (s *tagService) Update(ctx context.Context, tenantID uuid.UUID, tag *models.Tag) error {
	v := common.NewValidationError()
	normalizeNamed(v, &tag.Name, &tag.Slug)
	if err := v.OrNil(); err != nil {
		return err
	}
	tag.TenantID = tenantID
	if err := s.tagRepo.Update(ctx, tag); err != nil {
		return fmt.Errorf("failed to update tag: %w", err)
	}
	return nil
}

func (s *tagService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.tagRepo.Delete(ctx, tenantID, id)
}
