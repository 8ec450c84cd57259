package services

import (
	"context"
	"fmt"
	"strings"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type CollectionService interface {
	Create(ctx context.Context, tenantID uuid.UUID, collection *models.Collection) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Collection, error)
	GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Collection, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*models.Collection, error)
	Tree(ctx context.Context, tenantID uuid.UUID) ([]*models.Collection, error)
	Update(ctx context.Context, tenantID uuid.UUID, collection *models.Collection) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type collectionService struct {
	collectionRepo repositories.CollectionRepository
}

func NewCollectionService(collectionRepo repositories.CollectionRepository) CollectionService {
	return &collectionService{collectionRepo: collectionRepo}
}

// normalizeNamed trims the name, fills a missing slug from it and validates both.
func normalizeNamed(v *common.ValidationError, name, slugValue *string) {
	*name = strings.TrimSpace(*name)
	v.Check("name", common.ValidateRequiredString(*name, "name"))
	if len(*name) > 255 {
		v.Add("name", "name cannot exceed 255 characters")
	}
	*slugValue = strings.TrimSpace(*slugValue)
	if *slugValue == "" {
		*slugValue = slug.Make(*name)
	}
	if *name != "" {
		v.Check("slug", common.ValidateSlug(*slugValue, "slug"))
	}
}

func (s *collectionService) Create(ctx context.Context, tenantID uuid.UUID, collection *models.Collection) error {
	v := common.NewValidationError()
	normalizeNamed(v, &collection.Name, &collection.Slug)
	v.Check("description", common.ValidateFreeText(collection.Description, "description"))
	if err := v.OrNil(); err != nil {
		return err
	}

	collection.ID = uuid.New()
	collection.TenantID = tenantID
	collection.Level = 0
	collection.Path = collection.Slug

	if collection.ParentID != nil {
		parent, err := s.collectionRepo.GetByID(ctx, tenantID, *collection.ParentID)
		if err != nil {
			if isNotFound(err) {
				return common.FieldError("parent_id", "parent collection does not exist")
			}
			return err
		}
		collection.Level = parent.Level + 1
		collection.Path = parent.Path + "/" + collection.Slug
	}

	if err := s.collectionRepo.Create(ctx, collection); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *collectionService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Collection, error) {
	return s.collectionRepo.GetByID(ctx, tenantID, id)
}

// GetBySlug returns the collection with its direct children attached.
func (s *collectionService) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Collection, error) {
	collection, err := s.collectionRepo.GetBySlug(ctx, tenantID, slug)
	if err != nil {
		return nil, err
	}
	children, err := s.collectionRepo.ListChildren(ctx, tenantID, &collection.ID)
	if err != nil {
		return nil, err
	}
	collection.Children = children
	return collection, nil
}

func (s *collectionService) List(ctx context.Context, tenantID uuid.UUID) ([]*models.Collection, error) {
	return s.collectionRepo.List(ctx, tenantID)
}

// Tree returns the root collections with their descendants nested.
func (s *collectionService) Tree(ctx context.Context, tenantID uuid.UUID) ([]*models.Collection, error) {
	all, err := s.collectionRepo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return BuildCollectionTree(all), nil
}

// BuildCollectionTree nests a flat list by parent id. Nodes whose parent is
// not in the list are treated as roots.
func BuildCollectionTree(all []*models.Collection) []*models.Collection {
	byID := make(map[uuid.UUID]*models.Collection, len(all))
	for _, c := range all {
		c.Children = nil
		byID[c.ID] = c
	}

	roots := make([]*models.Collection, 0)
	for _, c := range all {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Children = append(parent.Children, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}

func (s *collectionService) Update(ctx context.Context, tenantID uuid.UUID, collection *models.Collection) error {
	existing, err := s.collectionRepo.GetByID(ctx, tenantID, collection.ID)
	if err != nil {
		return err
	}

	v := common.NewValidationError()
	normalizeNamed(v, &collection.Name, &collection.Slug)
	v.Check("description", common.ValidateFreeText(collection.Description, "description"))
	if err := v.OrNil(); err != nil {
		return err
	}

	collection.TenantID = tenantID
	collection.Level = 0
	collection.Path = collection.Slug

	if collection.ParentID != nil {
		if *collection.ParentID == collection.ID {
			return common.FieldError("parent_id", "a collection cannot be its own parent")
		}
		parent, err := s.collectionRepo.GetByID(ctx, tenantID, *collection.ParentID)
		if err != nil {
			if isNotFound(err) {
				return common.FieldError("parent_id", "parent collection does not exist")
			}
			return err
		}
		if strings.HasPrefix(parent.Path+"/", existing.Path+"/") {
			return common.FieldError("parent_id", "a collection cannot be moved under its own descendant")
		}
		collection.Level = parent.Level + 1
		collection.Path = parent.Path + "/" + collection.Slug
	}

	if err := s.collectionRepo.UpdateHierarchy(ctx, collection, existing.Path, existing.Level); err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	return nil
}

func (s *collectionService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	children, err := s.collectionRepo.CountChildren(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("collection has %d child collections: %w", children, common.ErrHasChildren)
	}
	return s.collectionRepo.Delete(ctx, tenantID, id)
}
