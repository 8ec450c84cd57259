package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"
	"digimall/pkg/database"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type VendorService interface {
	Apply(ctx context.Context, tenantID, userID uuid.UUID, vendor *models.Vendor) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error)
	GetByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context, tenantID uuid.UUID, filter models.VendorFilter) ([]*models.Vendor, int, error)
	UpdateProfile(ctx context.Context, tenantID, userID uuid.UUID, update *models.Vendor) (*models.Vendor, error)

	Approve(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error)
	Reject(ctx context.Context, tenantID, id uuid.UUID, reason string) (*models.Vendor, error)
	Suspend(ctx context.Context, tenantID, id uuid.UUID, reason string) (*models.Vendor, error)
	Reinstate(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error)
}

type vendorService struct {
	vendorRepo   repositories.VendorRepository
	userRoleRepo repositories.UserRoleRepository
	tx           database.Transactor
	logger       *zap.Logger
}

func NewVendorService(vendorRepo repositories.VendorRepository, userRoleRepo repositories.UserRoleRepository, tx database.Transactor, logger *zap.Logger) VendorService {
	return &vendorService{
		vendorRepo:   vendorRepo,
		userRoleRepo: userRoleRepo,
		tx:           tx,
		logger:       logger,
	}
}

func validateVendorProfile(vendor *models.Vendor) error {
	v := common.NewValidationError()
	vendor.BusinessName = strings.TrimSpace(vendor.BusinessName)
	v.Check("business_name", common.ValidateRequiredString(vendor.BusinessName, "business_name"))
	if len(vendor.BusinessName) > 255 {
		v.Add("business_name", "business_name cannot exceed 255 characters")
	}
	vendor.ContactEmail = strings.ToLower(strings.TrimSpace(vendor.ContactEmail))
	v.Check("contact_email", common.ValidateEmail(vendor.ContactEmail, "contact_email"))
	v.Check("phone", common.ValidateOptionalString(vendor.Phone, "phone", 32))
	v.Check("description", common.ValidateFreeText(vendor.Description, "description"))
	return v.OrNil()
}

func (s *vendorService) Apply(ctx context.Context, tenantID, userID uuid.UUID, vendor *models.Vendor) error {
	if err := validateVendorProfile(vendor); err != nil {
		return err
	}

	if _, err := s.vendorRepo.GetByUserID(ctx, tenantID, userID); err == nil {
		return fmt.Errorf("user has already applied as a vendor: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	vendor.ID = uuid.New()
	vendor.TenantID = tenantID
	vendor.UserID = userID
	vendor.Slug = slug.Make(vendor.BusinessName)
	vendor.Status = models.VendorStatusPending
	vendor.StatusReason = nil
	vendor.ApprovedAt = nil

	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("vendor business name already taken: %w", err)
		}
		return fmt.Errorf("failed to create vendor: %w", err)
	}

	s.logger.Info("vendor application submitted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("vendor_id", vendor.ID.String()))
	return nil
}

func (s *vendorService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error) {
	return s.vendorRepo.GetByID(ctx, tenantID, id)
}

func (s *vendorService) GetByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*models.Vendor, error) {
	return s.vendorRepo.GetByUserID(ctx, tenantID, userID)
}

func (s *vendorService) List(ctx context.Context, tenantID uuid.UUID, filter models.VendorFilter) ([]*models.Vendor, int, error) {
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, common.FieldError("offset", err.Error())
	}
	filter.Limit, filter.Offset = limit, offset
	filter.Query = common.SanitizeSearchQuery(filter.Query)

	switch filter.Status {
	case "", models.VendorStatusPending, models.VendorStatusApproved, models.VendorStatusRejected, models.VendorStatusSuspended:
	default:
		return nil, 0, common.FieldError("status", "unknown vendor status")
	}
	return s.vendorRepo.List(ctx, tenantID, filter)
}

func (s *vendorService) UpdateProfile(ctx context.Context, tenantID, userID uuid.UUID, update *models.Vendor) (*models.Vendor, error) {
	vendor, err := s.vendorRepo.GetByUserID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if err := validateVendorProfile(update); err != nil {
		return nil, err
	}

	vendor.BusinessName = update.BusinessName
	vendor.Slug = slug.Make(update.BusinessName)
	vendor.Description = update.Description
	vendor.ContactEmail = update.ContactEmail
	vendor.Phone = update.Phone

	if err := s.vendorRepo.UpdateProfile(ctx, vendor); err != nil {
		return nil, fmt.Errorf("failed to update vendor: %w", err)
	}
	return vendor, nil
}

func (s *vendorService) Approve(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error) {
	return s.transition(ctx, tenantID, id, models.VendorStatusApproved, "")
}

func (s *vendorService) Reject(ctx context.Context, tenantID, id uuid.UUID, reason string) (*models.Vendor, error) {
	return s.transition(ctx, tenantID, id, models.VendorStatusRejected, reason)
}

func (s *vendorService) Suspend(ctx context.Context, tenantID, id uuid.UUID, reason string) (*models.Vendor, error) {
	return s.transition(ctx, tenantID, id, models.VendorStatusSuspended, reason)
}

func (s *vendorService) Reinstate(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error) {
	return s.transition(ctx, tenantID, id, models.VendorStatusApproved, "")
}

func (s *vendorService) transition(ctx context.Context, tenantID, id uuid.UUID, to, reason string) (*models.Vendor, error) {
	reason = strings.TrimSpace(reason)
	needsReason := to == models.VendorStatusRejected || to == models.VendorStatusSuspended
	if needsReason && reason == "" {
		return nil, common.FieldError("reason", "reason is required")
	}

	vendor, err := s.vendorRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	from := vendor.Status
	if !models.CanVendorTransition(from, to) {
		return nil, fmt.Errorf("vendor cannot move from %s to %s: %w", from, to, common.ErrInvalidTransition)
	}

	var reasonPtr *string
	if needsReason {
		reasonPtr = &reason
	}
	var approvedAt *time.Time
	if to == models.VendorStatusApproved {
		now := time.Now().UTC()
		approvedAt = &now
	} else {
		approvedAt = vendor.ApprovedAt
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.vendorRepo.UpdateStatus(ctx, tenantID, id, from, to, reasonPtr, approvedAt); err != nil {
			return err
		}

		var err error
		switch to {
		case models.VendorStatusApproved:
			err = s.userRoleRepo.Assign(ctx, tenantID, vendor.UserID, models.RoleVendor)
		case models.VendorStatusSuspended:
			err = s.userRoleRepo.Revoke(ctx, tenantID, vendor.UserID, models.RoleVendor)
		}
		if err != nil {
			return fmt.Errorf("failed to update vendor role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	vendor.Status = to
	vendor.StatusReason = reasonPtr
	vendor.ApprovedAt = approvedAt

	s.logger.Info("vendor status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("vendor_id", id.String()),
		zap.String("from", from),
		zap.String("to", to))
	return vendor, nil
}
