package services

import (
	"context"
	"fmt"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RBACService interface {
	UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error)
	GetUserPermissions(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error)
	GetUserRoles(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error)
	AssignRole(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error
	RevokeRole(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error
	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]*models.Role, error)
	ListPermissions(ctx context.Context) ([]*models.Permission, error)
}

type rbacService struct {
	userRoleRepo repositories.UserRoleRepository
	roleRepo     repositories.RoleRepository
	userRepo     repositories.UserRepository
	permRepo     repositories.PermissionRepository
	logger       *zap.Logger
}

func NewRBACService(userRoleRepo repositories.UserRoleRepository, roleRepo repositories.RoleRepository, userRepo repositories.UserRepository, permRepo repositories.PermissionRepository, logger *zap.Logger) RBACService {
	return &rbacService{
		userRoleRepo: userRoleRepo,
		roleRepo:     roleRepo,
		userRepo:     userRepo,
		permRepo:     permRepo,
		logger:       logger,
	}
}

func (s *rbacService) UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error) {
	return s.userRoleRepo.HasPermission(ctx, tenantID, userID, permissionName)
}

func (s *rbacService) GetUserPermissions(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error) {
	return s.userRoleRepo.ListPermissionNames(ctx, tenantID, userID)
}

func (s *rbacService) GetUserRoles(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error) {
	return s.userRoleRepo.ListRoleNames(ctx, tenantID, userID)
}

func (s *rbacService) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]*models.Role, error) {
	return s.roleRepo.List(ctx, tenantID)
}

// ListPermissions returns the platform-wide permission catalogue.
func (s *rbacService) ListPermissions(ctx context.Context) ([]*models.Permission, error) {
	return s.permRepo.List(ctx)
}

func (s *rbacService) AssignRole(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error {
	if err := s.checkTarget(ctx, tenantID, userID, roleName); err != nil {
		return err
	}
	if err := s.userRoleRepo.Assign(ctx, tenantID, userID, roleName); err != nil {
		return fmt.Errorf("failed to assign role %s: %w", roleName, err)
	}
	s.logger.Info("role assigned",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", roleName))
	return nil
}

func (s *rbacService) RevokeRole(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error {
	if err := s.checkTarget(ctx, tenantID, userID, roleName); err != nil {
		return err
	}
	if err := s.userRoleRepo.Revoke(ctx, tenantID, userID, roleName); err != nil {
		return fmt.Errorf("failed to revoke role %s: %w", roleName, err)
	}
	s.logger.Info("role revoked",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", roleName))
	return nil
}

// checkTarget confirms the user and role both live in the tenant.
func (s *rbacService) checkTarget(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error {
	if err := common.ValidateRequiredString(roleName, "role"); err != nil {
		return common.FieldError("role", err.Error())
	}
	if roleName == models.RoleSuperAdmin {
		return fmt.Errorf("role %s cannot be managed from a tenant: %w", roleName, common.ErrForbidden)
	}
	if _, err := s.userRepo.GetByID(ctx, tenantID, userID); err != nil {
		return err
	}
	if _, err := s.roleRepo.GetByName(ctx, tenantID, roleName); err != nil {
		return err
	}
	return nil
}
