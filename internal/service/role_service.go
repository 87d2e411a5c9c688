package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

type roleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id string) error
	CountUsers(ctx context.Context, roleID string) (int, error)
}

// CreateRoleRequest represents payload for creating roles.
type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Tier        string   `json:"tier" validate:"required,oneof=REPORTER ANALYST OVERSIGHT"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleRequest is a partial update. A provided Permissions slice fully
// replaces the stored set; it is never merged. Replacing is how a permission
// is deprecated from a role.
type UpdateRoleRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tier        *string   `json:"tier,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
}

// RoleService handles the role administration contract.
type RoleService struct {
	repo      roleRepository
	validator *validator.Validate
	logger    *zap.Logger
	strict    bool
}

// NewRoleService creates an instance of RoleService. When strict is set,
// permission strings outside the catalog are rejected at write time; lenient
// mode lets them through for forward compatibility with a catalog that grows
// ahead of a code deploy.
func NewRoleService(repo roleRepository, validate *validator.Validate, logger *zap.Logger, strict bool) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RoleService{repo: repo, validator: validate, logger: logger, strict: strict}
}

// List returns every role.
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	return roles, nil
}

// Get returns a role by ID.
func (s *RoleService) Get(ctx context.Context, id string) (*models.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	return role, nil
}

// ListAvailablePermissions returns the code-level permission catalog.
func (s *RoleService) ListAvailablePermissions() []models.Permission {
	return models.AllPermissions()
}

// Create adds a new role.
func (s *RoleService) Create(ctx context.Context, req CreateRoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create role payload")
	}

	if err := s.checkPermissions(req.Permissions); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "role name already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check role name uniqueness")
	}

	role := &models.Role{
		Name:        req.Name,
		Description: req.Description,
		Tier:        models.RoleTier(req.Tier),
		Permissions: models.NormalizePermissions(req.Permissions),
	}

	if err := s.repo.Create(ctx, role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create role")
	}

	return role, nil
}

// Update mutates a role. Outstanding tokens are unaffected until their
// holders re-authenticate.
func (s *RoleService) Update(ctx context.Context, id string, req UpdateRoleRequest) (*models.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}

	if req.Name != nil && *req.Name != role.Name {
		if _, err := s.repo.FindByName(ctx, *req.Name); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "role name already exists")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check role name uniqueness")
		}
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.Tier != nil {
		if !models.ValidTier(*req.Tier) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown tier %q", *req.Tier))
		}
		role.Tier = models.RoleTier(*req.Tier)
	}
	if req.Permissions != nil {
		if err := s.checkPermissions(*req.Permissions); err != nil {
			return nil, err
		}
		role.Permissions = models.NormalizePermissions(*req.Permissions)
	}

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	return role, nil
}

// Delete removes a role unless a user still references it.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}

	count, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count role members")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("role is still assigned to %d user(s)", count))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete role")
	}

	return nil
}

func (s *RoleService) checkPermissions(perms []string) error {
	if !s.strict {
		return nil
	}
	for _, p := range perms {
		if !models.ValidPermission(p) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown permission %q", p))
		}
	}
	return nil
}
