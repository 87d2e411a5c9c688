package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) (bool, error)
}

type accountNotifier interface {
	AccountDecision(ctx context.Context, userID string, approved bool)
}

// UpdateUserRequest payload for administrative profile updates.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	RoleID    *string `json:"role_id,omitempty"`
	VillageID *string `json:"village_id,omitempty"`
}

// UserService handles user administration and the registration decision.
type UserService struct {
	repo      userRepository
	roles     authRoleRepository
	audit     auditWriter
	notifier  accountNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, roles authRoleRepository, audit auditWriter, notifier accountNotifier, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, roles: roles, audit: audit, notifier: notifier, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Update mutates profile and assignment fields of a user. A role change
// takes effect for authorization only when the user next signs in.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.RoleID != nil {
		if _, err := s.roles.FindByID(ctx, *req.RoleID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
		}
		user.RoleID = *req.RoleID
	}
	if req.VillageID != nil {
		user.VillageID = req.VillageID
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	return user, nil
}

// Approve moves a PENDING registration to APPROVED. The decision is one-shot:
// an already decided account cannot be re-approved.
func (s *UserService) Approve(ctx context.Context, id, actorID string) error {
	return s.decide(ctx, id, actorID, models.StatusApproved)
}

// Reject moves a PENDING registration to REJECTED, permanently.
func (s *UserService) Reject(ctx context.Context, id, actorID string) error {
	return s.decide(ctx, id, actorID, models.StatusRejected)
}

func (s *UserService) decide(ctx context.Context, id, actorID string, status models.UserStatus) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.Status != models.StatusPending {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "registration has already been decided")
	}

	moved, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user status")
	}
	if !moved {
		// Lost a race against a concurrent decision on the same account.
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "registration has already been decided")
	}

	action := models.AuditActionUserApprove
	if status == models.StatusRejected {
		action = models.AuditActionUserReject
	}
	if err := s.audit.Create(ctx, &models.AuditLog{
		Action:  action,
		Details: "registration decision for " + user.Email,
		UserID:  actorID,
	}); err != nil {
		s.logger.Warn("failed to record registration decision audit log", zap.Error(err))
	}

	if s.notifier != nil {
		s.notifier.AccountDecision(ctx, id, status == models.StatusApproved)
	}

	return nil
}
