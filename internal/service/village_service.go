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

type villageRepository interface {
	FindByID(ctx context.Context, id string) (*models.Village, error)
	FindByName(ctx context.Context, name string) (*models.Village, error)
	List(ctx context.Context) ([]models.Village, error)
	Create(ctx context.Context, village *models.Village) error
	Update(ctx context.Context, village *models.Village) error
	Delete(ctx context.Context, id string) error
	CountReferences(ctx context.Context, villageID string) (int, error)
}

// CreateVillageRequest represents payload for creating villages.
type CreateVillageRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// UpdateVillageRequest payload for updating villages.
type UpdateVillageRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// VillageService handles village administration.
type VillageService struct {
	repo      villageRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVillageService creates an instance of VillageService.
func NewVillageService(repo villageRepository, validate *validator.Validate, logger *zap.Logger) *VillageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VillageService{repo: repo, validator: validate, logger: logger}
}

// List returns every village.
func (s *VillageService) List(ctx context.Context) ([]models.Village, error) {
	villages, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list villages")
	}
	return villages, nil
}

// Get returns a village by ID.
func (s *VillageService) Get(ctx context.Context, id string) (*models.Village, error) {
	village, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "village not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load village")
	}
	return village, nil
}

// Create adds a new village.
func (s *VillageService) Create(ctx context.Context, req CreateVillageRequest) (*models.Village, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create village payload")
	}

	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "village name already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check village name uniqueness")
	}

	village := &models.Village{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, village); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create village")
	}

	return village, nil
}

// Update mutates a village.
func (s *VillageService) Update(ctx context.Context, id string, req UpdateVillageRequest) (*models.Village, error) {
	village, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "village not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load village")
	}

	if req.Name != nil && *req.Name != village.Name {
		if _, err := s.repo.FindByName(ctx, *req.Name); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "village name already exists")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check village name uniqueness")
		}
		village.Name = *req.Name
	}
	if req.Description != nil {
		village.Description = *req.Description
	}

	if err := s.repo.Update(ctx, village); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update village")
	}

	return village, nil
}

// Delete removes a village unless users or reports still reference it.
func (s *VillageService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "village not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load village")
	}

	count, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count village references")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("village is still referenced by %d record(s)", count))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete village")
	}

	return nil
}
