package service

import (
	"context"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

type auditReader interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditService exposes read access to the append-only audit trail.
type AuditService struct {
	repo auditReader
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditReader) *AuditService {
	return &AuditService{repo: repo}
}

// List returns audit entries matching the filter, newest first.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	return entries, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}
