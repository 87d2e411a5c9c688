package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	ListByReport(ctx context.Context, reportID string) ([]models.Document, error)
	ExistsByType(ctx context.Context, reportID string, docType models.DocumentType) (bool, error)
}

type documentReportReader interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
}

type uploadStore interface {
	Validate(size int64, mimeType string) error
	Save(originalName string, mimeType string, data []byte) (string, error)
}

// DocumentService manages case step documents. Each document type maps to
// its own upload permission so evidence of each procedural step stays under
// separate control.
type DocumentService struct {
	repo    documentRepository
	reports documentReportReader
	storage uploadStore
	audit   auditWriter
	logger  *zap.Logger
}

// NewDocumentService wires the document service.
func NewDocumentService(repo documentRepository, reports documentReportReader, storage uploadStore, audit auditWriter, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, reports: reports, storage: storage, audit: audit, logger: logger}
}

// Upload attaches a typed document to a report. The caller must hold the
// specific permission of the document's type; archived reports refuse any
// new documents.
func (s *DocumentService) Upload(ctx context.Context, reportID string, docType string, file FileUpload, claims *models.JWTClaims) (*models.Document, error) {
	dt := models.DocumentType(docType)
	if !models.ValidDocumentType(docType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document type %q", docType))
	}
	if !claims.HasPermission(dt.UploadPermission()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("missing permission to upload %s documents", dt))
	}

	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	if report.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "")
	}

	if err := s.storage.Validate(int64(len(file.Data)), file.MimeType); err != nil {
		return nil, err
	}

	url, err := s.storage.Save(file.Filename, file.MimeType, file.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	doc := &models.Document{
		ReportID:   reportID,
		Type:       dt,
		FileURL:    url,
		UploadedBy: claims.UserID,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}

	if err := s.audit.Create(ctx, &models.AuditLog{
		Action:   models.AuditActionDocumentUpload,
		Details:  fmt.Sprintf("uploaded %s document", dt),
		UserID:   claims.UserID,
		ReportID: &reportID,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}

	return doc, nil
}

// ListByReport returns the documents attached to a report.
func (s *DocumentService) ListByReport(ctx context.Context, reportID string, claims *models.JWTClaims) ([]models.Document, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	if !claims.HasPermission(models.PermReportViewAll) && report.ReporterID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	docs, err := s.repo.ListByReport(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}
