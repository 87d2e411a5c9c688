package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
)

// DocumentRepository provides database access for case-file documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create appends a document to a report's case file.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO documents (id, type, file_url, uploaded_by, report_id, created_at) VALUES (:id, :type, :file_url, :uploaded_by, :report_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// ListByReport returns every document of a case file in upload order.
func (r *DocumentRepository) ListByReport(ctx context.Context, reportID string) ([]models.Document, error) {
	const query = `SELECT id, type, file_url, uploaded_by, report_id, created_at FROM documents WHERE report_id = $1 ORDER BY created_at ASC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, reportID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// ExistsByType reports whether the case file already holds a document of the
// given kind. The closure gate checks CLOSURE_DECISION through this.
func (r *DocumentRepository) ExistsByType(ctx context.Context, reportID string, docType models.DocumentType) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM documents WHERE report_id = $1 AND type = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, reportID, docType); err != nil {
		return false, fmt.Errorf("check document existence: %w", err)
	}
	return exists, nil
}
