package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
)

// ErrStaleWrite signals that a report mutation lost a concurrent race: the
// row version moved (or the report was archived) between read and write.
var ErrStaleWrite = errors.New("stale report write")

// ReportRepository provides database access for incident reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `r.id, r.incident_type, r.urgency, r.is_anonymous, r.village_id, r.child_name, r.abuser_name, r.description, r.attachments, r.status, r.reporter_id, COALESCE(u.first_name || ' ' || u.last_name, '') AS reporter_name, r.analyst_id, r.is_archived, r.closure_decision, r.closed_at, r.version, r.created_at, r.updated_at`

// FindByID returns a report with the reporter display name resolved.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports r LEFT JOIN users u ON u.id = r.reporter_id WHERE r.id = $1 LIMIT 1`, reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	return &report, nil
}

// List returns reports based on filters with total count.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	baseQuery := `FROM reports r LEFT JOIN users u ON u.id = r.reporter_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Urgency != nil {
		conditions = append(conditions, fmt.Sprintf("r.urgency = $%d", len(args)+1))
		args = append(args, *filter.Urgency)
	}
	if filter.VillageID != "" {
		conditions = append(conditions, fmt.Sprintf("r.village_id = $%d", len(args)+1))
		args = append(args, filter.VillageID)
	}
	if filter.ReporterID != "" {
		conditions = append(conditions, fmt.Sprintf("r.reporter_id = $%d", len(args)+1))
		args = append(args, filter.ReporterID)
	}
	if filter.AnalystID != "" {
		conditions = append(conditions, fmt.Sprintf("r.analyst_id = $%d", len(args)+1))
		args = append(args, filter.AnalystID)
	}
	if filter.Archived != nil {
		conditions = append(conditions, fmt.Sprintf("r.is_archived = $%d", len(args)+1))
		args = append(args, *filter.Archived)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"urgency":    true,
		"status":     true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY r.%s %s LIMIT %d OFFSET %d", reportColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	return reports, total, nil
}

// Create inserts a new report at version 1.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now
	report.Version = 1

	const query = `INSERT INTO reports (id, incident_type, urgency, is_anonymous, village_id, child_name, abuser_name, description, attachments, status, reporter_id, analyst_id, is_archived, closure_decision, closed_at, version, created_at, updated_at) VALUES (:id, :incident_type, :urgency, :is_anonymous, :village_id, :child_name, :abuser_name, :description, :attachments, :status, :reporter_id, :analyst_id, :is_archived, :closure_decision, :closed_at, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// Update persists a report guarded by its version. The archived flag is also
// re-checked at write time so a close/update race can never mutate a report
// that became terminal after it was read.
func (r *ReportRepository) Update(ctx context.Context, report *models.Report) error {
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE reports SET incident_type = :incident_type, urgency = :urgency, child_name = :child_name, abuser_name = :abuser_name, description = :description, attachments = :attachments, status = :status, analyst_id = :analyst_id, is_archived = :is_archived, closure_decision = :closure_decision, closed_at = :closed_at, version = version + 1, updated_at = :updated_at WHERE id = :id AND version = :version AND reports.is_archived = FALSE`
	result, err := r.db.NamedExecContext(ctx, query, report)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if affected == 0 {
		return ErrStaleWrite
	}
	report.Version++
	return nil
}

// Delete removes a non-archived report permanently.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM reports WHERE id = $1 AND is_archived = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if affected == 0 {
		return ErrStaleWrite
	}
	return nil
}
