package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/repository"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/export"
)

type reportRepository interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error)
	Create(ctx context.Context, report *models.Report) error
	Update(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id string) error
}

type documentReader interface {
	ListByReport(ctx context.Context, reportID string) ([]models.Document, error)
	ExistsByType(ctx context.Context, reportID string, docType models.DocumentType) (bool, error)
}

type reportUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListIDsByRoleTier(ctx context.Context, tier models.RoleTier) ([]string, error)
}

type voiceAnonymizer interface {
	Anonymize(ctx context.Context, filename string, audio []byte) ([]byte, error)
}

type fileStore interface {
	Save(originalName string, mimeType string, data []byte) (string, error)
}

// CaseEventSink receives case lifecycle events. The notification collaborator
// implements it; the engine owns the interface so the dependency points
// inward. Sink calls are fire-and-forget: their failure never rolls back a
// committed state change.
type CaseEventSink interface {
	ReportFiled(ctx context.Context, report *models.Report, recipientIDs []string)
	ReportAssigned(ctx context.Context, report *models.Report, analystID string)
	CaseClosed(ctx context.Context, report *models.Report)
}

// FileUpload carries one uploaded attachment through the create/update path.
type FileUpload struct {
	Filename string
	MimeType string
	Data     []byte
}

// CreateReportRequest represents payload for filing a report.
type CreateReportRequest struct {
	IncidentType string  `json:"incident_type" validate:"required"`
	Urgency      string  `json:"urgency" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	IsAnonymous  bool    `json:"is_anonymous"`
	VillageID    string  `json:"village_id" validate:"required"`
	ChildName    string  `json:"child_name" validate:"required"`
	AbuserName   *string `json:"abuser_name,omitempty"`
	Description  string  `json:"description" validate:"required"`

	Files []FileUpload `json:"-"`
}

// UpdateReportRequest is a partial update. Files are appended to the existing
// attachment list, never replacing it.
type UpdateReportRequest struct {
	IncidentType *string `json:"incident_type,omitempty"`
	Urgency      *string `json:"urgency,omitempty"`
	ChildName    *string `json:"child_name,omitempty"`
	AbuserName   *string `json:"abuser_name,omitempty"`
	Description  *string `json:"description,omitempty"`

	Files []FileUpload `json:"-"`
}

// CreateReportResult bundles the stored report with the advisory triage
// analysis of its narrative.
type CreateReportResult struct {
	Report *models.Report `json:"report"`
	Triage TriageResult   `json:"triage"`
}

// ReportService is the case lifecycle engine: it owns every state transition
// of a report and the guards around them. Archival is terminal; the archived
// check runs before any permission or field validation.
type ReportService struct {
	repo       reportRepository
	documents  documentReader
	users      reportUserRepository
	roles      authRoleRepository
	audit      auditWriter
	sink       CaseEventSink
	anonymizer voiceAnonymizer
	storage    fileStore
	triage     *TriageService
	exporter   *export.PDFExporter
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReportService constructs the case lifecycle engine.
func NewReportService(
	repo reportRepository,
	documents documentReader,
	users reportUserRepository,
	roles authRoleRepository,
	audit auditWriter,
	sink CaseEventSink,
	anonymizer voiceAnonymizer,
	storage fileStore,
	triage *TriageService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReportService{
		repo:       repo,
		documents:  documents,
		users:      users,
		roles:      roles,
		audit:      audit,
		sink:       sink,
		anonymizer: anonymizer,
		storage:    storage,
		triage:     triage,
		exporter:   export.NewPDFExporter(),
		validator:  validate,
		logger:     logger,
	}
}

// Create files a new report at PENDING. For an anonymous submission every
// audio attachment is routed through the voice anonymizer before it is
// stored; an anonymizer failure fails the whole create. The reporter's voice
// must never be persisted unanonymized.
func (s *ReportService) Create(ctx context.Context, req CreateReportRequest, claims *models.JWTClaims) (*CreateReportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create report payload")
	}

	attachments, err := s.storeFiles(ctx, req.Files, req.IsAnonymous)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		IncidentType: req.IncidentType,
		Urgency:      models.Urgency(req.Urgency),
		IsAnonymous:  req.IsAnonymous,
		VillageID:    req.VillageID,
		ChildName:    req.ChildName,
		AbuserName:   req.AbuserName,
		Description:  req.Description,
		Attachments:  attachments,
		Status:       models.ReportPending,
		ReporterID:   claims.UserID,
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}

	s.writeAudit(ctx, models.AuditActionReportCreate, fmt.Sprintf("filed %s report", report.Urgency), claims.UserID, report.ID)

	if report.Urgency.Urgent() {
		recipients, err := s.users.ListIDsByRoleTier(ctx, models.TierOversight)
		if err != nil {
			s.logger.Warn("failed to resolve oversight recipients", zap.Error(err))
		} else if s.sink != nil {
			s.sink.ReportFiled(ctx, report, recipients)
		}
	}

	result := &CreateReportResult{Report: report}
	if s.triage != nil {
		result.Triage = s.triage.Analyze(req.Description)
	}

	s.applyVisibility(report, claims)
	return result, nil
}

// Get returns a single report with the anonymity rule applied.
func (s *ReportService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.mayView(report, claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	s.applyVisibility(report, claims)
	return report, nil
}

// List returns reports visible to the caller. Callers without REPORT_VIEW_ALL
// are restricted to their own reports.
func (s *ReportService) List(ctx context.Context, filter models.ReportFilter, claims *models.JWTClaims) ([]models.Report, *models.Pagination, error) {
	if !claims.HasPermission(models.PermReportViewAll) {
		filter.ReporterID = claims.UserID
	}

	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}

	for i := range reports {
		s.applyVisibility(&reports[i], claims)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return reports, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Update edits report fields. Reporter-tier callers may only touch their own
// reports; holders of REPORT_VIEW_ALL may edit any. New files are appended.
func (s *ReportService) Update(ctx context.Context, id string, req UpdateReportRequest, claims *models.JWTClaims) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "")
	}
	if !s.mayEdit(report, claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you may only update your own reports")
	}

	if req.IncidentType != nil {
		report.IncidentType = *req.IncidentType
	}
	if req.Urgency != nil {
		if !models.ValidUrgency(*req.Urgency) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown urgency %q", *req.Urgency))
		}
		report.Urgency = models.Urgency(*req.Urgency)
	}
	if req.ChildName != nil {
		report.ChildName = *req.ChildName
	}
	if req.AbuserName != nil {
		report.AbuserName = req.AbuserName
	}
	if req.Description != nil {
		report.Description = *req.Description
	}

	if len(req.Files) > 0 {
		added, err := s.storeFiles(ctx, req.Files, report.IsAnonymous)
		if err != nil {
			return nil, err
		}
		report.Attachments = append(report.Attachments, added...)
	}

	if err := s.persist(ctx, report); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, models.AuditActionReportUpdate, "updated report fields", claims.UserID, report.ID)

	s.applyVisibility(report, claims)
	return report, nil
}

// Assign puts the report in progress under the given analyst. The assignee's
// role must be analyst-capable.
func (s *ReportService) Assign(ctx context.Context, id, analystID string, claims *models.JWTClaims) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "")
	}
	if report.Status != models.ReportPending && report.Status != models.ReportInProgress {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "report is no longer assignable")
	}

	analyst, err := s.users.FindByID(ctx, analystID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
	}
	if analyst.Status != models.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignee account is not approved")
	}

	role, err := s.roles.FindByID(ctx, analyst.RoleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee role")
	}
	if !role.AnalystCapable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("role %q cannot be assigned to cases", role.Name))
	}

	report.AnalystID = &analyst.ID
	report.Status = models.ReportInProgress

	if err := s.persist(ctx, report); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, models.AuditActionReportAssign, "assigned analyst "+analyst.ID, claims.UserID, report.ID)

	if s.sink != nil {
		s.sink.ReportAssigned(ctx, report, analyst.ID)
	}

	s.applyVisibility(report, claims)
	return report, nil
}

// Classify soft-closes a report as FALSE_ALARM or CLOSED. It sets closedAt
// but never archives: formal closure is a separate, gated operation.
func (s *ReportService) Classify(ctx context.Context, id, decision string, claims *models.JWTClaims) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "")
	}

	status := models.ReportStatus(strings.ToUpper(decision))
	if status != models.ReportFalseAlarm && status != models.ReportClosed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classification must be FALSE_ALARM or CLOSED")
	}

	now := time.Now().UTC()
	report.Status = status
	report.ClosedAt = &now

	if err := s.persist(ctx, report); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, models.AuditActionReportClassify, "classified as "+string(status), claims.UserID, report.ID)

	s.applyVisibility(report, claims)
	return report, nil
}

// Close formally archives the case. A CLOSURE_DECISION document must already
// be attached; once closed the report is terminal and immutable.
func (s *ReportService) Close(ctx context.Context, id, closureDecision string, claims *models.JWTClaims) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "")
	}

	hasClosureDoc, err := s.documents.ExistsByType(ctx, report.ID, models.DocClosureDecision)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check closure document")
	}
	if !hasClosureDoc {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "a closure decision document must be uploaded before the case can be archived")
	}

	now := time.Now().UTC()
	report.Status = models.ReportClosed
	report.IsArchived = true
	report.ClosedAt = &now
	if closureDecision != "" {
		report.ClosureDecision = &closureDecision
	}

	if err := s.persist(ctx, report); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, models.AuditActionReportClose, "case formally closed and archived", claims.UserID, report.ID)

	if s.sink != nil {
		s.sink.CaseClosed(ctx, report)
	}

	s.applyVisibility(report, claims)
	return report, nil
}

// Delete removes a non-archived report. The audit entry is written before
// the destructive delete so the trail keeps the report's last known state,
// even though its report reference dangles afterwards.
func (s *ReportService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	report, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if report.IsArchived {
		return appErrors.Clone(appErrors.ErrArchived, "")
	}
	if !s.mayEdit(report, claims) {
		return appErrors.Clone(appErrors.ErrForbidden, "you may only delete your own reports")
	}

	s.writeAudit(ctx, models.AuditActionReportDelete,
		fmt.Sprintf("deleting report (status %s, urgency %s)", report.Status, report.Urgency),
		claims.UserID, report.ID)

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return appErrors.Clone(appErrors.ErrArchived, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}

	return nil
}

// ExportPDF renders the case file of a report as a PDF document.
func (s *ReportService) ExportPDF(ctx context.Context, id string, claims *models.JWTClaims) ([]byte, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.mayView(report, claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	s.applyVisibility(report, claims)

	docs, err := s.documents.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case documents")
	}

	file := export.CaseFile{
		Title: "Case file " + report.ID,
		Fields: []export.Field{
			{Label: "Incident type", Value: report.IncidentType},
			{Label: "Urgency", Value: string(report.Urgency)},
			{Label: "Status", Value: string(report.Status)},
			{Label: "Village", Value: report.VillageID},
			{Label: "Child", Value: report.ChildName},
			{Label: "Reporter", Value: report.ReporterName},
			{Label: "Description", Value: report.Description},
			{Label: "Filed at", Value: report.CreatedAt.Format(time.RFC3339)},
		},
	}
	for _, doc := range docs {
		file.Documents = append(file.Documents, export.DocumentRow{
			Type:       string(doc.Type),
			UploadedBy: doc.UploadedBy,
			UploadedAt: doc.CreatedAt.Format(time.RFC3339),
		})
	}

	data, err := s.exporter.Render(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render case file")
	}
	return data, nil
}

func (s *ReportService) load(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

func (s *ReportService) persist(ctx context.Context, report *models.Report) error {
	if err := s.repo.Update(ctx, report); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return appErrors.Clone(appErrors.ErrConflict, "report was modified concurrently, reload and retry")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}
	return nil
}

func (s *ReportService) storeFiles(ctx context.Context, files []FileUpload, anonymous bool) (models.AttachmentList, error) {
	if len(files) == 0 {
		return nil, nil
	}

	attachments := make(models.AttachmentList, 0, len(files))
	for _, file := range files {
		data := file.Data
		if anonymous && isAudio(file.MimeType) {
			anonymized, err := s.anonymizer.Anonymize(ctx, file.Filename, data)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status,
					"voice anonymization failed, the report was not saved")
			}
			data = anonymized
		}

		url, err := s.storage.Save(file.Filename, file.MimeType, data)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, models.Attachment{
			URL:      url,
			Type:     file.MimeType,
			Filename: file.Filename,
		})
	}
	return attachments, nil
}

func (s *ReportService) mayView(report *models.Report, claims *models.JWTClaims) bool {
	if claims.HasPermission(models.PermReportViewAll) {
		return true
	}
	return report.ReporterID == claims.UserID
}

func (s *ReportService) mayEdit(report *models.Report, claims *models.JWTClaims) bool {
	if claims.HasPermission(models.PermReportViewAll) {
		return true
	}
	return report.ReporterID == claims.UserID
}

// applyVisibility withholds the reporter identity of an anonymous report.
// Only the reporter themself and the oversight tier see the true identity;
// REPORT_VIEW_ALL alone opens the case, not the identity.
func (s *ReportService) applyVisibility(report *models.Report, claims *models.JWTClaims) {
	if !report.IsAnonymous {
		return
	}
	if claims != nil && (claims.UserID == report.ReporterID || claims.RoleTier == models.TierOversight) {
		return
	}
	report.Redact()
}

func (s *ReportService) writeAudit(ctx context.Context, action, details, userID, reportID string) {
	if err := s.audit.Create(ctx, &models.AuditLog{
		Action:   action,
		Details:  details,
		UserID:   userID,
		ReportID: &reportID,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func isAudio(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "audio/")
}
