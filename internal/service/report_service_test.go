package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/repository"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

type reportRepoMock struct {
	byID      map[string]*models.Report
	created   *models.Report
	updated   *models.Report
	deleted   string
	updateErr error
}

func (m *reportRepoMock) FindByID(ctx context.Context, id string) (*models.Report, error) {
	if report, ok := m.byID[id]; ok {
		clone := *report
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *reportRepoMock) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	var out []models.Report
	for _, report := range m.byID {
		if filter.ReporterID != "" && report.ReporterID != filter.ReporterID {
			continue
		}
		out = append(out, *report)
	}
	return out, len(out), nil
}

func (m *reportRepoMock) Create(ctx context.Context, report *models.Report) error {
	report.ID = "r-new"
	report.Version = 1
	m.created = report
	return nil
}

func (m *reportRepoMock) Update(ctx context.Context, report *models.Report) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = report
	return nil
}

func (m *reportRepoMock) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

type documentsMock struct {
	hasClosureDoc bool
	docs          []models.Document
}

func (m *documentsMock) ListByReport(ctx context.Context, reportID string) ([]models.Document, error) {
	return m.docs, nil
}

func (m *documentsMock) ExistsByType(ctx context.Context, reportID string, docType models.DocumentType) (bool, error) {
	if docType == models.DocClosureDecision {
		return m.hasClosureDoc, nil
	}
	return false, nil
}

type reportUsersMock struct {
	byID         map[string]*models.User
	oversightIDs []string
}

func (m *reportUsersMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.byID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *reportUsersMock) ListIDsByRoleTier(ctx context.Context, tier models.RoleTier) ([]string, error) {
	return m.oversightIDs, nil
}

type sinkMock struct {
	filedReport    *models.Report
	filedRecipient []string
	assignedTo     string
	closedReport   *models.Report
}

func (m *sinkMock) ReportFiled(ctx context.Context, report *models.Report, recipientIDs []string) {
	m.filedReport = report
	m.filedRecipient = recipientIDs
}

func (m *sinkMock) ReportAssigned(ctx context.Context, report *models.Report, analystID string) {
	m.assignedTo = analystID
}

func (m *sinkMock) CaseClosed(ctx context.Context, report *models.Report) {
	m.closedReport = report
}

type anonymizerMock struct {
	calls int
	err   error
}

func (m *anonymizerMock) Anonymize(ctx context.Context, filename string, audio []byte) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []byte("anonymized:" + filename), nil
}

type storeMock struct {
	saved map[string][]byte
}

func (m *storeMock) Save(originalName string, mimeType string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[originalName] = data
	return "/uploads/" + originalName, nil
}

type reportFixture struct {
	svc        *ReportService
	repo       *reportRepoMock
	docs       *documentsMock
	users      *reportUsersMock
	sink       *sinkMock
	anonymizer *anonymizerMock
	store      *storeMock
	audit      *auditMock
}

func newReportFixture() *reportFixture {
	repo := &reportRepoMock{byID: map[string]*models.Report{
		"r-open": {
			ID: "r-open", IncidentType: "NEGLECT", Urgency: models.UrgencyLow,
			VillageID: "v1", ChildName: "Child A", Description: "narrative",
			Status: models.ReportPending, ReporterID: "u-reporter",
			ReporterName: "Jane Doe", Version: 1,
		},
		"r-anon": {
			ID: "r-anon", IncidentType: "ABUSE", Urgency: models.UrgencyHigh,
			VillageID: "v1", ChildName: "Child B", Description: "narrative",
			Status: models.ReportPending, ReporterID: "u-reporter",
			ReporterName: "Jane Doe", IsAnonymous: true, Version: 1,
		},
		"r-archived": {
			ID: "r-archived", IncidentType: "ABUSE", Urgency: models.UrgencyHigh,
			VillageID: "v1", ChildName: "Child C", Description: "narrative",
			Status: models.ReportClosed, ReporterID: "u-reporter",
			IsArchived: true, Version: 4,
		},
	}}
	docs := &documentsMock{}
	users := &reportUsersMock{
		byID: map[string]*models.User{
			"u-analyst":  {ID: "u-analyst", RoleID: "role-analyst", Status: models.StatusApproved},
			"u-reporter": {ID: "u-reporter", RoleID: "role-reporter", Status: models.StatusApproved},
		},
		oversightIDs: []string{"u-chief"},
	}
	roles := &authRolesMock{roles: map[string]*models.Role{
		"role-analyst":  {ID: "role-analyst", Name: "Case Analyst", Tier: models.TierAnalyst},
		"role-reporter": {ID: "role-reporter", Name: "Field Agent", Tier: models.TierReporter},
	}}
	sink := &sinkMock{}
	anon := &anonymizerMock{}
	store := &storeMock{}
	audit := &auditMock{}

	svc := NewReportService(repo, docs, users, roles, audit, sink, anon, store, NewTriageService(nil), nil, nil)
	return &reportFixture{svc: svc, repo: repo, docs: docs, users: users, sink: sink, anonymizer: anon, store: store, audit: audit}
}

func reporterClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-reporter", RoleTier: models.TierReporter, Permissions: []string{"REPORT_CREATE", "REPORT_VIEW", "REPORT_UPDATE", "REPORT_DELETE"}}
}

func analystClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-analyst", RoleTier: models.TierAnalyst, Permissions: []string{
		"REPORT_VIEW", "REPORT_VIEW_ALL", "REPORT_UPDATE", "REPORT_ASSIGN",
		"REPORT_CLASSIFY", "CASE_CLOSE", "CASE_EXPORT",
	}}
}

func oversightClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-chief", RoleTier: models.TierOversight, Permissions: []string{
		"REPORT_VIEW", "REPORT_VIEW_ALL", "REPORT_UPDATE", "REPORT_ASSIGN",
		"REPORT_CLASSIFY", "CASE_CLOSE", "CASE_EXPORT",
	}}
}

func TestReportCreateAnonymousAnonymizesAudio(t *testing.T) {
	f := newReportFixture()

	result, err := f.svc.Create(context.Background(), CreateReportRequest{
		IncidentType: "ABUSE",
		Urgency:      "MEDIUM",
		IsAnonymous:  true,
		VillageID:    "v1",
		ChildName:    "Child D",
		Description:  "recit calme",
		Files: []FileUpload{
			{Filename: "voice.wav", MimeType: "audio/wav", Data: []byte("raw-voice")},
			{Filename: "photo.png", MimeType: "image/png", Data: []byte("pixels")},
		},
	}, reporterClaims())
	require.NoError(t, err)

	assert.Equal(t, 1, f.anonymizer.calls)
	assert.Equal(t, []byte("anonymized:voice.wav"), f.store.saved["voice.wav"])
	assert.Equal(t, []byte("pixels"), f.store.saved["photo.png"])
	assert.Len(t, result.Report.Attachments, 2)
}

func TestReportCreateAnonymizerFailureFailsClosed(t *testing.T) {
	f := newReportFixture()
	f.anonymizer.err = errors.New("connection refused")

	_, err := f.svc.Create(context.Background(), CreateReportRequest{
		IncidentType: "ABUSE",
		Urgency:      "MEDIUM",
		IsAnonymous:  true,
		VillageID:    "v1",
		ChildName:    "Child D",
		Description:  "recit",
		Files:        []FileUpload{{Filename: "voice.wav", MimeType: "audio/wav", Data: []byte("raw-voice")}},
	}, reporterClaims())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
	assert.Nil(t, f.repo.created)
	assert.Empty(t, f.store.saved)
}

func TestReportCreateNonAnonymousSkipsAnonymizer(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.Create(context.Background(), CreateReportRequest{
		IncidentType: "ABUSE",
		Urgency:      "LOW",
		VillageID:    "v1",
		ChildName:    "Child D",
		Description:  "recit",
		Files:        []FileUpload{{Filename: "voice.wav", MimeType: "audio/wav", Data: []byte("raw-voice")}},
	}, reporterClaims())
	require.NoError(t, err)
	assert.Zero(t, f.anonymizer.calls)
	assert.Equal(t, []byte("raw-voice"), f.store.saved["voice.wav"])
}

func TestReportCreateUrgentFansOutToOversight(t *testing.T) {
	f := newReportFixture()

	result, err := f.svc.Create(context.Background(), CreateReportRequest{
		IncidentType: "ABUSE",
		Urgency:      "CRITICAL",
		VillageID:    "v1",
		ChildName:    "Child D",
		Description:  "l'enfant est en danger",
	}, reporterClaims())
	require.NoError(t, err)

	require.NotNil(t, f.sink.filedReport)
	assert.Equal(t, []string{"u-chief"}, f.sink.filedRecipient)
	assert.True(t, result.Triage.IsCritical)
	assert.Contains(t, result.Triage.MatchedWords, "danger")
}

func TestReportCreateLowUrgencyNoFanOut(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.Create(context.Background(), CreateReportRequest{
		IncidentType: "NEGLECT",
		Urgency:      "LOW",
		VillageID:    "v1",
		ChildName:    "Child D",
		Description:  "observation",
	}, reporterClaims())
	require.NoError(t, err)
	assert.Nil(t, f.sink.filedReport)
}

func TestReportUpdateArchivedRefusedBeforeAnythingElse(t *testing.T) {
	f := newReportFixture()

	desc := "rewrite"
	_, err := f.svc.Update(context.Background(), "r-archived", UpdateReportRequest{Description: &desc}, analystClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrArchived.Code, appErr.Code)
	assert.Nil(t, f.repo.updated)
}

func TestReportUpdateOwnershipGuard(t *testing.T) {
	f := newReportFixture()

	desc := "rewrite"
	stranger := &models.JWTClaims{UserID: "u-other", Permissions: []string{"REPORT_UPDATE"}}
	_, err := f.svc.Update(context.Background(), "r-open", UpdateReportRequest{Description: &desc}, stranger)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReportUpdateAppendsAttachments(t *testing.T) {
	f := newReportFixture()
	f.repo.byID["r-open"].Attachments = models.AttachmentList{{URL: "/uploads/old.png", Type: "image/png", Filename: "old.png"}}

	report, err := f.svc.Update(context.Background(), "r-open", UpdateReportRequest{
		Files: []FileUpload{{Filename: "new.pdf", MimeType: "application/pdf", Data: []byte("doc")}},
	}, reporterClaims())
	require.NoError(t, err)
	require.Len(t, report.Attachments, 2)
	assert.Equal(t, "old.png", report.Attachments[0].Filename)
	assert.Equal(t, "new.pdf", report.Attachments[1].Filename)
}

func TestReportUpdateConcurrentConflict(t *testing.T) {
	f := newReportFixture()
	f.repo.updateErr = repository.ErrStaleWrite

	desc := "rewrite"
	_, err := f.svc.Update(context.Background(), "r-open", UpdateReportRequest{Description: &desc}, reporterClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestReportAssignRequiresAnalystCapableRole(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.Assign(context.Background(), "r-open", "u-reporter", analystClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, f.sink.assignedTo)
}

func TestReportAssignMovesToInProgress(t *testing.T) {
	f := newReportFixture()

	report, err := f.svc.Assign(context.Background(), "r-open", "u-analyst", analystClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReportInProgress, report.Status)
	require.NotNil(t, report.AnalystID)
	assert.Equal(t, "u-analyst", *report.AnalystID)
	assert.Equal(t, "u-analyst", f.sink.assignedTo)
}

func TestReportClassifyAcceptsOnlyTerminalStatuses(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.Classify(context.Background(), "r-open", "IN_PROGRESS", analystClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	report, err := f.svc.Classify(context.Background(), "r-open", "false_alarm", analystClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReportFalseAlarm, report.Status)
	assert.False(t, report.IsArchived)
	assert.NotNil(t, report.ClosedAt)
}

func TestReportCloseRequiresClosureDocument(t *testing.T) {
	f := newReportFixture()

	_, err := f.svc.Close(context.Background(), "r-open", "dismissed", analystClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Nil(t, f.sink.closedReport)
}

func TestReportCloseArchivesCase(t *testing.T) {
	f := newReportFixture()
	f.docs.hasClosureDoc = true

	report, err := f.svc.Close(context.Background(), "r-open", "placement ordered", analystClaims())
	require.NoError(t, err)
	assert.Equal(t, models.ReportClosed, report.Status)
	assert.True(t, report.IsArchived)
	require.NotNil(t, report.ClosureDecision)
	assert.Equal(t, "placement ordered", *report.ClosureDecision)
	require.NotNil(t, f.sink.closedReport)
}

func TestReportCloseTwiceRefused(t *testing.T) {
	f := newReportFixture()
	f.docs.hasClosureDoc = true

	_, err := f.svc.Close(context.Background(), "r-archived", "again", analystClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrArchived.Code, appErr.Code)
}

func TestReportDeleteArchivedRefused(t *testing.T) {
	f := newReportFixture()

	err := f.svc.Delete(context.Background(), "r-archived", analystClaims())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrArchived.Code, appErr.Code)
	assert.Empty(t, f.repo.deleted)
}

func TestReportDeleteAuditsBeforeRemoval(t *testing.T) {
	f := newReportFixture()

	require.NoError(t, f.svc.Delete(context.Background(), "r-open", reporterClaims()))
	assert.Equal(t, "r-open", f.repo.deleted)
	require.NotEmpty(t, f.audit.entries)
	assert.Equal(t, models.AuditActionReportDelete, f.audit.entries[0].Action)
}

func TestReportGetAnonymousRedactedForAnalyst(t *testing.T) {
	f := newReportFixture()

	report, err := f.svc.Get(context.Background(), "r-anon", analystClaims())
	require.NoError(t, err)
	assert.Empty(t, report.ReporterID)
	assert.Equal(t, models.AnonymousReporterName, report.ReporterName)
}

func TestReportGetAnonymousRevealedToOversight(t *testing.T) {
	f := newReportFixture()

	report, err := f.svc.Get(context.Background(), "r-anon", oversightClaims())
	require.NoError(t, err)
	assert.Equal(t, "u-reporter", report.ReporterID)
	assert.Equal(t, "Jane Doe", report.ReporterName)
}

func TestReportGetAnonymousRevealedToReporter(t *testing.T) {
	f := newReportFixture()

	report, err := f.svc.Get(context.Background(), "r-anon", reporterClaims())
	require.NoError(t, err)
	assert.Equal(t, "u-reporter", report.ReporterID)
	assert.Equal(t, "Jane Doe", report.ReporterName)
}

func TestReportGetForbiddenWithoutViewAll(t *testing.T) {
	f := newReportFixture()

	stranger := &models.JWTClaims{UserID: "u-other", Permissions: []string{"REPORT_VIEW"}}
	_, err := f.svc.Get(context.Background(), "r-open", stranger)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReportListScopedToOwnWithoutViewAll(t *testing.T) {
	f := newReportFixture()
	f.repo.byID["r-foreign"] = &models.Report{ID: "r-foreign", ReporterID: "u-other", Version: 1}

	reports, _, err := f.svc.List(context.Background(), models.ReportFilter{}, reporterClaims())
	require.NoError(t, err)
	for _, report := range reports {
		assert.Equal(t, "u-reporter", report.ReporterID)
	}
}

func TestReportExportPDF(t *testing.T) {
	f := newReportFixture()
	f.docs.docs = []models.Document{{Type: models.DocMedicalReport, UploadedBy: "u-analyst", CreatedAt: time.Now()}}

	data, err := f.svc.ExportPDF(context.Background(), "r-open", analystClaims())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}
