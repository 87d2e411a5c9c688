package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
)

func newReportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func reportRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "incident_type", "urgency", "is_anonymous", "village_id", "child_name",
		"abuser_name", "description", "attachments", "status", "reporter_id",
		"reporter_name", "analyst_id", "is_archived", "closure_decision", "closed_at",
		"version", "created_at", "updated_at",
	})
}

func TestReportRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := reportRows().AddRow(
		"r1", "PHYSICAL_ABUSE", "HIGH", false, "v1", "Child A",
		nil, "narrative", []byte(`[]`), "PENDING", "u1",
		"Jane Doe", nil, false, nil, nil,
		1, time.Now(), time.Now(),
	)
	mock.ExpectQuery("SELECT .+ FROM reports r LEFT JOIN users u ON u.id = r.reporter_id WHERE r.id = \\$1").
		WithArgs("r1").
		WillReturnRows(rows)

	report, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", report.ID)
	assert.Equal(t, models.UrgencyHigh, report.Urgency)
	assert.Equal(t, "Jane Doe", report.ReporterName)
	assert.Equal(t, 1, report.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	status := models.ReportPending
	rows := reportRows().AddRow(
		"r1", "NEGLECT", "LOW", false, "v1", "Child A",
		nil, "narrative", []byte(`[]`), "PENDING", "u1",
		"Jane Doe", nil, false, nil, nil,
		1, time.Now(), time.Now(),
	)
	mock.ExpectQuery("SELECT .+ FROM reports r LEFT JOIN users u ON u.id = r.reporter_id WHERE 1=1 AND r.status = \\$1 AND r.reporter_id = \\$2 ORDER BY r.created_at DESC LIMIT 20 OFFSET 0").
		WithArgs(status, "u1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports r LEFT JOIN users u ON u.id = r.reporter_id WHERE 1=1 AND r.status = $1 AND r.reporter_id = $2")).
		WithArgs(status, "u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.ReportFilter{Status: &status, ReporterID: "u1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCreateSetsVersion(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("INSERT INTO reports").
		WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.Report{
		IncidentType: "NEGLECT",
		Urgency:      models.UrgencyLow,
		VillageID:    "v1",
		ChildName:    "Child A",
		Description:  "narrative",
		Status:       models.ReportPending,
		ReporterID:   "u1",
	}
	require.NoError(t, repo.Create(context.Background(), report))
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 1, report.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateBumpsVersion(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("UPDATE reports SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	report := &models.Report{ID: "r1", Version: 3, Status: models.ReportInProgress}
	require.NoError(t, repo.Update(context.Background(), report))
	assert.Equal(t, 4, report.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateStaleWrite(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("UPDATE reports SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	report := &models.Report{ID: "r1", Version: 3}
	err := repo.Update(context.Background(), report)
	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.Equal(t, 3, report.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryDeleteArchivedRefused(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports WHERE id = $1 AND is_archived = FALSE")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.NoError(t, mock.ExpectationsWereMet())
}
