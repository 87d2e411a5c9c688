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

func newRoleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRoleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRoleRepoMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "tier", "permissions", "created_at", "updated_at"}).
		AddRow("role-1", "Field Agent", "", "REPORTER", "{REPORT_CREATE,REPORT_VIEW}", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, tier, permissions, created_at, updated_at FROM roles WHERE id = $1 LIMIT 1")).
		WithArgs("role-1").
		WillReturnRows(rows)

	role, err := repo.FindByID(context.Background(), "role-1")
	require.NoError(t, err)
	assert.Equal(t, "Field Agent", role.Name)
	assert.Equal(t, models.TierReporter, role.Tier)
	assert.Equal(t, []string{"REPORT_CREATE", "REPORT_VIEW"}, []string(role.Permissions))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRoleRepoMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	mock.ExpectExec("INSERT INTO roles").
		WithArgs(sqlmock.AnyArg(), "Case Analyst", "handles assigned cases", "ANALYST", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	role := &models.Role{
		Name:        "Case Analyst",
		Description: "handles assigned cases",
		Tier:        models.TierAnalyst,
		Permissions: []string{"REPORT_VIEW_ALL", "REPORT_CLASSIFY"},
	}
	require.NoError(t, repo.Create(context.Background(), role))
	assert.NotEmpty(t, role.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepositoryCountUsers(t *testing.T) {
	db, mock, cleanup := newRoleRepoMock(t)
	defer cleanup()
	repo := NewRoleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role_id = $1")).
		WithArgs("role-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountUsers(context.Background(), "role-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
