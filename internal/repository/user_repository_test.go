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

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "role_id", "village_id", "status", "created_at", "updated_at"}).
		AddRow("u1", "jane@example.com", "$2a$10$hash", "Jane", "Doe", "role-1", nil, "APPROVED", time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM users WHERE email = \\$1 LIMIT 1").
		WithArgs("jane@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, models.StatusApproved, user.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateStatusOnlyFromPending(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'PENDING'")).
		WithArgs("u1", models.StatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	decided, err := repo.UpdateStatus(context.Background(), "u1", models.StatusApproved)
	require.NoError(t, err)
	assert.True(t, decided)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'PENDING'")).
		WithArgs("u1", models.StatusRejected, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	decided, err = repo.UpdateStatus(context.Background(), "u1", models.StatusRejected)
	require.NoError(t, err)
	assert.False(t, decided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListIDsByRoleTier(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("u1").AddRow("u2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT u.id FROM users u JOIN roles r ON r.id = u.role_id WHERE r.tier = $1 AND u.status = 'APPROVED'")).
		WithArgs(models.TierOversight).
		WillReturnRows(rows)

	ids, err := repo.ListIDsByRoleTier(context.Background(), models.TierOversight)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
