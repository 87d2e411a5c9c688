package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

type authUsersMock struct {
	byEmail map[string]*models.User
	created *models.User
}

func (m *authUsersMock) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.byEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *authUsersMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *authUsersMock) Create(ctx context.Context, user *models.User) error {
	m.created = user
	return nil
}

type authRolesMock struct {
	roles map[string]*models.Role
}

func (m *authRolesMock) FindByID(ctx context.Context, id string) (*models.Role, error) {
	if role, ok := m.roles[id]; ok {
		return role, nil
	}
	return nil, sql.ErrNoRows
}

type auditMock struct {
	entries []*models.AuditLog
}

func (m *auditMock) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *authUsersMock, *auditMock) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &authUsersMock{byEmail: map[string]*models.User{
		"approved@example.com": {
			ID: "u-approved", Email: "approved@example.com", PasswordHash: string(hash),
			FirstName: "Jane", LastName: "Doe", RoleID: "role-1", Status: models.StatusApproved,
		},
		"pending@example.com": {
			ID: "u-pending", Email: "pending@example.com", PasswordHash: string(hash),
			RoleID: "role-1", Status: models.StatusPending,
		},
		"rejected@example.com": {
			ID: "u-rejected", Email: "rejected@example.com", PasswordHash: string(hash),
			RoleID: "role-1", Status: models.StatusRejected,
		},
	}}
	roles := &authRolesMock{roles: map[string]*models.Role{
		"role-1": {
			ID: "role-1", Name: "Field Agent", Tier: models.TierReporter,
			Permissions: []string{"REPORT_VIEW", "REPORT_CREATE", "REPORT_CREATE"},
		},
	}}
	audit := &auditMock{}

	svc := NewAuthService(users, roles, audit, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "test",
	})
	return svc, users, audit
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginWrongPasswordSameError(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "approved@example.com", Password: "wrong"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUndecidedAccounts(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "pending@example.com", Password: "s3cret-pass"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPendingAccount.Code, appErr.Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "rejected@example.com", Password: "s3cret-pass"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrRejectedAccount.Code, appErr.Code)
}

func TestAuthServiceLoginIssuesFlattenedClaims(t *testing.T) {
	svc, _, audit := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "approved@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "Field Agent", res.User.RoleName)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-approved", claims.UserID)
	assert.Equal(t, models.TierReporter, claims.RoleTier)
	assert.Equal(t, []string{"REPORT_CREATE", "REPORT_VIEW"}, claims.Permissions)
	assert.True(t, claims.HasPermission(models.PermReportView))
	assert.False(t, claims.HasPermission(models.PermRoleManage))

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionLogin, audit.entries[0].Action)
}

func TestAuthServiceLoginMixedCaseEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "Approved@Example.COM", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "u-approved", res.User.ID)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "approved@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	other := NewAuthService(nil, nil, nil, nil, nil, AuthConfig{Secret: "other-secret", Expiration: time.Hour})
	_, err = other.ValidateToken(res.AccessToken)
	assert.Error(t, err)
}

func TestAuthServiceRegisterStartsPending(t *testing.T) {
	svc, users, audit := newAuthFixture(t)

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "New@Example.com",
		Password:  "longenough",
		FirstName: "New",
		LastName:  "User",
		RoleID:    "role-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, info.Status)
	assert.Equal(t, "new@example.com", info.Email)
	require.NotNil(t, users.created)
	assert.Equal(t, models.StatusPending, users.created.Status)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionRegister, audit.entries[0].Action)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "approved@example.com",
		Password:  "longenough",
		FirstName: "Dup",
		LastName:  "User",
		RoleID:    "role-1",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAuthServiceRegisterUnknownRole(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "fresh@example.com",
		Password:  "longenough",
		FirstName: "Fresh",
		LastName:  "User",
		RoleID:    "missing-role",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
