package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

type roleRepoMock struct {
	byID      map[string]*models.Role
	byName    map[string]*models.Role
	userCount int
	updated   *models.Role
	deleted   string
}

func (m *roleRepoMock) FindByID(ctx context.Context, id string) (*models.Role, error) {
	if role, ok := m.byID[id]; ok {
		clone := *role
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *roleRepoMock) FindByName(ctx context.Context, name string) (*models.Role, error) {
	if role, ok := m.byName[name]; ok {
		return role, nil
	}
	return nil, sql.ErrNoRows
}

func (m *roleRepoMock) List(ctx context.Context) ([]models.Role, error) { return nil, nil }

func (m *roleRepoMock) Create(ctx context.Context, role *models.Role) error {
	role.ID = "role-new"
	return nil
}

func (m *roleRepoMock) Update(ctx context.Context, role *models.Role) error {
	m.updated = role
	return nil
}

func (m *roleRepoMock) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

func (m *roleRepoMock) CountUsers(ctx context.Context, roleID string) (int, error) {
	return m.userCount, nil
}

func newRoleFixture(strict bool) (*RoleService, *roleRepoMock) {
	repo := &roleRepoMock{
		byID: map[string]*models.Role{
			"role-1": {ID: "role-1", Name: "Field Agent", Tier: models.TierReporter, Permissions: []string{"REPORT_CREATE"}},
		},
		byName: map[string]*models.Role{
			"Field Agent": {ID: "role-1", Name: "Field Agent"},
		},
	}
	return NewRoleService(repo, nil, nil, strict), repo
}

func TestRoleServiceCreateStrictRejectsUnknownPermission(t *testing.T) {
	svc, _ := newRoleFixture(true)

	_, err := svc.Create(context.Background(), CreateRoleRequest{
		Name:        "Custom",
		Tier:        "ANALYST",
		Permissions: []string{"REPORT_VIEW", "TOTALLY_MADE_UP"},
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRoleServiceCreateLenientAcceptsUnknownPermission(t *testing.T) {
	svc, _ := newRoleFixture(false)

	role, err := svc.Create(context.Background(), CreateRoleRequest{
		Name:        "Custom",
		Tier:        "ANALYST",
		Permissions: []string{"FUTURE_PERMISSION"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"FUTURE_PERMISSION"}, []string(role.Permissions))
}

func TestRoleServiceCreateDuplicateName(t *testing.T) {
	svc, _ := newRoleFixture(true)

	_, err := svc.Create(context.Background(), CreateRoleRequest{Name: "Field Agent", Tier: "REPORTER"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestRoleServiceCreateInvalidTier(t *testing.T) {
	svc, _ := newRoleFixture(true)

	_, err := svc.Create(context.Background(), CreateRoleRequest{Name: "Custom", Tier: "SUPERUSER"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRoleServiceUpdatePermissionsReplaceNotMerge(t *testing.T) {
	svc, repo := newRoleFixture(true)

	perms := []string{"REPORT_VIEW_ALL", "REPORT_CLASSIFY", "REPORT_CLASSIFY"}
	role, err := svc.Update(context.Background(), "role-1", UpdateRoleRequest{Permissions: &perms})
	require.NoError(t, err)

	assert.Equal(t, []string{"REPORT_CLASSIFY", "REPORT_VIEW_ALL"}, []string(role.Permissions))
	assert.NotContains(t, []string(role.Permissions), "REPORT_CREATE")
	require.NotNil(t, repo.updated)
}

func TestRoleServiceDeleteBlockedWhileAssigned(t *testing.T) {
	svc, repo := newRoleFixture(true)
	repo.userCount = 2

	err := svc.Delete(context.Background(), "role-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, repo.deleted)
}

func TestRoleServiceDeleteUnassigned(t *testing.T) {
	svc, repo := newRoleFixture(true)

	require.NoError(t, svc.Delete(context.Background(), "role-1"))
	assert.Equal(t, "role-1", repo.deleted)
}
