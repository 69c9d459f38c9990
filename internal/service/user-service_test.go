package service

import (
	"context"
	"study_admin_service/internal/common"
	"study_admin_service/internal/config"
	"study_admin_service/internal/events"
	"study_admin_service/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userFixture struct {
	svc         *UserService
	adminStore  *fakeAdminStore
	permissions *fakePermissionStore
	email       *fakeEmailSender
	audit       *fakeAudit
	txn         *fakeTxn
}

func newUserFixture(admins ...*models.AdminUser) *userFixture {
	adminStore := newFakeAdminStore(admins...)
	catalog := testCatalog()
	permissions := &fakePermissionStore{}
	email := &fakeEmailSender{acceptInvite: true, acceptUpdate: true}
	audit := &fakeAudit{}
	txn := &fakeTxn{}
	cfg := &config.Config{
		SecurityCodeExpireDays: 30,
		OrgName:                "Study Platform",
		UserDetailsLink:        "https://studies.example.org/activate?code=",
	}

	assignment := NewAssignmentService(catalog, permissions)
	svc := NewUserService(adminStore, catalog, permissions, assignment, email, audit, txn, cfg)

	return &userFixture{
		svc:         svc,
		adminStore:  adminStore,
		permissions: permissions,
		email:       email,
		audit:       audit,
		txn:         txn,
	}
}

func superAdmin() *models.AdminUser {
	return &models.AdminUser{
		ID:           "super-1",
		Email:        "super@example.org",
		FirstName:    "Sam",
		LastName:     "Root",
		IsSuperAdmin: true,
		Status:       models.StatusActive,
	}
}

func scopedCreateRequest() *models.UserRequest {
	return &models.UserRequest{
		Email:            "new.admin@example.org",
		FirstName:        "Nia",
		LastName:         "Vale",
		SuperAdminUserID: "super-1",
		Apps: []models.AppPermissionRequest{
			{ID: "app-1", Selected: true},
		},
	}
}

func TestCreateUserRejectsUnknownCaller(t *testing.T) {
	fx := newUserFixture()

	request := scopedCreateRequest()
	_, err := fx.svc.CreateUser(context.Background(), request)

	assert.Equal(t, common.ErrUserNotFound, err)
	assert.Equal(t, 0, fx.txn.calls)
}

func TestCreateUserRejectsNonSuperAdminCaller(t *testing.T) {
	caller := superAdmin()
	caller.IsSuperAdmin = false
	fx := newUserFixture(caller)

	_, err := fx.svc.CreateUser(context.Background(), scopedCreateRequest())

	assert.Equal(t, common.ErrNotSuperAdminAccess, err)
}

func TestCreateUserRequiresPermissionSelection(t *testing.T) {
	fx := newUserFixture(superAdmin())

	request := scopedCreateRequest()
	request.Apps = []models.AppPermissionRequest{{ID: "app-1", Selected: false}}

	_, err := fx.svc.CreateUser(context.Background(), request)

	assert.Equal(t, common.ErrPermissionMissing, err)
	all, _ := fx.adminStore.FindAll(context.Background())
	assert.Len(t, all, 1)
	assert.Empty(t, fx.permissions.apps)
}

func TestCreateUserAllowsSuperAdminWithoutSelection(t *testing.T) {
	fx := newUserFixture(superAdmin())

	request := scopedCreateRequest()
	request.IsSuperAdmin = true
	request.Apps = nil

	response, err := fx.svc.CreateUser(context.Background(), request)
	require.NoError(t, err)

	// Full catalog snapshot at Edit level.
	assert.Equal(t, 8, fx.permissions.rowsFor(response.UserID))
	fields := fx.audit.fieldsOf(events.AuditNewUserCreated)
	require.NotNil(t, fields)
	assert.Equal(t, "SUPER_ADMIN", fields["new_user_access_level"])
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	existing := &models.AdminUser{ID: "admin-9", Email: "new.admin@example.org", Status: models.StatusActive}
	fx := newUserFixture(superAdmin(), existing)

	_, err := fx.svc.CreateUser(context.Background(), scopedCreateRequest())

	assert.Equal(t, common.ErrEmailExists, err)
	assert.Equal(t, 0, fx.txn.calls)
}

func TestCreateUserPersistsAdminAndGrants(t *testing.T) {
	fx := newUserFixture(superAdmin())

	response, err := fx.svc.CreateUser(context.Background(), scopedCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.MsgAddNewUserSuccess, response.Message)

	created, err := fx.adminStore.FindByID(context.Background(), response.UserID)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.StatusInvited, created.Status)
	assert.NotEmpty(t, created.SecurityCode)
	assert.Greater(t, created.SecurityCodeExpiry, int(time.Now().Unix()))

	// app-1 selected: app row + 2 study rows + 3 site rows.
	assert.Equal(t, 6, fx.permissions.rowsFor(response.UserID))

	assert.Equal(t, []string{"new.admin@example.org"}, fx.email.invites)
	assert.True(t, fx.audit.has(events.AuditNewUserInvitationEmailSent))
	fields := fx.audit.fieldsOf(events.AuditNewUserCreated)
	require.NotNil(t, fields)
	assert.Equal(t, response.UserID, fields["new_user_id"])
	assert.Equal(t, "ADMIN", fields["new_user_access_level"])
}

func TestCreateUserEmailFailureOnlyChangesAuditEvent(t *testing.T) {
	fx := newUserFixture(superAdmin())
	fx.email.acceptInvite = false

	response, err := fx.svc.CreateUser(context.Background(), scopedCreateRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, response.UserID)
	assert.True(t, fx.audit.has(events.AuditNewUserInvitationEmailFailed))
	assert.False(t, fx.audit.has(events.AuditNewUserInvitationEmailSent))
	assert.True(t, fx.audit.has(events.AuditNewUserCreated))
}

func TestUpdateUserReplacesGrantRows(t *testing.T) {
	target := &models.AdminUser{
		ID:        "admin-2",
		Email:     "nia@example.org",
		FirstName: "Nia",
		Status:    models.StatusActive,
	}
	fx := newUserFixture(superAdmin(), target)

	// Residue from an earlier assignment that the update must wipe.
	fx.permissions.sites = append(fx.permissions.sites, &models.SitePermission{
		ID: "old-row", AdminUserID: "admin-2", AppID: "app-2", StudyID: "study-3", SiteID: "ghost", Level: models.Edit,
	})

	request := &models.UserRequest{
		UserID:    "admin-2",
		Email:     "nia@example.org",
		FirstName: "Nia",
		LastName:  "Vale-Smith",
		Apps: []models.AppPermissionRequest{
			{ID: "app-1", Studies: []models.StudyPermissionRequest{
				{StudyID: "study-1", Selected: true},
			}},
		},
	}

	response, err := fx.svc.UpdateUser(context.Background(), request, "super-1")
	require.NoError(t, err)
	assert.Equal(t, models.MsgUpdateUserSuccess, response.Message)

	// study-1 subtree only: 1 study row + 2 site rows, old row gone.
	assert.Equal(t, 3, fx.permissions.rowsFor("admin-2"))
	for _, p := range fx.permissions.sites {
		assert.NotEqual(t, "ghost", p.SiteID)
	}

	updated, _ := fx.adminStore.FindByID(context.Background(), "admin-2")
	assert.Equal(t, "Vale-Smith", updated.LastName)
	assert.True(t, fx.audit.has(events.AuditUserRecordUpdated))
	assert.True(t, fx.audit.has(events.AuditAccountUpdateEmailSent))
}

func TestUpdateUserUnknownTarget(t *testing.T) {
	fx := newUserFixture(superAdmin())

	request := &models.UserRequest{
		UserID:       "missing",
		IsSuperAdmin: true,
	}
	_, err := fx.svc.UpdateUser(context.Background(), request, "super-1")
	assert.Equal(t, common.ErrUserNotFound, err)
}

func TestUpdateUserRequiresPermissionSelection(t *testing.T) {
	target := &models.AdminUser{ID: "admin-2", Email: "nia@example.org", Status: models.StatusActive}
	fx := newUserFixture(superAdmin(), target)

	request := &models.UserRequest{UserID: "admin-2"}
	_, err := fx.svc.UpdateUser(context.Background(), request, "super-1")
	assert.Equal(t, common.ErrPermissionMissing, err)
	assert.Equal(t, 0, fx.txn.calls)
}

func TestGetUsersRequiresSuperAdmin(t *testing.T) {
	scoped := &models.AdminUser{ID: "admin-2", Email: "nia@example.org", Status: models.StatusActive}
	fx := newUserFixture(scoped)

	_, err := fx.svc.GetUsers(context.Background(), "admin-2")
	assert.Equal(t, common.ErrNotSuperAdminAccess, err)
}

func TestGetUsersListsDirectory(t *testing.T) {
	scoped := &models.AdminUser{
		ID: "admin-2", Email: "nia@example.org", Status: models.StatusInvited, CreatedAt: 100,
	}
	fx := newUserFixture(superAdmin(), scoped)

	response, err := fx.svc.GetUsers(context.Background(), "super-1")
	require.NoError(t, err)

	require.Len(t, response.Users, 2)
	var statuses []string
	for _, user := range response.Users {
		statuses = append(statuses, user.Status)
	}
	assert.Contains(t, statuses, "Active")
	assert.Contains(t, statuses, "Invited")
	assert.True(t, fx.audit.has(events.AuditUserRegistryViewed))
}

func TestGetAdminDetailsMarksSelectionsFromOwnRows(t *testing.T) {
	target := &models.AdminUser{ID: "admin-2", Email: "nia@example.org", Status: models.StatusActive}
	fx := newUserFixture(superAdmin(), target)

	// Rows as a study-1 subtree assignment would have written them.
	fx.permissions.studies = append(fx.permissions.studies, &models.StudyPermission{
		ID: "sp-1", AdminUserID: "admin-2", AppID: "app-1", StudyID: "study-1", Level: models.Edit,
	})
	fx.permissions.sites = append(fx.permissions.sites,
		&models.SitePermission{ID: "tp-1", AdminUserID: "admin-2", AppID: "app-1", StudyID: "study-1", SiteID: "site-1", Level: models.Edit},
		&models.SitePermission{ID: "tp-2", AdminUserID: "admin-2", AppID: "app-1", StudyID: "study-1", SiteID: "site-2", Level: models.Edit},
	)

	response, err := fx.svc.GetAdminDetails(context.Background(), "super-1", "admin-2")
	require.NoError(t, err)

	require.Len(t, response.User.Apps, 2)
	app1 := response.User.Apps[0]
	assert.Equal(t, "app-1", app1.ID)
	assert.False(t, app1.Selected)
	assert.Equal(t, 0, app1.Permission)
	assert.Equal(t, 2, app1.TotalStudiesCount)
	assert.Equal(t, 1, app1.SelectedStudiesCount)
	assert.Equal(t, 3, app1.TotalSitesCount)
	assert.Equal(t, 2, app1.SelectedSitesCount)

	require.Len(t, app1.Studies, 2)
	study1 := app1.Studies[0]
	assert.True(t, study1.Selected)
	assert.Equal(t, 2, study1.SelectedSitesCount)
	assert.False(t, app1.Studies[1].Selected)

	app2 := response.User.Apps[1]
	assert.False(t, app2.Selected)
	assert.Equal(t, 0, app2.SelectedStudiesCount)
}

func TestGetAdminDetailsSuperAdminTargetImpliesAppEdit(t *testing.T) {
	target := &models.AdminUser{ID: "admin-3", Email: "root2@example.org", IsSuperAdmin: true, Status: models.StatusActive}
	fx := newUserFixture(superAdmin(), target)

	response, err := fx.svc.GetAdminDetails(context.Background(), "super-1", "admin-3")
	require.NoError(t, err)

	for _, app := range response.User.Apps {
		assert.True(t, app.Selected)
		assert.Equal(t, models.Edit.Value(), app.Permission)
		// Study and site flags still come from stored rows only.
		for _, study := range app.Studies {
			assert.False(t, study.Selected)
		}
	}
}

func TestGetAdminDetailsRequiresSuperAdminCaller(t *testing.T) {
	scoped := &models.AdminUser{ID: "admin-2", Email: "nia@example.org", Status: models.StatusActive}
	fx := newUserFixture(scoped)

	_, err := fx.svc.GetAdminDetails(context.Background(), "admin-2", "admin-2")
	assert.Equal(t, common.ErrNotSuperAdminAccess, err)
}

func TestActivateAccountSetsPasswordAndStatus(t *testing.T) {
	invited := &models.AdminUser{
		ID:                 "admin-2",
		Email:              "nia@example.org",
		Status:             models.StatusInvited,
		SecurityCode:       "code-abc",
		SecurityCodeExpiry: int(time.Now().Add(time.Hour).Unix()),
	}
	fx := newUserFixture(invited)

	response, err := fx.svc.ActivateAccount(context.Background(), &models.ActivateRequest{
		SecurityCode: "code-abc",
		Password:     "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MsgUserActivated, response.Message)

	activated, _ := fx.adminStore.FindByID(context.Background(), "admin-2")
	assert.Equal(t, models.StatusActive, activated.Status)
	assert.Empty(t, activated.SecurityCode)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(activated.PasswordHash), []byte("s3cret-pass")))
	assert.True(t, fx.audit.has(events.AuditUserAccountActivated))
}

func TestActivateAccountRejectsExpiredCode(t *testing.T) {
	invited := &models.AdminUser{
		ID:                 "admin-2",
		Email:              "nia@example.org",
		Status:             models.StatusInvited,
		SecurityCode:       "code-abc",
		SecurityCodeExpiry: int(time.Now().Add(-time.Hour).Unix()),
	}
	fx := newUserFixture(invited)

	_, err := fx.svc.ActivateAccount(context.Background(), &models.ActivateRequest{
		SecurityCode: "code-abc",
		Password:     "s3cret-pass",
	})
	assert.Equal(t, common.ErrInvalidSecurityCode, err)

	unchanged, _ := fx.adminStore.FindByID(context.Background(), "admin-2")
	assert.Equal(t, models.StatusInvited, unchanged.Status)
}

func TestActivateAccountRejectsUnknownCode(t *testing.T) {
	fx := newUserFixture()

	_, err := fx.svc.ActivateAccount(context.Background(), &models.ActivateRequest{
		SecurityCode: "nope",
		Password:     "s3cret-pass",
	})
	assert.Equal(t, common.ErrInvalidSecurityCode, err)
}

func TestResendPendingInvitationsSkipsExpiredCodes(t *testing.T) {
	pending := &models.AdminUser{
		ID: "admin-2", Email: "pending@example.org", Status: models.StatusInvited,
		SecurityCode: "code-1", SecurityCodeExpiry: int(time.Now().Add(time.Hour).Unix()),
	}
	expired := &models.AdminUser{
		ID: "admin-3", Email: "expired@example.org", Status: models.StatusInvited,
		SecurityCode: "code-2", SecurityCodeExpiry: int(time.Now().Add(-time.Hour).Unix()),
	}
	active := &models.AdminUser{ID: "admin-4", Email: "done@example.org", Status: models.StatusActive}
	fx := newUserFixture(pending, expired, active)

	sent, err := fx.svc.ResendPendingInvitations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"pending@example.org"}, fx.email.invites)
}
