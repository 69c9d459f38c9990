package service

import (
	"context"
	"fmt"
	"log"
	"study_admin_service/internal/common"
	"study_admin_service/internal/config"
	"study_admin_service/internal/events"
	"study_admin_service/internal/metrics"
	"study_admin_service/internal/models"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessLevelSuperAdmin = "SUPER_ADMIN"
	accessLevelAdmin      = "ADMIN"
)

// UserService sequences the admin lifecycle: validation, admin record
// persistence, permission assignment and the email/audit side effects.
type UserService struct {
	adminStore      AdminStore
	catalog         Catalog
	permissionStore PermissionStore
	assignment      *AssignmentService
	emailSender     EmailSender
	audit           AuditLogger
	txn             TxnRunner
	cfg             *config.Config
}

func NewUserService(
	adminStore AdminStore,
	catalog Catalog,
	permissionStore PermissionStore,
	assignment *AssignmentService,
	emailSender EmailSender,
	audit AuditLogger,
	txn TxnRunner,
	cfg *config.Config,
) *UserService {
	return &UserService{
		adminStore:      adminStore,
		catalog:         catalog,
		permissionStore: permissionStore,
		assignment:      assignment,
		emailSender:     emailSender,
		audit:           audit,
		txn:             txn,
		cfg:             cfg,
	}
}

// CreateUser validates, persists the admin record plus its grant rows in one
// transaction, then fires the invitation email and audit events. Nothing is
// written when validation fails.
func (us *UserService) CreateUser(ctx context.Context, user *models.UserRequest) (*models.AdminUserResponse, error) {
	log.Printf("createUser() with isSuperAdmin=%t", user.IsSuperAdmin)

	if err := us.validateCreateRequest(ctx, user); err != nil {
		return nil, err
	}

	currentTime := int(time.Now().Unix())
	admin := &models.AdminUser{
		ID:                 uuid.NewString(),
		Email:              user.Email,
		FirstName:          user.FirstName,
		LastName:           user.LastName,
		IsSuperAdmin:       user.IsSuperAdmin,
		Status:             models.StatusInvited,
		SecurityCode:       uuid.NewString(),
		SecurityCodeExpiry: int(time.Now().AddDate(0, 0, us.cfg.SecurityCodeExpireDays).Unix()),
		CreatedAt:          currentTime,
		UpdatedAt:          currentTime,
	}

	err := us.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := us.adminStore.Save(txCtx, admin); err != nil {
			return err
		}
		return us.assignment.AssignPermissions(txCtx, admin.ID, user.SuperAdminUserID, user.IsSuperAdmin, user.Apps)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating admin user: %w", err)
	}

	accepted := us.emailSender.SendInvitationEmail(ctx, admin)
	if accepted {
		us.audit.LogEvent(ctx, events.AuditNewUserInvitationEmailSent, map[string]string{"new_user_id": admin.ID})
	} else {
		us.audit.LogEvent(ctx, events.AuditNewUserInvitationEmailFailed, map[string]string{"new_user_id": admin.ID})
	}

	us.audit.LogEvent(ctx, events.AuditNewUserCreated, map[string]string{
		"new_user_id":           admin.ID,
		"new_user_access_level": accessLevel(user.IsSuperAdmin),
	})
	metrics.AdminUsersCreated.Inc()

	return &models.AdminUserResponse{Message: models.MsgAddNewUserSuccess, UserID: admin.ID}, nil
}

func (us *UserService) validateCreateRequest(ctx context.Context, user *models.UserRequest) error {
	caller, err := us.adminStore.FindByID(ctx, user.SuperAdminUserID)
	if err != nil {
		return err
	}
	if caller == nil {
		return common.ErrUserNotFound
	}
	if !caller.IsSuperAdmin {
		return common.ErrNotSuperAdminAccess
	}

	if !user.IsSuperAdmin && (len(user.Apps) == 0 || !user.HasAtLeastOnePermission()) {
		return common.ErrPermissionMissing
	}

	existing, err := us.adminStore.FindByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return common.ErrEmailExists
	}
	return nil
}

// UpdateUser replaces the admin's entire permission set: every existing grant
// row is deleted and the set implied by the new selection tree is recreated,
// all inside one transaction with the admin field update. There is no
// incremental path.
func (us *UserService) UpdateUser(ctx context.Context, user *models.UserRequest, superAdminUserID string) (*models.AdminUserResponse, error) {
	log.Printf("updateUser() with isSuperAdmin=%t", user.IsSuperAdmin)

	if err := us.validateUpdateRequest(ctx, user, superAdminUserID); err != nil {
		return nil, err
	}

	admin, err := us.adminStore.FindByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, common.ErrUserNotFound
	}

	admin.FirstName = user.FirstName
	admin.LastName = user.LastName
	admin.IsSuperAdmin = user.IsSuperAdmin
	admin.UpdatedAt = int(time.Now().Unix())

	err = us.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := us.adminStore.Update(txCtx, admin); err != nil {
			return err
		}
		if err := us.permissionStore.DeleteByAdmin(txCtx, admin.ID); err != nil {
			return err
		}
		return us.assignment.AssignPermissions(txCtx, admin.ID, superAdminUserID, user.IsSuperAdmin, user.Apps)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating admin user: %w", err)
	}

	accepted := us.emailSender.SendUpdateEmail(ctx, admin)
	if accepted {
		us.audit.LogEvent(ctx, events.AuditAccountUpdateEmailSent, map[string]string{"edited_user_id": admin.ID})
	} else {
		us.audit.LogEvent(ctx, events.AuditAccountUpdateEmailFailed, map[string]string{"edited_user_id": admin.ID})
	}

	us.audit.LogEvent(ctx, events.AuditUserRecordUpdated, map[string]string{
		"edited_user_id":        admin.ID,
		"new_user_access_level": accessLevel(user.IsSuperAdmin),
	})
	metrics.AdminUsersUpdated.Inc()

	return &models.AdminUserResponse{Message: models.MsgUpdateUserSuccess, UserID: admin.ID}, nil
}

func (us *UserService) validateUpdateRequest(ctx context.Context, user *models.UserRequest, superAdminUserID string) error {
	caller, err := us.adminStore.FindByID(ctx, superAdminUserID)
	if err != nil {
		return err
	}
	if caller == nil || user.UserID == "" {
		return common.ErrUserNotFound
	}
	if !caller.IsSuperAdmin {
		return common.ErrNotSuperAdminAccess
	}

	if !user.IsSuperAdmin && !user.HasAtLeastOnePermission() {
		return common.ErrPermissionMissing
	}
	return nil
}

// GetAdminDetails walks every catalog app and annotates it with the target
// admin's stored rows. Selected flags come only from each level's own row;
// the write-path cascade is never re-derived here.
func (us *UserService) GetAdminDetails(ctx context.Context, callerID, adminID string) (*models.GetAdminDetailsResponse, error) {
	if err := us.requireSuperAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	admin, err := us.adminStore.FindByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, common.ErrUserNotFound
	}

	user := toUserInfo(admin)

	apps, err := us.catalog.ListApps(ctx)
	if err != nil {
		return nil, err
	}

	appPermissions, err := us.permissionStore.FindAppPermissionsByAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	appPermissionMap := make(map[string]*models.AppPermission, len(appPermissions))
	for _, p := range appPermissions {
		appPermissionMap[p.AppID] = p
	}

	for _, app := range apps {
		userApp := models.UserAppDetails{
			ID:       app.ID,
			CustomID: app.CustomID,
			Name:     app.Name,
		}

		if permission, ok := appPermissionMap[app.ID]; ok {
			userApp.Permission = permission.Level.Value()
			if permission.Level != models.NoPermission {
				userApp.Selected = true
			}
		} else if admin.IsSuperAdmin {
			userApp.Permission = models.Edit.Value()
			userApp.Selected = true
		}

		userStudies, err := us.getUserStudies(ctx, admin, app.ID)
		if err != nil {
			return nil, err
		}
		userApp.Studies = userStudies

		setStudiesSitesCountPerApp(&userApp, userStudies)

		user.Apps = append(user.Apps, userApp)
	}

	log.Printf("getAdminDetails: total apps=%d, superadmin=%t", len(user.Apps), admin.IsSuperAdmin)
	return &models.GetAdminDetailsResponse{Message: models.MsgGetAdminDetailsSuccess, User: user}, nil
}

func (us *UserService) getUserStudies(ctx context.Context, admin *models.AdminUser, appID string) ([]models.UserStudyDetails, error) {
	studies, err := us.catalog.ListStudiesByApp(ctx, appID)
	if err != nil {
		return nil, err
	}

	userStudies := make([]models.UserStudyDetails, 0, len(studies))
	for _, study := range studies {
		userStudy := models.UserStudyDetails{
			StudyID:       study.ID,
			CustomStudyID: study.CustomID,
			StudyName:     study.Name,
		}

		studyPermission, err := us.permissionStore.FindStudyPermission(ctx, admin.ID, appID, study.ID)
		if err != nil {
			return nil, err
		}
		if studyPermission != nil {
			userStudy.Permission = studyPermission.Level.Value()
			if studyPermission.Level != models.NoPermission {
				userStudy.Selected = true
			}
		}

		sites, err := us.catalog.ListSitesByStudy(ctx, study.ID)
		if err != nil {
			return nil, err
		}
		selectedSites := 0
		for _, site := range sites {
			userSite := models.UserSiteDetails{
				SiteID:   site.ID,
				SiteName: site.Name,
			}
			sitePermission, err := us.permissionStore.FindSitePermission(ctx, admin.ID, appID, study.ID, site.ID)
			if err != nil {
				return nil, err
			}
			if sitePermission != nil {
				userSite.Permission = sitePermission.Level.Value()
				if sitePermission.Level != models.NoPermission {
					userSite.Selected = true
					selectedSites++
				}
			}
			userStudy.Sites = append(userStudy.Sites, userSite)
		}

		userStudy.SelectedSitesCount = selectedSites
		userStudy.TotalSitesCount = len(sites)

		userStudies = append(userStudies, userStudy)
	}

	return userStudies, nil
}

func setStudiesSitesCountPerApp(userApp *models.UserAppDetails, userStudies []models.UserStudyDetails) {
	selectedStudies := 0
	selectedSites := 0
	totalSites := 0
	for _, study := range userStudies {
		if study.Selected {
			selectedStudies++
		}
		selectedSites += study.SelectedSitesCount
		totalSites += study.TotalSitesCount
	}
	userApp.SelectedStudiesCount = selectedStudies
	userApp.TotalStudiesCount = len(userStudies)
	userApp.SelectedSitesCount = selectedSites
	userApp.TotalSitesCount = totalSites
}

// GetUsers lists the admin directory.
func (us *UserService) GetUsers(ctx context.Context, callerID string) (*models.GetUsersResponse, error) {
	if err := us.requireSuperAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	admins, err := us.adminStore.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]models.UserInfo, 0, len(admins))
	for _, admin := range admins {
		users = append(users, toUserInfo(admin))
	}

	us.audit.LogEvent(ctx, events.AuditUserRegistryViewed, map[string]string{"user_id": callerID})

	log.Printf("getUsers: total users=%d", len(users))
	return &models.GetUsersResponse{Message: models.MsgGetUsersSuccess, Users: users}, nil
}

// ActivateAccount completes an invitation: the security code is exchanged for
// a password and the account goes Active.
func (us *UserService) ActivateAccount(ctx context.Context, req *models.ActivateRequest) (*models.AdminUserResponse, error) {
	admin, err := us.adminStore.FindBySecurityCode(ctx, req.SecurityCode)
	if err != nil {
		return nil, err
	}
	if admin == nil || admin.SecurityCodeExpiry < int(time.Now().Unix()) {
		return nil, common.ErrInvalidSecurityCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	admin.PasswordHash = string(hash)
	admin.Status = models.StatusActive
	admin.SecurityCode = ""
	admin.SecurityCodeExpiry = 0
	admin.UpdatedAt = int(time.Now().Unix())

	if err := us.adminStore.Update(ctx, admin); err != nil {
		return nil, err
	}

	us.audit.LogEvent(ctx, events.AuditUserAccountActivated, map[string]string{"user_id": admin.ID})

	return &models.AdminUserResponse{Message: models.MsgUserActivated, UserID: admin.ID}, nil
}

// ResendPendingInvitations re-sends the invitation email for every still
// invited admin whose security code has not expired. Driven by the reminder
// task on a timer.
func (us *UserService) ResendPendingInvitations(ctx context.Context) (int, error) {
	admins, err := us.adminStore.FindByStatus(ctx, models.StatusInvited)
	if err != nil {
		return 0, err
	}

	sent := 0
	now := int(time.Now().Unix())
	for _, admin := range admins {
		if admin.SecurityCode == "" || admin.SecurityCodeExpiry < now {
			continue
		}
		if us.emailSender.SendInvitationEmail(ctx, admin) {
			sent++
		}
	}

	return sent, nil
}

func (us *UserService) requireSuperAdmin(ctx context.Context, callerID string) error {
	caller, err := us.adminStore.FindByID(ctx, callerID)
	if err != nil {
		return err
	}
	if caller == nil {
		return common.ErrUserNotFound
	}
	if !caller.IsSuperAdmin {
		return common.ErrNotSuperAdminAccess
	}
	return nil
}

func toUserInfo(admin *models.AdminUser) models.UserInfo {
	return models.UserInfo{
		ID:           admin.ID,
		Email:        admin.Email,
		FirstName:    admin.FirstName,
		LastName:     admin.LastName,
		IsSuperAdmin: admin.IsSuperAdmin,
		Status:       models.StatusLabel(admin.Status),
	}
}

func accessLevel(isSuperAdmin bool) string {
	if isSuperAdmin {
		return accessLevelSuperAdmin
	}
	return accessLevelAdmin
}
