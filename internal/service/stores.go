package service

import (
	"context"
	"study_admin_service/internal/models"
	"time"
)

// Storage handles consumed by the services. The Mongo repositories satisfy
// them in production; tests substitute in-memory fakes.

type AdminStore interface {
	FindByID(ctx context.Context, id string) (*models.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindBySecurityCode(ctx context.Context, code string) (*models.AdminUser, error)
	FindAll(ctx context.Context) ([]*models.AdminUser, error)
	FindByStatus(ctx context.Context, status int) ([]*models.AdminUser, error)
	Save(ctx context.Context, admin *models.AdminUser) (*models.AdminUser, error)
	Update(ctx context.Context, admin *models.AdminUser) error
}

type Catalog interface {
	ListApps(ctx context.Context) ([]*models.App, error)
	FindAppByID(ctx context.Context, id string) (*models.App, error)
	ListStudiesByApp(ctx context.Context, appID string) ([]*models.Study, error)
	ListAllStudies(ctx context.Context) ([]*models.Study, error)
	FindStudyByID(ctx context.Context, id string) (*models.Study, error)
	FindSiteByID(ctx context.Context, id string) (*models.Site, error)
	ListSitesByStudy(ctx context.Context, studyID string) ([]*models.Site, error)
	ListSitesByStudyIDs(ctx context.Context, studyIDs []string) ([]*models.Site, error)
	ListAllSites(ctx context.Context) ([]*models.Site, error)
	FindAppStudiesCount(ctx context.Context) ([]*models.AppCount, error)
}

type PermissionStore interface {
	SaveAppPermissions(ctx context.Context, permissions []*models.AppPermission) error
	SaveStudyPermissions(ctx context.Context, permissions []*models.StudyPermission) error
	SaveSitePermissions(ctx context.Context, permissions []*models.SitePermission) error
	FindAppPermissionsByAdmin(ctx context.Context, adminUserID string) ([]*models.AppPermission, error)
	FindAppPermission(ctx context.Context, adminUserID, appID string) (*models.AppPermission, error)
	FindStudyPermission(ctx context.Context, adminUserID, appID, studyID string) (*models.StudyPermission, error)
	FindSitePermission(ctx context.Context, adminUserID, appID, studyID, siteID string) (*models.SitePermission, error)
	DeleteByAdmin(ctx context.Context, adminUserID string) error
}

type ParticipantStore interface {
	FindAppUsersCount(ctx context.Context, appIDs []string) ([]*models.AppCount, error)
	FindEnrolledCountByApp(ctx context.Context, appIDs []string) ([]*models.AppCount, error)
	FindInvitedCountByApp(ctx context.Context, appIDs []string) ([]*models.AppCount, error)
	FindParticipantsByApp(ctx context.Context, appID string, excludeStudyStatuses []string) ([]*models.AppParticipantInfo, error)
	FindSitesByAppAndUsers(ctx context.Context, appID string, userIDs []string, excludeStudyStatuses []string) ([]*models.AppSiteInfo, error)
}

// TxnRunner wraps a function in one storage transaction.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Cache interface {
	SaveStructCached(ctx context.Context, key string, model any, ttl time.Duration) (bool, error)
	GetStructCached(ctx context.Context, key string, model any) error
	DeleteCached(ctx context.Context, keys ...string) error
}
