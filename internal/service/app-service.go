package service

import (
	"context"
	"log"
	"math"
	"strings"
	"study_admin_service/internal/common"
	"study_admin_service/internal/events"
	"study_admin_service/internal/models"
	"time"
)

const (
	appsCacheKey = "study-admin-apps"
	appsCacheTTL = 10 * time.Minute

	fieldStudies = "studies"
	fieldSites   = "sites"
)

// AppService builds the app listing and participant roster views. Reads merge
// catalog entities with per-app aggregate counts; they never consult grant
// rows below the level being listed.
type AppService struct {
	adminStore       AdminStore
	catalog          Catalog
	permissionStore  PermissionStore
	participantStore ParticipantStore
	cache            Cache
	audit            AuditLogger
}

func NewAppService(
	adminStore AdminStore,
	catalog Catalog,
	permissionStore PermissionStore,
	participantStore ParticipantStore,
	cache Cache,
	audit AuditLogger,
) *AppService {
	return &AppService{
		adminStore:       adminStore,
		catalog:          catalog,
		permissionStore:  permissionStore,
		participantStore: participantStore,
		cache:            cache,
		audit:            audit,
	}
}

// GetApps lists the apps visible to userID with participant statistics. Super
// admins see the whole catalog at edit level; scoped admins see only apps they
// hold a grant row for.
func (as *AppService) GetApps(ctx context.Context, userID string) (*models.AppResponse, error) {
	admin, err := as.adminStore.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, common.ErrUserNotFound
	}

	if admin.IsSuperAdmin {
		return as.getAppsForSuperAdmin(ctx)
	}
	return as.getAppsForScopedAdmin(ctx, userID)
}

func (as *AppService) getAppsForSuperAdmin(ctx context.Context) (*models.AppResponse, error) {
	apps, err := as.catalog.ListApps(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := as.loadAppStats(ctx, nil)
	if err != nil {
		return nil, err
	}

	response := &models.AppResponse{Message: models.MsgGetAppsSuccess, IsSuperAdmin: true}
	for _, app := range apps {
		details := newAppDetails(app, stats)
		details.Permission = models.EditValue
		response.StudyCount += details.StudiesCount
		response.Apps = append(response.Apps, details)
	}

	log.Printf("getApps: %d apps for super admin", len(response.Apps))
	return response, nil
}

func (as *AppService) getAppsForScopedAdmin(ctx context.Context, userID string) (*models.AppResponse, error) {
	permissions, err := as.permissionStore.FindAppPermissionsByAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(permissions) == 0 {
		return nil, common.ErrAppNotFound
	}

	permissionMap := make(map[string]*models.AppPermission, len(permissions))
	appIDs := make([]string, 0, len(permissions))
	for _, p := range permissions {
		permissionMap[p.AppID] = p
		appIDs = append(appIDs, p.AppID)
	}

	apps, err := as.catalog.ListApps(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := as.loadAppStats(ctx, appIDs)
	if err != nil {
		return nil, err
	}

	response := &models.AppResponse{Message: models.MsgGetAppsSuccess}
	for _, app := range apps {
		permission, ok := permissionMap[app.ID]
		if !ok {
			continue
		}
		details := newAppDetails(app, stats)
		if permission.Level == models.NoPermission {
			details.Permission = models.ViewValue
		} else {
			details.Permission = models.EditValue
		}
		response.StudyCount += details.StudiesCount
		response.Apps = append(response.Apps, details)
	}

	log.Printf("getApps: %d apps for scoped admin %s", len(response.Apps), userID)
	return response, nil
}

// appStats holds the per-app aggregate counts merged by app id.
type appStats struct {
	users    map[string]int64
	studies  map[string]int64
	enrolled map[string]int64
	invited  map[string]int64
}

func (as *AppService) loadAppStats(ctx context.Context, appIDs []string) (*appStats, error) {
	usersCounts, err := as.participantStore.FindAppUsersCount(ctx, appIDs)
	if err != nil {
		return nil, err
	}
	studiesCounts, err := as.catalog.FindAppStudiesCount(ctx)
	if err != nil {
		return nil, err
	}
	enrolledCounts, err := as.participantStore.FindEnrolledCountByApp(ctx, appIDs)
	if err != nil {
		return nil, err
	}
	invitedCounts, err := as.participantStore.FindInvitedCountByApp(ctx, appIDs)
	if err != nil {
		return nil, err
	}

	return &appStats{
		users:    countMap(usersCounts),
		studies:  countMap(studiesCounts),
		enrolled: countMap(enrolledCounts),
		invited:  countMap(invitedCounts),
	}, nil
}

func countMap(counts []*models.AppCount) map[string]int64 {
	m := make(map[string]int64, len(counts))
	for _, c := range counts {
		m[c.AppID] = c.Count
	}
	return m
}

func newAppDetails(app *models.App, stats *appStats) models.AppDetails {
	details := models.AppDetails{
		ID:            app.ID,
		CustomID:      app.CustomID,
		Name:          app.Name,
		AppUsersCount: stats.users[app.ID],
		StudiesCount:  stats.studies[app.ID],
		EnrolledCount: stats.enrolled[app.ID],
		InvitedCount:  stats.invited[app.ID],
	}
	// Percentage only makes sense with at least one invite and a consistent
	// pair of counts. Otherwise it stays at zero.
	if details.InvitedCount > 0 && details.InvitedCount >= details.EnrolledCount {
		pct := float64(details.EnrolledCount) * 100 / float64(details.InvitedCount)
		details.EnrollmentPercentage = math.Round(pct*100) / 100
	}
	return details
}

// GetAppsWithOptionalFields returns the raw catalog tree, optionally expanded
// with studies and sites. Super admin only. The tree is cached and dropped by
// the catalog change consumer.
func (as *AppService) GetAppsWithOptionalFields(ctx context.Context, userID string, fields []string) (*models.AppResponse, error) {
	admin, err := as.adminStore.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, common.ErrUserNotFound
	}
	if !admin.IsSuperAdmin {
		return nil, common.ErrNotSuperAdminAccess
	}

	withStudies := false
	withSites := false
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case fieldStudies:
			withStudies = true
		case fieldSites:
			withSites = true
		case "":
		default:
			return nil, common.ErrInvalidFieldValues
		}
	}

	tree, err := as.loadCatalogTree(ctx)
	if err != nil {
		return nil, err
	}

	response := &models.AppResponse{Message: models.MsgGetAppsDetailsSuccess, IsSuperAdmin: true}
	for _, app := range tree.Apps {
		details := models.AppDetails{
			ID:              app.ID,
			CustomID:        app.CustomID,
			Name:            app.Name,
			TotalSitesCount: app.TotalSitesCount,
		}
		if withStudies || withSites {
			for _, study := range app.Studies {
				studyDetails := models.AppStudyDetails{
					StudyID:       study.StudyID,
					CustomStudyID: study.CustomStudyID,
					StudyName:     study.StudyName,
				}
				if withSites {
					studyDetails.Sites = study.Sites
				}
				details.Studies = append(details.Studies, studyDetails)
			}
		}
		response.Apps = append(response.Apps, details)
	}

	return response, nil
}

func (as *AppService) loadCatalogTree(ctx context.Context) (*models.AppResponse, error) {
	cached := &models.AppResponse{}
	if err := as.cache.GetStructCached(ctx, appsCacheKey, cached); err == nil && len(cached.Apps) > 0 {
		return cached, nil
	}

	apps, err := as.catalog.ListApps(ctx)
	if err != nil {
		return nil, err
	}

	tree := &models.AppResponse{}
	for _, app := range apps {
		details := models.AppDetails{
			ID:       app.ID,
			CustomID: app.CustomID,
			Name:     app.Name,
		}

		studies, err := as.catalog.ListStudiesByApp(ctx, app.ID)
		if err != nil {
			return nil, err
		}
		for _, study := range studies {
			studyDetails := models.AppStudyDetails{
				StudyID:       study.ID,
				CustomStudyID: study.CustomID,
				StudyName:     study.Name,
			}
			sites, err := as.catalog.ListSitesByStudy(ctx, study.ID)
			if err != nil {
				return nil, err
			}
			for _, site := range sites {
				studyDetails.Sites = append(studyDetails.Sites, models.AppSiteDetails{
					SiteID:   site.ID,
					SiteName: site.Name,
				})
			}
			details.TotalSitesCount += len(sites)
			details.Studies = append(details.Studies, studyDetails)
		}

		tree.Apps = append(tree.Apps, details)
	}

	if _, err := as.cache.SaveStructCached(ctx, appsCacheKey, tree, appsCacheTTL); err != nil {
		log.Printf("Failed to cache app catalog tree: %v", err)
	}
	return tree, nil
}

// GetAppParticipants folds flat enrollment tuples into one roster entry per
// distinct user, in first-seen order. Users with no enrollment rows still
// appear, with an empty study list.
func (as *AppService) GetAppParticipants(ctx context.Context, appID, callerID string, excludeStudyStatuses []string) (*models.AppParticipantsResponse, error) {
	admin, err := as.adminStore.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, common.ErrUserNotFound
	}

	if !admin.IsSuperAdmin {
		permission, err := as.permissionStore.FindAppPermission(ctx, callerID, appID)
		if err != nil {
			return nil, err
		}
		if permission == nil {
			return nil, common.ErrAppPermissionAccessDenied
		}
	}

	app, err := as.catalog.FindAppByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, common.ErrAppNotFound
	}

	tuples, err := as.participantStore.FindParticipantsByApp(ctx, appID, excludeStudyStatuses)
	if err != nil {
		return nil, err
	}

	participants := make([]*models.ParticipantDetail, 0)
	indexByUser := make(map[string]int)
	userIDs := make([]string, 0)
	for _, tuple := range tuples {
		idx, seen := indexByUser[tuple.UserDetailsID]
		if !seen {
			participants = append(participants, &models.ParticipantDetail{
				UserDetailsID:    tuple.UserDetailsID,
				Email:            tuple.Email,
				RegistrationDate: tuple.RegistrationDate,
			})
			idx = len(participants) - 1
			indexByUser[tuple.UserDetailsID] = idx
			userIDs = append(userIDs, tuple.UserDetailsID)
		}
		if tuple.StudyID == "" {
			continue
		}
		participants[idx].EnrolledStudies = append(participants[idx].EnrolledStudies, models.ParticipantStudyDetail{
			StudyID:       tuple.StudyID,
			CustomStudyID: tuple.CustomStudyID,
			StudyName:     tuple.StudyName,
			StudyStatus:   tuple.StudyStatus,
			EnrolledDate:  tuple.EnrolledDate,
		})
	}

	if len(userIDs) > 0 {
		siteTuples, err := as.participantStore.FindSitesByAppAndUsers(ctx, appID, userIDs, excludeStudyStatuses)
		if err != nil {
			return nil, err
		}
		sitesByUserStudy := make(map[string][]models.AppSiteDetails)
		for _, site := range siteTuples {
			sitesByUserStudy[site.UserStudyKey()] = append(sitesByUserStudy[site.UserStudyKey()], models.AppSiteDetails{
				SiteID:   site.SiteID,
				SiteName: site.SiteName,
			})
		}
		for _, participant := range participants {
			for i := range participant.EnrolledStudies {
				study := &participant.EnrolledStudies[i]
				study.Sites = sitesByUserStudy[participant.UserDetailsID+study.StudyID]
			}
		}
	}

	as.audit.LogEvent(ctx, events.AuditAppParticipantRegistryViewed, map[string]string{
		"app_id":  appID,
		"user_id": callerID,
	})

	response := &models.AppParticipantsResponse{
		Message:      models.MsgGetAppParticipantsSuccess,
		AppID:        app.ID,
		CustomAppID:  app.CustomID,
		AppName:      app.Name,
		Participants: make([]models.ParticipantDetail, 0, len(participants)),
	}
	for _, participant := range participants {
		response.Participants = append(response.Participants, *participant)
	}

	log.Printf("getAppParticipants: %d participants for app %s", len(response.Participants), appID)
	return response, nil
}
