package service

import (
	"context"
	"log"
	"study_admin_service/internal/metrics"
	"study_admin_service/internal/models"
	"time"

	"github.com/google/uuid"
)

// AssignmentService turns a selection tree into the full set of grant rows
// for one admin. It never inspects existing rows; update flows delete the old
// set first and the engine recomputes from scratch.
type AssignmentService struct {
	catalog         Catalog
	permissionStore PermissionStore
}

func NewAssignmentService(catalog Catalog, permissionStore PermissionStore) *AssignmentService {
	return &AssignmentService{
		catalog:         catalog,
		permissionStore: permissionStore,
	}
}

// GrantSet is the computed output of one assignment, grouped per level.
type GrantSet struct {
	Apps    []*models.AppPermission
	Studies []*models.StudyPermission
	Sites   []*models.SitePermission
}

func (g *GrantSet) Size() int {
	return len(g.Apps) + len(g.Studies) + len(g.Sites)
}

// AssignPermissions computes and persists the grant rows for adminUserID.
// For a super admin the selection tree is ignored and the whole current
// catalog is snapshotted at Edit level.
func (s *AssignmentService) AssignPermissions(ctx context.Context, adminUserID, createdBy string, isSuperAdmin bool, apps []models.AppPermissionRequest) error {
	grants, err := s.ComputeGrants(ctx, adminUserID, createdBy, isSuperAdmin, apps)
	if err != nil {
		return err
	}
	return s.Persist(ctx, grants)
}

func (s *AssignmentService) ComputeGrants(ctx context.Context, adminUserID, createdBy string, isSuperAdmin bool, apps []models.AppPermissionRequest) (*GrantSet, error) {
	if isSuperAdmin {
		return s.computeFullCoverage(ctx, adminUserID, createdBy)
	}
	return s.computeScopedGrants(ctx, adminUserID, createdBy, apps)
}

func (s *AssignmentService) Persist(ctx context.Context, grants *GrantSet) error {
	if err := s.permissionStore.SaveAppPermissions(ctx, grants.Apps); err != nil {
		return err
	}
	if err := s.permissionStore.SaveStudyPermissions(ctx, grants.Studies); err != nil {
		return err
	}
	if err := s.permissionStore.SaveSitePermissions(ctx, grants.Sites); err != nil {
		return err
	}
	metrics.GrantRowsWritten.WithLabelValues("app").Add(float64(len(grants.Apps)))
	metrics.GrantRowsWritten.WithLabelValues("study").Add(float64(len(grants.Studies)))
	metrics.GrantRowsWritten.WithLabelValues("site").Add(float64(len(grants.Sites)))
	log.Printf("Persisted %d grant rows for admin %s", grants.Size(), grants.adminID())
	return nil
}

func (g *GrantSet) adminID() string {
	if len(g.Apps) > 0 {
		return g.Apps[0].AdminUserID
	}
	if len(g.Studies) > 0 {
		return g.Studies[0].AdminUserID
	}
	if len(g.Sites) > 0 {
		return g.Sites[0].AdminUserID
	}
	return ""
}

// computeFullCoverage snapshots Edit grants for every current catalog entity.
// Resources added to the catalog later are not covered until the admin is
// updated again.
func (s *AssignmentService) computeFullCoverage(ctx context.Context, adminUserID, createdBy string) (*GrantSet, error) {
	grants := &GrantSet{}

	apps, err := s.catalog.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		grants.Apps = append(grants.Apps, newAppGrant(adminUserID, createdBy, app.ID))
	}

	studies, err := s.catalog.ListAllStudies(ctx)
	if err != nil {
		return nil, err
	}
	studyApp := make(map[string]string, len(studies))
	for _, study := range studies {
		studyApp[study.ID] = study.AppID
		grants.Studies = append(grants.Studies, newStudyGrant(adminUserID, createdBy, study.AppID, study.ID))
	}

	sites, err := s.catalog.ListAllSites(ctx)
	if err != nil {
		return nil, err
	}
	for _, site := range sites {
		grants.Sites = append(grants.Sites, newSiteGrant(adminUserID, createdBy, studyApp[site.StudyID], site.StudyID, site.ID))
	}

	log.Printf("Computed full coverage snapshot for admin %s: %d apps, %d studies, %d sites",
		adminUserID, len(grants.Apps), len(grants.Studies), len(grants.Sites))
	return grants, nil
}

func (s *AssignmentService) computeScopedGrants(ctx context.Context, adminUserID, createdBy string, apps []models.AppPermissionRequest) (*GrantSet, error) {
	grants := &GrantSet{}

	for _, app := range apps {
		if !app.Selected {
			continue
		}
		if err := s.addAppSubtreeGrants(ctx, grants, adminUserID, createdBy, app); err != nil {
			return nil, err
		}
	}

	for _, app := range apps {
		if app.Selected {
			continue
		}
		for _, study := range app.Studies {
			if study.Selected {
				if err := s.addStudySubtreeGrants(ctx, grants, adminUserID, createdBy, study.StudyID); err != nil {
					return nil, err
				}
			} else if len(study.Sites) > 0 {
				if err := s.addSelectedSiteGrants(ctx, grants, adminUserID, createdBy, study.Sites); err != nil {
					return nil, err
				}
			}
		}
	}

	return grants, nil
}

// addAppSubtreeGrants writes one app row plus rows for every study and site
// under the app, regardless of the individual selection flags inside it.
// Selecting an app delegates its whole current subtree.
func (s *AssignmentService) addAppSubtreeGrants(ctx context.Context, grants *GrantSet, adminUserID, createdBy string, app models.AppPermissionRequest) error {
	appDetails, err := s.catalog.FindAppByID(ctx, app.ID)
	if err != nil {
		return err
	}
	if appDetails == nil {
		// Removed from the catalog since the tree was built; skip.
		return nil
	}

	grants.Apps = append(grants.Apps, newAppGrant(adminUserID, createdBy, appDetails.ID))

	studies, err := s.catalog.ListStudiesByApp(ctx, appDetails.ID)
	if err != nil {
		return err
	}
	studyIDs := make([]string, 0, len(studies))
	for _, study := range studies {
		studyIDs = append(studyIDs, study.ID)
		grants.Studies = append(grants.Studies, newStudyGrant(adminUserID, createdBy, appDetails.ID, study.ID))
	}

	sites, err := s.catalog.ListSitesByStudyIDs(ctx, studyIDs)
	if err != nil {
		return err
	}
	for _, site := range sites {
		grants.Sites = append(grants.Sites, newSiteGrant(adminUserID, createdBy, appDetails.ID, site.StudyID, site.ID))
	}

	return nil
}

func (s *AssignmentService) addStudySubtreeGrants(ctx context.Context, grants *GrantSet, adminUserID, createdBy, studyID string) error {
	studyDetails, err := s.catalog.FindStudyByID(ctx, studyID)
	if err != nil {
		return err
	}
	if studyDetails == nil {
		return nil
	}

	grants.Studies = append(grants.Studies, newStudyGrant(adminUserID, createdBy, studyDetails.AppID, studyDetails.ID))

	sites, err := s.catalog.ListSitesByStudy(ctx, studyDetails.ID)
	if err != nil {
		return err
	}
	for _, site := range sites {
		grants.Sites = append(grants.Sites, newSiteGrant(adminUserID, createdBy, studyDetails.AppID, studyDetails.ID, site.ID))
	}

	return nil
}

// addSelectedSiteGrants writes rows only for the individually selected sites.
// No study row is written for their parent study.
func (s *AssignmentService) addSelectedSiteGrants(ctx context.Context, grants *GrantSet, adminUserID, createdBy string, sites []models.SitePermissionRequest) error {
	for _, site := range sites {
		if !site.Selected {
			continue
		}
		siteDetails, err := s.catalog.FindSiteByID(ctx, site.SiteID)
		if err != nil {
			return err
		}
		if siteDetails == nil {
			continue
		}
		studyDetails, err := s.catalog.FindStudyByID(ctx, siteDetails.StudyID)
		if err != nil {
			return err
		}
		if studyDetails == nil {
			continue
		}
		grants.Sites = append(grants.Sites, newSiteGrant(adminUserID, createdBy, studyDetails.AppID, studyDetails.ID, siteDetails.ID))
	}
	return nil
}

func newAppGrant(adminUserID, createdBy, appID string) *models.AppPermission {
	return &models.AppPermission{
		ID:          uuid.NewString(),
		AdminUserID: adminUserID,
		AppID:       appID,
		Level:       models.Edit,
		CreatedBy:   createdBy,
		CreatedAt:   int(time.Now().Unix()),
	}
}

func newStudyGrant(adminUserID, createdBy, appID, studyID string) *models.StudyPermission {
	return &models.StudyPermission{
		ID:          uuid.NewString(),
		AdminUserID: adminUserID,
		AppID:       appID,
		StudyID:     studyID,
		Level:       models.Edit,
		CreatedBy:   createdBy,
		CreatedAt:   int(time.Now().Unix()),
	}
}

func newSiteGrant(adminUserID, createdBy, appID, studyID, siteID string) *models.SitePermission {
	return &models.SitePermission{
		ID:          uuid.NewString(),
		AdminUserID: adminUserID,
		AppID:       appID,
		StudyID:     studyID,
		SiteID:      siteID,
		Level:       models.Edit,
		CreatedBy:   createdBy,
		CreatedAt:   int(time.Now().Unix()),
	}
}
