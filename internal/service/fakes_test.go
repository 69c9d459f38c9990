package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"study_admin_service/internal/models"
	"time"
)

// In-memory stand-ins for the Mongo repositories. They keep the same
// nil-on-missing contract the real ones have.

type fakeAdminStore struct {
	admins map[string]*models.AdminUser
	order  []string
}

func newFakeAdminStore(admins ...*models.AdminUser) *fakeAdminStore {
	store := &fakeAdminStore{admins: make(map[string]*models.AdminUser)}
	for _, admin := range admins {
		store.admins[admin.ID] = admin
		store.order = append(store.order, admin.ID)
	}
	return store
}

func (f *fakeAdminStore) FindByID(ctx context.Context, id string) (*models.AdminUser, error) {
	return f.admins[id], nil
}

func (f *fakeAdminStore) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	for _, admin := range f.admins {
		if admin.Email == email {
			return admin, nil
		}
	}
	return nil, nil
}

func (f *fakeAdminStore) FindBySecurityCode(ctx context.Context, code string) (*models.AdminUser, error) {
	if code == "" {
		return nil, nil
	}
	for _, admin := range f.admins {
		if admin.SecurityCode == code {
			return admin, nil
		}
	}
	return nil, nil
}

func (f *fakeAdminStore) FindAll(ctx context.Context) ([]*models.AdminUser, error) {
	all := make([]*models.AdminUser, 0, len(f.order))
	for _, id := range f.order {
		all = append(all, f.admins[id])
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt > all[j].CreatedAt
	})
	return all, nil
}

func (f *fakeAdminStore) FindByStatus(ctx context.Context, status int) ([]*models.AdminUser, error) {
	var matched []*models.AdminUser
	for _, id := range f.order {
		if f.admins[id].Status == status {
			matched = append(matched, f.admins[id])
		}
	}
	return matched, nil
}

func (f *fakeAdminStore) Save(ctx context.Context, admin *models.AdminUser) (*models.AdminUser, error) {
	f.admins[admin.ID] = admin
	f.order = append(f.order, admin.ID)
	return admin, nil
}

func (f *fakeAdminStore) Update(ctx context.Context, admin *models.AdminUser) error {
	if _, ok := f.admins[admin.ID]; !ok {
		return fmt.Errorf("admin %s not found", admin.ID)
	}
	f.admins[admin.ID] = admin
	return nil
}

type fakeCatalog struct {
	apps    []*models.App
	studies []*models.Study
	sites   []*models.Site
}

func (f *fakeCatalog) ListApps(ctx context.Context) ([]*models.App, error) {
	return f.apps, nil
}

func (f *fakeCatalog) FindAppByID(ctx context.Context, id string) (*models.App, error) {
	for _, app := range f.apps {
		if app.ID == id {
			return app, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ListStudiesByApp(ctx context.Context, appID string) ([]*models.Study, error) {
	var matched []*models.Study
	for _, study := range f.studies {
		if study.AppID == appID {
			matched = append(matched, study)
		}
	}
	return matched, nil
}

func (f *fakeCatalog) ListAllStudies(ctx context.Context) ([]*models.Study, error) {
	return f.studies, nil
}

func (f *fakeCatalog) FindStudyByID(ctx context.Context, id string) (*models.Study, error) {
	for _, study := range f.studies {
		if study.ID == id {
			return study, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) FindSiteByID(ctx context.Context, id string) (*models.Site, error) {
	for _, site := range f.sites {
		if site.ID == id {
			return site, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ListSitesByStudy(ctx context.Context, studyID string) ([]*models.Site, error) {
	var matched []*models.Site
	for _, site := range f.sites {
		if site.StudyID == studyID {
			matched = append(matched, site)
		}
	}
	return matched, nil
}

func (f *fakeCatalog) ListSitesByStudyIDs(ctx context.Context, studyIDs []string) ([]*models.Site, error) {
	wanted := make(map[string]bool, len(studyIDs))
	for _, id := range studyIDs {
		wanted[id] = true
	}
	var matched []*models.Site
	for _, site := range f.sites {
		if wanted[site.StudyID] {
			matched = append(matched, site)
		}
	}
	return matched, nil
}

func (f *fakeCatalog) ListAllSites(ctx context.Context) ([]*models.Site, error) {
	return f.sites, nil
}

func (f *fakeCatalog) FindAppStudiesCount(ctx context.Context) ([]*models.AppCount, error) {
	byApp := make(map[string]int64)
	for _, study := range f.studies {
		byApp[study.AppID]++
	}
	var counts []*models.AppCount
	for appID, count := range byApp {
		counts = append(counts, &models.AppCount{AppID: appID, Count: count})
	}
	return counts, nil
}

type fakePermissionStore struct {
	apps    []*models.AppPermission
	studies []*models.StudyPermission
	sites   []*models.SitePermission
}

func (f *fakePermissionStore) SaveAppPermissions(ctx context.Context, permissions []*models.AppPermission) error {
	f.apps = append(f.apps, permissions...)
	return nil
}

func (f *fakePermissionStore) SaveStudyPermissions(ctx context.Context, permissions []*models.StudyPermission) error {
	f.studies = append(f.studies, permissions...)
	return nil
}

func (f *fakePermissionStore) SaveSitePermissions(ctx context.Context, permissions []*models.SitePermission) error {
	f.sites = append(f.sites, permissions...)
	return nil
}

func (f *fakePermissionStore) FindAppPermissionsByAdmin(ctx context.Context, adminUserID string) ([]*models.AppPermission, error) {
	var matched []*models.AppPermission
	for _, p := range f.apps {
		if p.AdminUserID == adminUserID {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (f *fakePermissionStore) FindAppPermission(ctx context.Context, adminUserID, appID string) (*models.AppPermission, error) {
	for _, p := range f.apps {
		if p.AdminUserID == adminUserID && p.AppID == appID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePermissionStore) FindStudyPermission(ctx context.Context, adminUserID, appID, studyID string) (*models.StudyPermission, error) {
	for _, p := range f.studies {
		if p.AdminUserID == adminUserID && p.AppID == appID && p.StudyID == studyID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePermissionStore) FindSitePermission(ctx context.Context, adminUserID, appID, studyID, siteID string) (*models.SitePermission, error) {
	for _, p := range f.sites {
		if p.AdminUserID == adminUserID && p.AppID == appID && p.StudyID == studyID && p.SiteID == siteID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePermissionStore) DeleteByAdmin(ctx context.Context, adminUserID string) error {
	var apps []*models.AppPermission
	for _, p := range f.apps {
		if p.AdminUserID != adminUserID {
			apps = append(apps, p)
		}
	}
	f.apps = apps

	var studies []*models.StudyPermission
	for _, p := range f.studies {
		if p.AdminUserID != adminUserID {
			studies = append(studies, p)
		}
	}
	f.studies = studies

	var sites []*models.SitePermission
	for _, p := range f.sites {
		if p.AdminUserID != adminUserID {
			sites = append(sites, p)
		}
	}
	f.sites = sites
	return nil
}

func (f *fakePermissionStore) rowsFor(adminUserID string) int {
	total := 0
	for _, p := range f.apps {
		if p.AdminUserID == adminUserID {
			total++
		}
	}
	for _, p := range f.studies {
		if p.AdminUserID == adminUserID {
			total++
		}
	}
	for _, p := range f.sites {
		if p.AdminUserID == adminUserID {
			total++
		}
	}
	return total
}

type fakeParticipantStore struct {
	usersCounts    []*models.AppCount
	enrolledCounts []*models.AppCount
	invitedCounts  []*models.AppCount
	participants   []*models.AppParticipantInfo
	siteTuples     []*models.AppSiteInfo
}

func filterCounts(counts []*models.AppCount, appIDs []string) []*models.AppCount {
	if appIDs == nil {
		return counts
	}
	wanted := make(map[string]bool, len(appIDs))
	for _, id := range appIDs {
		wanted[id] = true
	}
	var matched []*models.AppCount
	for _, c := range counts {
		if wanted[c.AppID] {
			matched = append(matched, c)
		}
	}
	return matched
}

func (f *fakeParticipantStore) FindAppUsersCount(ctx context.Context, appIDs []string) ([]*models.AppCount, error) {
	return filterCounts(f.usersCounts, appIDs), nil
}

func (f *fakeParticipantStore) FindEnrolledCountByApp(ctx context.Context, appIDs []string) ([]*models.AppCount, error) {
	return filterCounts(f.enrolledCounts, appIDs), nil
}

func (f *fakeParticipantStore) FindInvitedCountByApp(ctx context.Context, appIDs []string) ([]*models.AppCount, error) {
	return filterCounts(f.invitedCounts, appIDs), nil
}

func (f *fakeParticipantStore) FindParticipantsByApp(ctx context.Context, appID string, excludeStudyStatuses []string) ([]*models.AppParticipantInfo, error) {
	excluded := make(map[string]bool, len(excludeStudyStatuses))
	for _, status := range excludeStudyStatuses {
		excluded[status] = true
	}
	var matched []*models.AppParticipantInfo
	for _, tuple := range f.participants {
		if tuple.StudyID != "" && excluded[tuple.StudyStatus] {
			continue
		}
		matched = append(matched, tuple)
	}
	return matched, nil
}

func (f *fakeParticipantStore) FindSitesByAppAndUsers(ctx context.Context, appID string, userIDs []string, excludeStudyStatuses []string) ([]*models.AppSiteInfo, error) {
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var matched []*models.AppSiteInfo
	for _, tuple := range f.siteTuples {
		if wanted[tuple.UserDetailsID] {
			matched = append(matched, tuple)
		}
	}
	return matched, nil
}

// fakeTxn runs the function inline. Rollback behavior is not simulated; the
// tests that care assert that nothing was written before the transaction.
type fakeTxn struct {
	calls int
	err   error
}

func (f *fakeTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type fakeEmailSender struct {
	acceptInvite bool
	acceptUpdate bool
	invites      []string
	updates      []string
}

func (f *fakeEmailSender) SendInvitationEmail(ctx context.Context, admin *models.AdminUser) bool {
	f.invites = append(f.invites, admin.Email)
	return f.acceptInvite
}

func (f *fakeEmailSender) SendUpdateEmail(ctx context.Context, admin *models.AdminUser) bool {
	f.updates = append(f.updates, admin.Email)
	return f.acceptUpdate
}

type auditRecord struct {
	name   string
	fields map[string]string
}

type fakeAudit struct {
	records []auditRecord
}

func (f *fakeAudit) LogEvent(ctx context.Context, eventName string, fields map[string]string) {
	f.records = append(f.records, auditRecord{name: eventName, fields: fields})
}

func (f *fakeAudit) has(eventName string) bool {
	for _, record := range f.records {
		if record.name == eventName {
			return true
		}
	}
	return false
}

func (f *fakeAudit) fieldsOf(eventName string) map[string]string {
	for _, record := range f.records {
		if record.name == eventName {
			return record.fields
		}
	}
	return nil
}

type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) SaveStructCached(ctx context.Context, key string, model any, ttl time.Duration) (bool, error) {
	val, err := json.Marshal(model)
	if err != nil {
		return false, err
	}
	f.entries[key] = val
	return true, nil
}

func (f *fakeCache) GetStructCached(ctx context.Context, key string, model any) error {
	val, ok := f.entries[key]
	if !ok {
		return fmt.Errorf("cache miss: %s", key)
	}
	return json.Unmarshal(val, model)
}

func (f *fakeCache) DeleteCached(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

// testCatalog is the topology shared by the service tests: app-1 has study-1
// with two sites and study-2 with one site, app-2 has study-3 with no sites.
func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		apps: []*models.App{
			{ID: "app-1", CustomID: "APP-001", Name: "Sleep Study App"},
			{ID: "app-2", CustomID: "APP-002", Name: "Heart Health App"},
		},
		studies: []*models.Study{
			{ID: "study-1", CustomID: "ST-001", Name: "Sleep Baseline", AppID: "app-1"},
			{ID: "study-2", CustomID: "ST-002", Name: "Sleep Followup", AppID: "app-1"},
			{ID: "study-3", CustomID: "ST-003", Name: "Cardio Screening", AppID: "app-2"},
		},
		sites: []*models.Site{
			{ID: "site-1", Name: "Boston General", StudyID: "study-1"},
			{ID: "site-2", Name: "Chicago Clinic", StudyID: "study-1"},
			{ID: "site-3", Name: "Denver Medical", StudyID: "study-2"},
		},
	}
}
