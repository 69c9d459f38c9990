package models

// Success messages carried on response payloads.
const (
	MsgAddNewUserSuccess         = "New admin added successfully"
	MsgUpdateUserSuccess         = "Admin updated successfully"
	MsgGetAdminDetailsSuccess    = "Admin details fetched successfully"
	MsgGetUsersSuccess           = "Admins fetched successfully"
	MsgGetAppsSuccess            = "Apps fetched successfully"
	MsgGetAppsDetailsSuccess     = "App details fetched successfully"
	MsgGetAppParticipantsSuccess = "App participants fetched successfully"
	MsgUserActivated             = "Account activated successfully"
)

type AdminUserResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// UserInfo is one row of the admin directory.
type UserInfo struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	FirstName    string           `json:"firstName"`
	LastName     string           `json:"lastName"`
	IsSuperAdmin bool             `json:"superAdmin"`
	Status       string           `json:"status"`
	Apps         []UserAppDetails `json:"apps,omitempty"`
}

type GetUsersResponse struct {
	Message string     `json:"message"`
	Users   []UserInfo `json:"users"`
}

type GetAdminDetailsResponse struct {
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

// UserAppDetails annotates one catalog app with the admin's stored
// permission. Selected comes only from the app's own row; it is never derived
// from descendants or ancestors on the read path.
type UserAppDetails struct {
	ID                   string             `json:"id"`
	CustomID             string             `json:"customId"`
	Name                 string             `json:"name"`
	Permission           int                `json:"permission"`
	Selected             bool               `json:"selected"`
	TotalStudiesCount    int                `json:"totalStudiesCount"`
	SelectedStudiesCount int                `json:"selectedStudiesCount"`
	TotalSitesCount      int                `json:"totalSitesCount"`
	SelectedSitesCount   int                `json:"selectedSitesCount"`
	Studies              []UserStudyDetails `json:"studies"`
}

type UserStudyDetails struct {
	StudyID            string            `json:"studyId"`
	CustomStudyID      string            `json:"customStudyId"`
	StudyName          string            `json:"studyName"`
	Permission         int               `json:"permission"`
	Selected           bool              `json:"selected"`
	TotalSitesCount    int               `json:"totalSitesCount"`
	SelectedSitesCount int               `json:"selectedSitesCount"`
	Sites              []UserSiteDetails `json:"sites"`
}

type UserSiteDetails struct {
	SiteID     string `json:"siteId"`
	SiteName   string `json:"siteName"`
	Permission int    `json:"permission"`
	Selected   bool   `json:"selected"`
}

// AppDetails is one app in the apps-for-admin listing with participant
// statistics. EnrollmentPercentage keeps its zero value unless invited > 0
// and invited >= enrolled.
type AppDetails struct {
	ID                   string            `json:"id"`
	CustomID             string            `json:"customId"`
	Name                 string            `json:"name"`
	Permission           string            `json:"permission,omitempty"`
	AppUsersCount        int64             `json:"appUsersCount"`
	StudiesCount         int64             `json:"studiesCount"`
	EnrolledCount        int64             `json:"enrolledCount"`
	InvitedCount         int64             `json:"invitedCount"`
	EnrollmentPercentage float64           `json:"enrollmentPercentage"`
	TotalSitesCount      int               `json:"totalSitesCount"`
	Studies              []AppStudyDetails `json:"studies,omitempty"`
}

type AppStudyDetails struct {
	StudyID       string           `json:"studyId"`
	CustomStudyID string           `json:"customStudyId"`
	StudyName     string           `json:"studyName"`
	Sites         []AppSiteDetails `json:"sites,omitempty"`
}

type AppSiteDetails struct {
	SiteID   string `json:"siteId"`
	SiteName string `json:"siteName"`
}

type AppResponse struct {
	Message      string       `json:"message"`
	Apps         []AppDetails `json:"apps"`
	StudyCount   int64        `json:"studyCount,omitempty"`
	IsSuperAdmin bool         `json:"superAdmin"`
}

// ParticipantDetail is one distinct user of an app with their enrolled
// studies; studies carry their site lists.
type ParticipantDetail struct {
	UserDetailsID    string                   `json:"userDetailsId"`
	Email            string                   `json:"email"`
	RegistrationDate int                      `json:"registrationDate"`
	EnrolledStudies  []ParticipantStudyDetail `json:"enrolledStudies"`
}

type ParticipantStudyDetail struct {
	StudyID       string           `json:"studyId"`
	CustomStudyID string           `json:"customStudyId"`
	StudyName     string           `json:"studyName"`
	StudyStatus   string           `json:"studyStatus"`
	EnrolledDate  int              `json:"enrolledDate"`
	Sites         []AppSiteDetails `json:"sites"`
}

type AppParticipantsResponse struct {
	Message      string              `json:"message"`
	AppID        string              `json:"appId"`
	CustomAppID  string              `json:"customAppId"`
	AppName      string              `json:"appName"`
	Participants []ParticipantDetail `json:"participants"`
}
