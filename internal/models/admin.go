package models

// Admin account status values, surfaced as labels in the user directory.
const (
	StatusDeactivated = 0
	StatusActive      = 1
	StatusInvited     = 2
)

func StatusLabel(status int) string {
	switch status {
	case StatusActive:
		return "Active"
	case StatusInvited:
		return "Invited"
	default:
		return "Deactivated"
	}
}

type AdminUser struct {
	ID                 string `bson:"_id,omitempty" json:"id"`
	Email              string `bson:"email" json:"email" validate:"required,email"`
	FirstName          string `bson:"firstName" json:"firstName"`
	LastName           string `bson:"lastName" json:"lastName"`
	IsSuperAdmin       bool   `bson:"isSuperAdmin" json:"isSuperAdmin"`
	Status             int    `bson:"status" json:"status"`
	PasswordHash       string `bson:"passwordHash,omitempty" json:"-"`
	SecurityCode       string `bson:"securityCode,omitempty" json:"-"`
	SecurityCodeExpiry int    `bson:"securityCodeExpiry,omitempty" json:"-"`
	CreatedAt          int    `bson:"createdAt" json:"createdAt"`
	UpdatedAt          int    `bson:"updatedAt" json:"updatedAt"`
}

type App struct {
	ID       string `bson:"_id,omitempty" json:"id"`
	CustomID string `bson:"customId" json:"customId"`
	Name     string `bson:"name" json:"name"`
}

type Study struct {
	ID       string `bson:"_id,omitempty" json:"id"`
	CustomID string `bson:"customId,omitempty" json:"customId"`
	Name     string `bson:"name" json:"name"`
	AppID    string `bson:"appId" json:"appId"`
}

type Site struct {
	ID      string `bson:"_id,omitempty" json:"id"`
	Name    string `bson:"name" json:"name"`
	StudyID string `bson:"studyId" json:"studyId"`
}

// Permission records carry ancestor ids redundantly so lookups never need a
// join. At most one record exists per (adminUserId, resource) pair.
type AppPermission struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	AdminUserID string     `bson:"adminUserId" json:"adminUserId"`
	AppID       string     `bson:"appId" json:"appId"`
	Level       Permission `bson:"level" json:"level"`
	CreatedBy   string     `bson:"createdBy,omitempty" json:"createdBy"`
	CreatedAt   int        `bson:"createdAt" json:"createdAt"`
}

type StudyPermission struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	AdminUserID string     `bson:"adminUserId" json:"adminUserId"`
	AppID       string     `bson:"appId" json:"appId"`
	StudyID     string     `bson:"studyId" json:"studyId"`
	Level       Permission `bson:"level" json:"level"`
	CreatedBy   string     `bson:"createdBy,omitempty" json:"createdBy"`
	CreatedAt   int        `bson:"createdAt" json:"createdAt"`
}

type SitePermission struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	AdminUserID string     `bson:"adminUserId" json:"adminUserId"`
	AppID       string     `bson:"appId" json:"appId"`
	StudyID     string     `bson:"studyId" json:"studyId"`
	SiteID      string     `bson:"siteId" json:"siteId"`
	Level       Permission `bson:"level" json:"level"`
	CreatedBy   string     `bson:"createdBy,omitempty" json:"createdBy"`
	CreatedAt   int        `bson:"createdAt" json:"createdAt"`
}

// AppCount is one row of a per-app aggregate query, merged by AppID.
type AppCount struct {
	AppID string `bson:"_id" json:"appId"`
	Count int64  `bson:"count" json:"count"`
}

// AppParticipantInfo is one flat (user, study) tuple from the participant
// registry. StudyID is empty for users with no enrollment rows.
type AppParticipantInfo struct {
	UserDetailsID    string `bson:"userDetailsId"`
	Email            string `bson:"email"`
	RegistrationDate int    `bson:"registrationDate"`
	StudyID          string `bson:"studyId"`
	CustomStudyID    string `bson:"customStudyId"`
	StudyName        string `bson:"studyName"`
	StudyStatus      string `bson:"studyStatus"`
	EnrolledDate     int    `bson:"enrolledDate"`
}

// AppSiteInfo is one flat (user, study, site) tuple, attached to participant
// records by the userId+studyId key.
type AppSiteInfo struct {
	UserDetailsID string `bson:"userDetailsId"`
	StudyID       string `bson:"studyId"`
	SiteID        string `bson:"siteId"`
	SiteName      string `bson:"siteName"`
}

func (a *AppSiteInfo) UserStudyKey() string {
	return a.UserDetailsID + a.StudyID
}
