package models

// UserRequest is the create/update payload for an admin account. Apps is the
// selection tree; it is transient input and never persisted as-is.
type UserRequest struct {
	UserID           string                 `json:"userId,omitempty"`
	Email            string                 `json:"email" validate:"required,email"`
	FirstName        string                 `json:"firstName"`
	LastName         string                 `json:"lastName"`
	IsSuperAdmin     bool                   `json:"superAdmin"`
	Apps             []AppPermissionRequest `json:"apps"`
	SuperAdminUserID string                 `json:"-"`
}

type AppPermissionRequest struct {
	ID       string                   `json:"id"`
	Selected bool                     `json:"selected"`
	Studies  []StudyPermissionRequest `json:"studies"`
}

type StudyPermissionRequest struct {
	StudyID  string                  `json:"studyId"`
	Selected bool                    `json:"selected"`
	Sites    []SitePermissionRequest `json:"sites"`
}

type SitePermissionRequest struct {
	SiteID   string `json:"siteId"`
	Selected bool   `json:"selected"`
}

// HasAtLeastOnePermission reports whether any node anywhere in the selection
// tree is selected. Scoped-admin requests that fail this are rejected before
// any write.
func (u *UserRequest) HasAtLeastOnePermission() bool {
	for _, app := range u.Apps {
		if app.Selected {
			return true
		}
	}
	for _, app := range u.Apps {
		for _, study := range app.Studies {
			if study.Selected {
				return true
			}
			for _, site := range study.Sites {
				if site.Selected {
					return true
				}
			}
		}
	}
	return false
}

type ActivateRequest struct {
	SecurityCode string `json:"securityCode" validate:"required"`
	Password     string `json:"password" validate:"required"`
}
