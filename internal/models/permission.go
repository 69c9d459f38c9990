package models

// Permission is the grant level stored on app/study/site permission records.
// Edit and View are mutually exclusive grant states, not additive.
type Permission int

const (
	NoPermission Permission = 0
	View         Permission = 1
	Edit         Permission = 2
)

const (
	ViewValue = "view"
	EditValue = "edit"
)

func PermissionFromValue(value int) Permission {
	switch value {
	case int(View):
		return View
	case int(Edit):
		return Edit
	default:
		return NoPermission
	}
}

// Label maps a stored level to its display value. Anything below Edit
// renders as "view"; absence of a record is NoPermission and carries no label.
func (p Permission) Label() string {
	if p == Edit {
		return EditValue
	}
	return ViewValue
}

func (p Permission) Value() int {
	return int(p)
}
