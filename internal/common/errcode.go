package common

import "fmt"

// AppError is a caller-facing failure with a fixed HTTP status and a stable
// machine code. Handlers serialize it instead of branching on error types.
type AppError struct {
	Status      int    `json:"status"`
	Code        string `json:"error_code"`
	Description string `json:"error_description"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Description, e.Code)
}

var (
	ErrUserNotFound              = &AppError{Status: 404, Code: "EC-114", Description: "User not found"}
	ErrNotSuperAdminAccess       = &AppError{Status: 403, Code: "EC-112", Description: "You are not authorized to perform this action"}
	ErrPermissionMissing         = &AppError{Status: 400, Code: "EC-113", Description: "At least one permission should be assigned"}
	ErrEmailExists               = &AppError{Status: 409, Code: "EC-101", Description: "This email has already been used"}
	ErrAppNotFound               = &AppError{Status: 404, Code: "EC-116", Description: "App not found"}
	ErrAppPermissionAccessDenied = &AppError{Status: 403, Code: "EC-117", Description: "You do not have permission to access this app"}
	ErrInvalidSecurityCode       = &AppError{Status: 410, Code: "EC-118", Description: "Invalid or expired security code"}
	ErrInvalidFieldValues        = &AppError{Status: 400, Code: "EC-119", Description: "Invalid fields value"}
	ErrApplicationError          = &AppError{Status: 500, Code: "EC-500", Description: "Sorry, an error occurred and your request could not be processed"}
)
