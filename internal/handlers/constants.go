package handlers

const (
	ErrInternalServerError = "Internal server error"
	ErrNotAuthenticated    = "Not authenticated"
	ErrUserNotFound        = "User not found"
	ErrInvalidCredentials  = "Invalid username or password"
	ErrTooManyRequests     = "Too many login attempts, please try again later"

	ErrNoStatus          = "No status found"
	ErrNoLocation        = "No location found"
	ErrNoMemberLocation  = "No location found for this family member"
	ErrInvalidMemberID   = "Invalid family member ID"
	ErrNotFamilyLocation = "Not authorized to view this family member's location"
	ErrNotFamilyCheckIns = "Not authorized to view this family member's check-ins"

	// maxBodyBytes bounds every JSON request body
	maxBodyBytes = 1 << 20
)
