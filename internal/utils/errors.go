package utils

// AppError carries a machine-readable code alongside the message and the
// originating error, if any.
type AppError struct {
	Code    string
	Message string
	Origin  error
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Unwrap exposes the originating error to errors.Is/As.
func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Validation errors: malformed or missing request fields
	ErrInvalidInput = "INVALID_INPUT"

	// Configuration errors: required server credentials or settings absent
	ErrConfigMissing = "CONFIG_MISSING"

	// Upstream/service errors: the document store or storage provider failed
	ErrUpstreamFailed = "UPSTREAM_FAILED"

	// Resource errors
	ErrNotFound  = "NOT_FOUND"
	ErrDuplicate = "DUPLICATE"

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN" // Authenticated but not allowed (e.g. deleting another user's post)
	ErrInvalidToken = "INVALID_TOKEN"

	// User-specific errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"

	// Controller communication errors
	ErrActorTimeout = "ACTOR_TIMEOUT"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidInput,
		Message: message,
	}
}

func NewConfigMissingError(message string) *AppError {
	return &AppError{
		Code:    ErrConfigMissing,
		Message: message,
	}
}

func NewUpstreamError(message string, originalErr error) *AppError {
	return &AppError{
		Code:    ErrUpstreamFailed,
		Message: message,
		Origin:  originalErr,
	}
}

func NewForbiddenError(reason string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: reason,
	}
}

func NewUserNotFoundError(userID string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + userID,
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound:
		return 404 // http.StatusNotFound
	case ErrInvalidInput, ErrInvalidCredentials:
		return 400 // http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken:
		return 401 // http.StatusUnauthorized
	case ErrForbidden:
		return 403 // http.StatusForbidden
	case ErrDuplicate, ErrUserAlreadyExists:
		return 409 // http.StatusConflict
	case ErrConfigMissing, ErrUpstreamFailed, ErrActorTimeout:
		return 500 // http.StatusInternalServerError
	default:
		return 500 // http.StatusInternalServerError for unknown errors
	}
}
