package errors

// Generic error codes
const (
	ErrInternalServer = "ERR_INTERNAL_SERVER"
	ErrInvalidParam   = "ERR_INVALID_PARAM"
	ErrUnknown        = "ERR_UNKNOWN"
)

// Auth error codes
const (
	ErrEmptyID            = "ERR_EMPTY_ID"
	ErrUserNotFound       = "ERR_USER_NOT_FOUND"
	ErrEmptyCredentials   = "ERR_EMPTY_CREDENTIALS"
	ErrInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrUserDisabled       = "ERR_USER_DISABLED"
	ErrUsernameTaken      = "ERR_USERNAME_TAKEN"
	ErrUnauthenticated    = "ERR_UNAUTHENTICATED"
	ErrUnauthorized       = "ERR_UNAUTHORIZED"
)

// Form and response error codes
const (
	ErrFormNotFound     = "ERR_FORM_NOT_FOUND"
	ErrFormNotPublished = "ERR_FORM_NOT_PUBLISHED"
	ErrResponseNotFound = "ERR_RESPONSE_NOT_FOUND"
	ErrFieldUnknown     = "ERR_FIELD_UNKNOWN"
)

// Upload error codes
const (
	ErrValidationFailed = "ERR_VALIDATION_FAILED"
	ErrScanRejected     = "ERR_SCAN_REJECTED"
	ErrStorageFailure   = "ERR_STORAGE_FAILURE"
	ErrFileNotFound     = "ERR_FILE_NOT_FOUND"
)
