package common

import (
	"fmt"

	"github.com/0chain/errors"
)

/*Error type for a new application error */
type Error struct {
	Code       string `json:"code,omitempty"`
	Msg        string `json:"msg"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (err *Error) Error() string {
	return fmt.Sprintf("%s: %s", err.Code, err.Msg)
}

/*NewError - create a new error */
func NewError(code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

/*NewErrorf - create a new error with format */
func NewErrorf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

/*InvalidRequest - create error messages that are needed when validating request input */
func InvalidRequest(msg string) error {
	return NewError("invalid_request", fmt.Sprintf("Invalid request (%v)", msg))
}

// The error taxonomy of the media core. Orchestrators translate every
// collaborator failure into one of these so the HTTP layer can map a
// status code without string matching.
var (
	// ErrFileTooLarge - the upload body exceeds the configured maximum.
	ErrFileTooLarge = errors.New("file_too_large", "file exceeds the maximum allowed size")

	// ErrUnsupportedType - the declared content type is not allowed.
	ErrUnsupportedType = errors.New("unsupported_type", "content type is not allowed")

	// ErrQuotaExceeded - the byte or daily-upload quota denies admission.
	ErrQuotaExceeded = errors.New("quota_exceeded", "upload quota exceeded")

	// ErrStorage - the backing entity store failed; possibly transient.
	ErrStorage = errors.New("storage_error", "entity store operation failed")

	// ErrIntegrity - reassembled bytes do not match the stored checksum.
	ErrIntegrity = errors.New("integrity_failure", "reconstructed data does not match checksum")

	// ErrIncomplete - one or more chunks are missing from the store.
	ErrIncomplete = errors.New("incomplete", "media is missing one or more chunks")

	// ErrNotFound - unknown media id or idempotency key.
	ErrNotFound = errors.New("not_found", "entity not found")

	// ErrDuplicateKey - a session already exists for the idempotency key.
	ErrDuplicateKey = errors.New("duplicate_key", "session already exists for this key")
)
