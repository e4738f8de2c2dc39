package domain

import "errors"

// Domain errors
var (
	ErrTooManyApprovers    = errors.New("too many approvers")
	ErrTooManyRecipients   = errors.New("too many recipients")
	ErrInvalidPageCount    = errors.New("page count must be at least 1")
	ErrNoUploadTarget      = errors.New("no upload target")
	ErrFieldCreationFailed = errors.New("field creation failed")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrStatusConflict      = errors.New("recipient status changed concurrently")
	ErrDocumentNotSendable = errors.New("document has no provider record")
	ErrDuplicateReference  = errors.New("reference already generated")
	ErrInvalidToken        = errors.New("invalid token")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
