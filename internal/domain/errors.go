package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is the sentinel every *ValidationError unwraps to.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUploadRejected is the sentinel every *UploadRejectedError unwraps to.
var ErrUploadRejected = errors.New("upload rejected")

// ErrTranscode is the sentinel every *TranscodeError unwraps to.
var ErrTranscode = errors.New("transcode failed")

// ErrSlugTaken is returned by the repo when an insert or update loses the
// race for a slug to a concurrent writer (unique constraint violation).
var ErrSlugTaken = errors.New("slug already taken")

// Reasons reported in ValidationError for the required store fields.
const (
	ReasonNameRequired        = "Please enter a store name."
	ReasonNameNotSluggable    = "Store name must contain at least one letter or digit."
	ReasonCoordinatesRequired = "You must supply coordinates!"
	ReasonAddressRequired     = "You must supply an address!"
)

// ValidationError reports a single field that failed a required/shape rule,
// either in the service layer or as a database constraint violation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError is shorthand for &ValidationError{Field: field, Reason: reason}.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// UploadRejectedError is returned when an uploaded file is refused before any
// of its bytes are read. The caller may fix the file and resubmit.
type UploadRejectedError struct {
	Reason string
}

func (e *UploadRejectedError) Error() string {
	return "upload rejected: " + e.Reason
}

func (e *UploadRejectedError) Unwrap() error { return ErrUploadRejected }

// Transcode operations reported in TranscodeError.Op.
const (
	TranscodeOpDecode = "decode"
	TranscodeOpEncode = "encode"
	TranscodeOpWrite  = "write"
)

// TranscodeError wraps a failure while decoding, resizing, encoding or
// writing an uploaded image. Op is one of the TranscodeOp constants.
// A write failure carries the underlying I/O error as Cause, so
// errors.Is(err, fs.ErrPermission) and friends still work.
type TranscodeError struct {
	Op    string
	Cause error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed: %s: %v", e.Op, e.Cause)
}

// Unwrap exposes both the ErrTranscode sentinel and the cause.
func (e *TranscodeError) Unwrap() []error { return []error{ErrTranscode, e.Cause} }
