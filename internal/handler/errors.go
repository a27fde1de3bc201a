package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pkordes/storefinder/internal/domain"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request. Field is set for validation errors
// that concern a single input field.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Error codes reported in ErrorDetail.Code.
const (
	codeNotFound       = "not_found"
	codeValidation     = "validation_error"
	codeUploadRejected = "upload_rejected"
	codeTranscode      = "transcode_error"
	codeBodyTooLarge   = "body_too_large"
	codeSlugConflict   = "slug_conflict"
	codeBadRequest     = "bad_request"
	codeInternal       = "internal_error"
)

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeErrorBody(w http.ResponseWriter, status int, detail ErrorDetail) {
	writeJSON(w, status, ErrorResponse{Error: detail})
}

// notFound answers 404. The caller supplies the message (e.g. "store not
// found") because the handler is the layer that knows what was looked up.
func notFound(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusNotFound, ErrorDetail{Code: codeNotFound, Message: message})
}

// badRequest answers 400 for a request rejected before reaching the
// service layer (e.g. a malformed path or query parameter).
func badRequest(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusBadRequest, ErrorDetail{Code: codeBadRequest, Message: message})
}

// writeError maps a service error onto a status code and error body.
// Errors it does not recognise are logged and answered with a bare 500 so
// internals never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		rejected   *domain.UploadRejectedError
		transcode  *domain.TranscodeError
		tooLarge   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &tooLarge):
		writeErrorBody(w, http.StatusRequestEntityTooLarge, ErrorDetail{
			Code:    codeBodyTooLarge,
			Message: "request body is too large",
		})
	case errors.Is(err, domain.ErrNotFound):
		notFound(w, "store not found")
	case errors.As(err, &validation):
		writeErrorBody(w, http.StatusUnprocessableEntity, ErrorDetail{
			Code:    codeValidation,
			Message: validation.Reason,
			Field:   validation.Field,
		})
	case errors.As(err, &rejected):
		writeErrorBody(w, http.StatusUnsupportedMediaType, ErrorDetail{
			Code:    codeUploadRejected,
			Message: rejected.Reason,
			Field:   "photo",
		})
	case errors.As(err, &transcode) && transcode.Op != domain.TranscodeOpWrite:
		writeErrorBody(w, http.StatusUnprocessableEntity, ErrorDetail{
			Code:    codeTranscode,
			Message: transcode.Error(),
			Field:   "photo",
		})
	case errors.Is(err, domain.ErrSlugTaken):
		writeErrorBody(w, http.StatusConflict, ErrorDetail{
			Code:    codeSlugConflict,
			Message: "could not allocate a unique slug, please retry",
		})
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeErrorBody(w, http.StatusInternalServerError, ErrorDetail{
			Code:    codeInternal,
			Message: "internal server error",
		})
	}
}
