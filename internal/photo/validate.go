// Package photo accepts, renames and resizes images uploaded with a store.
package photo

import (
	"strings"

	"github.com/pkordes/storefinder/internal/domain"
)

// RejectReason is the message returned for any upload that is not an image.
const RejectReason = "That filetype is not allowed."

// Validate accepts mediaType iff it starts with "image/". It looks only at
// the declared type, never at the file's bytes, so rejection is cheap and
// has no side effects.
func Validate(mediaType string) error {
	if strings.HasPrefix(mediaType, "image/") {
		return nil
	}
	return &domain.UploadRejectedError{Reason: RejectReason}
}
