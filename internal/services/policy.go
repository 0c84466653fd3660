package services

import (
	"time"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
)

// Edit windows. Discussions and reviews share the long window, comments and
// review replies the short one. Enforced uniformly on every update path.
const (
	DiscussionEditWindow = 48 * time.Hour
	ReviewEditWindow     = 48 * time.Hour
	CommentEditWindow    = 24 * time.Hour
	ReplyEditWindow      = 24 * time.Hour
)

// EnsureOwner gates mutation on authorship. A valid credential with the wrong
// owner is Forbidden, never NotFound.
func EnsureOwner(authorID, actorID uint, resource string) error {
	if authorID != actorID {
		return apperrors.Newf(apperrors.KindForbidden, "only the author can modify this %s", resource)
	}
	return nil
}

// EnsureEditable rejects edits attempted past the window.
func EnsureEditable(createdAt time.Time, window time.Duration, now time.Time, resource string) error {
	if now.Sub(createdAt) > window {
		return apperrors.Newf(apperrors.KindEditWindowExpired,
			"%s can no longer be edited (%.0f hour window)", resource, window.Hours())
	}
	return nil
}
