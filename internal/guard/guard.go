// Package guard holds the role and ownership checks shared by the ledger,
// thread service and controllers.
package guard

import (
	"github.com/google/uuid"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/model"
	"StudentShift-backend/internal/utilities"
)

// HasRole reports whether user holds one of roles.
func HasRole(user model.User, roles ...string) bool {
	return utilities.Contains(roles, user.Role)
}

// RequireRole fails with Forbidden unless user holds one of roles.
func RequireRole(user model.User, roles ...string) error {
	if !HasRole(user, roles...) {
		return apperr.Forbidden("User doesn't have permission to access")
	}
	return nil
}

// RequireListingOwner fails with Forbidden unless user owns listing.
func RequireListingOwner(listing *model.Listing, user model.User) error {
	if listing == nil || !listing.IsOwnedBy(user.ID) {
		return apperr.Forbidden("Only the owner of this listing can do that")
	}
	return nil
}

// RequireSelf fails with Forbidden unless user is the account id.
func RequireSelf(user model.User, id uuid.UUID) error {
	if user.ID != id {
		return apperr.Forbidden("You can only act on your own account")
	}
	return nil
}
