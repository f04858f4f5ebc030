package auth

import "errors"

var ErrInsufficientRights = errors.New("user does not have that role")

// Authorize checks the verified claims against the capability a route
// requires. The test is plain set membership: there is no rank order between
// roles, so an admin token fails a moderator requirement unless the account
// also carries moderator.
//
// On success the caller gets the stripped-down Identity rather than the
// claims themselves.
func Authorize(cl *Claims, required Role) (Identity, error) {
	if !cl.HasRole(required) {
		return Identity{}, ErrInsufficientRights
	}
	return Identity{UserID: cl.Sub, Username: cl.Name}, nil
}
