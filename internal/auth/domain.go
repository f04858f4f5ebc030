package auth

import "fmt"

// Role is a capability a user account carries. Roles are flat: holding admin
// does not imply moderator; a route requiring moderator admits only accounts
// whose role set contains moderator.
type Role string

const (
	RoleUnprivileged Role = "unprivileged"
	RoleModerator    Role = "moderator"
	RoleAdmin        Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUnprivileged, RoleModerator, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Claims is the decoded payload of an access token. Field values are trusted
// only after Codec.Verify has checked the signature.
type Claims struct {
	Sub   int64  `json:"sub"`   // user id
	Name  string `json:"name"`  // display name
	Roles []Role `json:"roles"` // capabilities, non-empty
	JTI   string `json:"jti"`   // per-issuance nonce
	Iat   int64  `json:"iat"`   // issued at, unix seconds
	Exp   int64  `json:"exp"`   // expires at, unix seconds
}

func (c *Claims) HasRole(r Role) bool {
	for _, have := range c.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Identity is the minimal authenticated view handed to request handlers.
// It deliberately drops the role set so downstream code cannot branch on
// capabilities it never asked for.
type Identity struct {
	UserID   int64
	Username string
}
