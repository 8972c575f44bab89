package entity

import "time"

type Role string

const (
	RoleVendor    Role = "VENDOR"
	RoleShopAdmin Role = "SHOP ADMIN"
	RoleSeller    Role = "SELLER"
	RoleAdmin     Role = "ADMIN"
	RoleUser      Role = "USER"
)

// Session is the viewer's identity as derived from the stored bearer
// token. IsVendor and IsShopAdmin exist for backward compatibility with
// older session shapes that carried boolean flags instead of a role.
type Session struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name,omitempty"`
	Role        Role      `json:"role"`
	IsVendor    bool      `json:"is_vendor,omitempty"`
	IsShopAdmin bool      `json:"is_shop_admin,omitempty"`
	Token       string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	LoggedIn    bool      `json:"logged_in"`
}

// HasRole reports whether the session satisfies the given role. Role
// comparison is label-exact, except VENDOR and SHOP ADMIN which are also
// satisfied by their dedicated session flags.
func (s Session) HasRole(role Role) bool {
	if s.Role == role {
		return true
	}
	switch role {
	case RoleVendor:
		return s.IsVendor
	case RoleShopAdmin:
		return s.IsShopAdmin
	}
	return false
}

// HasAnyRole reports whether the session satisfies at least one of the
// given roles. An empty set is vacuously true.
func (s Session) HasAnyRole(roles []Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if s.HasRole(role) {
			return true
		}
	}
	return false
}
