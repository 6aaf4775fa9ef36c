package app

import "strings"

// Role names the viewer's permission level.
type Role string

// RoleAdmin and RoleStaff are the recognized viewer roles.
const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Session identifies the current viewer. It is constructed once at startup
// and passed by reference to every component that needs identity or role;
// nothing reads shared state behind the caller's back.
type Session struct {
	DisplayName string
	Role        Role
}

// IsAdmin reports whether the viewer may perform admin-only transitions.
func (s Session) IsAdmin() bool {
	return Role(strings.ToLower(strings.TrimSpace(string(s.Role)))) == RoleAdmin
}
