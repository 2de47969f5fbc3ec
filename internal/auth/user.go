package auth

import (
	"errors"
	"fmt"
)

// Role is the closed set of user roles. Every authorization decision routes
// through the permission resolver; no call site may compare raw role strings.
type Role string

const (
	RoleEmployee  Role = "employee"
	RoleCrewChief Role = "crew_chief"
	RoleClient    Role = "client"
	RoleManager   Role = "manager"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a stored role string onto the closed enum.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleEmployee, RoleCrewChief, RoleClient, RoleManager, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) IsManagement() bool {
	return r == RoleManager || r == RoleAdmin
}

// CanHoldCrewChiefGrant reports whether this role may be the grantee of a
// crew-chief permission. Managers never need one; clients must never receive
// crew-chief authority.
func (r Role) CanHoldCrewChiefGrant() bool {
	return r == RoleEmployee || r == RoleCrewChief
}

type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Role     Role   `json:"role"`
	ClientID *int64 `json:"client_id,omitempty"`
}

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrUserInactive  = errors.New("user is inactive")
	ErrUserNotFound  = errors.New("user not found")
	ErrUnknownRole   = errors.New("user has an unknown role")
	ErrMissingBearer = errors.New("missing authorization token")
)
