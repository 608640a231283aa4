package domain

import "fmt"

type Role string

const (
	RoleClient    Role = "client"
	RoleReception Role = "reception"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleClient, RoleReception, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, s)
	}
}

type Action int

const (
	ActionBook Action = iota
	ActionCancelOwn
	ActionViewAny
	ActionConfirm
	ActionComplete
)

// Can reports whether the role is allowed to perform the action.
func (r Role) Can(a Action) bool {
	switch r {
	case RoleClient:
		return a == ActionBook || a == ActionCancelOwn
	case RoleReception:
		return a == ActionViewAny || a == ActionConfirm || a == ActionComplete
	case RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) IsStaff() bool {
	switch r {
	case RoleReception, RoleAdmin:
		return true
	case RoleClient:
		return false
	default:
		return false
	}
}

// Principal is the authenticated caller, supplied by the auth collaborator.
type Principal struct {
	UserID int64
	Email  string
	Role   Role
}
