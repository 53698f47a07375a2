package user

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RolePending Role = "pending"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleParent, RolePending:
		return true
	}
	return false
}

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// roleTransitions lists every role change an approval may perform. Admins are
// provisioned out of band and never enter or leave the table.
var roleTransitions = map[Role][]Role{
	RolePending: {RoleStudent, RoleParent},
	RoleStudent: {RoleParent},
	RoleParent:  {RoleStudent},
}

// CanTransition reports whether approval may move a profile from one role to another.
func CanTransition(from, to Role) bool {
	for _, next := range roleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextRoles returns the roles reachable from r.
func NextRoles(r Role) []Role {
	out := make([]Role, len(roleTransitions[r]))
	copy(out, roleTransitions[r])
	return out
}
