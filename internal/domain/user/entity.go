// Package user describes the authenticated principal and its role.
package user

import (
	"context"
	"strings"
)

// Role gates write operations.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

var roleRank = map[Role]int{RoleViewer: 1, RoleEditor: 2, RoleAdmin: 3}

// ParseRole is case-insensitive. Unknown roles are rejected.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := roleRank[r]
	return r, ok
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] > 0 && roleRank[r] >= roleRank[min]
}

// User is the identity returned by the session provider.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// CanEdit reports whether the user may write blockers and raise escalations.
func (u *User) CanEdit() bool { return u != nil && u.Role.AtLeast(RoleEditor) }

// IsAdmin reports whether the user may change escalation status and catalog data.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// DisplayName falls back to the id when no name is known.
func (u *User) DisplayName() string {
	if u == nil {
		return "anonymous"
	}
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

type ctxKey struct{}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user attached by WithUser, if any.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}
