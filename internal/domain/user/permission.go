package user

import "context"

// Permission names one guarded operation.
type Permission string

const (
	PermRead             Permission = "radar:read"
	PermBlockerWrite     Permission = "blocker:write"
	PermEscalationRaise  Permission = "escalation:raise"
	PermEscalationStatus Permission = "escalation:status"
	PermCommentAsk       Permission = "comment:ask"
	PermCommentAnswer    Permission = "comment:answer"
	PermCatalogWrite     Permission = "catalog:write"
	PermCoverageWrite    Permission = "coverage:write"
	PermSnapshotExport   Permission = "snapshot:export"
)

// RolePermissions maps each role to the permissions it grants.
type RolePermissions map[Role][]Permission

// DefaultRolePermissions returns the built-in grants. Editors write blockers,
// raise escalations, answer questions and edit coverage. Status changes and
// catalog writes are admin-only.
func DefaultRolePermissions() RolePermissions {
	viewer := []Permission{PermRead, PermCommentAsk}
	editor := append(append([]Permission{}, viewer...),
		PermBlockerWrite, PermEscalationRaise, PermCommentAnswer, PermCoverageWrite, PermSnapshotExport)
	admin := append(append([]Permission{}, editor...), PermEscalationStatus, PermCatalogWrite)

	return RolePermissions{
		RoleViewer: viewer,
		RoleEditor: editor,
		RoleAdmin:  admin,
	}
}

// Grants reports whether role r holds p.
func (m RolePermissions) Grants(r Role, p Permission) bool {
	for _, have := range m[r] {
		if have == p {
			return true
		}
	}
	return false
}

// Authorizer resolves the caller and checks one permission. It returns an
// Unauthorized error when ctx carries no user and Forbidden when the role
// lacks p.
type Authorizer interface {
	Authorize(ctx context.Context, p Permission) (*User, error)
}
