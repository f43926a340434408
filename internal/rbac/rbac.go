// Package rbac maps roles to the actions they may perform. Owner-scoped
// actions require both the role grant and ownership of the target resource.
package rbac

import (
	"github.com/google/uuid"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

// Action is a permission-checked operation.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionGrant  Action = "grant"

	// Owner-scoped variants: granted only against resources the caller owns.
	ActionReadOwn   Action = "read_own"
	ActionEditOwn   Action = "edit_own"
	ActionDeleteOwn Action = "delete_own"
)

var rolePermissions = map[model.Role][]Action{
	model.RoleUser: {ActionReadOwn, ActionEditOwn, ActionDeleteOwn},
	model.RoleEditor: {
		ActionRead, ActionWrite,
		ActionReadOwn, ActionEditOwn, ActionDeleteOwn,
	},
	model.RoleAdmin: {
		ActionRead, ActionWrite, ActionDelete,
		ActionReadOwn, ActionEditOwn, ActionDeleteOwn,
	},
	model.RoleSuperAdmin: {
		ActionRead, ActionWrite, ActionDelete, ActionGrant,
		ActionReadOwn, ActionEditOwn, ActionDeleteOwn,
	},
}

// CanPerformAction reports whether the identity may perform action against
// a resource owned by ownerID. Unknown roles are denied. For owner-scoped
// actions the caller must both hold the grant and own the resource; there
// is no fallthrough that lets an ungranted role act on its own data beyond
// those explicit grants.
func CanPerformAction(identity model.Identity, action Action, ownerID uuid.UUID) bool {
	if !hasGrant(identity.Role, action) {
		return false
	}

	switch action {
	case ActionReadOwn, ActionEditOwn, ActionDeleteOwn:
		return identity.UserID == ownerID
	default:
		return true
	}
}

func hasGrant(role model.Role, action Action) bool {
	for _, a := range rolePermissions[role] {
		if a == action {
			return true
		}
	}
	return false
}
