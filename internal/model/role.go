package model

// Role is the authorization role attached to a user.
type Role string

const (
	RoleUser       Role = "user"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEditor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
