package shared

import "strings"

// Role names carried in access tokens.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleViewer Role = "viewer"
)

// ParseRole normalises a raw role claim. Unknown values map to the empty role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSeller:
		return RoleSeller
	case RoleViewer:
		return RoleViewer
	default:
		return ""
	}
}

// WriterRoles may mutate sales, stock, products and customers.
func WriterRoles() []Role {
	return []Role{RoleAdmin, RoleSeller}
}

// ReaderRoles may read every tenant resource.
func ReaderRoles() []Role {
	return []Role{RoleAdmin, RoleSeller, RoleViewer}
}

// AdminRoles may delete resources.
func AdminRoles() []Role {
	return []Role{RoleAdmin}
}
