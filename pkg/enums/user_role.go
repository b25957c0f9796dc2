package enums

import "fmt"

// UserRole represents a global platform role.
type UserRole string

const (
	UserRoleAdmin        UserRole = "admin"
	UserRoleManager      UserRole = "manager"
	UserRoleTenant       UserRole = "tenant"
	UserRoleResident     UserRole = "resident"
	UserRoleDemoManager  UserRole = "demo_manager"
	UserRoleDemoTenant   UserRole = "demo_tenant"
	UserRoleDemoResident UserRole = "demo_resident"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleManager,
	UserRoleTenant,
	UserRoleResident,
	UserRoleDemoManager,
	UserRoleDemoTenant,
	UserRoleDemoResident,
}

// rolePrivilege orders roles from least to most privileged. Demo variants
// share the rank of their base role.
var rolePrivilege = map[UserRole]int{
	UserRoleResident: 1,
	UserRoleTenant:   2,
	UserRoleManager:  3,
	UserRoleAdmin:    4,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Normalize maps demo variants onto the base role they authorize as.
func (r UserRole) Normalize() UserRole {
	switch r {
	case UserRoleDemoManager:
		return UserRoleManager
	case UserRoleDemoTenant:
		return UserRoleTenant
	case UserRoleDemoResident:
		return UserRoleResident
	default:
		return r
	}
}

// Privilege returns the ordering rank used when membership edges at different
// scope levels disagree. Higher ranks win at broader scopes.
func (r UserRole) Privilege() int {
	return rolePrivilege[r.Normalize()]
}

// IsAdmin reports whether the role bypasses scope narrowing.
func (r UserRole) IsAdmin() bool {
	return r.Normalize() == UserRoleAdmin
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
