package enums

import "fmt"

// Permission identifies a single grantable action over a resource category.
// Values follow an action:resource convention.
type Permission string

const (
	PermViewOrganization   Permission = "view:organization"
	PermEditOrganization   Permission = "edit:organization"
	PermDeleteOrganization Permission = "delete:organization"

	PermViewBuilding   Permission = "view:building"
	PermCreateBuilding Permission = "create:building"
	PermEditBuilding   Permission = "edit:building"
	PermDeleteBuilding Permission = "delete:building"

	PermViewResidence   Permission = "view:residence"
	PermCreateResidence Permission = "create:residence"
	PermEditResidence   Permission = "edit:residence"
	PermDeleteResidence Permission = "delete:residence"

	PermViewBill   Permission = "view:bill"
	PermCreateBill Permission = "create:bill"
	PermEditBill   Permission = "edit:bill"
	PermDeleteBill Permission = "delete:bill"

	PermViewDocument   Permission = "view:document"
	PermCreateDocument Permission = "create:document"
	PermEditDocument   Permission = "edit:document"
	PermDeleteDocument Permission = "delete:document"

	PermViewDemand   Permission = "view:demand"
	PermCreateDemand Permission = "create:demand"
	PermEditDemand   Permission = "edit:demand"
	PermDeleteDemand Permission = "delete:demand"

	PermViewUser   Permission = "view:user"
	PermInviteUser Permission = "invite:user"
	PermEditUser   Permission = "edit:user"
	PermDeleteUser Permission = "delete:user"
)

var validPermissions = []Permission{
	PermViewOrganization, PermEditOrganization, PermDeleteOrganization,
	PermViewBuilding, PermCreateBuilding, PermEditBuilding, PermDeleteBuilding,
	PermViewResidence, PermCreateResidence, PermEditResidence, PermDeleteResidence,
	PermViewBill, PermCreateBill, PermEditBill, PermDeleteBill,
	PermViewDocument, PermCreateDocument, PermEditDocument, PermDeleteDocument,
	PermViewDemand, PermCreateDemand, PermEditDemand, PermDeleteDemand,
	PermViewUser, PermInviteUser, PermEditUser, PermDeleteUser,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// AllPermissions returns the full closed permission set.
func AllPermissions() []Permission {
	out := make([]Permission, len(validPermissions))
	copy(out, validPermissions)
	return out
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
