package access

import "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"

// roleDefaults is the static role → permission table the resolver starts
// from. Demo roles are normalized before lookup, so only base roles appear.
var roleDefaults = map[enums.UserRole][]enums.Permission{
	enums.UserRoleAdmin: enums.AllPermissions(),

	enums.UserRoleManager: {
		enums.PermViewOrganization, enums.PermEditOrganization,
		enums.PermViewBuilding, enums.PermCreateBuilding, enums.PermEditBuilding, enums.PermDeleteBuilding,
		enums.PermViewResidence, enums.PermCreateResidence, enums.PermEditResidence, enums.PermDeleteResidence,
		enums.PermViewBill, enums.PermCreateBill, enums.PermEditBill, enums.PermDeleteBill,
		enums.PermViewDocument, enums.PermCreateDocument, enums.PermEditDocument, enums.PermDeleteDocument,
		enums.PermViewDemand, enums.PermEditDemand, enums.PermDeleteDemand,
		enums.PermViewUser, enums.PermInviteUser,
	},

	enums.UserRoleTenant: {
		enums.PermViewOrganization,
		enums.PermViewBuilding,
		enums.PermViewResidence,
		enums.PermViewBill,
		enums.PermViewDocument, enums.PermCreateDocument,
		enums.PermViewDemand, enums.PermCreateDemand,
	},

	enums.UserRoleResident: {
		enums.PermViewResidence,
		enums.PermViewBill,
		enums.PermViewDocument,
		enums.PermViewDemand, enums.PermCreateDemand,
	},
}

// DefaultsFor returns a fresh copy of the role-default permission set.
func DefaultsFor(role enums.UserRole) PermissionSet {
	return NewPermissionSet(roleDefaults[role.Normalize()]...)
}
