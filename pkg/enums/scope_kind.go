package enums

import "fmt"

// ScopeKind identifies which level of the property hierarchy a membership
// edge or access check is anchored to.
type ScopeKind string

const (
	ScopeOrganization ScopeKind = "organization"
	ScopeBuilding     ScopeKind = "building"
	ScopeResidence    ScopeKind = "residence"
)

var validScopeKinds = []ScopeKind{
	ScopeOrganization,
	ScopeBuilding,
	ScopeResidence,
}

// scopeBreadth orders scopes from narrowest to broadest.
var scopeBreadth = map[ScopeKind]int{
	ScopeResidence:    1,
	ScopeBuilding:     2,
	ScopeOrganization: 3,
}

// String implements fmt.Stringer.
func (k ScopeKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ScopeKind.
func (k ScopeKind) IsValid() bool {
	for _, candidate := range validScopeKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Breadth returns the containment rank of the scope. Organizations contain
// buildings, buildings contain residences.
func (k ScopeKind) Breadth() int {
	return scopeBreadth[k]
}

// ParseScopeKind converts raw input into a ScopeKind.
func ParseScopeKind(value string) (ScopeKind, error) {
	for _, candidate := range validScopeKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scope kind %q", value)
}
