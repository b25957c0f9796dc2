package access

import (
	"sort"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// PermissionSet is the result of a resolve call. Callers test membership for
// the action they intend instead of re-deriving the algorithm per route.
type PermissionSet map[enums.Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...enums.Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the permission is in the set.
func (s PermissionSet) Has(p enums.Permission) bool {
	_, ok := s[p]
	return ok
}

// Add inserts a permission.
func (s PermissionSet) Add(p enums.Permission) {
	s[p] = struct{}{}
}

// Remove deletes a permission. Removing an absent permission is a no-op.
func (s PermissionSet) Remove(p enums.Permission) {
	delete(s, p)
}

// Union adds every permission from other into s.
func (s PermissionSet) Union(other PermissionSet) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// Clone returns an independent copy.
func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// List returns the permissions in deterministic order.
func (s PermissionSet) List() []enums.Permission {
	out := make([]enums.Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
