package permissions

import "crew/internal/team/models"

// The check functions below operate on the cached EffectivePermissions only.
// They never recompute from the team list; keeping the cache fresh is the
// management service's responsibility.

// HasPermission reports whether the profile's effective set contains perm.
func HasPermission(p *models.StaffProfile, perm string) bool {
	if p == nil {
		return false
	}
	for _, have := range p.EffectivePermissions {
		if have == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the profile holds at least one of perms.
func HasAnyPermission(p *models.StaffProfile, perms ...string) bool {
	for _, perm := range perms {
		if HasPermission(p, perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the profile holds every one of perms.
// Vacuously true for an empty list.
func HasAllPermissions(p *models.StaffProfile, perms ...string) bool {
	for _, perm := range perms {
		if !HasPermission(p, perm) {
			return false
		}
	}
	return true
}
