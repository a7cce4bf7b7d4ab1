// Package permissions implements the pure permission composition functions:
// deriving a user's effective permission set from their base grants and team
// assignments, and computing deltas between two sets for the audit trail.
//
// Nothing here touches storage. Recalculation is the management service's
// job; the authorization path reads only the cached effective set.
package permissions

import (
	"sort"

	"crew/internal/catalog"
	"crew/internal/team/models"
	dErrors "crew/pkg/domain-errors"
	platformstrings "crew/pkg/platform/strings"
)

// PermissionsFor resolves one assignment against the catalog, returning the
// member or manager set depending strictly on the assigned role.
func PermissionsFor(cat *catalog.Catalog, a models.TeamAssignment) ([]string, error) {
	def, err := cat.Get(a.TeamID)
	if err != nil {
		return nil, err
	}
	perms, err := def.PermissionsForRole(a.Role)
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// CalculateEffective returns the union of the base permissions and every
// assignment's role-scoped set, deduplicated and sorted.
//
// The function is pure and order-independent: permuting the assignment list
// never changes the result. It fails on the first assignment referencing an
// unknown team or carrying an invalid role; callers are expected to validate
// assignments at the boundary before reaching this in a production path.
func CalculateEffective(cat *catalog.Catalog, base []string, teams []models.TeamAssignment) ([]string, error) {
	union := make(map[string]struct{}, len(base))
	for _, p := range platformstrings.DedupeAndTrim(base) {
		union[p] = struct{}{}
	}
	for _, a := range teams {
		perms, err := PermissionsFor(cat, a)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeOf(err), "calculate effective permissions")
		}
		for _, p := range perms {
			union[p] = struct{}{}
		}
	}

	out := make([]string, 0, len(union))
	for p := range union {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Diff computes the permissions added and removed between two sets. Used
// exclusively to populate audit entries, never for authorization decisions.
func Diff(before, after []string) (added, removed []string) {
	beforeSet := toSet(before)
	afterSet := toSet(after)

	for p := range afterSet {
		if _, ok := beforeSet[p]; !ok {
			added = append(added, p)
		}
	}
	for p := range beforeSet {
		if _, ok := afterSet[p]; !ok {
			removed = append(removed, p)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func toSet(perms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}
