// Package profile persists staff permission profiles: one record per staff
// user holding base permissions, team assignments, and the cached effective
// permission set.
package profile

import (
	"context"

	"crew/internal/team/models"
	id "crew/pkg/domain"
)

// Store is the persistence contract for staff profiles.
//
// Writes use optimistic concurrency keyed by the profile Version: Update
// succeeds only if the stored version still matches the version the caller
// read, so two concurrent read-modify-write cycles against the same user can
// never silently lose one of the updates. Implementations return:
//
//   - sentinel.ErrNotFound from FindByUserID/Update when no record exists
//   - sentinel.ErrAlreadyExists from Create on a duplicate user ID
//   - sentinel.ErrConflict from Update when the version check fails
//
// On a successful Update the stored version becomes profile.Version+1 and
// the passed profile's Version is advanced to match.
type Store interface {
	Create(ctx context.Context, p *models.StaffProfile) error
	FindByUserID(ctx context.Context, userID id.UserID) (*models.StaffProfile, error)
	Update(ctx context.Context, p *models.StaffProfile) error
	ListStaff(ctx context.Context) ([]*models.StaffProfile, error)
}
