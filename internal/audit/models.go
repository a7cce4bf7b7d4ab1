// Package audit records every permission-affecting change as an append-only
// trail. Entries are immutable once written; ordering is by timestamp only,
// so concurrent writers may interleave.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crew/internal/catalog"
	id "crew/pkg/domain"
)

// Operation names the management action that produced an entry.
type Operation string

const (
	OperationAssign      Operation = "assign"
	OperationRemove      Operation = "remove"
	OperationRoleChange  Operation = "role_change"
	OperationBulkAssign  Operation = "bulk_assign"
	OperationRecalculate Operation = "recalculate"
)

// Entry is one permission-affecting event. The before/after sets and their
// delta are captured at write time so the trail stays meaningful even after
// the catalog's permission sets change.
type Entry struct {
	ID           uuid.UUID      `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Actor        id.UserID      `json:"actor"`
	TargetUserID id.UserID      `json:"target_user_id"`
	Operation    Operation      `json:"operation"`
	TeamID       catalog.TeamID `json:"team_id,omitempty"`
	Role         catalog.Role   `json:"role,omitempty"`

	BeforePermissions  []string `json:"before_permissions"`
	AfterPermissions   []string `json:"after_permissions"`
	AddedPermissions   []string `json:"added_permissions"`
	RemovedPermissions []string `json:"removed_permissions"`
}

// Store is the append-only persistence contract. No implementation may
// mutate or delete an entry after Append returns.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByTarget(ctx context.Context, targetUserID id.UserID) ([]Entry, error)
	ListRange(ctx context.Context, from, to time.Time) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// StreamPublisher mirrors entries to an event stream for downstream
// consumers. Publishing is best-effort; the store append is authoritative.
type StreamPublisher interface {
	Publish(ctx context.Context, entry Entry)
}
