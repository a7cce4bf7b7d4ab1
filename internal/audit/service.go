package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "crew/pkg/domain"
	"crew/pkg/requestcontext"
)

// Service captures structured audit entries. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. An optional
// stream publisher mirrors entries to Kafka for downstream consumers; only
// the store append can fail the operation.
type Service struct {
	store  Store
	stream StreamPublisher
}

func NewService(store Store, stream StreamPublisher) *Service {
	return &Service{store: store, stream: stream}
}

// Record stamps missing fields and appends the entry. A store failure is
// returned to the caller; the management service treats it as the
// audit-write-failed condition, since the profile write has already landed.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	if s.stream != nil {
		s.stream.Publish(ctx, entry)
	}
	return nil
}

// ListByTarget returns all entries for one target user, newest first.
func (s *Service) ListByTarget(ctx context.Context, targetUserID id.UserID) ([]Entry, error) {
	return s.store.ListByTarget(ctx, targetUserID)
}

// ListRange returns entries whose timestamp falls within [from, to).
func (s *Service) ListRange(ctx context.Context, from, to time.Time) ([]Entry, error) {
	return s.store.ListRange(ctx, from, to)
}

// ListRecent returns the N most recent entries across all users.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	return s.store.ListRecent(ctx, limit)
}
