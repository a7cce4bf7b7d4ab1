package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	id "crew/pkg/domain"
	dErrors "crew/pkg/domain-errors"
)

// recalcAllConcurrency bounds the parallel recalculation fan-out. Profiles
// of different users never contend, so the only pressure is on the store.
const recalcAllConcurrency = 8

// RecalcAllSummary reports the outcome of a full-staff recalculation pass.
type RecalcAllSummary struct {
	Total     int                  `json:"total"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Changed   int                  `json:"changed"`
	Errors    map[id.UserID]string `json:"errors,omitempty"`
}

// RecalculateAllStaffPermissions re-derives every staff user's effective
// permissions. Safe to run repeatedly while the service is live: each user
// is an independent unit of mutation, processed in parallel with per-user
// persist-then-audit ordering preserved by the single-user path. Per-user
// failures are collected, never fatal to the pass.
func (s *Service) RecalculateAllStaffPermissions(ctx context.Context, actor id.UserID) (*RecalcAllSummary, error) {
	start := time.Now()
	staff, err := s.listStaff(ctx)
	if err != nil {
		return nil, err
	}

	summary := &RecalcAllSummary{Total: len(staff)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recalcAllConcurrency)
	for _, p := range staff {
		userID := p.UserID
		g.Go(func() error {
			res, err := s.RecalculateUserPermissions(gctx, userID, actor)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				if summary.Errors == nil {
					summary.Errors = make(map[id.UserID]string)
				}
				summary.Errors[userID] = err.Error()
				return nil
			}
			summary.Succeeded++
			if len(res.AddedPermissions) > 0 || len(res.RemovedPermissions) > 0 {
				summary.Changed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "recalculate all staff permissions")
	}

	s.logger.InfoContext(ctx, "full staff recalculation finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"changed", summary.Changed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if s.metrics != nil {
		s.metrics.ObserveRecalcAll(start)
	}
	return summary, nil
}
