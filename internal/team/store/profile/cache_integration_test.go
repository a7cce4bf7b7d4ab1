//go:build integration

package profile_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crew/internal/team/models"
	"crew/internal/team/store/profile"
	id "crew/pkg/domain"
	"crew/pkg/testutil/containers"
)

func TestCachedStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))

	inner := profile.NewInMemory()
	store := profile.NewCached(inner, rc.Client, time.Minute, logger)

	p := models.NewStaffProfile(id.NewUserID(), []string{"view_leads"}, time.Now().UTC())
	require.NoError(t, store.Create(ctx, p))

	t.Run("read-through populates cache", func(t *testing.T) {
		first, err := store.FindByUserID(ctx, p.UserID)
		require.NoError(t, err)
		require.Equal(t, p.UserID, first.UserID)

		exists, err := rc.Client.Exists(ctx, "crew:profile:"+p.UserID.String()).Result()
		require.NoError(t, err)
		require.Equal(t, int64(1), exists)
	})

	t.Run("update invalidates cache", func(t *testing.T) {
		_, err := store.FindByUserID(ctx, p.UserID)
		require.NoError(t, err)

		fresh, err := store.FindByUserID(ctx, p.UserID)
		require.NoError(t, err)
		fresh.EffectivePermissions = []string{"view_leads", "assign_leads"}
		require.NoError(t, store.Update(ctx, fresh))

		after, err := store.FindByUserID(ctx, p.UserID)
		require.NoError(t, err)
		require.Equal(t, []string{"view_leads", "assign_leads"}, after.EffectivePermissions)
	})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
