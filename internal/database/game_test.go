package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("rummy"),
		postgres.WithUsername("rummy"),
		postgres.WithPassword("rummy"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	connString, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Connect(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.EnsureSchema(ctx))
	// A second run must be a no-op.
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func record(gameID, actor uuid.UUID, index int, typ string, payload map[string]interface{}) cache.ActionRecord {
	return cache.ActionRecord{
		GameID:        gameID,
		RoomCode:      "ABC123",
		ActionIndex:   index,
		ActorID:       actor,
		ActionType:    typ,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
}

func TestStore(t *testing.T) {
	store := startPostgres(t)
	ctx := context.Background()

	t.Run("ArchiveCompletedGame", func(t *testing.T) {
		gameID, winner := uuid.New(), uuid.New()
		batch := []cache.ActionRecord{
			record(gameID, uuid.Nil, 1, "game_start", map[string]interface{}{"players": 3}),
			record(gameID, winner, 2, "draw", map[string]interface{}{"source": "deck"}),
			record(gameID, winner, 3, "round_end", nil),
		}
		require.NoError(t, store.InsertActions(ctx, batch))
		// Replayed records are skipped and do not count rounds twice.
		require.NoError(t, store.InsertActions(ctx, batch))

		g, err := store.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", g.RoomCode)
		assert.Equal(t, StatusInProgress, g.Status)
		assert.Equal(t, 1, g.Rounds)
		assert.Nil(t, g.EndTime)

		require.NoError(t, store.InsertActions(ctx, []cache.ActionRecord{
			record(gameID, winner, 4, "game_end", map[string]interface{}{"rounds": 1}),
		}))
		g, err = store.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, g.Status)
		require.NotNil(t, g.WinnerID)
		assert.Equal(t, winner, *g.WinnerID)
		assert.NotNil(t, g.EndTime)

		acts, err := store.ListActions(ctx, gameID)
		require.NoError(t, err)
		require.Len(t, acts, 4)
		assert.Equal(t, uuid.Nil, acts[0].ActorID)
		assert.Equal(t, "draw", acts[1].ActionType)
		assert.Equal(t, "deck", acts[1].ActionPayload["source"])

		changed, err := store.MarkAbandoned(ctx, gameID)
		require.NoError(t, err)
		assert.False(t, changed, "completed games stay completed")
	})

	t.Run("MarkAbandoned", func(t *testing.T) {
		gameID := uuid.New()
		require.NoError(t, store.InsertActions(ctx, []cache.ActionRecord{
			record(gameID, uuid.Nil, 1, "game_start", nil),
		}))
		changed, err := store.MarkAbandoned(ctx, gameID)
		require.NoError(t, err)
		assert.True(t, changed)

		g, err := store.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, StatusAbandoned, g.Status)
	})

	t.Run("UnknownGame", func(t *testing.T) {
		_, err := store.GetGame(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrGameNotFound)
	})
}
