package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solischarge/core/model"
	"github.com/kilianp07/solischarge/core/window"
)

func schedule(id, device string, at time.Time) model.Schedule {
	return model.Schedule{
		RunID:     id,
		Device:    device,
		Layout:    "legacy",
		Slots:     []window.Slot{window.SentinelSlot(), window.SentinelSlot(), window.SentinelSlot()},
		Summary:   "23:30-05:30",
		CoreStart: at,
		CoreEnd:   at.Add(6 * time.Hour),
		CreatedAt: at,
	}
}

func TestSQLiteStorePersistQuery(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	_, err = store.Latest(ctx)
	assert.ErrorIs(t, err, ErrEmpty)

	base := time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, schedule("r1", "inv-a", base)))
	require.NoError(t, store.Append(ctx, schedule("r2", "inv-b", base.Add(time.Hour))))
	require.NoError(t, store.Append(ctx, schedule("r3", "inv-a", base.Add(2*time.Hour))))

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r3", latest.RunID)
	assert.Len(t, latest.Slots, 3)
	assert.True(t, latest.CreatedAt.Equal(base.Add(2*time.Hour)))

	out, err := store.Query(ctx, Query{Device: "inv-a"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r3", out[0].RunID)
	assert.Equal(t, "r1", out[1].RunID)

	out, err = store.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].RunID)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), schedule("r1", "", time.Now())))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r1", latest.RunID)
}
