package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_price_tracker/internal/domain"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_AlertLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alerts, err := store.LoadAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	a1 := domain.PriceAlert{ID: "a1", Asset: "bitcoin", Condition: domain.ConditionAbove, Price: 60000, CreatedAt: created}
	a2 := domain.PriceAlert{ID: "a2", Asset: "ethereum", Condition: domain.ConditionBelow, Price: 3000, CreatedAt: created}
	require.NoError(t, store.SaveAlert(ctx, a1))
	require.NoError(t, store.SaveAlert(ctx, a2))

	alerts, err = store.LoadAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "a1", alerts[0].ID)
	assert.Equal(t, domain.ConditionAbove, alerts[0].Condition)
	assert.Equal(t, 60000.0, alerts[0].Price)
	assert.True(t, created.Equal(alerts[0].CreatedAt))
	assert.Equal(t, "a2", alerts[1].ID)

	require.NoError(t, store.DeleteAlert(ctx, "a1"))
	alerts, err = store.LoadAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "a2", alerts[0].ID)

	assert.ErrorIs(t, store.DeleteAlert(ctx, "missing"), domain.ErrAlertNotFound)
}

func TestSQLiteStore_CorruptAlertsDegradeToEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, blob := range []string{
		"{not json",
		`{"id":"x"}`,
		`"text"`,
		"null",
		`[{"id":"x","asset":"dogecoin","condition":"sideways","price":-5},{"foo":1}]`,
		`[{"foo":1}]`,
		`[{"id":"a","asset":"bitcoin","condition":"above","price":1},{"id":"b","asset":"dogecoin","condition":"above","price":1}]`,
		`[{"id":"a","asset":"bitcoin","condition":"sideways","price":1}]`,
		`[{"id":"a","asset":"bitcoin","condition":"above","price":0}]`,
		`[{"id":"","asset":"bitcoin","condition":"above","price":1}]`,
	} {
		require.NoError(t, store.SetValue(ctx, AlertsKey, blob))

		alerts, err := store.LoadAlerts(ctx)
		require.NoError(t, err, blob)
		assert.NotNil(t, alerts, blob)
		assert.Empty(t, alerts, blob)
	}

	// a corrupt list is replaced by the next save
	require.NoError(t, store.SaveAlert(ctx, domain.PriceAlert{ID: "n1", Asset: "solana", Condition: domain.ConditionAbove, Price: 1}))
	alerts, err := store.LoadAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.SaveAlert(ctx, domain.PriceAlert{ID: "p1", Asset: "bitcoin", Condition: domain.ConditionBelow, Price: 50000}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	alerts, err := store.LoadAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "p1", alerts[0].ID)
}
