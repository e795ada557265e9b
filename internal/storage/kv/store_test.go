package kv

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitbook/internal/models"
	"github.com/mmynk/splitbook/internal/storage"
)

func exerciseStore(t *testing.T, store *Store) {
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	t.Run("participants", func(t *testing.T) {
		alice := &models.Participant{Name: "Alice", Color: models.Palette[0]}
		require.NoError(t, store.SaveParticipant(ctx, alice))
		require.NotEmpty(t, alice.ID)
		require.NoError(t, store.SaveParticipant(ctx, &models.Participant{ID: "bob", Name: "Bob"}))

		alice.Name = "Alice A."
		require.NoError(t, store.SaveParticipant(ctx, alice))

		roster, err := store.ListParticipants(ctx)
		require.NoError(t, err)
		require.Len(t, roster, 2)
		assert.Equal(t, "Alice A.", roster[0].Name)
		assert.Equal(t, "bob", roster[1].ID)

		require.NoError(t, store.DeleteParticipant(ctx, "bob"))
		assert.ErrorIs(t, store.DeleteParticipant(ctx, "bob"), storage.ErrNotFound)
	})

	t.Run("expenses", func(t *testing.T) {
		older := &models.Expense{
			Description: "Taxi", Amount: 30, PaidBy: "alice", Date: day(2),
			Split: models.EqualSplit{},
		}
		newer := &models.Expense{
			ID: "hotel", Description: "Hotel", Amount: 200, PaidBy: "bob", Date: day(9),
			Participants: []string{"alice", "bob"},
			Split:        models.CustomSplit{Shares: map[string]float64{"alice": 150, "bob": 50}},
		}
		require.NoError(t, store.CreateExpense(ctx, older))
		require.NoError(t, store.CreateExpense(ctx, newer))
		assert.Equal(t, models.StatusPending, older.Status)
		assert.Error(t, store.CreateExpense(ctx, &models.Expense{ID: "hotel"}), "duplicate id")

		list, err := store.ListExpenses(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "hotel", list[0].ID)

		got, err := store.GetExpense(ctx, "hotel")
		require.NoError(t, err)
		custom, ok := got.Split.(models.CustomSplit)
		require.True(t, ok)
		assert.Equal(t, 150.0, custom.Shares["alice"])

		got.Status = models.StatusSettled
		got.CreatedAt = 0
		require.NoError(t, store.UpdateExpense(ctx, got))
		assert.Equal(t, newer.CreatedAt, got.CreatedAt)

		got, err = store.GetExpense(ctx, "hotel")
		require.NoError(t, err)
		assert.Equal(t, models.StatusSettled, got.Status)

		require.NoError(t, store.DeleteExpense(ctx, older.ID))
		_, err = store.GetExpense(ctx, older.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, store.UpdateExpense(ctx, older), storage.ErrNotFound)
	})
}

func TestStore_Memory(t *testing.T) {
	store := NewMemory()
	defer store.Close()
	exerciseStore(t, store)
}

func TestStore_ReadsBrowserBlob(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	users := `[{"id":"u1","name":"Somchai","color":"#3B82F6"},{"id":"u2","name":"Nok","color":"#EF4444"}]`
	expenses := `[{"id":"e1","description":"Som tam","amount":120,"paidBy":"u1","participants":[],"splitType":"equal","date":"2024-02-01T00:00:00Z","status":"pending"}]`
	require.NoError(t, backend.Set(ctx, "app:users", []byte(users)))
	require.NoError(t, backend.Set(ctx, "app:expenses", []byte(expenses)))

	store := New(backend, "app:")

	roster, err := store.ListParticipants(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Nok", roster.NameOf("u2"))

	list, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 120.0, list[0].Amount)
	assert.IsType(t, models.EqualSplit{}, list[0].Split)
}

func TestStore_CorruptBlob(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Set(context.Background(), DefaultPrefix+"expenses", []byte("{not json")))

	_, err := New(backend, "").ListExpenses(context.Background())
	assert.Error(t, err)
}

func TestStore_SkipsUnreadableExpense(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	blob := `[
		{"id":"e1","description":"Pizza","amount":30,"paidBy":"u1","splitType":"equal","date":"2024-04-01T00:00:00Z","status":"pending"},
		{"id":"e2","description":"Tickets","amount":50,"paidBy":"u2","splitType":"percent","customSplits":{"u1":50},"date":"2024-04-02T00:00:00Z"}
	]`
	require.NoError(t, backend.Set(ctx, DefaultPrefix+"expenses", []byte(blob)))
	store := New(backend, "")

	expenses, err := store.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "e1", expenses[0].ID)

	_, err = store.GetExpense(ctx, "e2")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Writes keep the unreadable record in the blob.
	require.NoError(t, store.CreateExpense(ctx, &models.Expense{ID: "e3", Description: "Taxi", Amount: 12, PaidBy: "u1"}))
	require.NoError(t, store.DeleteExpense(ctx, "e1"))

	data, ok, err := backend.Get(ctx, DefaultPrefix+"expenses")
	require.NoError(t, err)
	require.True(t, ok)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "e3", records[0]["id"])
	assert.Equal(t, "e2", records[1]["id"])
	assert.Equal(t, "percent", records[1]["splitType"])
}

func TestStore_Redis(t *testing.T) {
	addr := os.Getenv("SPLITBOOK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SPLITBOOK_TEST_REDIS_ADDR not set")
	}

	backend, err := NewRedisBackend(context.Background(), addr, "", 0)
	require.NoError(t, err)

	store := New(backend, "splitbook-test:"+time.Now().Format("150405.000")+":")
	defer store.Close()
	exerciseStore(t, store)
}
