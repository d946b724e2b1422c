package playlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/streamhub/internal/models"
	"github.com/stwalsh4118/streamhub/internal/store"
)

func seedEntries(t *testing.T, svc *Service, urls ...string) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(urls))
	for _, u := range urls {
		e, err := svc.Create(context.Background(), EntryInput{URL: u})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	return ids
}

func orderOf(entries []models.Entry) []uuid.UUID {
	out := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

var testURLs = []string{
	"https://youtu.be/aaaaaaaaaaa",
	"https://youtu.be/bbbbbbbbbbb",
	"https://youtu.be/ccccccccccc",
	"https://youtu.be/ddddddddddd",
}

func TestDrag_MoveAndCommit(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ids := seedEntries(t, svc, testURLs...)

	r := NewReorderer(adapter)
	defer r.Close()

	d, err := r.Begin(0)
	require.NoError(t, err)
	require.NoError(t, d.MoveTo(1))
	require.NoError(t, d.MoveTo(2))
	assert.Equal(t, []uuid.UUID{ids[1], ids[2], ids[0], ids[3]}, orderOf(d.Working()))
	assert.Equal(t, ids, orderOf(r.Confirmed()), "dragging does not touch the confirmed order")

	require.NoError(t, d.Commit(context.Background()))

	entries := adapter.Entries().Entries
	assert.Equal(t, []uuid.UUID{ids[1], ids[2], ids[0], ids[3]}, orderOf(entries))
	for i, e := range entries {
		assert.Equal(t, i, e.Order, "orders are contiguous")
	}
	assert.ErrorIs(t, d.Commit(context.Background()), ErrNoDrag, "a drag commits once")
}

func TestDrag_MoveToClamps(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ids := seedEntries(t, svc, testURLs[:3]...)

	r := NewReorderer(adapter)
	defer r.Close()

	d, err := r.Begin(0)
	require.NoError(t, err)
	require.NoError(t, d.MoveTo(99))
	assert.Equal(t, []uuid.UUID{ids[1], ids[2], ids[0]}, orderOf(d.Working()))
	require.NoError(t, d.MoveTo(-5))
	assert.Equal(t, ids, orderOf(d.Working()))

	_, err = r.Begin(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDrag_CancelRestoresConfirmed(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ids := seedEntries(t, svc, testURLs[:3]...)

	r := NewReorderer(adapter)
	defer r.Close()

	d, err := r.Begin(2)
	require.NoError(t, err)
	require.NoError(t, d.MoveTo(0))
	d.Cancel()
	assert.Equal(t, ids, orderOf(d.Working()))
	assert.ErrorIs(t, d.Commit(context.Background()), ErrNoDrag)
	assert.ErrorIs(t, d.MoveTo(1), ErrNoDrag)
}

func TestDrag_OperatorsDoNotShareState(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ids := seedEntries(t, svc, testURLs[:3]...)

	r := NewReorderer(adapter)
	defer r.Close()

	first, err := r.Begin(0)
	require.NoError(t, err)
	second, err := r.Begin(2)
	require.NoError(t, err)

	require.NoError(t, first.MoveTo(2))
	second.Cancel()

	assert.Equal(t, []uuid.UUID{ids[1], ids[2], ids[0]}, orderOf(first.Working()), "cancel elsewhere keeps this drag")
	require.NoError(t, first.Commit(context.Background()))
	assert.Equal(t, []uuid.UUID{ids[1], ids[2], ids[0]}, orderOf(adapter.Entries().Entries))
}

func TestDrag_StaleDragRejected(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ids := seedEntries(t, svc, testURLs[:2]...)

	r := NewReorderer(adapter)
	defer r.Close()

	d, err := r.Begin(0)
	require.NoError(t, err)
	require.NoError(t, d.MoveTo(1))

	seedEntries(t, svc, testURLs[2])

	assert.ErrorIs(t, d.Commit(context.Background()), ErrInvalidOrder)
	assert.Len(t, d.Working(), 3, "reverted to the order that now includes the new entry")
	assert.Equal(t, ids, orderOf(adapter.Entries().Entries)[:2])
}

func TestDrag_CommitFailureRevertsToConfirmed(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ids := seedEntries(t, svc, testURLs...)

	r := NewReorderer(failingStore{Store: adapter})
	defer r.Close()

	d, err := r.Begin(3)
	require.NoError(t, err)
	require.NoError(t, d.MoveTo(0))
	err = d.Commit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errReorderFailed)

	assert.Equal(t, ids, orderOf(d.Working()), "working copy reverted")
	assert.Equal(t, ids, orderOf(adapter.Entries().Entries), "server order untouched")

	err = r.CommitOrder(context.Background(), []uuid.UUID{ids[3], ids[2], ids[1], ids[0]})
	require.Error(t, err)
	assert.Equal(t, ids, orderOf(r.Confirmed()))
}

func TestReorderer_CommitOrder(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ids := seedEntries(t, svc, testURLs[:3]...)

	r := NewReorderer(adapter)
	defer r.Close()

	want := []uuid.UUID{ids[2], ids[0], ids[1]}
	require.NoError(t, r.CommitOrder(context.Background(), want))
	assert.Equal(t, want, orderOf(adapter.Entries().Entries))
	assert.Equal(t, want, orderOf(r.Confirmed()))

	t.Run("rejects partial orders", func(t *testing.T) {
		assert.ErrorIs(t, r.CommitOrder(context.Background(), ids[:2]), ErrInvalidOrder)
		assert.ErrorIs(t, r.CommitOrder(context.Background(), []uuid.UUID{ids[0], ids[0], ids[1]}), ErrInvalidOrder)
		assert.ErrorIs(t, r.CommitOrder(context.Background(), []uuid.UUID{ids[0], ids[1], uuid.New()}), ErrInvalidOrder)
	})
}

func TestReorderer_MoveBy(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ids := seedEntries(t, svc, testURLs[:3]...)

	r := NewReorderer(adapter)
	defer r.Close()
	ctx := context.Background()

	require.NoError(t, r.MoveBy(ctx, ids[2], -1))
	want := []uuid.UUID{ids[0], ids[2], ids[1]}
	assert.Equal(t, want, orderOf(adapter.Entries().Entries))

	// Past the top is ignored.
	require.NoError(t, r.MoveBy(ctx, ids[0], -1))
	assert.Equal(t, want, orderOf(adapter.Entries().Entries))

	require.NoError(t, r.MoveBy(ctx, ids[0], 2))
	want = []uuid.UUID{ids[2], ids[1], ids[0]}
	assert.Equal(t, want, orderOf(adapter.Entries().Entries))

	assert.True(t, IsEntryNotFound(r.MoveBy(ctx, uuid.New(), 1)))
}

func TestReorderer_IgnoresStaleSnapshots(t *testing.T) {
	svc, adapter := setupPlaylistTest(t)
	ids := seedEntries(t, svc, testURLs[:2]...)

	r := NewReorderer(adapter)
	defer r.Close()

	current := adapter.Entries()
	r.onSnapshot(store.Snapshot{Version: current.Version - 1, Entries: nil})
	r.mu.Lock()
	got := orderOf(r.confirmed)
	r.mu.Unlock()
	assert.Equal(t, ids, got)
}
