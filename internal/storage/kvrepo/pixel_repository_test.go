package kvrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
	"github.com/makkenzo/pixel-service-api/internal/storage/memstore"
)

func newTestRepo() *PixelRepository {
	return NewPixelRepository(memstore.New(), zap.NewNop())
}

func strPtr(s string) *string { return &s }

func TestSaveAndFindMeta(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	_, err := repo.FindMeta(ctx, "0123456789abcdef")
	assert.ErrorIs(t, err, pixel.ErrNotFound)

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	meta := &pixel.Meta{
		ID:        "0123456789abcdef",
		CreatedAt: created,
		Label:     "newsletter",
		Metadata:  map[string]string{"campaign": "spring"},
		TokenHash: "deadbeef",
		OpenCount: 3,
	}
	require.NoError(t, repo.SaveMeta(ctx, meta))

	got, err := repo.FindMeta(ctx, "0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, meta.ID, got.ID)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "newsletter", got.Label)
	assert.Equal(t, map[string]string{"campaign": "spring"}, got.Metadata)
	assert.Equal(t, "deadbeef", got.TokenHash)
	assert.EqualValues(t, 3, got.OpenCount)
	assert.Nil(t, got.LastOpenedAt)
}

func TestAppendAndListEvents(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	id := "0123456789abcdef"

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		event := &pixel.Event{
			Timestamp:    base.Add(time.Duration(i) * time.Second),
			AnonymizedIP: strPtr("203.0.113.0"),
			UserAgent:    strPtr("UA"),
		}
		require.NoError(t, repo.AppendEvent(ctx, id, event))
	}

	events, complete, err := repo.ListEvents(ctx, id, 10)
	require.NoError(t, err)
	assert.True(t, complete)
	require.Len(t, events, 3)
	for i, event := range events {
		assert.True(t, base.Add(time.Duration(i)*time.Second).Equal(event.Timestamp))
		require.NotNil(t, event.AnonymizedIP)
		assert.Equal(t, "203.0.113.0", *event.AnonymizedIP)
		assert.Nil(t, event.Referer)
		assert.Nil(t, event.Geo)
	}
}

func TestAppendEventSameMillisecondDistinctKeys(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	id := "0123456789abcdef"

	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AppendEvent(ctx, id, &pixel.Event{Timestamp: ts}))
	}

	count, complete, err := repo.CountEvents(ctx, id, 100)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.EqualValues(t, 5, count, "same-millisecond events must land on distinct keys")
}

func TestListEventsPageLimit(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	id := "0123456789abcdef"

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, repo.AppendEvent(ctx, id, &pixel.Event{Timestamp: base.Add(time.Duration(i) * time.Millisecond)}))
	}

	events, complete, err := repo.ListEvents(ctx, id, 5)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Len(t, events, 5)

	count, complete, err := repo.CountEvents(ctx, id, 5)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.EqualValues(t, 5, count)
}

func TestEventsIsolatedPerPixel(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AppendEvent(ctx, "aaaaaaaaaaaaaaaa", &pixel.Event{Timestamp: ts}))
	require.NoError(t, repo.AppendEvent(ctx, "bbbbbbbbbbbbbbbb", &pixel.Event{Timestamp: ts}))

	events, _, err := repo.ListEvents(ctx, "aaaaaaaaaaaaaaaa", 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, _, err = repo.ListEvents(ctx, "cccccccccccccccc", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListPixelIDs(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	for _, id := range []string{"aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb"} {
		require.NoError(t, repo.SaveMeta(ctx, &pixel.Meta{ID: id, CreatedAt: time.Now().UTC(), TokenHash: "h"}))
	}
	// Event keys must not leak into the pixel listing.
	require.NoError(t, repo.AppendEvent(ctx, "aaaaaaaaaaaaaaaa", &pixel.Event{Timestamp: time.Now().UTC()}))

	ids, complete, err := repo.ListPixelIDs(ctx, 10)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.ElementsMatch(t, []string{"aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb"}, ids)
}
