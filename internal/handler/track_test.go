package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makkenzo/pixel-service-api/internal/config"
	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
)

func seedTrackedPixel(t *testing.T, ts *testServer) string {
	t.Helper()
	id := "0123456789abcdef"
	require.NoError(t, ts.repo.SaveMeta(context.Background(), &pixel.Meta{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		TokenHash: "hash",
	}))
	return id
}

func TestOpenServesPixel(t *testing.T) {
	ts := newTestServer(t, config.CreationConfig{Secret: testCreationSecret})
	id := seedTrackedPixel(t, ts)

	req := httptest.NewRequest(http.MethodGet, "/p/"+id+".gif", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.77")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://example.com/news")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	req.Header.Set("CF-IPCountry", "DE")
	w := ts.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, transparentGIF, w.Body.Bytes())
	assert.Len(t, w.Body.Bytes(), 43)

	events, _, err := ts.repo.ListEvents(context.Background(), id, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	event := events[0]
	require.NotNil(t, event.AnonymizedIP)
	assert.Equal(t, "203.0.113.0", *event.AnonymizedIP)
	require.NotNil(t, event.UserAgent)
	assert.Equal(t, "Mozilla/5.0", *event.UserAgent)
	require.NotNil(t, event.Referer)
	assert.Equal(t, "https://example.com/news", *event.Referer)
	require.NotNil(t, event.Language)
	assert.Equal(t, "de-DE,de;q=0.9", *event.Language)
	require.NotNil(t, event.Geo)
	assert.Equal(t, "DE", event.Geo.Country)

	meta, err := ts.repo.FindMeta(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, meta.OpenCount)
	assert.NotNil(t, meta.LastOpenedAt)
}

func TestOpenWithoutSuffix(t *testing.T) {
	ts := newTestServer(t, config.CreationConfig{Secret: testCreationSecret})
	id := seedTrackedPixel(t, ts)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/p/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)

	events, _, err := ts.repo.ListEvents(context.Background(), id, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1, "the bare id must resolve like the .gif form")
}

func TestOpenResponseIndistinguishable(t *testing.T) {
	ts := newTestServer(t, config.CreationConfig{Secret: testCreationSecret})
	id := seedTrackedPixel(t, ts)

	responses := make([]*httptest.ResponseRecorder, 0, 3)
	for _, ref := range []string{id + ".gif", "ffffffffffffffff.gif", "definitely-not-an-id"} {
		responses = append(responses, ts.do(httptest.NewRequest(http.MethodGet, "/p/"+ref, nil)))
	}

	for _, w := range responses {
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
		assert.Equal(t, responses[0].Body.Bytes(), w.Body.Bytes(),
			"response bodies must be byte-identical regardless of pixel existence")
		assert.Equal(t, responses[0].Header().Get("Cache-Control"), w.Header().Get("Cache-Control"))
	}

	// Only the existing pixel may have recorded anything.
	events, _, err := ts.repo.ListEvents(context.Background(), id, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, _, err = ts.repo.ListEvents(context.Background(), "ffffffffffffffff", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestOpenTruncatesLongHeaders(t *testing.T) {
	ts := newTestServer(t, config.CreationConfig{Secret: testCreationSecret})
	id := seedTrackedPixel(t, ts)

	longUA := ""
	for len(longUA) < 600 {
		longUA += "VeryLongUserAgentSegment/1.0 "
	}
	req := httptest.NewRequest(http.MethodGet, "/p/"+id+".gif", nil)
	req.Header.Set("User-Agent", longUA)
	w := ts.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	events, _, err := ts.repo.ListEvents(context.Background(), id, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].UserAgent)
	assert.LessOrEqual(t, len([]rune(*events[0].UserAgent)), 256)
}
