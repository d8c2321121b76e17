package dto

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
)

func strPtr(s string) *string { return &s }

func TestEventsCSVRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	events := []*pixel.Event{
		{
			Timestamp:    ts,
			AnonymizedIP: strPtr("203.0.113.0"),
			UserAgent:    strPtr(`Mozilla/5.0 (X11; "Linux") Gecko, like`),
			Referer:      strPtr("https://example.com/page?a=1,2"),
			Language:     strPtr("de-DE,de;q=0.9"),
			Geo:          &pixel.Geo{Country: "DE", City: "Berlin"},
		},
		{
			Timestamp: ts.Add(time.Second),
		},
	}

	data, err := EventsCSV(events)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err, "output must parse back with a standard CSV reader")
	require.Len(t, records, 3)

	assert.Equal(t, []string{"timestamp", "anonymizedIp", "userAgent", "referer", "language", "country", "region", "city"}, records[0])

	first := records[1]
	assert.Equal(t, "2025-06-01T10:30:00Z", first[0])
	assert.Equal(t, "203.0.113.0", first[1])
	assert.Equal(t, `Mozilla/5.0 (X11; "Linux") Gecko, like`, first[2], "quotes and commas must survive the round trip")
	assert.Equal(t, "https://example.com/page?a=1,2", first[3])
	assert.Equal(t, "de-DE,de;q=0.9", first[4])
	assert.Equal(t, "DE", first[5])
	assert.Equal(t, "", first[6])
	assert.Equal(t, "Berlin", first[7])

	second := records[2]
	for _, field := range second[1:] {
		assert.Equal(t, "", field, "absent fields render as empty strings")
	}
}

func TestEventsCSVEmpty(t *testing.T) {
	data, err := EventsCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestEventResponseNullFields(t *testing.T) {
	resp := NewPixelReportResponse(
		&pixel.Meta{ID: "0123456789abcdef", CreatedAt: time.Now().UTC(), TokenHash: "secret-hash"},
		[]*pixel.Event{{Timestamp: time.Now().UTC()}},
	)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret-hash", "token hash must never leave the server")
	assert.Contains(t, string(data), `"anonymizedIp":null`, "absent fields encode as explicit null")
	assert.Contains(t, string(data), `"userAgent":null`)
	assert.NotContains(t, string(data), `"geo"`, "geo is omitted entirely when absent")
}
