package dto

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
)

// PixelReportResponse is the JSON report: pixel metadata (token hash
// stripped) followed by the ordered open events.
type PixelReportResponse struct {
	Pixel  PixelMetaResponse `json:"pixel"`
	Events []EventResponse   `json:"events"`
}

type PixelMetaResponse struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"createdAt"`
	Label        string            `json:"label,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	OpenCount    int64             `json:"openCount"`
	LastOpenedAt *time.Time        `json:"lastOpenedAt,omitempty"`
}

type EventResponse struct {
	Timestamp    time.Time  `json:"timestamp"`
	AnonymizedIP *string    `json:"anonymizedIp"`
	UserAgent    *string    `json:"userAgent"`
	Referer      *string    `json:"referer"`
	Language     *string    `json:"language"`
	Geo          *pixel.Geo `json:"geo,omitempty"`
}

func NewPixelReportResponse(meta *pixel.Meta, events []*pixel.Event) *PixelReportResponse {
	out := &PixelReportResponse{
		Pixel: PixelMetaResponse{
			ID:           meta.ID,
			CreatedAt:    meta.CreatedAt,
			Label:        meta.Label,
			Metadata:     meta.Metadata,
			OpenCount:    meta.OpenCount,
			LastOpenedAt: meta.LastOpenedAt,
		},
		Events: make([]EventResponse, 0, len(events)),
	}
	for _, event := range events {
		out.Events = append(out.Events, EventResponse{
			Timestamp:    event.Timestamp,
			AnonymizedIP: event.AnonymizedIP,
			UserAgent:    event.UserAgent,
			Referer:      event.Referer,
			Language:     event.Language,
			Geo:          event.Geo,
		})
	}
	return out
}

var csvHeader = []string{"timestamp", "anonymizedIp", "userAgent", "referer", "language", "country", "region", "city"}

// EventsCSV renders the ordered event list with a fixed column set.
// Quoting follows encoding/csv: fields containing separators, quotes or
// newlines are quoted with embedded quotes doubled. Absent fields render
// as empty strings.
func EventsCSV(events []*pixel.Event) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, event := range events {
		row := []string{
			event.Timestamp.UTC().Format(time.RFC3339Nano),
			stringOrEmpty(event.AnonymizedIP),
			stringOrEmpty(event.UserAgent),
			stringOrEmpty(event.Referer),
			stringOrEmpty(event.Language),
			"",
			"",
			"",
		}
		if event.Geo != nil {
			row[5], row[6], row[7] = event.Geo.Country, event.Geo.Region, event.Geo.City
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
