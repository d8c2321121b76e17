package pixel

import "time"

const (
	// IDByteLength yields 16 lowercase hex characters per pixel id.
	IDByteLength = 8
	// TokenByteLength yields 64 lowercase hex characters per report token.
	TokenByteLength = 32
)

// Meta is the stored metadata document of one tracking pixel. It holds
// only the SHA-256 hash of the report token; the raw token is revealed
// exactly once, at creation time.
type Meta struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"createdAt"`
	Label        string            `json:"label,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	TokenHash    string            `json:"tokenHash"`
	OpenCount    int64             `json:"openCount"`
	LastOpenedAt *time.Time        `json:"lastOpenedAt,omitempty"`
}

// Event is one anonymized open record. Absent fields are nil and encode
// as JSON null rather than being dropped, so report consumers see a
// stable shape per event.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	AnonymizedIP *string   `json:"anonymizedIp"`
	UserAgent    *string   `json:"userAgent"`
	Referer      *string   `json:"referer"`
	Language     *string   `json:"language"`
	Geo          *Geo      `json:"geo,omitempty"`
}

// Geo is the coarse location snapshot taken from edge-supplied headers.
type Geo struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

// OpenContext carries the raw per-request client attributes of a pixel
// open before anonymization.
type OpenContext struct {
	ClientIP  string
	UserAgent string
	Referer   string
	Language  string
	Geo       *Geo
}
