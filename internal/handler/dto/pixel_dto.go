package dto

import "time"

// CreatePixelRequest carries the optional descriptive fields of a new
// pixel. Nothing is required; an unparseable body degrades to the zero
// value rather than rejecting the request.
type CreatePixelRequest struct {
	Label    string            `json:"label"`
	Metadata map[string]string `json:"metadata"`
}

// CreatePixelResponse is the only place the raw report token ever appears.
type CreatePixelResponse struct {
	ID        string    `json:"id"`
	PixelURL  string    `json:"pixelUrl"`
	EventsURL string    `json:"eventsUrl"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

// Report output formats.
const (
	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
)

type ReportQuery struct {
	Token  string `form:"token"`
	Format string `form:"format,default=json" binding:"omitempty,oneof=json csv"`
}
