package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
	"github.com/makkenzo/pixel-service-api/internal/service"
	"go.uber.org/zap"
)

const pixelFileSuffix = ".gif"

// transparentGIF is a canonical 43-byte 1x1 transparent GIF89a. Every
// tracking response serves exactly these bytes.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, // GIF89a
	0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, // 1x1, global color table
	0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, // black, white
	0x21, 0xF9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, // transparency extension
	0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, // image descriptor
	0x02, 0x02, 0x44, 0x01, 0x00, // image data
	0x3B, // trailer
}

type TrackHandler struct {
	recorder *service.RecorderService
	logger   *zap.Logger
}

func NewTrackHandler(recorder *service.RecorderService, logger *zap.Logger) *TrackHandler {
	return &TrackHandler{
		recorder: recorder,
		logger:   logger.Named("TrackHandler"),
	}
}

// Open records the open event and serves the pixel. The response is
// byte-identical for existing, unknown and malformed references; recording
// failures are logged but never surface to the embedding client.
func (h *TrackHandler) Open(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("ref"), pixelFileSuffix)

	open := &pixel.OpenContext{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
		Language:  c.GetHeader("Accept-Language"),
		Geo:       geoFromHeaders(c),
	}

	if err := h.recorder.RecordOpen(c.Request.Context(), id, open); err != nil {
		h.logger.Error("Failed to record open event", zap.String("pixel_id", id), zap.Error(err))
	}

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "image/gif", transparentGIF)
}

// geoFromHeaders picks up coarse location hints set by a fronting edge or
// proxy. Cloudflare-style headers are checked first, then the generic ones.
func geoFromHeaders(c *gin.Context) *pixel.Geo {
	geo := &pixel.Geo{
		Country: headerFirst(c, "CF-IPCountry", "X-Geo-Country"),
		Region:  headerFirst(c, "CF-Region-Code", "X-Geo-Region"),
		City:    headerFirst(c, "CF-IPCity", "X-Geo-City"),
	}
	if geo.Country == "" && geo.Region == "" && geo.City == "" {
		return nil
	}
	return geo
}

func headerFirst(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := c.GetHeader(name); v != "" {
			return v
		}
	}
	return ""
}
