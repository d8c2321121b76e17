package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/pixel-service-api/internal/storage/kv"
	"go.uber.org/zap"
)

const healthProbeKey = "healthz:probe"

type HealthHandler struct {
	store  kv.Store
	logger *zap.Logger
}

func NewHealthHandler(store kv.Store, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		logger: logger,
	}
}

// Check probes the store with a read of a reserved key. The key is never
// written; an ErrNotFound answer proves the backend is reachable.
func (h *HealthHandler) Check(c *gin.Context) {
	storeStatus := "ok"
	if _, err := h.store.Get(c.Request.Context(), healthProbeKey); err != nil && !errors.Is(err, kv.ErrNotFound) {
		storeStatus = "error"
		h.logger.Error("Health check: store probe failed", zap.Error(err))
	}

	if storeStatus == "error" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"dependencies": gin.H{
				"store": storeStatus,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"dependencies": gin.H{
			"store": storeStatus,
		},
	})
}
