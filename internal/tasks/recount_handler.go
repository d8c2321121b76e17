package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
	"github.com/makkenzo/pixel-service-api/internal/metrics"
	"go.uber.org/zap"
)

type PixelRecountHandler struct {
	repo      pixel.Repository
	scanLimit int
	logger    *zap.Logger
}

func NewPixelRecountHandler(repo pixel.Repository, scanLimit int, logger *zap.Logger) *PixelRecountHandler {
	return &PixelRecountHandler{
		repo:      repo,
		scanLimit: scanLimit,
		logger:    logger.Named("PixelRecountHandler"),
	}
}

// ProcessTask realigns drifted open counters with the per-pixel event
// records, which are the authoritative count. A pixel whose event
// namespace does not fit in one store page is left untouched: without the
// full key set the true count is unknown.
func (h *PixelRecountHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {

	if t.Type() != TypePixelRecount {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p PixelRecountPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal payload for recount task", zap.Error(err), zap.ByteString("payload", t.Payload()))

		return fmt.Errorf("invalid payload: %v", err)
	}

	h.logger.Info("Processing pixel counter recount task...")

	ids, complete, err := h.repo.ListPixelIDs(ctx, h.scanLimit)
	if err != nil {
		h.logger.Error("Failed to list pixels for recount", zap.Error(err))
		return fmt.Errorf("repository error listing pixels: %w", err)
	}
	if !complete {
		h.logger.Warn("Pixel listing truncated at scan limit, recounting first page only",
			zap.Int("scan_limit", h.scanLimit),
		)
	}

	processedCount := 0
	repairedCount := 0
	skippedCount := 0

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		meta, err := h.repo.FindMeta(ctx, id)
		if err != nil {
			h.logger.Error("Failed to load pixel meta during recount", zap.String("pixel_id", id), zap.Error(err))
			continue
		}

		count, countComplete, err := h.repo.CountEvents(ctx, id, h.scanLimit)
		if err != nil {
			h.logger.Error("Failed to count events during recount", zap.String("pixel_id", id), zap.Error(err))
			continue
		}
		processedCount++

		if !countComplete {
			skippedCount++
			h.logger.Debug("Event namespace exceeds one page, skipping repair", zap.String("pixel_id", id))
			continue
		}

		if meta.OpenCount == count {
			continue
		}

		h.logger.Info("Repairing drifted open counter",
			zap.String("pixel_id", id),
			zap.Int64("stored", meta.OpenCount),
			zap.Int64("recounted", count),
		)

		meta.OpenCount = count
		if err := h.repo.SaveMeta(ctx, meta); err != nil {
			h.logger.Error("Failed to save recounted pixel meta", zap.String("pixel_id", id), zap.Error(err))
			continue
		}
		repairedCount++
		metrics.CountersRepaired.Inc()
	}

	h.logger.Info("Pixel counter recount task finished",
		zap.Int("processed_pixels", processedCount),
		zap.Int("repaired_counters", repairedCount),
		zap.Int("skipped_incomplete", skippedCount),
	)
	return nil
}
