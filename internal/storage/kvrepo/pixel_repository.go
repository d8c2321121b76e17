// Package kvrepo implements the pixel repository on top of any kv.Store
// backend. Documents are stored as JSON: one metadata document per pixel
// under meta:<id>, one event document per open under events:<id>:<suffix>.
package kvrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
	"github.com/makkenzo/pixel-service-api/internal/storage/kv"
	"github.com/makkenzo/pixel-service-api/internal/util"
)

const tieBreakerBytes = 4

type PixelRepository struct {
	store  kv.Store
	logger *zap.Logger
}

var _ pixel.Repository = (*PixelRepository)(nil)

func NewPixelRepository(store kv.Store, logger *zap.Logger) *PixelRepository {
	return &PixelRepository{
		store:  store,
		logger: logger.Named("PixelRepository"),
	}
}

func (r *PixelRepository) SaveMeta(ctx context.Context, meta *pixel.Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal pixel meta %s: %w", meta.ID, err)
	}

	if err := r.store.Put(ctx, pixel.MetaKey(meta.ID), data); err != nil {
		r.logger.Error("Failed to write pixel meta", zap.String("pixel_id", meta.ID), zap.Error(err))
		return fmt.Errorf("store error writing pixel meta: %w", err)
	}
	return nil
}

func (r *PixelRepository) FindMeta(ctx context.Context, id string) (*pixel.Meta, error) {
	data, err := r.store.Get(ctx, pixel.MetaKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, pixel.ErrNotFound
		}
		r.logger.Error("Failed to read pixel meta", zap.String("pixel_id", id), zap.Error(err))
		return nil, fmt.Errorf("store error reading pixel meta: %w", err)
	}

	var meta pixel.Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		r.logger.Error("Corrupt pixel meta document", zap.String("pixel_id", id), zap.Error(err))
		return nil, fmt.Errorf("decode pixel meta %s: %w", id, err)
	}
	return &meta, nil
}

// AppendEvent stores one open event under its own key. Each event gets a
// fresh random tie-breaker, so concurrent appends for the same pixel and
// millisecond never overwrite each other.
func (r *PixelRepository) AppendEvent(ctx context.Context, id string, event *pixel.Event) error {
	tieBreaker, err := util.RandomHex(tieBreakerBytes)
	if err != nil {
		return fmt.Errorf("generate event tie-breaker: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for pixel %s: %w", id, err)
	}

	key := pixel.EventKey(id, event.Timestamp, tieBreaker)
	if err := r.store.Put(ctx, key, data); err != nil {
		r.logger.Error("Failed to write open event", zap.String("pixel_id", id), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("store error writing event: %w", err)
	}
	return nil
}

// ListEvents loads up to limit events from a single store page. Keys that
// vanish between the listing and the read are skipped rather than failing
// the whole report; the store gives no snapshot isolation.
func (r *PixelRepository) ListEvents(ctx context.Context, id string, limit int) ([]*pixel.Event, bool, error) {
	page, err := r.store.List(ctx, pixel.EventKeyPrefix(id), limit)
	if err != nil {
		return nil, false, fmt.Errorf("store error listing events for pixel %s: %w", id, err)
	}

	events := make([]*pixel.Event, 0, len(page.Keys))
	for _, key := range page.Keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				continue
			}
			return nil, false, fmt.Errorf("store error reading event %s: %w", key, err)
		}

		var event pixel.Event
		if err := json.Unmarshal(data, &event); err != nil {
			r.logger.Warn("Skipping corrupt event document", zap.String("key", key), zap.Error(err))
			continue
		}
		events = append(events, &event)
	}
	return events, page.Complete, nil
}

// CountEvents counts event keys in one store page without loading the
// documents.
func (r *PixelRepository) CountEvents(ctx context.Context, id string, limit int) (int64, bool, error) {
	page, err := r.store.List(ctx, pixel.EventKeyPrefix(id), limit)
	if err != nil {
		return 0, false, fmt.Errorf("store error counting events for pixel %s: %w", id, err)
	}
	return int64(len(page.Keys)), page.Complete, nil
}

func (r *PixelRepository) ListPixelIDs(ctx context.Context, limit int) ([]string, bool, error) {
	page, err := r.store.List(ctx, pixel.MetaKeyPrefix, limit)
	if err != nil {
		return nil, false, fmt.Errorf("store error listing pixels: %w", err)
	}

	ids := make([]string, 0, len(page.Keys))
	for _, key := range page.Keys {
		if id := pixel.IDFromMetaKey(key); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, page.Complete, nil
}
