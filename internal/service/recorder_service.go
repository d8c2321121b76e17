package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/makkenzo/pixel-service-api/internal/anonymize"
	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
	"github.com/makkenzo/pixel-service-api/internal/metrics"
	"go.uber.org/zap"
)

type RecorderService struct {
	repo   pixel.Repository
	logger *zap.Logger
}

func NewRecorderService(repo pixel.Repository, logger *zap.Logger) *RecorderService {
	return &RecorderService{
		repo:   repo,
		logger: logger.Named("RecorderService"),
	}
}

// RecordOpen persists one anonymized open event and bumps the pixel's
// counter. Opens of unknown pixels are silently dropped: the tracking
// endpoint must not reveal whether an id exists.
//
// The event write and the counter update are two separate store writes
// with no transaction between them. The event is authoritative; a failed
// counter update is logged and tolerated, the periodic recount realigns it
// later.
func (s *RecorderService) RecordOpen(ctx context.Context, id string, open *pixel.OpenContext) error {
	meta, err := s.repo.FindMeta(ctx, id)
	if err != nil {
		if errors.Is(err, pixel.ErrNotFound) {
			s.logger.Debug("Open for unknown pixel, dropping", zap.String("pixel_id", id))
			metrics.OpensObserved.WithLabelValues(metrics.OutcomeUnknownPixel).Inc()
			return nil
		}
		metrics.OpensObserved.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("load pixel meta for open: %w", err)
	}

	event := s.buildEvent(time.Now().UTC(), open)

	if err := s.repo.AppendEvent(ctx, id, event); err != nil {
		metrics.OpensObserved.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("persist open event: %w", err)
	}

	meta.OpenCount++
	meta.LastOpenedAt = &event.Timestamp
	if err := s.repo.SaveMeta(ctx, meta); err != nil {
		s.logger.Warn("Event stored but counter update failed",
			zap.String("pixel_id", id),
			zap.Error(err),
		)
	}

	metrics.OpensObserved.WithLabelValues(metrics.OutcomeRecorded).Inc()
	return nil
}

func (s *RecorderService) buildEvent(ts time.Time, open *pixel.OpenContext) *pixel.Event {
	return &pixel.Event{
		Timestamp:    ts,
		AnonymizedIP: anonymize.IP(open.ClientIP),
		UserAgent:    anonymize.Truncate(open.UserAgent, anonymize.MaxUserAgentLen),
		Referer:      anonymize.Truncate(open.Referer, anonymize.MaxRefererLen),
		Language:     anonymize.Truncate(open.Language, anonymize.MaxLanguageLen),
		Geo:          anonymize.SanitizeGeo(open.Geo),
	}
}
