package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"

	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
	"github.com/makkenzo/pixel-service-api/internal/ierr"
	"github.com/makkenzo/pixel-service-api/internal/util"
	"go.uber.org/zap"
)

type ReportService struct {
	repo           pixel.Repository
	eventPageLimit int
	logger         *zap.Logger
}

func NewReportService(repo pixel.Repository, eventPageLimit int, logger *zap.Logger) *ReportService {
	return &ReportService{
		repo:           repo,
		eventPageLimit: eventPageLimit,
		logger:         logger.Named("ReportService"),
	}
}

// Report is an authorized view of one pixel: its metadata plus the events
// of a single store page in chronological order. Complete is false when
// the pixel has more events than one page holds.
type Report struct {
	Meta     *pixel.Meta
	Events   []*pixel.Event
	Complete bool
}

// BuildReport authenticates the caller and assembles the report. A missing
// token is rejected before the pixel is even looked up, so the 401 does
// not leak whether the id exists; a present token against an unknown id
// yields 404.
func (s *ReportService) BuildReport(ctx context.Context, id string, token string) (*Report, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: report token required", ierr.ErrUnauthorized)
	}

	meta, err := s.repo.FindMeta(ctx, id)
	if err != nil {
		if errors.Is(err, pixel.ErrNotFound) {
			return nil, fmt.Errorf("%w: pixel %s", ierr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("load pixel meta for report: %w", err)
	}

	providedHash := util.HashToken(token)
	if subtle.ConstantTimeCompare([]byte(providedHash), []byte(meta.TokenHash)) != 1 {
		s.logger.Warn("Report token mismatch", zap.String("pixel_id", id))
		return nil, fmt.Errorf("%w: report token mismatch", ierr.ErrInvalidToken)
	}

	events, complete, err := s.repo.ListEvents(ctx, id, s.eventPageLimit)
	if err != nil {
		return nil, fmt.Errorf("list pixel events: %w", err)
	}

	// Store pages are ordered by key; re-sort by the embedded timestamp in
	// case clock skew between writers bent the key order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	if !complete {
		s.logger.Warn("Event listing truncated at page limit",
			zap.String("pixel_id", id),
			zap.Int("limit", s.eventPageLimit),
		)
	}

	return &Report{Meta: meta, Events: events, Complete: complete}, nil
}
