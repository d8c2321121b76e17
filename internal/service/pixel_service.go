package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
	"github.com/makkenzo/pixel-service-api/internal/handler/dto"
	"github.com/makkenzo/pixel-service-api/internal/ierr"
	"github.com/makkenzo/pixel-service-api/internal/util"
	"go.uber.org/zap"
)

type PixelService struct {
	repo      pixel.Repository
	publicURL string
	logger    *zap.Logger
}

func NewPixelService(repo pixel.Repository, publicURL string, logger *zap.Logger) *PixelService {
	return &PixelService{
		repo:      repo,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger.Named("PixelService"),
	}
}

// CreatePixel mints a new pixel and returns the response carrying the raw
// report token. The token is not retained anywhere; only its hash goes
// into the metadata document.
func (s *PixelService) CreatePixel(ctx context.Context, req *dto.CreatePixelRequest) (*dto.CreatePixelResponse, error) {
	id, err := util.GeneratePixelID()
	if err != nil {
		s.logger.Error("Failed to generate pixel id", zap.Error(err))
		return nil, fmt.Errorf("%w: failed generating pixel id: %v", ierr.ErrInternalServer, err)
	}

	token, tokenHash, err := util.GenerateReportToken()
	if err != nil {
		s.logger.Error("Failed to generate report token", zap.Error(err))
		return nil, fmt.Errorf("%w: failed generating report token: %v", ierr.ErrInternalServer, err)
	}

	now := time.Now().UTC()
	meta := &pixel.Meta{
		ID:        id,
		CreatedAt: now,
		Label:     req.Label,
		Metadata:  req.Metadata,
		TokenHash: tokenHash,
	}

	if err := s.repo.SaveMeta(ctx, meta); err != nil {
		s.logger.Error("Failed to save new pixel", zap.String("pixel_id", id), zap.Error(err))
		return nil, fmt.Errorf("repository error creating pixel: %w", err)
	}

	s.logger.Info("Pixel created", zap.String("pixel_id", id), zap.String("label", req.Label))

	return &dto.CreatePixelResponse{
		ID:        id,
		PixelURL:  fmt.Sprintf("%s/p/%s.gif", s.publicURL, id),
		EventsURL: fmt.Sprintf("%s/api/v1/pixels/%s/report?token=%s", s.publicURL, id, token),
		Token:     token,
		CreatedAt: now,
	}, nil
}
