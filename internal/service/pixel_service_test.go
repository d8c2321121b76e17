package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/makkenzo/pixel-service-api/internal/handler/dto"
	"github.com/makkenzo/pixel-service-api/internal/storage/kvrepo"
	"github.com/makkenzo/pixel-service-api/internal/storage/memstore"
	"github.com/makkenzo/pixel-service-api/internal/util"
)

func TestCreatePixel(t *testing.T) {
	ctx := context.Background()
	repo := kvrepo.NewPixelRepository(memstore.New(), zap.NewNop())
	svc := NewPixelService(repo, "https://px.example.com/", zap.NewNop())

	resp, err := svc.CreatePixel(ctx, &dto.CreatePixelRequest{
		Label:    "newsletter",
		Metadata: map[string]string{"campaign": "spring"},
	})
	require.NoError(t, err)

	assert.Len(t, resp.ID, 16)
	assert.Len(t, resp.Token, 64)
	assert.Equal(t, "https://px.example.com/p/"+resp.ID+".gif", resp.PixelURL)
	assert.True(t, strings.HasPrefix(resp.EventsURL, "https://px.example.com/api/v1/pixels/"+resp.ID+"/report?token="))
	assert.False(t, resp.CreatedAt.IsZero())

	meta, err := repo.FindMeta(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "newsletter", meta.Label)
	assert.Equal(t, map[string]string{"campaign": "spring"}, meta.Metadata)
	assert.EqualValues(t, 0, meta.OpenCount)
	assert.Nil(t, meta.LastOpenedAt)

	assert.Equal(t, util.HashToken(resp.Token), meta.TokenHash, "stored hash must match the returned token")
	assert.NotEqual(t, resp.Token, meta.TokenHash, "raw token must never be persisted")
}

func TestCreatePixelDistinctIdentities(t *testing.T) {
	ctx := context.Background()
	repo := kvrepo.NewPixelRepository(memstore.New(), zap.NewNop())
	svc := NewPixelService(repo, "http://localhost:8080", zap.NewNop())

	first, err := svc.CreatePixel(ctx, &dto.CreatePixelRequest{})
	require.NoError(t, err)
	second, err := svc.CreatePixel(ctx, &dto.CreatePixelRequest{})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = repo.FindMeta(ctx, first.ID)
	assert.NoError(t, err, "creating a second pixel must not disturb the first")
}

func TestCreatePixelEmptyRequest(t *testing.T) {
	ctx := context.Background()
	repo := kvrepo.NewPixelRepository(memstore.New(), zap.NewNop())
	svc := NewPixelService(repo, "http://localhost:8080", zap.NewNop())

	resp, err := svc.CreatePixel(ctx, &dto.CreatePixelRequest{})
	require.NoError(t, err)

	meta, err := repo.FindMeta(ctx, resp.ID)
	require.NoError(t, err)
	assert.Empty(t, meta.Label)
	assert.Empty(t, meta.Metadata)
}
