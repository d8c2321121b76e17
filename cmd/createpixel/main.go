package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/makkenzo/pixel-service-api/internal/config"
	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
	"github.com/makkenzo/pixel-service-api/internal/storage/kvrepo"
	"github.com/makkenzo/pixel-service-api/internal/storage/redis"
	"github.com/makkenzo/pixel-service-api/internal/util"
)

func main() {
	label := flag.String("label", "", "Human-readable label for the pixel")
	baseURL := flag.String("base-url", "http://localhost:8080", "Public base URL of the pixel service")
	flag.Parse()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Fatal("REDIS_ADDR environment variable is required")
	}

	id, err := util.GeneratePixelID()
	if err != nil {
		log.Fatalf("Failed to generate pixel id: %v", err)
	}
	token, tokenHash, err := util.GenerateReportToken()
	if err != nil {
		log.Fatalf("Failed to generate report token: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	client, err := redis.NewRedisClient(context.Background(), &config.RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	}, logger)
	if err != nil {
		log.Fatalf("Unable to connect to redis: %v", err)
	}
	defer client.Close()

	repo := kvrepo.NewPixelRepository(redis.NewKV(client, logger), logger)

	meta := &pixel.Meta{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Label:     *label,
		TokenHash: tokenHash,
	}

	if err := repo.SaveMeta(context.Background(), meta); err != nil {
		log.Fatalf("Failed to save pixel: %v", err)
	}

	fmt.Printf("Pixel created (SAVE THE TOKEN, it is shown only once!):\n\n")
	fmt.Printf("ID:         %s\n", id)
	fmt.Printf("Token:      %s\n", token)
	fmt.Printf("Pixel URL:  %s/p/%s.gif\n", *baseURL, id)
	fmt.Printf("Report URL: %s/api/v1/pixels/%s/report?token=%s\n", *baseURL, id, token)
}
