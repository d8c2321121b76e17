package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/pixel-service-api/internal/config"
	"github.com/makkenzo/pixel-service-api/internal/ierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyHeader = "X-API-Key"

// CreationSecretMiddleware guards pixel creation with the shared server
// secret. The secret is configured either raw (compared via SHA-256
// digests in constant time) or as a bcrypt hash, in which case the raw
// value never has to live in configuration. With neither set, creation is
// unusable and reports a server-side misconfiguration.
func CreationSecretMiddleware(cfg *config.CreationConfig, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("CreationSecretMiddleware")
	return func(c *gin.Context) {
		if cfg.Secret == "" && cfg.SecretHash == "" {
			log.Error("Creation secret is not configured")
			_ = c.Error(fmt.Errorf("%w: creation secret not set", ierr.ErrMisconfigured))
			c.Abort()
			return
		}

		provided := c.GetHeader(apiKeyHeader)
		if provided == "" {
			_ = c.Error(fmt.Errorf("%w: missing %s header", ierr.ErrUnauthorized, apiKeyHeader))
			c.Abort()
			return
		}

		if !secretMatches(cfg, provided) {
			log.Warn("Creation secret mismatch", zap.String("client_ip", c.ClientIP()))
			_ = c.Error(fmt.Errorf("%w: creation secret mismatch", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		c.Next()
	}
}

func secretMatches(cfg *config.CreationConfig, provided string) bool {
	if cfg.SecretHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.SecretHash), []byte(provided)) == nil
	}

	providedSum := sha256.Sum256([]byte(provided))
	configuredSum := sha256.Sum256([]byte(cfg.Secret))
	return subtle.ConstantTimeCompare(providedSum[:], configuredSum[:]) == 1
}
