package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/makkenzo/pixel-service-api/internal/domain/pixel"
)

func generateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// RandomHex returns 2n lowercase hex characters built from n random bytes.
func RandomHex(n int) (string, error) {
	b, err := generateRandomBytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GeneratePixelID mints a new pixel identifier.
func GeneratePixelID() (string, error) {
	id, err := RandomHex(pixel.IDByteLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate pixel id: %w", err)
	}
	return id, nil
}

// GenerateReportToken mints a report token together with its SHA-256 hash.
// Only the hash is ever persisted.
func GenerateReportToken() (token string, tokenHash string, err error) {
	token, err = RandomHex(pixel.TokenByteLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate report token: %w", err)
	}
	return token, HashToken(token), nil
}

// HashToken hashes a report token for storage or comparison.
func HashToken(token string) string {
	hashBytes := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", hashBytes)
}
