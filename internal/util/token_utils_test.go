package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePixelID(t *testing.T) {
	id, err := GeneratePixelID()
	require.NoError(t, err)
	assert.Len(t, id, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", id)

	other, err := GeneratePixelID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestGenerateReportToken(t *testing.T) {
	token, tokenHash, err := GenerateReportToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", token)
	assert.Len(t, tokenHash, 64)
	assert.Equal(t, HashToken(token), tokenHash)
	assert.NotEqual(t, token, tokenHash)
}

func TestHashTokenDeterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}

func TestRandomHexLength(t *testing.T) {
	s, err := RandomHex(4)
	require.NoError(t, err)
	assert.Len(t, s, 8)
}
