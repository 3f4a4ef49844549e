package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		parseOrigins(" https://a.example, ,https://b.example "))
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("MAX_IMAGE_KB", "not-a-number")
	t.Setenv("PUBLIC_BASE_URL", "https://cdn.example/")

	cfg := Load()

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, int64(1000*1024), cfg.MaxImageBytes)
	assert.Equal(t, "https://cdn.example", cfg.PublicBaseURL)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
}
