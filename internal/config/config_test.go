package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 3, cfg.Backend.RetryMax)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.Enabled)
}

func TestValidateRejectsMissingBackendURL(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Backend.BaseURL = ""
	assert.Error(t, cfg.Validate())
}
