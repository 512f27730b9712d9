package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductionConfig() *Config {
	return &Config{
		JWTSecret:  strings.Repeat("s", 32),
		Port:       "8460",
		DBHost:     "db.internal",
		DBPort:     "5432",
		DBUser:     "pawhome",
		DBPassword: "a-strong-password",
		DBName:     "pawhome",
		DBSSLMode:  "require",
		Env:        "production",
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	cfg := &Config{JWTSecret: "secret"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Port: "8460"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Port: "8460", JWTSecret: "secret"}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ProductionRejectsDefaults(t *testing.T) {
	cfg := validProductionConfig()
	require.NoError(t, cfg.Validate())

	cfg = validProductionConfig()
	cfg.JWTSecret = "your-secret-key-change-in-production"
	assert.Error(t, cfg.Validate())

	cfg = validProductionConfig()
	cfg.JWTSecret = "short"
	assert.Error(t, cfg.Validate())

	cfg = validProductionConfig()
	cfg.DBPassword = "password"
	assert.Error(t, cfg.Validate())

	cfg = validProductionConfig()
	cfg.DBPassword = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_DevelopmentIsLenient(t *testing.T) {
	cfg := &Config{
		JWTSecret: "short-dev-secret",
		Port:      "8460",
		Env:       "development",
	}
	assert.NoError(t, cfg.Validate())
}
