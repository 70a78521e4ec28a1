package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24, cfg.JWT.ExpireHours)
	assert.Equal(t, 10, cfg.Rewards.RequestTimeoutSec)
	assert.NotEmpty(t, cfg.Database.DSN())
}

func TestDSNFromComponents(t *testing.T) {
	db := DatabaseConfig{
		Host: "db.internal", Port: "5433",
		User: "app", Password: "pw", DBName: "tycoon", SSLMode: "require",
	}
	assert.Equal(t, "postgres://app:pw@db.internal:5433/tycoon?sslmode=require", db.DSN())

	db.URL = "postgres://elsewhere/x"
	assert.Equal(t, "postgres://elsewhere/x", db.DSN(), "explicit URL wins")
}
