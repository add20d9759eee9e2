package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_PORT", "STORAGE_DRIVER", "REDIS_ENABLED", "RACE_DEFAULT_MAX_PLAYERS",
		"RACE_MAX_PLAYERS_LIMIT", "RACE_MONOTONIC_PROGRESS", "USERS_OPEN", "MODE",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 4, cfg.Race.DefaultMaxPlayers)
	assert.Equal(t, 16, cfg.Race.MaxPlayersLimit)
	assert.False(t, cfg.Race.MonotonicProgress)
	assert.True(t, cfg.Users.Open)
	assert.Equal(t, ModeRW, cfg.Mode)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/race.db")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("RACE_DEFAULT_MAX_PLAYERS", "6")
	t.Setenv("RACE_MONOTONIC_PROGRESS", "1")
	t.Setenv("MODE", "ro")

	cfg := FromEnv()

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/race.db", cfg.Storage.SQLitePath)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 6, cfg.Race.DefaultMaxPlayers)
	assert.True(t, cfg.Race.MonotonicProgress)
	assert.Equal(t, ModeRO, cfg.Mode)
}

func TestFromEnv_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("RACE_MAX_PLAYERS_LIMIT", "lots")
	t.Setenv("USERS_OPEN", "maybe")

	cfg := FromEnv()

	assert.Equal(t, 16, cfg.Race.MaxPlayersLimit)
	assert.True(t, cfg.Users.Open)
}

func TestRedacted(t *testing.T) {
	cfg := Config{
		Postgres: Postgres{Password: "secret"},
		Redis:    RedisCache{Password: "secret"},
	}

	r := cfg.redacted()

	assert.Equal(t, "***", r.Postgres.Password)
	assert.Equal(t, "***", r.Redis.Password)
	assert.Equal(t, "secret", cfg.Postgres.Password)
}
