package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/pairs-api/pkg/config"
)

func TestPostgresDSN(t *testing.T) {
	t.Run("discrete fields", func(t *testing.T) {
		dsn := PostgresDSN(config.DatabaseConfig{
			Host:           "db",
			Port:           5432,
			User:           "pairs",
			Password:       "it's secret",
			Name:           "pairs",
			SSLMode:        "disable",
			ConnectTimeout: 3 * time.Second,
		})
		assert.Equal(t, `host=db port=5432 user=pairs password='it\'s secret' dbname=pairs sslmode=disable connect_timeout=3`, dsn)
	})

	t.Run("url wins", func(t *testing.T) {
		dsn := PostgresDSN(config.DatabaseConfig{URL: " postgres://pairs@db/pairs ", Host: "ignored"})
		assert.Equal(t, "postgres://pairs@db/pairs", dsn)
	})

	t.Run("empty values are quoted", func(t *testing.T) {
		dsn := PostgresDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "pairs", Name: "pairs", SSLMode: "disable"})
		assert.Contains(t, dsn, "password=''")
		assert.NotContains(t, dsn, "connect_timeout")
	})
}
