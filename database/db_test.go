package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-assistant/config"
	"order-assistant/logger"
	"order-assistant/models"
)

func TestConnectAndMigrate_SQLite(t *testing.T) {
	log := logger.Discard()
	db, err := Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "orders.db"),
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db, log) })

	require.NoError(t, AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable(&models.Session{}))
	assert.True(t, db.Migrator().HasTable(&models.IdempotencyKey{}))

	// idempotent
	require.NoError(t, AutoMigrate(db))
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"}, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
