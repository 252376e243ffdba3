package repositories

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/lucsky/cuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"visca-bridge/internal/database/models"
)

// setupTestDB creates an in-memory SQLite database for testing repositories.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Setting{}))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSettingRepository_CRUD(t *testing.T) {
	repo := NewSettingRepository(setupTestDB(t))
	ctx := context.Background()

	key := "test_key_" + cuid.Slug()

	found, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, found)

	created, err := repo.Upsert(ctx, key, "first")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, key, created.Key)
	assert.Equal(t, "first", created.Value)

	updated, err := repo.Upsert(ctx, key, "second")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "upsert keeps the row")
	assert.Equal(t, "second", updated.Value)

	found, err = repo.FindByKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "second", found.Value)

	require.NoError(t, repo.Delete(ctx, key))
	found, err = repo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSettingRepository_FindAllOrdered(t *testing.T) {
	repo := NewSettingRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, models.SettingMQTTServer, "10.0.0.2")
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, models.SettingMQTTPort, "1884")
	require.NoError(t, err)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.SettingMQTTPort, all[0].Key)
	assert.Equal(t, models.SettingMQTTServer, all[1].Key)
}

func TestSettingRepository_Value(t *testing.T) {
	repo := NewSettingRepository(setupTestDB(t))
	ctx := context.Background()

	v, err := repo.Value(ctx, models.SettingMQTTServer, "192.168.2.11")
	require.NoError(t, err)
	assert.Equal(t, "192.168.2.11", v)

	_, err = repo.Upsert(ctx, models.SettingMQTTServer, "broker.local")
	require.NoError(t, err)

	v, err = repo.Value(ctx, models.SettingMQTTServer, "192.168.2.11")
	require.NoError(t, err)
	assert.Equal(t, "broker.local", v)

	_, err = repo.Upsert(ctx, models.SettingMQTTServer, "")
	require.NoError(t, err)
	v, err = repo.Value(ctx, models.SettingMQTTServer, "192.168.2.11")
	require.NoError(t, err)
	assert.Equal(t, "192.168.2.11", v, "empty value falls back")
}
