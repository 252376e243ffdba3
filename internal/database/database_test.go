package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visca-bridge/internal/database/models"
)

func TestConnect_CreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bridge.db")

	db, err := Connect(Config{URL: "file:" + path})
	require.NoError(t, err)
	defer Close(db)

	assert.FileExists(t, path)
	assert.True(t, db.Migrator().HasTable(&models.Setting{}))
}

func TestConnect_Memory(t *testing.T) {
	db, err := Connect(Config{URL: ":memory:", Debug: true})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Create(&models.Setting{ID: "a", Key: "k", Value: "v"}).Error)

	var count int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
