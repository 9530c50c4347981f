package database

import (
	"path/filepath"
	"testing"

	"github.com/killallgit/parable-studio/internal/models"
	"github.com/killallgit/parable-studio/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		wantErr bool
	}{
		{
			name: "in-memory sqlite",
			cfg:  config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		},
		{
			name: "file sqlite creates directory",
			cfg:  config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "parables.db")},
		},
		{
			name: "empty path falls back to memory",
			cfg:  config.DatabaseConfig{Driver: "sqlite"},
		},
		{
			name:    "unsupported driver",
			cfg:     config.DatabaseConfig{Driver: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Initialize(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, conn)
			defer conn.Close()
			assert.NoError(t, conn.HealthCheck())
		})
	}
}

func TestInitialize_InMemoryUsesSingleConnection(t *testing.T) {
	conn, err := Initialize(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", MaxConnections: 20})
	require.NoError(t, err)
	defer conn.Close()

	sqlDB, err := conn.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDB_HealthCheck(t *testing.T) {
	tests := []struct {
		name      string
		setupConn func(t *testing.T) *DB
		wantErr   bool
	}{
		{
			name: "healthy connection",
			setupConn: func(t *testing.T) *DB {
				conn, err := OpenInMemory()
				require.NoError(t, err)
				t.Cleanup(func() { conn.Close() })
				return conn
			},
		},
		{
			name: "closed connection",
			setupConn: func(t *testing.T) *DB {
				conn, err := OpenInMemory()
				require.NoError(t, err)
				require.NoError(t, conn.Close())
				return conn
			},
			wantErr: true,
		},
		{
			name:      "nil connection",
			setupConn: func(t *testing.T) *DB { return nil },
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.setupConn(t).HealthCheck()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDB_Migrate(t *testing.T) {
	conn, err := OpenInMemory()
	require.NoError(t, err)
	defer conn.Close()

	for _, table := range []string{
		"parables", "tracks", "image_prompts", "generated_images",
		"video_fragments", "audio_files", "title_variants", "music_tracks", "jobs",
	} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}

	// Idempotent
	assert.NoError(t, conn.Migrate())
}

func TestDB_SceneUniqueness(t *testing.T) {
	conn, err := OpenInMemory()
	require.NoError(t, err)
	defer conn.Close()

	parable := models.Parable{TitleOriginal: "t", TextOriginal: "x"}
	require.NoError(t, conn.Create(&parable).Error)
	track := models.Track{ParableID: parable.ID, Language: models.LanguageOriginal}
	require.NoError(t, conn.Create(&track).Error)

	require.NoError(t, conn.Create(&models.ImagePrompt{TrackID: track.ID, SceneOrder: 0, PromptText: "a"}).Error)
	err = conn.Create(&models.ImagePrompt{TrackID: track.ID, SceneOrder: 0, PromptText: "b"}).Error
	assert.Error(t, err, "duplicate scene order must be rejected by the index")
}

func TestDB_Transaction(t *testing.T) {
	conn, err := OpenInMemory()
	require.NoError(t, err)
	defer conn.Close()

	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Parable{TitleOriginal: "rollback", TextOriginal: "x"}).Error; err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	assert.Error(t, err)

	var count int64
	conn.Model(&models.Parable{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
