package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/docchat")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "gemini-1.5-flash", cfg.GenModel)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 20, cfg.MaxUploadMB)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes())
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.ObjectStorageEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:chats.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")
	t.Setenv("AWS_ACCESS_KEY", "ak")
	t.Setenv("AWS_SECRET_KEY", "sk")
	t.Setenv("BUCKET_NAME", "docs")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CorsOrigins)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 20, cfg.MaxUploadMB)
	assert.True(t, cfg.ObjectStorageEnabled())
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/docchat")
	t.Setenv("JWT_SECRET", "")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("GEMINI_API_KEY", "")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}
