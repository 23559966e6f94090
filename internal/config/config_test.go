package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMustLoadPath_Defaults(t *testing.T) {
	path := writeConfig(t, `
dsn: postgres://u:p@localhost:5432/portfolio
auth:
  jwt_secret: secret
`)

	cfg := MustLoadPath(path)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 2500, cfg.Images.WebMaxWidth)
	assert.Equal(t, 85, cfg.Images.WebPQuality)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.ClientGallery.AccessTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.VocabularyTTL)
	assert.False(t, cfg.S3.Enabled())
}

func TestMustLoadPath_S3(t *testing.T) {
	path := writeConfig(t, `
env: prod
dsn: postgres://u:p@db:5432/portfolio
auth:
  jwt_secret: secret
s3:
  bucket: portfolio-media
  cdn_url: https://cdn.example.com
`)

	cfg := MustLoadPath(path)

	assert.Equal(t, "prod", cfg.Env)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, "https://cdn.example.com", cfg.S3.CDNURL)
	assert.True(t, cfg.S3.PathStyle)
}

func TestMustLoadPath_MissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadPath(filepath.Join(t.TempDir(), "absent.yaml"))
	})
}
