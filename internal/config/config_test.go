package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setStorageEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BUCKET_NAME", "employee-images")
	t.Setenv("BUCKET_REGION", "us-east-1")
	t.Setenv("STORAGE_ACCESS_KEY", "key")
	t.Setenv("STORAGE_SECRET_ACCESS_KEY", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setStorageEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "employee-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLTTL())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_MissingStorageConfigFailsFast(t *testing.T) {
	t.Setenv("BUCKET_NAME", "employee-images")
	t.Setenv("BUCKET_REGION", "")
	t.Setenv("STORAGE_ACCESS_KEY", "key")
	t.Setenv("STORAGE_SECRET_ACCESS_KEY", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUCKET_REGION")
}

func TestStorageConfigValidate(t *testing.T) {
	cfg := StorageConfig{Bucket: "b", Region: "r", AccessKeyID: "a", SecretAccessKey: "s"}
	require.NoError(t, cfg.Validate())

	cfg.SecretAccessKey = ""
	require.Error(t, cfg.Validate())
}

func TestSignedURLTTL_Override(t *testing.T) {
	cfg := StorageConfig{SignedURLTTLSecs: 120}
	assert.Equal(t, 2*time.Minute, cfg.SignedURLTTL())

	cfg.SignedURLTTLSecs = 0
	assert.Equal(t, time.Hour, cfg.SignedURLTTL())
}
