package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("NUMBERING_SEQUENCE_SCOPE", "")
	t.Setenv("IMAGE_FETCH_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "doc-templates", cfg.Storage.TemplatesContainer)
	assert.Equal(t, "doc-previews", cfg.Storage.PreviewsContainer)
	assert.Equal(t, "document-signatures", cfg.Storage.SignaturesContainer)
	assert.Equal(t, 5*time.Second, cfg.Storage.ImageFetchTimeout)
	assert.Equal(t, "continuous", cfg.Documents.SequenceScope)
	assert.True(t, cfg.Documents.NormalizeTemplateRuns)
}

func TestLoadRejectsS3WithoutBucket(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "7")
	assert.Equal(t, 7*time.Second, getDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "250ms")
	assert.Equal(t, 250*time.Millisecond, getDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getDuration("X_TIMEOUT", time.Second))
}
