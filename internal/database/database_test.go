package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xelth-com/eckdocs/internal/config"
)

func TestIsEmbedded(t *testing.T) {
	assert.True(t, IsEmbedded(config.DatabaseConfig{Host: "localhost"}))
	assert.False(t, IsEmbedded(config.DatabaseConfig{Host: "localhost", Password: "secret"}))
	assert.False(t, IsEmbedded(config.DatabaseConfig{Host: "db.internal"}))
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: "5432", Username: "app", Password: "pw", Database: "eckdocs"})
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=eckdocs sslmode=disable", dsn)
}

func TestDefaultTemplateIndexIsPartialAndScoped(t *testing.T) {
	var stmt string
	for _, s := range indexes {
		if strings.Contains(s, "ux_document_templates_default") {
			stmt = s
		}
	}
	assert.Contains(t, stmt, "CREATE UNIQUE INDEX")
	assert.Contains(t, stmt, "COALESCE(business_id,")
	assert.Contains(t, stmt, "WHERE is_default AND deleted_at IS NULL")
}
