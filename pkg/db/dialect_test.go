package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect(t *testing.T) {
	for _, typ := range []string{"postgres", "mysql", "sqlite", ""} {
		d, err := Dialect(Config{Type: typ, Name: "internlink"})
		require.NoError(t, err, typ)
		assert.NotNil(t, d)
	}

	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestPostgresURL(t *testing.T) {
	cfg := Config{User: "u", Password: "p", Host: "db", Port: "5432", Name: "internlink", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/internlink?sslmode=disable", PostgresURL(cfg))
}
