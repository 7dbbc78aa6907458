package config

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresURL(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.internal",
		DBPort:     "5432",
		DBUser:     "fintrack",
		DBPassword: "p@ss/w?rd#1",
		DBName:     "fintrack",
		DBSSLMode:  "disable",
	}

	raw := cfg.PostgresURL()
	u, err := url.Parse(raw)
	require.NoError(t, err, raw)

	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/fintrack", u.Path)
	assert.Equal(t, "fintrack", u.User.Username())
	password, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss/w?rd#1", password)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}
