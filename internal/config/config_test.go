package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validViper() *viper.Viper {
	v := viper.New()
	v.Set("server.name", "entitysync")
	v.Set("storage.backend", "memory")
	v.Set("provider.mode", "static")
	v.Set("embedding.dimensions", 768)
	return v
}

func TestNew(t *testing.T) {
	cfg := New(validViper())

	assert.Equal(t, "entitysync", cfg.Server.Name)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
}

func TestNew_PanicsOnInvalid(t *testing.T) {
	v := validViper()
	v.Set("storage.backend", "cassandra")

	assert.Panics(t, func() { New(v) })
}

func TestValidate_PostgresRequirements(t *testing.T) {
	cfg := New(validViper())
	cfg.Storage.Backend = "postgres"

	require.Error(t, cfg.Validate())

	cfg.Database.User = "entitysync"
	cfg.Database.Name = "entitysync"
	cfg.Database.Port = 5432
	require.NoError(t, cfg.Validate())

	cfg.Database.Port = 0
	require.Error(t, cfg.Validate())
}

func TestValidate_RestProviderRequiresBaseURL(t *testing.T) {
	cfg := New(validViper())
	cfg.Provider.Mode = "rest"

	require.Error(t, cfg.Validate())

	cfg.Provider.BaseURL = "https://crm.example.com/api"
	require.NoError(t, cfg.Validate())
}

func TestValidate_NATSRequiresURL(t *testing.T) {
	cfg := New(validViper())
	cfg.NATS.Enabled = true

	require.Error(t, cfg.Validate())

	cfg.NATS.URL = "nats://localhost:4222"
	require.NoError(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "app",
		Password: "secret", Name: "entitysync", SSLMode: "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=app password=secret dbname=entitysync sslmode=disable",
		d.DSN())
}
