package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntityTypesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entity_types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEntityTypes(t *testing.T) {
	path := writeEntityTypesFile(t, `entity_types:
  - name: contacts
    description: People at customer accounts
    fields:
      - email
      - phone
  - name: deals
`)

	cfg, err := LoadEntityTypes(path)
	require.NoError(t, err)

	require.Len(t, cfg.EntityTypes, 2)
	assert.Equal(t, []string{"contacts", "deals"}, cfg.Names())
	assert.Equal(t, []string{"email", "phone"}, cfg.EntityTypes[0].Fields)
}

func TestLoadEntityTypes_MissingFile(t *testing.T) {
	_, err := LoadEntityTypes(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadEntityTypes_Empty(t *testing.T) {
	path := writeEntityTypesFile(t, "entity_types: []\n")

	_, err := LoadEntityTypes(path)
	require.Error(t, err)
}

func TestLoadEntityTypes_UnnamedType(t *testing.T) {
	path := writeEntityTypesFile(t, `entity_types:
  - description: nameless
`)

	_, err := LoadEntityTypes(path)
	require.Error(t, err)
}

func TestLoadEntityTypes_DuplicateNames(t *testing.T) {
	path := writeEntityTypesFile(t, `entity_types:
  - name: contacts
  - name: contacts
`)

	_, err := LoadEntityTypes(path)
	require.Error(t, err)
}
