package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add reorder level", "add_reorder_level"},
		{"Add-Ledger-Index", "add_ledger_index"},
		{"add__gst__column", "add_gst_column"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestListMigrations(t *testing.T) {
	t.Run("groups pairs and orders by version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"000002_create_sales.up.sql":     {},
			"000002_create_sales.down.sql":   {},
			"000001_create_inventory.up.sql": {},
			"000010_add_index.up.sql":        {},
			"README.md":                      {},
			"embed.go":                       {},
			"notes.sql":                      {},
			"abc_bad_version.up.sql":         {},
			"archive/000003_old.up.sql":      {},
		}

		got, err := ListMigrations(fsys)
		require.NoError(t, err)
		assert.Equal(t, []MigrationInfo{
			{Version: 1, Name: "create_inventory"},
			{Version: 2, Name: "create_sales", HasDown: true},
			{Version: 10, Name: "add_index"},
		}, got)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("embedded schema is complete", func(t *testing.T) {
		got, err := ListMigrations(migrations.FS)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i, m := range got {
			assert.Equal(t, uint(i+1), m.Version)
			assert.True(t, m.HasDown, "%s has no down migration", m.FileBase())
		}
		assert.Equal(t, "000001_create_inventory", got[0].FileBase())
	})
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "Add reorder level", "")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_reorder_level.up.sql"), first.UpPath)
	assert.FileExists(t, first.DownPath)

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- add reorder level")

	second, err := CreateMigration(dir, "index ledger by batch", "Speed up batch history")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	listed, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}
