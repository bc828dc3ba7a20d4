package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add sync runs table", "add_sync_runs_table"},
		{"Add-Sync-Runs", "add_sync_runs"},
		{"ADD_SYNC_RUNS", "add_sync_runs"},
		{"add__sync__runs", "add_sync_runs"},
		{"Add Runs 123", "add_runs_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

	mf, err := createMigrationAt(dir, "add sync run index", "Index runs by status", now)
	require.NoError(t, err)

	assert.Equal(t, "20260301090500", mf.Version)
	assert.Equal(t, "add_sync_run_index", mf.Name)
	assert.Equal(t, filepath.Join(dir, "20260301090500_add_sync_run_index.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20260301090500_add_sync_run_index.down.sql"), mf.DownPath)

	upContent, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "-- Migration: add_sync_run_index")
	assert.Contains(t, string(upContent), "Index runs by status")

	downContent, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "(Rollback)")
}

func TestCreateMigration_CurrentTimeVersion(t *testing.T) {
	mf, err := CreateMigration(t.TempDir(), "test", "")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, ".up.sql"))
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nestedPath, "test", "test migration")
	require.NoError(t, err)

	info, err := os.Stat(nestedPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_InvalidName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.ErrorContains(t, err, "invalid migration name")
}

func TestCreateMigration_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

	_, err := createMigrationAt(dir, "same", "", now)
	require.NoError(t, err)

	_, err = createMigrationAt(dir, "same", "", now)
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"20260301090200_third.up.sql":   {Data: []byte("-- test")},
		"20260301090200_third.down.sql": {Data: []byte("-- test")},
		"20260301090000_first.up.sql":   {Data: []byte("-- test")},
		"20260301090000_first.down.sql": {Data: []byte("-- test")},
		"20260301090100_second.up.sql":  {Data: []byte("-- test")},
		"README.md":                     {Data: []byte("docs")},
		"noversion.up.sql":              {Data: []byte("-- test")},
		"subdir.up.sql/inner.sql":       {Data: []byte("-- test")},
	}

	migrations, err := ListMigrations(fsys)
	require.NoError(t, err)

	require.Len(t, migrations, 3)
	assert.Equal(t, MigrationInfo{Version: "20260301090000", Name: "first", HasDown: true}, migrations[0])
	assert.Equal(t, MigrationInfo{Version: "20260301090100", Name: "second", HasDown: false}, migrations[1])
	assert.Equal(t, "20260301090200_third", migrations[2].BaseName())
}

func TestListMigrations_EmptyDirectory(t *testing.T) {
	migrations, err := ListMigrations(os.DirFS(t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	migrations, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := ListMigrations(EmbeddedMigrations())
	require.NoError(t, err)

	names := make([]string, 0, len(migrations))
	for _, m := range migrations {
		assert.True(t, m.HasDown, "missing down migration for %s", m.BaseName())
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		"create_pos_sales_channels",
		"create_catalog_products",
		"create_pos_sales_channel_inventory",
		"create_pos_inventory_sync_runs",
	}, names)
}
