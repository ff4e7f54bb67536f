package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jhakala/libris/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	path := env.Path("subdir", "file.txt")
	assert.True(t, filepath.IsAbs(path))
	assert.Contains(t, path, "subdir")
	assert.Contains(t, path, "file.txt")

	// The sandbox root itself is a valid path
	assert.Equal(t, filepath.Clean(env.RootDir()), env.Path())
}

func TestTestEnv_WriteAndReadFile(t *testing.T) {
	env := NewTestEnv(t)

	content := []byte("hello world")
	env.WriteFile("nested/dir/test.txt", content)

	assert.Equal(t, content, env.ReadFile("nested/dir/test.txt"))
}

func TestTestEnv_WriteFileString(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("test.txt", "string content")
	assert.Equal(t, "string content", string(env.ReadFile("test.txt")))
}

func TestTestEnv_MkdirAll(t *testing.T) {
	env := NewTestEnv(t)

	env.MkdirAll("a/b/c")
	assert.DirExists(t, env.Path("a/b/c"))
}

func TestTestEnv_FileExists(t *testing.T) {
	env := NewTestEnv(t)

	assert.False(t, env.FileExists("missing.txt"))

	env.WriteFileString("present.txt", "x")
	assert.True(t, env.FileExists("present.txt"))
	env.RequireFileExists("present.txt")
}

// GoldenHelper tests

func TestGoldenHelper_AssertGolden(t *testing.T) {
	env := NewTestEnv(t)

	goldenDir := env.Path("golden")
	env.WriteFileString("golden/test.golden", "expected content")

	golden := NewGoldenHelper(t, goldenDir)
	golden.AssertGolden("test.golden", []byte("expected content"))
}

func TestGoldenHelper_AssertGoldenJSON(t *testing.T) {
	env := NewTestEnv(t)

	goldenDir := env.Path("golden")
	env.WriteFileString("golden/test.golden", `{"title": "Dune", "isbn": "9780441013593"}`)

	golden := NewGoldenHelper(t, goldenDir)

	// Key order and whitespace do not matter for JSON comparison
	golden.AssertGoldenJSON("test.golden", []byte(`{"isbn":"9780441013593","title":"Dune"}`))
}

func TestGoldenHelper_GoldenPath(t *testing.T) {
	golden := NewGoldenHelper(t, "/some/golden/dir")

	assert.Equal(t, "/some/golden/dir/test.golden", golden.GoldenPath("test.golden"))
}

// Config management tests

func TestResetConfig(t *testing.T) {
	// Save current state
	origDBFile := config.CatalogDBFile
	origDataDir := config.DataDir

	t.Run("inner", func(t *testing.T) {
		ResetConfig(t)

		// Modify config
		config.CatalogDBFile = "/tmp/other.db"
		config.DataDir = "/tmp/other-data"

		// Verify modified
		assert.NotEqual(t, origDBFile, config.CatalogDBFile)
		assert.NotEqual(t, origDataDir, config.DataDir)
	})

	// After inner test, config should be restored
	assert.Equal(t, origDBFile, config.CatalogDBFile)
	assert.Equal(t, origDataDir, config.DataDir)
}

func TestSetTestConfig(t *testing.T) {
	origGeminiKey := config.GeminiAPIKey

	t.Run("inner", func(t *testing.T) {
		SetTestConfig(t)

		// Verify test defaults are set
		assert.Equal(t, "./books.db", config.CatalogDBFile)
		assert.Equal(t, "./data/isbn_response", config.DataDir)
		assert.Equal(t, "test-gemini-key", config.GeminiAPIKey)
		assert.Equal(t, "gemini-1.5-flash", config.GeminiModel)
	})

	// After inner test, config should be restored
	assert.Equal(t, origGeminiKey, config.GeminiAPIKey)
}

func TestSetViperValue(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Run("inner", func(t *testing.T) {
		SetViperValue(t, "test.key", "test-value")
		assert.Equal(t, "test-value", viper.GetString("test.key"))
	})
}

func TestSetupTestCache(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	env := NewTestEnv(t)
	cacheDir := SetupTestCache(t, env)

	assert.DirExists(t, cacheDir)
	assert.Contains(t, viper.GetString("cache.dbfile"), "test-cache.db")
	assert.Equal(t, "24h", viper.GetString("cache.ttl"))
}

func TestSetupCatalogDB(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	env := NewTestEnv(t)
	dbPath := SetupCatalogDB(t, env)

	assert.Equal(t, dbPath, config.CatalogDBFile)
	assert.Equal(t, dbPath, viper.GetString("catalog.dbfile"))
}

func TestSetupSnapshotDir(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	env := NewTestEnv(t)
	dir := SetupSnapshotDir(t, env)

	assert.DirExists(t, dir)
	assert.Equal(t, dir, config.DataDir)
}

func TestSaveRestoreConfigState(t *testing.T) {
	// Set known values
	config.CatalogDBFile = "saved.db"
	config.GeminiAPIKey = "saved-gemini"

	// Save state
	state := SaveConfigState()

	// Modify
	config.CatalogDBFile = "modified.db"
	config.GeminiAPIKey = "modified"

	// Restore
	RestoreConfigState(state)

	// Verify restored
	assert.Equal(t, "saved.db", config.CatalogDBFile)
	assert.Equal(t, "saved-gemini", config.GeminiAPIKey)
}
