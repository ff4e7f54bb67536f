package testutil

import (
	"testing"

	"github.com/jhakala/libris/internal/cache"
	"github.com/jhakala/libris/internal/config"
	"github.com/spf13/viper"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	CatalogDBFile     string
	DataDir           string
	GoogleBooksAPIKey string
	GeminiAPIKey      string
	GeminiModel       string
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		CatalogDBFile:     config.CatalogDBFile,
		DataDir:           config.DataDir,
		GoogleBooksAPIKey: config.GoogleBooksAPIKey,
		GeminiAPIKey:      config.GeminiAPIKey,
		GeminiModel:       config.GeminiModel,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.CatalogDBFile = state.CatalogDBFile
	config.DataDir = state.DataDir
	config.GoogleBooksAPIKey = state.GoogleBooksAPIKey
	config.GeminiAPIKey = state.GeminiAPIKey
	config.GeminiModel = state.GeminiModel
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfig sets up a test configuration with common defaults.
// It saves the current state and restores it when the test completes.
func SetTestConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	config.CatalogDBFile = "./books.db"
	config.DataDir = "./data/isbn_response"
	config.GoogleBooksAPIKey = ""
	config.GeminiAPIKey = "test-gemini-key"
	config.GeminiModel = "gemini-1.5-flash"

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
		// Note: viper doesn't have an Unset function, so we can't
		// restore the "unset" state. This is a known limitation.
	})
}

// SetupTestCache points the response cache at a fresh database inside the
// test environment and resets the cache singleton so the new path takes
// effect. It returns the cache directory.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	cacheDir := env.Path("cache")
	env.MkdirAll("cache")

	viper.Set("cache.dbfile", env.Path("cache", "test-cache.db"))
	viper.Set("cache.ttl", "24h")

	if err := cache.ResetGlobalCache(); err != nil {
		t.Fatalf("failed to reset cache singleton: %v", err)
	}
	t.Cleanup(func() {
		_ = cache.ResetGlobalCache()
	})

	return cacheDir
}

// SetupCatalogDB points the catalog at a temporary database file and
// restores the previous configuration on cleanup. Returns the database path.
func SetupCatalogDB(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("catalog.db")

	SetViperValue(t, "catalog.dbfile", dbPath)
	prev := config.CatalogDBFile
	config.SetCatalogDBFile(dbPath)
	t.Cleanup(func() {
		config.SetCatalogDBFile(prev)
	})

	return dbPath
}

// SetupSnapshotDir points raw API snapshot output at the test environment
// and restores the previous directory on cleanup. Returns the directory path.
func SetupSnapshotDir(t *testing.T, env *TestEnv) string {
	t.Helper()

	dir := env.Path("snapshots")
	env.MkdirAll("snapshots")

	SetViperValue(t, "datadir", dir)
	prev := config.DataDir
	config.SetDataDir(dir)
	t.Cleanup(func() {
		config.SetDataDir(prev)
	})

	return dir
}
