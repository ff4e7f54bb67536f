package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// CatalogDBFile is the path to the catalog SQLite database
	CatalogDBFile string
	// DataDir is where raw API response snapshots are written
	DataDir string
	// GoogleBooksAPIKey is the optional API key for the Google Books API
	GoogleBooksAPIKey string
	// GeminiAPIKey is the API key for the Gemini agent
	GeminiAPIKey string
	// GeminiModel is the Gemini model used for lookups and summaries
	GeminiModel string
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("catalog.dbfile", "./books.db")
	viper.SetDefault("datadir", "./data/isbn_response")
	viper.SetDefault("gemini.model", "gemini-1.5-flash")

	// Get values from viper
	CatalogDBFile = viper.GetString("catalog.dbfile")
	DataDir = viper.GetString("datadir")
	GoogleBooksAPIKey = viper.GetString("GoogleBooksAPIKey")
	GeminiAPIKey = viper.GetString("GeminiAPIKey")
	GeminiModel = viper.GetString("gemini.model")
}

// SetCatalogDBFile sets the catalog database path
func SetCatalogDBFile(path string) {
	CatalogDBFile = path
}

// SetDataDir sets the snapshot directory
func SetDataDir(dir string) {
	DataDir = dir
}
