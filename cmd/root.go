package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/jhakala/libris/cmd/authors"
	"github.com/jhakala/libris/cmd/books"
	"github.com/jhakala/libris/cmd/dashboard"
	"github.com/jhakala/libris/internal/config"
	"github.com/jhakala/libris/internal/response"
	"github.com/jhakala/libris/internal/server"
	"github.com/jhakala/libris/internal/store"
)

var (
	runImport = books.ImportWithParams
	runEnrich = authors.EnrichWithParams
	showStats = dashboard.ShowWithParams
)

// CLI represents the complete command structure for the libris application
type CLI struct {
	// Global flags
	DBFile  string `help:"Path to catalog SQLite database file" default:"./books.db"`
	DataDir string `help:"Directory for raw API response snapshots" default:"./data/isbn_response"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`

	Import        ImportCmd `cmd:"" help:"Import books into the catalog by ISBN"`
	EnrichAuthors EnrichCmd `cmd:"" name:"enrich-authors" help:"Fill missing author details using the Gemini agent"`
	Stats         StatsCmd  `cmd:"" help:"Show catalog statistics in the terminal"`
	Serve         ServeCmd  `cmd:"" help:"Serve the read-only catalog API over HTTP"`
}

// ImportCmd imports books given as ISBN arguments and/or a CSV file.
type ImportCmd struct {
	ISBNs []string `arg:"" optional:"" name:"isbn" help:"ISBNs to import"`
	Input string   `short:"f" help:"Path to CSV file with one ISBN per row"`
}

// EnrichCmd runs the author enrichment pass.
type EnrichCmd struct{}

// StatsCmd renders the stats dashboard.
type StatsCmd struct {
	Limit int `help:"Rows to show per section" default:"10"`
}

// ServeCmd runs the HTTP query API.
type ServeCmd struct {
	Addr  string `help:"Bind address for the HTTP API" default:":8080"`
	Debug bool   `help:"Expose raw error messages in API responses"`
}

func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("libris"),
		kong.Description("A tool to build a normalized book catalog from ISBNs."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("catalog.dbfile", "./books.db")
	viper.SetDefault("datadir", "./data/isbn_response")

	// Cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	viper.SetDefault("gemini.model", "gemini-1.5-flash")

	// Enable environment variable support
	viper.AutomaticEnv()
	// Bind specific environment variables to config keys
	if err := viper.BindEnv("GeminiAPIKey", "GEMINI_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := viper.BindEnv("GoogleBooksAPIKey", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	config.SetCatalogDBFile(cli.DBFile)
	config.SetDataDir(cli.DataDir)

	// Update cache config
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

// Run methods for each command

func (i *ImportCmd) Run() error {
	// Read from config if value not provided via flag
	input := i.Input
	if input == "" {
		input = viper.GetString("import.csvfile")
	}

	if len(i.ISBNs) == 0 && input == "" {
		return fmt.Errorf("nothing to import (pass ISBNs as arguments, --input, or set import.csvfile in config)")
	}

	return runImport(context.Background(), i.ISBNs, input)
}

func (e *EnrichCmd) Run() error {
	return runEnrich(context.Background())
}

func (s *StatsCmd) Run() error {
	return showStats(context.Background(), s.Limit)
}

func (s *ServeCmd) Run() error {
	st, err := store.Open(config.CatalogDBFile, slog.Default())
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer func() { _ = st.Close() }()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api", server.Handler(st, &response.Responder{DebugMode: s.Debug}))

	slog.Info("Serving catalog API", "addr", s.Addr)
	return http.ListenAndServe(s.Addr, r)
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
