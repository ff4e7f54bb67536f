package cache

// SQL schemas for cache tables.
// All cache tables use "cache_key" as the primary key column for consistency.

// GoogleBooksCacheSchema defines the schema for Google Books API responses,
// keyed by normalized ISBN.
const GoogleBooksCacheSchema = `
CREATE TABLE IF NOT EXISTS googlebooks_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_googlebooks_cached_at ON googlebooks_cache(cached_at);
`

// AuthorLookupCacheSchema defines the schema for agent author lookups,
// keyed by trimmed author name.
const AuthorLookupCacheSchema = `
CREATE TABLE IF NOT EXISTS author_lookup_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_author_lookup_cached_at ON author_lookup_cache(cached_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization.
var AllCacheSchemas = []string{
	GoogleBooksCacheSchema,
	AuthorLookupCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names.
// Used to prevent SQL injection when interpolating table names.
var ValidCacheTableNames = map[string]bool{
	"googlebooks_cache":   true,
	"author_lookup_cache": true,
}
