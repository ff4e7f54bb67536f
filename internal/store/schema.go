package store

// Catalog schema. Uniqueness lives in the schema on purpose: natural-key
// lookups (isbn, trimmed names) race against concurrent inserts, and the
// UNIQUE constraints are the backstop that keeps lookup-then-insert safe.
var schemas = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		publisher TEXT,
		published_date TEXT,
		description TEXT,
		page_count INTEGER,
		print_type TEXT,
		language TEXT,
		info_link TEXT,
		small_thumbnail TEXT,
		isbn TEXT UNIQUE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		birth_date TEXT,
		death_date TEXT,
		nationality TEXT,
		sex TEXT,
		bio TEXT,
		author_link TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS book_authors (
		book_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		PRIMARY KEY (book_id, author_id),
		FOREIGN KEY (book_id) REFERENCES books (id) ON DELETE CASCADE,
		FOREIGN KEY (author_id) REFERENCES authors (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS book_categories (
		book_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		PRIMARY KEY (book_id, category_id),
		FOREIGN KEY (book_id) REFERENCES books (id) ON DELETE CASCADE,
		FOREIGN KEY (category_id) REFERENCES categories (id) ON DELETE CASCADE
	)`,
}
