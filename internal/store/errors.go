package store

import "errors"

var (
	// ErrInvalidName is returned when an author or category name is empty
	// after trimming.
	ErrInvalidName = errors.New("name is empty after trimming")

	// ErrMissingTitle is returned when a book record arrives without a title.
	// Nothing is written in that case.
	ErrMissingTitle = errors.New("book record has no title")

	// ErrMissingISBN is returned when a book record arrives without an ISBN.
	ErrMissingISBN = errors.New("book record has no isbn")

	// ErrDuplicateISBN is returned by AddBook when the ISBN already exists.
	// It marks a recognized skip, not a failure; callers normally pre-check
	// with HasISBN and treat this as a no-op.
	ErrDuplicateISBN = errors.New("isbn already in catalog")

	// ErrAuthorNotFound is returned when a merge targets an author id that
	// does not exist. MergeAuthor never creates rows.
	ErrAuthorNotFound = errors.New("author not found")
)
