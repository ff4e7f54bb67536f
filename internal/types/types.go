// Package types holds the domain records shared between the importer,
// the store and the query surface.
package types

// BookRecord is the denormalized shape of one book as it arrives from
// the Google Books API: scalar metadata plus plain author and category
// name lists. The store normalizes it on write.
type BookRecord struct {
	ISBN           string   `json:"isbn"`
	Title          string   `json:"title"`
	Publisher      string   `json:"publisher"`
	PublishedDate  string   `json:"published_date"`
	Description    string   `json:"description"`
	PageCount      *int     `json:"page_count"`
	PrintType      string   `json:"print_type"`
	Language       string   `json:"language"`
	InfoLink       string   `json:"info_link"`
	SmallThumbnail string   `json:"small_thumbnail"`
	Authors        []string `json:"authors"`
	Categories     []string `json:"categories"`
}

// Author is a stored author row. Biographical fields are pointers so a
// missing value is distinguishable from an empty string.
type Author struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	BirthDate   *string `json:"birth_date"`
	DeathDate   *string `json:"death_date"`
	Nationality *string `json:"nationality"`
	Sex         *string `json:"sex"`
	Bio         *string `json:"bio"`
	Link        *string `json:"link"`
}

// AuthorDetails is a partial biographical update for an existing author.
// Nil fields are "not provided" and never touch the stored value.
type AuthorDetails struct {
	BirthDate   *string `json:"birth_date"`
	DeathDate   *string `json:"death_date"`
	Nationality *string `json:"nationality"`
	Sex         *string `json:"sex"`
	Bio         *string `json:"biography"`
	Link        *string `json:"url"`
}

// Sex values accepted for an author. Anything else collapses to SexUnknown.
const (
	SexMale    = "male"
	SexFemale  = "female"
	SexUnknown = "unknown"
)

// NormalizeSex maps free-form agent output onto the stored enumeration.
func NormalizeSex(s string) string {
	switch s {
	case SexMale, SexFemale:
		return s
	default:
		return SexUnknown
	}
}

// Empty reports whether no field of the update carries a value.
func (d *AuthorDetails) Empty() bool {
	if d == nil {
		return true
	}
	return d.BirthDate == nil && d.DeathDate == nil && d.Nationality == nil &&
		d.Sex == nil && d.Bio == nil && d.Link == nil
}
