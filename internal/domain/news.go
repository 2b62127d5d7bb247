package domain

// Headline is one cached news item for a date.
// Corresponds to the headlines table in PostgreSQL.
type Headline struct {
	Date        string // YYYY-MM-DD the headline is filed under
	Title       string
	Source      string
	URL         string
	PublishedAt int64 // Unix ms, 0 when the source omits it
}
