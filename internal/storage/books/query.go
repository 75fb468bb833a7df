package books

import (
	"strings"

	"bookcatalog/internal/types"
)

type Field string

const (
	FieldGenre           Field = "genre"
	FieldAuthor          Field = "author"
	FieldPublicationDate Field = "publication_date"
)

type Op uint8

const (
	// OpContains is a case-insensitive substring match on a text field
	OpContains Op = 1
	// OpEquals is exact equality on a date field
	OpEquals Op = 2
)

type Predicate struct {
	Field Field
	Op    Op
	Text  string     // for OpContains
	Date  types.Date // for OpEquals
}

func Contains(f Field, text string) Predicate {
	return Predicate{Field: f, Op: OpContains, Text: text}
}

func DateEquals(f Field, d types.Date) Predicate {
	return Predicate{Field: f, Op: OpEquals, Date: d}
}

// Query is a conjunction of predicates plus the page window. Empty Predicates match every book.
// Results are ordered by title, then id, so pages stay stable while data is unchanged.
type Query struct {
	Predicates []Predicate
	Offset     int
	Limit      int
}

func escapeLike(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(s,
		"\\", "\\\\"),
		"_", "\\_"),
		"%", "\\%")
}
