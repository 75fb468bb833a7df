package types

import (
	"encoding/json"
	"time"
)

type Book struct {
	Id              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	PublicationDate Date      `json:"publication_date"`
	Genre           string    `json:"genre"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookInput holds the caller-settable fields of a Book, used for both create and full update.
type BookInput struct {
	Title           string `json:"title" validate:"required,max=30"`
	Author          string `json:"author" validate:"required"`
	PublicationDate Date   `json:"publication_date" validate:"required"`
	Genre           string `json:"genre" validate:"required"`
}

// FilterRequest is a list request after the query string was split into fields.
// Page and Limit are kept as received; zero or negative values fall back to defaults.
type FilterRequest struct {
	Genre           string
	Author          string
	PublicationDate string
	Page            int
	Limit           int
}

type Page struct {
	Books       []*Book `json:"books"`
	Total       int     `json:"total_results"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
}

type Rating struct {
	Message      string  `json:"message"`
	Score        float64 `json:"score"`
	ScoreRounded int     `json:"score_rounded"`
}

type DeleteResult struct {
	Affected int64 `json:"affected"`
}

// ExternalBookRecord is whatever the bibliographic service returned for the key, untouched.
type ExternalBookRecord = json.RawMessage
