package catalog

import (
	"context"
	"math"
	"strings"
	"time"

	"bookcatalog/internal/apperr"
	"bookcatalog/internal/storage/books"
	"bookcatalog/internal/types"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

const msgInvalidPublicationDate = "the supplied publication date is invalid"

// Layouts accepted for the publication date filter, tried in order.
var filterDateLayouts = []string{
	types.DateLayout,
	time.RFC3339,
	"2006/01/02",
	"2006/1/2",
}

type FilterEngine struct {
	books books.Repository
}

func NewFilterEngine(br books.Repository) *FilterEngine {
	return &FilterEngine{books: br}
}

// Plan turns a filter request into a store query and the page number it resolves to.
// It does not touch the store.
func Plan(req types.FilterRequest) (books.Query, int, error) {
	page, limit := req.Page, req.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	q := books.Query{
		Offset: offset(page, limit),
		Limit:  limit,
	}

	if req.Genre != "" {
		q.Predicates = append(q.Predicates, books.Contains(books.FieldGenre, req.Genre))
	}

	if req.Author != "" {
		q.Predicates = append(q.Predicates, books.Contains(books.FieldAuthor, req.Author))
	}

	if req.PublicationDate != "" {
		d, ok := parseFilterDate(req.PublicationDate)
		if !ok {
			return books.Query{}, 0, apperr.InvalidFilter(msgInvalidPublicationDate)
		}
		q.Predicates = append(q.Predicates, books.DateEquals(books.FieldPublicationDate, d))
	}

	return q, page, nil
}

func (f *FilterEngine) List(ctx context.Context, req types.FilterRequest) (types.Page, error) {
	q, page, err := Plan(req)
	if err != nil {
		return types.Page{}, err
	}

	rows, total, err := f.books.Find(ctx, q)
	if err != nil {
		return types.Page{}, err
	}

	if rows == nil {
		rows = make([]*types.Book, 0)
	}

	return types.Page{
		Books:       rows,
		Total:       total,
		TotalPages:  totalPages(total, q.Limit),
		CurrentPage: page,
	}, nil
}

// offset saturates at math.MaxInt, a page that far out is past the end of any result
func offset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}

	return (page - 1) * limit
}

func totalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	return pages
}

func parseFilterDate(s string) (types.Date, bool) {
	s = strings.TrimSpace(s)

	for _, layout := range filterDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return types.NewDate(t), true
		}
	}

	return types.Date{}, false
}
