// Package catalog composes the book store, the filter engine, the scorer and the external ISBN
// lookup into the operations exposed by the HTTP layer.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"bookcatalog/internal/apperr"
	"bookcatalog/internal/storage/books"
	"bookcatalog/internal/types"
)

const msgBookNotFound = "book not found"

// Lookup fetches a bibliographic record by ISBN from an external service.
type Lookup interface {
	LookupByISBN(ctx context.Context, isbn string) (json.RawMessage, error)
}

type Service struct {
	books  books.Repository
	filter *FilterEngine
	scorer *Scorer
	lookup Lookup
}

func NewService(br books.Repository, scorer *Scorer, lookup Lookup) *Service {
	return &Service{
		books:  br,
		filter: NewFilterEngine(br),
		scorer: scorer,
		lookup: lookup,
	}
}

func (s *Service) Create(ctx context.Context, in types.BookInput) (*types.Book, error) {
	b, err := s.books.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("creating book: %w", err)
	}

	return b, nil
}

func (s *Service) List(ctx context.Context, req types.FilterRequest) (types.Page, error) {
	return s.filter.List(ctx, req)
}

func (s *Service) GetById(ctx context.Context, id string) (*types.Book, error) {
	b, err := s.books.GetById(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching book: %w", err)
	}

	if b == nil {
		return nil, apperr.NotFound(msgBookNotFound)
	}

	return b, nil
}

// Update replaces all four mutable fields. Concurrent updates of one book are last write wins.
func (s *Service) Update(ctx context.Context, id string, in types.BookInput) (*types.Book, error) {
	b, err := s.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	b.Title = in.Title
	b.Author = in.Author
	b.PublicationDate = in.PublicationDate
	b.Genre = in.Genre

	updated, err := s.books.Update(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("updating book: %w", err)
	}

	// deleted between the read and the write
	if updated == nil {
		return nil, apperr.NotFound(msgBookNotFound)
	}

	return updated, nil
}

// Remove deletes the book if present. Unknown ids report zero affected rows, not an error.
func (s *Service) Remove(ctx context.Context, id string) (types.DeleteResult, error) {
	n, err := s.books.Delete(ctx, id)
	if err != nil {
		return types.DeleteResult{}, fmt.Errorf("deleting book: %w", err)
	}

	return types.DeleteResult{Affected: n}, nil
}

func (s *Service) Rate(ctx context.Context, id string) (types.Rating, error) {
	b, err := s.GetById(ctx, id)
	if err != nil {
		return types.Rating{}, err
	}

	return s.scorer.Rate(b), nil
}

func (s *Service) LookupByISBN(ctx context.Context, isbn string) (types.ExternalBookRecord, error) {
	return s.lookup.LookupByISBN(ctx, isbn)
}
