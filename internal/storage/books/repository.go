package books

import (
	"context"

	"bookcatalog/internal/types"
)

//go:generate mockgen -destination=mocks/repository.go -package=mocks bookcatalog/internal/storage/books Repository

type Repository interface {
	// GetById returns nil, nil when no book has the id
	GetById(ctx context.Context, id string) (*types.Book, error)

	Create(ctx context.Context, in types.BookInput) (*types.Book, error)
	// Update replaces the mutable fields of the book with book.Id, returns nil, nil when it is gone
	Update(ctx context.Context, book *types.Book) (*types.Book, error)
	// Delete returns the number of removed rows, 0 for unknown ids
	Delete(ctx context.Context, id string) (int64, error)

	// Find returns one page of books matching q and the number of all matches, both from the same snapshot
	Find(ctx context.Context, q Query) ([]*types.Book, int, error)
}
