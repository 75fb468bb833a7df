package books

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"bookcatalog/internal/types"
)

// NewMemoryRepository keeps books in process memory. Used when no database is configured.
func NewMemoryRepository(l *slog.Logger) Repository {
	return &memoryRepo{
		books: make(map[string]types.Book),
		l:     l,
		now:   time.Now,
		newId: uuid.NewString,
	}
}

type memoryRepo struct {
	mu    sync.RWMutex
	books map[string]types.Book
	l     *slog.Logger
	now   func() time.Time
	newId func() string
}

func (m *memoryRepo) GetById(_ context.Context, id string) (*types.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}

	return &b, nil
}

func (m *memoryRepo) Create(ctx context.Context, in types.BookInput) (*types.Book, error) {
	now := m.now()
	b := types.Book{
		Id:              m.newId(),
		Title:           in.Title,
		Author:          in.Author,
		PublicationDate: in.PublicationDate,
		Genre:           in.Genre,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	m.mu.Lock()
	m.books[b.Id] = b
	m.mu.Unlock()

	m.l.DebugContext(ctx, "Created book "+b.Id)

	return &b, nil
}

func (m *memoryRepo) Update(_ context.Context, book *types.Book) (*types.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[book.Id]
	if !ok {
		return nil, nil
	}

	b.Title = book.Title
	b.Author = book.Author
	b.PublicationDate = book.PublicationDate
	b.Genre = book.Genre
	b.UpdatedAt = m.now()
	m.books[b.Id] = b

	return &b, nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return 0, nil
	}

	delete(m.books, id)
	return 1, nil
}

func (m *memoryRepo) Find(_ context.Context, q Query) ([]*types.Book, int, error) {
	// a Caser is stateful, one per call
	fold := cases.Fold()

	matchers := make([]func(b *types.Book) bool, 0, len(q.Predicates))
	for _, pr := range q.Predicates {
		mt, err := matcher(pr, fold)
		if err != nil {
			return nil, 0, err
		}
		matchers = append(matchers, mt)
	}

	m.mu.RLock()
	matches := make([]types.Book, 0)
	for _, b := range m.books {
		ok := true
		for _, mt := range matchers {
			if !mt(&b) {
				ok = false
				break
			}
		}
		if ok {
			matches = append(matches, b)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Title != matches[j].Title {
			return matches[i].Title < matches[j].Title
		}
		return matches[i].Id < matches[j].Id
	})

	total := len(matches)
	ret := make([]*types.Book, 0)

	if q.Offset >= 0 && q.Offset < total {
		end := total
		if q.Limit > 0 && q.Limit < end-q.Offset {
			end = q.Offset + q.Limit
		}
		for i := q.Offset; i < end; i++ {
			ret = append(ret, &matches[i])
		}
	}

	return ret, total, nil
}

func matcher(pr Predicate, fold cases.Caser) (func(b *types.Book) bool, error) {
	switch pr.Op {
	case OpContains:
		needle := fold.String(pr.Text)
		get, err := textField(pr.Field)
		if err != nil {
			return nil, err
		}
		return func(b *types.Book) bool {
			return strings.Contains(fold.String(get(b)), needle)
		}, nil
	case OpEquals:
		if pr.Field != FieldPublicationDate {
			return nil, fmt.Errorf("unsupported date field %s", pr.Field)
		}
		return func(b *types.Book) bool {
			return b.PublicationDate.Equal(pr.Date)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported predicate op %d on %s", pr.Op, pr.Field)
	}
}

func textField(f Field) (func(b *types.Book) string, error) {
	switch f {
	case FieldGenre:
		return func(b *types.Book) string { return b.Genre }, nil
	case FieldAuthor:
		return func(b *types.Book) string { return b.Author }, nil
	default:
		return nil, fmt.Errorf("unsupported text field %s", f)
	}
}
