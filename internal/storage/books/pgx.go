package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookcatalog/internal/types"
)

const table = "book"

// pgxIface is the part of *pgxpool.Pool the repository uses, so tests can pass a pgxmock pool.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return newPGXRepo(pg, l)
}

func newPGXRepo(pg pgxIface, l *slog.Logger) *pgxRepo {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l, newId: uuid.NewString}
}

type pgxRepo struct {
	pg    pgxIface
	g     goqu.DialectWrapper
	l     *slog.Logger
	newId func() string
}

type pgxBook struct {
	Id              string    `db:"id"`
	Title           string    `db:"title"`
	Author          string    `db:"author"`
	PublicationDate time.Time `db:"publication_date"`
	Genre           string    `db:"genre"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (b *pgxBook) intoCommon() *types.Book {
	return &types.Book{
		Id:              b.Id,
		Title:           b.Title,
		Author:          b.Author,
		PublicationDate: types.NewDate(b.PublicationDate),
		Genre:           b.Genre,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (p *pgxRepo) GetById(ctx context.Context, id string) (*types.Book, error) {
	// the column is uuid, anything else can not be stored there
	if uuid.Validate(id) != nil {
		return nil, nil
	}

	sql, params, err := p.g.From(table).
		Prepared(true).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxBook

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) Create(ctx context.Context, in types.BookInput) (*types.Book, error) {
	sql, params, err := p.g.Insert(table).
		Prepared(true).
		Rows(goqu.Record{
			"id":               p.newId(),
			"title":            in.Title,
			"author":           in.Author,
			"publication_date": in.PublicationDate.Time,
			"genre":            in.Genre,
		}).
		Returning(goqu.Star()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxBook

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		return nil, err
	}

	p.l.DebugContext(ctx, "Created book "+row.Id)

	return row.intoCommon(), nil
}

func (p *pgxRepo) Update(ctx context.Context, book *types.Book) (*types.Book, error) {
	if uuid.Validate(book.Id) != nil {
		return nil, nil
	}

	sql, params, err := p.g.Update(table).
		Prepared(true).
		Set(goqu.Record{
			"title":            book.Title,
			"author":           book.Author,
			"publication_date": book.PublicationDate.Time,
			"genre":            book.Genre,
			"updated_at":       goqu.L("now()"),
		}).
		Where(goqu.C("id").Eq(book.Id)).
		Returning(goqu.Star()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxBook

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) Delete(ctx context.Context, id string) (int64, error) {
	if uuid.Validate(id) != nil {
		return 0, nil
	}

	sql, params, err := p.g.Delete(table).
		Prepared(true).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return 0, err
	}

	tag, err := p.pg.Exec(ctx, sql, params...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (p *pgxRepo) Find(ctx context.Context, q Query) (_ []*types.Book, _ int, err error) {
	where, err := whereExpressions(q.Predicates)
	if err != nil {
		return nil, 0, err
	}

	ds := p.g.From(table).
		Prepared(true).
		Where(where...)

	countSql, countParams, err := ds.
		Select(goqu.COUNT(goqu.Star())).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}

	pageSql, pageParams, err := ds.
		Order(goqu.C("title").Asc(), goqu.C("id").Asc()).
		Limit(uint(q.Limit)).
		Offset(uint(q.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}

	// count and page must come from the same snapshot
	tx, err := p.pg.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var total int
	err = tx.QueryRow(ctx, countSql, countParams...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting books: %w", err)
	}

	var rows []pgxBook
	if q.Offset >= 0 && total > q.Offset {
		err = pgxscan.Select(ctx, tx, &rows, pageSql, pageParams...)
		if err != nil {
			return nil, 0, fmt.Errorf("selecting books: %w", err)
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, 0, err
	}

	ret := make([]*types.Book, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.intoCommon())
	}

	return ret, total, nil
}

func whereExpressions(predicates []Predicate) ([]exp.Expression, error) {
	ret := make([]exp.Expression, 0, len(predicates))

	for _, pr := range predicates {
		switch pr.Op {
		case OpContains:
			ret = append(ret, goqu.C(string(pr.Field)).ILike("%"+escapeLike(pr.Text)+"%"))
		case OpEquals:
			ret = append(ret, goqu.C(string(pr.Field)).Eq(pr.Date.Time))
		default:
			return nil, fmt.Errorf("unsupported predicate op %d on %s", pr.Op, pr.Field)
		}
	}

	return ret, nil
}
