package catalog

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bookcatalog/internal/apperr"
	"bookcatalog/internal/storage/books"
	"bookcatalog/internal/storage/books/mocks"
	"bookcatalog/internal/types"
)

func TestPlan_Defaults(t *testing.T) {
	for _, tc := range []struct {
		name        string
		page, limit int
	}{
		{"absent", 0, 0},
		{"negative", -3, -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			q, page, err := Plan(types.FilterRequest{Page: tc.page, Limit: tc.limit})
			require.NoError(t, err)
			assert.Equal(t, 1, page)
			assert.Equal(t, 10, q.Limit)
			assert.Equal(t, 0, q.Offset)
			assert.Empty(t, q.Predicates)
		})
	}
}

func TestPlan_OffsetSaturates(t *testing.T) {
	for _, tc := range []struct {
		page, limit int
		wantOffset  int
	}{
		{page: math.MaxInt, limit: 10, wantOffset: math.MaxInt},
		{page: 2, limit: math.MaxInt, wantOffset: math.MaxInt},
		{page: math.MaxInt/10 + 1, limit: 10, wantOffset: math.MaxInt / 10 * 10},
		{page: math.MaxInt/10 + 2, limit: 10, wantOffset: math.MaxInt},
		{page: 1, limit: math.MaxInt, wantOffset: 0},
	} {
		q, page, err := Plan(types.FilterRequest{Page: tc.page, Limit: tc.limit})
		require.NoError(t, err)
		assert.Equal(t, tc.page, page)
		assert.Equal(t, tc.wantOffset, q.Offset)
		assert.GreaterOrEqual(t, q.Offset, 0)
	}
}

func TestPlan_Predicates(t *testing.T) {
	q, page, err := Plan(types.FilterRequest{
		Genre:           "fant",
		Author:          "toure",
		PublicationDate: "2024-11-14",
		Page:            3,
		Limit:           5,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, page)
	assert.Equal(t, 10, q.Offset)
	assert.Equal(t, 5, q.Limit)
	require.Len(t, q.Predicates, 3)
	assert.Equal(t, books.Contains(books.FieldGenre, "fant"), q.Predicates[0])
	assert.Equal(t, books.Contains(books.FieldAuthor, "toure"), q.Predicates[1])
	assert.Equal(t, books.FieldPublicationDate, q.Predicates[2].Field)
	assert.Equal(t, books.OpEquals, q.Predicates[2].Op)
	assert.Equal(t, "2024-11-14", q.Predicates[2].Date.String())
}

func TestPlan_DateLayouts(t *testing.T) {
	for _, raw := range []string{"2022-06-04", "2022/06/04", "2022/6/4", "2022-06-04T00:00:00Z", " 2022-06-04 "} {
		q, _, err := Plan(types.FilterRequest{PublicationDate: raw})
		require.NoError(t, err, raw)
		require.Len(t, q.Predicates, 1)
		assert.Equal(t, "2022-06-04", q.Predicates[0].Date.String(), raw)
	}
}

func TestPlan_InvalidDate(t *testing.T) {
	for _, raw := range []string{"not a date", "2022-13-40", "   "} {
		_, _, err := Plan(types.FilterRequest{PublicationDate: raw})

		var invalid *apperr.InvalidFilterError
		require.ErrorAs(t, err, &invalid, raw)
		assert.Equal(t, "the supplied publication date is invalid", invalid.Message)

		var notFound *apperr.NotFoundError
		assert.False(t, errors.As(err, &notFound))
	}
}

func TestFilterEngine_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	engine := NewFilterEngine(repo)

	t.Run("pagination math", func(t *testing.T) {
		for _, tc := range []struct {
			total, page, limit int
			wantPages          int
		}{
			{total: 0, page: 1, limit: 10, wantPages: 0},
			{total: 1, page: 1, limit: 10, wantPages: 1},
			{total: 10, page: 1, limit: 10, wantPages: 1},
			{total: 11, page: 2, limit: 10, wantPages: 2},
			{total: 7, page: 5, limit: 1, wantPages: 7},
			{total: 25, page: 9, limit: 3, wantPages: 9},
			{total: 5, page: 1, limit: math.MaxInt, wantPages: 1},
			{total: math.MaxInt, page: 1, limit: 2, wantPages: math.MaxInt/2 + 1},
		} {
			repo.EXPECT().
				Find(gomock.Any(), books.Query{Offset: (tc.page - 1) * tc.limit, Limit: tc.limit}).
				Return(nil, tc.total, nil)

			p, err := engine.List(context.Background(), types.FilterRequest{Page: tc.page, Limit: tc.limit})
			require.NoError(t, err)
			assert.Equal(t, tc.total, p.Total)
			assert.Equal(t, tc.wantPages, p.TotalPages)
			assert.Equal(t, tc.page, p.CurrentPage)
			assert.NotNil(t, p.Books)
		}
	})

	t.Run("page beyond the addressable range", func(t *testing.T) {
		repo.EXPECT().
			Find(gomock.Any(), books.Query{Offset: math.MaxInt, Limit: 10}).
			Return(nil, 5, nil)

		p, err := engine.List(context.Background(), types.FilterRequest{Page: math.MaxInt, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 5, p.Total)
		assert.Equal(t, 1, p.TotalPages)
		assert.Equal(t, math.MaxInt, p.CurrentPage)
		assert.Empty(t, p.Books)
	})

	t.Run("invalid date runs no query", func(t *testing.T) {
		// any Find call would fail the controller
		_, err := engine.List(context.Background(), types.FilterRequest{PublicationDate: "yesterday"})

		var invalid *apperr.InvalidFilterError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("store failure is passed through", func(t *testing.T) {
		boom := errors.New("db down")
		repo.EXPECT().Find(gomock.Any(), gomock.Any()).Return(nil, 0, boom)

		_, err := engine.List(context.Background(), types.FilterRequest{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("rows are returned as is", func(t *testing.T) {
		b := &types.Book{Id: "x", Title: "T", PublicationDate: types.NewDate(time.Now())}
		repo.EXPECT().
			Find(gomock.Any(), books.Query{
				Predicates: []books.Predicate{books.Contains(books.FieldGenre, "hist")},
				Limit:      10,
			}).
			Return([]*types.Book{b}, 1, nil)

		p, err := engine.List(context.Background(), types.FilterRequest{Genre: "hist"})
		require.NoError(t, err)
		require.Len(t, p.Books, 1)
		assert.Same(t, b, p.Books[0])
	})
}
