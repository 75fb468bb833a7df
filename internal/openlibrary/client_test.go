package openlibrary

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/apperr"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu   sync.Mutex
	urls []*url.URL
}

func (r *recorder) seen() []*url.URL {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.urls
}

func serve(t *testing.T, status int, body string) (*Client, *recorder) {
	t.Helper()

	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.urls = append(rec.urls, r.URL)
		rec.mu.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return NewClient(Options{BaseURL: srv.URL + "/"}, discard), rec
}

func TestClient_Found(t *testing.T) {
	record := `{"bib_key":"ISBN:9781234567890","info_url":"https://openlibrary.org/books/OL1M","preview":"noview"}`
	c, seen := serve(t, http.StatusOK, `{"ISBN:9781234567890": `+record+`}`)
	before := testutil.ToFloat64(lookupOutcomes.WithLabelValues(outcomeFound))

	got, err := c.LookupByISBN(context.Background(), "9781234567890")
	require.NoError(t, err)
	assert.JSONEq(t, record, string(got))

	require.Len(t, seen.seen(), 1)
	u := seen.seen()[0]
	assert.Equal(t, "/api/books", u.Path)
	assert.Equal(t, "ISBN:9781234567890", u.Query().Get("bibkeys"))
	assert.Equal(t, "json", u.Query().Get("format"))

	assert.Equal(t, before+1, testutil.ToFloat64(lookupOutcomes.WithLabelValues(outcomeFound)))
}

func TestClient_NotFound(t *testing.T) {
	for name, body := range map[string]string{
		"empty object":  `{}`,
		"other key":     `{"ISBN:1111111111": {"title":"Other"}}`,
		"null record":   `{"ISBN:9781234567890": null}`,
		"empty body":    ``,
		"not an object": `[]`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := serve(t, http.StatusOK, body)

			_, err := c.LookupByISBN(context.Background(), "9781234567890")
			var notFound *apperr.NotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, "no book found with ISBN 9781234567890", notFound.Message)
		})
	}
}

func TestClient_BadStatusIsBadRequest(t *testing.T) {
	c, _ := serve(t, http.StatusBadGateway, `upstream down`)

	_, err := c.LookupByISBN(context.Background(), "9781234567890")
	var badRequest *apperr.BadRequestError
	require.ErrorAs(t, err, &badRequest)
	assert.Contains(t, badRequest.Error(), "502")
}

func TestClient_TransportErrorIsBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: base}, discard)
	before := testutil.ToFloat64(lookupOutcomes.WithLabelValues(outcomeTransportError))

	_, err := c.LookupByISBN(context.Background(), "9781234567890")
	var badRequest *apperr.BadRequestError
	require.ErrorAs(t, err, &badRequest)

	var notFound *apperr.NotFoundError
	assert.NotErrorAs(t, err, &notFound)
	assert.Equal(t, before+1, testutil.ToFloat64(lookupOutcomes.WithLabelValues(outcomeTransportError)))
}

func TestClient_IsbnIsEscapedNotValidated(t *testing.T) {
	c, seen := serve(t, http.StatusOK, `{}`)

	_, err := c.LookupByISBN(context.Background(), "not an isbn&x=1")
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)

	require.Len(t, seen.seen(), 1)
	q := seen.seen()[0].Query()
	assert.Equal(t, "ISBN:not an isbn&x=1", q.Get("bibkeys"))
	assert.Empty(t, q.Get("x"))
}

func TestClient_CancelledContext(t *testing.T) {
	c, seen := serve(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.LookupByISBN(ctx, "9781234567890")
	var badRequest *apperr.BadRequestError
	assert.ErrorAs(t, err, &badRequest)
	assert.Empty(t, seen.seen())
}
