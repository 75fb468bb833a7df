// Package openlibrary looks books up by ISBN on Open Library's books API.
package openlibrary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bookcatalog/internal/apperr"
)

const (
	DefaultBaseURL = "https://openlibrary.org"
	DefaultTimeout = 10 * time.Second

	bibkeyPrefix = "ISBN:"
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS limits outgoing requests per second, zero or less means unlimited
	RPS float64
	// HTTPClient replaces the default client, Timeout is then ignored
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewClient(opts Options, l *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		limiter:    limiter,
		logger:     l,
	}
}

// LookupByISBN makes exactly one request. A failed request is a BadRequestError, a successful
// response without a record for the ISBN is a NotFoundError. The ISBN is not validated.
func (c *Client) LookupByISBN(ctx context.Context, isbn string) (json.RawMessage, error) {
	key := bibkeyPrefix + isbn

	body, err := c.fetch(ctx, c.booksURL(isbn))
	if err != nil {
		lookupOutcomes.WithLabelValues(outcomeTransportError).Inc()
		c.logger.WarnContext(ctx, "Open Library request for "+key+" failed: "+err.Error())
		return nil, apperr.BadRequest(err)
	}

	record, ok := recordFor(body, key)
	if !ok {
		lookupOutcomes.WithLabelValues(outcomeNotFound).Inc()
		return nil, apperr.NotFound("no book found with ISBN %s", isbn)
	}

	lookupOutcomes.WithLabelValues(outcomeFound).Inc()
	return record, nil
}

func (c *Client) booksURL(isbn string) string {
	return c.baseURL + "/api/books?bibkeys=" + bibkeyPrefix + url.QueryEscape(isbn) + "&format=json"
}

// fetch only fails when no usable response arrived
func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "Fetching "+u)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	var bs []byte
	func() {
		defer res.Body.Close()
		bs, err = io.ReadAll(res.Body)
	}()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return bs, nil
}

// recordFor picks the record for key out of a bibkeys response, a missing key, a null value
// and a body that is not a JSON object all count as absent.
func recordFor(body []byte, key string) (json.RawMessage, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, false
	}

	record, ok := records[key]
	if !ok || len(record) == 0 || string(record) == "null" {
		return nil, false
	}

	return record, true
}
