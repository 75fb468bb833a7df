// Package opds renders a page of the catalog as an OPDS 1 acquisition feed.
package opds

import (
	"encoding/xml"
	"io"
	"net/url"
	"strconv"

	"github.com/opds-community/libopds2-go/opds1"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/types"
)

const (
	ContentType = "application/atom+xml;profile=opds-catalog;kind=acquisition"

	atomNamespace = "http://www.w3.org/2005/Atom"
	feedTitle     = "Books"
	bookIdPrefix  = "urn:uuid:"

	linkRelSelf      = "self"
	linkRelNext      = "next"
	linkRelPrev      = "previous"
	linkRelAlternate = "alternate"
	linkTypeJSON     = "application/json"
)

// NewFeed builds the feed for one list result. path is where the feed is served, it is used
// for the navigation links together with the filter that produced the page.
func NewFeed(page *types.Page, req types.FilterRequest, path string) *opds1.Feed {
	limit := req.Limit
	if limit < 1 {
		limit = catalog.DefaultLimit
	}

	feed := &opds1.Feed{Title: feedTitle}

	feed.Links = append(feed.Links, opds1.Link{
		Rel:      linkRelSelf,
		Href:     pageHref(path, req, page.CurrentPage, limit),
		TypeLink: ContentType,
	})
	if page.CurrentPage > 1 {
		// past the end, previous points at the last page
		prev := page.CurrentPage - 1
		if page.TotalPages > 0 && prev > page.TotalPages {
			prev = page.TotalPages
		}
		feed.Links = append(feed.Links, opds1.Link{
			Rel:      linkRelPrev,
			Href:     pageHref(path, req, prev, limit),
			TypeLink: ContentType,
		})
	}
	if page.CurrentPage < page.TotalPages {
		feed.Links = append(feed.Links, opds1.Link{
			Rel:      linkRelNext,
			Href:     pageHref(path, req, page.CurrentPage+1, limit),
			TypeLink: ContentType,
		})
	}

	for _, b := range page.Books {
		feed.Entries = append(feed.Entries, entry(b))
	}

	return feed
}

func entry(b *types.Book) opds1.Entry {
	e := opds1.Entry{
		ID:     bookIdPrefix + b.Id,
		Title:  b.Title,
		Issued: b.PublicationDate.String(),
		Author: []opds1.Author{{Name: b.Author}},
		Links: []opds1.Link{{
			Rel:      linkRelAlternate,
			Href:     "/book/" + url.PathEscape(b.Id),
			TypeLink: linkTypeJSON,
		}},
	}
	if b.Genre != "" {
		e.Category = []opds1.Category{{Term: b.Genre}}
	}
	e.Content.Content = b.Title + " by " + b.Author

	return e
}

func pageHref(path string, req types.FilterRequest, page, limit int) string {
	q := url.Values{}
	if req.Genre != "" {
		q.Set("genre", req.Genre)
	}
	if req.Author != "" {
		q.Set("author", req.Author)
	}
	if req.PublicationDate != "" {
		q.Set("publication_date", req.PublicationDate)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	return path + "?" + q.Encode()
}

// Write encodes the feed as an Atom document.
func Write(w io.Writer, feed *opds1.Feed) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	start := xml.StartElement{
		Name: xml.Name{Local: "feed"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: atomNamespace}},
	}
	if err := enc.EncodeElement(feed, start); err != nil {
		return err
	}

	return enc.Flush()
}
