package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/opds"
	"bookcatalog/internal/response"
	"bookcatalog/internal/types"
)

const opdsBooksPath = "/opds/books"

func Handler(svc *catalog.Service, rr *response.Responder) http.Handler {
	v := newValidator()

	r := chi.NewRouter()

	r.Post("/book", func(w http.ResponseWriter, r *http.Request) {
		var in types.BookInput
		if !decodeBook(w, r, rr, v, &in) {
			return
		}

		book, err := svc.Create(r.Context(), in)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJsonStatus(w, r.Context(), http.StatusCreated, book)
	})

	r.Get("/book", func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.List(r.Context(), filterRequestFromQuery(r.URL.Query()))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), page)
	})

	r.Get("/book/find_book_by_iSBN/{isbn}", func(w http.ResponseWriter, r *http.Request) {
		record, err := svc.LookupByISBN(r.Context(), chi.URLParam(r, "isbn"))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), record)
	})

	r.Get("/book/{id}", func(w http.ResponseWriter, r *http.Request) {
		book, err := svc.GetById(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), book)
	})

	r.Patch("/book/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in types.BookInput
		if !decodeBook(w, r, rr, v, &in) {
			return
		}

		book, err := svc.Update(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), book)
	})

	r.Delete("/book/{id}", func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Remove(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), res)
	})

	r.Get("/book/{id}/rating", func(w http.ResponseWriter, r *http.Request) {
		rating, err := svc.Rate(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), rating)
	})

	r.Get(opdsBooksPath, func(w http.ResponseWriter, r *http.Request) {
		req := filterRequestFromQuery(r.URL.Query())

		page, err := svc.List(r.Context(), req)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		var buf bytes.Buffer
		if err := opds.Write(&buf, opds.NewFeed(&page, req, opdsBooksPath)); err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		w.Header().Set("Content-Type", opds.ContentType)
		_, _ = buf.WriteTo(w)
	})

	return r
}

func Static(r chi.Router, openApiYaml string) {
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, openApiYaml)
	})
}

// decodeBook reads and validates the request body, on false the response is already written
func decodeBook(w http.ResponseWriter, r *http.Request, rr *response.Responder, v *validator.Validate, in *types.BookInput) bool {
	if err := json.NewDecoder(r.Body).Decode(in); err != nil {
		rr.RespondClientError(w, r.Context(), http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}

	if err := v.Struct(in); err != nil {
		rr.RespondError(w, r.Context(), err)
		return false
	}

	return true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// dates are checked as time.Time so that required rejects the zero date
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(types.Date); ok {
			return d.Time
		}
		return nil
	}, types.Date{})

	return v
}

func filterRequestFromQuery(q url.Values) types.FilterRequest {
	return types.FilterRequest{
		Genre:           q.Get("genre"),
		Author:          q.Get("author"),
		PublicationDate: getFirst(q, "publication_date", "publicationDate"),
		Page:            getIntOrDefault("page", q, catalog.DefaultPage),
		Limit:           getIntOrDefault("limit", q, catalog.DefaultLimit),
	}
}

func getFirst(q url.Values, keys ...string) string {
	for _, key := range keys {
		if q.Has(key) {
			return q.Get(key)
		}
	}

	return ""
}

func getIntOrDefault(key string, q url.Values, default_ int) int {
	if ls := strings.TrimSpace(q.Get(key)); ls != "" {
		n, err := strconv.Atoi(ls)
		if err == nil {
			return n
		}
	}

	return default_
}
