// Package server exposes the catalog's read-only query surface over HTTP.
// All endpoints are GETs; nothing here writes to the catalog.
package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jhakala/libris/internal/response"
	"github.com/jhakala/libris/internal/store"
	"github.com/jhakala/libris/internal/types"
)

const (
	defaultSearchLimit = 20
	defaultStatsLimit  = 10
	maxLimit           = 500
)

// Handler builds the API router on top of a catalog store.
func Handler(st *store.Store, rr *response.Responder) http.Handler {
	r := chi.NewRouter()

	r.Get("/stats/summary", func(w http.ResponseWriter, r *http.Request) {
		sum, err := st.GetSummary(r.Context())
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), sum)
	})

	r.Get("/stats/authors", func(w http.ResponseWriter, r *http.Request) {
		rows, err := st.TopAuthors(r.Context(), getLimit(r.URL.Query(), defaultStatsLimit))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]store.NameCount, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Authors []store.NameCount `json:"authors"`
		}{Authors: rows})
	})

	r.Get("/stats/categories", func(w http.ResponseWriter, r *http.Request) {
		rows, err := st.CategoryCounts(r.Context(), getLimit(r.URL.Query(), defaultStatsLimit))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]store.NameCount, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Categories []store.NameCount `json:"categories"`
		}{Categories: rows})
	})

	r.Get("/stats/languages", func(w http.ResponseWriter, r *http.Request) {
		rows, err := st.LanguageCounts(r.Context())
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]store.NameCount, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Languages []store.NameCount `json:"languages"`
		}{Languages: rows})
	})

	r.Get("/books", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		rows, err := st.SearchBooks(r.Context(), q.Get("search"), getLimit(q, defaultSearchLimit))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]store.BookListing, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Books []store.BookListing `json:"books"`
		}{Books: rows})
	})

	r.Get("/authors", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		rows, err := st.SearchAuthors(r.Context(), q.Get("search"), getLimit(q, defaultSearchLimit))
		if err != nil {
			rr.RespondAndLogError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]*types.Author, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Authors []*types.Author `json:"authors"`
		}{Authors: rows})
	})

	return r
}

// getLimit reads a limit query parameter, falling back to a default and
// clamping runaway values.
func getLimit(q url.Values, fallback int) int {
	limit := fallback
	if ls := q.Get("limit"); ls != "" {
		if parsed, err := strconv.Atoi(ls); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
