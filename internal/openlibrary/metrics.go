package openlibrary

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeFound          = "found"
	outcomeNotFound       = "not_found"
	outcomeTransportError = "transport_error"

	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

var (
	lookupOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_isbn_lookups_total",
		Help: "Open Library ISBN lookups by outcome.",
	}, []string{"outcome"})

	cacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_isbn_lookup_cache_total",
		Help: "ISBN lookup cache reads by result.",
	}, []string{"result"})
)
