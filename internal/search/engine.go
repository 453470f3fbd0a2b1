// Package search resolves structured filter criteria against the remote
// catalog. Push-down-able criteria go straight to the catalog service;
// anything else is applied in memory over the cached full-catalog
// snapshot, with deterministic sort and pagination either way.
package search

import (
	"errors"
	"fmt"
	"log"
	"time"

	"listing-portal/internal/cache"
	"listing-portal/internal/catalog"
	"listing-portal/internal/enrich"
	"listing-portal/internal/models"
)

// ErrCatalogUnavailable marks a degraded-empty result: the catalog
// service could not be reached, as opposed to a genuine zero-match.
var ErrCatalogUnavailable = errors.New("catalog service unavailable")

// DefaultPageSize is used when the caller does not set a page size
const DefaultPageSize = 20

// CatalogSource is the slice of the catalog client the engine needs
type CatalogSource interface {
	ListAll(filter catalog.Filter) ([]models.CatalogRecord, error)
}

// Engine answers search requests over the remote catalog
type Engine struct {
	source   CatalogSource
	cache    *cache.Cache
	enricher *enrich.Engine
}

// NewEngine creates a search engine
func NewEngine(source CatalogSource, c *cache.Cache, enricher *enrich.Engine) *Engine {
	return &Engine{source: source, cache: c, enricher: enricher}
}

// Search resolves criteria, paginates, and enriches the page slice.
// On a catalog transport failure it returns an empty page together with
// an error wrapping ErrCatalogUnavailable so callers can tell "service
// unreachable" apart from "no results".
func (e *Engine) Search(criteria Criteria, page PageRequest) (*Page, error) {
	if page.Size <= 0 {
		page.Size = DefaultPageSize
	}
	if page.Index < 0 {
		page.Index = 0
	}

	start := time.Now()

	records, err := e.resolve(criteria)
	if err != nil {
		if catalog.IsTransport(err) {
			log.Printf("SearchEngine: catalog unreachable, returning degraded-empty result: %v", err)
			return emptyPage(page), fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}
		return nil, err
	}

	sortRecords(records)
	total := len(records)
	slice := paginate(records, page)

	// Enrichment is deferred past pagination so its cost is bounded by
	// the page size, not the superset size
	items, err := e.enricher.EnrichAll(slice)
	if err != nil {
		return nil, fmt.Errorf("enriching page: %w", err)
	}

	log.Printf("[Search API] duration_ms=%d total=%d page=%d size=%d pushdown=%v",
		time.Since(start).Milliseconds(), total, page.Index, page.Size, criteria.PushDownOnly())

	return &Page{
		Items:      items,
		Index:      page.Index,
		Size:       page.Size,
		TotalCount: total,
	}, nil
}

// resolve fetches the record set the criteria match. Push-down-only
// criteria issue exactly one catalog call and skip in-memory filtering;
// anything else filters the cached full snapshot.
func (e *Engine) resolve(criteria Criteria) ([]models.CatalogRecord, error) {
	if criteria.PushDownOnly() {
		return e.source.ListAll(criteria.ToFilter())
	}

	snapshot, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return applyCriteria(criteria, snapshot), nil
}

// Snapshot returns the cached full-catalog record set, loading it
// through the catalog client on a miss. Concurrent misses share one
// remote call.
func (e *Engine) Snapshot() ([]models.CatalogRecord, error) {
	value, err := e.cache.GetOrLoad(cache.AllListings, func() (interface{}, error) {
		return e.source.ListAll(catalog.Filter{})
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.CatalogRecord), nil
}

func emptyPage(page PageRequest) *Page {
	return &Page{
		Items:      []models.EnrichedRecord{},
		Index:      page.Index,
		Size:       page.Size,
		TotalCount: 0,
	}
}
