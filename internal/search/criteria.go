package search

import (
	"listing-portal/internal/catalog"
	"listing-portal/internal/models"
)

// Criteria is an immutable set of filter conditions. City, category, max
// price and free-text can be evaluated by the catalog service itself;
// everything else must be applied in memory after retrieval.
type Criteria struct {
	Query        string
	CityID       *uint
	CategoryID   *uint
	MaxPrice     *float64
	MinPrice     *float64
	MinBedrooms  *int
	MinBathrooms *int
}

// PushDownOnly reports whether every set predicate belongs to the
// catalog service's push-down set.
func (c Criteria) PushDownOnly() bool {
	return c.MinPrice == nil && c.MinBedrooms == nil && c.MinBathrooms == nil
}

// ToFilter maps the push-down predicates onto a catalog filter
func (c Criteria) ToFilter() catalog.Filter {
	return catalog.Filter{
		CityID:     c.CityID,
		CategoryID: c.CategoryID,
		MaxPrice:   c.MaxPrice,
		Query:      c.Query,
	}
}

// PageRequest selects one page of results
type PageRequest struct {
	Index int
	Size  int
}

// Page is one page of enriched search results with total-count metadata
type Page struct {
	Items      []models.EnrichedRecord `json:"items"`
	Index      int                     `json:"page"`
	Size       int                     `json:"size"`
	TotalCount int                     `json:"total_count"`
}
