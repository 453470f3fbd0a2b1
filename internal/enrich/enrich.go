// Package enrich joins catalog records with locally owned reference data
// at read time. Foreign keys are resolved in one batched lookup per
// entity type, never one lookup per record.
package enrich

import (
	"fmt"

	"listing-portal/internal/models"
	"listing-portal/internal/reference"
)

// Engine builds enriched records from catalog records
type Engine struct {
	refs reference.Store
}

// NewEngine creates an enrichment engine over the given reference store
func NewEngine(refs reference.Store) *Engine {
	return &Engine{refs: refs}
}

// Enrich joins a single catalog record with its reference data
func (e *Engine) Enrich(record models.CatalogRecord) (models.EnrichedRecord, error) {
	enriched, err := e.EnrichAll([]models.CatalogRecord{record})
	if err != nil {
		return models.EnrichedRecord{}, err
	}
	return enriched[0], nil
}

// EnrichAll joins a batch of catalog records with reference data. Output
// order and length match the input exactly. A record whose agent or city
// cannot be resolved locally keeps zero-valued enrichment fields; it is
// never dropped.
func (e *Engine) EnrichAll(records []models.CatalogRecord) ([]models.EnrichedRecord, error) {
	enriched := make([]models.EnrichedRecord, 0, len(records))
	if len(records) == 0 {
		return enriched, nil
	}

	agentIDs := distinctIDs(records, func(r models.CatalogRecord) uint { return r.AgentID })
	cityIDs := distinctIDs(records, func(r models.CatalogRecord) uint { return r.CityID })
	categoryIDs := distinctIDs(records, func(r models.CatalogRecord) uint { return r.CategoryID })

	agents, err := e.refs.AgentsByIDs(agentIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving agents: %w", err)
	}
	cities, err := e.refs.CitiesByIDs(cityIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving cities: %w", err)
	}
	categories, err := e.refs.CategoriesByIDs(categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving categories: %w", err)
	}

	for _, record := range records {
		item := models.EnrichedRecord{CatalogRecord: record}

		if agent, ok := agents[record.AgentID]; ok {
			item.AgentName = agent.Name
			item.AgentPhone = agent.Phone
			rating := agent.Rating
			count := agent.ListingCount
			item.AgentRating = &rating
			item.AgentListingCount = &count
		}
		if city, ok := cities[record.CityID]; ok {
			item.CityName = city.Name
		}
		if category, ok := categories[record.CategoryID]; ok {
			item.CategoryName = category.Name
		}

		enriched = append(enriched, item)
	}

	return enriched, nil
}

// distinctIDs collects the distinct non-zero ids referenced by a batch
func distinctIDs(records []models.CatalogRecord, key func(models.CatalogRecord) uint) []uint {
	seen := make(map[uint]bool, len(records))
	var ids []uint
	for _, record := range records {
		id := key(record)
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
