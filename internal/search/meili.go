package search

import (
	"encoding/json"
	"strconv"

	"github.com/meilisearch/meilisearch-go"

	"listing-portal/internal/models"
)

// MeiliClient maintains a full-text index over catalog snapshots for the
// advanced search endpoint. The core search path never depends on it.
type MeiliClient struct {
	client *meilisearch.Client
	index  string
}

// NewMeiliClient creates a Meilisearch client for the listings index
func NewMeiliClient(host, apiKey string) *MeiliClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &MeiliClient{
		client: client,
		index:  "listings",
	}
}

// InitIndex initializes the Meilisearch index
func (m *MeiliClient) InitIndex() error {
	_, err := m.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        m.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = m.client.Index(m.index).UpdateSearchableAttributes(&[]string{
		"title",
		"description",
		"address",
	})
	if err != nil {
		return err
	}

	_, err = m.client.Index(m.index).UpdateFilterableAttributes(&[]string{
		"id",
		"price",
		"status",
		"bedrooms",
		"bathrooms",
		"area",
		"city_id",
		"category_id",
		"agent_id",
		"featured",
	})
	if err != nil {
		return err
	}

	_, err = m.client.Index(m.index).UpdateSortableAttributes(&[]string{
		"price",
		"area",
		"bedrooms",
		"created_at",
	})
	if err != nil {
		return err
	}

	return nil
}

// IndexRecords adds or replaces catalog records in the index
func (m *MeiliClient) IndexRecords(records []models.CatalogRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(m.index).AddDocuments(records, "id")
	return err
}

// DeleteRecord removes one record from the index
func (m *MeiliClient) DeleteRecord(id int64) error {
	_, err := m.client.Index(m.index).DeleteDocument(strconv.FormatInt(id, 10))
	return err
}

// AdvancedRequest carries filter/sort/facet parameters for the advanced
// search endpoint
type AdvancedRequest struct {
	Query        string
	Limit        int64
	Offset       int64
	Filter       []string
	Sort         []string
	FacetsFilter []string
}

// AdvancedResult is the advanced search response
type AdvancedResult struct {
	Hits           []models.CatalogRecord
	TotalHits      int64
	Facets         interface{}
	ProcessingTime int64
}

// AdvancedSearch performs a filtered, faceted full-text search
func (m *MeiliClient) AdvancedSearch(req AdvancedRequest) (*AdvancedResult, error) {
	searchReq := &meilisearch.SearchRequest{
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if len(req.Filter) > 0 {
		searchReq.Filter = req.Filter
	}
	if len(req.Sort) > 0 {
		searchReq.Sort = req.Sort
	}
	if len(req.FacetsFilter) > 0 {
		searchReq.Facets = req.FacetsFilter
	}

	searchRes, err := m.client.Index(m.index).Search(req.Query, searchReq)
	if err != nil {
		return nil, err
	}

	// Convert hits back to catalog records via JSON round trip
	var hits []models.CatalogRecord
	for _, hit := range searchRes.Hits {
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var record models.CatalogRecord
		if err := json.Unmarshal(hitJSON, &record); err != nil {
			continue
		}

		hits = append(hits, record)
	}

	return &AdvancedResult{
		Hits:           hits,
		TotalHits:      searchRes.EstimatedTotalHits,
		Facets:         searchRes.FacetDistribution,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}
