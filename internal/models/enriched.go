package models

// EnrichedRecord is a catalog record joined with locally owned reference
// data at read time. It is never persisted; it is rebuilt on every read.
// When the referenced agent or city cannot be resolved locally the
// enrichment fields stay zero-valued and the record is still returned.
type EnrichedRecord struct {
	CatalogRecord

	AgentName         string   `json:"agent_name,omitempty"`
	AgentPhone        string   `json:"agent_phone,omitempty"`
	AgentRating       *float64 `json:"agent_rating,omitempty"`
	AgentListingCount *int     `json:"agent_listing_count,omitempty"`
	CityName          string   `json:"city_name,omitempty"`
	CategoryName      string   `json:"category_name,omitempty"`
}
