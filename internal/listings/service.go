// Package listings is the write path and single-record read path over
// the remote catalog. Every successful write invalidates the cache
// entries whose content could now be stale.
package listings

import (
	"fmt"
	"log"
	"time"

	"listing-portal/internal/cache"
	"listing-portal/internal/catalog"
	"listing-portal/internal/enrich"
	"listing-portal/internal/events"
	"listing-portal/internal/models"
	"listing-portal/internal/search"
)

// CatalogAPI is the slice of the catalog client the service needs
type CatalogAPI interface {
	ListAll(filter catalog.Filter) ([]models.CatalogRecord, error)
	GetByID(id int64) (*models.CatalogRecord, error)
	Create(spec catalog.RecordSpec) (*models.CatalogRecord, error)
	Update(id int64, patch catalog.RecordPatch) (*models.CatalogRecord, error)
	Delete(id int64) error
}

// Service coordinates catalog writes, cache invalidation, enrichment
// and the search index
type Service struct {
	client    CatalogAPI
	cache     *cache.Cache
	enricher  *enrich.Engine
	publisher events.Publisher
	meili     *search.MeiliClient
}

// NewService creates a listings service. meili may be nil when the
// advanced search index is not configured.
func NewService(client CatalogAPI, c *cache.Cache, enricher *enrich.Engine, publisher events.Publisher, meili *search.MeiliClient) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		client:    client,
		cache:     c,
		enricher:  enricher,
		publisher: publisher,
		meili:     meili,
	}
}

// Get returns one enriched listing. catalog.ErrNotFound passes through
// untouched so handlers can answer 404.
func (s *Service) Get(id int64) (*models.EnrichedRecord, error) {
	record, err := s.client.GetByID(id)
	if err != nil {
		return nil, err
	}

	enriched, err := s.enricher.Enrich(*record)
	if err != nil {
		return nil, err
	}
	return &enriched, nil
}

// Featured returns the enriched featured-listings snapshot, loading it
// through the catalog client on a cache miss
func (s *Service) Featured() ([]models.EnrichedRecord, error) {
	featured := true
	value, err := s.cache.GetOrLoad(cache.FeaturedListings, func() (interface{}, error) {
		return s.client.ListAll(catalog.Filter{Featured: &featured})
	})
	if err != nil {
		return nil, err
	}
	return s.enricher.EnrichAll(value.([]models.CatalogRecord))
}

// Create submits a new listing. A remote rejection propagates unchanged
// so the caller can surface the rejection reason.
func (s *Service) Create(spec catalog.RecordSpec) (*models.CatalogRecord, error) {
	record, err := s.client.Create(spec)
	if err != nil {
		return nil, err
	}

	s.invalidateAfterWrite(record.AgentID)
	s.indexRecord(record)
	return record, nil
}

// Update applies a partial update to a listing
func (s *Service) Update(id int64, patch catalog.RecordPatch) (*models.CatalogRecord, error) {
	record, err := s.client.Update(id, patch)
	if err != nil {
		return nil, err
	}

	s.invalidateAfterWrite(record.AgentID)
	s.indexRecord(record)
	return record, nil
}

// Delete removes a listing
func (s *Service) Delete(id int64) error {
	if err := s.client.Delete(id); err != nil {
		return err
	}

	s.invalidateAfterWrite(0)
	if s.meili != nil {
		if err := s.meili.DeleteRecord(id); err != nil {
			log.Printf("Listings: failed to deindex record %d: %v", id, err)
		}
	}
	return nil
}

// Inquiry is a visitor message about a listing
type Inquiry struct {
	Name    string
	Email   string
	Message string
}

// SubmitInquiry resolves the listing and fires the inquiry notification
// event off the critical path. The event's failure never fails the
// request; only an unknown listing id does.
func (s *Service) SubmitInquiry(listingID int64, inquiry Inquiry) error {
	record, err := s.client.GetByID(listingID)
	if err != nil {
		return err
	}

	events.Emit(s.publisher, events.TopicInquiries, fmt.Sprint(record.AgentID), events.InquiryCreated{
		EventID:   events.NewEventID(),
		ListingID: record.ID,
		AgentID:   record.AgentID,
		Name:      inquiry.Name,
		Email:     inquiry.Email,
		Message:   inquiry.Message,
		CreatedAt: time.Now(),
	})
	return nil
}

// invalidateAfterWrite drops every cache entry a catalog write could
// have made stale: both snapshots, plus the owning agent's stats.
func (s *Service) invalidateAfterWrite(agentID uint) {
	s.cache.Invalidate(cache.AllListings)
	s.cache.Invalidate(cache.FeaturedListings)
	if agentID != 0 {
		s.cache.Invalidate(cache.AgentStats(agentID))
	}
}

func (s *Service) indexRecord(record *models.CatalogRecord) {
	if s.meili == nil {
		return
	}
	if err := s.meili.IndexRecords([]models.CatalogRecord{*record}); err != nil {
		log.Printf("Listings: failed to index record %d: %v", record.ID, err)
	}
}
