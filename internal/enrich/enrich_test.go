package enrich

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-portal/internal/models"
	"listing-portal/internal/reference"
)

// fakeStore serves reference data from maps and counts batched lookups
type fakeStore struct {
	agents     map[uint]models.Agent
	cities     map[uint]models.City
	categories map[uint]models.Category

	agentBatchCalls    int
	cityBatchCalls     int
	categoryBatchCalls int

	failAgents bool
}

func (f *fakeStore) AgentsByIDs(ids []uint) (map[uint]models.Agent, error) {
	f.agentBatchCalls++
	if f.failAgents {
		return nil, errors.New("agents table unavailable")
	}
	out := make(map[uint]models.Agent)
	for _, id := range ids {
		if a, ok := f.agents[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (f *fakeStore) CitiesByIDs(ids []uint) (map[uint]models.City, error) {
	f.cityBatchCalls++
	out := make(map[uint]models.City)
	for _, id := range ids {
		if c, ok := f.cities[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeStore) CategoriesByIDs(ids []uint) (map[uint]models.Category, error) {
	f.categoryBatchCalls++
	out := make(map[uint]models.Category)
	for _, id := range ids {
		if c, ok := f.categories[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeStore) AgentByID(id uint) (*models.Agent, error)       { return nil, nil }
func (f *fakeStore) AllAgents() ([]models.Agent, error)             { return nil, nil }
func (f *fakeStore) CreateAgent(*models.Agent) error                { return nil }
func (f *fakeStore) UpdateAgentListingCount(uint, int) error        { return nil }
func (f *fakeStore) UpdateAgentRating(uint, float64) error          { return nil }
func (f *fakeStore) CityByID(id uint) (*models.City, error)         { return nil, nil }
func (f *fakeStore) AllCities() ([]models.City, error)              { return nil, nil }
func (f *fakeStore) CategoryByID(id uint) (*models.Category, error) { return nil, nil }
func (f *fakeStore) AllCategories() ([]models.Category, error)      { return nil, nil }
func (f *fakeStore) UserByID(id uint) (*models.User, error)         { return nil, nil }
func (f *fakeStore) UserByEmail(string) (*models.User, error)       { return nil, nil }
func (f *fakeStore) CreateUser(*models.User) error                  { return nil }

var _ reference.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		agents: map[uint]models.Agent{
			1: {ID: 1, Name: "Ana Costa", Phone: "+351 900 000 001", ListingCount: 12, Rating: 4.1},
			2: {ID: 2, Name: "Bruno Dias", Phone: "+351 900 000 002", ListingCount: 3, Rating: 3.2},
		},
		cities: map[uint]models.City{
			10: {ID: 10, Name: "Lisbon"},
			11: {ID: 11, Name: "Porto"},
		},
		categories: map[uint]models.Category{
			20: {ID: 20, Name: "Apartment"},
		},
	}
}

func record(id int64, agentID, cityID, categoryID uint) models.CatalogRecord {
	return models.CatalogRecord{
		ID:         id,
		Title:      "Listing",
		Status:     models.CatalogStatusActive,
		AgentID:    agentID,
		CityID:     cityID,
		CategoryID: categoryID,
		CreatedAt:  time.Now(),
	}
}

func TestEnrichAllJoinsReferenceData(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	records := []models.CatalogRecord{
		record(100, 1, 10, 20),
		record(101, 2, 11, 20),
	}

	enriched, err := engine.EnrichAll(records)
	require.NoError(t, err)
	require.Len(t, enriched, 2)

	assert.Equal(t, "Ana Costa", enriched[0].AgentName)
	assert.Equal(t, "+351 900 000 001", enriched[0].AgentPhone)
	require.NotNil(t, enriched[0].AgentRating)
	assert.Equal(t, 4.1, *enriched[0].AgentRating)
	require.NotNil(t, enriched[0].AgentListingCount)
	assert.Equal(t, 12, *enriched[0].AgentListingCount)
	assert.Equal(t, "Lisbon", enriched[0].CityName)
	assert.Equal(t, "Apartment", enriched[0].CategoryName)

	assert.Equal(t, "Bruno Dias", enriched[1].AgentName)
	assert.Equal(t, "Porto", enriched[1].CityName)
}

func TestEnrichAllPreservesOrderAndLength(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	records := []models.CatalogRecord{
		record(3, 1, 10, 20),
		record(1, 2, 11, 20),
		record(2, 1, 10, 20),
	}

	enriched, err := engine.EnrichAll(records)
	require.NoError(t, err)
	require.Len(t, enriched, 3)
	assert.Equal(t, int64(3), enriched[0].ID)
	assert.Equal(t, int64(1), enriched[1].ID)
	assert.Equal(t, int64(2), enriched[2].ID)
}

func TestEnrichAllMissingReferences(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	// Agent 99 and city 99 do not exist locally
	enriched, err := engine.EnrichAll([]models.CatalogRecord{record(100, 99, 99, 20)})
	require.NoError(t, err)
	require.Len(t, enriched, 1)

	assert.Equal(t, "", enriched[0].AgentName)
	assert.Nil(t, enriched[0].AgentRating)
	assert.Nil(t, enriched[0].AgentListingCount)
	assert.Equal(t, "", enriched[0].CityName)
	assert.Equal(t, "Apartment", enriched[0].CategoryName)
}

func TestEnrichAllBatchesLookups(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	records := make([]models.CatalogRecord, 0, 50)
	for i := 0; i < 50; i++ {
		agentID := uint(1 + i%2)
		cityID := uint(10 + i%2)
		records = append(records, record(int64(i), agentID, cityID, 20))
	}

	_, err := engine.EnrichAll(records)
	require.NoError(t, err)

	// One batched lookup per entity type regardless of page size
	assert.Equal(t, 1, store.agentBatchCalls)
	assert.Equal(t, 1, store.cityBatchCalls)
	assert.Equal(t, 1, store.categoryBatchCalls)
}

func TestEnrichAllEmptyInput(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	enriched, err := engine.EnrichAll(nil)
	require.NoError(t, err)
	assert.Empty(t, enriched)
	assert.Equal(t, 0, store.agentBatchCalls)
}

func TestEnrichAllPropagatesStoreError(t *testing.T) {
	store := newFakeStore()
	store.failAgents = true
	engine := NewEngine(store)

	_, err := engine.EnrichAll([]models.CatalogRecord{record(100, 1, 10, 20)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving agents")
}

func TestEnrichSingleRecord(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	enriched, err := engine.Enrich(record(100, 1, 10, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(100), enriched.ID)
	assert.Equal(t, "Ana Costa", enriched.AgentName)
}
