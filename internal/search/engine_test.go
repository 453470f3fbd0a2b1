package search

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-portal/internal/cache"
	"listing-portal/internal/catalog"
	"listing-portal/internal/enrich"
	"listing-portal/internal/models"
	"listing-portal/internal/reference"
)

// stubSource records catalog calls and serves canned record sets
type stubSource struct {
	mu      sync.Mutex
	calls   int
	filters []catalog.Filter
	records []models.CatalogRecord
	err     error
	block   chan struct{}
}

func (s *stubSource) ListAll(filter catalog.Filter) ([]models.CatalogRecord, error) {
	s.mu.Lock()
	s.calls++
	s.filters = append(s.filters, filter)
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.CatalogRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// emptyStore satisfies reference.Store with no data, so enrichment is a
// pass-through in engine tests
type emptyStore struct{}

func (emptyStore) AgentByID(uint) (*models.Agent, error)                    { return nil, nil }
func (emptyStore) AgentsByIDs([]uint) (map[uint]models.Agent, error)        { return nil, nil }
func (emptyStore) AllAgents() ([]models.Agent, error)                       { return nil, nil }
func (emptyStore) CreateAgent(*models.Agent) error                          { return nil }
func (emptyStore) UpdateAgentListingCount(uint, int) error                  { return nil }
func (emptyStore) UpdateAgentRating(uint, float64) error                    { return nil }
func (emptyStore) CityByID(uint) (*models.City, error)                      { return nil, nil }
func (emptyStore) CitiesByIDs([]uint) (map[uint]models.City, error)         { return nil, nil }
func (emptyStore) AllCities() ([]models.City, error)                        { return nil, nil }
func (emptyStore) CategoryByID(uint) (*models.Category, error)              { return nil, nil }
func (emptyStore) CategoriesByIDs([]uint) (map[uint]models.Category, error) { return nil, nil }
func (emptyStore) AllCategories() ([]models.Category, error)                { return nil, nil }
func (emptyStore) UserByID(uint) (*models.User, error)                      { return nil, nil }
func (emptyStore) UserByEmail(string) (*models.User, error)                 { return nil, nil }
func (emptyStore) CreateUser(*models.User) error                            { return nil }

var _ reference.Store = emptyStore{}

func newTestEngine(source *stubSource) (*Engine, *cache.Cache) {
	c := cache.New()
	return NewEngine(source, c, enrich.NewEngine(emptyStore{})), c
}

func catalogOf(n int) []models.CatalogRecord {
	records := make([]models.CatalogRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.CatalogRecord{
			ID:        int64(i + 1),
			Title:     "Listing",
			Status:    models.CatalogStatusActive,
			Price:     floatPtr(float64(100_000 + i*10_000)),
			Bedrooms:  intPtr(1 + i%4),
			CreatedAt: at(1 + i%28),
		})
	}
	return records
}

func TestSearchPushDownIssuesOneCatalogCall(t *testing.T) {
	source := &stubSource{records: catalogOf(5)}
	engine, c := newTestEngine(source)

	result, err := engine.Search(Criteria{
		Query:    "listing",
		CityID:   uintPtr(10),
		MaxPrice: floatPtr(500_000),
	}, PageRequest{Index: 0, Size: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, source.callCount())
	assert.Equal(t, 5, result.TotalCount)
	assert.Len(t, result.Items, 5)

	// The push-down path must not populate the snapshot cache
	_, ok := c.Get(cache.AllListings)
	assert.False(t, ok)

	// Predicates were forwarded to the catalog service
	require.Len(t, source.filters, 1)
	assert.Equal(t, "listing", source.filters[0].Query)
	require.NotNil(t, source.filters[0].CityID)
	assert.Equal(t, uint(10), *source.filters[0].CityID)
}

func TestSearchInMemoryPathUsesSnapshot(t *testing.T) {
	source := &stubSource{records: catalogOf(10)}
	engine, c := newTestEngine(source)

	// MinBedrooms forces the in-memory path over the full snapshot
	result, err := engine.Search(Criteria{MinBedrooms: intPtr(3)}, PageRequest{Size: 20})
	require.NoError(t, err)

	assert.Equal(t, 1, source.callCount())
	require.Len(t, source.filters, 1)
	assert.True(t, source.filters[0].IsEmpty())

	for _, item := range result.Items {
		require.NotNil(t, item.Bedrooms)
		assert.GreaterOrEqual(t, *item.Bedrooms, 3)
	}

	_, ok := c.Get(cache.AllListings)
	assert.True(t, ok)

	// A second in-memory search is served from the cached snapshot
	_, err = engine.Search(Criteria{MinPrice: floatPtr(120_000)}, PageRequest{Size: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, source.callCount())
}

func TestSearchSortsNewestFirst(t *testing.T) {
	source := &stubSource{records: []models.CatalogRecord{
		{ID: 1, CreatedAt: at(1)},
		{ID: 2, CreatedAt: at(5)},
		{ID: 3, CreatedAt: at(5)},
		{ID: 4, CreatedAt: at(3)},
	}}
	engine, _ := newTestEngine(source)

	result, err := engine.Search(Criteria{}, PageRequest{Size: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 4)

	ids := make([]int64, 0, 4)
	for _, item := range result.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []int64{2, 3, 4, 1}, ids)
}

func TestSearchPagination(t *testing.T) {
	source := &stubSource{records: catalogOf(45)}
	engine, _ := newTestEngine(source)

	seen := make(map[int64]bool)
	for index := 0; index < 3; index++ {
		result, err := engine.Search(Criteria{}, PageRequest{Index: index, Size: 20})
		require.NoError(t, err)
		assert.Equal(t, 45, result.TotalCount)
		for _, item := range result.Items {
			assert.False(t, seen[item.ID], "record %d appeared twice", item.ID)
			seen[item.ID] = true
		}
	}
	assert.Len(t, seen, 45)

	// Out-of-range page keeps the true total
	result, err := engine.Search(Criteria{}, PageRequest{Index: 9, Size: 20})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 45, result.TotalCount)
}

func TestSearchDefaultsPageSize(t *testing.T) {
	source := &stubSource{records: catalogOf(30)}
	engine, _ := newTestEngine(source)

	result, err := engine.Search(Criteria{}, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, result.Size)
	assert.Len(t, result.Items, DefaultPageSize)
}

func TestSearchDegradedEmptyOnTransportFailure(t *testing.T) {
	source := &stubSource{err: &catalog.TransportError{
		Op:  "list records",
		Err: errors.New("connection refused"),
	}}
	engine, _ := newTestEngine(source)

	result, err := engine.Search(Criteria{}, PageRequest{Index: 2, Size: 10})
	require.ErrorIs(t, err, ErrCatalogUnavailable)

	require.NotNil(t, result)
	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.TotalCount)
	assert.Equal(t, 2, result.Index)
	assert.Equal(t, 10, result.Size)
}

func TestConcurrentSnapshotLoadsShareOneCall(t *testing.T) {
	source := &stubSource{
		records: catalogOf(5),
		block:   make(chan struct{}),
	}
	engine, _ := newTestEngine(source)

	var wg sync.WaitGroup
	var failures int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.Search(Criteria{MinBedrooms: intPtr(1)}, PageRequest{Size: 10})
			if err != nil || result.TotalCount != 5 {
				atomic.AddInt32(&failures, 1)
			}
		}()
	}

	// Let both searches reach the snapshot load before releasing it
	for source.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(source.block)
	wg.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&failures))
	assert.Equal(t, 1, source.callCount())
}

func TestSnapshotReloadAfterInvalidation(t *testing.T) {
	source := &stubSource{records: catalogOf(3)}
	engine, c := newTestEngine(source)

	_, err := engine.Snapshot()
	require.NoError(t, err)
	_, err = engine.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, source.callCount())

	c.Invalidate(cache.AllListings)

	_, err = engine.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, source.callCount())
}
