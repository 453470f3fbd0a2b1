package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-portal/internal/cache"
	"listing-portal/internal/enrich"
	"listing-portal/internal/models"
	"listing-portal/internal/search"
)

func setupAdminRouter(source *fakeCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)

	refs := &fakeRefs{agents: map[uint]models.Agent{
		1: {ID: 1, Name: "Ana Costa"},
	}}

	c := cache.New()
	engine := search.NewEngine(source, c, enrich.NewEngine(refs))
	handler := NewAdminHandler(engine, refs, c, nil, nil)

	r := gin.New()
	r.GET("/api/admin/stats", handler.GetStats)
	r.GET("/api/admin/price-distribution", handler.GetPriceDistribution)
	return r
}

func TestAdminStatsCountsStatuses(t *testing.T) {
	source := &fakeCatalog{records: []models.CatalogRecord{
		{ID: 1, Status: models.CatalogStatusActive, Featured: true},
		{ID: 2, Status: models.CatalogStatusActive},
		{ID: 3, Status: models.CatalogStatusDraft},
		{ID: 4, Status: models.CatalogStatusInactive},
	}}
	r := setupAdminRouter(source)

	w := doRequest(r, http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		Catalog struct {
			Total    int `json:"total"`
			Active   int `json:"active"`
			Draft    int `json:"draft"`
			Inactive int `json:"inactive"`
			Listed   int `json:"listed"`
			Featured int `json:"featured"`
		} `json:"catalog"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.Catalog.Total)
	assert.Equal(t, 2, stats.Catalog.Active)
	assert.Equal(t, 1, stats.Catalog.Draft)
	assert.Equal(t, 1, stats.Catalog.Inactive)
	// ACTIVE and DRAFT both count as listed
	assert.Equal(t, 3, stats.Catalog.Listed)
	assert.Equal(t, 1, stats.Catalog.Featured)
}

func TestAdminPriceDistribution(t *testing.T) {
	source := &fakeCatalog{records: []models.CatalogRecord{
		{ID: 1, Price: price(90_000)},
		{ID: 2, Price: price(150_000)},
		{ID: 3, Price: price(180_000)},
		{ID: 4},
	}}
	r := setupAdminRouter(source)

	w := doRequest(r, http.MethodGet, "/api/admin/price-distribution", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		PriceDistribution []struct {
			RangeLabel string `json:"range_label"`
			Count      int    `json:"count"`
		} `json:"price_distribution"`
		Unpriced int `json:"unpriced"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.PriceDistribution, 5)
	assert.Equal(t, 1, body.PriceDistribution[0].Count)
	assert.Equal(t, 2, body.PriceDistribution[1].Count)
	assert.Equal(t, 1, body.Unpriced)
}
