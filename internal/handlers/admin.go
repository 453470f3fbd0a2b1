package handlers

import (
	"log"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"listing-portal/internal/cache"
	"listing-portal/internal/models"
	"listing-portal/internal/reconcile"
	"listing-portal/internal/reference"
	"listing-portal/internal/search"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	engine *search.Engine
	refs   reference.Store
	cache  *cache.Cache
	job    *reconcile.Job
	meili  *search.MeiliClient
}

// NewAdminHandler creates a new admin handler. meili may be nil.
func NewAdminHandler(engine *search.Engine, refs reference.Store, c *cache.Cache, job *reconcile.Job, meili *search.MeiliClient) *AdminHandler {
	return &AdminHandler{
		engine: engine,
		refs:   refs,
		cache:  c,
		job:    job,
		meili:  meili,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	snapshot, err := h.engine.Snapshot()
	if err != nil {
		log.Printf("Admin: failed to load catalog snapshot for stats: %v", err)
		stats["catalog"] = gin.H{"error": "catalog service unavailable"}
	} else {
		var active, draft, inactive, listed, featured int
		for _, record := range snapshot {
			switch record.Status {
			case models.CatalogStatusActive:
				active++
			case models.CatalogStatusDraft:
				draft++
			case models.CatalogStatusInactive:
				inactive++
			}
			if record.IsListed() {
				listed++
			}
			if record.Featured {
				featured++
			}
		}
		stats["catalog"] = gin.H{
			"total":    len(snapshot),
			"active":   active,
			"draft":    draft,
			"inactive": inactive,
			"listed":   listed,
			"featured": featured,
		}
	}

	agents, err := h.refs.AllAgents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	cities, err := h.refs.AllCities()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	categories, err := h.refs.AllCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats["reference"] = gin.H{
		"agents":     len(agents),
		"cities":     len(cities),
		"categories": len(categories),
	}
	stats["cache"] = gin.H{
		"entries": h.cache.Len(),
	}

	c.JSON(http.StatusOK, stats)
}

// GetPriceDistribution returns listing counts per price bucket
func (h *AdminHandler) GetPriceDistribution(c *gin.Context) {
	type PriceRange struct {
		RangeLabel string  `json:"range_label"`
		MinPrice   float64 `json:"min_price"`
		MaxPrice   float64 `json:"max_price"`
		Count      int     `json:"count"`
	}

	ranges := []PriceRange{
		{RangeLabel: "under 100k", MinPrice: 0, MaxPrice: 100_000},
		{RangeLabel: "100k-250k", MinPrice: 100_000, MaxPrice: 250_000},
		{RangeLabel: "250k-500k", MinPrice: 250_000, MaxPrice: 500_000},
		{RangeLabel: "500k-1M", MinPrice: 500_000, MaxPrice: 1_000_000},
		{RangeLabel: "over 1M", MinPrice: 1_000_000, MaxPrice: 1_000_000_000},
	}

	snapshot, err := h.engine.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog service unavailable"})
		return
	}

	unpriced := 0
	for _, record := range snapshot {
		if record.Price == nil {
			unpriced++
			continue
		}
		for i := range ranges {
			if *record.Price >= ranges[i].MinPrice && *record.Price < ranges[i].MaxPrice {
				ranges[i].Count++
				break
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"price_distribution": ranges,
		"unpriced":           unpriced,
	})
}

// GetCityStats returns listing counts per city
func (h *AdminHandler) GetCityStats(c *gin.Context) {
	type CityStat struct {
		CityID uint   `json:"city_id"`
		Name   string `json:"name"`
		Count  int    `json:"count"`
	}

	snapshot, err := h.engine.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog service unavailable"})
		return
	}

	counts := make(map[uint]int)
	for _, record := range snapshot {
		if record.CityID != 0 {
			counts[record.CityID]++
		}
	}

	cityIDs := make([]uint, 0, len(counts))
	for id := range counts {
		cityIDs = append(cityIDs, id)
	}
	cities, err := h.refs.CitiesByIDs(cityIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats := make([]CityStat, 0, len(counts))
	for id, count := range counts {
		stat := CityStat{CityID: id, Count: count}
		if city, ok := cities[id]; ok {
			stat.Name = city.Name
		}
		stats = append(stats, stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].CityID < stats[j].CityID
		}
		return stats[i].Count > stats[j].Count
	})
	if len(stats) > 20 {
		stats = stats[:20]
	}

	c.JSON(http.StatusOK, gin.H{
		"city_stats": stats,
		"count":      len(stats),
	})
}

// CreateAgentRequest is the payload for registering a local agent
type CreateAgentRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=30"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
}

// CreateAgent registers a local agent row. Derived counters start at
// zero and are corrected by the next reconciliation pass.
func (h *AdminHandler) CreateAgent(c *gin.Context) {
	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agent := &models.Agent{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
	}
	if err := h.refs.CreateAgent(agent); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Admin: registered agent %d (%s)", agent.ID, agent.Email)
	c.JSON(http.StatusCreated, agent)
}

// CreateUserRequest is the payload for registering a local user
type CreateUserRequest struct {
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"full_name" validate:"max=100"`
	PasswordHash string `json:"password_hash" validate:"required"`
	Role         string `json:"role" validate:"omitempty,oneof=user admin"`
}

// CreateUser registers a local user row. Credential hashing and
// verification happen upstream; only the hash is stored here.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if existing, err := h.refs.UserByEmail(req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	role := req.Role
	if role == "" {
		role = "user"
	}
	user := &models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: req.PasswordHash,
		Role:         role,
	}
	if err := h.refs.CreateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// TriggerReconcile manually triggers the reconciliation job
func (h *AdminHandler) TriggerReconcile(c *gin.Context) {
	log.Println("Admin: manual reconciliation trigger requested")

	// Run in goroutine to avoid blocking; an already-running job makes
	// this a logged no-op
	go func() {
		if err := h.job.RunNow(); err != nil {
			log.Printf("Admin: manual reconciliation failed: %v", err)
		} else {
			log.Println("Admin: manual reconciliation completed successfully")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Reconciliation job started",
		"status":  "running",
	})
}

// GetReconcileStatus returns the reconciliation job state
func (h *AdminHandler) GetReconcileStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.job.Status())
}

// RefreshCache invalidates every cache entry
func (h *AdminHandler) RefreshCache(c *gin.Context) {
	h.cache.InvalidateAll()
	log.Println("Admin: all cache entries invalidated")
	c.JSON(http.StatusOK, gin.H{"message": "cache invalidated"})
}

// ReindexSearch rebuilds the Meilisearch index from the catalog snapshot
func (h *AdminHandler) ReindexSearch(c *gin.Context) {
	if h.meili == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search index is not configured"})
		return
	}

	snapshot, err := h.engine.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog service unavailable"})
		return
	}

	if err := h.meili.IndexRecords(snapshot); err != nil {
		log.Printf("Admin: reindex failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Admin: reindexed %d records", len(snapshot))
	c.JSON(http.StatusOK, gin.H{
		"message": "reindex complete",
		"total":   len(snapshot),
	})
}
