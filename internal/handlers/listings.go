package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"listing-portal/internal/cache"
	"listing-portal/internal/catalog"
	"listing-portal/internal/listings"
	"listing-portal/internal/models"
	"listing-portal/internal/reference"
	"listing-portal/internal/search"
)

var validate = validator.New()

var errAgentNotFound = errors.New("agent not found")

// ListingHandler handles listing and search requests
type ListingHandler struct {
	service *listings.Service
	engine  *search.Engine
	refs    reference.Store
	cache   *cache.Cache
}

// NewListingHandler creates a listing handler
func NewListingHandler(service *listings.Service, engine *search.Engine, refs reference.Store, c *cache.Cache) *ListingHandler {
	return &ListingHandler{
		service: service,
		engine:  engine,
		refs:    refs,
		cache:   c,
	}
}

// Search handles GET /api/listings
func (h *ListingHandler) Search(c *gin.Context) {
	criteria := search.Criteria{
		Query: c.Query("q"),
	}

	if cityIDStr := c.Query("city_id"); cityIDStr != "" {
		if cityID, err := strconv.ParseUint(cityIDStr, 10, 32); err == nil {
			id := uint(cityID)
			criteria.CityID = &id
		}
	}
	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		if categoryID, err := strconv.ParseUint(categoryIDStr, 10, 32); err == nil {
			id := uint(categoryID)
			criteria.CategoryID = &id
		}
	}
	if maxPriceStr := c.Query("max_price"); maxPriceStr != "" {
		if maxPrice, err := strconv.ParseFloat(maxPriceStr, 64); err == nil {
			criteria.MaxPrice = &maxPrice
		}
	}
	if minPriceStr := c.Query("min_price"); minPriceStr != "" {
		if minPrice, err := strconv.ParseFloat(minPriceStr, 64); err == nil {
			criteria.MinPrice = &minPrice
		}
	}
	if minBedroomsStr := c.Query("min_bedrooms"); minBedroomsStr != "" {
		if minBedrooms, err := strconv.Atoi(minBedroomsStr); err == nil {
			criteria.MinBedrooms = &minBedrooms
		}
	}
	if minBathroomsStr := c.Query("min_bathrooms"); minBathroomsStr != "" {
		if minBathrooms, err := strconv.Atoi(minBathroomsStr); err == nil {
			criteria.MinBathrooms = &minBathrooms
		}
	}

	page := search.PageRequest{}
	if pageStr := c.Query("page"); pageStr != "" {
		if index, err := strconv.Atoi(pageStr); err == nil && index >= 0 {
			page.Index = index
		}
	}
	if sizeStr := c.Query("size"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			page.Size = size
		}
	}

	result, err := h.engine.Search(criteria, page)
	if err != nil {
		// "service unreachable" must stay distinguishable from "zero
		// results": the empty page ships with a degraded flag and 503
		if errors.Is(err, search.ErrCatalogUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":    "catalog service unavailable",
				"degraded": true,
				"result":   result,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	record, err := h.service.Get(id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Featured handles GET /api/listings/featured
func (h *ListingHandler) Featured(c *gin.Context) {
	records, err := h.service.Featured()
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": records,
		"count":    len(records),
	})
}

// CreateListingRequest is the payload for creating a listing
type CreateListingRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Status      string   `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE INACTIVE"`
	Bedrooms    *int     `json:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms   *int     `json:"bathrooms" validate:"omitempty,gte=0"`
	Area        *float64 `json:"area" validate:"omitempty,gt=0"`
	Address     string   `json:"address" validate:"max=500"`
	AgentID     uint     `json:"agent_id" validate:"required"`
	CityID      uint     `json:"city_id" validate:"required"`
	CategoryID  uint     `json:"category_id" validate:"required"`
	Featured    bool     `json:"featured"`
	Images      []string `json:"images" validate:"dive,url"`
}

// Create handles POST /api/listings
func (h *ListingHandler) Create(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.CatalogStatus(req.Status)
	if status == "" {
		status = models.CatalogStatusDraft
	}

	record, err := h.service.Create(catalog.RecordSpec{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Status:      status,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Area:        req.Area,
		Address:     req.Address,
		AgentID:     req.AgentID,
		CityID:      req.CityID,
		CategoryID:  req.CategoryID,
		Featured:    req.Featured,
		Images:      req.Images,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// UpdateListingRequest is the payload for a partial listing update
type UpdateListingRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Status      *string  `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE INACTIVE"`
	Bedrooms    *int     `json:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms   *int     `json:"bathrooms" validate:"omitempty,gte=0"`
	Area        *float64 `json:"area" validate:"omitempty,gt=0"`
	Address     *string  `json:"address" validate:"omitempty,max=500"`
	Featured    *bool    `json:"featured"`
	Images      []string `json:"images" validate:"dive,url"`
}

// Update handles PUT /api/listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := catalog.RecordPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Area:        req.Area,
		Address:     req.Address,
		Featured:    req.Featured,
		Images:      req.Images,
	}
	if req.Status != nil {
		status := models.CatalogStatus(*req.Status)
		patch.Status = &status
	}

	record, err := h.service.Update(id, patch)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Delete handles DELETE /api/listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	if err := h.service.Delete(id); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// InquiryRequest is the payload for a listing inquiry
type InquiryRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=2000"`
}

// SubmitInquiry handles POST /api/listings/:id/inquiries
func (h *ListingHandler) SubmitInquiry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	var req InquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SubmitInquiry(id, listings.Inquiry{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "inquiry submitted"})
}

// Cities handles GET /api/cities (cached reference snapshot)
func (h *ListingHandler) Cities(c *gin.Context) {
	value, err := h.cache.GetOrLoad(cache.Cities, func() (interface{}, error) {
		return h.refs.AllCities()
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, value)
}

// Categories handles GET /api/categories (cached reference snapshot)
func (h *ListingHandler) Categories(c *gin.Context) {
	value, err := h.cache.GetOrLoad(cache.Categories, func() (interface{}, error) {
		return h.refs.AllCategories()
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, value)
}

// GetAgent handles GET /api/agents/:id (agent-stats cache entry)
func (h *ListingHandler) GetAgent(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	id := uint(id64)

	// A miss is not cached: failed loads leave no entry behind, so a
	// later registration is picked up immediately
	value, err := h.cache.GetOrLoad(cache.AgentStats(id), func() (interface{}, error) {
		agent, err := h.refs.AgentByID(id)
		if err != nil {
			return nil, err
		}
		if agent == nil {
			return nil, errAgentNotFound
		}
		return agent, nil
	})
	if errors.Is(err, errAgentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, value.(*models.Agent))
}

// respondCatalogError maps the catalog error taxonomy onto HTTP
// responses. Remote rejections keep their status and reason verbatim.
func respondCatalogError(c *gin.Context, err error) {
	if catalog.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}

	var remoteErr *catalog.RemoteError
	if errors.As(err, &remoteErr) {
		status := remoteErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": remoteErr.Message})
		return
	}

	if catalog.IsTransport(err) {
		log.Printf("Handlers: catalog unreachable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog service unavailable"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
