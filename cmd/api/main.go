package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"listing-portal/internal/cache"
	"listing-portal/internal/catalog"
	"listing-portal/internal/config"
	"listing-portal/internal/database"
	"listing-portal/internal/enrich"
	"listing-portal/internal/events"
	"listing-portal/internal/handlers"
	"listing-portal/internal/listings"
	"listing-portal/internal/ratelimit"
	"listing-portal/internal/reconcile"
	"listing-portal/internal/reference"
	"listing-portal/internal/search"
)

var (
	appConfig    *config.Config
	appCache     *cache.Cache
	meiliClient  *search.MeiliClient
	enrichEngine *enrich.Engine
	rateLimiter  *ratelimit.RateLimiter
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize reference database based on configuration
	var refs reference.Store

	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "postgres")
	}

	if dbType == "mysql" {
		log.Println("Using MySQL with GORM")
		mysqlCfg := appConfig.Database.MySQL

		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}

		gormDB, err := database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "listing_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "listing_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "listing_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormDB.Close()

		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		refs = reference.NewGormStore(gormDB.DB())
	} else {
		log.Println("Using PostgreSQL")
		pgCfg := appConfig.Database.Postgres

		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		db, err := database.NewDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "listing_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "listing_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "listing_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		refs = reference.NewPostgresStore(db.Conn())
	}

	// Catalog service client
	catalogClient := catalog.NewClient(catalog.ClientConfig{
		BaseURL: getEnvOrConfig(appConfig.Catalog.BaseURL, "CATALOG_URL", "http://catalog:9000"),
		APIKey:  getEnvOrConfig(appConfig.Catalog.APIKey, "CATALOG_API_KEY", ""),
		Timeout: appConfig.Catalog.GetTimeout(),
	})
	log.Printf("Catalog client initialized for %s (timeout %s)",
		appConfig.Catalog.BaseURL, appConfig.Catalog.GetTimeout())

	// Cache and enrichment
	appCache = cache.New()
	enrichEngine = enrich.NewEngine(refs)

	// Search engine over the catalog snapshot
	searchEngine := search.NewEngine(catalogClient, appCache, enrichEngine)

	// Initialize Meilisearch using config
	meilisearchHost := appConfig.Search.Meilisearch.Host
	if meilisearchHost == "" {
		meilisearchHost = getEnv("MEILISEARCH_HOST", "http://meilisearch:7700")
	}
	meilisearchKey := appConfig.Search.Meilisearch.APIKey
	if meilisearchKey == "" {
		meilisearchKey = getEnv("MEILISEARCH_KEY", "masterKey123")
	}

	meiliClient = search.NewMeiliClient(meilisearchHost, meilisearchKey)

	// Wait for Meilisearch to be ready
	time.Sleep(2 * time.Second)

	if err := meiliClient.InitIndex(); err != nil {
		log.Printf("Warning: Failed to initialize search index: %v", err)
	}

	// Event publisher
	var publisher events.Publisher
	if appConfig.Events.Enabled {
		broker := getEnvOrConfig(appConfig.Events.Broker, "KAFKA_BROKER", "kafka:9092")
		publisher = events.NewKafkaPublisher(broker)
		log.Printf("Kafka event publisher initialized for %s", broker)
	} else {
		publisher = events.NopPublisher{}
		log.Println("Event publishing disabled")
	}

	// Listings service
	listingService := listings.NewService(catalogClient, appCache, enrichEngine, publisher, meiliClient)

	// Reconciliation job
	ratingSource := reconcile.NewActivityRatingSource(catalogClient)
	reconcileJob := reconcile.NewJob(catalogClient, refs, appCache, ratingSource, publisher, appConfig.Reconcile)
	if err := reconcileJob.Start(); err != nil {
		log.Printf("Warning: Failed to start reconciliation job: %v", err)
	}
	defer reconcileJob.Stop()

	// Initialize rate limiter
	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour, %d req/day (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5176"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	listingHandler := handlers.NewListingHandler(listingService, searchEngine, refs, appCache)
	adminHandler := handlers.NewAdminHandler(searchEngine, refs, appCache, reconcileJob, meiliClient)

	// Routes
	r.GET("/health", healthCheck)

	r.GET("/api/listings", listingHandler.Search)
	r.GET("/api/listings/featured", listingHandler.Featured)
	r.GET("/api/listings/:id", listingHandler.Get)
	r.POST("/api/listings/:id/inquiries", rateLimiter.Middleware(), listingHandler.SubmitInquiry)

	// Write routes with rate limiting
	r.POST("/api/listings", rateLimiter.Middleware(), listingHandler.Create)
	r.PUT("/api/listings/:id", rateLimiter.Middleware(), listingHandler.Update)
	r.DELETE("/api/listings/:id", rateLimiter.Middleware(), listingHandler.Delete)

	// Reference data
	r.GET("/api/cities", listingHandler.Cities)
	r.GET("/api/categories", listingHandler.Categories)
	r.GET("/api/agents/:id", listingHandler.GetAgent)

	// Full-text search backed by Meilisearch
	r.POST("/api/search/advanced", advancedSearch)

	// Rate limiter stats endpoint
	r.GET("/api/ratelimit/stats", getRateLimitStats)

	// Admin API routes (requires authentication in production)
	admin := r.Group("/api/admin")
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/price-distribution", adminHandler.GetPriceDistribution)
		admin.GET("/city-stats", adminHandler.GetCityStats)

		admin.POST("/reconcile/trigger", adminHandler.TriggerReconcile)
		admin.GET("/reconcile/status", adminHandler.GetReconcileStatus)

		admin.POST("/agents", adminHandler.CreateAgent)
		admin.POST("/users", adminHandler.CreateUser)

		admin.POST("/cache/refresh", adminHandler.RefreshCache)
		admin.POST("/search/reindex", adminHandler.ReindexSearch)
	}
	log.Println("Admin API routes registered at /api/admin/*")

	port := getEnv("PORT", "8084")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// advancedSearch exposes the Meilisearch index with filters, sorting and
// facets. Hits are enriched the same way as the core search results.
func advancedSearch(c *gin.Context) {
	var req struct {
		Query  string   `json:"query"`
		Limit  int64    `json:"limit"`
		Offset int64    `json:"offset"`
		Filter []string `json:"filter"`
		Sort   []string `json:"sort"`
		Facets []string `json:"facets"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	result, err := meiliClient.AdvancedSearch(search.AdvancedRequest{
		Query:        req.Query,
		Limit:        req.Limit,
		Offset:       req.Offset,
		Filter:       req.Filter,
		Sort:         req.Sort,
		FacetsFilter: req.Facets,
	})
	if err != nil {
		log.Printf("Advanced search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	enriched, err := enrichEngine.EnrichAll(result.Hits)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hits":               enriched,
		"total_hits":         result.TotalHits,
		"facets":             result.Facets,
		"processing_time_ms": result.ProcessingTime,
	})
}

func getRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, rateLimiter.GetStats())
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvOrConfig prefers the config value, falls back to env, then default
func getEnvOrConfig(configValue, envKey, fallback string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, fallback)
}
