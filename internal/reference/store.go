// Package reference provides id-keyed lookups over the locally owned
// identity data (agents, cities, categories, users). Lookups are either
// exact-match by id or "all of type X"; batched variants exist so the
// enrichment engine resolves a whole page in one query per entity type.
package reference

import "listing-portal/internal/models"

// Store is the local reference data boundary. Single-entity lookups
// return (nil, nil) when the id does not resolve; batched lookups simply
// omit missing ids from the result map.
type Store interface {
	AgentByID(id uint) (*models.Agent, error)
	AgentsByIDs(ids []uint) (map[uint]models.Agent, error)
	AllAgents() ([]models.Agent, error)
	CreateAgent(agent *models.Agent) error
	UpdateAgentListingCount(id uint, count int) error
	UpdateAgentRating(id uint, rating float64) error

	CityByID(id uint) (*models.City, error)
	CitiesByIDs(ids []uint) (map[uint]models.City, error)
	AllCities() ([]models.City, error)

	CategoryByID(id uint) (*models.Category, error)
	CategoriesByIDs(ids []uint) (map[uint]models.Category, error)
	AllCategories() ([]models.Category, error)

	UserByID(id uint) (*models.User, error)
	UserByEmail(email string) (*models.User, error)
	CreateUser(user *models.User) error
}
