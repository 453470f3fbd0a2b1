package reference

import (
	"errors"

	"gorm.io/gorm"

	"listing-portal/internal/models"
)

// GormStore is the MySQL/GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a reference store over an existing gorm.DB
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) AgentByID(id uint) (*models.Agent, error) {
	var agent models.Agent
	err := s.db.Where("id = ?", id).First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (s *GormStore) AgentsByIDs(ids []uint) (map[uint]models.Agent, error) {
	result := make(map[uint]models.Agent, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var agents []models.Agent
	if err := s.db.Where("id IN ?", ids).Find(&agents).Error; err != nil {
		return nil, err
	}
	for _, agent := range agents {
		result[agent.ID] = agent
	}
	return result, nil
}

func (s *GormStore) AllAgents() ([]models.Agent, error) {
	var agents []models.Agent
	err := s.db.Order("id ASC").Find(&agents).Error
	return agents, err
}

func (s *GormStore) CreateAgent(agent *models.Agent) error {
	return s.db.Create(agent).Error
}

func (s *GormStore) UpdateAgentListingCount(id uint, count int) error {
	return s.db.Model(&models.Agent{}).
		Where("id = ?", id).
		Update("listing_count", count).Error
}

func (s *GormStore) UpdateAgentRating(id uint, rating float64) error {
	return s.db.Model(&models.Agent{}).
		Where("id = ?", id).
		Update("rating", rating).Error
}

func (s *GormStore) CityByID(id uint) (*models.City, error) {
	var city models.City
	err := s.db.Where("id = ?", id).First(&city).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &city, nil
}

func (s *GormStore) CitiesByIDs(ids []uint) (map[uint]models.City, error) {
	result := make(map[uint]models.City, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var cities []models.City
	if err := s.db.Where("id IN ?", ids).Find(&cities).Error; err != nil {
		return nil, err
	}
	for _, city := range cities {
		result[city.ID] = city
	}
	return result, nil
}

func (s *GormStore) AllCities() ([]models.City, error) {
	var cities []models.City
	err := s.db.Order("name ASC").Find(&cities).Error
	return cities, err
}

func (s *GormStore) CategoryByID(id uint) (*models.Category, error) {
	var category models.Category
	err := s.db.Where("id = ?", id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *GormStore) CategoriesByIDs(ids []uint) (map[uint]models.Category, error) {
	result := make(map[uint]models.Category, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var categories []models.Category
	if err := s.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	for _, category := range categories {
		result[category.ID] = category
	}
	return result, nil
}

func (s *GormStore) AllCategories() ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (s *GormStore) UserByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) UserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}
