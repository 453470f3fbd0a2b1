package reference

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"listing-portal/internal/models"
)

// PostgresStore is the lib/pq implementation of Store
type PostgresStore struct {
	conn *sql.DB
}

// NewPostgresStore creates a reference store over an existing sql.DB
func NewPostgresStore(conn *sql.DB) *PostgresStore {
	return &PostgresStore{conn: conn}
}

const agentColumns = "id, name, email, phone, photo_url, listing_count, rating, created_at, updated_at"

func scanAgent(row interface{ Scan(...interface{}) error }) (*models.Agent, error) {
	var a models.Agent
	var phone, photoURL sql.NullString
	err := row.Scan(&a.ID, &a.Name, &a.Email, &phone, &photoURL,
		&a.ListingCount, &a.Rating, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Phone = phone.String
	a.PhotoURL = photoURL.String
	return &a, nil
}

func (s *PostgresStore) AgentByID(id uint) (*models.Agent, error) {
	row := s.conn.QueryRow("SELECT "+agentColumns+" FROM agents WHERE id = $1", id)
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *PostgresStore) AgentsByIDs(ids []uint) (map[uint]models.Agent, error) {
	result := make(map[uint]models.Agent, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	int64IDs := make([]int64, len(ids))
	for i, id := range ids {
		int64IDs[i] = int64(id)
	}

	rows, err := s.conn.Query("SELECT "+agentColumns+" FROM agents WHERE id = ANY($1)", pq.Array(int64IDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		result[agent.ID] = *agent
	}
	return result, rows.Err()
}

func (s *PostgresStore) AllAgents() ([]models.Agent, error) {
	rows, err := s.conn.Query("SELECT " + agentColumns + " FROM agents ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []models.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

func (s *PostgresStore) CreateAgent(agent *models.Agent) error {
	return s.conn.QueryRow(`
		INSERT INTO agents (name, email, phone, photo_url, listing_count, rating)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		agent.Name, agent.Email, agent.Phone, agent.PhotoURL,
		agent.ListingCount, agent.Rating,
	).Scan(&agent.ID)
}

func (s *PostgresStore) UpdateAgentListingCount(id uint, count int) error {
	_, err := s.conn.Exec(
		"UPDATE agents SET listing_count = $1, updated_at = NOW() WHERE id = $2", count, id)
	return err
}

func (s *PostgresStore) UpdateAgentRating(id uint, rating float64) error {
	_, err := s.conn.Exec(
		"UPDATE agents SET rating = $1, updated_at = NOW() WHERE id = $2", rating, id)
	return err
}

func (s *PostgresStore) CityByID(id uint) (*models.City, error) {
	var c models.City
	var region sql.NullString
	err := s.conn.QueryRow("SELECT id, name, region FROM cities WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &region)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Region = region.String
	return &c, nil
}

func (s *PostgresStore) CitiesByIDs(ids []uint) (map[uint]models.City, error) {
	result := make(map[uint]models.City, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	int64IDs := make([]int64, len(ids))
	for i, id := range ids {
		int64IDs[i] = int64(id)
	}

	rows, err := s.conn.Query("SELECT id, name, region FROM cities WHERE id = ANY($1)", pq.Array(int64IDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.City
		var region sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &region); err != nil {
			return nil, err
		}
		c.Region = region.String
		result[c.ID] = c
	}
	return result, rows.Err()
}

func (s *PostgresStore) AllCities() ([]models.City, error) {
	rows, err := s.conn.Query("SELECT id, name, region FROM cities ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cities []models.City
	for rows.Next() {
		var c models.City
		var region sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &region); err != nil {
			return nil, err
		}
		c.Region = region.String
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

func (s *PostgresStore) CategoryByID(id uint) (*models.Category, error) {
	var c models.Category
	err := s.conn.QueryRow("SELECT id, name FROM categories WHERE id = $1", id).
		Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) CategoriesByIDs(ids []uint) (map[uint]models.Category, error) {
	result := make(map[uint]models.Category, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	int64IDs := make([]int64, len(ids))
	for i, id := range ids {
		int64IDs[i] = int64(id)
	}

	rows, err := s.conn.Query("SELECT id, name FROM categories WHERE id = ANY($1)", pq.Array(int64IDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		result[c.ID] = c
	}
	return result, rows.Err()
}

func (s *PostgresStore) AllCategories() ([]models.Category, error) {
	rows, err := s.conn.Query("SELECT id, name FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const userColumns = "id, email, full_name, password_hash, role, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var fullName sql.NullString
	err := row.Scan(&u.ID, &u.Email, &fullName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.FullName = fullName.String
	return &u, nil
}

func (s *PostgresStore) UserByID(id uint) (*models.User, error) {
	row := s.conn.QueryRow("SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *PostgresStore) UserByEmail(email string) (*models.User, error) {
	row := s.conn.QueryRow("SELECT "+userColumns+" FROM users WHERE email = $1", email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(user *models.User) error {
	return s.conn.QueryRow(`
		INSERT INTO users (email, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		user.Email, user.FullName, user.PasswordHash, user.Role,
	).Scan(&user.ID)
}
