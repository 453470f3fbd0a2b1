package models

import "time"

// CatalogStatus is the lifecycle status of a catalog record
type CatalogStatus string

const (
	CatalogStatusDraft    CatalogStatus = "DRAFT"
	CatalogStatusActive   CatalogStatus = "ACTIVE"
	CatalogStatusInactive CatalogStatus = "INACTIVE"
)

// CatalogRecord is a listing as returned by the remote catalog service.
// The identifier is assigned remotely; this system never invents one.
// Numeric attributes are pointers because the remote service may omit them.
type CatalogRecord struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Price       *float64      `json:"price,omitempty"`
	Status      CatalogStatus `json:"status"`
	Bedrooms    *int          `json:"bedrooms,omitempty"`
	Bathrooms   *int          `json:"bathrooms,omitempty"`
	Area        *float64      `json:"area,omitempty"`
	Address     string        `json:"address,omitempty"`
	AgentID     uint          `json:"agent_id"`
	CityID      uint          `json:"city_id"`
	CategoryID  uint          `json:"category_id"`
	Featured    bool          `json:"featured"`
	Images      []string      `json:"images,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsListed reports whether the record counts toward an agent's listing total
func (r *CatalogRecord) IsListed() bool {
	return r.Status == CatalogStatusActive || r.Status == CatalogStatusDraft
}
