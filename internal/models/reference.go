package models

import "time"

// Agent is a locally owned listing agent. ListingCount and Rating are
// derived from catalog data and corrected by the reconciliation job;
// they are not a source of truth.
type Agent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone        string    `gorm:"type:varchar(30)" json:"phone,omitempty"`
	PhotoURL     string    `gorm:"type:text" json:"photo_url,omitempty"`
	ListingCount int       `gorm:"type:int;not null;default:0" json:"listing_count"`
	Rating       float64   `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Agent) TableName() string {
	return "agents"
}

// City is a locally owned city lookup row
type City struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Region string `gorm:"type:varchar(100)" json:"region,omitempty"`
}

func (City) TableName() string {
	return "cities"
}

// Category is a locally owned property category (apartment, house, ...)
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
}

func (Category) TableName() string {
	return "categories"
}

// User is a locally owned account row. Credential verification happens
// outside this system; only the identity fields live here.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	FullName     string    `gorm:"type:varchar(100)" json:"full_name,omitempty"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
