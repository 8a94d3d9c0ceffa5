package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PantryItem is one ingredient a user has on hand, with an optional expiry
// date used by the daily expiring-items sweep.
type PantryItem struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Quantity   string         `gorm:"size:50" json:"quantity"`
	Unit       string         `gorm:"size:30" json:"unit"`
	ExpiryDate *time.Time     `gorm:"index" json:"expiry_date"`
}

type ShoppingList struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
	UserID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string             `gorm:"size:255;not null" json:"name"`
	IsCompleted bool               `gorm:"default:false" json:"is_completed"`
	Items       []ShoppingListItem `gorm:"foreignKey:ShoppingListID" json:"items"`
}

type ShoppingListItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ShoppingListID uuid.UUID `gorm:"type:uuid;not null;index" json:"shopping_list_id"`
	ItemText       string    `gorm:"size:255;not null" json:"item_text"`
	Quantity       string    `gorm:"size:50" json:"quantity"`
	Unit           string    `gorm:"size:30" json:"unit"`
	IsChecked      bool      `gorm:"default:false" json:"is_checked"`
	StoreCategory  string    `gorm:"size:50" json:"store_category"`
}
