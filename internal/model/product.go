package model

import "time"

// Product represents one catalog entry mapped to a physical machine slot.
type Product struct {
	ID        int64     `gorm:"primaryKey" json:"id"` // Slot number on the machine
	Name      string    `gorm:"size:256;not null" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	ImageURL  string    `gorm:"size:512" json:"image_url,omitempty"`
	Category  string    `gorm:"size:64;index" json:"category,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
