package model

import "time"

// Vend session status values.
const (
	VendStatusVending  = "vending"
	VendStatusComplete = "complete"
	VendStatusRejected = "rejected"
)

// VendSession records one dispense attempt as observed on the controller
// event stream. A session opens on a successful vend-response, closes on
// vend-complete; a rejected vend-response is recorded as a single closed row.
type VendSession struct {
	ID          int64      `gorm:"autoIncrement;primaryKey" json:"id"`
	Items       string     `gorm:"size:256;not null" json:"items"` // Comma-separated slot numbers
	Status      string     `gorm:"size:16;not null;index" json:"status"`
	Message     string     `gorm:"size:512" json:"message,omitempty"`
	StartedAt   time.Time  `gorm:"not null;index" json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
