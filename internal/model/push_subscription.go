package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// There is a single machine, so subscriptions carry no per-machine mapping;
// every subscriber is notified on every vend completion.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
