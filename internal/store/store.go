package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vending-storefront-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	SeedProducts(ctx context.Context, products []model.Product) error
	ListProducts(ctx context.Context) ([]model.Product, error)

	OpenVendSession(ctx context.Context, items []int, message string) error
	CompleteVendSession(ctx context.Context, items []int, message string) error
	RecordRejectedVend(ctx context.Context, items []int, message string) error
	RecentVendSessions(ctx context.Context, limit int) ([]model.VendSession, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for handlers that query directly.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// SeedProducts upserts the catalog rows. Re-seeding with the same file is
// idempotent; changed rows are updated in place, rows absent from the file
// are left untouched.
func (s *gormStore) SeedProducts(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "image_url", "category", "updated_at"}),
	}).Create(&products).Error; err != nil {
		return fmt.Errorf("batch upsert products failed: %w", err)
	}
	return nil
}

// ListProducts returns the full catalog ordered by slot number.
func (s *gormStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := s.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// OpenVendSession records the start of a dispense reported by the controller.
func (s *gormStore) OpenVendSession(ctx context.Context, items []int, message string) error {
	session := model.VendSession{
		Items:     JoinItems(items),
		Status:    model.VendStatusVending,
		Message:   message,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return fmt.Errorf("failed to open vend session: %w", err)
	}
	return nil
}

// CompleteVendSession closes the most recent open session. A completion with
// no matching open session (machine vended on its own, or the relay restarted
// mid-vend) is recorded as a closed row so no dispense goes unaccounted.
func (s *gormStore) CompleteVendSession(ctx context.Context, items []int, message string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open model.VendSession
		err := tx.Where("status = ?", model.VendStatusVending).
			Order("started_at DESC").
			First(&open).Error
		if err == gorm.ErrRecordNotFound {
			closed := model.VendSession{
				Items:       JoinItems(items),
				Status:      model.VendStatusComplete,
				Message:     message,
				StartedAt:   now,
				CompletedAt: &now,
			}
			if err := tx.Create(&closed).Error; err != nil {
				return fmt.Errorf("failed to record unmatched vend completion: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up open vend session: %w", err)
		}

		open.Status = model.VendStatusComplete
		open.Message = message
		open.CompletedAt = &now
		if len(items) > 0 {
			open.Items = JoinItems(items)
		}
		if err := tx.Save(&open).Error; err != nil {
			return fmt.Errorf("failed to complete vend session %d: %w", open.ID, err)
		}
		return nil
	})
}

// RecordRejectedVend stores one closed row for a vend the controller refused.
func (s *gormStore) RecordRejectedVend(ctx context.Context, items []int, message string) error {
	now := time.Now().UTC()
	session := model.VendSession{
		Items:       JoinItems(items),
		Status:      model.VendStatusRejected,
		Message:     message,
		StartedAt:   now,
		CompletedAt: &now,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return fmt.Errorf("failed to record rejected vend: %w", err)
	}
	return nil
}

// RecentVendSessions returns the newest sessions first.
func (s *gormStore) RecentVendSessions(ctx context.Context, limit int) ([]model.VendSession, error) {
	if limit <= 0 {
		limit = 20
	}
	var sessions []model.VendSession
	if err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list vend sessions: %w", err)
	}
	return sessions, nil
}
