package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vending-storefront-backend/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&model.Product{}, &model.VendSession{}, &model.PushSubscription{}))
	return NewGormStore(db)
}

func TestSeedProductsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	catalog := []model.Product{
		{ID: 1, Name: "Cola", Price: 1.50, Category: "drinks"},
		{ID: 2, Name: "Chips", Price: 2.00, Category: "snacks"},
	}
	require.NoError(t, s.SeedProducts(ctx, catalog))
	require.NoError(t, s.SeedProducts(ctx, catalog))

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Cola", products[0].Name)

	// Re-seeding with a changed row updates it in place.
	catalog[0].Price = 1.75
	require.NoError(t, s.SeedProducts(ctx, catalog))
	products, err = s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.75, products[0].Price)
}

func TestVendSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.OpenVendSession(ctx, []int{3}, "Dispensing"))
	require.NoError(t, s.CompleteVendSession(ctx, []int{3}, "Enjoy!"))

	sessions, err := s.RecentVendSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.VendStatusComplete, sessions[0].Status)
	assert.Equal(t, "3", sessions[0].Items)
	assert.Equal(t, "Enjoy!", sessions[0].Message)
	require.NotNil(t, sessions[0].CompletedAt)
}

func TestUnmatchedCompletionRecorded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A completion with no open session still leaves a closed row.
	require.NoError(t, s.CompleteVendSession(ctx, []int{5}, "done"))

	sessions, err := s.RecentVendSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.VendStatusComplete, sessions[0].Status)
	assert.Equal(t, "5", sessions[0].Items)
}

func TestRejectedVendRecorded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRejectedVend(ctx, []int{1, 2}, "Machine busy"))

	sessions, err := s.RecentVendSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.VendStatusRejected, sessions[0].Status)
	assert.Equal(t, "1,2", sessions[0].Items)
	require.NotNil(t, sessions[0].CompletedAt)
}

func TestRecentVendSessionsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRejectedVend(ctx, []int{i + 1}, "busy"))
	}

	sessions, err := s.RecentVendSessions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}

func TestJoinSplitItems(t *testing.T) {
	assert.Equal(t, "", JoinItems(nil))
	assert.Equal(t, "7", JoinItems([]int{7}))
	assert.Equal(t, "1,2,3", JoinItems([]int{1, 2, 3}))

	assert.Nil(t, SplitItems(""))
	assert.Equal(t, []int{1, 2, 3}, SplitItems("1,2,3"))
	assert.Equal(t, []int{4}, SplitItems("4,oops"))
}
