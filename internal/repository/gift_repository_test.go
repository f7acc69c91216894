package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/giftledger/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.MigrateTables(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createTestGift(t *testing.T, repo *GormGiftRepository, name string, total int) *models.Gift {
	t.Helper()
	gift := &models.Gift{
		Name:         name,
		Price:        models.NewAmountFromDecimal(decimal.RequireFromString("0.01")),
		Asset:        "ETH",
		TotalInStock: total,
	}
	if err := repo.Create(gift); err != nil {
		t.Fatalf("create gift failed: %v", err)
	}
	return gift
}

func TestReserveOneUnitStopsAtTotalStock(t *testing.T) {
	db := openRepositoryTestDB(t, "gift_reserve")
	repo := NewGiftRepository(db)
	gift := createTestGift(t, repo, "Blue Star", 2)

	for i := 0; i < 2; i++ {
		affected, err := repo.ReserveOneUnit(gift.ID)
		if err != nil {
			t.Fatalf("reserve unit failed: %v", err)
		}
		if affected != 1 {
			t.Fatalf("expected reserve %d to succeed, affected=%d", i, affected)
		}
	}
	affected, err := repo.ReserveOneUnit(gift.ID)
	if err != nil {
		t.Fatalf("reserve unit failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected sold out reserve to affect 0 rows, got %d", affected)
	}

	got, err := repo.GetByID(gift.ID)
	if err != nil || got == nil {
		t.Fatalf("reload gift failed: %v", err)
	}
	if got.QuantityPurchased != 2 {
		t.Fatalf("expected quantity purchased 2, got %d", got.QuantityPurchased)
	}
}

func TestReserveOneUnitConcurrentNeverOversells(t *testing.T) {
	db := openRepositoryTestDB(t, "gift_reserve_concurrent")
	repo := NewGiftRepository(db)
	gift := createTestGift(t, repo, "Green Star", 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			affected, err := repo.ReserveOneUnit(gift.ID)
			if err != nil {
				t.Errorf("reserve unit failed: %v", err)
				return
			}
			mu.Lock()
			succeeded += int(affected)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if succeeded != 5 {
		t.Fatalf("expected exactly 5 reservations, got %d", succeeded)
	}
	got, _ := repo.GetByID(gift.ID)
	if got.QuantityPurchased != got.TotalInStock {
		t.Fatalf("expected stock exhausted, got purchased=%d total=%d", got.QuantityPurchased, got.TotalInStock)
	}
}

func TestReserveOneUnitUnknownGift(t *testing.T) {
	db := openRepositoryTestDB(t, "gift_reserve_unknown")
	repo := NewGiftRepository(db)

	affected, err := repo.ReserveOneUnit(999)
	if err != nil {
		t.Fatalf("reserve unknown gift failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 rows for unknown gift, got %d", affected)
	}
}

func TestGiftUpdateRejectsStockBelowSold(t *testing.T) {
	db := openRepositoryTestDB(t, "gift_update")
	repo := NewGiftRepository(db)
	gift := createTestGift(t, repo, "Red Star", 3)
	for i := 0; i < 2; i++ {
		if _, err := repo.ReserveOneUnit(gift.ID); err != nil {
			t.Fatalf("reserve unit failed: %v", err)
		}
	}

	gift.TotalInStock = 1
	if err := repo.Update(gift); err != ErrStockBelowSold {
		t.Fatalf("expected ErrStockBelowSold, got %v", err)
	}
	gift.TotalInStock = 10
	if err := repo.Update(gift); err != nil {
		t.Fatalf("update gift failed: %v", err)
	}
}
