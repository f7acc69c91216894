//go:build integration
// +build integration

package repository

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.GiftTransaction{},
		&models.Gift{},
		&models.User{},
		&models.Admin{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := models.MigrateTables(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresReserveOneUnitUnderContention(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	giftRepo := NewGiftRepository(db)
	gift := createTestGift(t, giftRepo, "Delicious Cake", 5)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reserved int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			affected, err := giftRepo.ReserveOneUnit(gift.ID)
			if err != nil {
				t.Errorf("reserve failed: %v", err)
				return
			}
			mu.Lock()
			reserved += affected
			mu.Unlock()
		}()
	}
	wg.Wait()

	if reserved != 5 {
		t.Fatalf("reserved want 5 got %d", reserved)
	}
	got, err := giftRepo.GetByID(gift.ID)
	if err != nil {
		t.Fatalf("reload gift failed: %v", err)
	}
	if got.QuantityPurchased != got.TotalInStock {
		t.Fatalf("quantity purchased want %d got %d", got.TotalInStock, got.QuantityPurchased)
	}
}

func TestPostgresActiveSendIsUniquePerPurchase(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	gift := createTestGift(t, NewGiftRepository(db), "Blue Star", 10)
	repo := NewGiftTransactionRepository(db)
	purchase := createSuccessPurchase(t, repo, 1, gift)

	expires := time.Now().UTC().Add(time.Hour)
	first := models.NewSendTransaction(1, purchase, "token-a", expires)
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first send failed: %v", err)
	}
	second := models.NewSendTransaction(1, purchase, "token-b", expires)
	if err := repo.Create(second); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("second active send should violate unique index, got %v", err)
	}

	if affected, err := repo.FailSend(first.ID); err != nil || affected != 1 {
		t.Fatalf("fail send affected=%d err=%v", affected, err)
	}
	third := models.NewSendTransaction(1, purchase, "token-c", expires)
	if err := repo.Create(third); err != nil {
		t.Fatalf("purchase should be sendable again after failure: %v", err)
	}

	affected, err := repo.ClaimSend(third.ID, 2, time.Now().UTC())
	if err != nil || affected != 1 {
		t.Fatalf("claim affected=%d err=%v", affected, err)
	}
	claimed, err := repo.GetByID(third.ID)
	if err != nil {
		t.Fatalf("reload send failed: %v", err)
	}
	if claimed.Status != constants.TransactionStatusSuccess || claimed.ToUserID == nil || *claimed.ToUserID != 2 {
		t.Fatalf("unexpected claimed send: %+v", claimed)
	}
}
