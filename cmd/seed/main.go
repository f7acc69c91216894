package main

import (
	"github.com/giftledger/internal/config"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/repository"

	"github.com/shopspring/decimal"
)

type giftSeed struct {
	Name  string
	Price string
	Asset string
	Stock int
}

var defaultGifts = []giftSeed{
	{Name: "Delicious Cake", Price: "10", Asset: "USDT", Stock: 500},
	{Name: "Green Star", Price: "5", Asset: "TON", Stock: 3000},
	{Name: "Blue Star", Price: "0.01", Asset: "ETH", Stock: 5000},
	{Name: "Red Star", Price: "7", Asset: "USDT", Stock: 10000},
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加礼物目录（按名称去重，重复执行不会覆盖已有库存）
	giftRepo := repository.NewGiftRepository(models.DB)
	for _, seed := range defaultGifts {
		existing, err := giftRepo.GetByName(seed.Name)
		if err != nil {
			stdLog.Fatalf("Failed to query gift %s: %v", seed.Name, err)
		}
		if existing != nil {
			stdLog.Printf("Gift already exists: %s", seed.Name)
			continue
		}
		gift := &models.Gift{
			Name:         seed.Name,
			Price:        models.NewAmountFromDecimal(decimal.RequireFromString(seed.Price)),
			Asset:        seed.Asset,
			TotalInStock: seed.Stock,
		}
		if err := giftRepo.Create(gift); err != nil {
			stdLog.Fatalf("Failed to create gift %s: %v", seed.Name, err)
		}
		stdLog.Printf("Created gift: %s (%s %s, stock %d)", gift.Name, seed.Price, seed.Asset, seed.Stock)
	}

	stdLog.Println("Seed completed")
}
