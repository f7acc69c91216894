package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/giftledger/internal/cache"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const catalogCacheKey = "catalog:gifts"

// CatalogService 礼物目录服务
type CatalogService struct {
	giftRepo repository.GiftRepository
	cacheTTL time.Duration
}

// NewCatalogService 创建礼物目录服务
func NewCatalogService(giftRepo repository.GiftRepository, cacheTTL time.Duration) *CatalogService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &CatalogService{giftRepo: giftRepo, cacheTTL: cacheTTL}
}

// GiftInput 后台创建/更新礼物输入
type GiftInput struct {
	Name         string
	Price        string
	Asset        string
	TotalInStock int
}

// Get 获取礼物定义
func (s *CatalogService) Get(id uint) (*models.Gift, error) {
	if id == 0 {
		return nil, ErrGiftNotFound
	}
	gift, err := s.giftRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}
	return gift, nil
}

// List 获取全部礼物（优先读缓存）
func (s *CatalogService) List(ctx context.Context) ([]models.Gift, error) {
	var cached []models.Gift
	hit, err := cache.GetJSON(ctx, catalogCacheKey, &cached)
	if err != nil {
		logger.Warnw("catalog_cache_read_failed", "error", err)
	}
	if hit {
		return cached, nil
	}

	gifts, err := s.giftRepo.List()
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, catalogCacheKey, gifts, s.cacheTTL); err != nil {
		logger.Warnw("catalog_cache_write_failed", "error", err)
	}
	return gifts, nil
}

// ReserveOneUnit 在给定事务内占用一件库存
// 这是已售数量唯一的写入口，仅在确认支付时调用。
func (s *CatalogService) ReserveOneUnit(tx *gorm.DB, giftID uint) error {
	repo := s.giftRepo.WithTx(tx)
	affected, err := repo.ReserveOneUnit(giftID)
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}
	gift, err := repo.GetByID(giftID)
	if err != nil {
		return err
	}
	if gift == nil {
		return ErrGiftNotFound
	}
	return ErrOutOfStock
}

// InvalidateCache 清除目录缓存
func (s *CatalogService) InvalidateCache(ctx context.Context) {
	if err := cache.Del(ctx, catalogCacheKey); err != nil {
		logger.Warnw("catalog_cache_invalidate_failed", "error", err)
	}
}

// Create 后台创建礼物
func (s *CatalogService) Create(ctx context.Context, input GiftInput) (*models.Gift, error) {
	gift, err := buildGiftFromInput(input)
	if err != nil {
		return nil, err
	}
	existing, err := s.giftRepo.GetByName(gift.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrGiftNameExists
	}
	if err := s.giftRepo.Create(gift); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrGiftNameExists
		}
		return nil, err
	}
	s.InvalidateCache(ctx)
	return gift, nil
}

// Update 后台更新礼物（库存总量不能低于已售数量）
func (s *CatalogService) Update(ctx context.Context, id uint, input GiftInput) (*models.Gift, error) {
	current, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	next, err := buildGiftFromInput(input)
	if err != nil {
		return nil, err
	}
	if next.Name != current.Name {
		existing, err := s.giftRepo.GetByName(next.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != current.ID {
			return nil, ErrGiftNameExists
		}
	}
	next.ID = current.ID
	if err := s.giftRepo.Update(next); err != nil {
		if errors.Is(err, repository.ErrStockBelowSold) {
			return nil, ErrGiftStockBelowSold
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrGiftNameExists
		}
		return nil, err
	}
	s.InvalidateCache(ctx)
	return s.Get(id)
}

func buildGiftFromInput(input GiftInput) (*models.Gift, error) {
	name := strings.TrimSpace(input.Name)
	asset := strings.ToUpper(strings.TrimSpace(input.Asset))
	if name == "" || asset == "" || input.TotalInStock < 0 {
		return nil, ErrGiftInvalid
	}
	price, err := decimal.NewFromString(strings.TrimSpace(input.Price))
	if err != nil || !price.IsPositive() {
		return nil, ErrGiftInvalid
	}
	return &models.Gift{
		Name:         name,
		Price:        models.NewAmountFromDecimal(price),
		Asset:        asset,
		TotalInStock: input.TotalInStock,
	}, nil
}
