package repository

import (
	"errors"
	"strings"

	"github.com/giftledger/internal/models"

	"gorm.io/gorm"
)

// GiftRepository 礼物目录数据访问接口
type GiftRepository interface {
	GetByID(id uint) (*models.Gift, error)
	GetByName(name string) (*models.Gift, error)
	List() ([]models.Gift, error)
	Create(gift *models.Gift) error
	Update(gift *models.Gift) error
	ReserveOneUnit(id uint) (int64, error)
	WithTx(tx *gorm.DB) *GormGiftRepository
}

// GormGiftRepository GORM 实现
type GormGiftRepository struct {
	db *gorm.DB
}

// NewGiftRepository 创建礼物仓库
func NewGiftRepository(db *gorm.DB) *GormGiftRepository {
	return &GormGiftRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGiftRepository) WithTx(tx *gorm.DB) *GormGiftRepository {
	if tx == nil {
		return r
	}
	return &GormGiftRepository{db: tx}
}

// GetByID 根据 ID 获取礼物
func (r *GormGiftRepository) GetByID(id uint) (*models.Gift, error) {
	var gift models.Gift
	if err := r.db.First(&gift, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gift, nil
}

// GetByName 根据名称获取礼物
func (r *GormGiftRepository) GetByName(name string) (*models.Gift, error) {
	var gift models.Gift
	if err := r.db.Where("name = ?", strings.TrimSpace(name)).First(&gift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gift, nil
}

// List 获取全部礼物
func (r *GormGiftRepository) List() ([]models.Gift, error) {
	var gifts []models.Gift
	if err := r.db.Order("id asc").Find(&gifts).Error; err != nil {
		return nil, err
	}
	return gifts, nil
}

// Create 创建礼物
func (r *GormGiftRepository) Create(gift *models.Gift) error {
	return r.db.Create(gift).Error
}

// Update 更新礼物价格与库存总量（已售数量不在此处修改）
func (r *GormGiftRepository) Update(gift *models.Gift) error {
	result := r.db.Model(&models.Gift{}).
		Where("id = ? AND quantity_purchased <= ?", gift.ID, gift.TotalInStock).
		Updates(map[string]interface{}{
			"name":           gift.Name,
			"price":          gift.Price,
			"asset":          gift.Asset,
			"total_in_stock": gift.TotalInStock,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStockBelowSold
	}
	return nil
}

// ReserveOneUnit 条件更新占用一件库存，返回影响行数（0 表示售罄或不存在）
func (r *GormGiftRepository) ReserveOneUnit(id uint) (int64, error) {
	if id == 0 {
		return 0, errors.New("invalid gift id")
	}
	result := r.db.Model(&models.Gift{}).
		Where("id = ? AND quantity_purchased < total_in_stock", id).
		Update("quantity_purchased", gorm.Expr("quantity_purchased + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
