package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/models"

	"gorm.io/gorm"
)

// GiftTransactionRepository 账本交易数据访问接口
type GiftTransactionRepository interface {
	Create(txn *models.GiftTransaction) error
	GetByID(id uint) (*models.GiftTransaction, error)
	GetByInvoiceID(invoiceID int64) (*models.GiftTransaction, error)
	GetBySuccessID(successID string) (*models.GiftTransaction, error)
	GetByClaimToken(token string) (*models.GiftTransaction, error)
	GetActiveSendByPurchase(purchaseID uint) (*models.GiftTransaction, error)
	AttachInvoice(id uint, invoiceID int64, payURL string) (int64, error)
	TransitionFromPending(id uint, status string, updates map[string]interface{}) (int64, error)
	ClaimSend(id uint, receiverID int64, now time.Time) (int64, error)
	FailSend(id uint) (int64, error)
	ListExpiredPendingSends(now time.Time, limit int) ([]models.GiftTransaction, error)
	ListAvailableToSend(userID int64) ([]models.GiftTransaction, error)
	ListReceivedByUser(userID int64) ([]models.GiftTransaction, error)
	ListRecentForGift(giftID uint, limit int) ([]models.GiftTransaction, error)
	ListRecentForUser(userID int64, limit int) ([]models.GiftTransaction, error)
	ListAdmin(filter GiftTransactionListFilter) ([]models.GiftTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormGiftTransactionRepository
}

// GormGiftTransactionRepository GORM 实现
type GormGiftTransactionRepository struct {
	db *gorm.DB
}

// NewGiftTransactionRepository 创建账本交易仓库
func NewGiftTransactionRepository(db *gorm.DB) *GormGiftTransactionRepository {
	return &GormGiftTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGiftTransactionRepository) WithTx(tx *gorm.DB) *GormGiftTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormGiftTransactionRepository{db: tx}
}

// Create 创建交易记录
func (r *GormGiftTransactionRepository) Create(txn *models.GiftTransaction) error {
	return r.db.Create(txn).Error
}

// GetByID 根据 ID 获取交易
func (r *GormGiftTransactionRepository) GetByID(id uint) (*models.GiftTransaction, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByInvoiceID 根据网关发票 ID 获取购买记录
func (r *GormGiftTransactionRepository) GetByInvoiceID(invoiceID int64) (*models.GiftTransaction, error) {
	return r.first(r.db.Where("external_invoice_id = ? AND kind = ?", invoiceID, constants.TransactionKindPurchase))
}

// GetBySuccessID 根据支付成功标识获取购买记录
func (r *GormGiftTransactionRepository) GetBySuccessID(successID string) (*models.GiftTransaction, error) {
	successID = strings.TrimSpace(successID)
	if successID == "" {
		return nil, nil
	}
	return r.first(r.db.Where("external_success_id = ? AND kind = ?", successID, constants.TransactionKindPurchase))
}

// GetByClaimToken 根据领取令牌获取转赠记录
func (r *GormGiftTransactionRepository) GetByClaimToken(token string) (*models.GiftTransaction, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	return r.first(r.db.Where("claim_token = ? AND kind = ?", token, constants.TransactionKindSend))
}

// GetActiveSendByPurchase 获取购买记录上待领取或已领取的转赠
func (r *GormGiftTransactionRepository) GetActiveSendByPurchase(purchaseID uint) (*models.GiftTransaction, error) {
	query := r.db.Where("reference_id = ? AND kind = ? AND status IN ?", purchaseID, constants.TransactionKindSend,
		[]string{constants.TransactionStatusPending, constants.TransactionStatusSuccess}).
		Order("id desc")
	return r.first(query)
}

func (r *GormGiftTransactionRepository) first(query *gorm.DB) (*models.GiftTransaction, error) {
	var txn models.GiftTransaction
	if err := query.Preload("Gift").First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// AttachInvoice 为待支付且尚无发票的购买记录写入发票信息
func (r *GormGiftTransactionRepository) AttachInvoice(id uint, invoiceID int64, payURL string) (int64, error) {
	result := r.db.Model(&models.GiftTransaction{}).
		Where("id = ? AND kind = ? AND status = ? AND external_invoice_id IS NULL", id, constants.TransactionKindPurchase, constants.TransactionStatusPending).
		Updates(map[string]interface{}{
			"external_invoice_id": invoiceID,
			"pay_url":             payURL,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// TransitionFromPending 条件更新：仅当当前状态仍为 pending 时迁移到终态
func (r *GormGiftTransactionRepository) TransitionFromPending(id uint, status string, updates map[string]interface{}) (int64, error) {
	if status != constants.TransactionStatusSuccess && status != constants.TransactionStatusFailed {
		return 0, errors.New("transition target must be terminal")
	}
	now := time.Now()
	values := map[string]interface{}{
		"status":       status,
		"completed_at": now,
		"updated_at":   now,
	}
	for key, value := range updates {
		values[key] = value
	}
	result := r.db.Model(&models.GiftTransaction{}).
		Where("id = ? AND status = ?", id, constants.TransactionStatusPending).
		Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ClaimSend 条件更新：未过期的待领取转赠写入接收人并标记成功
func (r *GormGiftTransactionRepository) ClaimSend(id uint, receiverID int64, now time.Time) (int64, error) {
	result := r.db.Model(&models.GiftTransaction{}).
		Where("id = ? AND kind = ? AND status = ? AND from_user_id <> ? AND (expires_at IS NULL OR expires_at > ?)",
			id, constants.TransactionKindSend, constants.TransactionStatusPending, receiverID, now).
		Updates(map[string]interface{}{
			"status":       constants.TransactionStatusSuccess,
			"to_user_id":   receiverID,
			"completed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// FailSend 条件更新：待领取转赠置为失败并释放购买记录占位
func (r *GormGiftTransactionRepository) FailSend(id uint) (int64, error) {
	return r.TransitionFromPending(id, constants.TransactionStatusFailed, map[string]interface{}{
		"active_reference_id": nil,
	})
}

// ListExpiredPendingSends 获取已过期仍待领取的转赠
func (r *GormGiftTransactionRepository) ListExpiredPendingSends(now time.Time, limit int) ([]models.GiftTransaction, error) {
	var txns []models.GiftTransaction
	query := r.db.Where("kind = ? AND status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		constants.TransactionKindSend, constants.TransactionStatusPending, now).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// ListAvailableToSend 用户已支付成功且未被转赠占用的购买记录
func (r *GormGiftTransactionRepository) ListAvailableToSend(userID int64) ([]models.GiftTransaction, error) {
	var txns []models.GiftTransaction
	err := r.db.Preload("Gift").
		Where("kind = ? AND status = ? AND from_user_id = ?", constants.TransactionKindPurchase, constants.TransactionStatusSuccess, userID).
		Where("NOT EXISTS (SELECT 1 FROM gift_transactions s WHERE s.reference_id = gift_transactions.id AND s.kind = ? AND s.status IN ?)",
			constants.TransactionKindSend, []string{constants.TransactionStatusPending, constants.TransactionStatusSuccess}).
		Order("created_at desc, id desc").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ListReceivedByUser 用户已领取的转赠
func (r *GormGiftTransactionRepository) ListReceivedByUser(userID int64) ([]models.GiftTransaction, error) {
	var txns []models.GiftTransaction
	err := r.db.Preload("Gift").
		Where("kind = ? AND status = ? AND to_user_id = ?", constants.TransactionKindSend, constants.TransactionStatusSuccess, userID).
		Order("completed_at desc, id desc").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ListRecentForGift 指定礼物最近的成功交易
func (r *GormGiftTransactionRepository) ListRecentForGift(giftID uint, limit int) ([]models.GiftTransaction, error) {
	var txns []models.GiftTransaction
	query := r.db.Where("gift_id = ? AND status = ?", giftID, constants.TransactionStatusSuccess).
		Order("created_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// ListRecentForUser 用户作为发起方或接收方的最近交易
func (r *GormGiftTransactionRepository) ListRecentForUser(userID int64, limit int) ([]models.GiftTransaction, error) {
	var txns []models.GiftTransaction
	query := r.db.Preload("Gift").
		Where("(from_user_id = ? OR to_user_id = ?)", userID, userID).
		Order("created_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// ListAdmin 后台分页查询交易
func (r *GormGiftTransactionRepository) ListAdmin(filter GiftTransactionListFilter) ([]models.GiftTransaction, int64, error) {
	query := r.db.Model(&models.GiftTransaction{})
	if kind := strings.TrimSpace(filter.Kind); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.UserID != 0 {
		query = query.Where("(from_user_id = ? OR to_user_id = ?)", filter.UserID, filter.UserID)
	}
	if filter.GiftID != 0 {
		query = query.Where("gift_id = ?", filter.GiftID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.GiftTransaction
	if err := query.Preload("Gift").Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
