package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/giftledger/internal/constants"

	"gorm.io/gorm"
)

// ErrInvalidTransactionShape 交易字段组合不合法（例如购买记录携带领取令牌）
var ErrInvalidTransactionShape = errors.New("invalid gift transaction shape")

// GiftTransaction 礼物账本交易表
// 购买（purchase）与转赠（send）共用一张表，Kind 决定哪些字段允许出现，
// 写入前由 Validate 校验，非法组合无法落库。
type GiftTransaction struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                // 主键
	Kind              string     `gorm:"type:varchar(16);not null;index" json:"kind"`         // 交易类型（purchase/send）
	FromUserID        int64      `gorm:"not null;index" json:"from_user_id"`                  // 发起用户（购买者或赠送者）
	ToUserID          *int64     `gorm:"index" json:"to_user_id,omitempty"`                   // 接收用户（仅转赠领取成功后存在）
	GiftID            uint       `gorm:"not null;index" json:"gift_id"`                       // 礼物ID
	ReferenceID       *uint      `gorm:"index" json:"reference_id,omitempty"`                 // 被转赠的购买记录ID（仅转赠）
	ActiveReferenceID *uint      `gorm:"uniqueIndex" json:"-"`                                // 转赠占位（待领取/已领取时等于 ReferenceID，失败后清空）
	ClaimToken        *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`               // 领取令牌（仅转赠）
	ExternalInvoiceID *int64     `gorm:"uniqueIndex" json:"external_invoice_id,omitempty"`    // 网关发票ID（仅购买）
	ExternalSuccessID *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`               // 支付成功回跳标识（仅购买）
	PayURL            string     `gorm:"type:varchar(512)" json:"pay_url,omitempty"`          // 支付链接（仅购买）
	Amount            Amount     `gorm:"type:decimal(30,8);not null;default:0" json:"amount"` // 下单时的价格快照
	Asset             string     `gorm:"type:varchar(16)" json:"asset"`                       // 资产代码快照
	Status            string     `gorm:"type:varchar(16);not null;index" json:"status"`       // 状态（pending/success/failed）
	ExpiresAt         *time.Time `gorm:"index" json:"expires_at,omitempty"`                   // 领取截止时间（仅转赠）
	CompletedAt       *time.Time `json:"completed_at,omitempty"`                              // 进入终态的时间
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt         time.Time  `json:"updated_at"`                                          // 更新时间

	Gift *Gift `gorm:"foreignKey:GiftID" json:"gift,omitempty"` // 礼物信息
}

// TableName 指定表名
func (GiftTransaction) TableName() string {
	return "gift_transactions"
}

// NewPurchaseTransaction 创建待支付的购买记录
func NewPurchaseTransaction(userID int64, gift *Gift, successID string) *GiftTransaction {
	txn := &GiftTransaction{
		Kind:       constants.TransactionKindPurchase,
		FromUserID: userID,
		Status:     constants.TransactionStatusPending,
	}
	if gift != nil {
		txn.GiftID = gift.ID
		txn.Amount = gift.Price
		txn.Asset = gift.Asset
	}
	if successID != "" {
		txn.ExternalSuccessID = &successID
	}
	return txn
}

// NewSendTransaction 基于已成功的购买记录创建待领取的转赠记录
func NewSendTransaction(senderID int64, purchase *GiftTransaction, claimToken string, expiresAt time.Time) *GiftTransaction {
	purchaseID := purchase.ID
	activeID := purchase.ID
	token := claimToken
	expires := expiresAt
	return &GiftTransaction{
		Kind:              constants.TransactionKindSend,
		FromUserID:        senderID,
		GiftID:            purchase.GiftID,
		ReferenceID:       &purchaseID,
		ActiveReferenceID: &activeID,
		ClaimToken:        &token,
		Amount:            purchase.Amount,
		Asset:             purchase.Asset,
		Status:            constants.TransactionStatusPending,
		ExpiresAt:         &expires,
	}
}

// IsPurchase 是否购买记录
func (t *GiftTransaction) IsPurchase() bool {
	return t != nil && t.Kind == constants.TransactionKindPurchase
}

// IsSend 是否转赠记录
func (t *GiftTransaction) IsSend() bool {
	return t != nil && t.Kind == constants.TransactionKindSend
}

// IsPending 是否处于待处理状态
func (t *GiftTransaction) IsPending() bool {
	return t != nil && t.Status == constants.TransactionStatusPending
}

// IsTerminal 是否已进入终态
func (t *GiftTransaction) IsTerminal() bool {
	return t != nil && (t.Status == constants.TransactionStatusSuccess || t.Status == constants.TransactionStatusFailed)
}

// Expired 待领取转赠是否已过期
func (t *GiftTransaction) Expired(now time.Time) bool {
	return t.IsSend() && t.IsPending() && t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// Validate 校验交易字段组合
func (t *GiftTransaction) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil transaction", ErrInvalidTransactionShape)
	}
	switch t.Status {
	case constants.TransactionStatusPending, constants.TransactionStatusSuccess, constants.TransactionStatusFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransactionShape, t.Status)
	}
	if t.FromUserID == 0 || t.GiftID == 0 {
		return fmt.Errorf("%w: from user and gift are required", ErrInvalidTransactionShape)
	}
	switch t.Kind {
	case constants.TransactionKindPurchase:
		if t.ReferenceID != nil || t.ActiveReferenceID != nil || t.ClaimToken != nil || t.ToUserID != nil || t.ExpiresAt != nil {
			return fmt.Errorf("%w: purchase cannot carry send fields", ErrInvalidTransactionShape)
		}
	case constants.TransactionKindSend:
		if t.ReferenceID == nil || t.ClaimToken == nil || *t.ClaimToken == "" {
			return fmt.Errorf("%w: send requires reference and claim token", ErrInvalidTransactionShape)
		}
		if t.ExternalInvoiceID != nil || t.ExternalSuccessID != nil || t.PayURL != "" {
			return fmt.Errorf("%w: send cannot carry invoice fields", ErrInvalidTransactionShape)
		}
		if t.ToUserID != nil && t.Status != constants.TransactionStatusSuccess {
			return fmt.Errorf("%w: recipient is set only on a received send", ErrInvalidTransactionShape)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTransactionShape, t.Kind)
	}
	return nil
}

// BeforeCreate 写入前校验字段组合
func (t *GiftTransaction) BeforeCreate(tx *gorm.DB) error {
	return t.Validate()
}
