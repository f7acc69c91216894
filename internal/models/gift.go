package models

import (
	"time"
)

// Gift 礼物定义表（目录）
type Gift struct {
	ID                uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name              string    `gorm:"uniqueIndex;not null" json:"name"`                   // 礼物名称（唯一）
	Price             Amount    `gorm:"type:decimal(30,8);not null;default:0" json:"price"` // 单价
	Asset             string    `gorm:"type:varchar(16);not null" json:"asset"`             // 支付资产代码（USDT/TON/ETH）
	TotalInStock      int       `gorm:"not null;default:0" json:"total_in_stock"`           // 库存总量
	QuantityPurchased int       `gorm:"not null;default:0" json:"quantity_purchased"`       // 已售数量（只增不减，不超过库存总量）
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt         time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Gift) TableName() string {
	return "gifts"
}

// Remaining 剩余可售数量
func (g Gift) Remaining() int {
	left := g.TotalInStock - g.QuantityPurchased
	if left < 0 {
		return 0
	}
	return left
}

// SoldOut 是否售罄
func (g Gift) SoldOut() bool {
	return g.Remaining() == 0
}
