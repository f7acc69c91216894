package models

import (
	"strings"
	"time"
)

// User 用户表（来自 Telegram Mini App 登录数据）
type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`                     // 主键
	TelegramID   int64      `gorm:"uniqueIndex;not null" json:"telegram_id"`  // Telegram 用户ID（账本中的用户标识）
	Username     string     `gorm:"type:varchar(64);index" json:"username"`   // Telegram 用户名
	FirstName    string     `gorm:"type:varchar(128)" json:"first_name"`      // 名
	LastName     string     `gorm:"type:varchar(128)" json:"last_name"`       // 姓
	LanguageCode string     `gorm:"type:varchar(16)" json:"language_code"`    // 语言偏好
	IsPremium    bool       `gorm:"not null;default:false" json:"is_premium"` // 是否 Premium 用户
	LastLoginAt  *time.Time `json:"last_login_at"`                            // 最后登录时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                               // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// DisplayName 通知与预览中展示的名称
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if username := strings.TrimSpace(u.Username); username != "" {
		return "@" + username
	}
	return ""
}
