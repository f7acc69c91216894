package queue

import (
	"encoding/json"

	"github.com/giftledger/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskGiftNotify 礼物事件通知任务
	TaskGiftNotify = constants.TaskGiftNotify
	// TaskGiftSendExpire 转赠领取超时任务
	TaskGiftSendExpire = constants.TaskGiftSendExpire
)

// GiftNotifyPayload 通知任务载荷
type GiftNotifyPayload struct {
	Event     string `json:"event"`
	UserID    int64  `json:"user_id"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	ActionURL string `json:"action_url,omitempty"`
}

// GiftSendExpirePayload 转赠超时任务载荷
type GiftSendExpirePayload struct {
	SendID uint `json:"send_id"`
}

// NewGiftNotifyTask 创建通知任务
func NewGiftNotifyTask(payload GiftNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftNotify, body), nil
}

// NewGiftSendExpireTask 创建转赠超时任务
func NewGiftSendExpireTask(payload GiftSendExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftSendExpire, body), nil
}
