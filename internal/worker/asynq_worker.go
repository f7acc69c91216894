package worker

import (
	"context"
	"encoding/json"

	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/provider"
	"github.com/giftledger/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskGiftNotify, c.handleGiftNotify)
	mux.HandleFunc(queue.TaskGiftSendExpire, c.handleGiftSendExpire)
}

func (c *Consumer) handleGiftNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_gift_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 || payload.Message == "" {
		logger.Debugw("worker_gift_notify_skip_invalid_payload", "user_id", payload.UserID, "event", payload.Event)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_gift_notify_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	// 投递失败返回错误，交给 asynq 按 MaxRetry 重试
	return c.NotificationService.Deliver(ctx, payload)
}

func (c *Consumer) handleGiftSendExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_send_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftSendExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_gift_send_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.SendID == 0 {
		logger.Debugw("worker_gift_send_expire_skip_invalid_payload", "send_id", payload.SendID)
		return nil
	}
	if c.LedgerService == nil {
		logger.Warnw("worker_gift_send_expire_skip_service_nil", "send_id", payload.SendID)
		return nil
	}
	expired, err := c.LedgerService.ExpireSend(payload.SendID)
	if err != nil {
		logger.Warnw("worker_gift_send_expire_failed", "send_id", payload.SendID, "error", err)
		return err
	}
	logger.Debugw("worker_gift_send_expire_done", "send_id", payload.SendID, "expired", expired)
	return nil
}
