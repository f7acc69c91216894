package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/metrics"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/queue"
	"github.com/giftledger/internal/repository"
	"github.com/giftledger/internal/telegram"
)

// 通知事件
const (
	NotifyEventPurchaseConfirmed = "purchase_confirmed"
	NotifyEventGiftReceived      = "gift_received"
	NotifyEventGiftDelivered     = "gift_delivered"
)

// Messenger 消息通道（按用户数字 ID 推送）
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, button *telegram.Button) error
}

// NotificationService 礼物事件通知服务（尽力而为，失败只记录不返回）
type NotificationService struct {
	messenger   Messenger
	queueClient *queue.Client
	userRepo    repository.UserRepository
	miniAppURL  string
	sendTimeout time.Duration
}

// NewNotificationService 创建通知服务
func NewNotificationService(messenger Messenger, queueClient *queue.Client, userRepo repository.UserRepository, miniAppURL string, sendTimeout time.Duration) *NotificationService {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &NotificationService{
		messenger:   messenger,
		queueClient: queueClient,
		userRepo:    userRepo,
		miniAppURL:  strings.TrimSpace(miniAppURL),
		sendTimeout: sendTimeout,
	}
}

// Notify 投递一条通知：启用队列时入队，否则后台直接发送
func (s *NotificationService) Notify(event string, userID int64, message, action string) {
	if s == nil || userID == 0 {
		return
	}
	payload := queue.GiftNotifyPayload{
		Event:     event,
		UserID:    userID,
		Message:   message,
		Action:    action,
		ActionURL: s.miniAppURL,
	}
	log := logger.SW("event", event, "user_id", userID)
	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueueGiftNotify(payload)
		if err == nil {
			return
		}
		log.Warnw("notification_enqueue_failed_fallback_direct", "error", err)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
		defer cancel()
		_ = s.Deliver(ctx, payload)
	}()
}

// Deliver 实际发送通知，供队列消费者与后台直发复用
func (s *NotificationService) Deliver(ctx context.Context, payload queue.GiftNotifyPayload) error {
	log := logger.SW("event", payload.Event, "user_id", payload.UserID)
	if s == nil || s.messenger == nil {
		log.Warnw("notification_messenger_missing")
		metrics.ObserveNotification(payload.Event, "skipped")
		return nil
	}
	button := buildNotifyButton(payload.Action, payload.ActionURL)
	if err := s.messenger.SendMessage(ctx, payload.UserID, payload.Message, button); err != nil {
		log.Warnw("notification_delivery_failed", "error", err)
		metrics.ObserveNotification(payload.Event, "failed")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	log.Infow("notification_delivered")
	metrics.ObserveNotification(payload.Event, "delivered")
	return nil
}

// NotifyPurchaseConfirmed 通知购买者支付成功
func (s *NotificationService) NotifyPurchaseConfirmed(purchase *models.GiftTransaction) {
	if s == nil || purchase == nil {
		return
	}
	message := fmt.Sprintf("✅ You have purchased the gift of <b>%s</b>.", html.EscapeString(giftName(purchase)))
	s.Notify(NotifyEventPurchaseConfirmed, purchase.FromUserID, message, constants.NotifyActionOpenGifts)
}

// NotifyClaimSucceeded 通知赠送者与接收者礼物已领取
func (s *NotificationService) NotifyClaimSucceeded(send *models.GiftTransaction) {
	if s == nil || send == nil || send.ToUserID == nil {
		return
	}
	name := html.EscapeString(giftName(send))
	senderName := html.EscapeString(s.displayName(send.FromUserID))
	receiverName := html.EscapeString(s.displayName(*send.ToUserID))

	s.Notify(NotifyEventGiftDelivered, send.FromUserID,
		fmt.Sprintf("👌 <b>%s</b> received your gift of <b>%s</b>.", receiverName, name),
		constants.NotifyActionOpenApp)
	s.Notify(NotifyEventGiftReceived, *send.ToUserID,
		fmt.Sprintf("⚡️ <b>%s</b> has given you the gift of <b>%s</b>.", senderName, name),
		constants.NotifyActionViewGift)
}

func (s *NotificationService) displayName(telegramID int64) string {
	fallback := fmt.Sprintf("User %d", telegramID)
	if s.userRepo == nil {
		return fallback
	}
	user, err := s.userRepo.GetByTelegramID(telegramID)
	if err != nil {
		logger.Warnw("notification_user_lookup_failed", "user_id", telegramID, "error", err)
		return fallback
	}
	if name := user.DisplayName(); name != "" {
		return name
	}
	return fallback
}

func giftName(txn *models.GiftTransaction) string {
	if txn.Gift != nil && txn.Gift.Name != "" {
		return txn.Gift.Name
	}
	return fmt.Sprintf("#%d", txn.GiftID)
}

func buildNotifyButton(action, url string) *telegram.Button {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	switch action {
	case constants.NotifyActionOpenGifts:
		return &telegram.Button{Text: "Open Gifts", URL: url}
	case constants.NotifyActionOpenApp:
		return &telegram.Button{Text: "Open App", URL: url}
	case constants.NotifyActionViewGift:
		return &telegram.Button{Text: "View Gift", URL: url}
	default:
		return nil
	}
}
