package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/giftledger/internal/provider"
	"github.com/giftledger/internal/queue"
	"github.com/giftledger/internal/service"
	"github.com/giftledger/internal/telegram"

	"github.com/hibiken/asynq"
)

type recordingMessenger struct {
	mu    sync.Mutex
	chats []int64
	err   error
}

func (m *recordingMessenger) SendMessage(_ context.Context, chatID int64, _ string, _ *telegram.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.chats = append(m.chats, chatID)
	return nil
}

func newNotifyConsumer(messenger service.Messenger) *Consumer {
	return NewConsumer(&provider.Container{
		NotificationService: service.NewNotificationService(messenger, nil, nil, "", time.Second),
	})
}

func TestHandleGiftNotify(t *testing.T) {
	messenger := &recordingMessenger{}
	consumer := newNotifyConsumer(messenger)

	task, err := queue.NewGiftNotifyTask(queue.GiftNotifyPayload{Event: service.NotifyEventGiftReceived, UserID: 99, Message: "hi"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleGiftNotify(context.Background(), task); err != nil {
		t.Fatalf("handle notify failed: %v", err)
	}
	if len(messenger.chats) != 1 || messenger.chats[0] != 99 {
		t.Fatalf("unexpected deliveries: %v", messenger.chats)
	}

	messenger.err = errors.New("bot was blocked by the user")
	if err := consumer.handleGiftNotify(context.Background(), task); !errors.Is(err, service.ErrDeliveryFailed) {
		t.Fatalf("expected delivery failure to be retried, got %v", err)
	}
}

func TestHandleGiftNotifySkipsInvalidPayload(t *testing.T) {
	consumer := newNotifyConsumer(&recordingMessenger{})
	if err := consumer.handleGiftNotify(context.Background(), asynq.NewTask(queue.TaskGiftNotify, []byte("{"))); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	task, _ := queue.NewGiftNotifyTask(queue.GiftNotifyPayload{UserID: 0, Message: "hi"})
	if err := consumer.handleGiftNotify(context.Background(), task); err != nil {
		t.Fatalf("zero user should be skipped, got %v", err)
	}
}

func TestHandleGiftSendExpireSkips(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task, _ := queue.NewGiftSendExpireTask(queue.GiftSendExpirePayload{SendID: 0})
	if err := consumer.handleGiftSendExpire(context.Background(), task); err != nil {
		t.Fatalf("zero send id should be skipped, got %v", err)
	}
	task, _ = queue.NewGiftSendExpireTask(queue.GiftSendExpirePayload{SendID: 5})
	if err := consumer.handleGiftSendExpire(context.Background(), task); err != nil {
		t.Fatalf("missing ledger service should be skipped, got %v", err)
	}
}
