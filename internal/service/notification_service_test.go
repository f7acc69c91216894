package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/queue"
)

func TestNotificationDeliver(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewNotificationService(messenger, nil, nil, "https://t.me/giftbot/app", time.Second)

	err := svc.Deliver(context.Background(), queue.GiftNotifyPayload{
		Event:     NotifyEventPurchaseConfirmed,
		UserID:    42,
		Message:   "hello",
		Action:    constants.NotifyActionOpenGifts,
		ActionURL: "https://t.me/giftbot/app",
	})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	sent := messenger.waitFor(t, 1)
	if sent[0].ChatID != 42 || sent[0].Button == nil || sent[0].Button.Text != "Open Gifts" {
		t.Fatalf("unexpected message: %+v", sent[0])
	}

	messenger.err = errors.New("chat not found")
	err = svc.Deliver(context.Background(), queue.GiftNotifyPayload{Event: NotifyEventGiftReceived, UserID: 43, Message: "x"})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected delivery failed, got %v", err)
	}
}

func TestNotifyFallsBackToDirectDelivery(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewNotificationService(messenger, nil, nil, "", time.Second)

	svc.Notify(NotifyEventGiftDelivered, 7, "done", constants.NotifyActionOpenApp)
	sent := messenger.waitFor(t, 1)
	if sent[0].ChatID != 7 || sent[0].Button != nil {
		t.Fatalf("unexpected message: %+v", sent[0])
	}

	svc.Notify(NotifyEventGiftDelivered, 0, "ignored", constants.NotifyActionOpenApp)
	time.Sleep(50 * time.Millisecond)
	if got := messenger.waitFor(t, 1); len(got) != 1 {
		t.Fatalf("zero user id must be skipped, got %d messages", len(got))
	}
}
