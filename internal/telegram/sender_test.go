package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func newFakeBotServer(t *testing.T) (*httptest.Server, *[]string, *sync.Mutex) {
	t.Helper()
	var calls []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		calls = append(calls, r.URL.Path+"?"+r.Form.Encode())
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Gift","username":"gift_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if r.Form.Get("chat_id") == "13" {
				_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":10,"date":0,"chat":{"id":1,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls, &mu
}

func TestSenderSendMessage(t *testing.T) {
	server, calls, mu := newFakeBotServer(t)
	sender := NewSender(SenderOptions{
		BotToken:    "123:abc",
		APIEndpoint: server.URL + "/bot%s/%s",
		Timeout:     time.Second,
	})

	err := sender.SendMessage(context.Background(), 42, "✅ You have purchased the gift of <b>Blue Star</b>.", &Button{Text: "Open Gifts", URL: "https://t.me/gift_bot/app"})
	if err != nil {
		t.Fatalf("send message failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var sent string
	for _, call := range *calls {
		if strings.Contains(call, "/sendMessage") {
			sent = call
		}
	}
	if sent == "" {
		t.Fatalf("expected sendMessage call, got %v", *calls)
	}
	if !strings.Contains(sent, "chat_id=42") || !strings.Contains(sent, "parse_mode=HTML") {
		t.Fatalf("unexpected sendMessage params: %s", sent)
	}
	if !strings.Contains(sent, "reply_markup=") {
		t.Fatalf("expected inline keyboard in sendMessage: %s", sent)
	}
}

func TestSenderSendMessageError(t *testing.T) {
	server, _, _ := newFakeBotServer(t)
	sender := NewSender(SenderOptions{BotToken: "123:abc", APIEndpoint: server.URL + "/bot%s/%s"})

	if err := sender.SendMessage(context.Background(), 13, "hello", nil); err == nil {
		t.Fatalf("expected blocked chat to return error")
	}
}

func TestSenderNotConfigured(t *testing.T) {
	sender := NewSender(SenderOptions{})
	if sender.Enabled() {
		t.Fatalf("sender without token should be disabled")
	}
	if err := sender.SendMessage(context.Background(), 1, "hi", nil); !errors.Is(err, ErrBotNotConfigured) {
		t.Fatalf("expected ErrBotNotConfigured, got %v", err)
	}
}
