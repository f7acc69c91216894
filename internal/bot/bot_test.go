package bot

import (
	"testing"

	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type recordingClient struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (c *recordingClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.sent = append(c.sent, msg)
	return tgbotapi.Message{}, nil
}

func (c *recordingClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	c.requests = append(c.requests, msg)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type stubResolver struct {
	senderID int64
	token    string
}

func (r stubResolver) ResolveForSender(senderID int64, token string) (*service.ClaimPreview, error) {
	if token != r.token {
		return nil, service.ErrClaimNotFound
	}
	if senderID != r.senderID {
		return nil, service.ErrForbidden
	}
	return &service.ClaimPreview{
		SendID:   12,
		Token:    token,
		ClaimURL: "https://t.me/gift_bot/app?startapp=" + token,
		Gift:     &models.Gift{Name: "Blue Star"},
		SenderID: senderID,
	}, nil
}

func inlineUpdate(fromID int64, query string) tgbotapi.Update {
	return tgbotapi.Update{InlineQuery: &tgbotapi.InlineQuery{
		ID:    "q-1",
		From:  &tgbotapi.User{ID: fromID},
		Query: query,
	}}
}

func TestInlineQueryAnswersSenderOnly(t *testing.T) {
	resolver := stubResolver{senderID: 100, token: "tok"}

	cases := []struct {
		name        string
		update      tgbotapi.Update
		wantResults int
	}{
		{name: "sender", update: inlineUpdate(100, " tok "), wantResults: 1},
		{name: "other user", update: inlineUpdate(200, "tok"), wantResults: 0},
		{name: "unknown token", update: inlineUpdate(100, "nope"), wantResults: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &recordingClient{}
			h := NewHandler(client, resolver, "https://t.me/gift_bot/app")
			if err := h.HandleUpdate(tc.update); err != nil {
				t.Fatalf("handle update failed: %v", err)
			}
			if len(client.requests) != 1 {
				t.Fatalf("expected one inline answer, got %d", len(client.requests))
			}
			answer, ok := client.requests[0].(tgbotapi.InlineConfig)
			if !ok {
				t.Fatalf("unexpected request type %T", client.requests[0])
			}
			if !answer.IsPersonal || answer.InlineQueryID != "q-1" {
				t.Fatalf("unexpected inline config: %+v", answer)
			}
			if len(answer.Results) != tc.wantResults {
				t.Fatalf("results want %d got %d", tc.wantResults, len(answer.Results))
			}
			if tc.wantResults == 0 {
				return
			}
			article, ok := answer.Results[0].(tgbotapi.InlineQueryResultArticle)
			if !ok {
				t.Fatalf("unexpected result type %T", answer.Results[0])
			}
			if article.Description != "Send a gift of Blue Star." {
				t.Fatalf("unexpected description %q", article.Description)
			}
			if article.ReplyMarkup == nil || len(article.ReplyMarkup.InlineKeyboard) != 1 {
				t.Fatalf("expected a single claim button")
			}
			button := article.ReplyMarkup.InlineKeyboard[0][0]
			if button.URL == nil || *button.URL != "https://t.me/gift_bot/app?startapp=tok" {
				t.Fatalf("unexpected claim button: %+v", button)
			}
		})
	}
}

func TestEmptyInlineQueryIsIgnored(t *testing.T) {
	client := &recordingClient{}
	h := NewHandler(client, stubResolver{senderID: 1, token: "x"}, "")
	if err := h.HandleUpdate(inlineUpdate(1, "   ")); err != nil {
		t.Fatalf("handle update failed: %v", err)
	}
	if len(client.requests) != 0 || len(client.sent) != 0 {
		t.Fatalf("empty query should not be answered")
	}
}

func TestStartCommandRepliesWithAppButton(t *testing.T) {
	client := &recordingClient{}
	h := NewHandler(client, nil, "https://t.me/gift_bot/app")
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 55},
		Text:     "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}}
	if err := h.HandleUpdate(update); err != nil {
		t.Fatalf("handle update failed: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(client.sent))
	}
	reply, ok := client.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected message type %T", client.sent[0])
	}
	if reply.ChatID != 55 || reply.Text != welcomeText {
		t.Fatalf("unexpected reply: chat=%d text=%q", reply.ChatID, reply.Text)
	}
	markup, ok := reply.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(markup.InlineKeyboard) != 1 {
		t.Fatalf("expected open app button, got %#v", reply.ReplyMarkup)
	}
}
