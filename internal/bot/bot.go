package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/service"
	"github.com/giftledger/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	welcomeText      = "🎁 Here you can buy and send gifts to your friends."
	shareMessageText = "🎁 I have a <b>gift</b> for you! Tap the button below to open it."
	inlineCacheTime  = 0
)

// Client 机器人调用 Bot API 所需的最小能力
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ClaimResolver 赠送者分享前解析领取令牌
type ClaimResolver interface {
	ResolveForSender(senderID int64, token string) (*service.ClaimPreview, error)
}

// Handler 处理机器人收到的更新（/start 与 inline 分享）
type Handler struct {
	client     Client
	claims     ClaimResolver
	miniAppURL string
}

// NewHandler 创建更新处理器
func NewHandler(client Client, claims ClaimResolver, miniAppURL string) *Handler {
	return &Handler{
		client:     client,
		claims:     claims,
		miniAppURL: strings.TrimSpace(miniAppURL),
	}
}

// HandleUpdate 分发单条更新
func (h *Handler) HandleUpdate(update tgbotapi.Update) error {
	switch {
	case update.InlineQuery != nil:
		return h.handleInlineQuery(update.InlineQuery)
	case update.Message != nil && update.Message.IsCommand():
		return h.handleCommand(update.Message)
	default:
		return nil
	}
}

func (h *Handler) handleCommand(msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		reply := tgbotapi.NewMessage(msg.Chat.ID, welcomeText)
		if markup := telegram.BuildMarkup(&telegram.Button{Text: "Open App", URL: h.miniAppURL}); markup != nil {
			reply.ReplyMarkup = *markup
		}
		_, err := h.client.Send(reply)
		return err
	default:
		return nil
	}
}

// handleInlineQuery 只有发起人、且转赠仍待领取时才返回分享卡片
func (h *Handler) handleInlineQuery(query *tgbotapi.InlineQuery) error {
	token := strings.TrimSpace(query.Query)
	if token == "" || query.From == nil || h.claims == nil {
		return nil
	}
	log := botLogger("inline_query_id", query.ID, "user_id", query.From.ID)

	preview, err := h.claims.ResolveForSender(query.From.ID, token)
	if err != nil {
		if errors.Is(err, service.ErrClaimNotFound) || errors.Is(err, service.ErrForbidden) {
			log.Debugw("bot_inline_query_unresolved", "error", err)
			return h.answerInline(query.ID, nil)
		}
		return err
	}

	article := tgbotapi.NewInlineQueryResultArticleHTML(fmt.Sprintf("send-%d", preview.SendID), "Send Gift", shareMessageText)
	article.Description = giftDescription(preview)
	article.ReplyMarkup = telegram.BuildMarkup(&telegram.Button{Text: "Receive Gift", URL: preview.ClaimURL})
	log.Infow("bot_inline_query_answered", "send_id", preview.SendID)
	return h.answerInline(query.ID, []interface{}{article})
}

func (h *Handler) answerInline(queryID string, results []interface{}) error {
	if results == nil {
		results = []interface{}{}
	}
	_, err := h.client.Request(tgbotapi.InlineConfig{
		InlineQueryID: queryID,
		Results:       results,
		IsPersonal:    true,
		CacheTime:     inlineCacheTime,
	})
	return err
}

// Run 长轮询获取更新，直到 ctx 取消
func Run(ctx context.Context, api *tgbotapi.BotAPI, handler *Handler, pollTimeout int) error {
	if api == nil || handler == nil {
		return errors.New("bot not initialized")
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeout
	cfg.AllowedUpdates = []string{"message", "inline_query"}
	updates := api.GetUpdatesChan(cfg)
	defer api.StopReceivingUpdates()

	logger.Infow("bot_polling_started", "username", api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := handler.HandleUpdate(update); err != nil {
				logger.Warnw("bot_update_failed", "update_id", update.UpdateID, "error", err)
			}
		}
	}
}

func giftDescription(preview *service.ClaimPreview) string {
	if preview.Gift != nil && preview.Gift.Name != "" {
		return fmt.Sprintf("Send a gift of %s.", preview.Gift.Name)
	}
	return "Send a gift."
}

func botLogger(kv ...interface{}) *zap.SugaredLogger {
	return logger.SW(kv...)
}
