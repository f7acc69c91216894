package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrBotNotConfigured 未配置机器人 Token
var ErrBotNotConfigured = errors.New("telegram bot not configured")

// Button 消息下方的跳转按钮
type Button struct {
	Text string
	URL  string
}

// SenderOptions 发送器配置
type SenderOptions struct {
	BotToken    string
	APIEndpoint string // 为空时使用 tgbotapi.APIEndpoint
	Timeout     time.Duration
}

// Sender 基于 Bot API 的消息发送器，首次使用时才连接
type Sender struct {
	opts SenderOptions

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

// NewSender 创建消息发送器
func NewSender(opts SenderOptions) *Sender {
	opts.BotToken = strings.TrimSpace(opts.BotToken)
	if strings.TrimSpace(opts.APIEndpoint) == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Sender{opts: opts}
}

// Enabled 是否已配置
func (s *Sender) Enabled() bool {
	return s != nil && s.opts.BotToken != ""
}

// API 返回（必要时创建）Bot API 客户端
func (s *Sender) API() (*tgbotapi.BotAPI, error) {
	if !s.Enabled() {
		return nil, ErrBotNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return s.api, nil
	}
	api, err := tgbotapi.NewBotAPIWithClient(s.opts.BotToken, s.opts.APIEndpoint, &http.Client{Timeout: s.opts.Timeout})
	if err != nil {
		return nil, err
	}
	s.api = api
	return api, nil
}

// SendMessage 发送 HTML 格式消息，可附带一个跳转按钮
func (s *Sender) SendMessage(ctx context.Context, chatID int64, text string, button *Button) error {
	api, err := s.API()
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup := buildMarkup(button); markup != nil {
		msg.ReplyMarkup = *markup
	}

	done := make(chan error, 1)
	go func() {
		_, sendErr := api.Send(msg)
		done <- sendErr
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func buildMarkup(button *Button) *tgbotapi.InlineKeyboardMarkup {
	if button == nil || strings.TrimSpace(button.URL) == "" || strings.TrimSpace(button.Text) == "" {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(button.Text, button.URL)),
	)
	return &markup
}

// BuildMarkup 供其它消息（如 inline 结果）复用按钮构造
func BuildMarkup(button *Button) *tgbotapi.InlineKeyboardMarkup {
	return buildMarkup(button)
}
