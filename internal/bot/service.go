package bot

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/giftledger/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Service 机器人长轮询服务
type Service struct {
	name        string
	token       string
	pollTimeout int
	claims      ClaimResolver
	miniAppURL  string
}

// NewService 创建机器人服务
func NewService(cfg config.TelegramConfig, claims ClaimResolver) (*Service, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	if claims == nil {
		return nil, errors.New("claim resolver is nil")
	}
	pollTimeout := cfg.PollTimeoutSeconds
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Service{
		name:        "bot",
		token:       token,
		pollTimeout: pollTimeout,
		claims:      claims,
		miniAppURL:  cfg.MiniAppURL,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "bot"
	}
	return s.name
}

// Start 连接 Bot API 并开始轮询
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("bot not initialized")
	}
	// 长轮询请求会挂起 pollTimeout 秒，客户端超时需要留出余量
	client := &http.Client{Timeout: time.Duration(s.pollTimeout+10) * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(s.token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return err
	}
	return Run(ctx, api, NewHandler(api, s.claims, s.miniAppURL), s.pollTimeout)
}

// Stop 停止服务（轮询随 ctx 取消退出）
func (s *Service) Stop(ctx context.Context) error {
	return nil
}
