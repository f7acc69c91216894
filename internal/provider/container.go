package provider

import (
	"time"

	"github.com/giftledger/internal/cache"
	"github.com/giftledger/internal/config"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/payment/cryptopay"
	"github.com/giftledger/internal/queue"
	"github.com/giftledger/internal/repository"
	"github.com/giftledger/internal/service"
	"github.com/giftledger/internal/telegram"
)

// Container 依赖注入容器
type Container struct {
	Config         *config.Config
	QueueClient    *queue.Client
	TelegramSender *telegram.Sender

	// Repositories
	AdminRepo           repository.AdminRepository
	UserRepo            repository.UserRepository
	GiftRepo            repository.GiftRepository
	GiftTransactionRepo repository.GiftTransactionRepository

	// Services
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	CatalogService      *service.CatalogService
	NotificationService *service.NotificationService
	LedgerService       *service.LedgerService
	LedgerQueryService  *service.LedgerQueryService
	PaymentService      *service.PaymentService
	ClaimService        *service.ClaimService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		TelegramSender: telegram.NewSender(telegram.SenderOptions{
			BotToken: cfg.Telegram.BotToken,
			Timeout:  time.Duration(cfg.Telegram.SendTimeoutSeconds) * time.Second,
		}),
	}

	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.GiftRepo = repository.NewGiftRepository(db)
	c.GiftTransactionRepo = repository.NewGiftTransactionRepository(db)
}

func (c *Container) initServices() {
	cfg := c.Config

	var messenger service.Messenger
	if c.TelegramSender.Enabled() {
		messenger = c.TelegramSender
	} else {
		logger.Warnw("provider_telegram_bot_not_configured", "notifications", "disabled")
	}

	var gateway service.InvoiceGateway
	gatewayCfg := cryptopay.Config{
		BaseURL:        cfg.CryptoPay.BaseURL,
		APIToken:       cfg.CryptoPay.APIToken,
		PaidButtonURL:  cfg.CryptoPay.PaidButtonURL,
		Timeout:        cfg.CryptoPay.RequestTimeout(),
		AllowAnonymous: cfg.CryptoPay.AllowAnonymous,
	}
	if err := cryptopay.ValidateConfig(gatewayCfg); err != nil {
		logger.Warnw("provider_cryptopay_config_invalid", "error", err)
	} else {
		gateway = cryptopay.NewClient(gatewayCfg)
	}

	c.AuthService = service.NewAuthService(cfg, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(cfg, c.UserRepo)
	c.CatalogService = service.NewCatalogService(c.GiftRepo, time.Duration(cfg.Gift.CatalogCacheTTLSeconds)*time.Second)
	c.NotificationService = service.NewNotificationService(
		messenger,
		c.QueueClient,
		c.UserRepo,
		cfg.Telegram.MiniAppURL,
		time.Duration(cfg.Telegram.SendTimeoutSeconds)*time.Second,
	)
	c.LedgerService = service.NewLedgerService(c.GiftTransactionRepo, c.CatalogService, c.NotificationService, c.QueueClient, cfg.Gift.ClaimTTL())
	c.LedgerQueryService = service.NewLedgerQueryService(c.GiftTransactionRepo, c.UserRepo, cfg.Gift.RecentForGiftLimit, cfg.Gift.RecentForUserLimit)
	c.PaymentService = service.NewPaymentService(c.LedgerService, c.GiftTransactionRepo, gateway, service.PaymentServiceOptions{
		APIToken:     cfg.CryptoPay.APIToken,
		WebhookToken: cfg.CryptoPay.WebhookToken,
		Timeout:      cfg.CryptoPay.RequestTimeout(),
	})
	c.ClaimService = service.NewClaimService(c.LedgerService, c.GiftTransactionRepo, c.UserRepo, claimBaseURL(cfg))
}

// claimBaseURL 未单独配置领取地址时回退到 Mini App 地址
func claimBaseURL(cfg *config.Config) string {
	if cfg.Gift.ClaimBaseURL != "" {
		return cfg.Gift.ClaimBaseURL
	}
	return cfg.Telegram.MiniAppURL
}
