package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/giftledger/internal/bot"
	"github.com/giftledger/internal/config"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/provider"
	"github.com/giftledger/internal/router"
	"github.com/giftledger/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("unsupported mode %q", mode)
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		httpService := NewHTTPService(addr, engine)
		services = append(services, httpService)
	}

	// 初始化 Worker 服务（队列消费与过期扫描）
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		sweepInterval := time.Duration(cfg.Gift.ExpireSweepIntervalSecs) * time.Second
		workerService, err := worker.NewService(&cfg.Queue, consumer, sweepInterval)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	// 初始化机器人服务：all 模式下按配置开关，bot 模式下必须可用
	if mode == ModeBot || (mode == ModeAll && cfg.Telegram.BotEnabled) {
		if container.ClaimService == nil {
			return nil, errors.New("claim service not initialized")
		}
		botService, err := bot.NewService(cfg.Telegram, container.ClaimService)
		if err != nil {
			if mode == ModeBot {
				return nil, err
			}
			logger.Warnw("bot_service_skipped", "error", err)
		} else {
			services = append(services, botService)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
