package worker

import (
	"context"
	"errors"
	"time"

	"github.com/giftledger/internal/config"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultExpireSweepInterval = time.Minute
	expireSweepBatch           = 200
)

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
}

// NewService 创建异步队列服务
// 队列未启用时只运行过期扫描，保证转赠仍会按时失效。
func NewService(cfg *config.QueueConfig, consumer *Consumer, sweepInterval time.Duration) (*Service, error) {
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	if sweepInterval <= 0 {
		sweepInterval = defaultExpireSweepInterval
	}
	if cfg == nil || !cfg.Enabled {
		return &Service{name: "sweeper", consumer: consumer, sweepInterval: sweepInterval}, nil
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweepInterval: sweepInterval,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	if s.server == nil {
		if s.consumer.LedgerService == nil {
			return errors.New("worker not initialized")
		}
		s.runExpireSweepLoop(ctx)
		return nil
	}
	if s.consumer.LedgerService != nil {
		go s.runExpireSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runExpireSweepLoop 兜底扫描：延迟任务丢失时仍能让过期转赠失效
func (s *Service) runExpireSweepLoop(ctx context.Context) {
	runOnce := func() {
		expired, err := s.consumer.LedgerService.ExpireOverdueSends(expireSweepBatch)
		if err != nil {
			logger.Warnw("worker_send_expire_sweep_failed", "error", err)
			return
		}
		if expired > 0 {
			logger.Infow("worker_send_expire_sweep_done", "expired", expired)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
