package worker

import (
	"context"
	"testing"
	"time"

	"github.com/giftledger/internal/config"
	"github.com/giftledger/internal/provider"
)

func TestNewServiceWithoutQueueRunsSweeperOnly(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{}, nil, time.Minute); err == nil {
		t.Fatalf("expected error for nil consumer")
	}

	svc, err := NewService(&config.QueueConfig{Enabled: false}, NewConsumer(&provider.Container{}), 0)
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	if svc.Name() != "sweeper" {
		t.Fatalf("name want sweeper got %s", svc.Name())
	}
	if svc.sweepInterval != defaultExpireSweepInterval {
		t.Fatalf("sweep interval want default got %s", svc.sweepInterval)
	}
	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("expected start to fail without ledger service")
	}
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}
