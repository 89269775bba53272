package core

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"

	"dnspod-certbot/internal/config"
	"dnspod-certbot/internal/notification"
	"dnspod-certbot/internal/provider"
	"dnspod-certbot/internal/provider/tencent"
	"dnspod-certbot/internal/storage"
)

// NewDNSProvider 根据配置创建DNS提供商
func NewDNSProvider(cfg *config.Config, log logr.Logger) (provider.DNSProvider, error) {
	if cfg.Providers.Tencent == nil {
		return nil, &config.ConfigurationError{Msg: "腾讯云DNS提供商未配置"}
	}
	return tencent.NewDNSProvider(cfg.Providers.Tencent, tencent.Options{
		Timeout:       cfg.RequestTimeoutDuration(),
		Retries:       cfg.Retries,
		RetryInterval: time.Second,
		TTL:           cfg.TTL,
	}, log)
}

// Components 一次运行所需的组件
type Components struct {
	Provider provider.DNSProvider
	Records  *RecordManager
	Solver   *Solver
	Storage  *storage.FileStorage
	Notifier *notification.WebhookNotifier
	Manager  *Manager
}

// Build 组装一次运行所需的组件，验证记录表只在返回的 Components 内共享
func Build(ctx context.Context, cfg *config.Config, fs afero.Fs, dns provider.DNSProvider, log logr.Logger) *Components {
	notifier := notification.NewWebhookNotifier(cfg.Webhook, log)

	var cleanupNotifier CleanupNotifier
	if notifier.IsEnabled() {
		cleanupNotifier = notifier
	}

	records := NewRecordManager(dns, log)
	solver := NewSolver(ctx, records, SolverOptions{
		PropagationTimeout: cfg.PropagationTimeoutDuration(),
		PollingInterval:    cfg.PollingIntervalDuration(),
		Notifier:           cleanupNotifier,
	}, log)

	s := storage.NewFileStorage(fs, cfg.OutputDir, log)
	obtainer := NewLegoObtainer(cfg.ACME, s, solver, log)

	return &Components{
		Provider: dns,
		Records:  records,
		Solver:   solver,
		Storage:  s,
		Notifier: notifier,
		Manager:  NewManager(cfg, obtainer, s, notifier, log),
	}
}
