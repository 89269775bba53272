package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"dnspod-certbot/internal/config"
	"dnspod-certbot/internal/notification"
	"dnspod-certbot/internal/storage"
)

// Manager 证书管理器
type Manager struct {
	config    *config.Config
	obtainer  Obtainer
	storage   *storage.FileStorage
	validator *Validator
	executor  *Executor
	notifier  *notification.WebhookNotifier
	log       logr.Logger
}

// NewManager 创建管理器，notifier 可为空
func NewManager(cfg *config.Config, obtainer Obtainer, s *storage.FileStorage, notifier *notification.WebhookNotifier, log logr.Logger) *Manager {
	return &Manager{
		config:    cfg,
		obtainer:  obtainer,
		storage:   s,
		validator: NewValidator(s, log),
		executor:  NewExecutor(log),
		notifier:  notifier,
		log:       log.WithName("manager"),
	}
}

// Run 依次处理所有域名，单个域名失败不影响其他域名
func (m *Manager) Run(ctx context.Context) error {
	m.log.Info("开始检查证书", "domains", len(m.config.Domains))

	var errs []error
	for _, domainCfg := range m.config.Domains {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := m.ProcessDomain(ctx, domainCfg); err != nil {
			m.log.Error(err, "处理域名失败", "domain", domainCfg.Domain)
			errs = append(errs, fmt.Errorf("%s: %w", domainCfg.Domain, err))
		}
	}

	m.log.Info("检查完成", "failed", len(errs))
	return errors.Join(errs...)
}

// ProcessDomain 处理单个域名
func (m *Manager) ProcessDomain(ctx context.Context, domainCfg config.DomainConfig) error {
	domain := domainCfg.Domain
	log := m.log.WithValues("domain", domain)

	// 1. 检查本地证书是否仍然有效
	needRenew, expiry, err := m.validator.NeedRenew(domainCfg)
	if err != nil {
		log.Error(err, "检查本地证书失败，将申请新证书")
	}
	if !needRenew {
		log.Info("本地证书有效，无需续期", "notAfter", expiry.Format("2006-01-02"))
		return nil
	}

	// 2. 申请证书
	cert, err := m.obtainer.Obtain(ctx, domainCfg.Names())
	if err != nil {
		m.notify(log, m.notifier.NotifyCertFailed(ctx, domain, err.Error()))
		return err
	}

	if err := m.storage.SaveCertificate(domain, cert); err != nil {
		m.notify(log, m.notifier.NotifyCertFailed(ctx, domain, err.Error()))
		return fmt.Errorf("保存证书失败: %w", err)
	}

	saved, err := m.storage.LoadCertificate(domain)
	if err != nil {
		return fmt.Errorf("读取新证书失败: %w", err)
	}
	log.Info("证书已签发", "notAfter", saved.NotAfter.Format("2006-01-02"))

	// 3. 执行后置命令
	postCommand := domainCfg.PostCommand
	if postCommand == "" {
		postCommand = m.config.PostCommand
	}
	if postCommand != "" {
		vars := m.executor.BuildVars(
			domain,
			domainCfg.Names(),
			m.storage.GetCertDir(domain),
			m.storage.GetCertPath(domain),
			m.storage.GetKeyPath(domain),
			m.storage.GetFullchainPath(domain),
		)
		if err := m.executor.RunPostCommand(ctx, postCommand, vars); err != nil {
			log.Error(err, "执行后置命令失败")
		}
	}

	m.notify(log, m.notifier.NotifyCertRenewed(ctx, domain, saved.NotAfter))
	return nil
}

func (m *Manager) notify(log logr.Logger, err error) {
	if err != nil {
		log.Error(err, "发送通知失败")
	}
}
