package core

import (
	"context"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/challenge/dns01"
	"github.com/go-logr/logr"
)

// CleanupNotifier 清理失败时的通知
type CleanupNotifier interface {
	NotifyCleanupFailed(ctx context.Context, domain, validationName, reason string) error
}

// Solver 实现 lego 的 DNS-01 challenge.Provider
type Solver struct {
	//nolint:containedctx
	ctx      context.Context
	records  *RecordManager
	log      logr.Logger
	timeout  time.Duration
	interval time.Duration
	notifier CleanupNotifier
}

// SolverOptions Solver 参数
type SolverOptions struct {
	PropagationTimeout time.Duration
	PollingInterval    time.Duration
	Notifier           CleanupNotifier // 可为空
}

// NewSolver 创建 DNS-01 Solver，ctx 用于所有提供商调用
func NewSolver(ctx context.Context, records *RecordManager, opts SolverOptions, log logr.Logger) *Solver {
	s := &Solver{
		ctx:      ctx,
		records:  records,
		log:      log.WithName("solver"),
		timeout:  opts.PropagationTimeout,
		interval: opts.PollingInterval,
		notifier: opts.Notifier,
	}
	if s.timeout <= 0 {
		s.timeout = dns01.DefaultPropagationTimeout
	}
	if s.interval <= 0 {
		s.interval = dns01.DefaultPollingInterval
	}
	return s
}

// Present 创建验证记录
func (s *Solver) Present(domain, token, keyAuth string) error {
	domain = strings.TrimPrefix(domain, "*.")
	info := dns01.GetChallengeInfo(domain, keyAuth)
	s.log.V(1).Info("开始创建验证记录", "domain", domain, "fqdn", info.FQDN)
	return s.records.Create(s.ctx, domain, dns01.UnFqdn(info.FQDN), info.Value)
}

// CleanUp 删除验证记录，失败时发送通知
func (s *Solver) CleanUp(domain, token, keyAuth string) error {
	domain = strings.TrimPrefix(domain, "*.")
	info := dns01.GetChallengeInfo(domain, keyAuth)
	s.log.V(1).Info("开始清理验证记录", "domain", domain, "fqdn", info.FQDN)

	validationName := dns01.UnFqdn(info.FQDN)
	err := s.records.Cleanup(s.ctx, validationName)
	if err != nil && s.notifier != nil {
		if nerr := s.notifier.NotifyCleanupFailed(s.ctx, domain, validationName, err.Error()); nerr != nil {
			s.log.Error(nerr, "发送清理失败通知失败")
		}
	}
	return err
}

// Timeout 返回等待记录生效的超时和检查间隔
func (s *Solver) Timeout() (timeout, interval time.Duration) {
	return s.timeout, s.interval
}
