package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"dnspod-certbot/internal/config"
	domainpkg "dnspod-certbot/internal/domain"
	"dnspod-certbot/internal/storage"
)

// Validator 本地证书检查
type Validator struct {
	storage *storage.FileStorage
	log     logr.Logger
	now     func() time.Time
}

// NewValidator 创建验证器
func NewValidator(s *storage.FileStorage, log logr.Logger) *Validator {
	return &Validator{storage: s, log: log.WithName("validator"), now: time.Now}
}

// NeedRenew 判断是否需要申请证书（本地没有证书、域名不匹配或剩余天数不足），返回本地证书过期时间
func (v *Validator) NeedRenew(domainCfg config.DomainConfig) (bool, time.Time, error) {
	cert, err := v.storage.LoadCertificate(domainCfg.Domain)
	if errors.Is(err, storage.ErrNoCertificate) {
		v.log.Info("本地没有证书，需要申请", "domain", domainCfg.Domain)
		return true, time.Time{}, nil
	}
	if err != nil {
		return true, time.Time{}, fmt.Errorf("检查本地证书失败: %w", err)
	}

	// 收集证书覆盖的所有域名（CN + SANs）
	certDomains := cert.DNSNames
	if cert.Subject.CommonName != "" {
		certDomains = append([]string{cert.Subject.CommonName}, certDomains...)
	}
	for _, name := range domainCfg.Names() {
		if !matchAny(certDomains, name) {
			v.log.Info("本地证书域名不匹配，需要重新申请", "certDomains", certDomains, "target", name)
			return true, cert.NotAfter, nil
		}
	}

	daysUntilExpiry := int(cert.NotAfter.Sub(v.now()).Hours() / 24)
	v.log.Info("本地证书有效期", "domain", domainCfg.Domain, "days", daysUntilExpiry, "notAfter", cert.NotAfter.Format("2006-01-02"))

	return daysUntilExpiry <= domainCfg.RenewDays, cert.NotAfter, nil
}

// matchAny 检查目标域名是否被证书域名列表覆盖
func matchAny(certDomains []string, target string) bool {
	for _, certDomain := range certDomains {
		if domainpkg.MatchDomain(certDomain, target) {
			return true
		}
	}
	return false
}
