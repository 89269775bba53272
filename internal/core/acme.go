package core

import (
	"context"
	"crypto"
	"fmt"
	"strings"
	"sync"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
	"github.com/go-logr/logr"

	"dnspod-certbot/internal/config"
	"dnspod-certbot/internal/storage"
)

// Obtainer 申请证书
type Obtainer interface {
	Obtain(ctx context.Context, domains []string) (*storage.Certificate, error)
}

// acmeUser 实现 lego 的 registration.User
type acmeUser struct {
	email        string
	registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *acmeUser) GetEmail() string                        { return u.email }
func (u *acmeUser) GetRegistration() *registration.Resource { return u.registration }
func (u *acmeUser) GetPrivateKey() crypto.PrivateKey        { return u.key }

// LegoObtainer 通过 ACME (lego) 申请证书，DNS-01 验证交给 solver
type LegoObtainer struct {
	cfg     config.ACMEConfig
	storage *storage.FileStorage
	solver  challenge.Provider
	log     logr.Logger

	once      sync.Once
	client    *lego.Client
	clientErr error
}

// NewLegoObtainer 创建 ACME 证书申请器
func NewLegoObtainer(cfg config.ACMEConfig, s *storage.FileStorage, solver challenge.Provider, log logr.Logger) *LegoObtainer {
	return &LegoObtainer{cfg: cfg, storage: s, solver: solver, log: log.WithName("acme")}
}

// Obtain 为 domains 申请一张证书，第一个域名作为 CN
func (o *LegoObtainer) Obtain(ctx context.Context, domains []string) (*storage.Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.once.Do(func() {
		o.client, o.clientErr = o.newClient()
	})
	if o.clientErr != nil {
		return nil, o.clientErr
	}

	o.log.Info("开始申请证书", "domains", domains)
	res, err := o.client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: domains,
		Bundle:  false,
	})
	if err != nil {
		return nil, fmt.Errorf("申请证书失败: %w", err)
	}

	return &storage.Certificate{
		Certificate: res.Certificate,
		PrivateKey:  res.PrivateKey,
		Issuer:      res.IssuerCertificate,
	}, nil
}

func (o *LegoObtainer) newClient() (*lego.Client, error) {
	key, err := o.storage.AccountKey(o.cfg.Email)
	if err != nil {
		return nil, err
	}
	user := &acmeUser{email: o.cfg.Email, key: key}

	legoCfg := lego.NewConfig(user)
	switch {
	case o.cfg.CADirURL != "":
		legoCfg.CADirURL = o.cfg.CADirURL
	case o.cfg.Staging:
		legoCfg.CADirURL = lego.LEDirectoryStaging
	default:
		legoCfg.CADirURL = lego.LEDirectoryProduction
	}
	o.log.Info("ACME 目录", "url", legoCfg.CADirURL)

	keyType, err := parseKeyType(o.cfg.KeyType)
	if err != nil {
		return nil, err
	}
	legoCfg.Certificate.KeyType = keyType

	client, err := lego.NewClient(legoCfg)
	if err != nil {
		return nil, fmt.Errorf("创建ACME客户端失败: %w", err)
	}

	if err := client.Challenge.SetDNS01Provider(o.solver); err != nil {
		return nil, fmt.Errorf("设置DNS-01验证失败: %w", err)
	}

	reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return nil, fmt.Errorf("注册ACME账号失败: %w", err)
	}
	user.registration = reg

	return client, nil
}

// parseKeyType 证书私钥类型
func parseKeyType(s string) (certcrypto.KeyType, error) {
	switch strings.ToLower(s) {
	case "", "ec256":
		return certcrypto.EC256, nil
	case "ec384":
		return certcrypto.EC384, nil
	case "rsa2048":
		return certcrypto.RSA2048, nil
	case "rsa4096":
		return certcrypto.RSA4096, nil
	default:
		return "", fmt.Errorf("不支持的私钥类型: %s", s)
	}
}
