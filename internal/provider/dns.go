package provider

import (
	"context"
	"errors"
)

// ErrRecordNotFound 删除时记录已不存在
var ErrRecordNotFound = errors.New("DNS记录不存在")

// DNSProvider DNS提供商接口
type DNSProvider interface {
	// Name 返回提供商名称
	Name() string

	// ListDomains 列出账号下已注册的域名
	ListDomains(ctx context.Context) ([]Domain, error)

	// ListRecordLines 列出域名可用的解析线路
	ListRecordLines(ctx context.Context, domain string) ([]RecordLine, error)

	// CreateTXTRecord 创建TXT记录，返回记录ID
	// domain: 主域名 (如 example.com)
	// subDomain: 主机记录 (如 _acme-challenge.www)
	// lineName: 解析线路名称 (如 默认)
	CreateTXTRecord(ctx context.Context, domain, subDomain, value, lineName string) (recordID string, err error)

	// DeleteRecord 删除DNS记录，记录不存在时返回 ErrRecordNotFound
	DeleteRecord(ctx context.Context, domain, recordID string) error
}
