// Package memory 提供内存版 DNS 提供商，调用结果确定，用于测试
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"dnspod-certbot/internal/provider"
)

// CreateCall 一次 CreateTXTRecord 调用
type CreateCall struct {
	Domain    string
	SubDomain string
	Value     string
	LineName  string
	RecordID  string
}

// DeleteCall 一次 DeleteRecord 调用
type DeleteCall struct {
	Domain   string
	RecordID string
}

// DNSProvider 内存DNS提供商
type DNSProvider struct {
	mu      sync.Mutex
	domains []string
	lines   map[string][]provider.RecordLine
	records map[string]provider.DNSRecord
	nextID  int

	// 按操作注入的错误
	ListDomainsErr error
	ListLinesErr   error
	CreateErr      error
	DeleteErr      error
	// 只对指定记录ID生效的删除错误
	DeleteErrFor map[string]error

	Creates []CreateCall
	Deletes []DeleteCall
}

// NewDNSProvider 创建内存DNS提供商
func NewDNSProvider(domains ...string) *DNSProvider {
	return &DNSProvider{
		domains: domains,
		lines:   make(map[string][]provider.RecordLine),
		records: make(map[string]provider.DNSRecord),
		nextID:  1,
	}
}

// SetLines 设置域名的解析线路列表
func (p *DNSProvider) SetLines(domain string, lines ...provider.RecordLine) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines[domain] = lines
}

// Records 返回当前存在的记录
func (p *DNSProvider) Records() []provider.DNSRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]provider.DNSRecord, 0, len(p.records))
	for i := 1; i < p.nextID; i++ {
		if r, ok := p.records[strconv.Itoa(i)]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "memory"
}

// ListDomains 列出域名
func (p *DNSProvider) ListDomains(ctx context.Context) ([]provider.Domain, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ListDomainsErr != nil {
		return nil, p.ListDomainsErr
	}
	out := make([]provider.Domain, 0, len(p.domains))
	for _, d := range p.domains {
		out = append(out, provider.Domain{Name: d})
	}
	return out, nil
}

// ListRecordLines 列出解析线路，未设置时返回默认线路
func (p *DNSProvider) ListRecordLines(ctx context.Context, domain string) ([]provider.RecordLine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ListLinesErr != nil {
		return nil, p.ListLinesErr
	}
	lines, ok := p.lines[domain]
	if !ok {
		return []provider.RecordLine{{Name: "默认", ID: provider.DefaultLineID}}, nil
	}
	return append([]provider.RecordLine(nil), lines...), nil
}

// CreateTXTRecord 创建TXT记录
func (p *DNSProvider) CreateTXTRecord(ctx context.Context, domain, subDomain, value, lineName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.CreateErr != nil {
		return "", p.CreateErr
	}
	id := strconv.Itoa(p.nextID)
	p.nextID++

	p.records[id] = provider.DNSRecord{
		RecordID: id,
		Domain:   domain,
		RR:       subDomain,
		Type:     "TXT",
		Value:    value,
		Line:     lineName,
	}
	p.Creates = append(p.Creates, CreateCall{
		Domain:    domain,
		SubDomain: subDomain,
		Value:     value,
		LineName:  lineName,
		RecordID:  id,
	})
	return id, nil
}

// DeleteRecord 删除记录
func (p *DNSProvider) DeleteRecord(ctx context.Context, domain, recordID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Deletes = append(p.Deletes, DeleteCall{Domain: domain, RecordID: recordID})
	if p.DeleteErr != nil {
		return p.DeleteErr
	}
	if err := p.DeleteErrFor[recordID]; err != nil {
		return err
	}

	r, ok := p.records[recordID]
	if !ok || r.Domain != domain {
		return fmt.Errorf("记录 %s: %w", recordID, provider.ErrRecordNotFound)
	}
	delete(p.records, recordID)
	return nil
}
