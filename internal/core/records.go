package core

import (
	"context"
	"errors"
	"sync"

	"github.com/go-logr/logr"

	"dnspod-certbot/internal/domain"
	"dnspod-certbot/internal/provider"
)

// ProvisionedRecord 已创建的验证记录
type ProvisionedRecord struct {
	BaseDomain string
	RecordID   string
}

// RecordManager 管理验证记录的创建和清理，
// 记录按验证记录名保存，只在本次运行期间有效
type RecordManager struct {
	provider provider.DNSProvider
	log      logr.Logger

	mu      sync.Mutex
	records map[string]ProvisionedRecord
	// 被同名记录覆盖、尚未删除的记录
	superseded map[string][]ProvisionedRecord
}

// NewRecordManager 创建验证记录管理器
func NewRecordManager(p provider.DNSProvider, log logr.Logger) *RecordManager {
	return &RecordManager{
		provider:   p,
		log:        log.WithName("records"),
		records:    make(map[string]ProvisionedRecord),
		superseded: make(map[string][]ProvisionedRecord),
	}
}

// Resolution 创建验证记录前确定的参数
type Resolution struct {
	BaseDomain string
	SubDomain  string
	Line       provider.RecordLine
}

// Resolve 确定主域名、主机记录和解析线路，不修改任何记录
// certDomain 是证书域名，用于确定账号下的主域名
func (m *RecordManager) Resolve(ctx context.Context, certDomain, validationName string) (*Resolution, error) {
	validationName = domain.Normalize(validationName)
	log := m.log.WithValues("domain", certDomain, "validationName", validationName)

	log.V(1).Info("查找主域名", "candidates", domain.Candidates(certDomain))
	domains, err := m.provider.ListDomains(ctx)
	if err != nil {
		return nil, &ProvisionError{ValidationName: validationName, Err: err}
	}
	registered := make([]string, 0, len(domains))
	for _, d := range domains {
		registered = append(registered, d.Name)
	}

	baseDomain, err := domain.ResolveBaseDomain(certDomain, registered)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("已确定主域名", "baseDomain", baseDomain)

	subDomain, ok := domain.ExtractSubDomain(validationName, baseDomain)
	if !ok {
		return nil, &InvalidHierarchyError{BaseDomain: baseDomain, ValidationName: validationName}
	}
	log.V(1).Info("已确定主机记录", "subDomain", subDomain)

	lines, err := m.provider.ListRecordLines(ctx, baseDomain)
	if err != nil {
		return nil, &ProvisionError{ValidationName: validationName, Err: err}
	}
	line, err := SelectDefaultLine(lines)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("已选择解析线路", "line", line.Name, "lineID", line.ID)

	return &Resolution{BaseDomain: baseDomain, SubDomain: subDomain, Line: line}, nil
}

// Create 为 validationName 创建值为 value 的TXT记录
func (m *RecordManager) Create(ctx context.Context, certDomain, validationName, value string) error {
	validationName = domain.Normalize(validationName)
	log := m.log.WithValues("domain", certDomain, "validationName", validationName)

	res, err := m.Resolve(ctx, certDomain, validationName)
	if err != nil {
		return err
	}
	baseDomain := res.BaseDomain

	recordID, err := m.provider.CreateTXTRecord(ctx, baseDomain, res.SubDomain, value, res.Line.Name)
	if err != nil {
		return &ProvisionError{ValidationName: validationName, Err: err}
	}

	m.mu.Lock()
	prev, overwritten := m.records[validationName]
	m.records[validationName] = ProvisionedRecord{BaseDomain: baseDomain, RecordID: recordID}
	if overwritten {
		m.superseded[validationName] = append(m.superseded[validationName], prev)
	}
	m.mu.Unlock()

	if overwritten {
		// 主域名和通配符域名共用同一个验证记录名
		log.Info("覆盖了尚未清理的验证记录，清理时一并删除", "oldRecordID", prev.RecordID)
	}

	log.Info("验证记录已创建", "baseDomain", baseDomain, "recordID", recordID)
	return nil
}

// Cleanup 删除 Create 为 validationName 创建的记录
// 没有对应记录时只记录日志，创建失败后也可以无条件调用
func (m *RecordManager) Cleanup(ctx context.Context, validationName string) error {
	validationName = domain.Normalize(validationName)
	log := m.log.WithValues("validationName", validationName)

	m.mu.Lock()
	rec, ok := m.records[validationName]
	pending := len(m.superseded[validationName])
	m.mu.Unlock()

	if !ok && pending == 0 {
		log.Info("清理时未找到记录ID，可能之前的创建已失败")
		return nil
	}

	if ok {
		if err := m.delete(ctx, validationName, rec); err != nil {
			return err
		}
	}

	m.mu.Lock()
	if cur, exists := m.records[validationName]; ok && exists && cur == rec {
		delete(m.records, validationName)
	}
	old := m.superseded[validationName]
	delete(m.superseded, validationName)
	m.mu.Unlock()

	var errs []error
	var failed []ProvisionedRecord
	for _, o := range old {
		if err := m.delete(ctx, validationName, o); err != nil {
			errs = append(errs, err)
			failed = append(failed, o)
		}
	}
	if len(failed) > 0 {
		m.mu.Lock()
		m.superseded[validationName] = append(m.superseded[validationName], failed...)
		m.mu.Unlock()
	}
	return errors.Join(errs...)
}

// delete 删除一条记录，记录已不存在视为成功
func (m *RecordManager) delete(ctx context.Context, validationName string, rec ProvisionedRecord) error {
	log := m.log.WithValues("validationName", validationName)

	err := m.provider.DeleteRecord(ctx, rec.BaseDomain, rec.RecordID)
	if err != nil && !errors.Is(err, provider.ErrRecordNotFound) {
		return &CleanupError{
			ValidationName: validationName,
			BaseDomain:     rec.BaseDomain,
			RecordID:       rec.RecordID,
			Err:            err,
		}
	}
	if err != nil {
		log.Info("记录已不存在，视为已删除", "recordID", rec.RecordID)
		return nil
	}

	log.Info("验证记录已删除", "baseDomain", rec.BaseDomain, "recordID", rec.RecordID)
	return nil
}

// Lookup 返回 validationName 当前对应的记录
func (m *RecordManager) Lookup(validationName string) (ProvisionedRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[domain.Normalize(validationName)]
	return rec, ok
}

// Len 返回尚未清理的记录数，包括被覆盖的记录
func (m *RecordManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records)
	for _, old := range m.superseded {
		n += len(old)
	}
	return n
}
