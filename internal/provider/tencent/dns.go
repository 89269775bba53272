package tencent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	sdkerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	dnspod "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/dnspod/v20210323"

	"dnspod-certbot/internal/config"
	"dnspod-certbot/internal/provider"
)

const (
	endpoint = "dnspod.tencentcloudapi.com"
	pageSize = 3000
)

// Options 调用参数
type Options struct {
	Timeout       time.Duration // 单次调用超时
	Retries       int           // 最大尝试次数
	RetryInterval time.Duration // 首次重试间隔
	TTL           int           // TXT记录TTL
}

// DNSProvider 腾讯云DNS提供商 (DNSPod)
type DNSProvider struct {
	client *dnspod.Client
	log    logr.Logger

	timeout       time.Duration
	retries       int
	retryInterval time.Duration
	ttl           uint64
}

// NewDNSProvider 创建腾讯云DNS提供商
func NewDNSProvider(cfg *config.TencentConfig, opts Options, log logr.Logger) (*DNSProvider, error) {
	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = endpoint
	if opts.Timeout > 0 {
		cpf.HttpProfile.ReqTimeout = int(opts.Timeout / time.Second)
	}

	client, err := dnspod.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云DNSPod客户端失败: %w", err)
	}

	p := newDNSProvider(opts, log)
	p.client = client
	return p, nil
}

func newDNSProvider(opts Options, log logr.Logger) *DNSProvider {
	p := &DNSProvider{
		log:           log.WithName("dnspod"),
		timeout:       opts.Timeout,
		retries:       opts.Retries,
		retryInterval: opts.RetryInterval,
		ttl:           600,
	}
	if p.timeout <= 0 {
		p.timeout = 30 * time.Second
	}
	if p.retries <= 0 {
		p.retries = 1
	}
	if p.retryInterval <= 0 {
		p.retryInterval = time.Second
	}
	if opts.TTL > 0 {
		p.ttl = uint64(opts.TTL)
	}
	return p
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "tencent"
}

// ListDomains 列出账号下的全部域名
func (p *DNSProvider) ListDomains(ctx context.Context) ([]provider.Domain, error) {
	var domains []provider.Domain

	for offset := int64(0); ; offset += pageSize {
		request := dnspod.NewDescribeDomainListRequest()
		request.Type = common.StringPtr("ALL")
		request.Offset = common.Int64Ptr(offset)
		request.Limit = common.Int64Ptr(pageSize)

		var response *dnspod.DescribeDomainListResponse
		err := p.call(ctx, "DescribeDomainList", func(ctx context.Context) (err error) {
			response, err = p.client.DescribeDomainListWithContext(ctx, request)
			return err
		})
		if err != nil {
			// 账号下没有域名时腾讯云返回错误
			if hasCode(err, "ResourceNotFound.NoDataOfDomain") {
				break
			}
			return nil, fmt.Errorf("获取域名列表失败: %w", err)
		}

		var page []*dnspod.DomainListItem
		if response.Response != nil {
			page = response.Response.DomainList
		}
		for _, item := range page {
			if item.Name != nil {
				domains = append(domains, provider.Domain{Name: *item.Name})
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	p.log.V(1).Info("获取域名列表", "count", len(domains))
	return domains, nil
}

// ListRecordLines 列出域名的解析线路
func (p *DNSProvider) ListRecordLines(ctx context.Context, domain string) ([]provider.RecordLine, error) {
	request := dnspod.NewDescribeRecordLineCategoryListRequest()
	request.Domain = common.StringPtr(domain)

	var response *dnspod.DescribeRecordLineCategoryListResponse
	err := p.call(ctx, "DescribeRecordLineCategoryList", func(ctx context.Context) (err error) {
		response, err = p.client.DescribeRecordLineCategoryListWithContext(ctx, request)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("获取解析线路失败: %w", err)
	}

	var lines []provider.RecordLine
	if response.Response != nil {
		for _, line := range response.Response.LineList {
			if line.LineName == nil || line.LineId == nil {
				continue
			}
			lines = append(lines, provider.RecordLine{Name: *line.LineName, ID: *line.LineId})
		}
	}
	return lines, nil
}

// CreateTXTRecord 添加TXT记录
func (p *DNSProvider) CreateTXTRecord(ctx context.Context, domain, subDomain, value, lineName string) (string, error) {
	p.log.Info("添加TXT记录", "domain", domain, "subDomain", subDomain, "line", lineName)

	request := dnspod.NewCreateTXTRecordRequest()
	request.Domain = common.StringPtr(domain)
	request.SubDomain = common.StringPtr(subDomain)
	request.RecordLine = common.StringPtr(lineName)
	request.Value = common.StringPtr(value)
	request.TTL = common.Uint64Ptr(p.ttl)

	var response *dnspod.CreateTXTRecordResponse
	err := p.call(ctx, "CreateTXTRecord", func(ctx context.Context) (err error) {
		response, err = p.client.CreateTXTRecordWithContext(ctx, request)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("添加TXT记录失败: %w", err)
	}
	if response.Response == nil || response.Response.RecordId == nil {
		return "", fmt.Errorf("添加TXT记录失败: 响应中没有记录ID")
	}

	recordID := strconv.FormatUint(*response.Response.RecordId, 10)
	p.log.Info("记录已添加", "recordID", recordID)
	return recordID, nil
}

// DeleteRecord 删除DNS记录
func (p *DNSProvider) DeleteRecord(ctx context.Context, domain, recordID string) error {
	p.log.Info("删除记录", "domain", domain, "recordID", recordID)

	id, err := strconv.ParseUint(recordID, 10, 64)
	if err != nil {
		return fmt.Errorf("无效的记录ID %q: %w", recordID, err)
	}

	request := dnspod.NewDeleteRecordRequest()
	request.Domain = common.StringPtr(domain)
	request.RecordId = common.Uint64Ptr(id)

	err = p.call(ctx, "DeleteRecord", func(ctx context.Context) error {
		_, err := p.client.DeleteRecordWithContext(ctx, request)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("删除DNS记录 %s: %w", recordID, provider.ErrRecordNotFound)
		}
		return fmt.Errorf("删除DNS记录失败: %w", err)
	}

	p.log.Info("记录已删除", "recordID", recordID)
	return nil
}

// call 执行一次API调用，限频等临时错误按指数退避重试
func (p *DNSProvider) call(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		err := fn(callCtx)
		if err == nil {
			return struct{}{}, nil
		}
		if !isRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		p.log.V(1).Info("API调用失败，稍后重试", "action", action, "attempt", attempt, "error", err.Error())
		return struct{}{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryInterval

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.retries)),
	)
	return err
}

// isRetryable 限频、内部错误和网络错误可以重试
func isRetryable(err error) bool {
	var sdkErr *sdkerrors.TencentCloudSDKError
	if !errors.As(err, &sdkErr) {
		return false
	}
	code := sdkErr.GetCode()
	return strings.HasPrefix(code, "RequestLimitExceeded") ||
		code == "InternalError" ||
		code == "ClientError.NetworkError"
}

// isNotFound 记录已被删除或不存在
func isNotFound(err error) bool {
	return hasCode(err, "ResourceNotFound.NoDataOfRecord") ||
		hasCode(err, "InvalidParameter.RecordIdInvalid")
}

func hasCode(err error, code string) bool {
	var sdkErr *sdkerrors.TencentCloudSDKError
	return errors.As(err, &sdkErr) && sdkErr.GetCode() == code
}
