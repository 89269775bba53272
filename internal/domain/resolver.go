package domain

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// NotFoundError 账号下没有任何候选域名
type NotFoundError struct {
	Domain     string
	Candidates []string // 按尝试顺序排列
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("无法确定 %s 的主域名，账号下不存在以下任何域名: %v", e.Domain, e.Candidates)
}

// Normalize 转小写并去掉末尾的点
func Normalize(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// Candidates 生成候选主域名，从最具体的（完整域名）开始，
// 每次去掉最左边一级，直到剩两级为止
// 例如: a.b.example.com -> [a.b.example.com b.example.com example.com]
func Candidates(domain string) []string {
	labels := dns.SplitDomainName(Normalize(domain))
	if len(labels) < 2 {
		return nil
	}

	candidates := make([]string, 0, len(labels)-1)
	for i := 0; i <= len(labels)-2; i++ {
		candidates = append(candidates, strings.Join(labels[i:], "."))
	}
	return candidates
}

// ResolveBaseDomain 在已注册域名中查找 domain 所属的主域名
// 优先匹配更具体的后缀，账号下可能注册了 a.example.com 这样的三级域名
func ResolveBaseDomain(domain string, registered []string) (string, error) {
	set := make(map[string]struct{}, len(registered))
	for _, r := range registered {
		set[Normalize(r)] = struct{}{}
	}

	candidates := Candidates(domain)
	for _, c := range candidates {
		if _, ok := set[c]; ok {
			return c, nil
		}
	}

	return "", &NotFoundError{Domain: domain, Candidates: candidates}
}

// ExtractSubDomain 提取主机记录部分
// 例如: _acme-challenge.www.example.com, example.com -> _acme-challenge.www
// validationName 不是 baseDomain 的真子域时 ok 为 false
func ExtractSubDomain(validationName, baseDomain string) (sub string, ok bool) {
	suffix := "." + baseDomain
	if baseDomain == "" || !strings.HasSuffix(validationName, suffix) {
		return "", false
	}
	sub = strings.TrimSuffix(validationName, suffix)
	if sub == "" {
		return "", false
	}
	return sub, true
}

// IsSubDomain 检查是否为子域名
func IsSubDomain(domain, mainDomain string) bool {
	return strings.HasSuffix(domain, "."+mainDomain) || domain == mainDomain
}

// MatchDomain 检查证书域名是否覆盖目标域名（支持通配符，只匹配一级）
func MatchDomain(certDomain, targetDomain string) bool {
	certDomain = Normalize(certDomain)
	targetDomain = Normalize(targetDomain)

	if certDomain == targetDomain {
		return true
	}

	if rest, ok := strings.CutPrefix(certDomain, "*."); ok {
		_, parent, found := strings.Cut(targetDomain, ".")
		return found && parent == rest && !strings.HasPrefix(targetDomain, "*.")
	}

	return false
}
