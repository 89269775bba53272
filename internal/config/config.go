package config

import "time"

// Config 配置结构
type Config struct {
	// 云平台凭证配置
	Providers ProvidersConfig `yaml:"providers"`

	// ACME 账号配置
	ACME ACMEConfig `yaml:"acme"`

	// 域名配置
	Domains []DomainConfig `yaml:"domains"`

	// 全局配置
	OutputDir   string `yaml:"output_dir"`
	PostCommand string `yaml:"post_command"` // 全局后置命令
	Debug       bool   `yaml:"debug"`        // 输出调试信息
	LogFile     string `yaml:"log_file"`     // 额外写入 JSON 日志文件

	RequestTimeout     int `yaml:"request_timeout"`     // 单次API调用超时（秒），默认30
	Retries            int `yaml:"retries"`             // 限频等临时错误的重试次数，默认3
	PropagationTimeout int `yaml:"propagation_timeout"` // 等待记录生效超时（秒），默认600
	PollingInterval    int `yaml:"polling_interval"`    // 检查记录生效间隔（秒），默认10
	TTL                int `yaml:"ttl"`                 // TXT记录TTL（秒），默认600

	// Webhook 通知配置
	Webhook *WebhookConfig `yaml:"webhook,omitempty"`
}

// ProvidersConfig 云平台凭证配置
type ProvidersConfig struct {
	Tencent *TencentConfig `yaml:"tencent,omitempty"`
}

// TencentConfig 腾讯云配置
type TencentConfig struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// ACMEConfig ACME 账号配置
type ACMEConfig struct {
	Email    string `yaml:"email"`
	CADirURL string `yaml:"ca_dir_url,omitempty"` // 为空时使用 Let's Encrypt
	Staging  bool   `yaml:"staging"`              // 使用 Let's Encrypt 测试环境
	KeyType  string `yaml:"key_type,omitempty"`   // 证书私钥类型，默认 ec256
}

// DomainConfig 域名配置
type DomainConfig struct {
	Domain      string   `yaml:"domain"`
	Sans        []string `yaml:"sans,omitempty"` // 备用域名，支持 *.example.com
	RenewDays   int      `yaml:"renew_days"`
	PostCommand string   `yaml:"post_command,omitempty"`
}

// Names 返回证书覆盖的全部域名，主域名在前
func (d *DomainConfig) Names() []string {
	return append([]string{d.Domain}, d.Sans...)
}

// WebhookConfig Webhook 通知配置
type WebhookConfig struct {
	Enabled      bool              `yaml:"enabled"`                 // 是否启用
	URL          string            `yaml:"url"`                     // Webhook URL
	Headers      map[string]string `yaml:"headers,omitempty"`       // 自定义请求头
	Events       []string          `yaml:"events,omitempty"`        // 订阅的事件类型
	Timeout      int               `yaml:"timeout,omitempty"`       // 请求超时时间（秒），默认30
	Retries      int               `yaml:"retries,omitempty"`       // 重试次数，默认3
	BodyTemplate string            `yaml:"body_template,omitempty"` // 请求体模板（JSON格式）
}

// RequestTimeoutDuration 单次API调用超时
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// PropagationTimeoutDuration 等待记录生效超时
func (c *Config) PropagationTimeoutDuration() time.Duration {
	return time.Duration(c.PropagationTimeout) * time.Second
}

// PollingIntervalDuration 检查记录生效间隔
func (c *Config) PollingIntervalDuration() time.Duration {
	return time.Duration(c.PollingInterval) * time.Second
}
