package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// EnvSecretID 未在配置文件中提供凭证时读取的环境变量
	EnvSecretID = "TENCENTCLOUD_SECRET_ID"
	// EnvSecretKey 同上
	EnvSecretKey = "TENCENTCLOUD_SECRET_KEY"
)

// ConfigurationError 配置不可用
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "配置错误: " + e.Msg
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return Parse(data)
}

// Parse 解析配置内容，补全默认值并校验
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	setDefaults(&config)

	if err := ResolveCredentials(&config); err != nil {
		return nil, err
	}

	// 验证配置
	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults 设置默认值
func setDefaults(config *Config) {
	if config.OutputDir == "" {
		config.OutputDir = "./certs"
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30
	}
	if config.Retries <= 0 {
		config.Retries = 3
	}
	if config.PropagationTimeout <= 0 {
		config.PropagationTimeout = 600
	}
	if config.PollingInterval <= 0 {
		config.PollingInterval = 10
	}
	if config.TTL <= 0 {
		config.TTL = 600
	}
	if config.ACME.KeyType == "" {
		config.ACME.KeyType = "ec256"
	}
	for i := range config.Domains {
		if config.Domains[i].RenewDays == 0 {
			config.Domains[i].RenewDays = 30
		}
	}
}

// ResolveCredentials 确定腾讯云凭证来源：
// 配置文件中完整提供时使用配置文件，否则读取环境变量，都没有则报错
func ResolveCredentials(config *Config) error {
	tc := config.Providers.Tencent
	if tc != nil {
		tc.SecretID = os.ExpandEnv(tc.SecretID)
		tc.SecretKey = os.ExpandEnv(tc.SecretKey)
		if tc.SecretID != "" && tc.SecretKey != "" {
			return nil
		}
		if tc.SecretID != "" || tc.SecretKey != "" {
			return &ConfigurationError{Msg: "providers.tencent 需要同时提供 secret_id 和 secret_key"}
		}
	}

	var missing []string
	secretID, ok := os.LookupEnv(EnvSecretID)
	if !ok || secretID == "" {
		missing = append(missing, EnvSecretID)
	}
	secretKey, ok := os.LookupEnv(EnvSecretKey)
	if !ok || secretKey == "" {
		missing = append(missing, EnvSecretKey)
	}
	if len(missing) > 0 {
		return &ConfigurationError{
			Msg: fmt.Sprintf("未在配置文件中提供腾讯云凭证，且缺少环境变量 %s", strings.Join(missing, ", ")),
		}
	}

	if tc == nil {
		tc = &TencentConfig{}
		config.Providers.Tencent = tc
	}
	tc.SecretID = secretID
	tc.SecretKey = secretKey
	return nil
}

// validate 验证配置
func validate(config *Config) error {
	for _, domain := range config.Domains {
		if domain.Domain == "" {
			return fmt.Errorf("domains 中存在空域名")
		}
		if domain.RenewDays < 0 {
			return fmt.Errorf("域名 %s: renew_days 不能为负数", domain.Domain)
		}
	}

	if len(config.Domains) > 0 && config.ACME.Email == "" {
		return fmt.Errorf("申请证书需要配置 acme.email")
	}

	if config.Webhook != nil && config.Webhook.Enabled && config.Webhook.URL == "" {
		return fmt.Errorf("webhook 已启用但未配置 url")
	}

	return nil
}
