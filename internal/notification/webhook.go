package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-logr/logr"

	"dnspod-certbot/internal/config"
)

// EventType 事件类型
type EventType string

const (
	EventCertRenewed   EventType = "cert_renewed"   // 证书申请/续期成功
	EventCertFailed    EventType = "cert_failed"    // 证书申请失败
	EventCleanupFailed EventType = "cleanup_failed" // 验证记录清理失败
)

// EventData 事件数据
type EventData struct {
	Event     string         `json:"event"`          // 事件类型
	Domain    string         `json:"domain"`         // 域名
	Timestamp string         `json:"timestamp"`      // 时间戳
	Message   string         `json:"message"`        // 消息
	Data      map[string]any `json:"data,omitempty"` // 额外数据
}

// WebhookNotifier Webhook 通知器
type WebhookNotifier struct {
	config        *config.WebhookConfig
	client        *http.Client
	log           logr.Logger
	retryInterval time.Duration
}

// NewWebhookNotifier 创建 Webhook 通知器，未启用时返回 nil
func NewWebhookNotifier(cfg *config.WebhookConfig, log logr.Logger) *WebhookNotifier {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &WebhookNotifier{
		config:        cfg,
		client:        &http.Client{Timeout: timeout},
		log:           log.WithName("webhook"),
		retryInterval: time.Second,
	}
}

// ShouldNotify 检查是否应该发送该事件的通知
func (w *WebhookNotifier) ShouldNotify(eventType EventType) bool {
	if !w.IsEnabled() {
		return false
	}
	// 没有配置事件列表时发送所有事件
	return len(w.config.Events) == 0 || slices.Contains(w.config.Events, string(eventType))
}

// Notify 发送通知
func (w *WebhookNotifier) Notify(ctx context.Context, eventType EventType, domain, message string, data map[string]any) error {
	if !w.ShouldNotify(eventType) {
		return nil
	}

	eventData := EventData{
		Event:     string(eventType),
		Domain:    domain,
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   message,
		Data:      data,
	}

	body, err := w.buildBody(eventData)
	if err != nil {
		return err
	}

	retries := w.config.Retries
	if retries <= 0 {
		retries = 3
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.retryInterval

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, w.post(ctx, body)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(retries)))
	if err != nil {
		w.log.Error(err, "Webhook 通知发送失败", "retries", retries, "event", eventType)
		return err
	}

	w.log.Info("Webhook 通知发送成功", "event", eventType, "domain", domain)
	return nil
}

func (w *WebhookNotifier) buildBody(eventData EventData) ([]byte, error) {
	if w.config.BodyTemplate != "" {
		body, err := w.renderTemplate(w.config.BodyTemplate, eventData)
		if err == nil {
			return body, nil
		}
		// 模板渲染失败，使用默认 JSON 格式
		w.log.Error(err, "渲染 Webhook 请求体模板失败")
	}

	body, err := json.Marshal(eventData)
	if err != nil {
		return nil, fmt.Errorf("序列化事件数据失败: %w", err)
	}
	return body, nil
}

func (w *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("创建请求失败: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range w.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Webhook 返回错误状态码: %d", resp.StatusCode)
	}
	return nil
}

// renderTemplate 渲染模板
func (w *WebhookNotifier) renderTemplate(tmplStr string, data EventData) ([]byte, error) {
	funcMap := template.FuncMap{
		"toJson": func(v any) string {
			b, err := json.Marshal(v)
			if err != nil {
				return "null"
			}
			return string(b)
		},
	}

	tmpl, err := template.New("webhook").Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("渲染模板失败: %w", err)
	}

	return buf.Bytes(), nil
}

// NotifyCertRenewed 通知证书申请/续期成功
func (w *WebhookNotifier) NotifyCertRenewed(ctx context.Context, domain string, notAfter time.Time) error {
	message := fmt.Sprintf("证书申请/续期成功: %s", domain)
	data := map[string]any{
		"not_after": notAfter.Format(time.RFC3339),
	}
	return w.Notify(ctx, EventCertRenewed, domain, message, data)
}

// NotifyCertFailed 通知证书申请失败
func (w *WebhookNotifier) NotifyCertFailed(ctx context.Context, domain string, reason string) error {
	message := fmt.Sprintf("证书申请失败: %s", domain)
	data := map[string]any{
		"reason": reason,
	}
	return w.Notify(ctx, EventCertFailed, domain, message, data)
}

// NotifyCleanupFailed 通知验证记录清理失败，需要手动删除
func (w *WebhookNotifier) NotifyCleanupFailed(ctx context.Context, domain, validationName, reason string) error {
	message := fmt.Sprintf("验证记录清理失败，请手动删除: %s", validationName)
	data := map[string]any{
		"validation_name": validationName,
		"reason":          reason,
	}
	return w.Notify(ctx, EventCleanupFailed, domain, message, data)
}

// IsEnabled 检查是否启用
func (w *WebhookNotifier) IsEnabled() bool {
	return w != nil && w.config != nil && w.config.Enabled
}
