package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ==================== 接口定义 ====================

// PaymentIntentStatusSucceeded 渠道侧「支付完成」状态
const PaymentIntentStatusSucceeded = "succeeded"

// ProviderIntent 渠道侧支付意向
// 渠道报的状态和 metadata 里带回的用户/应用就是事实源，
// 确认购买时以它为准，不信客户端
type ProviderIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"` // 美分
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`

	// 渠道原始响应，购买记录留底用
	Raw json.RawMessage `json:"-"`
}

// PaymentProvider 支付渠道接口
type PaymentProvider interface {
	// CreateIntent 开单，金额单位美分
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*ProviderIntent, error)

	// GetIntent 查单
	GetIntent(ctx context.Context, intentID string) (*ProviderIntent, error)
}

// ==================== 配置 ====================

type StripeConfig struct {
	SecretKey string
	BaseURL   string // 默认 https://api.stripe.com
	Timeout   time.Duration
}

// ==================== Stripe 实现 ====================

// StripeService Stripe PaymentIntents API 客户端
type StripeService struct {
	config *StripeConfig
	client *resty.Client
}

// NewStripeService 创建 Stripe 客户端
func NewStripeService(cfg *StripeConfig) *StripeService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.SecretKey)

	return &StripeService{
		config: cfg,
		client: client,
	}
}

// stripeError Stripe 错误响应体
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent 开单
func (s *StripeService) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*ProviderIntent, error) {
	form := map[string]string{
		"amount":   fmt.Sprintf("%d", amountCents),
		"currency": currency,
	}
	for k, v := range metadata {
		form[fmt.Sprintf("metadata[%s]", k)] = v
	}

	var errBody stripeError
	resp, err := s.client.R().
		SetContext(ctx).
		// 网络重试撞上重复提交时，渠道侧靠这个键去重
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetFormData(form).
		SetError(&errBody).
		Post("/v1/payment_intents")

	return s.parseIntent(resp, err, &errBody)
}

// GetIntent 查单
func (s *StripeService) GetIntent(ctx context.Context, intentID string) (*ProviderIntent, error) {
	var errBody stripeError
	resp, err := s.client.R().
		SetContext(ctx).
		SetError(&errBody).
		Get("/v1/payment_intents/" + intentID)

	return s.parseIntent(resp, err, &errBody)
}

func (s *StripeService) parseIntent(resp *resty.Response, err error, errBody *stripeError) (*ProviderIntent, error) {
	if err != nil {
		return nil, ErrUpstream("支付渠道请求失败", err)
	}
	if resp.IsError() {
		msg := errBody.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, ErrUpstream("支付渠道返回错误: "+msg, nil)
	}

	var intent ProviderIntent
	if err := json.Unmarshal(resp.Body(), &intent); err != nil {
		return nil, ErrUpstream("支付渠道响应解析失败", err)
	}
	intent.Raw = json.RawMessage(resp.Body())
	return &intent, nil
}
