package dto

import (
	"time"

	"appstore_v1_202609/internal/model"
)

// ==================== 请求 ====================

// CreateIntentRequest 创建支付意向请求
// 注意：不收客户端金额字段，金额一律按目录价在服务端计算
type CreateIntentRequest struct {
	AppID int64 `json:"app_id" binding:"required"`
}

// ConfirmPurchaseRequest 确认购买请求
type ConfirmPurchaseRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// ==================== 响应 ====================

// CreateIntentResponse 创建支付意向响应
// 免费应用不走支付渠道，直接给回已落库的购买记录
type CreateIntentResponse struct {
	ClientSecret string        `json:"client_secret,omitempty"`
	Amount       float64       `json:"amount"`
	Free         bool          `json:"free"`
	Purchase     *PurchaseInfo `json:"purchase,omitempty"`
}

// PurchaseInfo 购买记录视图
type PurchaseInfo struct {
	ID                int64      `json:"id"`
	AppID             int64      `json:"app_id"`
	App               *model.App `json:"app,omitempty"`
	Amount            float64    `json:"amount"`
	Currency          string     `json:"currency"`
	ProviderPaymentID string     `json:"provider_payment_id"`
	CreatedAt         time.Time  `json:"created_at"`
}

// OwnershipInfo 持有检查响应
type OwnershipInfo struct {
	Owned bool `json:"owned"`
}

// DownloadInfo 下载信息响应
type DownloadInfo struct {
	DownloadURL string `json:"download_url"`
	Version     string `json:"version"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum"`
}
