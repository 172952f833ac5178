package model

import (
	"gorm.io/datatypes"
)

// ==================== Purchase 购买记录 ====================

// Purchase 购买记录，即用户对应用的所有权凭证
// (user_id, app_id) 唯一约束是防重复购买的正确性基础，
// 幂等确认依赖它而不是应用层加锁
type Purchase struct {
	BaseModel
	UserID int64 `gorm:"not null;uniqueIndex:idx_purchases_user_app" json:"user_id"`
	AppID  int64 `gorm:"not null;uniqueIndex:idx_purchases_user_app" json:"app_id"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	App  *App  `gorm:"foreignKey:AppID" json:"app,omitempty"`

	Amount   float64 `gorm:"not null;default:0" json:"amount"` // 单位：美元
	Currency string  `gorm:"size:10;default:'usd'" json:"currency"`

	// 支付渠道侧交易号；免费应用固定为 free
	ProviderPaymentID string `gorm:"size:100" json:"provider_payment_id"`

	// 渠道原始响应，留底备查
	RawPayload datatypes.JSON `gorm:"type:jsonb" json:"-"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// ==================== PaymentIntent 支付意向 ====================

// IntentStatus 本地支付意向状态
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "PENDING"   // 已开单，等待确认
	IntentStatusConfirmed IntentStatus = "CONFIRMED" // 已落购买记录
	IntentStatusCanceled  IntentStatus = "CANCELED"  // 渠道侧已取消
)

// PaymentIntent 支付意向的本地留痕
// 客户端掉线没回来确认时，对账任务靠它补录购买记录
type PaymentIntent struct {
	BaseModel
	ProviderIntentID string `gorm:"size:100;uniqueIndex;not null" json:"provider_intent_id"`

	UserID int64 `gorm:"index;not null" json:"user_id"`
	AppID  int64 `gorm:"index;not null" json:"app_id"`

	AmountCents int64  `gorm:"not null" json:"amount_cents"` // 单位：美分
	Currency    string `gorm:"size:10;default:'usd'" json:"currency"`

	Status IntentStatus `gorm:"size:20;default:'PENDING';index" json:"status"`
}

func (PaymentIntent) TableName() string {
	return "payment_intents"
}
