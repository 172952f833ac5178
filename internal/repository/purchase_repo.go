package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"appstore_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// PurchaseRepository 购买记录 + 支付意向仓储接口
type PurchaseRepository interface {
	// 购买记录
	CreateIdempotent(ctx context.Context, purchase *model.Purchase) (*model.Purchase, error)
	GetByUserAndApp(ctx context.Context, userID, appID int64) (*model.Purchase, error)
	Exists(ctx context.Context, userID, appID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Purchase, error)

	// 统计
	Count(ctx context.Context) (int64, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	SumAmount(ctx context.Context) (float64, error)
	CountGroupByUser(ctx context.Context, userIDs []int64) (map[int64]int64, error)

	// 支付意向
	CreateIntent(ctx context.Context, intent *model.PaymentIntent) error
	GetIntentByProviderID(ctx context.Context, providerIntentID string) (*model.PaymentIntent, error)
	UpdateIntentStatus(ctx context.Context, providerIntentID string, status model.IntentStatus) error
	ListPendingIntents(ctx context.Context, olderThan time.Time, limit int) ([]model.PaymentIntent, error)
}

// ==================== 仓储实现 ====================

type purchaseRepo struct {
	db *gorm.DB
}

// NewPurchaseRepository 创建购买仓储
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db: db}
}

// CreateIdempotent 幂等落库
// 借助 (user_id, app_id) 唯一约束做 ON CONFLICT DO NOTHING，
// 并发确认同一笔支付时不会报错也不会写出第二行，最终都读回同一条记录。
// 不能用先查后插：两个请求同时通过存在性检查就会撞唯一索引
func (r *purchaseRepo) CreateIdempotent(ctx context.Context, purchase *model.Purchase) (*model.Purchase, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "app_id"}},
			DoNothing: true,
		}).
		Create(purchase).Error
	if err != nil {
		return nil, err
	}

	// 冲突时 Create 不回填主键，统一读回已存在的行
	return r.GetByUserAndApp(ctx, purchase.UserID, purchase.AppID)
}

func (r *purchaseRepo) GetByUserAndApp(ctx context.Context, userID, appID int64) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.WithContext(ctx).
		Preload("App").
		Preload("App.Developer").
		Where("user_id = ? AND app_id = ?", userID, appID).
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepo) Exists(ctx context.Context, userID, appID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("user_id = ? AND app_id = ?", userID, appID).
		Count(&count).Error
	return count > 0, err
}

func (r *purchaseRepo) ListByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := r.db.WithContext(ctx).
		Preload("App").
		Preload("App.Developer").
		Preload("App.Screenshots", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Limit(1)
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}

func (r *purchaseRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).Count(&count).Error
	return count, err
}

func (r *purchaseRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *purchaseRepo) SumAmount(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *purchaseRepo) CountGroupByUser(ctx context.Context, userIDs []int64) (map[int64]int64, error) {
	result := make(map[int64]int64, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	type row struct {
		UserID int64
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Select("user_id, COUNT(*) as count").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, item := range rows {
		result[item.UserID] = item.Count
	}
	return result, nil
}

// ==================== 支付意向 ====================

func (r *purchaseRepo) CreateIntent(ctx context.Context, intent *model.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *purchaseRepo) GetIntentByProviderID(ctx context.Context, providerIntentID string) (*model.PaymentIntent, error) {
	var intent model.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("provider_intent_id = ?", providerIntentID).
		First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *purchaseRepo) UpdateIntentStatus(ctx context.Context, providerIntentID string, status model.IntentStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.PaymentIntent{}).
		Where("provider_intent_id = ?", providerIntentID).
		Update("status", status).Error
}

// ListPendingIntents 捞出挂起超过一定时间的意向，供对账任务补录
func (r *purchaseRepo) ListPendingIntents(ctx context.Context, olderThan time.Time, limit int) ([]model.PaymentIntent, error) {
	var intents []model.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.IntentStatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&intents).Error
	return intents, err
}
