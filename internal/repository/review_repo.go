package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"appstore_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// ReviewRepository 评价仓储接口
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	Exists(ctx context.Context, userID, appID int64) (bool, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	ListByApp(ctx context.Context, appID int64, page, pageSize int) ([]model.Review, int64, error)

	// 统计
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

// ==================== 仓储实现 ====================

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepo) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).Preload("User").First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) Exists(ctx context.Context, userID, appID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("user_id = ? AND app_id = ?", userID, appID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewRepo) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete 物理删除
// 唯一索引覆盖软删行会挡住用户删评后重评，这里直接删掉
func (r *reviewRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Review{}, id).Error
}

func (r *reviewRepo) ListByApp(ctx context.Context, appID int64, page, pageSize int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	query := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("app_id = ?", appID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	err := query.
		Preload("User").
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&reviews).Error

	return reviews, total, err
}

func (r *reviewRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
