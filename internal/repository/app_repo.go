package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"appstore_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// AppRepository 应用仓储接口
type AppRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, app *model.App) error
	GetByID(ctx context.Context, id int64) (*model.App, error)
	GetBySlug(ctx context.Context, slug string) (*model.App, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, app *model.App) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	// 列表查询
	List(ctx context.Context, filter AppFilter) ([]model.App, int64, error)
	ListByDeveloper(ctx context.Context, developerID int64) ([]model.App, error)
	ListByStatus(ctx context.Context, status model.AppStatus, page, pageSize int) ([]model.App, int64, error)
	Categories(ctx context.Context) ([]string, error)

	// 评分聚合
	RatingStats(ctx context.Context, appIDs []int64) (map[int64]RatingStat, error)

	// 版本 / 截图（只增）
	CreateVersion(ctx context.Context, version *model.AppVersion) error
	LatestVersion(ctx context.Context, appID int64) (*model.AppVersion, error)
	CreateScreenshot(ctx context.Context, shot *model.Screenshot) error

	// 统计
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.AppStatus) (int64, error)
	CountGroupByDeveloper(ctx context.Context, developerIDs []int64) (map[int64]int64, error)
}

// ==================== 过滤条件 ====================

// 商店列表排序键
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
)

// AppFilter 商店列表过滤条件
type AppFilter struct {
	Status   model.AppStatus
	Query    string   // 标题/描述模糊匹配
	Category string
	MinPrice *float64
	MaxPrice *float64
	SortBy   string
	Page     int
	PageSize int
}

// RatingStat 单个应用的评分聚合
type RatingStat struct {
	AppID         int64
	AverageRating float64
	TotalReviews  int64
}

// ==================== 仓储实现 ====================

type appRepo struct {
	db *gorm.DB
}

// NewAppRepository 创建应用仓储
func NewAppRepository(db *gorm.DB) AppRepository {
	return &appRepo{db: db}
}

func (r *appRepo) Create(ctx context.Context, app *model.App) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *appRepo) GetByID(ctx context.Context, id int64) (*model.App, error) {
	var app model.App
	err := r.db.WithContext(ctx).First(&app, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *appRepo) GetBySlug(ctx context.Context, slug string) (*model.App, error) {
	var app model.App
	err := r.db.WithContext(ctx).
		Preload("Developer").
		Preload("Screenshots", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("slug = ?", slug).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *appRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.App{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

func (r *appRepo) Update(ctx context.Context, app *model.App) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *appRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.App{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *appRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.App{}, id).Error
}

func (r *appRepo) List(ctx context.Context, filter AppFilter) ([]model.App, int64, error) {
	var apps []model.App
	var total int64

	query := r.db.WithContext(ctx).Model(&model.App{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Query != "" {
		// LOWER + LIKE 在 postgres / sqlite 下行为一致
		kw := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", kw, kw)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.SortBy {
	case SortOldest:
		query = query.Order("created_at ASC")
	case SortPriceLow:
		query = query.Order("price ASC")
	case SortPriceHigh:
		query = query.Order("price DESC")
	case SortRating:
		// 相关子查询聚合，免去逐条二次查询
		query = query.Order(
			"(SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.app_id = apps.id AND r.deleted_at IS NULL) DESC")
	default: // SortNewest
		query = query.Order("created_at DESC")
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 12
	}

	err := query.
		Preload("Developer").
		Preload("Screenshots", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Limit(5)
		}).
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&apps).Error

	return apps, total, err
}

func (r *appRepo) ListByDeveloper(ctx context.Context, developerID int64) ([]model.App, error) {
	var apps []model.App
	err := r.db.WithContext(ctx).
		Preload("Screenshots", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Limit(1)
		}).
		Where("developer_id = ?", developerID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *appRepo) ListByStatus(ctx context.Context, status model.AppStatus, page, pageSize int) ([]model.App, int64, error) {
	var apps []model.App
	var total int64

	query := r.db.WithContext(ctx).
		Model(&model.App{}).
		Where("status = ?", status)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	// 审核队列先进先出
	err := query.
		Preload("Developer").
		Preload("Screenshots", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Limit(3)
		}).
		Order("created_at ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&apps).Error

	return apps, total, err
}

func (r *appRepo) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&model.App{}).
		Where("status = ?", model.AppStatusApproved).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// RatingStats 按应用分组聚合评分，一次查询覆盖整页
func (r *appRepo) RatingStats(ctx context.Context, appIDs []int64) (map[int64]RatingStat, error) {
	stats := make(map[int64]RatingStat, len(appIDs))
	if len(appIDs) == 0 {
		return stats, nil
	}

	var rows []RatingStat
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("app_id, AVG(rating) as average_rating, COUNT(*) as total_reviews").
		Where("app_id IN ?", appIDs).
		Group("app_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats[row.AppID] = row
	}
	return stats, nil
}

func (r *appRepo) CreateVersion(ctx context.Context, version *model.AppVersion) error {
	return r.db.WithContext(ctx).Create(version).Error
}

func (r *appRepo) LatestVersion(ctx context.Context, appID int64) (*model.AppVersion, error) {
	var version model.AppVersion
	err := r.db.WithContext(ctx).
		Where("app_id = ?", appID).
		Order("created_at DESC").
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *appRepo) CreateScreenshot(ctx context.Context, shot *model.Screenshot) error {
	return r.db.WithContext(ctx).Create(shot).Error
}

func (r *appRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.App{}).Count(&count).Error
	return count, err
}

func (r *appRepo) CountByStatus(ctx context.Context, status model.AppStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.App{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *appRepo) CountGroupByDeveloper(ctx context.Context, developerIDs []int64) (map[int64]int64, error) {
	result := make(map[int64]int64, len(developerIDs))
	if len(developerIDs) == 0 {
		return result, nil
	}

	type row struct {
		DeveloperID int64
		Count       int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.App{}).
		Select("developer_id, COUNT(*) as count").
		Where("developer_id IN ?", developerIDs).
		Group("developer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, item := range rows {
		result[item.DeveloperID] = item.Count
	}
	return result, nil
}
