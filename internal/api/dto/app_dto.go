package dto

import (
	"time"

	"appstore_v1_202609/internal/model"
)

// ==================== 请求 ====================

// CreateAppRequest 创建应用请求
type CreateAppRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"required,min=10"`
	Category    string   `json:"category" binding:"required,max=100"`
	Price       float64  `json:"price" binding:"gte=0"`
	Tags        []string `json:"tags"`
}

// UpdateAppRequest 更新应用请求，nil 字段不改
type UpdateAppRequest struct {
	Title       *string  `json:"title" binding:"omitempty,max=200"`
	Description *string  `json:"description" binding:"omitempty,min=10"`
	Category    *string  `json:"category" binding:"omitempty,max=100"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Tags        []string `json:"tags"`
}

// AppListRequest 商店列表查询参数
type AppListRequest struct {
	Query    string   `form:"query"`
	Category string   `form:"category"`
	MinPrice *float64 `form:"min_price"`
	MaxPrice *float64 `form:"max_price"`
	SortBy   string   `form:"sort_by" binding:"omitempty,oneof=newest oldest price-low price-high rating"`
	Page     int      `form:"page" binding:"omitempty,min=1"`
	Limit    int      `form:"limit" binding:"omitempty,min=1"`
}

// CreateVersionRequest 发布新版本请求
type CreateVersionRequest struct {
	Version   string `json:"version" binding:"required,max=50"`
	FileKey   string `json:"file_key"`
	FileURL   string `json:"file_url"`
	Changelog string `json:"changelog"`
	Size      int64  `json:"size" binding:"gte=0"`
	Checksum  string `json:"checksum" binding:"omitempty,max=128"`
}

// CreateScreenshotRequest 追加截图请求
type CreateScreenshotRequest struct {
	FileURL    string `json:"file_url" binding:"required,max=500"`
	OrderIndex int    `json:"order_index" binding:"gte=0"`
}

// ==================== 响应 ====================

// AppSummary 商店列表条目
type AppSummary struct {
	ID            int64              `json:"id"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	Description   string             `json:"description"`
	Category      string             `json:"category"`
	Price         float64            `json:"price"`
	Tags          []string           `json:"tags"`
	Status        string             `json:"status"`
	DeveloperName string             `json:"developer_name"`
	Screenshots   []model.Screenshot `json:"screenshots"`
	AverageRating *float64           `json:"average_rating"`
	TotalReviews  int64              `json:"total_reviews"`
	CreatedAt     time.Time          `json:"created_at"`
}

// AppDetail 应用详情
type AppDetail struct {
	AppSummary
	CurrentVersion *model.AppVersion `json:"current_version"`
	Reviews        []ReviewInfo      `json:"reviews"`
}

// AppListResponse 商店列表响应
type AppListResponse struct {
	Apps       []AppSummary `json:"apps"`
	Pagination Pagination   `json:"pagination"`
}
