package dto

import "time"

// ==================== 请求 ====================

// CreateReviewRequest 创建评价请求
type CreateReviewRequest struct {
	AppID  int64  `json:"app_id" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Text   string `json:"text" binding:"required,min=10"`
}

// UpdateReviewRequest 修改评价请求
type UpdateReviewRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Text   string `json:"text" binding:"required,min=10"`
}

// ==================== 响应 ====================

// ReviewInfo 评价视图
type ReviewInfo struct {
	ID        int64     `json:"id"`
	AppID     int64     `json:"app_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewListResponse 评价列表响应
type ReviewListResponse struct {
	Reviews    []ReviewInfo `json:"reviews"`
	Pagination Pagination   `json:"pagination"`
}
